package hart

import "testing"

func newTestHart(t *testing.T) *Hart {
	t.Helper()
	h, err := New(Config{ResetAddr: 0x8000_0000, Extensions: "imafdcshu"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return h
}

func TestNewColdResetEntersMachineMode(t *testing.T) {
	h := newTestHart(t)
	if h.Priv() != PrivM {
		t.Fatalf("Priv() = %v, want M", h.Priv())
	}
	if h.PC != 0x8000_0000 {
		t.Fatalf("PC = %#x, want reset_addr", h.PC)
	}
	if !h.Halted() {
		t.Fatalf("Halted() = false immediately after ColdReset (DisableReset should be set)")
	}
}

func TestHaltResumeClearsDisableReset(t *testing.T) {
	h := newTestHart(t)
	h.Resume(DisableReset)
	if h.Halted() {
		t.Fatalf("Halted() = true after clearing the only set reason")
	}
	h.Halt(DisableWFI)
	if !h.Halted() {
		t.Fatalf("Halted() = false after Halt(DisableWFI)")
	}
	h.Resume(DisableWFI)
	if h.Halted() {
		t.Fatalf("Halted() = true after resuming the last set reason")
	}
}

func TestWarmResetPreservesCSRState(t *testing.T) {
	h := newTestHart(t)
	h.Resume(DisableReset)
	if _, err := h.CSRWrite(CSRMscratch, 0xABCD); err != nil {
		t.Fatalf("CSRWrite: %v", err)
	}
	h.WarmReset()
	v, err := h.CSRRead(CSRMscratch)
	if err != nil {
		t.Fatalf("CSRRead: %v", err)
	}
	if v != 0xABCD {
		t.Fatalf("mscratch = %#x after WarmReset, want preserved 0xABCD", v)
	}
	if !h.Halted() {
		t.Fatalf("Halted() = false after WarmReset")
	}
}

func TestArchKeyChangesOnPrivilegeTransition(t *testing.T) {
	h := newTestHart(t)
	before := h.ArchKey()
	h.SetMode(PrivU)
	after := h.ArchKey()
	if before == after {
		t.Fatalf("ArchKey did not change across a privilege transition")
	}
	if after.Priv != PrivU {
		t.Fatalf("ArchKey.Priv = %v, want U", after.Priv)
	}
}
