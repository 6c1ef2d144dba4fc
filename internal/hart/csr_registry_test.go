package hart

import "testing"

func TestCSRWriteMaskRoundtrip(t *testing.T) {
	h := newTestHart(t)
	if _, err := h.CSRWrite(CSRMtvec, 0xDEADBEEF); err != nil {
		t.Fatalf("CSRWrite: %v", err)
	}
	v, err := h.CSRRead(CSRMtvec)
	if err != nil {
		t.Fatalf("CSRRead: %v", err)
	}
	if v != 0xDEADBEEF {
		t.Fatalf("mtvec = %#x, want 0xDEADBEEF (full mask)", v)
	}
}

func TestCSRWritePartialMaskPreservesUnmaskedBits(t *testing.T) {
	h := newTestHart(t)
	if _, err := h.CSRWrite(CSRMcounteren, 0xFFFF_FFFF_FFFF_FFFF); err != nil {
		t.Fatalf("CSRWrite: %v", err)
	}
	v, err := h.CSRRead(CSRMcounteren)
	if err != nil {
		t.Fatalf("CSRRead: %v", err)
	}
	if v != 0xFFFF_FFFF {
		t.Fatalf("mcounteren = %#x, want masked to low 32 bits", v)
	}
}

func TestCSRReadUnknownAddrIsIllegalInstruction(t *testing.T) {
	h := newTestHart(t)
	_, err := h.CSRRead(CSRAddr(0xFFF))
	if err == nil {
		t.Fatalf("expected an error reading an unregistered CSR address")
	}
	ex, ok := err.(ExceptionError)
	if !ok {
		t.Fatalf("error type = %T, want ExceptionError", err)
	}
	if ex.Cause != CauseIllegalInsn {
		t.Fatalf("cause = %d, want CauseIllegalInsn", ex.Cause)
	}
}

func TestCSRWriteReadOnlyAddrIsIllegalInstruction(t *testing.T) {
	h := newTestHart(t)
	if _, err := h.CSRWrite(CSRCycle, 1); err == nil {
		t.Fatalf("expected an error writing the read-only cycle CSR (addr bits [11:10]=11)")
	}
}

func TestCSRAccessPrivilegeCheck(t *testing.T) {
	h := newTestHart(t)
	h.Resume(DisableReset)
	h.SetMode(PrivU)
	if _, err := h.CSRRead(CSRMscratch); err == nil {
		t.Fatalf("expected an error reading an M-only CSR from U-mode")
	}
}

func TestCSRFeaturesGateAbsentExtension(t *testing.T) {
	h, err := New(Config{Extensions: "im"}) // no 's' extension
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := h.CSRRead(CSRSstatus); err == nil {
		t.Fatalf("expected an error reading sstatus on a hart without the S extension")
	}
}

func TestApplyRemap(t *testing.T) {
	h := newTestHart(t)
	if err := h.applyRemap("mscratch=0x7FF"); err != nil {
		t.Fatalf("applyRemap: %v", err)
	}
	if _, err := h.CSRWrite(CSRAddr(0x7FF), 42); err != nil {
		t.Fatalf("CSRWrite at remapped addr: %v", err)
	}
	v, err := h.CSRRead(CSRAddr(0x7FF))
	if err != nil {
		t.Fatalf("CSRRead at remapped addr: %v", err)
	}
	if v != 42 {
		t.Fatalf("value at remapped addr = %d, want 42", v)
	}
	if _, err := h.CSRRead(CSRMscratch); err == nil {
		t.Fatalf("expected the old mscratch address to no longer resolve after remap")
	}
}

func TestApplyRemapIgnoresUnknownNames(t *testing.T) {
	h := newTestHart(t)
	if err := h.applyRemap("nonexistent=0x123"); err != nil {
		t.Fatalf("applyRemap with an unknown name should be a no-op, got: %v", err)
	}
}

func TestIterateIsSortedAndFeatureFiltered(t *testing.T) {
	h, err := New(Config{Extensions: "im"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	entries := h.Iterate()
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Addr > entries[i].Addr {
			t.Fatalf("Iterate() not sorted by address at index %d", i)
		}
	}
	for _, e := range entries {
		if e.Name == "sstatus" {
			t.Fatalf("Iterate() listed sstatus on a hart without the S extension")
		}
	}
}
