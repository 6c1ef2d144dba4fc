package hart

import "testing"

func TestXlenOfDefaultsToMXL(t *testing.T) {
	h := newTestHart(t)
	for _, p := range []Priv{PrivU, PrivS, PrivM} {
		if got := h.xlenOf(p); got != XLEN64 {
			t.Fatalf("xlenOf(%v) = %d, want 64 (SXL/UXL unset falls back to MXL)", p, got)
		}
	}
}

func TestXlenOfHonorsUXLField(t *testing.T) {
	h := newTestHart(t)
	h.Resume(DisableReset)
	h.Mstatus = (h.Mstatus &^ MstatusUXL) | (XLRV32 << MstatusUXLShift)
	if got := h.xlenOf(PrivU); got != XLEN32 {
		t.Fatalf("xlenOf(U) = %d after setting UXL=1, want 32", got)
	}
	if got := h.xlenOf(PrivM); got != XLEN64 {
		t.Fatalf("xlenOf(M) = %d, want unaffected by UXL", got)
	}
}

func TestRefreshXLENMaskTracksIs64(t *testing.T) {
	h := newTestHart(t)
	h.Resume(DisableReset)
	h.Mstatus = (h.Mstatus &^ MstatusUXL) | (XLRV32 << MstatusUXLShift)
	h.refreshMode()
	if h.Is64(PrivU) {
		t.Fatalf("Is64(U) = true after setting UXL=1")
	}
	if !h.Is64(PrivM) {
		t.Fatalf("Is64(M) = false, want true (M always runs at MXL)")
	}
}

func TestVMModeActiveTracksSatpMode(t *testing.T) {
	h := newTestHart(t)
	h.Resume(DisableReset)
	if h.vmModeActive() {
		t.Fatalf("vmModeActive() = true at reset (satp.MODE=Bare)")
	}
	h.Satp = 8 << 60 // Sv39
	h.refreshMode()
	if !h.VMEnabled() {
		t.Fatalf("VMEnabled() = false after setting satp.MODE=Sv39")
	}
}

func TestSetModeFlushesDataDomainOnEndianChange(t *testing.T) {
	h := newTestHart(t)
	h.Resume(DisableReset)
	var flushed bool
	h.Extensions.Register(ExtensionCallbacks{
		Name:            "test-flush-observer",
		DataDomainFlush: func(*Hart) { flushed = true },
	})
	// M runs little-endian (MBE clear) while S is configured big-endian
	// (SBE set), so crossing M->S changes currentEndian()'s result even
	// though SetMode itself never touches Mstatus.
	h.Mstatus |= MstatusSBE
	h.SetMode(PrivS)
	if !flushed {
		t.Fatalf("SetMode did not flush the data domain after an endianness change")
	}
}

func TestSetModeNoFlushWhenNothingRelevantChanges(t *testing.T) {
	h := newTestHart(t)
	h.Resume(DisableReset)
	var flushed bool
	h.Extensions.Register(ExtensionCallbacks{
		Name:            "test-flush-observer",
		DataDomainFlush: func(*Hart) { flushed = true },
	})
	h.SetMode(PrivS)
	if flushed {
		t.Fatalf("SetMode flushed the data domain though neither MPRV nor endianness changed")
	}
}

func TestModeKeyReflectsDebugMode(t *testing.T) {
	h := newTestHart(t)
	if h.ModeKey() != "M" {
		t.Fatalf("ModeKey() = %q, want M before debug entry", h.ModeKey())
	}
	h.EnterDebug(DebugCauseHaltreq, false)
	if h.ModeKey() != "Debug" {
		t.Fatalf("ModeKey() = %q, want Debug after EnterDebug", h.ModeKey())
	}
}
