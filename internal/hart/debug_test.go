package hart

import "testing"

func TestEnterDebugLatchesCauseAndPC(t *testing.T) {
	h := newTestHart(t)
	h.Resume(DisableReset)
	h.PC = 0x5000
	h.EnterDebug(DebugCauseEbreak, false)
	if !h.DM {
		t.Fatalf("DM = false after EnterDebug")
	}
	if h.Dpc != 0x5000 {
		t.Fatalf("dpc = %#x, want the PC at entry 0x5000", h.Dpc)
	}
	cause := (h.Dcsr & dcsrCauseMask) >> dcsrCauseShift
	if cause != DebugCauseEbreak {
		t.Fatalf("dcsr.cause = %d, want DebugCauseEbreak", cause)
	}
	if !h.Halted() {
		t.Fatalf("Halted() = false while in Debug mode")
	}
}

func TestExitDebugRestoresPCAndPrivilege(t *testing.T) {
	h := newTestHart(t)
	h.Resume(DisableReset)
	h.PC = 0x6000
	h.SetMode(PrivS)
	h.EnterDebug(DebugCauseHaltreq, false)
	h.PC = 0x7000 // debugger pokes around
	h.ExitDebug()
	if h.DM {
		t.Fatalf("DM = true after ExitDebug")
	}
	if h.PC != 0x6000 {
		t.Fatalf("PC = %#x after dret, want restored dpc 0x6000", h.PC)
	}
	if h.Priv() != PrivS {
		t.Fatalf("Priv() = %v after dret, want the privilege latched at entry (S)", h.Priv())
	}
}

func TestStepArmedTriggersOneShotBreak(t *testing.T) {
	h := newTestHart(t)
	h.Resume(DisableReset)
	h.EnterDebug(DebugCauseHaltreq, false)
	if err := h.DebugCSRWrite(CSRDcsr, dcsrStep); err != nil {
		t.Fatalf("DebugCSRWrite dcsr: %v", err)
	}
	h.ExitDebug()
	if !h.ShouldStepBreak() {
		t.Fatalf("ShouldStepBreak() = false after dret with dcsr.step=1")
	}
	if h.ShouldStepBreak() {
		t.Fatalf("ShouldStepBreak() = true on a second call, want one-shot")
	}
}

func TestEbreakEntersDebugHonorsDcsrBits(t *testing.T) {
	h := newTestHart(t)
	h.Resume(DisableReset)
	if h.EbreakEntersDebug() {
		t.Fatalf("EbreakEntersDebug() = true with dcsr.ebreakm clear")
	}
	h.Dcsr |= dcsrEbreakM
	if !h.EbreakEntersDebug() {
		t.Fatalf("EbreakEntersDebug() = false with dcsr.ebreakm set")
	}
}

func TestDebugCSRAccessRequiresHalted(t *testing.T) {
	h := newTestHart(t)
	h.Resume(DisableReset)
	if _, err := h.DebugCSRRead(CSRDpc); err == nil {
		t.Fatalf("expected an error reading dpc while not halted in Debug mode")
	}
	h.EnterDebug(DebugCauseHaltreq, false)
	if _, err := h.DebugCSRRead(CSRDpc); err != nil {
		t.Fatalf("DebugCSRRead while halted: %v", err)
	}
}

func TestDebugCSRWriteBypassesOrdinaryGating(t *testing.T) {
	h := newTestHart(t)
	h.Resume(DisableReset)
	h.EnterDebug(DebugCauseHaltreq, false)
	if err := h.DebugCSRWrite(CSRDscratch0, 0x1234); err != nil {
		t.Fatalf("DebugCSRWrite: %v", err)
	}
	v, err := h.DebugCSRRead(CSRDscratch0)
	if err != nil {
		t.Fatalf("DebugCSRRead: %v", err)
	}
	if v != 0x1234 {
		t.Fatalf("dscratch0 = %#x, want 0x1234", v)
	}
}
