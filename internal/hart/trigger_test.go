package hart

import "testing"

func TestTdata1RoundtripPreservesSupportedType(t *testing.T) {
	h := newTestHart(t)
	h.Resume(DisableReset)
	val := (uint64(TriggerMControl) << 60) | td1EnM | td1Execute
	if _, err := h.CSRWrite(CSRTdata1, val); err != nil {
		t.Fatalf("CSRWrite tdata1: %v", err)
	}
	got, err := h.CSRRead(CSRTdata1)
	if err != nil {
		t.Fatalf("CSRRead tdata1: %v", err)
	}
	if got>>60 != uint64(TriggerMControl) {
		t.Fatalf("tdata1.type = %d, want TriggerMControl", got>>60)
	}
	if got&td1EnM == 0 || got&td1Execute == 0 {
		t.Fatalf("tdata1 = %#x, want EnM and Execute bits set", got)
	}
}

func TestTdata1UnsupportedTypeWARLRevert(t *testing.T) {
	h := newTestHart(t)
	h.Resume(DisableReset)
	// TriggerLegacy (1) is never in defaultTinfo's supported set.
	val := uint64(TriggerLegacy) << 60
	if _, err := h.CSRWrite(CSRTdata1, val); err != nil {
		t.Fatalf("CSRWrite tdata1: %v", err)
	}
	got, err := h.CSRRead(CSRTdata1)
	if err != nil {
		t.Fatalf("CSRRead tdata1: %v", err)
	}
	if got>>60 != uint64(TriggerNone) {
		t.Fatalf("tdata1.type = %d after writing an unsupported type, want reverted to None", got>>60)
	}
}

func TestMatchFetchFiresOnExecTrigger(t *testing.T) {
	h := newTestHart(t)
	h.Resume(DisableReset)
	if _, err := h.CSRWrite(CSRTdata1, (uint64(TriggerMControl)<<60)|td1EnM|td1Execute); err != nil {
		t.Fatalf("CSRWrite tdata1: %v", err)
	}
	if _, err := h.CSRWrite(CSRTdata2, 0x1000); err != nil {
		t.Fatalf("CSRWrite tdata2: %v", err)
	}
	if hit := h.MatchFetch(0x1000); hit == nil {
		t.Fatalf("MatchFetch(0x1000) = nil, want a hit")
	}
	if hit := h.MatchFetch(0x2000); hit != nil {
		t.Fatalf("MatchFetch(0x2000) = %+v, want no hit (address mismatch)", hit)
	}
}

func TestMatchFetchIgnoresTriggerNotEnabledForCurrentPriv(t *testing.T) {
	h := newTestHart(t)
	h.Resume(DisableReset)
	// Enabled only for U, while the hart is still in M.
	if _, err := h.CSRWrite(CSRTdata1, (uint64(TriggerMControl)<<60)|td1EnU|td1Execute); err != nil {
		t.Fatalf("CSRWrite tdata1: %v", err)
	}
	if _, err := h.CSRWrite(CSRTdata2, 0x1000); err != nil {
		t.Fatalf("CSRWrite tdata2: %v", err)
	}
	if hit := h.MatchFetch(0x1000); hit != nil {
		t.Fatalf("MatchFetch(0x1000) = %+v, want no hit (trigger not enabled for M)", hit)
	}
}

func TestMatchNeverFiresInDebugMode(t *testing.T) {
	h := newTestHart(t)
	h.Resume(DisableReset)
	if _, err := h.CSRWrite(CSRTdata1, (uint64(TriggerMControl)<<60)|td1EnM|td1Execute); err != nil {
		t.Fatalf("CSRWrite tdata1: %v", err)
	}
	if _, err := h.CSRWrite(CSRTdata2, 0x1000); err != nil {
		t.Fatalf("CSRWrite tdata2: %v", err)
	}
	h.EnterDebug(DebugCauseHaltreq, false)
	if hit := h.MatchFetch(0x1000); hit != nil {
		t.Fatalf("MatchFetch fired while already in Debug mode")
	}
}

func TestTickICountFiresAfterNInstructions(t *testing.T) {
	h := newTestHart(t)
	h.Resume(DisableReset)
	if _, err := h.CSRWrite(CSRTdata1, (uint64(TriggerICount)<<60)|td1EnM); err != nil {
		t.Fatalf("CSRWrite tdata1: %v", err)
	}
	if _, err := h.CSRWrite(CSRTdata2, 2); err != nil {
		t.Fatalf("CSRWrite tdata2: %v", err)
	}
	if hit := h.TickICount(); hit != nil {
		t.Fatalf("TickICount fired after 1 instruction, want countdown=2 first")
	}
	hit := h.TickICount()
	if hit == nil {
		t.Fatalf("TickICount did not fire after the configured countdown elapsed")
	}
}

func TestAnyTriggerArmedReflectsCurrentMode(t *testing.T) {
	h := newTestHart(t)
	h.Resume(DisableReset)
	if h.anyTriggerArmed() {
		t.Fatalf("anyTriggerArmed() = true with no triggers configured")
	}
	if _, err := h.CSRWrite(CSRTcontrol, tcontrolMTE); err != nil {
		t.Fatalf("CSRWrite tcontrol: %v", err)
	}
	if _, err := h.CSRWrite(CSRTdata1, (uint64(TriggerMControl)<<60)|td1EnM|td1Execute); err != nil {
		t.Fatalf("CSRWrite tdata1: %v", err)
	}
	if !h.anyTriggerArmed() {
		t.Fatalf("anyTriggerArmed() = false with tcontrol.MTE set and an M-enabled trigger armed in M-mode")
	}
}
