package hart

import "testing"

func TestEnterExceptionTargetsMachineByDefault(t *testing.T) {
	h := newTestHart(t)
	h.Resume(DisableReset)
	h.PC = 0x1000
	h.Mtvec = 0x9000_0000 // direct mode
	h.Enter(&ExceptionError{Cause: CauseIllegalInsn, Tval: 0xBAD})
	if h.Priv() != PrivM {
		t.Fatalf("Priv() = %v after undelegated exception, want M", h.Priv())
	}
	if h.Mepc != 0x1000 {
		t.Fatalf("mepc = %#x, want the faulting PC 0x1000", h.Mepc)
	}
	if h.Mcause != CauseIllegalInsn {
		t.Fatalf("mcause = %d, want CauseIllegalInsn", h.Mcause)
	}
	if h.Mtval != 0xBAD {
		t.Fatalf("mtval = %#x, want 0xBAD", h.Mtval)
	}
	if h.PC != 0x9000_0000 {
		t.Fatalf("PC = %#x after trap entry, want mtvec base", h.PC)
	}
}

func TestEnterExceptionDelegatesToSupervisor(t *testing.T) {
	h := newTestHart(t)
	h.Resume(DisableReset)
	h.Medeleg = uint64(1) << CauseBreakpoint
	h.Stvec = 0xA000_0000
	h.PC = 0x2000
	h.Enter(&ExceptionError{Cause: CauseBreakpoint, Tval: 0})
	if h.Priv() != PrivS {
		t.Fatalf("Priv() = %v after delegated exception, want S", h.Priv())
	}
	if h.Sepc != 0x2000 {
		t.Fatalf("sepc = %#x, want 0x2000", h.Sepc)
	}
	if h.PC != 0xA000_0000 {
		t.Fatalf("PC = %#x after delegated trap entry, want stvec base", h.PC)
	}
}

func TestEnterSavesAndClearsMIEPushingMPIE(t *testing.T) {
	h := newTestHart(t)
	h.Resume(DisableReset)
	h.Mstatus |= MstatusMIE
	h.Enter(&ExceptionError{Cause: CauseIllegalInsn, Tval: 0})
	if h.Mstatus&MstatusMIE != 0 {
		t.Fatalf("mstatus.MIE still set after trap entry")
	}
	if h.Mstatus&MstatusMPIE == 0 {
		t.Fatalf("mstatus.MPIE not set to the previous MIE value after trap entry")
	}
}

func TestMretRestoresPrivilegeAndPC(t *testing.T) {
	h := newTestHart(t)
	h.Resume(DisableReset)
	h.Mepc = 0x4000
	h.Mstatus = (h.Mstatus &^ MstatusMPP) | (uint64(privToMPP(PrivU)) << MstatusMPPShift)
	h.Mstatus |= MstatusMPIE
	if err := h.Return(PrivM); err != nil {
		t.Fatalf("Return: %v", err)
	}
	if h.Priv() != PrivU {
		t.Fatalf("Priv() = %v after mret with MPP=U, want U", h.Priv())
	}
	if h.PC != 0x4000 {
		t.Fatalf("PC = %#x after mret, want mepc 0x4000", h.PC)
	}
	if h.Mstatus&MstatusMIE == 0 {
		t.Fatalf("mstatus.MIE not restored from MPIE after mret")
	}
}

func TestMretFromNonMachineIsIllegal(t *testing.T) {
	h := newTestHart(t)
	h.Resume(DisableReset)
	h.SetMode(PrivU)
	if err := h.Return(PrivM); err == nil {
		t.Fatalf("expected an error executing mret from U-mode")
	}
}

func TestEnterNMIMasksFurtherNMIsUntilReturn(t *testing.T) {
	h := newTestHart(t)
	h.Resume(DisableReset)
	h.PC = 0x3000
	h.Config.NMIAddr = 0xB000_0000
	h.EnterNMI(7)
	if h.Mnstatus&MnstatusNMIE != 0 {
		t.Fatalf("mnstatus.NMIE still set after NMI entry")
	}
	if h.PC != 0xB000_0000 {
		t.Fatalf("PC = %#x after NMI entry, want the configured NMI vector", h.PC)
	}
	if h.Mnepc != 0x3000 {
		t.Fatalf("mnepc = %#x, want 0x3000", h.Mnepc)
	}
	h.ReturnNMI()
	if h.Mnstatus&MnstatusNMIE == 0 {
		t.Fatalf("mnstatus.NMIE not re-armed after mnret")
	}
	if h.PC != 0x3000 {
		t.Fatalf("PC = %#x after mnret, want restored mnepc", h.PC)
	}
}
