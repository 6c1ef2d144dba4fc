package hart

// debug.go is the Debug Module Interface (Sdext, §4.6): Running/Debug
// state transitions, dret resumption, and the single-step engine. Nothing
// in the teacher models a debug unit, so this follows the trigger engine's
// lead — fresh code in the package's established descriptor/storage idiom.

const (
	dcsrPrvMask     = 0x3
	dcsrStep        = 1 << 2
	dcsrNMIP        = 1 << 3
	dcsrMprven      = 1 << 4
	dcsrV           = 1 << 5
	dcsrCauseShift  = 6
	dcsrCauseMask   = 0x7 << dcsrCauseShift
	dcsrStoptime    = 1 << 9
	dcsrStopcount   = 1 << 10
	dcsrStepie      = 1 << 11
	dcsrEbreakU     = 1 << 12
	dcsrEbreakS     = 1 << 13
	dcsrEbreakVU    = 1 << 16
	dcsrEbreakVS    = 1 << 17
	dcsrEbreakM     = 1 << 15
	dcsrXdebugverShift = 28
)

// defaultDcsr is dcsr's cold-reset value (§3 "Lifecycle"): xdebugver=4
// (Sdext 1.0), everything else clear.
func defaultDcsr(cfg Config) uint64 {
	return 4 << dcsrXdebugverShift
}

func (h *Hart) registerDebugCSRs() {
	h.registerCSR(&CSRDescriptor{Name: "dcsr", Addr: CSRDcsr, StateenBit: -1, Features: requireDebug,
		Read: func(h *Hart) (uint64, error) { return h.Dcsr, nil },
		Write: func(h *Hart, val uint64) error {
			const writable = dcsrStep | dcsrMprven | dcsrStoptime | dcsrStopcount |
				dcsrStepie | dcsrEbreakU | dcsrEbreakS | dcsrEbreakVU | dcsrEbreakVS | dcsrEbreakM
			h.Dcsr = (h.Dcsr &^ writable) | (val & writable)
			return nil
		}})
	h.registerCSR(&CSRDescriptor{Name: "dpc", Addr: CSRDpc, StateenBit: -1, Features: requireDebug,
		Read:  func(h *Hart) (uint64, error) { return h.Dpc, nil },
		Write: func(h *Hart, val uint64) error { h.Dpc = val; return nil }})
	h.registerCSR(&CSRDescriptor{Name: "dscratch0", Addr: CSRDscratch0, StateenBit: -1, Features: requireDebug,
		Read:  func(h *Hart) (uint64, error) { return h.Dscratch0, nil },
		Write: func(h *Hart, val uint64) error { h.Dscratch0 = val; return nil }})
	h.registerCSR(&CSRDescriptor{Name: "dscratch1", Addr: CSRDscratch1, StateenBit: -1, Features: requireDebug,
		Read:  func(h *Hart) (uint64, error) { return h.Dscratch1, nil },
		Write: func(h *Hart, val uint64) error { h.Dscratch1 = val; return nil }})
}

// EnterDebug transitions Running→Debug (§4.6, testable property 7: "dcsr.
// cause always reflects the most recent entry reason; dpc always holds the
// PC at entry"). virtualMode is latched into dcsr.v for the debugger to
// read; dret does not consult dcsr.v, it resumes in the exact privilege
// (virtual or not) recorded here at entry.
func (h *Hart) EnterDebug(cause uint64, virtualMode bool) {
	h.debugResumePriv = h.priv
	h.debugResumeVirtual = h.priv.Virtual()
	h.Dpc = h.PC
	h.Dcsr = (h.Dcsr &^ dcsrCauseMask) | (cause << dcsrCauseShift)
	h.Dcsr = (h.Dcsr &^ dcsrPrvMask) | uint64(debugPrv(h.priv))
	if virtualMode {
		h.Dcsr |= dcsrV
	} else {
		h.Dcsr &^= dcsrV
	}
	h.DM = true
	h.Halt(DisableDebug)
	h.refreshMode()
}

func debugPrv(p Priv) int {
	switch p {
	case PrivM:
		return 3
	case PrivS, PrivVS:
		return 1
	default:
		return 0
	}
}

// ExitDebug performs dret: resumes at dpc in the privilege latched at
// entry (§4.6 "dret restores exactly the privilege and PC debug mode
// interrupted").
func (h *Hart) ExitDebug() {
	h.DM = false
	h.Resume(DisableDebug)
	h.PC = h.Dpc
	h.SetMode(h.debugResumePriv)
	if h.Dcsr&dcsrStep != 0 {
		h.stepArmed = true
	}
}

// ShouldStepBreak reports whether the single-step engine should re-enter
// Debug mode after the instruction just retired (§4.6 "step: exactly one
// instruction retires, then Debug is re-entered with cause=Step"), honoring
// stepie's "don't take interrupts mid-step" gate at the call site rather
// than here.
func (h *Hart) ShouldStepBreak() bool {
	if !h.stepArmed {
		return false
	}
	h.stepArmed = false
	return true
}

// StepInterruptsMasked reports whether mstatus/vsstatus's global interrupt
// enables should be treated as clear for the duration of a single step
// (dcsr.stepie=0, the common "don't take interrupts while the debugger
// single-steps" default).
func (h *Hart) StepInterruptsMasked() bool { return h.Dcsr&dcsrStepie == 0 }

// EbreakEntersDebug reports whether an ebreak in the current privilege
// mode should enter Debug mode (dcsr.ebreak{m,s,u,vs,vu}=1) rather than
// raise the ordinary Breakpoint exception (§4.6).
func (h *Hart) EbreakEntersDebug() bool {
	switch h.priv {
	case PrivM:
		return h.Dcsr&dcsrEbreakM != 0
	case PrivS:
		return h.Dcsr&dcsrEbreakS != 0
	case PrivVS:
		return h.Dcsr&dcsrEbreakVS != 0
	case PrivVU:
		return h.Dcsr&dcsrEbreakVU != 0
	default:
		return h.Dcsr&dcsrEbreakU != 0
	}
}

// DebugCSRRead/DebugCSRWrite are the "abstract command" access path (§4.6,
// §6 "Debug Module Interface: net ports"): external debuggers (this
// module's cmd/hartctl) can reach any CSR while the hart is halted in
// Debug mode, bypassing the ordinary privilege/Smstateen gate that governs
// in-band software access (§4.1's checkCSRAccess/checkStateen are for
// instructions the hart itself executes, not for the debugger's sideband).
func (h *Hart) DebugCSRRead(addr CSRAddr) (uint64, error) {
	if !h.DM {
		return 0, fatalConfig("debug csr access", errNotHalted)
	}
	d, ok := h.csrs[addr]
	if !ok {
		return 0, Exception(CauseIllegalInsn, uint64(addr))
	}
	if d.Read == nil {
		return 0, nil
	}
	return d.Read(h)
}

func (h *Hart) DebugCSRWrite(addr CSRAddr, val uint64) error {
	if !h.DM {
		return fatalConfig("debug csr access", errNotHalted)
	}
	d, ok := h.csrs[addr]
	if !ok || d.Write == nil {
		return Exception(CauseIllegalInsn, uint64(addr))
	}
	return d.Write(h, val)
}
