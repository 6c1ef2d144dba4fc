package hart

import "golang.org/x/mod/semver"

// trap.go is the Trap Engine (§4.4): exception/interrupt entry, xRET
// return, and RNMI entry/exit. Generalizes _teacher_rv64/cpu.go's
// raiseException/handleTrap (a flat M/S two-level dispatcher) into the
// five-privilege, delegatable, CLIC-aware, RNMI-aware procedure the
// privileged spec actually describes.

// Enter performs trap entry for either an exception (ex is a non-nil
// *ExceptionError) or, when ex is nil, the currently computed pending
// interrupt, following these steps of §4.4:
//  1. pick target privilege (delegation-aware)
//  2. save *epc/*cause/*tval(/2)/*tinst
//  3. save previous privilege + interrupt-enable into *status
//  4. set new privilege, clear the target's global IE, copy PIE
//  5. compute handler PC (direct/vectored/CLIC)
//  6. notify extensions
//  7. update mode (XLEN/VM refresh, data-domain flush if needed)
//  8. set PC to the handler
func (h *Hart) Enter(ex *ExceptionError) {
	if ex != nil {
		h.enterException(ex)
		return
	}
	pend := h.pendEnab
	if !pend.Valid {
		return
	}
	h.enterInterrupt(pend)
}

func (h *Hart) enterException(ex *ExceptionError) {
	target := h.exceptionTarget(ex.Cause)
	h.saveTrapState(target, ex.Cause, ex.Tval, ex.Guest, ex.Tval2, ex.Tinst)
	h.redirectPrivilege(target)
	pc := h.computeHandlerPC(target, ex.Cause, false)
	h.Extensions.NotifyTrap(h, ex.Cause, ex.Tval, target)
	h.SetMode(target)
	h.PC = pc
}

func (h *Hart) enterInterrupt(pend PendingInterrupt) {
	h.saveTrapState(pend.Target, pend.Cause, 0, false, 0, 0)
	h.redirectPrivilege(pend.Target)
	vectored := h.Mtvec&0x3 == 1 || h.Config.CLIC
	pc := h.computeHandlerPC(pend.Target, pend.Cause, vectored)
	h.Extensions.NotifyTrap(h, pend.Cause, 0, pend.Target)
	h.SetMode(pend.Target)
	h.PC = pc
	h.RefreshPendingAndEnabled()
}

// exceptionTarget resolves the delegation chain for a synchronous
// exception (medeleg, then hedeleg for double delegation to VS).
func (h *Hart) exceptionTarget(cause uint64) Priv {
	bit := uint64(1) << cause
	if h.Medeleg&bit == 0 {
		return PrivM
	}
	if h.Misa&MisaH != 0 && h.Hedeleg&bit != 0 {
		return PrivVS
	}
	return PrivS
}

func (h *Hart) saveTrapState(target Priv, cause, tval uint64, guest bool, tval2, tinst uint64) {
	switch target {
	case PrivM:
		h.Mepc, h.Mcause, h.Mtval = h.PC, cause, tval
		h.Mtval2, h.Mtinst = tval2, tinst
		if guest {
			h.Mstatus |= MstatusGVA
		} else {
			h.Mstatus &^= MstatusGVA
		}
	case PrivS:
		h.setSEpc(h.PC)
		h.setSCause(cause)
		h.setSTval(tval)
	case PrivVS:
		h.Vsepc, h.Vscause, h.Vstval = h.PC, cause, tval
		h.Htval, h.Htinst = tval2, tinst
		if guest {
			h.Hstatus |= HstatusGVA
		} else {
			h.Hstatus &^= HstatusGVA
		}
	}
}

// redirectPrivilege is steps 3-4 of §4.4: save the previous interrupt
// enable/privilege into *status's PIE/PP fields, clear the target's
// global IE, and move the hart into the target privilege (the actual
// h.priv assignment happens in SetMode, called by the caller right after
// computing the handler PC so NotifyTrap sees the pre-entry privilege).
func (h *Hart) redirectPrivilege(target Priv) {
	switch target {
	case PrivM:
		pie := h.Mstatus&MstatusMIE != 0
		h.Mstatus &^= MstatusMPIE
		if pie {
			h.Mstatus |= MstatusMPIE
		}
		h.Mstatus &^= MstatusMIE
		h.Mstatus = (h.Mstatus &^ MstatusMPP) | (uint64(privToMPP(h.priv)) << MstatusMPPShift)
		if h.priv.Virtual() {
			h.Mstatus |= MstatusMPV
		} else {
			h.Mstatus &^= MstatusMPV
		}
	case PrivS:
		pie := h.Mstatus&MstatusSIE != 0
		h.Mstatus &^= MstatusSPIE
		if pie {
			h.Mstatus |= MstatusSPIE
		}
		h.Mstatus &^= MstatusSIE
		spp := uint64(0)
		if h.priv == PrivS {
			spp = 1
		}
		h.Mstatus = (h.Mstatus &^ MstatusSPP) | (spp << MstatusSPPShift)
	case PrivVS:
		pie := h.Vsstatus&MstatusSIE != 0
		h.Vsstatus &^= MstatusSPIE
		if pie {
			h.Vsstatus |= MstatusSPIE
		}
		h.Vsstatus &^= MstatusSIE
		spp := uint64(0)
		if h.priv == PrivVS {
			spp = 1
		}
		h.Vsstatus = (h.Vsstatus &^ MstatusSPP) | (spp << MstatusSPPShift)
		h.Hstatus = (h.Hstatus &^ HstatusSPV) | boolBit(h.priv.Virtual())<<7
		h.Hstatus = (h.Hstatus &^ HstatusSPVP) | boolBit(h.priv == PrivVS)<<8
	}
}

func boolBit(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func privToMPP(p Priv) uint64 {
	switch p {
	case PrivM:
		return 3
	case PrivS, PrivVS:
		return 1
	default:
		return 0
	}
}

// computeHandlerPC is step 5 of §4.4: direct, vectored (mtvec.MODE=1,
// PC=base+4*cause), or CLIC-vectored. In CLIC mode the handler PC is the
// table entry address mtvt/stvt + 4*ID itself (unless an extension
// supplies one): no table word is loaded from memory, so no fault can
// occur on that load and no nested trap is taken.
func (h *Hart) computeHandlerPC(target Priv, cause uint64, vectored bool) uint64 {
	tvec, tvt := h.tvecFor(target)
	isInt := IsInterrupt(cause)
	code := ExceptionCode(cause)

	if h.Config.CLIC && isInt {
		if pc, ok := h.Extensions.TryCustomHandlerPC(h, tvt, code, true); ok {
			return pc
		}
		return tvt + 4*code
	}

	base := tvec &^ 0x3
	mode := tvec & 0x3
	if isInt && vectored && mode == 1 {
		if pc, ok := h.Extensions.TryCustomHandlerPC(h, base, code, true); ok {
			return pc
		}
		return base + 4*code
	}
	if pc, ok := h.Extensions.TryCustomHandlerPC(h, base, code, false); ok {
		return pc
	}
	return base
}

func (h *Hart) tvecFor(target Priv) (tvec, tvt uint64) {
	switch target {
	case PrivM:
		return h.Mtvec, h.Mtvt
	case PrivS:
		return h.Stvec, h.Stvt
	case PrivVS:
		return h.Vstvec, 0
	default:
		return h.Mtvec, h.Mtvt
	}
}

// Return performs an xRET instruction's architectural effect: restore
// privilege from *PP, restore the global enable from *PIE, clear MPRV if
// the new privilege is below M (gated by priv_spec, §12 "MPRV-clear rule
// changed across privileged-spec revisions").
func (h *Hart) Return(from Priv) error {
	switch from {
	case PrivM:
		if h.priv != PrivM {
			return Exception(CauseIllegalInsn, 0)
		}
		mpp := Priv(privFromMPP((h.Mstatus & MstatusMPP) >> MstatusMPPShift))
		if h.Mstatus&MstatusMPV != 0 && mpp != PrivM {
			mpp = virtualize(mpp)
		}
		pie := h.Mstatus&MstatusMPIE != 0
		h.Mstatus &^= MstatusMIE
		if pie {
			h.Mstatus |= MstatusMIE
		}
		h.Mstatus |= MstatusMPIE
		h.Mstatus = (h.Mstatus &^ MstatusMPP) | (uint64(privToMPP(PrivU)) << MstatusMPPShift)
		h.Mstatus &^= MstatusMPV
		if mprvClearsOnRet(h.Config.PrivSpec) && mpp != PrivM {
			h.Mstatus &^= MstatusMPRV
		}
		h.PC = h.Mepc
		h.SetMode(mpp)
	case PrivS:
		if h.priv != PrivS && h.priv != PrivM {
			return Exception(CauseIllegalInsn, 0)
		}
		spp := PrivU
		if h.Mstatus&MstatusSPP != 0 {
			spp = PrivS
		}
		pie := h.Mstatus&MstatusSPIE != 0
		h.Mstatus &^= MstatusSIE
		if pie {
			h.Mstatus |= MstatusSIE
		}
		h.Mstatus |= MstatusSPIE
		h.Mstatus &^= MstatusSPP
		if mprvClearsOnRet(h.Config.PrivSpec) && spp != PrivM {
			h.Mstatus &^= MstatusMPRV
		}
		h.PC = h.sEpc()
		h.SetMode(spp)
	case PrivVS:
		spp := PrivVU
		if h.Vsstatus&MstatusSPP != 0 {
			spp = PrivVS
		}
		pie := h.Vsstatus&MstatusSPIE != 0
		h.Vsstatus &^= MstatusSIE
		if pie {
			h.Vsstatus |= MstatusSIE
		}
		h.Vsstatus |= MstatusSPIE
		h.Vsstatus &^= MstatusSPP
		if mprvClearsOnRet(h.Config.PrivSpec) {
			h.Mstatus &^= MstatusMPRV
		}
		h.PC = h.Vsepc
		h.SetMode(spp)
	}
	return nil
}

func privFromMPP(v uint64) Priv {
	switch v {
	case 0:
		return PrivU
	case 1:
		return PrivS
	case 3:
		return PrivM
	default:
		return PrivU
	}
}

func virtualize(p Priv) Priv {
	switch p {
	case PrivS:
		return PrivVS
	default:
		return PrivVU
	}
}

// mprvClearsOnRet implements the §12 priv_spec-gated rule: privileged-spec
// revisions 1.12 and later clear mstatus.MPRV on any xRET whose new
// privilege is below M; with older revisions xRET leaves MPRV unchanged.
func mprvClearsOnRet(privSpec string) bool {
	return semver.Compare(privSpec, "v1.12.0") >= 0
}

// EnterNMI performs RNMI entry (Smrnmi, §12): saves mnepc/mncause, clears
// mnstatus.NMIE (masking further NMIs until mnret), and redirects to the
// NMI vector.
func (h *Hart) EnterNMI(cause uint64) {
	if h.Extensions.TryCustomNMI(h) {
		return
	}
	h.Mnepc = h.PC
	h.Mncause = cause
	mnpp := privToMPP(h.priv)
	h.Mnstatus = (h.Mnstatus &^ mnstatusMNPP) | (mnpp << 11)
	if h.priv.Virtual() {
		h.Mnstatus |= mnstatusMNPV
	} else {
		h.Mnstatus &^= mnstatusMNPV
	}
	h.Mnstatus &^= MnstatusNMIE
	h.SetMode(PrivM)
	h.PC = h.Config.NMIAddr
}

// ReturnNMI performs mnret: restores privilege from mnstatus.MNPP and
// re-arms mnstatus.NMIE.
func (h *Hart) ReturnNMI() {
	mpp := privFromMPP((h.Mnstatus & mnstatusMNPP) >> 11)
	if h.Mnstatus&mnstatusMNPV != 0 && mpp != PrivM {
		mpp = virtualize(mpp)
	}
	h.Mnstatus |= MnstatusNMIE
	h.PC = h.Mnepc
	h.SetMode(mpp)
}
