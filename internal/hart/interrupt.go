package hart

// interrupt.go is the Interrupt Controller (§4.3): computes pend_enab and
// clic_sel from the CSR bank on every write that could move them,
// mirroring _teacher_rv64/cpu.go's checkInterrupt but generalized past the
// teacher's flat three-cause model to delegation, CLIC, and AIA priority.

// InterruptPriority is the priority reported with a selected interrupt
// (§3, §4.3): Major is the architectural tier, Minor the AIA iprio byte.
// Selection in computePendEnab uses only the fixed basicPriorityOrder and
// ascending local-interrupt index; it does not compare these values, so
// Minor never breaks a tie. Standard causes report a zero value unless an
// extension supplies one; local interrupts report their Miprio byte.
type InterruptPriority struct {
	Major uint8
	Minor uint8
}

// basicPriorityOrder is the fixed architectural tier order (highest
// first) used when Smaia/Ssaia isn't enabled (§4.3 "basic priority
// order"). Local interrupts (bit 13+) are lower priority than every
// standard cause and are ordered by ascending bit index.
var basicPriorityOrder = []uint64{
	CauseMExternalInt,
	CauseMSoftwareInt,
	CauseMTimerInt,
	CauseSGuestExternalInt,
	CauseSExternalInt,
	CauseSSoftwareInt,
	CauseSTimerInt,
	CauseVSExternalInt,
	CauseVSSoftwareInt,
	CauseVSTimerInt,
}

func trapOrdinal(p Priv) int {
	switch p {
	case PrivM:
		return 4
	case PrivS:
		return 3
	case PrivVS:
		return 2
	case PrivU:
		return 1
	case PrivVU:
		return 0
	default:
		return -1
	}
}

// globallyEnabledAt reports whether an interrupt destined for target would
// actually be taken given the hart's current privilege (§4.3): a target
// strictly above the current privilege is always taken, a target equal to
// it only if that level's global enable (xIE) is set, and a target below
// it is never taken.
func (h *Hart) globallyEnabledAt(target Priv) bool {
	cur, want := trapOrdinal(h.priv), trapOrdinal(target)
	if cur < want {
		return true
	}
	if cur > want {
		return false
	}
	switch target {
	case PrivM:
		return h.Mstatus&MstatusMIE != 0
	case PrivS:
		return h.Mstatus&MstatusSIE != 0
	case PrivVS:
		return h.Vsstatus&MstatusSIE != 0
	default:
		return true
	}
}

// delegationTarget returns the privilege an interrupt cause would trap
// into given the current Mideleg/Hideleg setting (§4.3 "double
// delegation": M delegates to S via mideleg, S may further delegate to VS
// via hideleg for guest-visible causes).
func (h *Hart) delegationTarget(bit uint64) Priv {
	if h.Mideleg&bit == 0 {
		return PrivM
	}
	if h.Misa&MisaH != 0 && h.Hideleg&bit != 0 {
		return PrivVS
	}
	return PrivS
}

func (h *Hart) effectiveMip() uint64 {
	return h.Mip | (h.Mvip & h.Mvien)
}

// anyPendingLocallyEnabled answers whether WFI should resume: pending and
// individually unmasked, independent of the target's global xIE bit or
// delegation (§9 "WFI must wake on any pending+enabled interrupt even if
// the global enable that would let it trap is clear").
func (h *Hart) anyPendingLocallyEnabled() bool {
	if h.effectiveMip()&h.Mie != 0 {
		return true
	}
	if h.Misa&MisaH != 0 && h.effectiveHip()&h.Hie != 0 {
		return true
	}
	return false
}

// RefreshPendingAndEnabled recomputes pend_enab and clic_sel (§4.3). Called
// after any write that could move pending/enabled state: mip, mie,
// mideleg, hideleg, hie, hvip, delegation CSRs, the status registers
// holding the global enables, stimecmp/vstimecmp expiry.
func (h *Hart) RefreshPendingAndEnabled() {
	old := h.pendEnab
	h.pendEnab = h.computePendEnab()
	h.clicSel = h.computeCLICSelected()
	if h.pendEnab != old {
		h.log.Debug("interrupt state changed",
			"valid", h.pendEnab.Valid, "cause", h.pendEnab.Cause, "target", h.pendEnab.Target)
	}
}

func (h *Hart) computePendEnab() PendingInterrupt {
	pend := h.effectiveMip() & h.Mie
	for _, cause := range basicPriorityOrder {
		bit := cause &^ intBit
		mask := uint64(1) << bit
		if pend&mask == 0 {
			continue
		}
		target := h.delegationTarget(mask)
		if !h.globallyEnabledAt(target) {
			continue
		}
		if prio, ok := h.Extensions.TryCustomInterruptPrio(h, cause); ok {
			return PendingInterrupt{Valid: true, Cause: cause, Target: target, Priority: prio}
		}
		return PendingInterrupt{Valid: true, Cause: cause, Target: target}
	}
	for bit := uint(MipLocalBase); bit < 64; bit++ {
		mask := uint64(1) << bit
		if pend&mask == 0 {
			continue
		}
		target := h.delegationTarget(mask)
		if !h.globallyEnabledAt(target) {
			continue
		}
		return PendingInterrupt{Valid: true, Cause: intBit | uint64(bit), Target: target,
			Priority: InterruptPriority{Minor: h.AIA.Miprio[bit%64]}}
	}
	return PendingInterrupt{}
}

// computeCLICSelected models the CLIC's externally-visible selected
// interrupt (§3 clic_sel): only meaningful when Smclic-style vectoring is
// configured, which this core surfaces through Config.CLIC.
func (h *Hart) computeCLICSelected() CLICSelected {
	if !h.Config.CLIC || !h.pendEnab.Valid {
		return CLICSelected{}
	}
	return CLICSelected{
		Valid: true,
		ID:    h.pendEnab.Cause &^ intBit,
		Level: int(h.Mintstatus & 0xFF),
		Priv:  h.pendEnab.Target,
		SHV:   false,
	}
}

// Pending returns the Interrupt Controller's current output (§6
// "collaborators query pend_enab").
func (h *Hart) Pending() PendingInterrupt { return h.pendEnab }

// CLICSelection returns the current CLIC-selected interrupt, if any.
func (h *Hart) CLICSelection() CLICSelected { return h.clicSel }
