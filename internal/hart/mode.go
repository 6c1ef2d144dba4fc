package hart

// mode.go implements the XLEN & Mode Manager (§4.2), generalizing
// _teacher_rv64/mmu.go's inline MPRV privilege resolution
// (`if mmu.cpu.Priv == PrivMachine && ... MstatusMPRV ...`) into the full
// five-mode, per-mode-XLEN model §3 and §4.2 require.

// xlenOf returns the effective XLEN for the given mode, derived from
// {misa.MXL, mstatus.SXL, mstatus.UXL, hstatus.VSXL, vsstatus.UXL} per
// §4.2 "XLEN refresh".
func (h *Hart) xlenOf(p Priv) int {
	mxl := (h.Misa >> 62) & 3
	base := XLEN32
	if mxl == XLRV64 {
		base = XLEN64
	}
	switch p {
	case PrivM:
		return base
	case PrivS:
		sxl := (h.Mstatus & MstatusSXL) >> MstatusSXLShift
		return warlXLEN(sxl, base)
	case PrivU:
		uxl := (h.Mstatus & MstatusUXL) >> MstatusUXLShift
		return warlXLEN(uxl, base)
	case PrivVS:
		vsxl := (h.Hstatus & HstatusVSXL) >> HstatusVSXLShift
		return warlXLEN(vsxl, base)
	case PrivVU:
		uxl := (h.Vsstatus & MstatusUXL) >> MstatusUXLShift
		return warlXLEN(uxl, base)
	default:
		return base
	}
}

// warlXLEN maps a raw 2-bit *XL field to an XLEN, falling back to base
// (the containing mode's XLEN) when the field reads as zero (meaning "not
// independently set", which is the field's reset value before software
// writes it) or an illegal value sneaks in (§3 "SXL/UXL ... WARL with only
// {1,2} legal; invalid writes revert" is enforced at write time by
// applySstatusWrite in csr_views.go, so a software write never leaves an
// illegal UXL here).
func warlXLEN(field uint64, base int) int {
	switch field {
	case XLRV32:
		return XLEN32
	case XLRV64:
		return XLEN64
	default:
		return base
	}
}

// Is64 reports whether mode p currently runs at XLEN=64, reading the
// cached xlen_mask bit rather than recomputing (§3 xlen_mask).
func (h *Hart) Is64(p Priv) bool {
	return h.xlenMask&(1<<modeBit(p)) != 0
}

// refreshXLENMask recomputes xlen_mask for all five modes.
func (h *Hart) refreshXLENMask() {
	var mask uint8
	for _, p := range []Priv{PrivU, PrivS, PrivM, PrivVU, PrivVS} {
		if h.xlenOf(p) == XLEN64 {
			mask |= 1 << modeBit(p)
		}
	}
	h.xlenMask = mask
}

// vmModeActive reports satp.MODE != Bare (or hgatp.MODE != Bare while
// virtual), i.e. the "OR in the VM flag" step of §4.2's mode-change
// procedure.
func (h *Hart) vmModeActive() bool {
	satpMode := (h.Satp >> 60) & 0xf
	if satpMode != 0 {
		return true
	}
	if h.priv.Virtual() {
		hgatpMode := (h.Hgatp >> 60) & 0xf
		if hgatpMode != 0 {
			return true
		}
	}
	return false
}

// SetMode performs the Mode Manager's mode-change procedure (§4.2),
// invoked by the Trap Engine and xRET. It records mstatus.MPRV and the
// current endianness before the change and, if either differs afterwards,
// notifies the extension registry's data-domain flush (§4.2 "flush
// per-mode data domain if mstatus.MPRV or endianness changed").
func (h *Hart) SetMode(p Priv) {
	prevMPRV := h.Mstatus & MstatusMPRV
	prevEndian := h.currentEndian()

	h.priv = p
	h.refreshMode()

	if (h.Mstatus&MstatusMPRV) != prevMPRV || h.currentEndian() != prevEndian {
		if h.Extensions != nil {
			h.Extensions.NotifyDataDomainFlush(h)
		}
	}
}

// currentEndian reports the big-endian flag for the current mode (MBE/
// SBE/UBE), used only to decide whether to flush the data domain.
func (h *Hart) currentEndian() bool {
	switch h.priv {
	case PrivM:
		return h.Mstatus&MstatusMBE != 0
	case PrivS, PrivVS:
		return h.Mstatus&MstatusSBE != 0
	default:
		return h.Mstatus&MstatusUBE != 0
	}
}

// refreshMode recomputes xlen_mask and current_arch and, if the key
// changed, calls the extension registry's NotifyFlushDicts with the old
// and new keys (§4.2). That call logs the change; it does not invalidate
// any translation itself.
func (h *Hart) refreshMode() {
	h.vmEnabled = h.vmModeActive()
	h.refreshXLENMask()

	old := h.archKey
	h.archKey = ArchKey{
		Priv:           h.priv,
		XLEN:           h.xlenOf(h.priv),
		VMEnabled:      h.vmEnabled,
		Extensions:     h.Misa & 0x03FFFFFF,
		FSDirty:        (h.Mstatus & MstatusFS) == MstatusFS,
		VSDirty:        (h.Mstatus & MstatusVS) == MstatusVS,
		BigEndian:      h.currentEndian(),
		TriggersActive: h.anyTriggerArmed(),
	}
	if old != h.archKey && h.Extensions != nil {
		h.Extensions.NotifyFlushDicts(h, old, h.archKey)
	}
}

// ModeKey returns Debug when in debug mode (§3 invariant "mode==Debug ⇒
// dm==true"), else the underlying Priv.
func (h *Hart) ModeKey() string {
	if h.DM {
		return "Debug"
	}
	return h.priv.String()
}
