package hart

// csr_views.go holds the CSR logic too irregular for storageCSR's flat
// mask shape: mstatus/sstatus/vsstatus share one WARL story (§4.1, §9
// "sstatus is a restricted view over mstatus"); misa and mseccfg have
// sticky/revert-on-illegal-value rules; the S-level trap CSRs redirect to
// their VS counterparts while running virtualized (H extension, "Trap and
// CSR Virtualization").

const mstatusWritable uint64 = MstatusSIE | MstatusMIE | MstatusSPIE | MstatusMPIE |
	MstatusSPP | MstatusVS | MstatusMPP | MstatusFS | MstatusMPRV | MstatusSUM |
	MstatusMXR | MstatusTVM | MstatusTW | MstatusTSR | MstatusSPELP | MstatusSDT |
	MstatusGVA | MstatusMPV

const sstatusMask uint64 = MstatusSIE | MstatusSPIE | MstatusUBE | MstatusSPP |
	MstatusVS | MstatusFS | MstatusXS | MstatusSUM | MstatusMXR | MstatusSPELP |
	MstatusSDT | MstatusUXL | MstatusSD

func computeMstatusSD(v uint64) uint64 {
	fs := (v & MstatusFS) >> 13
	vs := (v & MstatusVS) >> 9
	xs := (v & MstatusXS) >> 15
	if fs == 3 || vs == 3 || xs == 3 {
		return v | MstatusSD
	}
	return v &^ MstatusSD
}

func readMstatus(h *Hart) (uint64, error) { return h.Mstatus, nil }

// writeMstatus applies the architectural write mask, then the MPP WARL
// revert: MPP's reserved encoding (2, meaning "HS" in a core without H)
// is illegal on a hart without the H extension and is ignored rather than
// stored (§4.1 testable property 1's "illegal values revert to the prior
// legal value").
func writeMstatus(h *Hart, val uint64) error {
	next := (h.Mstatus &^ mstatusWritable) | (val & mstatusWritable)
	mpp := (next & MstatusMPP) >> MstatusMPPShift
	if mpp == 2 && h.Misa&MisaH == 0 {
		next = (next &^ MstatusMPP) | (h.Mstatus & MstatusMPP)
	}
	h.Mstatus = computeMstatusSD(next)
	return nil
}

func (h *Hart) viewSstatusFrom(full uint64) uint64 { return full & sstatusMask }

// applySstatusWrite merges val into the sstatus-visible bits of full; a
// UXL value other than RV32/RV64 is ignored and the previous UXL kept.
func (h *Hart) applySstatusWrite(full, val uint64) uint64 {
	next := (full &^ sstatusMask) | (val & sstatusMask)
	if uxl := (next & MstatusUXL) >> MstatusUXLShift; uxl != XLRV32 && uxl != XLRV64 {
		next = (next &^ MstatusUXL) | (full & MstatusUXL)
	}
	return computeMstatusSD(next)
}

func readSstatus(h *Hart) (uint64, error) {
	if h.priv.Virtual() {
		return h.viewSstatusFrom(h.Vsstatus), nil
	}
	return h.viewSstatusFrom(h.Mstatus), nil
}

func writeSstatus(h *Hart, val uint64) error {
	if h.priv.Virtual() {
		h.Vsstatus = h.applySstatusWrite(h.Vsstatus, val)
	} else {
		h.Mstatus = h.applySstatusWrite(h.Mstatus, val)
	}
	return nil
}

func readSie(h *Hart) (uint64, error) {
	if h.priv.Virtual() {
		return h.Vsie(), nil
	}
	return h.Mie & h.Mideleg, nil
}

func writeSie(h *Hart, val uint64) error {
	if h.priv.Virtual() {
		mask := h.Hideleg
		h.Hie = (h.Hie &^ mask) | ((val << 1) & mask)
	} else {
		mask := h.Mideleg
		h.Mie = (h.Mie &^ mask) | (val & mask)
	}
	h.RefreshPendingAndEnabled()
	return nil
}

func readSip(h *Hart) (uint64, error) {
	if h.priv.Virtual() {
		return h.Vsip(), nil
	}
	return h.Mip & h.Mideleg, nil
}

func writeSip(h *Hart, val uint64) error {
	if h.priv.Virtual() {
		mask := h.Hideleg & MipVSSIP
		h.Hvip = (h.Hvip &^ mask) | ((val << 1) & mask)
	} else {
		mask := h.Mideleg & MipSSIP
		h.Mip = (h.Mip &^ mask) | (val & mask)
	}
	h.RefreshPendingAndEnabled()
	return nil
}

// satp MODE WARL legal values: Bare(0), Sv39(8), Sv48(9), Sv57(10). Address
// translation itself lives outside this module (§1 "virtual memory ...
// external collaborator"); this core only needs to store a legal MODE so
// the composite architecture key stays accurate.
func satpLegalMode(mode uint64) bool {
	switch mode {
	case 0, 8, 9, 10:
		return true
	default:
		return false
	}
}

func readSatp(h *Hart) (uint64, error) {
	if h.priv.Virtual() {
		return h.Vsatp, nil
	}
	return h.Satp, nil
}

func writeSatp(h *Hart, val uint64) error {
	mode := (val >> 60) & 0xF
	if !satpLegalMode(mode) {
		var cur uint64
		if h.priv.Virtual() {
			cur = h.Vsatp
		} else {
			cur = h.Satp
		}
		val = (val &^ (uint64(0xF) << 60)) | (cur & (uint64(0xF) << 60))
	}
	if h.priv.Virtual() {
		h.Vsatp = val
	} else {
		h.Satp = val
	}
	h.refreshMode()
	return nil
}

func (h *Hart) sTvec() uint64 {
	if h.priv.Virtual() {
		return h.Vstvec
	}
	return h.Stvec
}
func (h *Hart) setSTvec(v uint64) {
	if h.priv.Virtual() {
		h.Vstvec = v
	} else {
		h.Stvec = v
	}
}

func (h *Hart) sScratch() uint64 {
	if h.priv.Virtual() {
		return h.Vsscratch
	}
	return h.Sscratch
}
func (h *Hart) setSScratch(v uint64) {
	if h.priv.Virtual() {
		h.Vsscratch = v
	} else {
		h.Sscratch = v
	}
}

func (h *Hart) sEpc() uint64 {
	if h.priv.Virtual() {
		return h.Vsepc
	}
	return h.Sepc
}
func (h *Hart) setSEpc(v uint64) {
	if h.priv.Virtual() {
		h.Vsepc = v
	} else {
		h.Sepc = v
	}
}

func (h *Hart) sCause() uint64 {
	if h.priv.Virtual() {
		return h.Vscause
	}
	return h.Scause
}
func (h *Hart) setSCause(v uint64) {
	if h.priv.Virtual() {
		h.Vscause = v
	} else {
		h.Scause = v
	}
}

func (h *Hart) sTval() uint64 {
	if h.priv.Virtual() {
		return h.Vstval
	}
	return h.Stval
}
func (h *Hart) setSTval(v uint64) {
	if h.priv.Virtual() {
		h.Vstval = v
	} else {
		h.Stval = v
	}
}

// effectiveHip folds software-injected VS-level pending bits (hvip) into
// the hardware hip view (§4.3 "VS-level interrupts can be pended either by
// a wired source or by hypervisor software via hvip").
func (h *Hart) effectiveHip() uint64 { return h.Hip | h.Hvip }

const (
	hstatusWritable uint64 = HstatusVSBE | HstatusGVA | HstatusSPV | HstatusSPVP |
		HstatusHU | HstatusVTVM | HstatusVTW | HstatusVTSR | HstatusVGEIN
)

func readHstatus(h *Hart) (uint64, error) { return h.Hstatus, nil }
func writeHstatus(h *Hart, val uint64) error {
	h.Hstatus = (h.Hstatus &^ hstatusWritable) | (val & hstatusWritable)
	return nil
}

// misa: MXL is fixed at 64 for this core (no runtime narrowing to RV32 is
// modeled; XLEN per-mode narrowing still works through *statush.*XL, §4.2),
// so only the Extensions field is WARL. Clearing C while the next fetch
// isn't 4-byte aligned would fault the next instruction for a reason
// software didn't ask for, so that specific clear is reverted (classic
// privileged-spec footnote, same rule the teacher's csr.go documents for
// misa writes).
const misaWritableExt uint64 = (1 << 26) - 1

func readMisa(h *Hart) (uint64, error) { return h.Misa, nil }
func writeMisa(h *Hart, val uint64) error {
	implemented := h.Config.defaultMisa() & misaWritableExt
	next := (h.Misa &^ misaWritableExt) | (val & misaWritableExt & implemented)
	if h.Misa&MisaC != 0 && next&MisaC == 0 && h.PC&0x3 != 0 {
		next |= MisaC
	}
	h.Misa = (h.Misa &^ misaWritableExt) | next
	return nil
}

// mseccfg: MML and MMWP are sticky (Smepmp, "once set, can only be cleared
// by a power-on reset"); RLB disables that stickiness while set, mirroring
// the real hardware escape hatch used during PMP provisioning.
const (
	mseccfgMML uint64 = 1 << 0
	mseccfgMMWP uint64 = 1 << 1
	mseccfgRLB uint64 = 1 << 2
	mseccfgUSEED uint64 = 1 << 8
	mseccfgSSEED uint64 = 1 << 9
)

func readMseccfg(h *Hart) (uint64, error) { return h.Mseccfg, nil }
func writeMseccfg(h *Hart, val uint64) error {
	cur := h.Mseccfg
	next := val & (mseccfgMML | mseccfgMMWP | mseccfgRLB | mseccfgUSEED | mseccfgSSEED)
	if cur&mseccfgRLB == 0 {
		if cur&mseccfgMML != 0 {
			next |= mseccfgMML
		}
		if cur&mseccfgMMWP != 0 {
			next |= mseccfgMMWP
		}
	}
	h.Mseccfg = next
	return nil
}

const (
	MnstatusNMIE uint64 = 1 << 3
	mnstatusMNPP uint64 = 3 << 11
	mnstatusMNPV uint64 = 1 << 7
)

func readMnstatus(h *Hart) (uint64, error) { return h.Mnstatus, nil }
func writeMnstatus(h *Hart, val uint64) error {
	writable := MnstatusNMIE | mnstatusMNPP | mnstatusMNPV
	next := (h.Mnstatus &^ writable) | (val & writable)
	mnpp := (next & mnstatusMNPP) >> 11
	if mnpp == 2 && h.Misa&MisaH == 0 {
		next = (next &^ mnstatusMNPP) | (h.Mnstatus & mnstatusMNPP)
	}
	h.Mnstatus = next
	return nil
}
