package hart

// csr_defs.go registers the descriptor set read/write CSR instructions see
// (§4.1). Generalizes _teacher_rv64/csr.go's hardcoded csrRead/csrWrite
// switch into descriptor registration: each case in the teacher's switch
// becomes one storageCSR/funcCSR call here, plus everything the teacher
// never modeled (H-mode, CLIC, AIA, triggers, debug, RNMI, Smstateen).

// storageCSR builds a descriptor for a CSR that is pure backing storage
// under a variable (WARL) write mask, matching testable property 1's
// `new = (old &^ mask) | (val & mask)` shape.
func storageCSR(name string, addr CSRAddr, mask uint64, get func(h *Hart) uint64, set func(h *Hart, v uint64)) *CSRDescriptor {
	return &CSRDescriptor{
		Name:       name,
		Addr:       addr,
		StateenBit: -1,
		Read:       func(h *Hart) (uint64, error) { return get(h), nil },
		Write: func(h *Hart, val uint64) error {
			set(h, (get(h)&^mask)|(val&mask))
			return nil
		},
	}
}

// roCSR builds a read-only descriptor (hardwired value or RO storage).
func roCSR(name string, addr CSRAddr, get func(h *Hart) uint64) *CSRDescriptor {
	return &CSRDescriptor{
		Name:       name,
		Addr:       addr,
		ReadOnly:   true,
		StateenBit: -1,
		Read:       func(h *Hart) (uint64, error) { return get(h), nil },
	}
}

// funcCSR builds a descriptor with fully custom read/write (used where the
// WARL logic isn't a simple mask: misa, mstatus, satp, mseccfg, ...).
func funcCSR(name string, addr CSRAddr, read ReadFunc, write WriteFunc) *CSRDescriptor {
	return &CSRDescriptor{Name: name, Addr: addr, StateenBit: -1, Read: read, Write: write}
}

func requireExt(bit uint64) func(h *Hart) bool {
	return func(h *Hart) bool { return h.Misa&bit != 0 }
}

func requireS(h *Hart) bool { return h.Misa&MisaS != 0 }
func requireH(h *Hart) bool { return h.Misa&MisaH != 0 }
func requireU(h *Hart) bool { return h.Misa&MisaU != 0 }
func requireDebug(h *Hart) bool { return h.DM }

func requireAll(fns ...func(h *Hart) bool) func(h *Hart) bool {
	return func(h *Hart) bool {
		for _, f := range fns {
			if !f(h) {
				return false
			}
		}
		return true
	}
}

// registerCSRs installs the architectural CSR set (§3 "Extension-registered
// CSRs attach at boot and persist for the hart's lifetime"). Extension
// modules may additionally call registerCSR directly for custom CSRs
// (late registration, §4.1 "Supports late registration by extension
// modules").
func (h *Hart) registerCSRs() {
	h.registerMachineCSRs()
	h.registerSupervisorCSRs()
	h.registerHypervisorCSRs()
	h.registerVSCSRs()
	h.registerTriggerCSRs()
	h.registerDebugCSRs()
	h.registerCounterCSRs()
}

func (h *Hart) registerCounterCSRs() {
	h.registerCSR(funcCSR("cycle", CSRCycle,
		func(h *Hart) (uint64, error) { return h.Cycle - h.baseCycles, nil },
		nil))
	h.registerCSR(funcCSR("time", CSRTime,
		func(h *Hart) (uint64, error) { return h.mtime(), nil },
		nil))
	h.registerCSR(funcCSR("instret", CSRInstret,
		func(h *Hart) (uint64, error) { return h.Instret - h.baseInstrs, nil },
		nil))
}

func (h *Hart) mtime() uint64 { return h.Cycle }

func (h *Hart) registerMachineCSRs() {
	h.registerCSR(funcCSR("mstatus", CSRMstatus, readMstatus, writeMstatus))
	h.registerCSR(funcCSR("misa", CSRMisa, readMisa, writeMisa))
	h.registerCSR(storageCSR("medeleg", CSRMedeleg, 0xFFFF_FFFF_FFFF_FFFF,
		func(h *Hart) uint64 { return h.Medeleg }, func(h *Hart, v uint64) { h.Medeleg = v }))
	h.registerCSR(storageCSR("mideleg", CSRMideleg, 0xFFFF_FFFF_FFFF_FFFF,
		func(h *Hart) uint64 { return h.Mideleg }, func(h *Hart, v uint64) { h.Mideleg = v; h.RefreshPendingAndEnabled() }))
	h.registerCSR(funcCSR("mie", CSRMie,
		func(h *Hart) (uint64, error) { return h.Mie, nil },
		func(h *Hart, v uint64) error { h.Mie = v; h.RefreshPendingAndEnabled(); return nil }))
	h.registerCSR(funcCSR("mip", CSRMip,
		func(h *Hart) (uint64, error) { return h.Mip, nil },
		func(h *Hart, v uint64) error {
			const swWritable = MipSSIP | MipVSSIP
			h.Mip = (h.Mip &^ swWritable) | (v & swWritable)
			h.RefreshPendingAndEnabled()
			return nil
		}))
	h.registerCSR(storageCSR("mtvec", CSRMtvec, ^uint64(0),
		func(h *Hart) uint64 { return h.Mtvec }, func(h *Hart, v uint64) { h.Mtvec = v }))
	h.registerCSR(storageCSR("mtvt", CSRMtvt, ^uint64(0)&^0x3f,
		func(h *Hart) uint64 { return h.Mtvt }, func(h *Hart, v uint64) { h.Mtvt = v }))
	h.registerCSR(storageCSR("mcounteren", CSRMcounteren, 0xFFFF_FFFF,
		func(h *Hart) uint64 { return h.Mcounteren }, func(h *Hart, v uint64) { h.Mcounteren = v }))
	h.registerCSR(storageCSR("mcountinhibit", CSRMcountinhibit, 0xFFFF_FFFD,
		func(h *Hart) uint64 { return h.Mcountinhibit }, func(h *Hart, v uint64) { h.Mcountinhibit = v }))
	h.registerCSR(storageCSR("mvien", CSRMvien, ^uint64(0),
		func(h *Hart) uint64 { return h.Mvien }, func(h *Hart, v uint64) { h.Mvien = v; h.RefreshPendingAndEnabled() }))
	h.registerCSR(storageCSR("mvip", CSRMvip, ^uint64(0),
		func(h *Hart) uint64 { return h.Mvip }, func(h *Hart, v uint64) { h.Mvip = v; h.RefreshPendingAndEnabled() }))
	h.registerCSR(storageCSR("menvcfg", CSRMenvcfg, envcfgMask,
		func(h *Hart) uint64 { return h.Menvcfg }, func(h *Hart, v uint64) { h.Menvcfg = v }))
	h.registerCSR(funcCSR("mseccfg", CSRMseccfg, readMseccfg, writeMseccfg))
	h.registerCSR(storageCSR("mscratch", CSRMscratch, ^uint64(0),
		func(h *Hart) uint64 { return h.Mscratch }, func(h *Hart, v uint64) { h.Mscratch = v }))
	h.registerCSR(storageCSR("mepc", CSRMepc, ^uint64(1),
		func(h *Hart) uint64 { return h.Mepc }, func(h *Hart, v uint64) { h.Mepc = v }))
	h.registerCSR(storageCSR("mcause", CSRMcause, ^uint64(0),
		func(h *Hart) uint64 { return h.Mcause }, func(h *Hart, v uint64) { h.Mcause = v }))
	h.registerCSR(storageCSR("mtval", CSRMtval, ^uint64(0),
		func(h *Hart) uint64 { return h.Mtval }, func(h *Hart, v uint64) { h.Mtval = v }))
	h.registerCSR(storageCSR("mtval2", CSRMtval2, ^uint64(0),
		func(h *Hart) uint64 { return h.Mtval2 }, func(h *Hart, v uint64) { h.Mtval2 = v }))
	h.registerCSR(storageCSR("mtinst", CSRMtinst, ^uint64(0),
		func(h *Hart) uint64 { return h.Mtinst }, func(h *Hart, v uint64) { h.Mtinst = v }))
	h.registerCSR(storageCSR("mintstatus", CSRMintstatus, 0,
		func(h *Hart) uint64 { return h.Mintstatus }, func(h *Hart, v uint64) {}))
	h.registerCSR(storageCSR("mintthresh", CSRMintthresh, 0xFF,
		func(h *Hart) uint64 { return h.Mintthresh }, func(h *Hart, v uint64) { h.Mintthresh = v }))
	h.registerCSR(storageCSR("mstateen0", CSRAddr(0x30C), 0xDC00_0000_0000_0000,
		func(h *Hart) uint64 { return h.Mstateen0 }, func(h *Hart, v uint64) { h.Mstateen0 = v }))

	h.registerCSR(funcCSR("mnstatus", CSRMnstatus, readMnstatus, writeMnstatus))
	h.registerCSR(storageCSR("mnepc", CSRMnepc, ^uint64(1),
		func(h *Hart) uint64 { return h.Mnepc }, func(h *Hart, v uint64) { h.Mnepc = v }))
	h.registerCSR(storageCSR("mncause", CSRMncause, ^uint64(0),
		func(h *Hart) uint64 { return h.Mncause }, func(h *Hart, v uint64) { h.Mncause = v }))
	h.registerCSR(storageCSR("mnscratch", CSRMnscratch, ^uint64(0),
		func(h *Hart) uint64 { return h.Mnscratch }, func(h *Hart, v uint64) { h.Mnscratch = v }))

	h.registerCSR(h.aiaPrioCSR("miprio", CSRAddr(0x318), &h.AIA.Miprio))

	h.registerCSR(roCSR("mvendorid", CSRMvendorid, func(h *Hart) uint64 { return h.Mvendorid }))
	h.registerCSR(roCSR("marchid", CSRMarchid, func(h *Hart) uint64 { return h.Marchid }))
	h.registerCSR(roCSR("mimpid", CSRMimpid, func(h *Hart) uint64 { return h.Mimpid }))
	h.registerCSR(roCSR("mhartid", CSRMhartid, func(h *Hart) uint64 { return h.Mhartid }))
	h.registerCSR(roCSR("mconfigptr", CSRMconfigptr, func(h *Hart) uint64 { return h.Mconfigptr }))
}

const envcfgMask uint64 = (1 << 63) | (1 << 62) | (1 << 0)

// aiaPrioCSR exposes a per-mode iprio array through a single CSR that
// packs entries 0..7 one byte each (entry i in bits 8i..8i+7). Entries
// 8..63 are not reachable through it; there is no indexed window.
func (h *Hart) aiaPrioCSR(name string, addr CSRAddr, arr *[64]uint8) *CSRDescriptor {
	return funcCSR(name, addr,
		func(h *Hart) (uint64, error) {
			var v uint64
			for i := 0; i < 8; i++ {
				v |= uint64(arr[i]) << (8 * i)
			}
			return v, nil
		},
		func(h *Hart, val uint64) error {
			for i := 0; i < 8; i++ {
				arr[i] = uint8(val >> (8 * i))
			}
			return nil
		})
}

func (h *Hart) registerSupervisorCSRs() {
	h.registerCSR(&CSRDescriptor{Name: "sstatus", Addr: CSRSstatus, Features: requireS,
		StateenBit: -1, Read: readSstatus, Write: writeSstatus})
	h.registerCSR(&CSRDescriptor{Name: "sie", Addr: CSRSie, Features: requireS,
		StateenBit: -1, Read: readSie, Write: writeSie})
	h.registerCSR(&CSRDescriptor{Name: "sip", Addr: CSRSip, Features: requireS,
		StateenBit: -1, Read: readSip, Write: writeSip})
	h.registerCSR(&CSRDescriptor{Name: "stvec", Addr: CSRStvec, Features: requireS,
		StateenBit: -1,
		Read:  func(h *Hart) (uint64, error) { return h.sTvec(), nil },
		Write: func(h *Hart, v uint64) error { h.setSTvec(v); return nil }})
	h.registerCSR(&CSRDescriptor{Name: "stvt", Addr: CSRStvt, Features: requireS,
		StateenBit: -1,
		Read:  func(h *Hart) (uint64, error) { return h.Stvt, nil },
		Write: func(h *Hart, v uint64) error { h.Stvt = v &^ 0x3f; return nil }})
	h.registerCSR(&CSRDescriptor{Name: "scounteren", Addr: CSRScounteren, Features: requireS,
		StateenBit: -1,
		Read:  func(h *Hart) (uint64, error) { return h.Scounteren, nil },
		Write: func(h *Hart, v uint64) error { h.Scounteren = v & 0xFFFF_FFFF; return nil }})
	h.registerCSR(&CSRDescriptor{Name: "senvcfg", Addr: CSRSenvcfg, Features: requireS,
		StateenBit: -1,
		Read:  func(h *Hart) (uint64, error) { return h.Senvcfg, nil },
		Write: func(h *Hart, v uint64) error { h.Senvcfg = v & envcfgMask; return nil }})
	h.registerCSR(&CSRDescriptor{Name: "sscratch", Addr: CSRSscratch, Features: requireS,
		StateenBit: -1,
		Read:  func(h *Hart) (uint64, error) { return h.sScratch(), nil },
		Write: func(h *Hart, v uint64) error { h.setSScratch(v); return nil }})
	h.registerCSR(&CSRDescriptor{Name: "sepc", Addr: CSRSepc, Features: requireS,
		StateenBit: -1,
		Read:  func(h *Hart) (uint64, error) { return h.sEpc(), nil },
		Write: func(h *Hart, v uint64) error { h.setSEpc(v & ^uint64(1)); return nil }})
	h.registerCSR(&CSRDescriptor{Name: "scause", Addr: CSRScause, Features: requireS,
		StateenBit: -1,
		Read:  func(h *Hart) (uint64, error) { return h.sCause(), nil },
		Write: func(h *Hart, v uint64) error { h.setSCause(v); return nil }})
	h.registerCSR(&CSRDescriptor{Name: "stval", Addr: CSRStval, Features: requireS,
		StateenBit: -1,
		Read:  func(h *Hart) (uint64, error) { return h.sTval(), nil },
		Write: func(h *Hart, v uint64) error { h.setSTval(v); return nil }})
	h.registerCSR(&CSRDescriptor{Name: "satp", Addr: CSRSatp, Features: requireS,
		StateenBit: -1, Read: readSatp, Write: writeSatp})
	h.registerCSR(&CSRDescriptor{Name: "stimecmp", Addr: CSRStimecmp, Features: requireAll(requireS, func(h *Hart) bool { return h.Menvcfg&(1<<63) != 0 }),
		StateenBit: -1,
		Read:  func(h *Hart) (uint64, error) { return h.Stimecmp, nil },
		Write: func(h *Hart, v uint64) error { h.Stimecmp = v; h.RefreshPendingAndEnabled(); return nil }})
	h.registerCSR(&CSRDescriptor{Name: "sintthresh", Addr: CSRSintthresh, Features: requireS,
		StateenBit: -1,
		Read:  func(h *Hart) (uint64, error) { return h.Sintthresh, nil },
		Write: func(h *Hart, v uint64) error { h.Sintthresh = v & 0xFF; return nil }})
	h.registerCSR(&CSRDescriptor{Name: "scontext", Addr: CSRScontext, Features: requireS,
		StateenBit: -1,
		Read:  func(h *Hart) (uint64, error) { return h.Scontext, nil },
		Write: func(h *Hart, v uint64) error { h.Scontext = v; return nil }})
	h.registerCSR(h.aiaPrioCSR("siprio", CSRAddr(0x11C), &h.AIA.Siprio))
}

func (h *Hart) registerHypervisorCSRs() {
	mk := func(name string, addr CSRAddr, mask uint64, get func(h *Hart) uint64, set func(h *Hart, v uint64)) *CSRDescriptor {
		d := storageCSR(name, addr, mask, get, set)
		d.Features = requireH
		d.HSOnly = true
		return d
	}
	h.registerCSR(&CSRDescriptor{Name: "hstatus", Addr: CSRHstatus, Features: requireH, HSOnly: true,
		StateenBit: -1, Read: readHstatus, Write: writeHstatus})
	h.registerCSR(mk("hedeleg", CSRHedeleg, 0xFFFF, func(h *Hart) uint64 { return h.Hedeleg }, func(h *Hart, v uint64) { h.Hedeleg = v }))
	h.registerCSR(mk("hideleg", CSRHideleg, ^uint64(0), func(h *Hart) uint64 { return h.Hideleg }, func(h *Hart, v uint64) { h.Hideleg = v; h.RefreshPendingAndEnabled() }))
	h.registerCSR(mk("hie", CSRHie, ^uint64(0), func(h *Hart) uint64 { return h.Hie }, func(h *Hart, v uint64) { h.Hie = v; h.RefreshPendingAndEnabled() }))
	h.registerCSR(mk("hcounteren", CSRHcounteren, 0xFFFF_FFFF, func(h *Hart) uint64 { return 0 }, func(h *Hart, v uint64) {}))
	h.registerCSR(mk("hgeie", CSRHgeie, ^uint64(1), func(h *Hart) uint64 { return h.Hgeie }, func(h *Hart, v uint64) { h.Hgeie = v; h.RefreshPendingAndEnabled() }))
	h.registerCSR(mk("hvien", CSRHvien, ^uint64(0), func(h *Hart) uint64 { return h.Hvien }, func(h *Hart, v uint64) { h.Hvien = v; h.RefreshPendingAndEnabled() }))
	h.registerCSR(mk("hvictl", CSRHvictl, ^uint64(0), func(h *Hart) uint64 { return h.Hvictl }, func(h *Hart, v uint64) { h.Hvictl = v; h.RefreshPendingAndEnabled() }))
	h.registerCSR(mk("htval", CSRHtval, ^uint64(0), func(h *Hart) uint64 { return h.Htval }, func(h *Hart, v uint64) { h.Htval = v }))
	h.registerCSR(mk("hip", CSRHip, MipVSSIP, func(h *Hart) uint64 { return h.Hip }, func(h *Hart, v uint64) { h.Hip = v; h.RefreshPendingAndEnabled() }))
	h.registerCSR(mk("hvip", CSRHvip, ^uint64(0), func(h *Hart) uint64 { return h.Hvip }, func(h *Hart, v uint64) { h.Hvip = v; h.RefreshPendingAndEnabled() }))
	h.registerCSR(mk("htinst", CSRHtinst, ^uint64(0), func(h *Hart) uint64 { return h.Htinst }, func(h *Hart, v uint64) { h.Htinst = v }))
	d := roCSR("hgeip", CSRHgeip, func(h *Hart) uint64 { return h.Hgeip })
	d.Features = requireH
	d.HSOnly = true
	h.registerCSR(d)
	h.registerCSR(mk("hgatp", CSRHgatp, 0xF000_0000_0FFF_FFFF, func(h *Hart) uint64 { return h.Hgatp }, func(h *Hart, v uint64) { h.Hgatp = v; h.refreshMode() }))
	h.registerCSR(mk("henvcfg", CSRHenvcfg, envcfgMask, func(h *Hart) uint64 { return h.Henvcfg }, func(h *Hart, v uint64) { h.Henvcfg = v }))
	h.registerCSR(mk("hcontext", CSRHcontext, ^uint64(0), func(h *Hart) uint64 { return h.Hcontext }, func(h *Hart, v uint64) { h.Hcontext = v }))
	h.registerCSR(mk("hstateen0", CSRAddr(0x60C), 0xDC00_0000_0000_0000, func(h *Hart) uint64 { return h.Hstateen0 }, func(h *Hart, v uint64) { h.Hstateen0 = v }))
}

func (h *Hart) registerVSCSRs() {
	mk := func(name string, addr CSRAddr) *CSRDescriptor {
		return &CSRDescriptor{Name: name, Addr: addr, Features: requireH, HSOnly: true, StateenBit: -1}
	}
	d := mk("vsstatus", CSRVsstatus)
	d.Read = func(h *Hart) (uint64, error) { return h.viewSstatusFrom(h.Vsstatus), nil }
	d.Write = func(h *Hart, v uint64) error { h.Vsstatus = h.applySstatusWrite(h.Vsstatus, v); return nil }
	h.registerCSR(d)

	h.registerCSR(storageWithPost("vsie", CSRVsie, ^uint64(0), func(h *Hart) uint64 { return h.Vsie() }, func(h *Hart, v uint64) {
		h.Hie = (h.Hie &^ h.Hideleg) | ((v << 1) & h.Hideleg)
	}, requireH, true))
	h.registerCSR(storageWithPost("vstvec", CSRVstvec, ^uint64(0), func(h *Hart) uint64 { return h.Vstvec }, func(h *Hart, v uint64) { h.Vstvec = v }, requireH, true))
	h.registerCSR(storageWithPost("vsscratch", CSRVsscratch, ^uint64(0), func(h *Hart) uint64 { return h.Vsscratch }, func(h *Hart, v uint64) { h.Vsscratch = v }, requireH, true))
	h.registerCSR(storageWithPost("vsepc", CSRVsepc, ^uint64(1), func(h *Hart) uint64 { return h.Vsepc }, func(h *Hart, v uint64) { h.Vsepc = v }, requireH, true))
	h.registerCSR(storageWithPost("vscause", CSRVscause, ^uint64(0), func(h *Hart) uint64 { return h.Vscause }, func(h *Hart, v uint64) { h.Vscause = v }, requireH, true))
	h.registerCSR(storageWithPost("vstval", CSRVstval, ^uint64(0), func(h *Hart) uint64 { return h.Vstval }, func(h *Hart, v uint64) { h.Vstval = v }, requireH, true))
	h.registerCSR(storageWithPost("vsip", CSRVsip, ^uint64(0), func(h *Hart) uint64 { return h.Vsip() }, func(h *Hart, v uint64) {
		h.Hvip = (h.Hvip &^ (h.Hideleg & MipVSSIP)) | ((v << 1) & h.Hideleg & MipVSSIP)
		h.RefreshPendingAndEnabled()
	}, requireH, true))
	h.registerCSR(storageWithPost("vsatp", CSRVsatp, ^uint64(0), func(h *Hart) uint64 { return h.Vsatp }, func(h *Hart, v uint64) { h.Vsatp = v; h.refreshMode() }, requireH, true))
	h.registerCSR(storageWithPost("vstimecmp", CSRVstimecmp, ^uint64(0), func(h *Hart) uint64 { return h.Vstimecmp }, func(h *Hart, v uint64) {
		h.Vstimecmp = v
		h.RefreshPendingAndEnabled()
	}, requireH, true))
	h.registerCSR(h.aiaPrioCSR("vsiprio", CSRAddr(0x21C), &h.AIA.VSiprio))
}

func storageWithPost(name string, addr CSRAddr, mask uint64, get func(h *Hart) uint64, set func(h *Hart, v uint64), feat func(h *Hart) bool, hsOnly bool) *CSRDescriptor {
	d := storageCSR(name, addr, mask, get, set)
	d.Features = feat
	d.HSOnly = hsOnly
	return d
}

// Vsie/Vsip present the VS-level interrupt bits shifted down to the S
// bit positions, mirroring how sie/sip present mie/mip (§4.3 "VSEIP/
// VSTIP/VSSIP are re-aliased to SEIP/STIP/SSIP positions").
func (h *Hart) Vsie() uint64 { return (h.Hie & h.Hideleg) >> 1 }
func (h *Hart) Vsip() uint64 { return (h.effectiveHip() & h.Hideleg) >> 1 }
