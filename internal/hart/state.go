package hart

import "log/slog"

// ArchKey is the composite "current architecture" key (§3 current_arch):
// everything that can change which translated code block is valid.
// Published by the Mode Manager on every transition that could affect it.
type ArchKey struct {
	Priv      Priv
	XLEN      int
	VMEnabled bool
	Extensions uint64 // enabled+implemented misa.Extensions bits
	FSDirty   bool
	VSDirty   bool
	BigEndian bool
	TriggersActive bool
}

// PendingInterrupt is the Interrupt Controller's output (§3 pend_enab).
type PendingInterrupt struct {
	Valid    bool
	Cause    uint64 // includes the interrupt bit
	Target   Priv
	Level    int
	IsCLIC   bool
	IsNMI    bool
	Priority InterruptPriority
}

// CLICSelected mirrors the externally-presented CLIC interrupt (§3 clic_sel).
type CLICSelected struct {
	Valid bool
	ID    uint64
	Level int
	Priv  Priv
	SHV   bool // selective hardware vectoring
}

// AIAState holds the per-mode external-interrupt priority arrays (§3 aia).
type AIAState struct {
	Miprio  [64]uint8
	Siprio  [64]uint8
	VSiprio [64]uint8
}

// reservation is the LR/SC exclusive-access tag (§3 exclusive_tag).
const reservationNone = ^uint64(0)

// Hart holds all per-hart architectural state: the six SPEC_FULL components
// operate on one shared Hart the way the teacher's Machine holds one CPU
// plus its CLINT/PLIC/UART.
type Hart struct {
	// --- identity / lifecycle ---
	ID     uint64
	Config Config

	// --- integer PC (decode/execute live outside this package; PC is
	// tracked here because trap entry/return and trigger matching need it) ---
	PC uint64

	// --- XLEN & Mode Manager state (§3, §4.2) ---
	priv      Priv
	vmEnabled bool
	archKey   ArchKey
	xlenMask  uint8 // one bit per mode, set => XLEN64 (modeBit order)

	// --- CSR bank: machine mode ---
	Mstatus, Misa                                     uint64
	Medeleg, Mideleg, Mie, Mip                         uint64
	Mvien, Mvip                                        uint64
	Mtvec, Mtvt                                        uint64
	Mcounteren, Mcountinhibit                          uint64
	Mscratch, Mepc, Mcause, Mtval, Mtval2, Mtinst       uint64
	Menvcfg, Mseccfg                                    uint64
	Mintstatus, Mintthresh                              uint64
	Mhartid, Mvendorid, Marchid, Mimpid, Mconfigptr      uint64

	// Smstateen (one register each; real implementations have 0-3, this
	// core models stateen0 which is where CLIC/AIA/trigger-context gating
	// bits live).
	Mstateen0, Hstateen0, Sstateen0 uint64

	// --- RNMI (Smrnmi) ---
	Mnstatus, Mnepc, Mncause, Mnscratch uint64

	// --- CSR bank: supervisor mode ---
	Sstatus                                   uint64 // view mask over Mstatus; no independent storage
	Stvec, Stvt                               uint64
	Scounteren, Senvcfg                       uint64
	Sscratch, Sepc, Scause, Stval             uint64
	Satp                                      uint64
	Stimecmp                                  uint64
	Sintthresh                                uint64
	Scontext                                  uint64

	// --- CSR bank: hypervisor / VS mode ---
	Hstatus, Hedeleg, Hideleg                 uint64
	Hie, Hip, Hvip, Hvien, Hvictl             uint64
	Hgeie, Hgeip                              uint64
	Hgatp, Henvcfg                            uint64
	Htval, Htinst                             uint64
	Hcontext                                  uint64

	Vsstatus, Vstvec                          uint64
	Vsscratch, Vsepc, Vscause, Vstval         uint64
	Vsatp, Vstimecmp                          uint64

	// --- AIA (Smaia/Ssaia) ---
	AIA AIAState

	// --- Counters (§3 base_cycles, base_instrs) ---
	Cycle, Instret   uint64
	baseCycles, baseInstrs uint64

	// --- Interrupt controller output (§3 pend_enab, clic_sel) ---
	pendEnab PendingInterrupt
	clicSel  CLICSelected

	// --- Trigger engine state (§3 triggers[]) ---
	triggers    []Trigger
	tselect     int
	triggerInfo uint32 // tinfo: one bit per supported tdata1.type value
	Tcontrol    uint64
	Mcontext    uint64

	// --- Debug module (§3 dm, dcsr.cause) ---
	DM        bool
	Dcsr      uint64
	Dpc       uint64
	Dscratch0 uint64
	Dscratch1 uint64
	debugResumePriv    Priv
	debugResumeVirtual bool
	stepArmed bool

	// --- LR/SC reservation ---
	reservation uint64

	// --- scheduling (§5) ---
	disable uint32 // bitset of DisableReason

	// --- CSR registry (§4.1) ---
	csrs   map[CSRAddr]*CSRDescriptor
	remap  map[CSRAddr]CSRAddr // not populated: applyRemap re-keys csrs directly

	// --- external collaborators (§6) ---
	Bus        CSRBus
	Extensions *ExtensionRegistry

	// --- tracing ---
	log *slog.Logger

	snapshot uint64 // unused: RefreshPendingAndEnabled compares against the previous pendEnab
}

// New creates a hart in its cold-reset state from cfg.
func New(cfg Config) (*Hart, error) {
	if err := cfg.normalize(); err != nil {
		return nil, fatalConfig("invalid hart config", err)
	}
	h := &Hart{
		Config: cfg,
		log:    slog.Default(),
	}
	if h.Extensions == nil {
		h.Extensions = NewExtensionRegistry()
	}
	for _, path := range cfg.NativeExtensions {
		if err := h.Extensions.LoadNative(path); err != nil {
			h.log.Warn("hart: native extension not loaded", "path", path, "err", err)
		}
	}
	h.triggers = make([]Trigger, cfg.TriggerCount)
	h.reservation = reservationNone
	h.registerCSRs()
	if cfg.Remap != "" {
		if err := h.applyRemap(cfg.Remap); err != nil {
			return nil, fatalConfig("csr remap", err)
		}
	}
	h.ColdReset()
	return h, nil
}

// SetLogger overrides the default slog.Default() logger.
func (h *Hart) SetLogger(l *slog.Logger) { h.log = l }

// ColdReset restores full architectural defaults (§3 "Lifecycle").
func (h *Hart) ColdReset() {
	h.PC = h.Config.ResetAddr
	h.priv = PrivM
	h.vmEnabled = false
	h.DM = false
	h.disable = uint32(DisableReset)

	h.Misa = h.Config.defaultMisa()
	h.Mstatus = 0
	h.Medeleg, h.Mideleg = 0, 0
	h.Mie, h.Mip = 0, 0
	h.Mvien, h.Mvip = 0, 0
	h.Mtvec, h.Mtvt = 0, 0
	h.Mcounteren, h.Mcountinhibit = 0, 0
	h.Mscratch, h.Mepc, h.Mcause, h.Mtval, h.Mtval2, h.Mtinst = 0, 0, 0, 0, 0, 0
	h.Menvcfg = 0
	h.Mseccfg = 0
	h.Mintstatus, h.Mintthresh = 0, 0
	h.Mhartid = h.ID
	h.Mvendorid, h.Marchid, h.Mimpid, h.Mconfigptr = 0, 0, 0, 0

	h.Mnstatus, h.Mnepc, h.Mncause, h.Mnscratch = MnstatusNMIE, 0, 0, 0

	h.Stvec, h.Stvt = 0, 0
	h.Scounteren, h.Senvcfg = 0, 0
	h.Sscratch, h.Sepc, h.Scause, h.Stval = 0, 0, 0, 0
	h.Satp = 0
	h.Stimecmp = 0
	h.Sintthresh = 0
	h.Scontext = 0

	h.Hstatus, h.Hedeleg, h.Hideleg = 0, 0, 0
	h.Hie, h.Hip, h.Hvip, h.Hvien, h.Hvictl = 0, 0, 0, 0, 0
	h.Hgeie, h.Hgeip = 0, 0
	h.Hgatp, h.Henvcfg = 0, 0
	h.Htval, h.Htinst = 0, 0
	h.Hcontext = 0

	h.Vsstatus, h.Vstvec = 0, 0
	h.Vsscratch, h.Vsepc, h.Vscause, h.Vstval = 0, 0, 0, 0
	h.Vsatp, h.Vstimecmp = 0, 0

	h.AIA = AIAState{}
	for i := range h.AIA.Miprio {
		h.AIA.Miprio[i] = defaultIprio(i)
		h.AIA.Siprio[i] = defaultIprio(i)
		h.AIA.VSiprio[i] = defaultIprio(i)
	}

	h.Cycle, h.Instret = 0, 0
	h.baseCycles, h.baseInstrs = 0, 0

	h.pendEnab = PendingInterrupt{}
	h.clicSel = CLICSelected{}

	for i := range h.triggers {
		h.triggers[i] = newTrigger()
	}
	h.tselect = 0
	h.triggerInfo = defaultTinfo
	h.Tcontrol = 0
	h.Mcontext = 0

	h.Dcsr = defaultDcsr(h.Config)
	h.Dpc, h.Dscratch0, h.Dscratch1 = 0, 0, 0
	h.debugResumePriv = PrivM
	h.debugResumeVirtual = false
	h.stepArmed = false

	h.reservation = reservationNone

	h.refreshMode()
	h.RefreshPendingAndEnabled()
}

// WarmReset is the partial reset exception entry leaves the rest of state
// intact for (§3 "Lifecycle"): it only clears the halt/reservation state a
// real external reset pulse would clear, not the whole CSR file.
func (h *Hart) WarmReset() {
	h.disable |= uint32(DisableReset)
	h.reservation = reservationNone
	h.DM = false
}

// Halted reports whether any DisableReason bit is set.
func (h *Hart) Halted() bool { return h.disable != 0 }

// Halt sets a DisableReason bit (§5 "Suspension points").
func (h *Hart) Halt(reason DisableReason) { h.disable |= uint32(reason) }

// Resume clears a DisableReason bit.
func (h *Hart) Resume(reason DisableReason) { h.disable &^= uint32(reason) }

// Priv returns the current privilege mode.
func (h *Hart) Priv() Priv { return h.priv }

// VMEnabled reports whether address translation is active for the current
// mode (§3 invariants, §4.2).
func (h *Hart) VMEnabled() bool { return h.vmEnabled }

// ArchKey returns the last-published composite architecture key (§4.2).
func (h *Hart) ArchKey() ArchKey { return h.archKey }

func defaultIprio(cause int) uint8 {
	// Every cause, standard or local, resets its iprio byte to 1. There
	// is no per-cause default table and no config override.
	return 1
}
