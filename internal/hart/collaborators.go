package hart

// collaborators.go declares the external interfaces this package consumes
// (§6 "Collaborator interfaces consumed"). Instruction decoding, the
// memory-domain/PMP checker, the vector/FP/crypto data paths, TLB
// page-table walking, and the CLIC priority picker are all out of scope
// (§1) and live behind these seams.

// MemoryDomain is the external memory/PMP collaborator.
type MemoryDomain interface {
	ReadN(addr uint64, n int) (uint64, error)
	WriteN(addr uint64, n int, val uint64) error
	IsExecutable(addr uint64) bool
	IsMapped(addr uint64) bool
	AddWriteCallback(addr uint64, cb func(addr uint64)) // used for LR/SC watch
}

// InstrInfo is the minimal decode summary the Trap Engine needs to build
// xtinst (§6 "Decoder: decode(pc) → instr_info used to build xtinst
// syndrome on load/store faults").
type InstrInfo struct {
	Raw        uint32
	Compressed bool
	IsLoad     bool
	IsStore    bool
	Width      int // access width in bytes
	Dest       uint32
}

// Decoder is the external decode collaborator.
type Decoder interface {
	Decode(pc uint64) (InstrInfo, error)
}

// MorphJIT is the external morph/JIT collaborator (§6).
type MorphJIT interface {
	FlushAllDicts()
	SetBlockMask(key ArchKey, value bool)
	EmitInterruptCheck()
	EmitIllegalInstruction()
}

// CSRBus is the external "CSR domain" bus (§4.1 step 3, §6 "CSR bus"):
// when an address is bus-mapped, the bus read/write supersedes the
// internal descriptor callback.
type CSRBus interface {
	IsMapped(addr CSRAddr) bool
	Read(addr CSRAddr) (uint64, error)
	Write(addr CSRAddr, val uint64) error
}

// ExtensionCallbacks is what an extension module registers with the
// Extension registry (§6 "Extension registry"): custom NMI handling,
// custom interrupt priority, custom handler-PC lookup, custom trap
// notifier, custom trigger access-fault check.
type ExtensionCallbacks struct {
	Name string

	CustomNMI             func(h *Hart) (handled bool)
	CustomInterruptPrio   func(h *Hart, cause uint64) (prio InterruptPriority, ok bool)
	CustomHandlerPC       func(h *Hart, base uint64, code uint64, vectored bool) (pc uint64, ok bool)
	CustomTrapNotify      func(h *Hart, cause, tval uint64, target Priv)
	CustomTriggerFault    func(h *Hart, t *Trigger, addr uint64) (fault bool)
	DataDomainFlush       func(h *Hart)
}
