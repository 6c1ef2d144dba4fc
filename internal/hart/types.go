package hart

// Priv is the current privilege mode. Unlike the teacher's three-level
// PrivUser/PrivSupervisor/PrivMachine, this covers the full five-state
// machine the privileged spec requires once H-mode is implemented: HS and
// VS are both "supervisor" from software's point of view but are distinct
// Priv values here because CSR visibility and trap delegation differ
// between them.
type Priv uint8

const (
	PrivU  Priv = iota // U-mode
	PrivS              // HS-mode (supervisor, not virtualized)
	PrivM              // M-mode
	PrivVU             // VU-mode (virtualized user)
	PrivVS             // VS-mode (virtualized supervisor)
)

func (p Priv) String() string {
	switch p {
	case PrivU:
		return "U"
	case PrivS:
		return "HS"
	case PrivM:
		return "M"
	case PrivVU:
		return "VU"
	case PrivVS:
		return "VS"
	default:
		return "?"
	}
}

// Virtual reports whether p is one of the virtualized (V=1) modes.
func (p Priv) Virtual() bool { return p == PrivVU || p == PrivVS }

// rank gives the total order M > HS/VS > U/VU used for "access-privilege
// exceeds current" checks (§4.1). The values match the access-privilege
// encoding of CSR address bits [9:8] (U=0, S=1, M=3) so the two compare
// directly. HS and VS rank the same as each other, as do U and VU: the V
// bit never changes a CSR's accessibility rank by itself, only which
// concrete CSR set is visible.
func (p Priv) rank() int {
	switch p {
	case PrivM:
		return 3
	case PrivS, PrivVS:
		return 1
	default:
		return 0
	}
}

// XLEN values.
const (
	XLEN32 = 32
	XLEN64 = 64
)

// modeBit indexes the 5-bit xlen_mask / per-mode bitsets in §3. The order
// matches the data model's "one bit per mode" description.
func modeBit(p Priv) uint {
	switch p {
	case PrivU:
		return 0
	case PrivS:
		return 1
	case PrivM:
		return 2
	case PrivVU:
		return 3
	case PrivVS:
		return 4
	default:
		return 0
	}
}

// misa extension bits, carried over from _teacher_rv64/cpu.go and extended
// with the letters the teacher never modeled (H, G is I+M+A+F+D so has no
// bit of its own).
const (
	MisaA uint64 = 1 << 0
	MisaC uint64 = 1 << 2
	MisaD uint64 = 1 << 3
	MisaF uint64 = 1 << 5
	MisaH uint64 = 1 << 7
	MisaI uint64 = 1 << 8
	MisaM uint64 = 1 << 12
	MisaS uint64 = 1 << 18
	MisaU uint64 = 1 << 20
)

// MXL / *XL values (WARL, legal set {1,2} meaning {32,64}).
const (
	XLRV32 uint64 = 1
	XLRV64 uint64 = 2
)

// mstatus bits (teacher's cpu.go constants, extended with the H-mode and
// Smstateen-era bits the teacher never needed).
const (
	MstatusSIE   uint64 = 1 << 1
	MstatusMIE   uint64 = 1 << 3
	MstatusSPIE  uint64 = 1 << 5
	MstatusUBE   uint64 = 1 << 6
	MstatusMPIE  uint64 = 1 << 7
	MstatusSPP   uint64 = 1 << 8
	MstatusVS    uint64 = 3 << 9
	MstatusMPP   uint64 = 3 << 11
	MstatusFS    uint64 = 3 << 13
	MstatusXS    uint64 = 3 << 15
	MstatusMPRV  uint64 = 1 << 17
	MstatusSUM   uint64 = 1 << 18
	MstatusMXR   uint64 = 1 << 19
	MstatusTVM   uint64 = 1 << 20
	MstatusTW    uint64 = 1 << 21
	MstatusTSR   uint64 = 1 << 22
	MstatusSPELP uint64 = 1 << 23
	MstatusSDT   uint64 = 1 << 24
	MstatusUXL   uint64 = 3 << 32
	MstatusSXL   uint64 = 3 << 34
	MstatusSBE   uint64 = 1 << 36
	MstatusMBE   uint64 = 1 << 37
	MstatusGVA   uint64 = 1 << 38
	MstatusMPV   uint64 = 1 << 39
	MstatusSD    uint64 = 1 << 63
)

const (
	MstatusSPPShift = 8
	MstatusMPPShift = 11
	MstatusUXLShift = 32
	MstatusSXLShift = 34
)

// hstatus bits (hypervisor extension; absent from the teacher entirely).
const (
	HstatusVSBE   uint64 = 1 << 5
	HstatusGVA    uint64 = 1 << 6
	HstatusSPV    uint64 = 1 << 7
	HstatusSPVP   uint64 = 1 << 8
	HstatusHU     uint64 = 1 << 9
	HstatusVTVM   uint64 = 1 << 20
	HstatusVTW    uint64 = 1 << 21
	HstatusVTSR   uint64 = 1 << 22
	HstatusVSXL   uint64 = 3 << 24
	HstatusVGEIN  uint64 = 0x3f << 12
	HstatusVSXLShift = 24
)

// mip / mie / hip / hie / vsip / vsie bits. STIP/VSTIP positions are
// re-aliased between mip and hip per §4.3; SGEIP has no *ie counterpart
// (it is derived from hgeip&hgeie).
const (
	MipSSIP  uint64 = 1 << 1
	MipVSSIP uint64 = 1 << 2
	MipMSIP  uint64 = 1 << 3
	MipSTIP  uint64 = 1 << 5
	MipVSTIP uint64 = 1 << 6
	MipMTIP  uint64 = 1 << 7
	MipSEIP  uint64 = 1 << 9
	MipVSEIP uint64 = 1 << 10
	MipMEIP  uint64 = 1 << 11
	MipSGEIP uint64 = 1 << 12
	MipLocalBase = 13 // local interrupts 13..63
)

// Exception causes (teacher's csr.go, extended with hypervisor variants).
const (
	CauseInsnAddrMisaligned  uint64 = 0
	CauseInsnAccessFault     uint64 = 1
	CauseIllegalInsn         uint64 = 2
	CauseBreakpoint          uint64 = 3
	CauseLoadAddrMisaligned  uint64 = 4
	CauseLoadAccessFault     uint64 = 5
	CauseStoreAddrMisaligned uint64 = 6
	CauseStoreAccessFault    uint64 = 7
	CauseEcallFromU          uint64 = 8
	CauseEcallFromS          uint64 = 9
	CauseEcallFromVS         uint64 = 10
	CauseEcallFromM          uint64 = 11
	CauseInsnPageFault       uint64 = 12
	CauseLoadPageFault       uint64 = 13
	CauseStorePageFault      uint64 = 15
	CauseInsnGuestPageFault  uint64 = 20
	CauseLoadGuestPageFault  uint64 = 21
	CauseVirtualInstruction  uint64 = 22
	CauseStoreGuestPageFault uint64 = 23
)

// Interrupt causes (bit 63 set).
const (
	intBit                 uint64 = 1 << 63
	CauseSSoftwareInt      uint64 = intBit | 1
	CauseVSSoftwareInt     uint64 = intBit | 2
	CauseMSoftwareInt      uint64 = intBit | 3
	CauseSTimerInt         uint64 = intBit | 5
	CauseVSTimerInt        uint64 = intBit | 6
	CauseMTimerInt         uint64 = intBit | 7
	CauseSExternalInt      uint64 = intBit | 9
	CauseVSExternalInt     uint64 = intBit | 10
	CauseMExternalInt      uint64 = intBit | 11
	CauseSGuestExternalInt uint64 = intBit | 12
)

// CSRAddr is a 12-bit CSR address.
type CSRAddr uint16

// CSR addresses. The teacher (_teacher_rv64/cpu.go) defines only the basic
// M/S/float/counter set; everything below CSRMhartid that isn't in the
// teacher is new for the privilege/interrupt/trigger/debug extensions this
// spec covers.
const (
	CSRFflags CSRAddr = 0x001
	CSRFrm    CSRAddr = 0x002
	CSRFcsr   CSRAddr = 0x003

	CSRCycle   CSRAddr = 0xC00
	CSRTime    CSRAddr = 0xC01
	CSRInstret CSRAddr = 0xC02

	CSRSstatus    CSRAddr = 0x100
	CSRSie        CSRAddr = 0x104
	CSRStvec      CSRAddr = 0x105
	CSRScounteren CSRAddr = 0x106
	CSRSenvcfg    CSRAddr = 0x10A
	CSRSscratch   CSRAddr = 0x140
	CSRSepc       CSRAddr = 0x141
	CSRScause     CSRAddr = 0x142
	CSRStval      CSRAddr = 0x143
	CSRSip        CSRAddr = 0x144
	CSRStimecmp   CSRAddr = 0x14D
	CSRSatp       CSRAddr = 0x180
	CSRScontext   CSRAddr = 0x5A8

	CSRHstatus    CSRAddr = 0x600
	CSRHedeleg    CSRAddr = 0x602
	CSRHideleg    CSRAddr = 0x603
	CSRHie        CSRAddr = 0x604
	CSRHcounteren CSRAddr = 0x606
	CSRHgeie      CSRAddr = 0x607
	CSRHvien      CSRAddr = 0x608
	CSRHvictl     CSRAddr = 0x609
	CSRHtval      CSRAddr = 0x643
	CSRHip        CSRAddr = 0x644
	CSRHvip       CSRAddr = 0x645
	CSRHtinst     CSRAddr = 0x64A
	CSRHgeip      CSRAddr = 0xE12
	CSRHgatp      CSRAddr = 0x680
	CSRHenvcfg    CSRAddr = 0x60A
	CSRHcontext   CSRAddr = 0x6A8

	CSRVsstatus  CSRAddr = 0x200
	CSRVsie      CSRAddr = 0x204
	CSRVstvec    CSRAddr = 0x205
	CSRVsscratch CSRAddr = 0x240
	CSRVsepc     CSRAddr = 0x241
	CSRVscause   CSRAddr = 0x242
	CSRVstval    CSRAddr = 0x243
	CSRVsip      CSRAddr = 0x244
	CSRVstimecmp CSRAddr = 0x24D
	CSRVsatp     CSRAddr = 0x280

	CSRMstatus    CSRAddr = 0x300
	CSRMisa       CSRAddr = 0x301
	CSRMedeleg    CSRAddr = 0x302
	CSRMideleg    CSRAddr = 0x303
	CSRMie        CSRAddr = 0x304
	CSRMtvec      CSRAddr = 0x305
	CSRMcounteren CSRAddr = 0x306
	CSRMvien      CSRAddr = 0x308
	CSRMvip       CSRAddr = 0x309
	CSRMenvcfg    CSRAddr = 0x30A
	CSRMstatush   CSRAddr = 0x310
	CSRMenvcfgh   CSRAddr = 0x31A
	CSRMcountinhibit CSRAddr = 0x320
	CSRMscratch   CSRAddr = 0x340
	CSRMepc       CSRAddr = 0x341
	CSRMcause     CSRAddr = 0x342
	CSRMtval      CSRAddr = 0x343
	CSRMip        CSRAddr = 0x344
	CSRMtinst     CSRAddr = 0x34A
	CSRMtval2     CSRAddr = 0x34B
	CSRMseccfg    CSRAddr = 0x747

	CSRMnscratch CSRAddr = 0x740
	CSRMnepc     CSRAddr = 0x741
	CSRMncause   CSRAddr = 0x742
	CSRMnstatus  CSRAddr = 0x744

	// Smaia / Ssaia
	CSRMiselect  CSRAddr = 0x350
	CSRMireg     CSRAddr = 0x351
	CSRMtopei    CSRAddr = 0x35C
	CSRMtopi     CSRAddr = 0xFB0
	CSRMvien2    CSRAddr = 0x308
	CSRSiselect  CSRAddr = 0x150
	CSRSireg     CSRAddr = 0x151
	CSRStopei    CSRAddr = 0x15C
	CSRStopi     CSRAddr = 0xDB0
	CSRVsiselect CSRAddr = 0x250
	CSRVsireg    CSRAddr = 0x251
	CSRVstopei   CSRAddr = 0x25C
	CSRVstopi    CSRAddr = 0xEB0

	// CLIC / Smclic
	CSRMtvt       CSRAddr = 0x307
	CSRMnxti      CSRAddr = 0x345
	CSRMintstatus CSRAddr = 0x346
	CSRMintthresh CSRAddr = 0x347
	CSRMscratchcsw CSRAddr = 0x348
	CSRStvt       CSRAddr = 0x107
	CSRSintthresh CSRAddr = 0x147
	CSRUtvt       CSRAddr = 0x007
	CSRUintthresh CSRAddr = 0x047

	// Sdtrig
	CSRTselect  CSRAddr = 0x7A0
	CSRTdata1   CSRAddr = 0x7A1
	CSRTdata2   CSRAddr = 0x7A2
	CSRTdata3   CSRAddr = 0x7A3
	CSRTinfo    CSRAddr = 0x7A4
	CSRTcontrol CSRAddr = 0x7A5
	CSRMcontext CSRAddr = 0x7A8

	// Sdext debug
	CSRDcsr      CSRAddr = 0x7B0
	CSRDpc       CSRAddr = 0x7B1
	CSRDscratch0 CSRAddr = 0x7B2
	CSRDscratch1 CSRAddr = 0x7B3

	CSRMvendorid CSRAddr = 0xF11
	CSRMarchid   CSRAddr = 0xF12
	CSRMimpid    CSRAddr = 0xF13
	CSRMhartid   CSRAddr = 0xF14
	CSRMconfigptr CSRAddr = 0xF15
)

// DebugCause values written to dcsr.cause on Running→Debug transitions
// (§4.6, testable property 7).
const (
	DebugCauseEbreak        uint64 = 1
	DebugCauseTrigger       uint64 = 2
	DebugCauseHaltreq       uint64 = 3
	DebugCauseStep          uint64 = 4
	DebugCauseResethaltreq  uint64 = 5
	DebugCauseGroup         uint64 = 6
)

// DisableReason is a bit in Hart.disable (§3 "disable").
type DisableReason uint32

const (
	DisableReset DisableReason = 1 << iota
	DisableWFI
	DisableWRS
	DisableDebug
)

// DebugPriorityMode selects how debug trigger-after events are ordered
// against the following instruction's interrupt check (§9 open question).
type DebugPriorityMode uint8

const (
	DebugPriorityHigh DebugPriorityMode = iota
	DebugPriorityLow
	DebugPriorityTrapBoundary
	DebugPriorityStepBoundary
)
