package hart

import (
	"sort"
	"strconv"
	"strings"
)

// AccessMode is the minimum privilege required to reach a CSR, decoded
// from address bits [9:8] (§4.1).
type AccessMode uint8

const (
	AccessU AccessMode = 0
	AccessS AccessMode = 1 // S or H
	AccessM AccessMode = 3
)

func decodeAccessMode(addr CSRAddr) AccessMode {
	switch (addr >> 8) & 3 {
	case 0:
		return AccessU
	case 3:
		return AccessM
	default: // 1 and 2 both decode to "S/H" per §4.1
		return AccessS
	}
}

func isReadOnlyAddr(addr CSRAddr) bool { return (addr>>10)&3 == 3 }

// ReadFunc/WriteFunc are a descriptor's read/write callbacks (§4.1).
// WriteFunc receives the already-privilege-and-stateen-checked raw value
// software asked to store (post CSRRW/S/C computation) and applies
// whatever WARL masking the CSR needs.
type ReadFunc func(h *Hart) (uint64, error)
type WriteFunc func(h *Hart, val uint64) error

// CSRFlag carries the descriptor flags of §4.1.
type CSRFlag uint32

const (
	FlagEndsBlock CSRFlag = 1 << iota
	FlagNoTraceChange
	FlagWritesRDEarly
	FlagExcludedFromSaveRestore
)

// CSRDescriptor is the sparse-map entry of the CSR Registry (§4.1, §9
// "sum-typed alternative"). Even pure storage CSRs get a trivial closure
// over a struct field rather than a bare mask, so every CSR — callback-
// backed or storage-backed — goes through exactly one access path. Write
// is nil for read-only CSRs; a nil Read reads as zero.
type CSRDescriptor struct {
	Name      string
	Addr      CSRAddr
	ReadOnly  bool
	Features  func(h *Hart) bool // architectural preconditions; nil = always present
	HSOnly    bool               // hypervisor-only CSR: VirtualInstruction if accessed while virtual
	StateenBit int               // -1 if no Smstateen gate
	StateenHypervisor bool        // true if the gate is checked at the H level (VirtualInstruction) not M level (IllegalInstruction)
	Read      ReadFunc
	Write     WriteFunc
	Flags     CSRFlag

	effectiveAddr CSRAddr
}

func (h *Hart) registerCSR(d *CSRDescriptor) {
	d.effectiveAddr = d.Addr
	if h.csrs == nil {
		h.csrs = make(map[CSRAddr]*CSRDescriptor)
	}
	h.csrs[d.effectiveAddr] = d
}

// applyRemap parses the boot-time remap syntax (§6 "CSR remap syntax":
// "name1=0xADDR, name2=0xADDR, ..."; whitespace stripped; unknown names
// ignored) and re-keys the registry.
func (h *Hart) applyRemap(spec string) error {
	byName := make(map[string]*CSRDescriptor, len(h.csrs))
	for _, d := range h.csrs {
		byName[d.Name] = d
	}
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		name := strings.TrimSpace(parts[0])
		addrStr := strings.TrimSpace(parts[1])
		d, ok := byName[name]
		if !ok {
			continue // unknown names ignored
		}
		addr, err := strconv.ParseUint(strings.TrimPrefix(addrStr, "0x"), 16, 16)
		if err != nil {
			return &errFatalConfig{msg: "bad remap address " + addrStr, err: err}
		}
		delete(h.csrs, d.effectiveAddr)
		d.effectiveAddr = CSRAddr(addr)
		h.csrs[d.effectiveAddr] = d
	}
	return nil
}

// checkCSRAccess implements step 1 of §4.1's access algorithm once the
// descriptor is known to exist: privilege check, with VirtualInstruction
// for HS-only CSRs reached from a virtualized mode.
func (h *Hart) checkCSRAccess(d *CSRDescriptor) error {
	req := decodeAccessMode(d.effectiveAddr)
	if req > AccessMode(h.priv.rank()) {
		return Exception(CauseIllegalInsn, uint64(d.effectiveAddr))
	}
	if d.HSOnly && h.priv.Virtual() {
		return Exception(CauseVirtualInstruction, uint64(d.effectiveAddr))
	}
	return nil
}

// checkStateen implements step 2 of §4.1: Smstateen gating.
func (h *Hart) checkStateen(d *CSRDescriptor) error {
	if d.StateenBit < 0 {
		return nil
	}
	if h.stateenAllows(d.StateenBit, d.StateenHypervisor) {
		return nil
	}
	if d.StateenHypervisor {
		return Exception(CauseVirtualInstruction, uint64(d.effectiveAddr))
	}
	return Exception(CauseIllegalInsn, uint64(d.effectiveAddr))
}

// CSRRead performs the §4.1 read algorithm.
func (h *Hart) CSRRead(addr CSRAddr) (uint64, error) {
	d, ok := h.csrs[addr]
	if !ok {
		return 0, Exception(CauseIllegalInsn, uint64(addr))
	}
	if d.Features != nil && !d.Features(h) {
		return 0, Exception(CauseIllegalInsn, uint64(addr))
	}
	if err := h.checkCSRAccess(d); err != nil {
		return 0, err
	}
	if err := h.checkStateen(d); err != nil {
		return 0, err
	}
	if h.Bus != nil && h.Bus.IsMapped(addr) {
		return h.Bus.Read(addr)
	}
	if d.Read == nil {
		return 0, nil
	}
	return d.Read(h)
}

// CSRWrite performs the §4.1 write algorithm. The returned value is what
// ended up stored (post-WARL), matching testable property 1's
// `read(write(a, v)) = v & write_mask | (old & ~write_mask)` shape.
func (h *Hart) CSRWrite(addr CSRAddr, val uint64) (uint64, error) {
	d, ok := h.csrs[addr]
	if !ok {
		return 0, Exception(CauseIllegalInsn, uint64(addr))
	}
	if d.Features != nil && !d.Features(h) {
		return 0, Exception(CauseIllegalInsn, uint64(addr))
	}
	if d.ReadOnly || isReadOnlyAddr(addr) {
		return 0, Exception(CauseIllegalInsn, uint64(addr))
	}
	if err := h.checkCSRAccess(d); err != nil {
		return 0, err
	}
	if err := h.checkStateen(d); err != nil {
		return 0, err
	}
	if h.Bus != nil && h.Bus.IsMapped(addr) {
		if err := h.Bus.Write(addr, val); err != nil {
			return 0, err
		}
		return h.Bus.Read(addr)
	}
	if d.Write != nil {
		if err := d.Write(h, val); err != nil {
			return 0, err
		}
	}
	// §9 "cyclic CSR dependencies": misa/mstatus writes can change the
	// effective width of subsequent reads, so recompute before returning.
	// The status registers also hold the global interrupt enables, so the
	// pending/enabled state is recomputed too.
	if addr == CSRMisa || addr == CSRMstatus || addr == CSRMstatush || addr == CSRSstatus || addr == CSRHstatus || addr == CSRVsstatus {
		h.refreshMode()
		h.RefreshPendingAndEnabled()
	}
	if d.Read != nil {
		return d.Read(h)
	}
	return 0, nil
}

// CSREntry is what Iterate yields for introspection (§4.1 "iterate()").
type CSREntry struct {
	Name string
	Addr CSRAddr
}

// Iterate yields every currently enabled CSR in address order.
func (h *Hart) Iterate() []CSREntry {
	out := make([]CSREntry, 0, len(h.csrs))
	for addr, d := range h.csrs {
		if d.Features != nil && !d.Features(h) {
			continue
		}
		out = append(out, CSREntry{Name: d.Name, Addr: addr})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })
	return out
}

// stateenAllows checks the Smstateen gating chain for a given bit index
// (§4.1 step 2). The chain walks from M (mstateen0) down through H
// (hstateen0) to the current mode: a 0 bit at any level above the
// accessing mode blocks the access.
func (h *Hart) stateenAllows(bit int, hypervisorLevel bool) bool {
	if bit < 0 {
		return true
	}
	if h.priv == PrivM {
		return true // M is never gated by its own stateen
	}
	if h.Menvcfg&(1<<63) == 0 {
		// Smstateen not enabled at all on this hart: treat as fully open,
		// matching a hart configured without the extension.
		return true
	}
	if (h.Mstateen0>>bit)&1 == 0 {
		return false
	}
	if hypervisorLevel && h.priv.Virtual() {
		if (h.Hstateen0>>bit)&1 == 0 {
			return false
		}
	}
	return true
}
