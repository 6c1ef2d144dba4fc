package hart

import (
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// snapshot.go persists and restores the architectural state enumerated in
// §6 ("Persisted state"), file-locked with golang.org/x/sys/unix so two
// processes sharing a snapshot path (e.g. a running hart and hartctl
// inspecting it) never interleave a save with a restore.

const snapshotMagic uint32 = 0x68617274 // "hart"
const snapshotVersion uint32 = 1

// Snapshot is the flat, versioned persisted-state record (§6). Every
// architectural register also stored in Hart gets a field here; CSR
// registry wiring (descriptors, remap) is config-derived and is not
// persisted, matching §6's "persisted state is architectural register
// content, not registry topology".
type Snapshot struct {
	PC uint64

	Priv      Priv
	VMEnabled bool
	DM        bool
	Disable   uint32

	Mstatus, Misa                               uint64
	Medeleg, Mideleg, Mie, Mip                   uint64
	Mvien, Mvip                                  uint64
	Mtvec, Mtvt                                  uint64
	Mcounteren, Mcountinhibit                    uint64
	Mscratch, Mepc, Mcause, Mtval, Mtval2, Mtinst uint64
	Menvcfg, Mseccfg                             uint64
	Mintstatus, Mintthresh                       uint64
	Mhartid                                      uint64
	Mstateen0, Hstateen0, Sstateen0              uint64
	Mnstatus, Mnepc, Mncause, Mnscratch           uint64

	Sstatus                        uint64
	Stvec, Stvt                    uint64
	Scounteren, Senvcfg           uint64
	Sscratch, Sepc, Scause, Stval uint64
	Satp                          uint64
	Stimecmp                      uint64
	Sintthresh                    uint64
	Scontext                      uint64

	Hstatus, Hedeleg, Hideleg     uint64
	Hie, Hip, Hvip, Hvien, Hvictl uint64
	Hgeie, Hgeip                  uint64
	Hgatp, Henvcfg                uint64
	Htval, Htinst                 uint64
	Hcontext                      uint64

	Vsstatus, Vstvec                  uint64
	Vsscratch, Vsepc, Vscause, Vstval uint64
	Vsatp, Vstimecmp                  uint64

	AIA AIAState

	Cycle, Instret uint64

	Tcontrol, Mcontext uint64
	Triggers           []Trigger
	Tselect            int

	Dcsr, Dpc, Dscratch0, Dscratch1 uint64
}

// Save captures the current architectural state (§6). Widths are
// canonicalized to the hart's configured MXL (this core is rv64-only, so
// every field is stored full-width; a narrower core would truncate here).
func (h *Hart) Save() Snapshot {
	return Snapshot{
		PC: h.PC, Priv: h.priv, VMEnabled: h.vmEnabled, DM: h.DM, Disable: h.disable,
		Mstatus: h.Mstatus, Misa: h.Misa,
		Medeleg: h.Medeleg, Mideleg: h.Mideleg, Mie: h.Mie, Mip: h.Mip,
		Mvien: h.Mvien, Mvip: h.Mvip, Mtvec: h.Mtvec, Mtvt: h.Mtvt,
		Mcounteren: h.Mcounteren, Mcountinhibit: h.Mcountinhibit,
		Mscratch: h.Mscratch, Mepc: h.Mepc, Mcause: h.Mcause, Mtval: h.Mtval,
		Mtval2: h.Mtval2, Mtinst: h.Mtinst, Menvcfg: h.Menvcfg, Mseccfg: h.Mseccfg,
		Mintstatus: h.Mintstatus, Mintthresh: h.Mintthresh, Mhartid: h.Mhartid,
		Mstateen0: h.Mstateen0, Hstateen0: h.Hstateen0, Sstateen0: h.Sstateen0,
		Mnstatus: h.Mnstatus, Mnepc: h.Mnepc, Mncause: h.Mncause, Mnscratch: h.Mnscratch,
		Stvec: h.Stvec, Stvt: h.Stvt, Scounteren: h.Scounteren, Senvcfg: h.Senvcfg,
		Sscratch: h.Sscratch, Sepc: h.Sepc, Scause: h.Scause, Stval: h.Stval,
		Satp: h.Satp, Stimecmp: h.Stimecmp, Sintthresh: h.Sintthresh, Scontext: h.Scontext,
		Hstatus: h.Hstatus, Hedeleg: h.Hedeleg, Hideleg: h.Hideleg,
		Hie: h.Hie, Hip: h.Hip, Hvip: h.Hvip, Hvien: h.Hvien, Hvictl: h.Hvictl,
		Hgeie: h.Hgeie, Hgeip: h.Hgeip, Hgatp: h.Hgatp, Henvcfg: h.Henvcfg,
		Htval: h.Htval, Htinst: h.Htinst, Hcontext: h.Hcontext,
		Vsstatus: h.Vsstatus, Vstvec: h.Vstvec, Vsscratch: h.Vsscratch, Vsepc: h.Vsepc,
		Vscause: h.Vscause, Vstval: h.Vstval, Vsatp: h.Vsatp, Vstimecmp: h.Vstimecmp,
		AIA: h.AIA, Cycle: h.Cycle, Instret: h.Instret,
		Tcontrol: h.Tcontrol, Mcontext: h.Mcontext,
		Triggers: append([]Trigger(nil), h.triggers...), Tselect: h.tselect,
		Dcsr: h.Dcsr, Dpc: h.Dpc, Dscratch0: h.Dscratch0, Dscratch1: h.Dscratch1,
	}
}

// Restore installs a previously captured Snapshot, then recomputes the
// Mode Manager and Interrupt Controller's derived state exactly as
// ColdReset does (§6 "restore never skips the derived-state refresh").
func (h *Hart) Restore(s Snapshot) {
	h.PC, h.priv, h.DM, h.disable = s.PC, s.Priv, s.DM, s.Disable
	h.Mstatus, h.Misa = s.Mstatus, s.Misa
	h.Medeleg, h.Mideleg, h.Mie, h.Mip = s.Medeleg, s.Mideleg, s.Mie, s.Mip
	h.Mvien, h.Mvip, h.Mtvec, h.Mtvt = s.Mvien, s.Mvip, s.Mtvec, s.Mtvt
	h.Mcounteren, h.Mcountinhibit = s.Mcounteren, s.Mcountinhibit
	h.Mscratch, h.Mepc, h.Mcause, h.Mtval = s.Mscratch, s.Mepc, s.Mcause, s.Mtval
	h.Mtval2, h.Mtinst, h.Menvcfg, h.Mseccfg = s.Mtval2, s.Mtinst, s.Menvcfg, s.Mseccfg
	h.Mintstatus, h.Mintthresh, h.Mhartid = s.Mintstatus, s.Mintthresh, s.Mhartid
	h.Mstateen0, h.Hstateen0, h.Sstateen0 = s.Mstateen0, s.Hstateen0, s.Sstateen0
	h.Mnstatus, h.Mnepc, h.Mncause, h.Mnscratch = s.Mnstatus, s.Mnepc, s.Mncause, s.Mnscratch
	h.Stvec, h.Stvt, h.Scounteren, h.Senvcfg = s.Stvec, s.Stvt, s.Scounteren, s.Senvcfg
	h.Sscratch, h.Sepc, h.Scause, h.Stval = s.Sscratch, s.Sepc, s.Scause, s.Stval
	h.Satp, h.Stimecmp, h.Sintthresh, h.Scontext = s.Satp, s.Stimecmp, s.Sintthresh, s.Scontext
	h.Hstatus, h.Hedeleg, h.Hideleg = s.Hstatus, s.Hedeleg, s.Hideleg
	h.Hie, h.Hip, h.Hvip, h.Hvien, h.Hvictl = s.Hie, s.Hip, s.Hvip, s.Hvien, s.Hvictl
	h.Hgeie, h.Hgeip, h.Hgatp, h.Henvcfg = s.Hgeie, s.Hgeip, s.Hgatp, s.Henvcfg
	h.Htval, h.Htinst, h.Hcontext = s.Htval, s.Htinst, s.Hcontext
	h.Vsstatus, h.Vstvec, h.Vsscratch, h.Vsepc = s.Vsstatus, s.Vstvec, s.Vsscratch, s.Vsepc
	h.Vscause, h.Vstval, h.Vsatp, h.Vstimecmp = s.Vscause, s.Vstval, s.Vsatp, s.Vstimecmp
	h.AIA, h.Cycle, h.Instret = s.AIA, s.Cycle, s.Instret
	h.Tcontrol, h.Mcontext = s.Tcontrol, s.Mcontext
	h.triggers = append([]Trigger(nil), s.Triggers...)
	h.tselect = s.Tselect
	h.Dcsr, h.Dpc, h.Dscratch0, h.Dscratch1 = s.Dcsr, s.Dpc, s.Dscratch0, s.Dscratch1

	h.refreshMode()
	h.RefreshPendingAndEnabled()
}

// SaveToFile writes an 8-byte header (magic, version) followed by the
// gob-encoded Snapshot to path. The file is truncated and written only
// while an exclusive flock is held, so a concurrent SaveToFile/LoadFromFile
// never observes a half-written file (§6 "snapshot I/O must be safe under
// concurrent access from hartctl").
func SaveToFile(h *Hart, path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("hart: open snapshot %s: %w", path, err)
	}
	defer f.Close()

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		return fmt.Errorf("hart: lock snapshot %s: %w", path, err)
	}
	defer unix.Flock(int(f.Fd()), unix.LOCK_UN)
	if err := f.Truncate(0); err != nil {
		return fmt.Errorf("hart: truncate snapshot %s: %w", path, err)
	}

	var hdr [8]byte
	binary.LittleEndian.PutUint32(hdr[0:4], snapshotMagic)
	binary.LittleEndian.PutUint32(hdr[4:8], snapshotVersion)
	if _, err := f.Write(hdr[:]); err != nil {
		return fmt.Errorf("hart: write snapshot header: %w", err)
	}

	enc := gob.NewEncoder(f)
	if err := enc.Encode(h.Save()); err != nil {
		return fmt.Errorf("hart: encode snapshot: %w", err)
	}
	return nil
}

// LoadFromFile reads a snapshot written by SaveToFile under a shared lock
// and restores it into h.
func LoadFromFile(h *Hart, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("hart: open snapshot %s: %w", path, err)
	}
	defer f.Close()

	if err := unix.Flock(int(f.Fd()), unix.LOCK_SH); err != nil {
		return fmt.Errorf("hart: lock snapshot %s: %w", path, err)
	}
	defer unix.Flock(int(f.Fd()), unix.LOCK_UN)

	var hdr [8]byte
	if _, err := f.Read(hdr[:]); err != nil {
		return fmt.Errorf("hart: read snapshot header: %w", err)
	}
	if binary.LittleEndian.Uint32(hdr[0:4]) != snapshotMagic {
		return fmt.Errorf("hart: %s is not a hart snapshot", path)
	}
	if v := binary.LittleEndian.Uint32(hdr[4:8]); v != snapshotVersion {
		return fmt.Errorf("hart: %s has unsupported snapshot version %d", path, v)
	}

	dec := gob.NewDecoder(f)
	var s Snapshot
	if err := dec.Decode(&s); err != nil {
		return fmt.Errorf("hart: decode snapshot: %w", err)
	}
	h.Restore(s)
	return nil
}
