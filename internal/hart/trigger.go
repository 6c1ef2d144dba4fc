package hart

// trigger.go is the Trigger Engine (Sdtrig, §4.5): hardware watchpoints
// the Debug Module and ordinary software (via tdata1.action) both use.
// The teacher has no trigger model at all (_teacher_rv64 predates Sdtrig
// support), so this is built fresh in the teacher's storage-plus-switch
// idiom, generalized into the descriptor form the rest of this package
// uses for CSR access.

// TriggerType enumerates the tdata1.type encodings this core implements.
type TriggerType uint8

const (
	TriggerNone      TriggerType = 0
	TriggerLegacy    TriggerType = 1 // reserved/unsupported; a write of it keeps the previous type
	TriggerMControl  TriggerType = 2
	TriggerICount    TriggerType = 3
	TriggerITrigger  TriggerType = 4
	TriggerETrigger  TriggerType = 5
	TriggerMControl6 TriggerType = 6
)

// defaultTinfo advertises which trigger types this core supports,
// independent of any single trigger's current selection (§3 "tinfo").
const defaultTinfo uint32 = 1<<TriggerMControl | 1<<TriggerICount |
	1<<TriggerITrigger | 1<<TriggerETrigger | 1<<TriggerMControl6

// Trigger bit layout within Data1 (a conventional packed encoding local to
// this core, not required to match the wire-exact mcontrol bit positions
// since nothing outside this package parses tdata1 directly — CSR reads go
// through packTdata1/unpackTdata1 below).
const (
	td1Dmode   = 1 << 63
	td1EnM     = 1 << 0
	td1EnS     = 1 << 1
	td1EnU     = 1 << 2
	td1EnVS    = 1 << 3
	td1EnVU    = 1 << 4
	td1Load    = 1 << 5
	td1Store   = 1 << 6
	td1Execute = 1 << 7
	td1Chain   = 1 << 8
	td1After   = 1 << 9 // timing: fire after the triggering instruction retires
	td1ActionShift = 10
	td1ActionMask  = 0xF << td1ActionShift
)

// TriggerAction mirrors tdata1.action (§4.5).
type TriggerAction uint8

const (
	TriggerActionBreakpoint TriggerAction = 0
	TriggerActionDebugEntry TriggerAction = 1
)

// Trigger is one element of the trigger register file (§3 "triggers[]").
type Trigger struct {
	Type   TriggerType
	Dmode  bool
	EnM, EnS, EnU, EnVS, EnVU bool
	Load, Store, Execute bool
	Chain  bool
	After  bool // fire-after-retire vs fire-before-commit
	Action TriggerAction
	Data2  uint64 // address/data compare value, or icount countdown
	Data3  uint64 // textra: mvalue/mselect/svalue/sselect packed context match
	count  uint16 // icount countdown, separate from the architectural Data2 view
}

func newTrigger() Trigger { return Trigger{Type: TriggerNone} }

func (t *Trigger) enabledFor(p Priv) bool {
	switch p {
	case PrivM:
		return t.EnM
	case PrivS:
		return t.EnS
	case PrivU:
		return t.EnU
	case PrivVS:
		return t.EnVS
	case PrivVU:
		return t.EnVU
	default:
		return false
	}
}

func (t *Trigger) armed() bool { return t.Type != TriggerNone && t.Type != TriggerLegacy }

// anyTriggerArmed reports whether any trigger is armed for the current
// privilege mode, published into ArchKey.TriggersActive so the external
// Morph/JIT collaborator knows to instrument fetch/load/store checks
// rather than emitting untrapped fast-path code (§4.2, §4.5).
func (h *Hart) anyTriggerArmed() bool {
	if h.Tcontrol&tcontrolMTE == 0 && h.priv == PrivM {
		return false
	}
	for i := range h.triggers {
		if h.triggers[i].armed() && h.triggers[i].enabledFor(h.priv) {
			return true
		}
	}
	return false
}

func packTdata1(t Trigger) uint64 {
	v := uint64(t.Type) << 60
	if t.Dmode {
		v |= td1Dmode
	}
	if t.EnM {
		v |= td1EnM
	}
	if t.EnS {
		v |= td1EnS
	}
	if t.EnU {
		v |= td1EnU
	}
	if t.EnVS {
		v |= td1EnVS
	}
	if t.EnVU {
		v |= td1EnVU
	}
	if t.Load {
		v |= td1Load
	}
	if t.Store {
		v |= td1Store
	}
	if t.Execute {
		v |= td1Execute
	}
	if t.Chain {
		v |= td1Chain
	}
	if t.After {
		v |= td1After
	}
	v |= uint64(t.Action) << td1ActionShift
	return v
}

// unpackTdata1 applies a software write to tdata1, reverting to the
// trigger's previous type if the requested type isn't in tinfo's
// supported set (§4.5 "writing an unsupported type is a WARL no-op, the
// trigger keeps its previous configuration").
func unpackTdata1(prev Trigger, val uint64, supported uint32) Trigger {
	reqType := TriggerType((val >> 60) & 0x7) // bit 63 is dmode, not type
	if supported&(1<<reqType) == 0 {
		reqType = prev.Type
	}
	t := Trigger{Type: reqType, Data2: prev.Data2, Data3: prev.Data3, count: prev.count}
	t.Dmode = val&td1Dmode != 0
	t.EnM = val&td1EnM != 0
	t.EnS = val&td1EnS != 0
	t.EnU = val&td1EnU != 0
	t.EnVS = val&td1EnVS != 0
	t.EnVU = val&td1EnVU != 0
	t.Load = val&td1Load != 0
	t.Store = val&td1Store != 0
	t.Execute = val&td1Execute != 0
	t.Chain = val&td1Chain != 0
	t.After = val&td1After != 0
	t.Action = TriggerAction((val & td1ActionMask) >> td1ActionShift)
	if t.Type == TriggerICount {
		t.count = uint16(t.Data2)
	}
	return t
}

const (
	tcontrolMTE  uint64 = 1 << 3
	tcontrolMPTE uint64 = 1 << 7
)

func (h *Hart) registerTriggerCSRs() {
	h.registerCSR(funcCSR("tselect", CSRTselect,
		func(h *Hart) (uint64, error) { return uint64(h.tselect), nil },
		func(h *Hart, val uint64) error {
			if int(val) < len(h.triggers) {
				h.tselect = int(val)
			}
			return nil
		}))
	h.registerCSR(funcCSR("tdata1", CSRTdata1,
		func(h *Hart) (uint64, error) {
			if len(h.triggers) == 0 {
				return 0, nil
			}
			return packTdata1(h.triggers[h.tselect]), nil
		},
		func(h *Hart, val uint64) error {
			if len(h.triggers) == 0 {
				return nil
			}
			if h.triggers[h.tselect].Dmode && !h.DM {
				return Exception(CauseIllegalInsn, uint64(CSRTdata1))
			}
			h.triggers[h.tselect] = unpackTdata1(h.triggers[h.tselect], val, h.triggerInfo)
			h.refreshMode()
			return nil
		}))
	h.registerCSR(funcCSR("tdata2", CSRTdata2,
		func(h *Hart) (uint64, error) {
			if len(h.triggers) == 0 {
				return 0, nil
			}
			return h.triggers[h.tselect].Data2, nil
		},
		func(h *Hart, val uint64) error {
			if len(h.triggers) == 0 {
				return nil
			}
			t := &h.triggers[h.tselect]
			if t.Dmode && !h.DM {
				return Exception(CauseIllegalInsn, uint64(CSRTdata2))
			}
			t.Data2 = val
			if t.Type == TriggerICount {
				t.count = uint16(val)
			}
			return nil
		}))
	h.registerCSR(funcCSR("tdata3", CSRTdata3,
		func(h *Hart) (uint64, error) {
			if len(h.triggers) == 0 {
				return 0, nil
			}
			return h.triggers[h.tselect].Data3, nil
		},
		func(h *Hart, val uint64) error {
			if len(h.triggers) == 0 {
				return nil
			}
			t := &h.triggers[h.tselect]
			if t.Dmode && !h.DM {
				return Exception(CauseIllegalInsn, uint64(CSRTdata3))
			}
			t.Data3 = val
			return nil
		}))
	h.registerCSR(roCSR("tinfo", CSRTinfo, func(h *Hart) uint64 { return uint64(h.triggerInfo) }))
	h.registerCSR(storageCSR("tcontrol", CSRTcontrol, tcontrolMTE|tcontrolMPTE,
		func(h *Hart) uint64 { return h.Tcontrol }, func(h *Hart, v uint64) { h.Tcontrol = v }))
	h.registerCSR(storageCSR("mcontext", CSRMcontext, ^uint64(0),
		func(h *Hart) uint64 { return h.Mcontext }, func(h *Hart, v uint64) { h.Mcontext = v }))
}

// TriggerHit is what a fetch/load/store match reports to the caller so it
// can decide between a breakpoint exception and a debug-mode entry
// (§4.5 "action selects Breakpoint exception vs. debug-mode entry").
type TriggerHit struct {
	Index  int
	Action TriggerAction
	After  bool
}

// MatchFetch evaluates every armed mcontrol/mcontrol6 trigger against an
// instruction-fetch address (§4.5). Chained triggers only report a hit
// once every trigger in the chain matches.
func (h *Hart) MatchFetch(pc uint64) *TriggerHit {
	return h.matchAddress(pc, true, false, false)
}

// MatchLoad evaluates load-address triggers.
func (h *Hart) MatchLoad(addr uint64) *TriggerHit {
	return h.matchAddress(addr, false, true, false)
}

// MatchStore evaluates store-address triggers.
func (h *Hart) MatchStore(addr uint64) *TriggerHit {
	return h.matchAddress(addr, false, false, true)
}

func (h *Hart) matchAddress(addr uint64, exec, load, store bool) *TriggerHit {
	if h.DM {
		return nil // §4.5 "triggers never fire while already in Debug mode"
	}
	chainOK := true
	for i := range h.triggers {
		t := &h.triggers[i]
		if t.Type != TriggerMControl && t.Type != TriggerMControl6 {
			continue
		}
		if !t.enabledFor(h.priv) {
			// A chain=0 trigger ends the group, so the next one starts fresh.
			chainOK = !t.Chain
			continue
		}
		kindMatch := (exec && t.Execute) || (load && t.Load) || (store && t.Store)
		addrMatch := t.Data2 == addr
		hit := kindMatch && addrMatch
		if !hit {
			chainOK = !t.Chain
			continue
		}
		if t.Chain {
			// Only the last trigger in a chain reports a hit; this
			// core requires a chained group's final trigger to be the
			// one with Chain=false (§4.5 "chain terminates at the
			// first non-chained trigger").
			continue
		}
		if !chainOK {
			chainOK = true
			continue
		}
		if h.Extensions.TryCustomTriggerFault(h, t, addr) {
			return nil
		}
		return &TriggerHit{Index: i, Action: t.Action, After: t.After}
	}
	return nil
}

// TickICount decrements every armed icount trigger by one retired
// instruction, firing when the countdown reaches zero (§4.5 "icount fires
// after N instructions retire at the enabled privilege level").
func (h *Hart) TickICount() *TriggerHit {
	if h.DM {
		return nil
	}
	for i := range h.triggers {
		t := &h.triggers[i]
		if t.Type != TriggerICount || !t.enabledFor(h.priv) {
			continue
		}
		if t.count == 0 {
			continue
		}
		t.count--
		if t.count == 0 {
			return &TriggerHit{Index: i, Action: t.Action, After: true}
		}
	}
	return nil
}
