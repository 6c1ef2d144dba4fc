package hart

import "log/slog"

// ExtensionRegistry is the §6 "Extension registry": a per-hart, boot-time
// installed list of callback tables. The core invokes every registered
// callback in registration order (§6), never a global list (§9 "Global
// state ... none").
type ExtensionRegistry struct {
	callbacks []ExtensionCallbacks
}

// NewExtensionRegistry returns an empty registry.
func NewExtensionRegistry() *ExtensionRegistry {
	return &ExtensionRegistry{}
}

// Register attaches a callback table. Order of registration is preserved
// and is the order callbacks are invoked in (§6).
func (r *ExtensionRegistry) Register(cb ExtensionCallbacks) {
	r.callbacks = append(r.callbacks, cb)
}

// TryCustomNMI gives registered extensions a chance to handle NMI entry
// themselves (§6). The first extension that returns handled=true wins.
func (r *ExtensionRegistry) TryCustomNMI(h *Hart) bool {
	for _, cb := range r.callbacks {
		if cb.CustomNMI != nil && cb.CustomNMI(h) {
			return true
		}
	}
	return false
}

// TryCustomInterruptPrio asks extensions for an overridden priority for
// cause, first-match-wins.
func (r *ExtensionRegistry) TryCustomInterruptPrio(h *Hart, cause uint64) (InterruptPriority, bool) {
	for _, cb := range r.callbacks {
		if cb.CustomInterruptPrio == nil {
			continue
		}
		if p, ok := cb.CustomInterruptPrio(h, cause); ok {
			return p, true
		}
	}
	return InterruptPriority{}, false
}

// TryCustomHandlerPC asks extensions for an overridden handler PC lookup
// (e.g. a custom CLIC implementation), first-match-wins.
func (r *ExtensionRegistry) TryCustomHandlerPC(h *Hart, base, code uint64, vectored bool) (uint64, bool) {
	for _, cb := range r.callbacks {
		if cb.CustomHandlerPC == nil {
			continue
		}
		if pc, ok := cb.CustomHandlerPC(h, base, code, vectored); ok {
			return pc, true
		}
	}
	return 0, false
}

// NotifyTrap invokes every registered trap notifier (§6). Unlike the
// Try* hooks this is fan-out, not first-match: every extension gets to
// observe every trap.
func (r *ExtensionRegistry) NotifyTrap(h *Hart, cause, tval uint64, target Priv) {
	for _, cb := range r.callbacks {
		if cb.CustomTrapNotify != nil {
			cb.CustomTrapNotify(h, cause, tval, target)
		}
	}
}

// TryCustomTriggerFault asks extensions whether a trigger access should be
// treated as a memory-access fault rather than a normal match (§6).
func (r *ExtensionRegistry) TryCustomTriggerFault(h *Hart, t *Trigger, addr uint64) bool {
	for _, cb := range r.callbacks {
		if cb.CustomTriggerFault != nil && cb.CustomTriggerFault(h, t, addr) {
			return true
		}
	}
	return false
}

// NotifyDataDomainFlush fans out the Mode Manager's "flush per-mode data
// domain" event (§4.2) to every registered extension.
func (r *ExtensionRegistry) NotifyDataDomainFlush(h *Hart) {
	for _, cb := range r.callbacks {
		if cb.DataDomainFlush != nil {
			cb.DataDomainFlush(h)
		}
	}
}

// NotifyFlushDicts is called when the composite architecture key changes
// (§4.2): it logs the transition at Debug level. It does not call any
// extension callback, so no registered collaborator is asked to invalidate
// translations keyed on old.
func (r *ExtensionRegistry) NotifyFlushDicts(h *Hart, old, new ArchKey) {
	if old == new {
		return
	}
	h.log.Debug("hart: arch key changed", "hart", h.ID, "old_priv", old.Priv, "new_priv", new.Priv,
		"old_xlen", old.XLEN, "new_xlen", new.XLEN, "vm", new.VMEnabled)
}

// LoadNative loads a shared object implementing the native extension ABI
// (§11 domain stack) and registers the callback table it exposes. The
// real loader (linux/darwin, via github.com/ebitengine/purego) lives in
// extregistry_purego.go; extregistry_stub.go provides a "not supported"
// fallback on other platforms, so a hart config that lists native
// extensions still boots everywhere — it just runs without them.
func (r *ExtensionRegistry) LoadNative(path string) error {
	cb, err := loadNativeExtension(path)
	if err != nil {
		return err
	}
	r.Register(cb)
	slog.Default().Debug("hart: loaded native extension", "path", path, "name", cb.Name)
	return nil
}
