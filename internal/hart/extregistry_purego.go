//go:build linux || darwin

package hart

import (
	"fmt"
	"unsafe"

	"github.com/ebitengine/purego"
)

// Native extension ABI (§6 "Extension registry"). An extension is a plain
// shared object exporting a fixed set of C symbols; purego lets us call
// them without cgo, the same way _teacher_ref-adjacent code in
// internal/gowin/window/clipboard_linux.go binds libX11 symbols. Every
// symbol is optional except hartext_name: a missing optional symbol just
// means that callback is never offered for that extension.
//
//	const char *hartext_name(void);
//	int32_t     hartext_try_nmi(uint64_t mip, uint64_t mie, uint64_t mstatus);
//	int32_t     hartext_interrupt_prio(uint64_t cause, uint8_t *out_prio);
//	uint64_t    hartext_handler_pc(uint64_t base, uint64_t code, int32_t vectored, int32_t *ok);
//	void        hartext_trap_notify(uint64_t cause, uint64_t tval, uint32_t target_priv);
func loadNativeExtension(path string) (ExtensionCallbacks, error) {
	lib, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return ExtensionCallbacks{}, fmt.Errorf("hart: dlopen %s: %w", path, err)
	}

	var nameFn func() uintptr
	purego.RegisterLibFunc(&nameFn, lib, "hartext_name")
	name := readCString(nameFn())

	cb := ExtensionCallbacks{Name: name}

	if sym, ok := tryDlsym(lib, "hartext_try_nmi"); ok {
		var fn func(uint64, uint64, uint64) int32
		purego.RegisterFunc(&fn, sym)
		cb.CustomNMI = func(h *Hart) bool {
			return fn(h.Mip, h.Mie, h.Mstatus) != 0
		}
	}

	if sym, ok := tryDlsym(lib, "hartext_interrupt_prio"); ok {
		var fn func(uint64, *uint8) int32
		purego.RegisterFunc(&fn, sym)
		cb.CustomInterruptPrio = func(h *Hart, cause uint64) (InterruptPriority, bool) {
			var minor uint8
			if fn(cause, &minor) == 0 {
				return InterruptPriority{}, false
			}
			return InterruptPriority{Minor: minor}, true
		}
	}

	if sym, ok := tryDlsym(lib, "hartext_handler_pc"); ok {
		var fn func(uint64, uint64, int32, *int32) uint64
		purego.RegisterFunc(&fn, sym)
		cb.CustomHandlerPC = func(h *Hart, base, code uint64, vectored bool) (uint64, bool) {
			var v int32
			if vectored {
				v = 1
			}
			var ok int32
			pc := fn(base, code, v, &ok)
			return pc, ok != 0
		}
	}

	if sym, ok := tryDlsym(lib, "hartext_trap_notify"); ok {
		var fn func(uint64, uint64, uint32)
		purego.RegisterFunc(&fn, sym)
		cb.CustomTrapNotify = func(h *Hart, cause, tval uint64, target Priv) {
			fn(cause, tval, uint32(target))
		}
	}

	return cb, nil
}

// tryDlsym looks up sym in lib, reporting ok=false instead of panicking
// when the optional symbol is absent (purego.Dlsym panics on miss, so the
// lookup is guarded with recover).
func tryDlsym(lib uintptr, sym string) (handle uintptr, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	handle, err := purego.Dlsym(lib, sym)
	if err != nil {
		return 0, false
	}
	return handle, true
}

// readCString walks a NUL-terminated C string returned by a purego call.
func readCString(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	var buf []byte
	for i := 0; ; i++ {
		b := *(*byte)(unsafe.Pointer(ptr + uintptr(i)))
		if b == 0 {
			break
		}
		buf = append(buf, b)
		if len(buf) > 256 {
			break
		}
	}
	return string(buf)
}
