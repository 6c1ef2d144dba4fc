//go:build !linux && !darwin

package hart

import "fmt"

// loadNativeExtension has no native-loader backend on this platform
// (purego's Dlopen/Dlsym path is linux/darwin only in this module's use).
// A hart config listing native extensions still boots: it just runs
// without them, per DESIGN.md's dropped-dependency ledger.
func loadNativeExtension(path string) (ExtensionCallbacks, error) {
	return ExtensionCallbacks{}, fmt.Errorf("hart: native extensions unsupported on this platform (wanted %s)", path)
}
