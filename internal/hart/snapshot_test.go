package hart

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveRestoreRoundtrip(t *testing.T) {
	h := newTestHart(t)
	h.Resume(DisableReset)
	if _, err := h.CSRWrite(CSRMscratch, 0xDEADBEEF); err != nil {
		t.Fatalf("CSRWrite: %v", err)
	}
	h.SetMode(PrivS)
	snap := h.Save()

	// mscratch is M-only, so clobber it from M.
	h.SetMode(PrivM)
	if _, err := h.CSRWrite(CSRMscratch, 0); err != nil {
		t.Fatalf("CSRWrite: %v", err)
	}

	h.Restore(snap)
	if h.Priv() != PrivS {
		t.Fatalf("Priv() = %v after restore, want the snapshotted S", h.Priv())
	}
	h.SetMode(PrivM)
	v, err := h.CSRRead(CSRMscratch)
	if err != nil {
		t.Fatalf("CSRRead: %v", err)
	}
	if v != 0xDEADBEEF {
		t.Fatalf("mscratch = %#x after restore, want 0xDEADBEEF", v)
	}
}

func TestSaveToFileLoadFromFileRoundtrip(t *testing.T) {
	h := newTestHart(t)
	h.Resume(DisableReset)
	if _, err := h.CSRWrite(CSRMscratch, 0x123456); err != nil {
		t.Fatalf("CSRWrite: %v", err)
	}

	path := filepath.Join(t.TempDir(), "hart.snap")
	if err := SaveToFile(h, path); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}

	h2 := newTestHart(t)
	h2.Resume(DisableReset)
	if err := LoadFromFile(h2, path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	v, err := h2.CSRRead(CSRMscratch)
	if err != nil {
		t.Fatalf("CSRRead: %v", err)
	}
	if v != 0x123456 {
		t.Fatalf("mscratch = %#x after file roundtrip, want 0x123456", v)
	}
}

func TestLoadFromFileRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-snapshot")
	if err := os.WriteFile(path, []byte("not a hart snapshot"), 0o644); err != nil {
		t.Fatalf("os.WriteFile: %v", err)
	}
	h := newTestHart(t)
	if err := LoadFromFile(h, path); err == nil {
		t.Fatalf("expected an error loading a file that isn't a hart snapshot")
	}
}
