package hart

import "testing"

func TestConfigNormalizeDefaults(t *testing.T) {
	c := Config{}
	if err := c.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if c.TriggerCount != 4 {
		t.Fatalf("TriggerCount = %d, want default 4", c.TriggerCount)
	}
	if c.Extensions != "imafdcsu" {
		t.Fatalf("Extensions = %q, want default imafdcsu", c.Extensions)
	}
	if c.PrivSpec != defaultPrivSpec {
		t.Fatalf("PrivSpec = %q, want %q", c.PrivSpec, defaultPrivSpec)
	}
}

func TestConfigNormalizePrivSpecVPrefix(t *testing.T) {
	c := Config{PrivSpec: "1.11.0"}
	if err := c.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if c.PrivSpec != "v1.11.0" {
		t.Fatalf("PrivSpec = %q, want v-prefixed", c.PrivSpec)
	}
}

func TestConfigNormalizeRejectsOversizedTriggerCount(t *testing.T) {
	c := Config{TriggerCount: 33}
	if err := c.normalize(); err == nil {
		t.Fatalf("expected error for trigger_count=33")
	}
}

func TestConfigNormalizeRejectsBadGEILEN(t *testing.T) {
	c := Config{GEILEN: 64}
	if err := c.normalize(); err == nil {
		t.Fatalf("expected error for geilen=64")
	}
}

func TestConfigDefaultMisa(t *testing.T) {
	c := Config{Extensions: "imac"}
	misa := c.defaultMisa()
	if misa&(3<<62) != XLRV64<<62 {
		t.Fatalf("MXL field = %#x, want rv64", misa&(3<<62))
	}
	for _, bit := range []uint64{MisaI, MisaM, MisaA, MisaC} {
		if misa&bit == 0 {
			t.Fatalf("defaultMisa() missing bit %#x for extensions %q", bit, c.Extensions)
		}
	}
	if misa&MisaD != 0 {
		t.Fatalf("defaultMisa() set MisaD for extensions %q that didn't request it", c.Extensions)
	}
}

func TestConfigDefaultMisaIgnoresUnknownLetters(t *testing.T) {
	c := Config{Extensions: "imqz"}
	misa := c.defaultMisa()
	if misa&MisaI == 0 || misa&MisaM == 0 {
		t.Fatalf("defaultMisa() dropped known letters alongside unknown ones: %#x", misa)
	}
}
