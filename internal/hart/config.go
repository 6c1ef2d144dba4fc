package hart

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the boot-time configuration for a Hart (§3 "Configuration
// inputs", §6 "boot config"), loaded the way _teacher_ref/bundle.go loads
// its Metadata/BootConfig: a plain struct with yaml tags, defaulted by a
// normalize() pass rather than scattering `if x == 0` checks through the
// constructor.
type Config struct {
	ResetAddr uint64 `yaml:"reset_addr"`
	NMIAddr   uint64 `yaml:"nmi_addr"`

	// Extensions lists the misa letters this hart implements, e.g.
	// "imafdcshu". Unknown letters are ignored rather than rejected so a
	// config written for a newer core still loads.
	Extensions string `yaml:"extensions"`

	// PrivSpec gates a handful of WARL/behavioral differences between
	// privileged-spec revisions (§12 "priv_spec-gated rules"), compared
	// with golang.org/x/mod/semver.
	PrivSpec string `yaml:"priv_spec"`

	TriggerCount  int               `yaml:"trigger_count"`
	DebugPriority DebugPriorityMode `yaml:"debug_priority"`

	CLIC bool `yaml:"clic"`
	AIA  bool `yaml:"aia"`

	GEILEN int `yaml:"geilen"`

	// Remap is the boot-time CSR address remap string consumed by
	// applyRemap (§6 "CSR remap syntax").
	Remap string `yaml:"csr_remap"`

	// NativeExtensions lists shared-object paths loaded through the
	// Extension registry's native ABI (§6).
	NativeExtensions []string `yaml:"native_extensions"`

	HaltOnReset bool `yaml:"halt_on_reset"`
}

const defaultPrivSpec = "v1.13.0"

// normalize fills in defaults and rejects configurations that can never
// produce a legal hart (§6 "a malformed config is a fatal_config error,
// never a panic").
func (c *Config) normalize() error {
	if c.TriggerCount <= 0 {
		c.TriggerCount = 4
	}
	if c.TriggerCount > 32 {
		return fmt.Errorf("trigger_count %d exceeds the 32-trigger ceiling", c.TriggerCount)
	}
	if c.Extensions == "" {
		c.Extensions = "imafdcsu"
	}
	if c.PrivSpec == "" {
		c.PrivSpec = defaultPrivSpec
	}
	if !strings.HasPrefix(c.PrivSpec, "v") {
		c.PrivSpec = "v" + c.PrivSpec
	}
	if c.GEILEN < 0 || c.GEILEN > 63 {
		return fmt.Errorf("geilen %d out of range [0,63]", c.GEILEN)
	}
	return nil
}

var misaLetterBits = map[byte]uint64{
	'i': MisaI, 'm': MisaM, 'a': MisaA, 'f': MisaF, 'd': MisaD,
	'c': MisaC, 's': MisaS, 'u': MisaU, 'h': MisaH,
}

// defaultMisa builds the reset value of misa from Extensions plus a fixed
// MXL=64 (§3 "this core models rv64 only; MXL narrowing to rv32 is an
// external-collaborator concern").
func (c Config) defaultMisa() uint64 {
	var ext uint64
	for i := 0; i < len(c.Extensions); i++ {
		if bit, ok := misaLetterBits[lower(c.Extensions[i])]; ok {
			ext |= bit
		}
	}
	return (XLRV64 << 62) | ext
}

// LoadConfigFile reads a hart boot config from a YAML file, the same
// loading shape _teacher_ref/bundle.go uses for its Metadata document.
func LoadConfigFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("hart: read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("hart: parse config %s: %w", path, err)
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, fmt.Errorf("hart: invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func lower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}
