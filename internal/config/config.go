// config.go - TOML-backed machine configuration.
//
// Config is decoded once at startup from a config.toml and then
// selectively overridden by cobra flags in cmd/cpcore before being
// handed to machine.NewMachine. There is no live-reload: changing RAM
// size or CRTC type mid-run has no defined behaviour, so the frontend
// always rebuilds the machine from scratch on a config change.

package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// RAMSize enumerates the three CPC RAM fitments this core supports.
type RAMSize int

const (
	RAMSize64K  RAMSize = 64
	RAMSize128K RAMSize = 128
	RAMSize576K RAMSize = 576
)

// Config is the full decoded contents of config.toml.
type Config struct {
	Machine  MachineConfig  `toml:"machine"`
	Discs    DiscConfig     `toml:"discs"`
	Audio    AudioConfig    `toml:"audio"`
	Debugger DebuggerConfig `toml:"debugger"`
}

type MachineConfig struct {
	LowerROM   string    `toml:"lower_rom"`
	UpperROMs  []ROMSlot `toml:"upper_roms"`
	CRTCType   int       `toml:"crtc_type"` // 0-3, required: never inferred
	RAMSizeKB  int       `toml:"ram_size_kb"`
	RAMExtMode string    `toml:"ram_ext_mode"` // "standard" (default) or "yarek"
	Is6128Plus bool      `toml:"is_6128_plus"`
}

// ROMSlot binds an upper ROM image to the slot index it's paged into.
type ROMSlot struct {
	Index int    `toml:"index"`
	Path  string `toml:"path"`
}

type DiscConfig struct {
	DriveA string `toml:"drive_a"`
	DriveB string `toml:"drive_b"`
}

type AudioConfig struct {
	SampleRate int  `toml:"sample_rate"`
	Enabled    bool `toml:"enabled"`
}

type DebuggerConfig struct {
	BreakpointFile string `toml:"breakpoint_file"`
	AutotypeScript string `toml:"autotype_script"`
	StartHalted    bool   `toml:"start_halted"`
}

// Default returns the configuration a bare `cpcore run` with no
// config.toml and no flags would use: a diskless 128K 6128 with
// CRTC type 1 (the commonest Amstrad-badged CRTC) and audio on.
func Default() Config {
	return Config{
		Machine: MachineConfig{
			CRTCType:  1,
			RAMSizeKB: int(RAMSize128K),
		},
		Audio: AudioConfig{
			SampleRate: 44100,
			Enabled:    true,
		},
	}
}

// Load decodes path into a Config seeded with Default()'s values, so
// a config.toml only needs to mention the fields it overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config: %s: unknown keys %v", path, undecoded)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces the invariants the emulator core assumes hold by
// the time a Config reaches machine.NewMachine.
func (c Config) Validate() error {
	if c.Machine.CRTCType < 0 || c.Machine.CRTCType > 3 {
		return fmt.Errorf("config: crtc_type %d out of range 0-3", c.Machine.CRTCType)
	}
	switch RAMSize(c.Machine.RAMSizeKB) {
	case RAMSize64K, RAMSize128K, RAMSize576K:
	default:
		return fmt.Errorf("config: ram_size_kb %d must be 64, 128, or 576", c.Machine.RAMSizeKB)
	}
	switch c.Machine.RAMExtMode {
	case "", "standard", "yarek":
	default:
		return fmt.Errorf("config: ram_ext_mode %q must be standard or yarek", c.Machine.RAMExtMode)
	}
	for _, slot := range c.Machine.UpperROMs {
		if slot.Index < 0 || slot.Index > 255 {
			return fmt.Errorf("config: upper rom index %d out of range 0-255", slot.Index)
		}
	}
	return nil
}
