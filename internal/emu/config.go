package emu

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/go-faster/errors"

	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/log"
)

type Config struct {
	Video VideoConfig `toml:"video"`
	Input InputConfig `toml:"input"`
	Debug DebugConfig `toml:"debug"`
}

type VideoConfig struct {
	Scale int `toml:"scale"`
	// Palette is either a preset name (see PaletteNames), "auto" to pick one
	// from the cartridge title, or 4 comma separated #RRGGBB shades from
	// lightest to darkest.
	Palette string `toml:"palette"`
}

// InputConfig maps each DMG button to a keyboard key name.
type InputConfig struct {
	Right  string `toml:"right"`
	Left   string `toml:"left"`
	Up     string `toml:"up"`
	Down   string `toml:"down"`
	A      string `toml:"a"`
	B      string `toml:"b"`
	Select string `toml:"select"`
	Start  string `toml:"start"`
}

type DebugConfig struct {
	LogModules string `toml:"log_modules"`
	// Trace is a file path, "stdout" or "stderr". Empty disables tracing.
	Trace string `toml:"trace"`
}

func DefaultConfig() Config {
	return Config{
		Video: VideoConfig{Scale: 3, Palette: "auto"},
		Input: InputConfig{
			Right:  "ArrowRight",
			Left:   "ArrowLeft",
			Up:     "ArrowUp",
			Down:   "ArrowDown",
			A:      "Z",
			B:      "X",
			Select: "Backspace",
			Start:  "Enter",
		},
	}
}

// Check replaces invalid video settings with their default.
func (vcfg *VideoConfig) Check() {
	if vcfg.Scale < 1 || vcfg.Scale > 10 {
		log.ModEmu.Warnf("Invalid scale %d, fallback to 3", vcfg.Scale)
		vcfg.Scale = 3
	}
	if vcfg.Palette == "" {
		vcfg.Palette = "auto"
	}
	if vcfg.Palette != "auto" {
		if _, err := ParsePalette(vcfg.Palette); err != nil {
			log.ModEmu.Warnf("Invalid palette %q (%v), fallback to auto", vcfg.Palette, err)
			vcfg.Palette = "auto"
		}
	}
}

// ConfigDir returns the gbdmg directory under the user configuration
// directory, creating it if needed.
var ConfigDir = sync.OnceValue(func() string {
	base, err := os.UserConfigDir()
	if err != nil {
		log.ModEmu.Warnf("no user config directory: %v", err)
		base = "."
	}
	dir := filepath.Join(base, "gbdmg")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.ModEmu.Warnf("failed to create directory %s: %v", dir, err)
	}
	return dir
})

const cfgFilename = "config.toml"

// DefaultConfigPath is where LoadConfig and SaveConfig look when given an
// empty path.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), cfgFilename)
}

// LoadConfig reads the configuration at path, or at DefaultConfigPath if
// path is empty. A missing file yields the default configuration. Keys
// absent from the file keep their default value.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	}
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return DefaultConfig(), nil
	case err != nil:
		return DefaultConfig(), errors.Wrapf(err, "decode %s", path)
	}
	for _, key := range md.Undecoded() {
		log.ModEmu.Warnf("%s: unknown configuration key %q", path, key.String())
	}
	cfg.Video.Check()
	return cfg, nil
}

// SaveConfig writes cfg to path, or to DefaultConfigPath if path is empty.
func SaveConfig(path string, cfg Config) error {
	if path == "" {
		path = DefaultConfigPath()
	}
	buf, err := toml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	return os.WriteFile(path, buf, 0o644)
}
