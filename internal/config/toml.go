// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Defaults applied when config.toml leaves a value unset.
const (
	DefaultPetWidth    = 24
	DefaultIdleTimeout = 15 * time.Second
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Assets AssetsConfig `toml:"assets"`
	Pet    PetConfig    `toml:"pet"`
}

// AssetsConfig maps asset directory overrides.
type AssetsConfig struct {
	BuiltinDir *string `toml:"builtin-dir"`
	ImportDir  *string `toml:"import-dir"`
}

// PetConfig maps pet appearance settings.
type PetConfig struct {
	Width          *int     `toml:"width"`
	DefaultOpacity *float64 `toml:"default-opacity"`
	IdleCharacter  *string  `toml:"idle-character"`
	IdleTimeout    *int     `toml:"idle-timeout"`
}

// Config is the resolved application configuration.
type Config struct {
	BuiltinDir     string
	ImportDir      string
	PetWidth       int
	DefaultOpacity float64
	IdleCharacter  string
	IdleTimeout    time.Duration
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Resolve fills unset values with defaults and validates the result.
func (fc FileConfig) Resolve() (Config, error) {
	cfg := Config{
		ImportDir:      DefaultImportDir(),
		PetWidth:       DefaultPetWidth,
		DefaultOpacity: 0.7,
		IdleTimeout:    DefaultIdleTimeout,
	}
	applyString(&cfg.BuiltinDir, fc.Assets.BuiltinDir)
	applyString(&cfg.ImportDir, fc.Assets.ImportDir)
	applyString(&cfg.IdleCharacter, fc.Pet.IdleCharacter)
	if fc.Pet.Width != nil {
		cfg.PetWidth = *fc.Pet.Width
	}
	if fc.Pet.DefaultOpacity != nil {
		cfg.DefaultOpacity = *fc.Pet.DefaultOpacity
	}
	if fc.Pet.IdleTimeout != nil {
		cfg.IdleTimeout = time.Duration(*fc.Pet.IdleTimeout) * time.Second
	}

	if cfg.PetWidth < 4 {
		return Config{}, fmt.Errorf("pet.width must be >= 4")
	}
	if cfg.DefaultOpacity < 0.3 || cfg.DefaultOpacity > 1 {
		return Config{}, fmt.Errorf("pet.default-opacity must be between 0.3 and 1")
	}
	if cfg.IdleTimeout <= 0 {
		return Config{}, fmt.Errorf("pet.idle-timeout must be > 0")
	}
	if cfg.ImportDir == "" {
		return Config{}, fmt.Errorf("assets.import-dir must not be empty")
	}
	return cfg, nil
}

func applyString(target, value *string) {
	if value == nil {
		return
	}
	*target = *value
}

// WriteTemplate creates a commented config.toml at path unless one exists.
// It reports whether a file was written.
func WriteTemplate(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(DefaultConfigTemplate()), 0o644); err != nil {
		return false, fmt.Errorf("failed to write config: %w", err)
	}
	return true, nil
}

// DefaultConfigTemplate returns a commented config.toml.
func DefaultConfigTemplate() string {
	return fmt.Sprintf(`# anima configuration
# Uncomment a value to enable it.

[assets]
# builtin-dir = ""        # Directory with builtin GIFs (default: bundled set)
# import-dir = %q

[pet]
# width = %d              # Pet width in cells
# default-opacity = 0.7   # Opacity used before settings.json exists (0.3-1)
# idle-character = ""     # Character id shown after idle-timeout without interaction
# idle-timeout = %d       # Seconds
`,
		DefaultImportDir(),
		DefaultPetWidth,
		int(DefaultIdleTimeout/time.Second),
	)
}
