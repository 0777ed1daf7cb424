// Package config loads optional TOML-backed defaults for the ncdump CLI.
// No ncdump command defines a flag for these settings, so the config file,
// or Default, is their only source.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds the subset of ncdump's behaviour that can be defaulted from
// a file instead of being passed on every invocation.
type Config struct {
	// Mmap selects the zero-copy memory-mapped reader over the plain
	// io.ReaderAt one.
	Mmap bool `toml:"mmap"`

	// MaskAndScale applies scale_factor/add_offset/missing_value transforms
	// to variable data printed by `ncdump data`.
	MaskAndScale bool `toml:"mask_and_scale"`

	// OutputVersion is "1" or "2" (classic or 64-bit-offset format). It is
	// parsed but not used by any command: `ncdump create` always lets
	// Header.Define choose the version.
	OutputVersion string `toml:"output_version"`
}

// Default returns the built-in defaults used when no config file is given.
func Default() Config {
	return Config{Mmap: true, MaskAndScale: true}
}

// Load reads and parses the TOML file at path, starting from Default() so
// a file only needs to mention the keys it wants to override.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}
