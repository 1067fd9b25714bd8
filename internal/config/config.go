// Package config loads the optional backupdata configuration file.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
)

// Config represents the optional backupdata configuration file.
type Config struct {
	Defaults DefaultsConfig `toml:"defaults"`
	Theme    ThemeConfig    `toml:"theme"`
}

// DefaultsConfig holds persistent flag defaults. Nil means unset.
type DefaultsConfig struct {
	Extensions   []string `toml:"extensions"`
	Exclude      []string `toml:"exclude"`
	ExcludeFiles []string `toml:"exclude_files"`
	Destination  *string  `toml:"destination"`
	TUI          *bool    `toml:"tui"`
	BWLimit      *string  `toml:"bwlimit"`
	Preserve     *bool    `toml:"preserve"`
}

// ThemeConfig holds optional color overrides.
type ThemeConfig struct {
	Accent *string `toml:"accent"`
	Green  *string `toml:"green"`
	Yellow *string `toml:"yellow"`
	Red    *string `toml:"red"`
	Muted  *string `toml:"muted"`
}

// Path returns the resolved path to the config file. XDG variables are
// re-read on every call.
func Path() string {
	xdg.Reload()
	if xdg.ConfigHome == "" {
		return ""
	}
	return filepath.Join(xdg.ConfigHome, "backupdata", "config.toml")
}

// Load reads the config file from the XDG path. Returns a zero Config
// (no error) if the file does not exist. Config is always optional.
func Load() (Config, error) {
	path := Path()
	if path == "" {
		return Config{}, nil
	}
	return LoadFile(path)
}

// LoadFile reads the config at path. A missing file yields a zero Config.
// Unknown keys are rejected so typos do not silently fall back to defaults.
func LoadFile(path string) (Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, errors.Wrapf(err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, errors.WithHint(
			errors.Newf("unknown config key %q in %s", undecoded[0].String(), path),
			"see 'backupdata defaults' for the supported keys",
		)
	}
	return cfg, nil
}
