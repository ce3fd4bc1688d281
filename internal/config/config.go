// Package config loads the bridge daemon configuration from a TOML file
// layered over built-in defaults.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds the bridge daemon configuration.
type Config struct {
	// ListenAddr is the address the HTTP/WebSocket server binds to.
	ListenAddr string `toml:"listen_addr"`

	// BridgeURL is the advertised location of this context, returned by
	// the getUrl handler. Derived from ListenAddr when empty.
	BridgeURL string `toml:"bridge_url"`

	// OptionsPath is the extension options file to watch for changes.
	// Empty disables the watcher.
	OptionsPath string `toml:"options_path"`

	Log LogConfig `toml:"log"`
}

// LogConfig controls the log sink.
type LogConfig struct {
	// File is the log file path. Empty logs to stderr.
	File string `toml:"file"`

	// Level is one of "debug", "info", "warn", "error".
	Level string `toml:"level"`

	// MaxSizeMB is the rotation threshold.
	MaxSizeMB int `toml:"max_size_mb"`

	// MaxBackups is the number of rotated files to retain.
	MaxBackups int `toml:"max_backups"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ListenAddr: "127.0.0.1:19899",
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// Load reads path over the defaults. A missing file is not an error; the
// defaults apply unchanged.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg.normalize(), nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg.normalize(), nil
}

// normalize fills derived fields.
func (c Config) normalize() Config {
	if c.BridgeURL == "" {
		c.BridgeURL = "ws://" + c.ListenAddr + "/ws"
	}
	return c
}
