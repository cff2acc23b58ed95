// Package config loads the bridgelet host configuration file.
//
// The file is optional: a missing file yields the defaults, so a child
// can run entirely from its LOAD descriptor. Parent-supplied runtime
// options always win over file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Host is the process-level configuration.
type Host struct {
	// StoragePath is where durable state (the accessory cache) lives.
	StoragePath string `yaml:"storage_path"`

	// LogLevel is the default log level before the parent's runtime
	// options are applied.
	LogLevel string `yaml:"log_level"`

	Channel Channel `yaml:"channel"`
}

// Channel configures how the child reaches its parent.
type Channel struct {
	// Socket is the unix socket path of the parent's message channel.
	Socket string `yaml:"socket"`

	// Hub is an optional websocket URL used instead of the socket.
	Hub string `yaml:"hub"`
}

// Default returns the configuration used when no file is present.
func Default() Host {
	return Host{
		StoragePath: defaultStoragePath(),
		LogLevel:    "info",
	}
}

// Load reads a YAML host configuration. A missing file is not an
// error; an empty path loads pure defaults.
func Load(path string) (Host, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}
	if cfg.StoragePath == "" {
		cfg.StoragePath = defaultStoragePath()
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	return cfg, nil
}

func defaultStoragePath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "bridgelet")
	}
	return ".bridgelet"
}
