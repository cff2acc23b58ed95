package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.StoragePath == "" {
		t.Error("default storage path is empty")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.StoragePath == "" {
		t.Error("default storage path is empty")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridgelet.yaml")
	content := `
storage_path: /var/lib/bridgelet
log_level: debug
channel:
  socket: /run/bridgelet.sock
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.StoragePath != "/var/lib/bridgelet" {
		t.Errorf("StoragePath = %q", cfg.StoragePath)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.Channel.Socket != "/run/bridgelet.sock" {
		t.Errorf("Channel.Socket = %q", cfg.Channel.Socket)
	}
}

func TestLoadPartialFileFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridgelet.yaml")
	if err := os.WriteFile(path, []byte("channel:\n  hub: ws://parent:8080/bridge\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.StoragePath == "" || cfg.LogLevel != "info" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.Channel.Hub != "ws://parent:8080/bridge" {
		t.Errorf("Channel.Hub = %q", cfg.Channel.Hub)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridgelet.yaml")
	if err := os.WriteFile(path, []byte(":\tnot yaml {{{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() should fail on malformed YAML")
	}
}
