package plugin

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadManifestJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "plugin.json", `{
		"name": "example",
		"version": "1.0.0",
		"displayName": "Example Extension",
		"main": "entry.lua"
	}`)

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}
	if m.Name != "example" {
		t.Errorf("Name = %q, want example", m.Name)
	}
	if m.Display() != "Example Extension" {
		t.Errorf("Display() = %q", m.Display())
	}
	if m.MainPath() != filepath.Join(dir, "entry.lua") {
		t.Errorf("MainPath() = %q", m.MainPath())
	}
}

func TestLoadManifestTOML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "plugin.toml", `
name = "example-toml"
version = "2.0.0"
display_name = "TOML Extension"
`)

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}
	if m.Name != "example-toml" {
		t.Errorf("Name = %q, want example-toml", m.Name)
	}
	if m.Display() != "TOML Extension" {
		t.Errorf("Display() = %q", m.Display())
	}
	if m.Main != "init.lua" {
		t.Errorf("Main = %q, want default init.lua", m.Main)
	}
}

func TestLoadManifestMissingName(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "plugin.json", `{"version": "1.0.0"}`)

	if _, err := LoadManifest(path); err == nil {
		t.Error("LoadManifest() should reject a manifest without name")
	}
}

func TestManifestValidateEscapingMain(t *testing.T) {
	m := &Manifest{Name: "x", Main: "../../etc/passwd"}
	if err := m.Validate(); err == nil {
		t.Error("Validate() should reject main escaping the extension directory")
	}
}

func TestManifestDisplayFallback(t *testing.T) {
	m := &Manifest{Name: "fallback"}
	if m.Display() != "fallback" {
		t.Errorf("Display() = %q, want identifier fallback", m.Display())
	}
}
