package plugin

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Manifest describes an extension's metadata and entry point.
// It lives in plugin.json or plugin.toml next to the entry file; extensions
// without a manifest get a minimal one synthesized from their path.
type Manifest struct {
	Name        string `json:"name" toml:"name"`
	Version     string `json:"version" toml:"version"`
	DisplayName string `json:"displayName" toml:"display_name"`
	Description string `json:"description" toml:"description"`

	// Main is the relative path to the entry Lua file. Defaults to init.lua.
	Main string `json:"main" toml:"main"`

	// path is the extension directory, set at load time.
	path string
}

// NewManifestMinimal synthesizes a manifest for an extension without one.
func NewManifestMinimal(name, dir string) *Manifest {
	return &Manifest{
		Name: name,
		Main: "init.lua",
		path: dir,
	}
}

// LoadManifest reads a manifest file, dispatching on its extension.
func LoadManifest(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("parse manifest %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("parse manifest %s: %w", path, err)
		}
	}

	m.path = filepath.Dir(path)
	if m.Main == "" {
		m.Main = "init.lua"
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the manifest for required fields.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("manifest missing name")
	}
	if strings.Contains(m.Main, "..") {
		return fmt.Errorf("manifest main %q escapes the extension directory", m.Main)
	}
	return nil
}

// Path returns the extension directory.
func (m *Manifest) Path() string {
	return m.path
}

// MainPath returns the absolute path to the entry file.
func (m *Manifest) MainPath() string {
	if filepath.IsAbs(m.Main) {
		return m.Main
	}
	return filepath.Join(m.path, m.Main)
}

// Display returns the human-facing name, falling back to the identifier.
func (m *Manifest) Display() string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	return m.Name
}
