package plugin

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Resolve locates an extension at the given path and returns its manifest.
//
// The path may name a directory containing plugin.json, plugin.toml,
// init.lua, or plugin.lua, or it may name a single .lua file directly.
// Resolution failures are fatal to the load sequence: the caller exits the
// process rather than retrying.
func Resolve(path string) (*Manifest, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	if !stat.IsDir() {
		if filepath.Ext(path) != ".lua" {
			return nil, fmt.Errorf("%w: %s is not a lua file", ErrNotFound, path)
		}
		name := strings.TrimSuffix(filepath.Base(path), ".lua")
		m := NewManifestMinimal(name, filepath.Dir(path))
		m.Main = filepath.Base(path)
		return m, nil
	}

	// Manifest formats, preferred order.
	for _, candidate := range []string{"plugin.json", "plugin.toml"} {
		manifestPath := filepath.Join(path, candidate)
		if _, err := os.Stat(manifestPath); err == nil {
			return LoadManifest(manifestPath)
		}
	}

	// No manifest: look for a conventional entry point.
	name := filepath.Base(path)
	for _, entry := range []string{"init.lua", "plugin.lua"} {
		if _, err := os.Stat(filepath.Join(path, entry)); err == nil {
			m := NewManifestMinimal(name, path)
			m.Main = entry
			return m, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrNoEntryPoint, path)
}
