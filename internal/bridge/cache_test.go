package bridge

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCacheLoadMissingFile(t *testing.T) {
	c := NewCache(t.TempDir(), "example", nil)

	got, err := c.Load()
	if err != nil {
		t.Fatalf("Load() on missing file error = %v", err)
	}
	if got != nil {
		t.Errorf("Load() = %v, want nil", got)
	}
}

func TestCacheSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c := NewCache(dir, "example", nil)

	in := []Accessory{
		NewAccessory("Lamp", "", []Service{{Type: "lightbulb", Characteristics: map[string]any{"on": true}}}),
		NewAccessory("Sensor", "", []Service{{Type: "temperature"}}),
	}
	if err := c.Save(in); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	out, err := c.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("Load() returned %d accessories, want 2", len(out))
	}
	if out[0].UUID != in[0].UUID || out[1].UUID != in[1].UUID {
		t.Error("UUIDs did not survive the round trip")
	}
	if out[0].Name != "Lamp" {
		t.Errorf("Name = %q, want Lamp", out[0].Name)
	}
}

func TestCacheLoadCorruptFile(t *testing.T) {
	dir := t.TempDir()
	c := NewCache(dir, "example", nil)

	if err := os.WriteFile(c.Path(), []byte("{{{{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := c.Load()
	if err != nil {
		t.Fatalf("Load() on corrupt file error = %v, want nil (discard and continue)", err)
	}
	if got != nil {
		t.Errorf("Load() = %v, want nil", got)
	}
}

func TestCacheSaveCreatesStoragePath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "storage")
	c := NewCache(dir, "example", nil)

	if err := c.Save(nil); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(c.Path()); err != nil {
		t.Errorf("cache file not created: %v", err)
	}
}
