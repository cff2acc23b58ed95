package controller

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/sjson"
)

// reservedConfigKey is the sub-object the parent embeds in a plugin's
// config to describe the child bridge itself. It is stripped before the
// config is handed to the extension.
const reservedConfigKey = "_bridge"

// Extension kinds a descriptor may name.
const (
	KindPlatform  = "platform"
	KindAccessory = "accessory"
)

// BridgeOptions describes the bridge the child publishes.
type BridgeOptions struct {
	Name string `json:"name"`
	ID   string `json:"id"`
	Port int    `json:"port"`
	Pin  string `json:"pin"`
}

// RuntimeOptions carries parent-supplied process options applied during
// load, before the extension runtime is constructed.
type RuntimeOptions struct {
	Debug             bool   `json:"debug"`
	DisableTimestamps bool   `json:"no_timestamp_logging"`
	ForceColor        bool   `json:"force_color"`
	StoragePath       string `json:"storage_path"`
}

// LoadDescriptor is the payload of a LOAD envelope: everything the child
// needs to load one extension and publish one bridge.
type LoadDescriptor struct {
	Kind         string          `json:"kind"`
	Identifier   string          `json:"identifier"`
	DisplayName  string          `json:"display_name"`
	Path         string          `json:"path"`
	PluginConfig json.RawMessage `json:"plugin_config"`
	Bridge       BridgeOptions   `json:"bridge"`
	Options      RuntimeOptions  `json:"options"`
}

// ParseLoadDescriptor decodes a LOAD payload and strips the reserved
// bridge key from the plugin config.
func ParseLoadDescriptor(data json.RawMessage) (*LoadDescriptor, error) {
	var d LoadDescriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDescriptor, err)
	}

	switch d.Kind {
	case KindPlatform, KindAccessory:
	default:
		return nil, fmt.Errorf("%w: unknown extension kind %q", ErrBadDescriptor, d.Kind)
	}
	if d.Identifier == "" {
		return nil, fmt.Errorf("%w: missing identifier", ErrBadDescriptor)
	}
	if d.Path == "" {
		return nil, fmt.Errorf("%w: missing extension path", ErrBadDescriptor)
	}

	if len(d.PluginConfig) > 0 {
		stripped, err := sjson.DeleteBytes(d.PluginConfig, reservedConfigKey)
		if err != nil {
			return nil, fmt.Errorf("%w: plugin config: %v", ErrBadDescriptor, err)
		}
		d.PluginConfig = stripped
	}

	return &d, nil
}

// Display returns the descriptor's display name, falling back to the
// identifier.
func (d *LoadDescriptor) Display() string {
	if d.DisplayName != "" {
		return d.DisplayName
	}
	return d.Identifier
}

// ConfigMap decodes the stripped plugin config into a map suitable for
// handing to an extension constructor. A missing config yields nil.
func (d *LoadDescriptor) ConfigMap() (map[string]any, error) {
	if len(d.PluginConfig) == 0 {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal(d.PluginConfig, &m); err != nil {
		return nil, fmt.Errorf("decode plugin config: %w", err)
	}
	return m, nil
}
