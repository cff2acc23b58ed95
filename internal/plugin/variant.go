package plugin

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/bridgelet/internal/bridge"
	plua "github.com/dshills/bridgelet/internal/plugin/lua"
)

// VariantKind is the capability a constructed platform instance exposes.
// It is resolved exactly once, at construction time, from the shape of the
// returned table; it is never re-probed afterwards.
type VariantKind int

const (
	// VariantIndependent exposes no capability: the constructor's side
	// effects are the whole contract.
	VariantIndependent VariantKind = iota

	// VariantDynamic exposes configure_accessory for callback-driven
	// accessory addition.
	VariantDynamic

	// VariantStatic exposes accessories for bulk retrieval at start.
	VariantStatic
)

// String returns a human-readable variant name.
func (k VariantKind) String() string {
	switch k {
	case VariantIndependent:
		return "independent"
	case VariantDynamic:
		return "dynamic"
	case VariantStatic:
		return "static"
	default:
		return "unknown"
	}
}

// PlatformVariant is a constructed platform instance with its capability
// resolved.
type PlatformVariant struct {
	kind     VariantKind
	host     *Host
	instance *lua.LTable

	configureFn   lua.LValue
	accessoriesFn lua.LValue
}

// resolveVariant inspects a constructor's results and builds the variant.
// A constructor returning nothing (or nil) yields an independent variant
// with no instance.
func resolveVariant(h *Host, results []lua.LValue) (*PlatformVariant, error) {
	v := &PlatformVariant{kind: VariantIndependent, host: h}

	if len(results) == 0 || results[0] == lua.LNil {
		return v, nil
	}

	table, ok := results[0].(*lua.LTable)
	if !ok {
		return nil, ErrBadConstructorResult
	}
	v.instance = table

	if fn := table.RawGetString("configure_accessory"); fn.Type() == lua.LTFunction {
		v.kind = VariantDynamic
		v.configureFn = fn
		return v, nil
	}
	if fn := table.RawGetString("accessories"); fn.Type() == lua.LTFunction {
		v.kind = VariantStatic
		v.accessoriesFn = fn
		return v, nil
	}
	return v, nil
}

// Kind returns the resolved capability.
func (v *PlatformVariant) Kind() VariantKind {
	return v.kind
}

// ConfigureAccessory hands a cached accessory record to a dynamic platform.
func (v *PlatformVariant) ConfigureAccessory(record map[string]any) error {
	if v.kind != VariantDynamic {
		return fmt.Errorf("platform variant is %s, not dynamic", v.kind)
	}

	L := v.host.state.LuaState()
	_, err := v.host.state.CallValue(v.configureFn, v.instance, plua.ToLua(L, record))
	return err
}

// Accessories invokes a static platform's bulk retrieval and converts the
// result into bridgeable records. An empty collection is not an error.
func (v *PlatformVariant) Accessories() ([]AccessoryRecord, error) {
	if v.kind != VariantStatic {
		return nil, fmt.Errorf("platform variant is %s, not static", v.kind)
	}

	results, err := v.host.state.CallValue(v.accessoriesFn, v.instance)
	if err != nil {
		return nil, fmt.Errorf("static accessory retrieval: %w", err)
	}
	if len(results) == 0 || results[0] == lua.LNil {
		return nil, nil
	}

	raw, ok := plua.ToGo(results[0]).([]any)
	if !ok {
		// An empty table converts to an empty map; a non-empty map is a
		// single record returned without the surrounding list.
		if one, ok := plua.ToGo(results[0]).(map[string]any); ok {
			if len(one) == 0 {
				return nil, nil
			}
			return []AccessoryRecord{one}, nil
		}
		return nil, fmt.Errorf("accessories must return a list")
	}

	records := make([]AccessoryRecord, 0, len(raw))
	for _, entry := range raw {
		rec, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// AccessoryRecord is a raw accessory description produced by an extension:
// a name plus a list of service tables.
type AccessoryRecord map[string]any

// Name returns the record's display name, if any.
func (r AccessoryRecord) Name() string {
	name, _ := r["name"].(string)
	return name
}

// UUIDSeed returns the record's optional UUID-seed override.
func (r AccessoryRecord) UUIDSeed() string {
	seed, _ := r["uuid_seed"].(string)
	return seed
}

// Services converts the record's service list into bridge services.
func (r AccessoryRecord) Services() []bridge.Service {
	raw, _ := r["services"].([]any)
	services := make([]bridge.Service, 0, len(raw))
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		svc := bridge.Service{}
		svc.Type, _ = m["type"].(string)
		svc.Name, _ = m["name"].(string)
		if chars, ok := m["characteristics"].(map[string]any); ok {
			svc.Characteristics = chars
		}
		if svc.Type == "" {
			continue
		}
		services = append(services, svc)
	}
	return services
}

// AccessoryInstance is a constructed accessory extension instance.
type AccessoryInstance struct {
	host  *Host
	table *lua.LTable
}

// Services extracts the instance's service set. The instance may expose a
// get_services function or a plain services field; an empty result is
// returned as an empty slice, the caller decides whether to skip.
func (a *AccessoryInstance) Services() ([]bridge.Service, error) {
	if fn := a.table.RawGetString("get_services"); fn.Type() == lua.LTFunction {
		results, err := a.host.state.CallValue(fn, a.table)
		if err != nil {
			return nil, fmt.Errorf("get_services: %w", err)
		}
		if len(results) == 0 || results[0] == lua.LNil {
			return nil, nil
		}
		return AccessoryRecord{"services": plua.ToGo(results[0])}.Services(), nil
	}

	rec, ok := plua.ToGo(a.table).(map[string]any)
	if !ok {
		return nil, nil
	}
	return AccessoryRecord(rec).Services(), nil
}

// UUIDSeed returns the instance's optional UUID-seed override field.
func (a *AccessoryInstance) UUIDSeed() string {
	if seed := a.table.RawGetString("uuid_seed"); seed.Type() == lua.LTString {
		return seed.String()
	}
	return ""
}
