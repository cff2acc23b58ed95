package plugin

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/bridgelet/internal/bridge"
	"github.com/dshills/bridgelet/internal/logging"
	plua "github.com/dshills/bridgelet/internal/plugin/lua"
)

// AccessorySink receives accessory records a dynamic platform adds through
// the runtime API. The controller wires this to the bridge.
type AccessorySink func(record map[string]any) error

// Host owns the Lua state for the single loaded extension and the
// constructors it registered.
type Host struct {
	mu sync.Mutex

	manifest *Manifest
	state    *plua.State
	log      *logging.Logger

	loaded bool

	platforms   map[string]lua.LValue
	accessories map[string]lua.LValue

	sink           AccessorySink
	dynamic        []*PlatformVariant
	setupCallbacks []lua.LValue
	setupFinished  bool
}

// NewHost creates a host for the given manifest.
func NewHost(manifest *Manifest, log *logging.Logger) (*Host, error) {
	if manifest == nil {
		return nil, fmt.Errorf("manifest is nil")
	}
	if log == nil {
		log = logging.Null
	}
	return &Host{
		manifest:    manifest,
		log:         log,
		platforms:   make(map[string]lua.LValue),
		accessories: make(map[string]lua.LValue),
	}, nil
}

// Manifest returns the extension manifest.
func (h *Host) Manifest() *Manifest {
	return h.manifest
}

// SetAccessorySink wires the destination for dynamically added accessories.
// Must be set before Load so registrations during the init hook land.
func (h *Host) SetAccessorySink(sink AccessorySink) {
	h.mu.Lock()
	h.sink = sink
	h.mu.Unlock()
}

// Load creates the Lua state, installs the bridgelet module, executes the
// entry file, and runs the extension's initialize hook if it defines one.
// Any failure here is fatal to the child process.
func (h *Host) Load() error {
	h.mu.Lock()
	if h.loaded {
		h.mu.Unlock()
		return ErrAlreadyLoaded
	}
	h.state = plua.NewState()
	h.installModule()
	state := h.state
	h.mu.Unlock()

	// Run the entry file outside the host lock: the bridgelet module
	// functions it calls take the lock themselves.
	if err := state.DoFile(h.manifest.MainPath()); err != nil {
		h.failLoad(state)
		return fmt.Errorf("execute extension entry: %w", err)
	}

	if initFn := state.GetGlobal("initialize"); initFn.Type() == lua.LTFunction {
		if _, err := state.CallValue(initFn); err != nil {
			h.failLoad(state)
			return fmt.Errorf("extension initialize hook: %w", err)
		}
	}

	h.mu.Lock()
	h.loaded = true
	h.mu.Unlock()
	return nil
}

func (h *Host) failLoad(state *plua.State) {
	state.Close()
	h.mu.Lock()
	h.state = nil
	h.mu.Unlock()
}

// HasPlatform reports whether a platform constructor is registered.
func (h *Host) HasPlatform(identifier string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.platforms[identifier]
	return ok
}

// HasAccessory reports whether an accessory constructor is registered.
func (h *Host) HasAccessory(identifier string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.accessories[identifier]
	return ok
}

// ConstructPlatform invokes the registered platform constructor with
// (logger, config, api) and resolves the returned instance's capability
// variant exactly once.
func (h *Host) ConstructPlatform(identifier string, log *logging.Logger, config map[string]any) (*PlatformVariant, error) {
	h.mu.Lock()
	ctor, ok := h.platforms[identifier]
	state := h.state
	loaded := h.loaded
	h.mu.Unlock()

	if !loaded {
		return nil, ErrNotLoaded
	}
	if !ok {
		return nil, fmt.Errorf("%w: platform %q", ErrConstructorNotFound, identifier)
	}

	L := state.LuaState()
	args := []lua.LValue{
		h.loggerTable(L, log),
		plua.ToLua(L, config),
		h.apiTable(L),
	}

	results, err := state.CallValue(ctor, args...)
	if err != nil {
		return nil, fmt.Errorf("platform constructor %q: %w", identifier, err)
	}

	return resolveVariant(h, results)
}

// ConstructAccessory invokes the registered accessory constructor with
// (logger, config, api) and returns the instance.
func (h *Host) ConstructAccessory(identifier string, log *logging.Logger, config map[string]any) (*AccessoryInstance, error) {
	h.mu.Lock()
	ctor, ok := h.accessories[identifier]
	state := h.state
	loaded := h.loaded
	h.mu.Unlock()

	if !loaded {
		return nil, ErrNotLoaded
	}
	if !ok {
		return nil, fmt.Errorf("%w: accessory %q", ErrConstructorNotFound, identifier)
	}

	L := state.LuaState()
	args := []lua.LValue{
		h.loggerTable(L, log),
		plua.ToLua(L, config),
		h.apiTable(L),
	}

	results, err := state.CallValue(ctor, args...)
	if err != nil {
		return nil, fmt.Errorf("accessory constructor %q: %w", identifier, err)
	}
	if len(results) == 0 {
		return nil, ErrBadConstructorResult
	}
	table, ok := results[0].(*lua.LTable)
	if !ok {
		return nil, ErrBadConstructorResult
	}

	return &AccessoryInstance{host: h, table: table}, nil
}

// RegisterDynamicPlatform tracks a dynamic platform handle so cached
// accessories can be handed back to it.
func (h *Host) RegisterDynamicPlatform(v *PlatformVariant) {
	h.mu.Lock()
	h.dynamic = append(h.dynamic, v)
	h.mu.Unlock()
}

// ConfigureCachedAccessory offers a cached accessory to every registered
// dynamic platform handle. Returns true when at least one accepted it
// without error.
func (h *Host) ConfigureCachedAccessory(a bridge.Accessory) bool {
	h.mu.Lock()
	handles := append([]*PlatformVariant(nil), h.dynamic...)
	h.mu.Unlock()

	accepted := false
	for _, v := range handles {
		if err := v.ConfigureAccessory(accessoryToRecord(a)); err != nil {
			h.log.Warn("configure_accessory for %q failed: %v", a.Name, err)
			continue
		}
		accepted = true
	}
	return accepted
}

// SignalSetupFinished tells the extension that initial bridge setup is
// complete, invoking every callback registered via on_setup_finished.
// Callback errors are logged, not propagated.
func (h *Host) SignalSetupFinished() {
	h.mu.Lock()
	if h.setupFinished {
		h.mu.Unlock()
		return
	}
	h.setupFinished = true
	callbacks := append([]lua.LValue(nil), h.setupCallbacks...)
	state := h.state
	h.mu.Unlock()

	for _, cb := range callbacks {
		if _, err := state.CallValue(cb); err != nil {
			h.log.Warn("setup-finished callback failed: %v", err)
		}
	}
}

// Close releases the Lua state. Safe to call more than once.
func (h *Host) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != nil {
		h.state.Close()
	}
	h.loaded = false
}

// installModule registers the bridgelet module available to the entry file.
func (h *Host) installModule() {
	h.state.RegisterModule("bridgelet", map[string]lua.LGFunction{
		"register_platform": func(L *lua.LState) int {
			identifier := L.CheckString(1)
			fn := L.CheckFunction(2)
			h.mu.Lock()
			h.platforms[identifier] = fn
			h.mu.Unlock()
			h.log.Debug("registered platform constructor %q", identifier)
			return 0
		},
		"register_accessory": func(L *lua.LState) int {
			identifier := L.CheckString(1)
			fn := L.CheckFunction(2)
			h.mu.Lock()
			h.accessories[identifier] = fn
			h.mu.Unlock()
			h.log.Debug("registered accessory constructor %q", identifier)
			return 0
		},
		"log": func(L *lua.LState) int {
			level := L.CheckString(1)
			msg := L.CheckString(2)
			switch logging.ParseLevel(level) {
			case logging.LevelDebug:
				h.log.Debug("%s", msg)
			case logging.LevelWarn:
				h.log.Warn("%s", msg)
			case logging.LevelError:
				h.log.Error("%s", msg)
			default:
				h.log.Info("%s", msg)
			}
			return 0
		},
	})
}

// loggerTable builds a Lua table exposing a scoped logger to a constructor.
func (h *Host) loggerTable(L *lua.LState, log *logging.Logger) *lua.LTable {
	if log == nil {
		log = logging.Null
	}
	t := L.NewTable()
	t.RawSetString("debug", L.NewFunction(func(L *lua.LState) int {
		log.Debug("%s", L.CheckString(1))
		return 0
	}))
	t.RawSetString("info", L.NewFunction(func(L *lua.LState) int {
		log.Info("%s", L.CheckString(1))
		return 0
	}))
	t.RawSetString("warn", L.NewFunction(func(L *lua.LState) int {
		log.Warn("%s", L.CheckString(1))
		return 0
	}))
	t.RawSetString("error", L.NewFunction(func(L *lua.LState) int {
		log.Error("%s", L.CheckString(1))
		return 0
	}))
	return t
}

// apiTable builds the runtime API table handed to constructors.
func (h *Host) apiTable(L *lua.LState) *lua.LTable {
	t := L.NewTable()

	t.RawSetString("add_accessory", L.NewFunction(func(L *lua.LState) int {
		tbl := L.CheckTable(1)
		record, ok := plua.ToGo(tbl).(map[string]any)
		if !ok {
			L.ArgError(1, "accessory must be a table")
			return 0
		}

		h.mu.Lock()
		sink := h.sink
		h.mu.Unlock()

		if sink == nil {
			h.log.Warn("add_accessory called before the bridge is available")
			return 0
		}
		if err := sink(record); err != nil {
			h.log.Warn("add_accessory rejected: %v", err)
		}
		return 0
	}))

	t.RawSetString("on_setup_finished", L.NewFunction(func(L *lua.LState) int {
		fn := L.CheckFunction(1)
		h.mu.Lock()
		alreadyDone := h.setupFinished
		if !alreadyDone {
			h.setupCallbacks = append(h.setupCallbacks, fn)
		}
		h.mu.Unlock()

		// Registered after setup completed: fire immediately. We are already
		// on the Lua thread here, so call through L rather than the state.
		if alreadyDone {
			L.Push(fn)
			if err := L.PCall(0, 0, nil); err != nil {
				h.log.Warn("setup-finished callback failed: %v", err)
			}
		}
		return 0
	}))

	t.RawSetString("generate_uuid", L.NewFunction(func(L *lua.LState) int {
		seed := L.CheckString(1)
		L.Push(lua.LString(bridge.GenerateUUID(seed).String()))
		return 1
	}))

	return t
}

// accessoryToRecord converts a bridged accessory into the table shape the
// extension API uses.
func accessoryToRecord(a bridge.Accessory) map[string]any {
	services := make([]any, 0, len(a.Services))
	for _, s := range a.Services {
		svc := map[string]any{"type": s.Type}
		if s.Name != "" {
			svc["name"] = s.Name
		}
		if len(s.Characteristics) > 0 {
			svc["characteristics"] = s.Characteristics
		}
		services = append(services, svc)
	}
	return map[string]any{
		"uuid":     a.UUID.String(),
		"name":     a.Name,
		"services": services,
	}
}
