package controller

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/dshills/bridgelet/internal/bridge"
	"github.com/dshills/bridgelet/internal/ipc"
	"github.com/dshills/bridgelet/internal/logging"
	"github.com/dshills/bridgelet/internal/plugin"
)

// Options configures a Controller. Channel is required; everything else
// has a usable default.
type Options struct {
	Channel ipc.Channel
	Log     *logging.Logger

	// DefaultStoragePath is used when the load descriptor does not carry
	// a storage path override.
	DefaultStoragePath string

	// Exit terminates the process on fatal load or start failures.
	// Defaults to os.Exit.
	Exit func(code int)

	// SetProcessTitle renames the process after a successful load.
	SetProcessTitle func(title string)

	// ConfigureLogging applies parent-supplied runtime options to the
	// process logger.
	ConfigureLogging func(debug, disableTimestamps, forceColor bool)
}

// Controller owns the child's lifecycle: it reacts to parent envelopes,
// loads exactly one extension, publishes its bridge, and tears everything
// down exactly once.
type Controller struct {
	channel ipc.Channel
	log     *logging.Logger
	opts    Options

	state     atomic.Int32
	readyOnce sync.Once
	downOnce  sync.Once

	mu   sync.Mutex
	desc *LoadDescriptor
	host *plugin.Host
	br   *bridge.Bridge
}

// New creates a controller in the Uninitialized state.
func New(opts Options) *Controller {
	if opts.Log == nil {
		opts.Log = logging.Null
	}
	if opts.Exit == nil {
		opts.Exit = os.Exit
	}
	if opts.SetProcessTitle == nil {
		opts.SetProcessTitle = func(string) {}
	}
	if opts.ConfigureLogging == nil {
		opts.ConfigureLogging = func(bool, bool, bool) {}
	}
	return &Controller{
		channel: opts.Channel,
		log:     opts.Log,
		opts:    opts,
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Ready announces the child to the parent. Safe to call more than once;
// only the first call sends.
func (c *Controller) Ready() {
	c.readyOnce.Do(func() {
		c.channel.Send(ipc.KindReady, nil)
	})
}

// HandleEnvelope dispatches one parent envelope. Envelopes that do not
// match the current state are dropped without a reply. Fatal load and
// start failures terminate the process.
func (c *Controller) HandleEnvelope(env ipc.Envelope) {
	switch env.ID {
	case ipc.KindLoad:
		if c.State() != StateUninitialized {
			c.log.Debug("ignoring LOAD in state %s", c.State())
			return
		}
		if err := c.Load(env.Data); err != nil {
			c.log.Error("extension load failed: %v", err)
			c.opts.Exit(1)
		}
	case ipc.KindStart:
		if c.State() != StateLoaded {
			c.log.Debug("ignoring START in state %s", c.State())
			return
		}
		if err := c.Start(); err != nil {
			c.log.Error("bridge start failed: %v", err)
			c.opts.Exit(1)
		}
	default:
		// Kinds the child only ever sends, or that carry no action.
	}
}

// Load applies the descriptor's runtime options, constructs the bridge
// runtime, and loads the extension. Valid only in Uninitialized. An
// unresolvable path or failing init hook is returned as an error the
// caller must treat as fatal.
func (c *Controller) Load(data json.RawMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.State() != StateUninitialized {
		return ErrBadState
	}

	desc, err := ParseLoadDescriptor(data)
	if err != nil {
		return err
	}

	// Runtime options first: the extension observes the configured
	// logger and storage path from its very first statement.
	c.opts.ConfigureLogging(desc.Options.Debug, desc.Options.DisableTimestamps, desc.Options.ForceColor)
	storagePath := desc.Options.StoragePath
	if storagePath == "" {
		storagePath = c.opts.DefaultStoragePath
	}

	br := bridge.New(bridge.Config{
		Name:        desc.Display(),
		ID:          desc.Bridge.ID,
		Port:        desc.Bridge.Port,
		Pin:         desc.Bridge.Pin,
		StoragePath: storagePath,
	}, c.log)

	manifest, err := plugin.Resolve(desc.Path)
	if err != nil {
		return fmt.Errorf("resolve extension %q: %w", desc.Path, err)
	}

	host, err := plugin.NewHost(manifest, c.log.WithPrefix(desc.Display()))
	if err != nil {
		return err
	}
	host.SetAccessorySink(c.sinkFor(br))

	if err := host.Load(); err != nil {
		host.Close()
		return fmt.Errorf("load extension %q: %w", desc.Identifier, err)
	}

	c.opts.SetProcessTitle("bridgelet: " + desc.Identifier)

	c.desc = desc
	c.host = host
	c.br = br
	// A concurrent shutdown wins the transition.
	if c.state.CompareAndSwap(int32(StateUninitialized), int32(StateLoaded)) {
		c.channel.Send(ipc.KindLoaded, nil)
	}
	return nil
}

// Start restores cached accessories, runs the extension's constructor
// branch, publishes the bridge, and signals setup finished. Valid only
// in Loaded. Constructor and publish failures are returned as errors the
// caller must treat as fatal; per-accessory configuration problems are
// logged and skipped.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.State() != StateLoaded {
		return ErrBadState
	}

	cached, err := c.br.LoadCachedAccessories()
	if err != nil {
		c.log.Warn("cached accessories unavailable: %v", err)
	}

	switch c.desc.Kind {
	case KindPlatform:
		if err := c.startPlatform(cached); err != nil {
			return err
		}
	case KindAccessory:
		if err := c.startAccessory(); err != nil {
			return err
		}
	}

	for _, a := range cached {
		c.br.RestoreCached(a)
	}

	if err := c.br.Publish(); err != nil {
		return fmt.Errorf("publish bridge: %w", err)
	}
	c.host.SignalSetupFinished()

	// A concurrent shutdown wins the transition.
	if c.state.CompareAndSwap(int32(StateLoaded), int32(StateRunning)) {
		c.log.Info("bridge %q running on %s", c.desc.Display(), c.br.Addr())
	}
	return nil
}

func (c *Controller) startPlatform(cached []bridge.Accessory) error {
	config, err := c.desc.ConfigMap()
	if err != nil {
		return err
	}

	scoped := c.log.WithPrefix(c.desc.Display())
	variant, err := c.host.ConstructPlatform(c.desc.Identifier, scoped, config)
	if err != nil {
		return fmt.Errorf("construct platform %q: %w", c.desc.Identifier, err)
	}

	switch variant.Kind() {
	case plugin.VariantDynamic:
		c.host.RegisterDynamicPlatform(variant)
		for _, a := range cached {
			c.host.ConfigureCachedAccessory(a)
		}
	case plugin.VariantStatic:
		records, err := variant.Accessories()
		if err != nil {
			c.log.Warn("static accessory retrieval failed: %v", err)
			return nil
		}
		for _, rec := range records {
			c.bridgeRecord(rec)
		}
	case plugin.VariantIndependent:
		// Constructor side effects are the whole contract.
	}
	return nil
}

func (c *Controller) startAccessory() error {
	if c.desc.DisplayName == "" {
		c.log.Warn("accessory %q has no display name, not bridging it", c.desc.Identifier)
		return nil
	}

	config, err := c.desc.ConfigMap()
	if err != nil {
		return err
	}

	scoped := c.log.WithPrefix(c.desc.DisplayName)
	inst, err := c.host.ConstructAccessory(c.desc.Identifier, scoped, config)
	if err != nil {
		return fmt.Errorf("construct accessory %q: %w", c.desc.Identifier, err)
	}

	services, err := inst.Services()
	if err != nil {
		c.log.Warn("accessory %q services unavailable: %v", c.desc.DisplayName, err)
		c.br.CountSkipped()
		return nil
	}
	if len(services) == 0 {
		c.log.Warn("accessory %q exposes no services, skipping", c.desc.DisplayName)
		c.br.CountSkipped()
		return nil
	}

	seed := inst.UUIDSeed()
	if seed == "" {
		seed = c.desc.Identifier
	}
	if err := c.br.AddAccessory(bridge.NewAccessory(c.desc.DisplayName, seed, services)); err != nil {
		c.log.Warn("bridge accessory %q: %v", c.desc.DisplayName, err)
	}
	return nil
}

// bridgeRecord converts one extension-produced record into a bridged
// accessory. Configuration problems are logged and the record skipped.
func (c *Controller) bridgeRecord(rec plugin.AccessoryRecord) {
	name := rec.Name()
	if name == "" {
		c.log.Warn("accessory record without a display name, skipping")
		c.br.CountSkipped()
		return
	}
	services := rec.Services()
	if len(services) == 0 {
		c.log.Warn("accessory %q exposes no services, skipping", name)
		c.br.CountSkipped()
		return
	}
	seed := rec.UUIDSeed()
	if seed == "" {
		seed = name
	}
	if err := c.br.AddAccessory(bridge.NewAccessory(name, seed, services)); err != nil {
		c.log.Warn("bridge accessory %q: %v", name, err)
	}
}

// sinkFor builds the destination for accessories the extension adds at
// runtime through the api table.
func (c *Controller) sinkFor(br *bridge.Bridge) plugin.AccessorySink {
	return func(record map[string]any) error {
		rec := plugin.AccessoryRecord(record)
		name := rec.Name()
		if name == "" {
			return fmt.Errorf("accessory record without a display name")
		}
		services := rec.Services()
		if len(services) == 0 {
			br.CountSkipped()
			return fmt.Errorf("accessory %q exposes no services", name)
		}
		seed := rec.UUIDSeed()
		if seed == "" {
			seed = name
		}
		return br.AddAccessory(bridge.NewAccessory(name, seed, services))
	}
}

// Shutdown tears the runtime down exactly once: bridge teardown, then
// the extension state. Teardown errors are swallowed. Valid in every
// state; repeat calls and calls after Terminated are no-ops.
func (c *Controller) Shutdown() {
	if c.State() == StateTerminated {
		return
	}
	c.downOnce.Do(func() {
		c.state.Store(int32(StateShuttingDown))
		c.log.Info("shutting down")

		c.mu.Lock()
		br, host := c.br, c.host
		c.mu.Unlock()

		if br != nil {
			br.Teardown()
		}
		if host != nil {
			host.Close()
		}
		c.state.Store(int32(StateTerminated))
	})
}
