package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/heptiolabs/healthcheck"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dshills/bridgelet/internal/logging"
)

// Config configures a bridge runtime. It is threaded in explicitly at
// construction; applying the storage path before New is the caller's job
// since the cache file location depends on it.
type Config struct {
	// Name is the bridge's display name.
	Name string

	// ID uniquely identifies this bridge, typically the extension
	// identifier. It keys the accessory cache file.
	ID string

	// Port is the TCP port the published bridge binds. Zero picks an
	// ephemeral port.
	Port int

	// Pin is the pairing code shown in the accessory snapshot.
	Pin string

	// StoragePath is the directory holding the accessory cache.
	StoragePath string
}

// Bridge aggregates accessories for one extension and exposes them once
// published. The zero value is not usable; use New.
type Bridge struct {
	cfg Config
	log *logging.Logger

	accessories cmap.ConcurrentMap[string, Accessory]
	cache       *Cache
	metrics     *metrics
	health      healthcheck.Handler

	published    atomic.Bool
	tornDown     atomic.Bool
	teardownOnce sync.Once

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

// New creates an unpublished bridge.
func New(cfg Config, log *logging.Logger) *Bridge {
	if log == nil {
		log = logging.Null
	}
	b := &Bridge{
		cfg:         cfg,
		log:         log,
		accessories: cmap.New[Accessory](),
		cache:       NewCache(cfg.StoragePath, cfg.ID, log),
		metrics:     newMetrics(),
		health:      healthcheck.NewHandler(),
	}
	b.health.AddReadinessCheck("published", func() error {
		if !b.published.Load() {
			return fmt.Errorf("bridge not yet published")
		}
		return nil
	})
	return b
}

// AddLivenessCheck registers a liveness check on the published health
// endpoint. Must be called before Publish to take effect from the start.
func (b *Bridge) AddLivenessCheck(name string, check healthcheck.Check) {
	b.health.AddLivenessCheck(name, check)
}

// AddAccessory adds an accessory record to the bridge.
// Accessories with an empty service set are rejected; duplicates by UUID
// are rejected so a cached accessory re-associated by a platform is not
// bridged twice.
func (b *Bridge) AddAccessory(a Accessory) error {
	if b.tornDown.Load() {
		return ErrTornDown
	}
	if len(a.Services) == 0 {
		return ErrNoServices
	}
	if !b.accessories.SetIfAbsent(a.UUID.String(), a) {
		return ErrDuplicateAccessory
	}
	b.metrics.accessories.Inc()
	b.log.Debug("bridged accessory %q (%s)", a.Name, a.UUID)
	return nil
}

// Has reports whether an accessory with the given UUID is bridged.
func (b *Bridge) Has(uuidStr string) bool {
	return b.accessories.Has(uuidStr)
}

// Accessories returns a stable-ordered snapshot of the bridged accessories.
func (b *Bridge) Accessories() []Accessory {
	out := make([]Accessory, 0, b.accessories.Count())
	for _, a := range b.accessories.Items() {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LoadCachedAccessories reads the persisted accessory set from durable
// storage. The records are not bridged yet; the caller decides which are
// re-associated with live instances and which are restored as-is.
func (b *Bridge) LoadCachedAccessories() ([]Accessory, error) {
	cached, err := b.cache.Load()
	if err != nil {
		return nil, err
	}
	if len(cached) > 0 {
		b.log.Info("loaded %d cached accessories", len(cached))
	}
	return cached, nil
}

// RestoreCached bridges a cached accessory, counting it in the restore
// metric. Duplicates are skipped silently: the accessory was already
// re-associated by the platform.
func (b *Bridge) RestoreCached(a Accessory) {
	if err := b.AddAccessory(a); err != nil {
		b.log.Debug("cached accessory %q not restored: %v", a.Name, err)
		return
	}
	b.metrics.restored.Inc()
}

// CountSkipped records an accessory skipped for a recoverable reason.
func (b *Bridge) CountSkipped() {
	b.metrics.skipped.Inc()
}

// Publish makes the bridge reachable: it binds the configured port and
// serves the accessory snapshot, health endpoints, and metrics. The
// current accessory set is flushed to the durable cache.
func (b *Bridge) Publish() error {
	if b.tornDown.Load() {
		return ErrTornDown
	}
	if b.published.Swap(true) {
		return ErrAlreadyPublished
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", b.cfg.Port))
	if err != nil {
		b.published.Store(false)
		return fmt.Errorf("bind bridge port: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/live", b.health.LiveEndpoint)
	mux.HandleFunc("/ready", b.health.ReadyEndpoint)
	mux.Handle("/metrics", promhttp.HandlerFor(b.metrics.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/accessories", b.handleAccessories)

	srv := &http.Server{Handler: mux}

	b.mu.Lock()
	b.listener = ln
	b.server = srv
	b.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			b.log.Warn("bridge server stopped: %v", err)
		}
	}()

	if err := b.cache.Save(b.Accessories()); err != nil {
		b.log.Warn("failed to flush accessory cache: %v", err)
	}

	b.log.Info("bridge %q published on %s with %d accessories",
		b.cfg.Name, ln.Addr(), b.accessories.Count())
	return nil
}

// Published reports whether the bridge has been published.
func (b *Bridge) Published() bool {
	return b.published.Load()
}

// Addr returns the listen address of the published bridge, or empty when
// unpublished.
func (b *Bridge) Addr() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listener == nil {
		return ""
	}
	return b.listener.Addr().String()
}

// Teardown closes the published listener and flushes persisted state.
// It runs exactly once; repeated calls are no-ops. Errors are logged and
// discarded, never returned — teardown races a forced exit deadline and
// must not crash the process.
func (b *Bridge) Teardown() {
	b.teardownOnce.Do(func() {
		b.tornDown.Store(true)

		b.mu.Lock()
		srv := b.server
		b.server = nil
		b.listener = nil
		b.mu.Unlock()

		if srv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				b.log.Debug("bridge server shutdown: %v", err)
			}
		}

		if err := b.cache.Save(b.Accessories()); err != nil {
			b.log.Debug("cache flush during teardown: %v", err)
		}

		b.published.Store(false)
		b.log.Info("bridge %q torn down", b.cfg.Name)
	})
}

// handleAccessories serves the JSON accessory snapshot.
func (b *Bridge) handleAccessories(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	snapshot := struct {
		Bridge      string      `json:"bridge"`
		Pin         string      `json:"pin,omitempty"`
		Accessories []Accessory `json:"accessories"`
	}{
		Bridge:      b.cfg.Name,
		Pin:         b.cfg.Pin,
		Accessories: b.Accessories(),
	}
	if err := json.NewEncoder(w).Encode(snapshot); err != nil {
		b.log.Debug("encode accessory snapshot: %v", err)
	}
}
