package bridge

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the bridge's Prometheus collectors. Each bridge owns a
// private registry so tests can create bridges freely without collector
// name collisions.
type metrics struct {
	registry *prometheus.Registry

	accessories prometheus.Gauge
	restored    prometheus.Counter
	skipped     prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		accessories: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bridgelet_bridged_accessories",
			Help: "Number of accessories currently bridged.",
		}),
		restored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bridgelet_cache_restored_total",
			Help: "Accessories restored from the persisted cache.",
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bridgelet_accessories_skipped_total",
			Help: "Accessories skipped due to recoverable configuration errors.",
		}),
	}
	m.registry.MustRegister(m.accessories, m.restored, m.skipped)
	return m
}
