package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vigil-dev/vigil"
)

// MetricsConfig configures the Prometheus hooks.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "vigil").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for revalidation duration.
	// Default: prometheus.DefBuckets.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus hooks.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "vigil",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// metrics holds the Prometheus collectors for one hooks value.
type metrics struct {
	revalidations  prometheus.Counter
	duration       prometheus.Histogram
	recordsDiffed  *prometheus.CounterVec
	activeWatchers *prometheus.GaugeVec
}

func newMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		revalidations: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "revalidations_total",
			Help:        "Total number of revalidation passes",
			ConstLabels: config.ConstLabels,
		}),

		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "revalidation_duration_seconds",
			Help:        "Revalidation pass duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		recordsDiffed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "records_diffed_total",
			Help:        "Total records reported, by diff category",
			ConstLabels: config.ConstLabels,
		}, []string{"category"}),

		activeWatchers: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_watchers",
			Help:        "Currently registered watchers, by kind",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),
	}
}

// Prometheus builds hooks that export coordinator activity as
// Prometheus metrics.
//
// Metrics collected:
//   - vigil_revalidations_total: counter of revalidation passes
//   - vigil_revalidation_duration_seconds: histogram of pass duration
//   - vigil_records_diffed_total: counter by category (added, updated, removed)
//   - vigil_active_watchers: gauge by kind (records, types)
func Prometheus(opts ...MetricsOption) vigil.Hooks {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	m := newMetrics(config)

	return vigil.Hooks{
		RevalidateEnd: func(elapsed time.Duration, d vigil.Delta) {
			m.revalidations.Inc()
			m.duration.Observe(elapsed.Seconds())
			if d.Added > 0 {
				m.recordsDiffed.WithLabelValues("added").Add(float64(d.Added))
			}
			if d.Updated > 0 {
				m.recordsDiffed.WithLabelValues("updated").Add(float64(d.Updated))
			}
			if d.Removed > 0 {
				m.recordsDiffed.WithLabelValues("removed").Add(float64(d.Removed))
			}
		},
		WatcherRegistered: func(kind vigil.WatcherKind) {
			m.activeWatchers.WithLabelValues(string(kind)).Inc()
		},
		WatcherReleased: func(kind vigil.WatcherKind) {
			m.activeWatchers.WithLabelValues(string(kind)).Dec()
		},
	}
}
