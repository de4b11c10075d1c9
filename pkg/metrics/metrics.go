// Package metrics exports binding runtime activity to Prometheus.
//
// A Monitor is a reactive.Monitor: pass it in vbind.Config.Monitors and it
// records every change-set drain and lifecycle phase drain of the App.
//
//	reg := prometheus.NewRegistry()
//	app := vbind.New(vbind.Config{
//	    Monitors: []reactive.Monitor{metrics.New(metrics.WithRegistry(reg))},
//	})
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
//
// Metrics collected:
//   - vbind_flushes_total: Counter of change-set drains by status
//   - vbind_trackers_flushed_total: Counter of trackers flushed
//   - vbind_flush_duration_seconds: Histogram of change-set drain duration
//   - vbind_flush_batch_size: Histogram of trackers per drain
//   - vbind_phase_drains_total: Counter of lifecycle phase drains by phase
//   - vbind_phase_items_total: Counter of lifecycle callbacks by phase
//   - vbind_phase_duration_seconds: Histogram of phase drain duration by phase
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/vbind/pkg/reactive"
)

// Config configures the Prometheus monitor.
type Config struct {
	// Namespace is the metrics namespace (default: "vbind").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for drain duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the Prometheus monitor.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the duration histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "vbind",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Monitor records drains as Prometheus metrics.
type Monitor struct {
	flushesTotal    *prometheus.CounterVec
	trackersFlushed prometheus.Counter
	flushDuration   prometheus.Histogram
	flushBatchSize  prometheus.Histogram
	phaseDrains     *prometheus.CounterVec
	phaseItems      *prometheus.CounterVec
	phaseDuration   *prometheus.HistogramVec
}

var _ reactive.Monitor = (*Monitor)(nil)

// New registers the collectors and returns the monitor. Registering twice
// with the same registry panics, as promauto does.
func New(opts ...Option) *Monitor {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Monitor{
		flushesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flushes_total",
			Help:        "Total number of change-set drains",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		trackersFlushed: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "trackers_flushed_total",
			Help:        "Total number of change trackers flushed",
			ConstLabels: config.ConstLabels,
		}),

		flushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_duration_seconds",
			Help:        "Change-set drain duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		flushBatchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_batch_size",
			Help:        "Change trackers flushed per drain",
			ConstLabels: config.ConstLabels,
			Buckets:     prometheus.ExponentialBuckets(1, 2, 10), // 1 to 512
		}),

		phaseDrains: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "phase_drains_total",
			Help:        "Total number of lifecycle phase drains",
			ConstLabels: config.ConstLabels,
		}, []string{"phase"}),

		phaseItems: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "phase_items_total",
			Help:        "Total number of lifecycle callbacks invoked",
			ConstLabels: config.ConstLabels,
		}, []string{"phase"}),

		phaseDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "phase_duration_seconds",
			Help:        "Lifecycle phase drain duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"phase"}),
	}
}

// ChangeSetFlushed implements reactive.Monitor.
func (m *Monitor) ChangeSetFlushed(start time.Time, trackers int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.flushesTotal.WithLabelValues(status).Inc()
	m.trackersFlushed.Add(float64(trackers))
	m.flushDuration.Observe(time.Since(start).Seconds())
	m.flushBatchSize.Observe(float64(trackers))
}

// PhaseDrained implements reactive.Monitor.
func (m *Monitor) PhaseDrained(phase reactive.Phase, start time.Time, items int) {
	name := phase.String()
	m.phaseDrains.WithLabelValues(name).Inc()
	m.phaseItems.WithLabelValues(name).Add(float64(items))
	m.phaseDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}
