package observe

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/stateart/pkg/stateart"
)

// MetricsConfig configures the Prometheus observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "stateart").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for dispatch duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus observer.
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
		Namespace: "stateart",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics records dispatch metrics. It implements stateart.Observer.
type Metrics struct {
	dispatchesTotal  *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	dispatchErrors   *prometheus.CounterVec
	rerendersTotal   *prometheus.CounterVec
	subscribers      *prometheus.GaugeVec
}

var _ stateart.Observer = (*Metrics)(nil)

// NewMetrics registers the stateart metrics and returns the observer.
// Registering twice on the same registry panics.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		dispatchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dispatches_total",
			Help:        "Total number of store dispatches",
			ConstLabels: config.ConstLabels,
		}, []string{"store", "kind", "status"}),

		dispatchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dispatch_duration_seconds",
			Help:        "Dispatch duration in seconds, including subscriber notification",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"store"}),

		dispatchErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dispatch_errors_total",
			Help:        "Total number of failed dispatches",
			ConstLabels: config.ConstLabels,
		}, []string{"store", "code"}),

		rerendersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "rerenders_total",
			Help:        "Total number of re-render signals sent to consumers",
			ConstLabels: config.ConstLabels,
		}, []string{"store"}),

		subscribers: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "subscribers",
			Help:        "Subscribers notified by the last successful dispatch",
			ConstLabels: config.ConstLabels,
		}, []string{"store"}),
	}
}

// BeginDispatch implements stateart.Observer.
func (m *Metrics) BeginDispatch(stateart.DispatchEvent) func(stateart.DispatchEvent) {
	return func(ev stateart.DispatchEvent) {
		m.dispatchDuration.WithLabelValues(ev.Store).Observe(ev.Duration.Seconds())

		status := "success"
		if ev.Err != nil {
			status = "error"
			m.dispatchErrors.WithLabelValues(ev.Store, errorCode(ev.Err)).Inc()
		} else {
			m.subscribers.WithLabelValues(ev.Store).Set(float64(ev.Subscribers))
		}
		m.dispatchesTotal.WithLabelValues(ev.Store, Kind(ev.Action), status).Inc()
	}
}

// Rerender implements stateart.Observer.
func (m *Metrics) Rerender(store string) {
	m.rerendersTotal.WithLabelValues(store).Inc()
}
