// Package metrics provides Prometheus metrics for the rrtrack service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the rrtrack service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Normalization Metrics
	matchesNormalized   prometheus.Counter
	matchesSkipped      prometheus.Counter
	normalizeLatency    prometheus.Histogram
	normalizeBatchSizes prometheus.Histogram

	// Upstream Metrics - game service calls by step and outcome
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	upstreamRetries  *prometheus.CounterVec
	breakerState     prometheus.Gauge

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	rateLimited         *prometheus.CounterVec
	trackedClients      prometheus.Gauge

	// Failure Metrics
	failuresByKind *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "rrtrack",
		subsystem:        "matches",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// RefreshInterval returns how often gauge metrics should be refreshed.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

// Enabled reports whether recording is active.
func (m *Manager) Enabled() bool { return m.enabled }

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.matchesNormalized = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("normalized_total"),
		Help:        "Total number of match records produced",
		ConstLabels: labels,
	})

	m.matchesSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("skipped_total"),
		Help:        "Total number of raw matches skipped for unresolved movement",
		ConstLabels: labels,
	})

	m.normalizeLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("normalize_latency_milliseconds"),
		Help:        "Time spent normalizing one match history",
		Buckets:     []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50},
		ConstLabels: labels,
	})

	m.normalizeBatchSizes = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("history_size"),
		Help:        "Number of raw matches per fetched history",
		Buckets:     []float64{0, 1, 5, 10, 15, 20, 30, 50},
		ConstLabels: labels,
	})

	m.upstreamRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("upstream_requests_total"),
			Help:        "Game service calls by step and outcome",
			ConstLabels: labels,
		},
		[]string{"step", "outcome"},
	)

	m.upstreamLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("upstream_latency_milliseconds"),
			Help:        "Game service call latency by step and outcome",
			Buckets:     []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
			ConstLabels: labels,
		},
		[]string{"step", "outcome"},
	)

	m.upstreamRetries = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("upstream_retries_total"),
			Help:        "Retried game service calls by step",
			ConstLabels: labels,
		},
		[]string{"step"},
	)

	m.breakerState = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("upstream_breaker_state"),
		Help:        "Circuit breaker state: 0 closed, 1 half-open, 2 open",
		ConstLabels: labels,
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_requests_total"),
			Help:        "Total number of HTTP requests by endpoint and method",
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_request_duration_milliseconds"),
			Help:        "HTTP request duration in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.rateLimited = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("rate_limited_total"),
			Help:        "Requests rejected by the client rate limiter",
			ConstLabels: labels,
		},
		[]string{"endpoint"},
	)

	m.trackedClients = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("rate_limiter_clients"),
		Help:        "Client addresses currently tracked by the rate limiter",
		ConstLabels: labels,
	})

	m.failuresByKind = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("failures_total"),
			Help:        "Failed match history requests by failure kind",
			ConstLabels: labels,
		},
		[]string{"kind"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_memory_usage_bytes"),
		Help:        "System memory usage in bytes",
		ConstLabels: labels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_goroutine_count"),
		Help:        "Number of goroutines",
		ConstLabels: labels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_gc_pause_time_milliseconds"),
		Help:        "GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: labels,
	})
}

// Normalization Metrics Functions.

// RecordMatchesNormalized adds n produced records.
func RecordMatchesNormalized(n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.matchesNormalized.Add(float64(n))
}

// RecordMatchesSkipped adds n skipped raw matches.
func RecordMatchesSkipped(n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.matchesSkipped.Add(float64(n))
}

// RecordNormalizeLatency records the time spent normalizing one history.
func RecordNormalizeLatency(latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.normalizeLatency.Observe(latencyMs)
}

// RecordHistorySize records the number of raw matches in a fetched history.
func RecordHistorySize(n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.normalizeBatchSizes.Observe(float64(n))
}

// Upstream Metrics Functions.

// RecordUpstreamCall records one game service call.
func RecordUpstreamCall(step, outcome string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.upstreamRequests.WithLabelValues(step, outcome).Inc()
	globalManager.upstreamLatency.WithLabelValues(step, outcome).Observe(latencyMs)
}

// RecordUpstreamRetry increments the retry counter for step.
func RecordUpstreamRetry(step string) {
	if !globalManager.enabled {
		return
	}
	globalManager.upstreamRetries.WithLabelValues(step).Inc()
}

// UpdateBreakerState sets the circuit breaker state gauge.
func UpdateBreakerState(state int) {
	globalManager.breakerState.Set(float64(state))
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordRateLimited increments the rate-limited counter for endpoint.
func RecordRateLimited(endpoint string) {
	if !globalManager.enabled {
		return
	}
	globalManager.rateLimited.WithLabelValues(endpoint).Inc()
}

// UpdateTrackedClients sets the number of client addresses held by the limiter.
func UpdateTrackedClients(n int) {
	globalManager.trackedClients.Set(float64(n))
}

// Failure Metrics Functions.

// RecordFailure increments the failure counter for kind.
func RecordFailure(kind string) {
	if !globalManager.enabled {
		return
	}
	globalManager.failuresByKind.WithLabelValues(kind).Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// Configure replaces the global manager with one built from opts on a fresh
// custom registry. It must run before handlers capture GetRegistry.
func Configure(opts ...Option) *Manager {
	registry := prometheus.NewRegistry()
	customRegistry = registry
	globalManager = NewManager(append(opts, WithPrometheusRegistry(registry))...)
	return globalManager
}

// RefreshInterval returns how often the global manager wants system gauges
// refreshed.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}

// SetEnabled toggles recording on the global manager.
func SetEnabled(enabled bool) {
	globalManager.enabled = enabled
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
