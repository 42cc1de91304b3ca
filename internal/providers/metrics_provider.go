package providers

import (
	"annolist/internal/structures"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	ObserveBackendDuration(backend string, duration time.Duration)
	IncBackendErrors(backend, class string)
	IncStaleResponses()
	AddMalformedRows(backend string, count int)
	SetPanelsTotal(count int)
	ObservePersistenceDuration(duration time.Duration)
}

// Error classes reported by IncBackendErrors.
const (
	ErrorClassTransport = "transport"
	ErrorClassShape     = "shape"
)

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	backendDuration     *prometheus.HistogramVec
	backendErrors       *prometheus.CounterVec
	staleResponses      prometheus.Counter
	malformedRows       *prometheus.CounterVec
	panelsTotal         prometheus.Gauge
	persistenceDuration prometheus.Histogram
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) ObserveBackendDuration(backend string, duration time.Duration) {
	m.backendDuration.WithLabelValues(backend).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncBackendErrors(backend, class string) {
	m.backendErrors.WithLabelValues(backend, class).Inc()
}

func (m *MetricsProvider) IncStaleResponses() {
	m.staleResponses.Inc()
}

func (m *MetricsProvider) AddMalformedRows(backend string, count int) {
	m.malformedRows.WithLabelValues(backend).Add(float64(count))
}

func (m *MetricsProvider) SetPanelsTotal(count int) {
	m.panelsTotal.Set(float64(count))
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	return &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "annolist_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "annolist_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "annolist_cache_hits_total",
			Help: "Dashboard lookups served from cache",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "annolist_cache_misses_total",
			Help: "Dashboard lookups that went to the search API",
		}),

		backendDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "annolist_backend_query_duration_seconds",
			Help:    "Annotation backend query duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"backend"}),

		backendErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "annolist_backend_errors_total",
			Help: "Failed annotation queries by backend and error class",
		}, []string{"backend", "class"}),

		staleResponses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "annolist_stale_responses_total",
			Help: "Refresh results discarded because a newer refresh was already applied",
		}),

		malformedRows: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "annolist_malformed_rows_total",
			Help: "Backend rows skipped by the normalizer",
		}, []string{"backend"}),

		panelsTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "annolist_panels_total",
			Help: "Number of panels with state",
		}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "annolist_persistence_duration_seconds",
			Help:    "Duration of panel snapshot writes in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// noopMetrics is used when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) ObserveBackendDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncBackendErrors(_, _ string)                     {}
func (n *noopMetrics) IncStaleResponses()                               {}
func (n *noopMetrics) AddMalformedRows(_ string, _ int)                 {}
func (n *noopMetrics) SetPanelsTotal(_ int)                             {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
