package providers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"leadsync/internal/structures"
	"time"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	ObservePersistenceDuration(duration time.Duration)
	SetReportsTotal(count int)
	IncProviderCalls(operation, outcome string)
	IncLockConflicts()
	ObserveValidationRun(outcome string, duration time.Duration)
	IncRecordWrites(table, outcome string)
}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	persistenceDuration prometheus.Histogram
	reportsTotal        prometheus.Gauge
	providerCalls       *prometheus.CounterVec
	lockConflicts       prometheus.Counter
	validationRuns      *prometheus.HistogramVec
	recordWrites        *prometheus.CounterVec
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

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) SetReportsTotal(count int) {
	m.reportsTotal.Set(float64(count))
}

func (m *MetricsProvider) IncProviderCalls(operation, outcome string) {
	m.providerCalls.WithLabelValues(operation, outcome).Inc()
}

func (m *MetricsProvider) IncLockConflicts() {
	m.lockConflicts.Inc()
}

func (m *MetricsProvider) ObserveValidationRun(outcome string, duration time.Duration) {
	m.validationRuns.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncRecordWrites(table, outcome string) {
	m.recordWrites.WithLabelValues(table, outcome).Inc()
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
	return newMetricsProvider(prometheus.DefaultRegisterer)
}

func newMetricsProvider(reg prometheus.Registerer) *MetricsProvider {
	factory := promauto.With(reg)
	return &MetricsProvider{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadsync_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "leadsync_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "leadsync_verification_cache_hits_total",
			Help: "Total number of verification cache hits",
		}),

		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "leadsync_verification_cache_misses_total",
			Help: "Total number of verification cache misses",
		}),

		persistenceDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "leadsync_persistence_duration_seconds",
			Help:    "Duration of report journal persistence in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		reportsTotal: factory.NewGauge(prometheus.GaugeOpts{
			Name: "leadsync_reports_total",
			Help: "Number of validation reports held in the journal",
		}),

		providerCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadsync_provider_calls_total",
			Help: "Calls to the email verification provider",
		}, []string{"operation", "outcome"}),

		lockConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "leadsync_lock_conflicts_total",
			Help: "Validation runs rejected because the project lock was held",
		}),

		validationRuns: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "leadsync_validation_run_duration_seconds",
			Help:    "Duration of validation runs in seconds",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"outcome"}),

		recordWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadsync_record_writes_total",
			Help: "Row writes against the remote table API",
		}, []string{"table", "outcome"}),
	}
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
func (n *noopMetrics) SetReportsTotal(_ int)                            {}
func (n *noopMetrics) IncProviderCalls(_, _ string)                     {}
func (n *noopMetrics) IncLockConflicts()                                {}
func (n *noopMetrics) ObserveValidationRun(_ string, _ time.Duration)   {}
func (n *noopMetrics) IncRecordWrites(_, _ string)                      {}
