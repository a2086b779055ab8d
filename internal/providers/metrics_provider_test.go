package providers

import (
	"leadsync/internal/structures"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNoopMetrics_WhenDisabled(t *testing.T) {
	conf := &structures.Config{
		Metrics: structures.MetricsConfig{Enabled: false},
	}
	m := NewMetricsProvider(conf)
	_, ok := m.(*noopMetrics)
	assert.True(t, ok, "should return noopMetrics when disabled")

	// Ensure no-op methods don't panic
	m.IncRequestsTotal("/test", 200)
	m.ObserveRequestDuration("/test", time.Millisecond)
	m.IncCacheHits()
	m.IncCacheMisses()
	m.ObservePersistenceDuration(time.Millisecond)
	m.SetReportsTotal(10)
	m.IncProviderCalls("verify", "ok")
	m.IncLockConflicts()
	m.ObserveValidationRun("success", time.Second)
	m.IncRecordWrites("leads", "ok")
}

func TestMetricsProvider_WhenEnabled(t *testing.T) {
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg
	defer func() {
		prometheus.DefaultRegisterer = prometheus.NewRegistry()
		prometheus.DefaultGatherer = prometheus.DefaultRegisterer.(prometheus.Gatherer)
	}()

	conf := &structures.Config{
		Metrics: structures.MetricsConfig{Enabled: true},
	}
	m := NewMetricsProvider(conf)
	_, ok := m.(*MetricsProvider)
	assert.True(t, ok, "should return MetricsProvider when enabled")
}

func TestMetricsProvider_IncrementCounters(t *testing.T) {
	m := newMetricsProvider(prometheus.NewRegistry())

	m.IncRequestsTotal("/validate", 200)
	m.IncRequestsTotal("/validate", 409)
	m.ObserveRequestDuration("/validate", 5*time.Millisecond)
	m.IncCacheHits()
	m.IncCacheMisses()
	m.IncCacheMisses()
	m.ObservePersistenceDuration(100 * time.Millisecond)
	m.SetReportsTotal(42)
	m.IncProviderCalls("verify", "ok")
	m.IncProviderCalls("verify", "ok")
	m.IncLockConflicts()
	m.ObserveValidationRun("success", 2*time.Second)
	m.IncRecordWrites("leads", "failed")

	assert.Equal(t, float64(1), promtest.ToFloat64(m.requestsTotal.WithLabelValues("/validate", "4xx")))
	assert.Equal(t, float64(1), promtest.ToFloat64(m.cacheHits))
	assert.Equal(t, float64(2), promtest.ToFloat64(m.cacheMisses))
	assert.Equal(t, float64(42), promtest.ToFloat64(m.reportsTotal))
	assert.Equal(t, float64(2), promtest.ToFloat64(m.providerCalls.WithLabelValues("verify", "ok")))
	assert.Equal(t, float64(1), promtest.ToFloat64(m.lockConflicts))
	assert.Equal(t, float64(1), promtest.ToFloat64(m.recordWrites.WithLabelValues("leads", "failed")))
}

func TestHttpStatusBucket(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{100, "1xx"},
		{200, "2xx"},
		{201, "2xx"},
		{301, "3xx"},
		{400, "4xx"},
		{409, "4xx"},
		{500, "5xx"},
		{502, "5xx"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, httpStatusBucket(tt.code))
	}
}
