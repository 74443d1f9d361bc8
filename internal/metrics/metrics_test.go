package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)
	require.NotNil(t, m)

	assert.NotNil(t, m.SourceLoadsTotal)
	assert.NotNil(t, m.SourceLoadDuration)
	assert.NotNil(t, m.SourceRecords)
	assert.NotNil(t, m.SourceRowsSkippedTotal)
	assert.NotNil(t, m.SourceSyncTotal)
	assert.NotNil(t, m.QueryDurationSeconds)
	assert.NotNil(t, m.QueryResultsCount)
	assert.NotNil(t, m.FallbackModeTotal)
	assert.NotNil(t, m.HTTPRequestsTotal)
	assert.NotNil(t, m.HTTPErrorsTotal)
	assert.NotNil(t, m.RateLimiterDropped)
	assert.NotNil(t, m.RateLimiterClients)
	assert.NotNil(t, m.WarmupTasksTotal)
	assert.NotNil(t, m.WarmupDuration)
}

func TestRecordSourceMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordSourceLoad("catalog", "success", 0.2)
	m.RecordSourceLoad("catalog", "success", 0.1)
	m.SetSourceRecords("catalog", 1200)
	m.RecordRowsSkipped("catalog", 3)
	m.RecordRowsSkipped("catalog", 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SourceLoadsTotal.WithLabelValues("catalog", "success")))
	assert.Equal(t, 1200.0, testutil.ToFloat64(m.SourceRecords.WithLabelValues("catalog")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SourceRowsSkippedTotal.WithLabelValues("catalog")))
}

func TestRecordHTTPRequest_StatusClass(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordHTTPRequest("/api/v1/gems", 200)
	m.RecordHTTPRequest("/api/v1/gems", 400)
	m.RecordHTTPRequest("/api/v1/gems", 429)
	m.RecordHTTPRequest("/api/v1/gems", 503)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/api/v1/gems", "2xx")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/api/v1/gems", "4xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/api/v1/gems", "5xx")))
}

func TestRecordQueryAndFallback(t *testing.T) {
	m := New(prometheus.NewRegistry())

	// Should not panic
	m.RecordQuery("find_gems", 0.003, 12)
	m.RecordFallbackMode()
	m.RecordFallbackMode()
	m.RecordRateLimiterDrop("client")
	m.SetRateLimiterClients(4)
	m.RecordWarmupTask("sources", "success")
	m.RecordWarmupDuration(1.5)
	m.RecordSourceSync("catalog.csv", "unchanged")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FallbackModeTotal))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.RateLimiterClients))
}
