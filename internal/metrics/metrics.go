// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Source load metrics
	SourceLoadsTotal       *prometheus.CounterVec
	SourceLoadDuration     *prometheus.HistogramVec
	SourceRecords          *prometheus.GaugeVec
	SourceRowsSkippedTotal *prometheus.CounterVec

	// Source sync metrics (R2)
	SourceSyncTotal *prometheus.CounterVec

	// Query metrics
	QueryDurationSeconds *prometheus.HistogramVec
	QueryResultsCount    *prometheus.HistogramVec
	FallbackModeTotal    prometheus.Counter

	// HTTP metrics
	HTTPRequestsTotal *prometheus.CounterVec
	HTTPErrorsTotal   *prometheus.CounterVec

	// Rate limiter metrics
	RateLimiterDropped *prometheus.CounterVec
	RateLimiterClients prometheus.Gauge

	// Warmup metrics
	WarmupTasksTotal *prometheus.CounterVec
	WarmupDuration   prometheus.Histogram
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		SourceLoadsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "gems_source_loads_total",
				Help: "Total number of source loads by source and status",
			},
			[]string{"source", "status"}, // source: evaluation, catalog, assessment; status: success, error, missing
		),

		SourceLoadDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gems_source_load_duration_seconds",
				Help:    "Source parse duration in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
			},
			[]string{"source"},
		),

		SourceRecords: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gems_source_records",
				Help: "Number of records held in memory per source",
			},
			[]string{"source"},
		),

		SourceRowsSkippedTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "gems_source_rows_skipped_total",
				Help: "Malformed rows skipped while parsing a source",
			},
			[]string{"source"},
		),

		SourceSyncTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "gems_source_sync_total",
				Help: "R2 source sync attempts by file and outcome",
			},
			[]string{"file", "outcome"}, // outcome: downloaded, unchanged, missing, error
		),

		QueryDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gems_query_duration_seconds",
				Help:    "Query operation duration in seconds",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"operation"}, // operation: find_gems, list_courses, search, evaluations
		),

		QueryResultsCount: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gems_query_results",
				Help:    "Number of results returned per query",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 500},
			},
			[]string{"operation"},
		),

		FallbackModeTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "gems_fallback_mode_total",
				Help: "Gem queries answered from the catalog without evaluation matches",
			},
		),

		HTTPRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "gems_http_requests_total",
				Help: "Total HTTP requests by route and status class",
			},
			[]string{"route", "status"}, // status: 2xx, 4xx, 5xx
		),

		HTTPErrorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "gems_http_errors_total",
				Help: "Total HTTP errors by type and route",
			},
			[]string{"error_type", "route"}, // error_type: invalid_input, not_found, rate_limit, internal
		),

		RateLimiterDropped: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "gems_rate_limiter_dropped_total",
				Help: "Total number of requests dropped by rate limiter",
			},
			[]string{"limiter_type"}, // limiter_type: client
		),

		RateLimiterClients: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "gems_rate_limiter_clients",
				Help: "Number of client buckets currently tracked",
			},
		),

		WarmupTasksTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "gems_warmup_tasks_total",
				Help: "Total number of warmup tasks by task and status",
			},
			[]string{"task", "status"}, // status: success, error
		),

		WarmupDuration: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gems_warmup_duration_seconds",
				Help:    "Total duration of warmup process",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
			},
		),
	}

	return m
}

// RecordSourceLoad records a source load with status and duration
func (m *Metrics) RecordSourceLoad(source, status string, duration float64) {
	m.SourceLoadsTotal.WithLabelValues(source, status).Inc()
	m.SourceLoadDuration.WithLabelValues(source).Observe(duration)
}

// SetSourceRecords sets the in-memory record count for a source
func (m *Metrics) SetSourceRecords(source string, n int) {
	m.SourceRecords.WithLabelValues(source).Set(float64(n))
}

// RecordRowsSkipped adds skipped malformed rows for a source
func (m *Metrics) RecordRowsSkipped(source string, n int) {
	if n <= 0 {
		return
	}
	m.SourceRowsSkippedTotal.WithLabelValues(source).Add(float64(n))
}

// RecordSourceSync records one R2 sync outcome
func (m *Metrics) RecordSourceSync(file, outcome string) {
	m.SourceSyncTotal.WithLabelValues(file, outcome).Inc()
}

// RecordQuery records a query operation's duration and result count
func (m *Metrics) RecordQuery(operation string, duration float64, results int) {
	m.QueryDurationSeconds.WithLabelValues(operation).Observe(duration)
	m.QueryResultsCount.WithLabelValues(operation).Observe(float64(results))
}

// RecordFallbackMode records a gem query served in fallback mode
func (m *Metrics) RecordFallbackMode() {
	m.FallbackModeTotal.Inc()
}

// RecordHTTPRequest records a completed HTTP request
func (m *Metrics) RecordHTTPRequest(route string, status int) {
	m.HTTPRequestsTotal.WithLabelValues(route, statusClass(status)).Inc()
}

// RecordHTTPError records HTTP error metrics
func (m *Metrics) RecordHTTPError(errorType, route string) {
	m.HTTPErrorsTotal.WithLabelValues(errorType, route).Inc()
}

// RecordRateLimiterDrop records a request dropped by rate limiter
func (m *Metrics) RecordRateLimiterDrop(limiterType string) {
	m.RateLimiterDropped.WithLabelValues(limiterType).Inc()
}

// SetRateLimiterClients sets the number of tracked client buckets
func (m *Metrics) SetRateLimiterClients(n int) {
	m.RateLimiterClients.Set(float64(n))
}

// RecordWarmupTask records a warmup task completion
func (m *Metrics) RecordWarmupTask(task, status string) {
	m.WarmupTasksTotal.WithLabelValues(task, status).Inc()
}

// RecordWarmupDuration records total warmup duration
func (m *Metrics) RecordWarmupDuration(duration float64) {
	m.WarmupDuration.Observe(duration)
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
