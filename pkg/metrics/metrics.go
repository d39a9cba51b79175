// Package metrics holds the Prometheus instrumentation of the BoardGuru
// server. Collectors register with the default registry, which is served
// on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boardguru_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "boardguru_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "boardguru_api_active_requests",
			Help: "Number of API requests currently being served",
		},
	)

	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "boardguru_api_rate_limit_hits_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boardguru_cache_hits_total",
			Help: "Total number of cache hits by layer",
		},
		[]string{"layer"}, // "memory", "database"
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "boardguru_cache_misses_total",
			Help: "Total number of cache misses in every layer",
		},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "boardguru_cache_entries",
			Help: "Current number of entries in the memory cache",
		},
	)

	CacheLayerErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "boardguru_cache_database_errors_total",
			Help: "Total number of database cache layer errors",
		},
	)

	// Realtime Metrics
	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "boardguru_websocket_connections",
			Help: "Current number of websocket connections",
		},
	)

	WebSocketMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "boardguru_websocket_messages_sent_total",
			Help: "Total number of websocket messages sent",
		},
	)

	WebSocketDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "boardguru_websocket_clients_dropped_total",
			Help: "Total number of slow websocket clients disconnected",
		},
	)

	RealtimeEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boardguru_realtime_events_published_total",
			Help: "Total number of realtime events published by type",
		},
		[]string{"type"},
	)

	NATSMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boardguru_nats_messages_total",
			Help: "Total number of NATS messages by direction",
		},
		[]string{"direction"}, // "published", "consumed", "skipped"
	)

	// AI Metrics
	AIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boardguru_ai_requests_total",
			Help: "Total number of AI completions by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	AIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "boardguru_ai_request_duration_seconds",
			Help:    "AI completion duration in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		},
		[]string{"provider"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "boardguru_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Job Metrics
	JobsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boardguru_jobs_processed_total",
			Help: "Total number of AI jobs processed by type and outcome",
		},
		[]string{"type", "outcome"}, // "completed", "retry", "failed"
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "boardguru_job_duration_seconds",
			Help:    "AI job handler duration in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"type"},
	)

	// Audit Metrics
	AuditEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boardguru_audit_events_total",
			Help: "Total number of audit events by action and outcome",
		},
		[]string{"action", "outcome"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the active request gauge
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordAIRequest records an AI completion and its outcome
func RecordAIRequest(provider string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	AIRequests.WithLabelValues(provider, outcome).Inc()
	AIRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordJob records a processed job
func RecordJob(jobType, outcome string, duration time.Duration) {
	JobsProcessed.WithLabelValues(jobType, outcome).Inc()
	JobDuration.WithLabelValues(jobType).Observe(duration.Seconds())
}
