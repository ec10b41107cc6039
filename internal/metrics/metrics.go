// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Analysis pipeline
	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pitch_analysis_runs_total",
			Help: "Analysis pipeline runs by outcome",
		},
		[]string{"outcome"}, // complete, failed, skipped
	)

	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pitch_analysis_duration_seconds",
			Help:    "Wall time of one analysis pipeline run",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 180, 300, 600},
		},
		[]string{"outcome"},
	)

	PipelineInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pitch_analysis_in_flight",
			Help: "Analysis runs currently executing",
		},
	)

	DegradedAnalyses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pitch_analysis_degraded_total",
			Help: "Runs where content analysis fell back to lexical defaults",
		},
	)

	FallbackEmbeddings = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pitch_analysis_fallback_embeddings_total",
			Help: "Runs that stored a lexical fallback embedding",
		},
	)

	StaleSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pitch_analysis_stale_swept_total",
			Help: "in_progress pitches moved to failed by the stale sweep",
		},
	)

	// Providers
	ProviderCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_calls_total",
			Help: "External provider calls by provider, operation and result",
		},
		[]string{"provider", "operation", "result"},
	)

	ProviderLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provider_call_duration_seconds",
			Help:    "External provider call latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "operation"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Matching
	MatchQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "match_query_duration_seconds",
			Help:    "Latency of similar/collaborator/recommendation queries",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"query"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)
)

// RecordPipelineRun records the outcome and duration of one analysis run.
func RecordPipelineRun(outcome string, duration time.Duration) {
	PipelineRuns.WithLabelValues(outcome).Inc()
	PipelineDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordProviderCall records one provider call; err == nil counts as success.
func RecordProviderCall(provider, operation string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	ProviderCalls.WithLabelValues(provider, operation, result).Inc()
	ProviderLatency.WithLabelValues(provider, operation).Observe(duration.Seconds())
}

// RecordMatchQuery records the latency of a matching query.
func RecordMatchQuery(query string, duration time.Duration) {
	MatchQueryDuration.WithLabelValues(query).Observe(duration.Seconds())
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
