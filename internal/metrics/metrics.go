// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Duration of candidate store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_query_errors_total",
			Help: "Total number of candidate store query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of in-flight API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)

	// Recommendation pipeline
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_total",
			Help: "Recommendation requests by cache outcome",
		},
		[]string{"cache"}, // hit, miss, bypass, error
	)

	RecommendationStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommendation_stage_duration_seconds",
			Help:    "Duration of each recommendation pipeline stage",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"}, // recall, rank, cache_get, cache_put
	)

	RecallCandidates = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recall_candidates",
			Help:    "Candidates returned per recall channel",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 150, 200},
		},
		[]string{"channel"},
	)

	RecallChannelErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recall_channel_errors_total",
			Help: "Recall channel failures degraded to zero candidates",
		},
		[]string{"channel"},
	)

	RankingPenalized = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ranking_diversity_penalized_total",
			Help: "Candidates whose final score was penalized by diversification",
		},
	)

	// Recommendation cache
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_cache_hits_total",
			Help: "Recommendation cache hits",
		},
		[]string{"backend"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_cache_misses_total",
			Help: "Recommendation cache misses, including degraded reads",
		},
		[]string{"backend", "reason"}, // absent, corrupt, error
	)

	CacheWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_cache_writes_total",
			Help: "Recommendation cache writes",
		},
		[]string{"backend", "result"}, // success, failure
	)

	CacheEvicted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_cache_evicted_total",
			Help: "Rows removed by eviction sweeps",
		},
		[]string{"backend", "reason"}, // expired, overflow, invalidated
	)

	CacheEvictionSignalsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendation_cache_eviction_signals_dropped_total",
			Help: "Eviction signals dropped because a sweep was already pending",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
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

	// External providers
	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_requests_total",
			Help: "Calls to embedding and LLM providers",
		},
		[]string{"provider", "operation", "result"},
	)

	ProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provider_request_duration_seconds",
			Help:    "Latency of embedding and LLM provider calls",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider", "operation"},
	)

	// Feedback and events
	FeedbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_total",
			Help: "Processed feedback by action and result",
		},
		[]string{"action", "result"},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Events published by topic and result",
		},
		[]string{"topic", "result"},
	)

	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_consumed_total",
			Help: "Events handled by topic and result",
		},
		[]string{"topic", "result"},
	)

	// Feed import
	ImportArticles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "import_articles_total",
			Help: "Articles seen and inserted by feed imports",
		},
		[]string{"result"}, // found, inserted, analyze_failed, index_failed
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
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

// RecordStage observes the duration of one pipeline stage.
func RecordStage(stage string, duration time.Duration) {
	RecommendationStageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordRecallChannel records a channel's candidate count, or its failure.
func RecordRecallChannel(channel string, candidates int, err error) {
	if err != nil {
		RecallChannelErrors.WithLabelValues(channel).Inc()
		return
	}
	RecallCandidates.WithLabelValues(channel).Observe(float64(candidates))
}

// RecordProviderCall records an embedding or LLM call.
func RecordProviderCall(provider, operation string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	ProviderRequests.WithLabelValues(provider, operation, result).Inc()
	ProviderDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
}

// RecordEventPublish records a publish attempt.
func RecordEventPublish(topic string, err error) {
	EventsPublished.WithLabelValues(topic, resultLabel(err)).Inc()
}

// RecordEventConsume records a handler outcome.
func RecordEventConsume(topic string, err error) {
	EventsConsumed.WithLabelValues(topic, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
