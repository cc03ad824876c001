// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Diversification outcomes.
const (
	OutcomeApplied = "applied"
	OutcomeStale   = "stale"
	OutcomeFailed  = "failed"
	OutcomeTimeout = "timeout"
)

var (
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

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"limiter"},
	)

	// Upstream Recommender Metrics
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Total number of taste-graph API requests",
		},
		[]string{"operation", "status"}, // operation: "insights", "search"
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Duration of taste-graph API requests in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
		[]string{"operation"},
	)

	// Recommendation Pipeline Metrics
	RecommendationQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_queries_total",
			Help: "Total number of recommendation queries by context and branch",
		},
		[]string{"context", "branch"}, // branch: "search", "nostalgic", "weekend", "default", "error"
	)

	DiversificationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diversification_total",
			Help: "Background diversification passes by outcome",
		},
		[]string{"outcome"}, // "applied", "stale", "failed", "timeout"
	)

	DiversificationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "diversification_duration_seconds",
			Help:    "Duration of diversification passes in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	ReorderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reorder_duration_seconds",
			Help:    "Duration of like-triggered reorders in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)

	LikesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "likes_total",
			Help: "Total number of like toggles",
		},
		[]string{"action"}, // "like", "unlike"
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
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Requests passed through a circuit breaker by result",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "upstream"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	// Persistence Metrics
	StoreGCRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_gc_runs_total",
			Help: "Value-log garbage collection runs by result",
		},
		[]string{"result"}, // "rewritten", "noop", "error"
	)

	StoreCorruptValues = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_corrupt_values_total",
			Help: "Stored values discarded because they could not be decoded",
		},
		[]string{"key"},
	)

	// Gamification Metrics
	PointsAwarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamification_points_awarded_total",
			Help: "Points awarded by reason",
		},
		[]string{"reason"},
	)

	BadgesAwarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamification_badges_awarded_total",
			Help: "Badges awarded by badge id",
		},
		[]string{"badge"},
	)

	SpinsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamification_spins_total",
			Help: "Spin-wheel results by reward type",
		},
		[]string{"reward"}, // "discount", "points", "experience", "badge", "insufficient"
	)

	// Assistant Metrics
	AssistantRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_requests_total",
			Help: "Conversational assistant requests by status",
		},
		[]string{"status"},
	)

	AssistantTokens = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assistant_stream_tokens_total",
			Help: "Streamed assistant tokens accumulated",
		},
	)

	SpeechRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "speech_requests_total",
			Help: "Speech synthesis requests by status",
		},
		[]string{"status"},
	)

	// Push Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Current number of WebSocket clients",
		},
	)

	WSMessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_dropped_total",
			Help: "Messages dropped because a buffer was full",
		},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Domain events published on the in-process bus",
		},
		[]string{"topic", "status"},
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

// RecordUpstreamRequest records one taste-graph call. status is the HTTP
// status, or 0 when no response was received.
func RecordUpstreamRequest(operation string, status int, duration time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	UpstreamRequestsTotal.WithLabelValues(operation, label).Inc()
	UpstreamRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordDiversification records the outcome of one background pass.
func RecordDiversification(outcome string, duration time.Duration) {
	DiversificationTotal.WithLabelValues(outcome).Inc()
	DiversificationDuration.Observe(duration.Seconds())
}

// RecordLike records a like toggle and the reorder it triggered.
func RecordLike(liked bool, reorder time.Duration) {
	action := "unlike"
	if liked {
		action = "like"
	}
	LikesTotal.WithLabelValues(action).Inc()
	ReorderDuration.Observe(reorder.Seconds())
}

// RecordCircuitBreakerTransition records a breaker state change. States are
// encoded as 0=closed, 1=half-open, 2=open.
func RecordCircuitBreakerTransition(name, from, to string, state float64) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(state)
}

// RecordPoints records points awarded for reason.
func RecordPoints(reason string, points int) {
	if points <= 0 {
		return
	}
	PointsAwarded.WithLabelValues(reason).Add(float64(points))
}
