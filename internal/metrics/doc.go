// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered with the default registry through promauto and
are exposed at /metrics in Prometheus text format:

	curl http://localhost:8080/metrics

# Available Metrics

API:
  - api_requests_total, api_request_duration_seconds (method, endpoint)
  - api_active_requests, api_rate_limit_hits_total

Upstream and pipeline:
  - upstream_requests_total (operation, status), upstream_request_duration_seconds
  - recommendation_queries_total (context, branch)
  - diversification_total (outcome), diversification_duration_seconds
  - reorder_duration_seconds, likes_total (action)

Resilience and storage:
  - circuit_breaker_state, circuit_breaker_transitions_total, circuit_breaker_requests_total
  - cache_hits_total, cache_misses_total (cache_type)
  - store_gc_runs_total (result), store_corrupt_values_total (key)

Gamification, assistant and push:
  - gamification_points_awarded_total (reason), gamification_badges_awarded_total (badge)
  - gamification_spins_total (reward)
  - assistant_requests_total, assistant_stream_tokens_total, speech_requests_total
  - websocket_connections_active, websocket_messages_dropped_total
  - events_published_total (topic, status)

Labels are bounded: endpoints are chi route patterns, never raw paths.
*/
package metrics
