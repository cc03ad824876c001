// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

/*
Package middleware provides the HTTP middleware shared by the API server and
the diversification service.

  - RequestID: assigns or propagates X-Request-ID and seeds the logging
    context with request and correlation IDs
  - PrometheusMetrics: request count, latency and in-flight gauge, labelled
    by chi route pattern
  - PerformanceMonitor: sliding-window latency percentiles per endpoint,
    served by the health API
  - Compression: gzip for JSON responses; WebSocket upgrades and event
    streams are never compressed

All middleware has the func(http.Handler) http.Handler shape so it can be
passed to chi's Use.
*/
package middleware
