// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

/*
Package api is the HTTP surface of the service: a chi router under /api/v1
with the JSON envelope

	{"status": "success", "data": {...}, "metadata": {"timestamp": "...", "query_time_ms": 12}}

and, on failure, status "error" with {"code", "message", "details"}.

Handlers depend on small interfaces (Recommender, Gamification, ChatService,
Synthesizer) so tests can substitute fakes; cmd/server passes the real
recommend.Engine, gamification.Service and assistant clients.

Middleware, outermost first: request ID, real IP, panic recovery, CORS,
Prometheus metrics, performance window. Route groups add per-IP rate
limits (a stricter one for chat and speech since they call paid providers),
security headers and gzip.

Long-running work is not awaited: a query that starts diversification
answers immediately with diversifying=true, and the refined list reaches
the client over GET /api/v1/ws?userId=... as a display_update message.
*/
package api
