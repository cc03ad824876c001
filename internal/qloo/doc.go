// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

// Package qloo is the taste-graph client behind recommend.Upstream.
//
// Every call carries the x-api-key header, waits on a client-side token
// bucket, runs through a circuit breaker and may be answered from a short
// TTL cache keyed by the encoded query parameters. Non-2xx answers surface as
// *UpstreamError; 4xx answers do not count against the breaker.
package qloo
