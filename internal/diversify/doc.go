// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

// Package diversify runs the MMR diversification pass either in process
// (Local) or against a remote service (HTTPClient), and serves that
// service over HTTP (Server).
//
// The wire contract is POST /api/diversify with
// {"entities", "userPreferences", "interactions", "options"}. A 200 answer is
// {"success": true, "data": {"diversified_recommendations", "diversity_metrics",
// "total_original", "total_selected"}}; failures are {"error", "details"}.
package diversify
