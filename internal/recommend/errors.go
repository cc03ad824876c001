// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package recommend

import "errors"

var (
	// ErrUpstreamQuery is returned when the upstream recommender fails or
	// returns an unusable payload. It is the only query error shown to users.
	ErrUpstreamQuery = errors.New("failed to fetch recommendations")

	// ErrNoDefaultQuery is returned by Load for a context that has neither a
	// usable cache nor a default query to rebuild it.
	ErrNoDefaultQuery = errors.New("no cached results and no default query for context")

	// ErrAssistantUnavailable is returned by the weekend-plan branch when no
	// assistant is configured.
	ErrAssistantUnavailable = errors.New("assistant is not configured")

	// ErrInvalidRequest is returned for empty user IDs or context names.
	ErrInvalidRequest = errors.New("invalid recommendation request")
)

// UserMessage is the user-facing text of an upstream failure.
const UserMessage = "Failed to fetch recommendations."
