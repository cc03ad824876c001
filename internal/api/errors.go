// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package api

// Error codes returned in the envelope's error.code field.
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeInvalidJSON        = "INVALID_JSON"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"
	ErrCodeInternal           = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeUpstreamFailed     = "UPSTREAM_FAILED"
	ErrCodeAssistantFailed    = "ASSISTANT_FAILED"
	ErrCodeSpeechFailed       = "SPEECH_FAILED"
	ErrCodeNoDefaultQuery     = "NO_DEFAULT_QUERY"
	ErrCodeInsufficientPoints = "INSUFFICIENT_POINTS"
)
