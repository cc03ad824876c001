// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

// Package validation wraps go-playground/validator with a shared instance,
// a "userid" rule for identifiers used as store keys, JSON field names in
// errors and translation to the API error envelope.
//
//	type LikeRequest struct {
//	    UserID   string `json:"userId" validate:"required,userid,max=128"`
//	    EntityID string `json:"entityId" validate:"required,max=256"`
//	}
//
//	if err := validation.ValidateStruct(&req); err != nil {
//	    apiErr := err.ToAPIError()
//	    // respond 400 with apiErr.Code, apiErr.Message, apiErr.Details
//	}
package validation
