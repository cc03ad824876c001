// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package api

import (
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/gamification"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/recommend"
)

// LikeRequest toggles the like state of one entity in one context.
type LikeRequest struct {
	UserID   string `json:"userId" validate:"required,userid,max=128"`
	Context  string `json:"context" validate:"required,oneof=nostalgic adventurous social relaxed spiritual search"`
	EntityID string `json:"entityId" validate:"required,max=256"`
}

// LikeResponse is the re-ranked list plus the user's progress when the
// toggle earned points.
type LikeResponse struct {
	*recommend.LikeResult
	Progress *gamification.Progress `json:"progress,omitempty"`
}

// PlacesRequest is a direct upstream place lookup.
type PlacesRequest struct {
	Tags     []string `validate:"max=20,dive,max=128"`
	Entities []string `validate:"max=20,dive,max=128"`
	Location string   `validate:"max=128"`
	Take     int      `validate:"min=1,max=50"`
}

// ActivityRequest records something the user did.
type ActivityRequest struct {
	UserID string `json:"userId" validate:"required,userid,max=128"`
	gamification.Activity
}

// PhotoRequest records a photo taken at a recommended location.
type PhotoRequest struct {
	UserID     string `json:"userId" validate:"required,userid,max=128"`
	EntityID   string `json:"entityId" validate:"required,max=256"`
	EntityType string `json:"entityType" validate:"max=64"`
}

// ChatRequest is one message to the assistant.
type ChatRequest struct {
	UserID  string `json:"userId" validate:"required,userid,max=128"`
	Message string `json:"message" validate:"required,max=2000"`
	Speak   bool   `json:"speak,omitempty"`
}

// ChatResponse carries the reply and, when speech was requested, the
// synthesized audio as base64.
type ChatResponse struct {
	Reply string `json:"reply"`
	Audio []byte `json:"audio,omitempty"`
}

// SpeechRequest converts text to audio.
type SpeechRequest struct {
	Text string `json:"text" validate:"required,max=5000"`
}
