// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sree-sphere/Qloo-CulturalQuest/internal/gamification"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/models"
)

// CreateProfile handles POST /api/v1/users.
// Re-creating an existing user replaces the profile but keeps progress.
func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var profile models.UserProfile
	if !decodeJSON(w, r, &profile) {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	created, err := h.gamification.CreateProfile(ctx, &profile)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusCreated, created, start)
}

// GetProfile handles GET /api/v1/users/{userID}.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := h.userParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := h.requestContext(r)
	defer cancel()

	profile, err := h.gamification.GetProfile(ctx, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, profile, start)
}

// UpdateProfile handles PUT /api/v1/users/{userID}. The path wins over any
// userId in the body.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := h.userParam(w, r)
	if !ok {
		return
	}
	var profile models.UserProfile
	if !decodeBody(w, r, &profile) {
		return
	}
	profile.UserID = userID
	if apiErr := validateRequest(&profile); apiErr != nil {
		respondErrorDetails(w, http.StatusBadRequest, apiErr, nil)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	updated, err := h.gamification.UpdateProfile(ctx, &profile)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, updated, start)
}

// GetProgress handles GET /api/v1/users/{userID}/progress.
func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := h.userParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := h.requestContext(r)
	defer cancel()

	progress, err := h.gamification.GetProgress(ctx, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, progress, start)
}

// RecordActivity handles POST /api/v1/activities.
func (h *Handler) RecordActivity(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req ActivityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	r = r.WithContext(withUser(r, req.UserID))
	ctx, cancel := h.requestContext(r)
	defer cancel()

	result, err := h.gamification.RecordActivity(ctx, req.UserID, req.Activity)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, result, start)
}

// RecordPhoto handles POST /api/v1/photos. Repeat photos of the same
// location earn nothing.
func (h *Handler) RecordPhoto(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req PhotoRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	r = r.WithContext(withUser(r, req.UserID))
	ctx, cancel := h.requestContext(r)
	defer cancel()

	result, err := h.gamification.RecordPhoto(ctx, req.UserID, req.EntityID, req.EntityType)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, result, start)
}

// Spin handles POST /api/v1/users/{userID}/spin. A balance below the spin
// cost answers 409 and leaves progress untouched.
func (h *Handler) Spin(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := h.userParam(w, r)
	if !ok {
		return
	}
	r = r.WithContext(withUser(r, userID))
	ctx, cancel := h.requestContext(r)
	defer cancel()

	result, err := h.gamification.Spin(ctx, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if result.Reward == nil {
		respondErrorDetails(w, http.StatusConflict, &models.APIError{
			Code:    ErrCodeInsufficientPoints,
			Message: "Not enough points to spin",
			Details: map[string]interface{}{
				"points": result.Progress.Points,
				"cost":   gamification.SpinCost,
			},
		}, nil)
		return
	}
	respondSuccess(w, http.StatusOK, result, start)
}

// Leaderboard handles GET /api/v1/leaderboard/{category}. The category
// defaults to points.
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, cancel := h.requestContext(r)
	defer cancel()

	entries, err := h.gamification.Leaderboard(ctx, chi.URLParam(r, "category"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, entries, start)
}

// Badges handles GET /api/v1/badges.
func (h *Handler) Badges(w http.ResponseWriter, _ *http.Request) {
	respondSuccess(w, http.StatusOK, h.gamification.Badges(), time.Now())
}
