// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package api

import (
	"net/http"
	"time"
)

// Version is reported by the health endpoint. Set at build time.
var Version = "dev"

// HealthStatus is the payload of GET /api/v1/health.
type HealthStatus struct {
	Status           string  `json:"status"`
	Version          string  `json:"version"`
	Uptime           float64 `json:"uptimeSeconds"`
	AssistantEnabled bool    `json:"assistantEnabled"`
	SpeechEnabled    bool    `json:"speechEnabled"`
	WSClients        int     `json:"wsClients"`
	Sessions         int     `json:"sessions"`
}

// Health handles GET /api/v1/health. The optional assistant and speech
// services are reported but never make the service unhealthy.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	status := &HealthStatus{
		Status:           "healthy",
		Version:          Version,
		Uptime:           time.Since(h.startTime).Seconds(),
		AssistantEnabled: h.chat != nil,
		SpeechEnabled:    h.speech != nil,
	}
	if h.wsHub != nil {
		status.WSClients = h.wsHub.GetClientCount()
	}
	if h.recommender != nil {
		status.Sessions = h.recommender.GetMetrics().Sessions
	}
	respondSuccess(w, http.StatusOK, status, time.Now())
}

// HealthLive handles GET /api/v1/health/live. It answers 200 while the
// process can serve HTTP at all.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	}, time.Now())
}

// HealthReady handles GET /api/v1/health/ready. The service is ready once
// the recommendation and gamification services are wired.
func (h *Handler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	ready := h.recommender != nil && h.gamification != nil
	if !ready {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Service is not ready", nil)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"ready": true}, time.Now())
}

// HealthPerformance handles GET /api/v1/health/performance: per-endpoint
// latency percentiles over the recent request window.
func (h *Handler) HealthPerformance(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"endpoints": h.perfMon.GetStats(),
		"recent":    h.perfMon.GetRecentMetrics(getIntParam(r, "recent", 20)),
	}, time.Now())
}
