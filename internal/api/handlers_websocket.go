// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package api

import (
	"net/http"

	"github.com/sree-sphere/Qloo-CulturalQuest/internal/logging"
	ws "github.com/sree-sphere/Qloo-CulturalQuest/internal/websocket"
)

// WebSocket handles GET /api/v1/ws?userId=...
// The connection receives that user's display updates and gamification
// events plus broadcasts such as leaderboard changes.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Push channel is not available", nil)
		return
	}

	p := struct {
		UserID string `json:"userId" validate:"required,userid,max=128"`
	}{UserID: r.URL.Query().Get("userId")}
	if apiErr := validateRequest(&p); apiErr != nil {
		respondErrorDetails(w, http.StatusBadRequest, apiErr, nil)
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		logging.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(h.wsHub, conn, p.UserID)
	select {
	case h.wsHub.Register <- client:
		client.Start()
	case <-r.Context().Done():
		_ = conn.Close()
	}
}
