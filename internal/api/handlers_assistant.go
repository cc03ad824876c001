// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/sree-sphere/Qloo-CulturalQuest/internal/assistant"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/logging"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/models"
)

// Chat handles POST /api/v1/chat.
// Clients sending Accept: text/event-stream receive tokens as server-sent
// events followed by a final "done" event; everyone else gets one envelope.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.chat == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Assistant is not configured", nil)
		return
	}
	var req ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	r = r.WithContext(withUser(r, req.UserID))

	if strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		h.streamChat(w, r, &req)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	reply, err := h.chat.Respond(ctx, req.UserID, req.Message, assistant.Options{Speak: req.Speak})
	if err != nil {
		respondChatError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, &ChatResponse{Reply: reply.Text, Audio: reply.Audio}, start)
}

// streamChat relays tokens as they arrive. Once the first byte is written the
// status is fixed, so failures become an "error" event.
func (h *Handler) streamChat(w http.ResponseWriter, r *http.Request, req *ChatRequest) {
	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	logger := logging.Ctx(r.Context())
	send := func(event string, v interface{}) {
		data, err := json.Marshal(v)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to marshal stream event")
			return
		}
		if event != "" {
			_, _ = fmt.Fprintf(w, "event: %s\n", event)
		}
		_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
		if err := rc.Flush(); err != nil {
			logger.Debug().Err(err).Msg("stream flush failed")
		}
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	reply, err := h.chat.Respond(ctx, req.UserID, req.Message, assistant.Options{
		Speak: req.Speak,
		OnToken: func(token string) {
			send("", map[string]string{"token": token})
		},
	})
	if err != nil {
		logger.Warn().Err(err).Msg("streamed chat failed")
		send("error", &models.APIError{Code: ErrCodeAssistantFailed, Message: "Assistant failed to respond"})
		return
	}
	send("done", &ChatResponse{Reply: reply.Text, Audio: reply.Audio})
}

func respondChatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, assistant.ErrEmptyMessage):
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
	default:
		var perr *assistant.ProviderError
		if errors.As(err, &perr) || errors.Is(err, assistant.ErrEmptyReply) {
			respondError(w, http.StatusBadGateway, ErrCodeAssistantFailed, "Assistant failed to respond", err)
			return
		}
		respondServiceError(w, err)
	}
}

// ChatHistory handles GET /api/v1/users/{userID}/chat.
func (h *Handler) ChatHistory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.chat == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Assistant is not configured", nil)
		return
	}
	userID, ok := h.userParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := h.requestContext(r)
	defer cancel()

	history, err := h.chat.History(ctx, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if history == nil {
		history = []models.ChatMessage{}
	}
	respondSuccess(w, http.StatusOK, history, start)
}

// ClearChatHistory handles DELETE /api/v1/users/{userID}/chat.
func (h *Handler) ClearChatHistory(w http.ResponseWriter, r *http.Request) {
	if h.chat == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Assistant is not configured", nil)
		return
	}
	userID, ok := h.userParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := h.requestContext(r)
	defer cancel()

	if err := h.chat.ClearHistory(ctx, userID); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Speech handles POST /api/v1/speech and answers with raw audio.
func (h *Handler) Speech(w http.ResponseWriter, r *http.Request) {
	if h.speech == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Speech is not configured", nil)
		return
	}
	var req SpeechRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ctx, cancel := h.requestContext(r)
	defer cancel()

	audio, err := h.speech.Synthesize(ctx, req.Text)
	if err != nil {
		if errors.Is(err, assistant.ErrEmptyText) {
			respondError(w, http.StatusBadRequest, ErrCodeBadRequest, "Text is required", nil)
			return
		}
		respondError(w, http.StatusBadGateway, ErrCodeSpeechFailed, "Failed to generate speech", err)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", fmt.Sprint(len(audio)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(audio); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Failed to write audio response")
	}
}
