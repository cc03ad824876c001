// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package diversify

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/sree-sphere/Qloo-CulturalQuest/internal/recommend"
)

// DefaultProcessingTimeout bounds one pass on the server side.
const DefaultProcessingTimeout = 30 * time.Second

// maxRequestBody bounds a decoded request body.
const maxRequestBody = 4 << 20

// Error messages returned to callers.
const (
	msgEntitiesRequired    = "Entities array is required"
	msgPreferencesRequired = "User preferences are required"
	msgDiversifyFailed     = "Failed to diversify recommendations"
)

// wireRequest keeps preferences raw so a missing field can be told apart
// from an empty array.
type wireRequest struct {
	Entities        json.RawMessage               `json:"entities"`
	UserPreferences json.RawMessage               `json:"userPreferences"`
	Interactions    []recommend.InteractionRecord `json:"interactions"`
	Options         wireOptions                   `json:"options"`
}

// wireOptions keeps lambdaParam optional; an explicit 0 is a valid weight.
type wireOptions struct {
	TotalCount        int      `json:"nTotal"`
	HighAffinityCount int      `json:"nHighAffinity"`
	Lambda            *float64 `json:"lambdaParam"`
}

func (o wireOptions) options() recommend.DiversifyOptions {
	opts := recommend.DiversifyOptions{
		TotalCount:        o.TotalCount,
		HighAffinityCount: o.HighAffinityCount,
		Lambda:            DefaultLambda,
	}
	if o.Lambda != nil {
		opts.Lambda = *o.Lambda
	}
	return opts
}

type successResponse struct {
	Success bool    `json:"success"`
	Data    *Result `json:"data"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Server exposes Local over HTTP.
type Server struct {
	engine  *Local
	timeout time.Duration
	logger  zerolog.Logger
}

// NewServer creates the diversification HTTP handler. A non-positive
// timeout uses DefaultProcessingTimeout.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewServer(engine *Local, timeout time.Duration, logger zerolog.Logger) *Server {
	if timeout <= 0 {
		timeout = DefaultProcessingTimeout
	}
	return &Server{
		engine:  engine,
		timeout: timeout,
		logger:  logger.With().Str("component", "diversify-server").Logger(),
	}
}

// Routes returns the chi router for the service.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Post("/api/diversify", s.handleDiversify)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	return r
}

func (s *Server) handleDiversify(w http.ResponseWriter, r *http.Request) {
	var wire wireRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&wire); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgEntitiesRequired, Details: err.Error()})
		return
	}

	entities, ok := decodeEntities(wire.Entities)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgEntitiesRequired})
		return
	}
	prefs, ok := decodePreferences(wire.UserPreferences)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgPreferencesRequired})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	res, err := s.engine.Run(ctx, &recommend.DiversifyRequest{
		Entities:        entities,
		UserPreferences: prefs,
		Interactions:    wire.Interactions,
		Options:         wire.Options.options(),
	})
	if err != nil {
		s.logger.Error().Err(err).
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Int("entities", len(entities)).
			Msg("diversification failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgDiversifyFailed, Details: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true, Data: res})
}

// decodeEntities accepts only a non-empty JSON array.
func decodeEntities(raw json.RawMessage) ([]recommend.RawEntity, bool) {
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	entities, err := recommend.ParseRawEntities(raw)
	if err != nil || len(entities) == 0 {
		return nil, false
	}
	return entities, true
}

// decodePreferences accepts any JSON array of strings, including an empty one.
func decodePreferences(raw json.RawMessage) ([]string, bool) {
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	var prefs []string
	if err := json.Unmarshal(raw, &prefs); err != nil {
		return nil, false
	}
	if prefs == nil {
		prefs = []string{}
	}
	return prefs, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
