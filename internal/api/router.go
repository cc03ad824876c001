// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sree-sphere/Qloo-CulturalQuest/internal/middleware"
)

// Router wires handlers and middleware onto a chi mux.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router. A nil middleware config takes the defaults.
func NewRouter(handler *Handler, mwConfig *ChiMiddlewareConfig) *Router {
	return &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddleware(mwConfig),
	}
}

// SetupChi builds the HTTP handler.
//
// Layout:
//
//	/metrics                          Prometheus scrape
//	/api/v1/health[/live|/ready|/performance]
//	/api/v1/recommendations/...       queries, likes, cached contexts
//	/api/v1/users/...                 profiles, progress, spin, history
//	/api/v1/activities, /photos       gamification events
//	/api/v1/leaderboard[/{category}], /badges
//	/api/v1/places                    direct upstream lookup
//	/api/v1/chat, /speech             assistant (strict rate limit)
//	/api/v1/ws                        push channel
func (router *Router) SetupChi() http.Handler {
	h := router.handler
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight is answered
	r.Use(middleware.PrometheusMetrics)
	r.Use(h.perfMon.Middleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/", h.Health)
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
		r.Get("/performance", h.HealthPerformance)
	})

	// The push channel is outside the compressed group: the upgrade needs
	// the raw connection.
	r.With(router.chiMiddleware.RateLimit()).Get("/api/v1/ws", h.WebSocket)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(middleware.Compression)

		r.Route("/recommendations", func(r chi.Router) {
			r.Post("/query", h.Query)
			r.Post("/like", h.ToggleLike)
			r.Get("/stats", h.Stats)
			r.Get("/{userID}/{context}", h.LoadContext)
			r.Get("/{userID}/{context}/displayed", h.Displayed)
		})

		r.Post("/users", h.CreateProfile)
		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/", h.GetProfile)
			r.Put("/", h.UpdateProfile)
			r.Get("/progress", h.GetProgress)
			r.Post("/spin", h.Spin)
			r.Get("/interactions", h.Interactions)
			r.Get("/affinity", h.Affinity)
			r.Get("/chat", h.ChatHistory)
			r.Delete("/chat", h.ClearChatHistory)
		})

		r.Post("/activities", h.RecordActivity)
		r.Post("/photos", h.RecordPhoto)
		r.Get("/leaderboard", h.Leaderboard)
		r.Get("/leaderboard/{category}", h.Leaderboard)
		r.Get("/badges", h.Badges)
		r.Get("/places", h.Places)

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitStrict())
			r.Post("/chat", h.Chat)
			r.Post("/speech", h.Speech)
		})
	})

	return r
}
