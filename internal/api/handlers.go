// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sree-sphere/Qloo-CulturalQuest/internal/assistant"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/config"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/gamification"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/logging"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/middleware"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/models"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/recommend"
	ws "github.com/sree-sphere/Qloo-CulturalQuest/internal/websocket"
)

// Recommender is the orchestrator surface the API exposes.
type Recommender interface {
	Query(ctx context.Context, req recommend.QueryRequest) (*recommend.QueryResult, error)
	ToggleLike(ctx context.Context, userID, contextName, entityID string) (*recommend.LikeResult, error)
	Load(ctx context.Context, userID, contextName string) (*recommend.QueryResult, error)
	Displayed(userID, contextName string) []recommend.Entity
	SessionState(userID, contextName string) (recommend.State, uint64)
	Interactions(ctx context.Context, userID string) ([]recommend.InteractionRecord, error)
	Affinity(ctx context.Context, userID string) (recommend.AffinityVector, error)
	LikedIDs(ctx context.Context, userID string) []string
	GetMetrics() recommend.Metrics
}

// Gamification is the points, badges and profile service.
type Gamification interface {
	CreateProfile(ctx context.Context, p *models.UserProfile) (*models.UserProfile, error)
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, p *models.UserProfile) (*models.UserProfile, error)
	GetProgress(ctx context.Context, userID string) (*gamification.Progress, error)
	AwardLike(ctx context.Context, userID string) (*gamification.Progress, error)
	RecordActivity(ctx context.Context, userID string, a gamification.Activity) (*gamification.ActivityResult, error)
	RecordPhoto(ctx context.Context, userID, entityID, entityType string) (*gamification.ActivityResult, error)
	Spin(ctx context.Context, userID string) (*gamification.SpinResult, error)
	Leaderboard(ctx context.Context, category string) ([]gamification.LeaderboardEntry, error)
	Badges() []gamification.Badge
}

// ChatService is the conversational assistant.
type ChatService interface {
	Respond(ctx context.Context, userID, message string, opts assistant.Options) (*assistant.Reply, error)
	History(ctx context.Context, userID string) ([]models.ChatMessage, error)
	ClearHistory(ctx context.Context, userID string) error
}

// Synthesizer converts text to audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Dependencies are the services behind the handlers. Chat, Speech, Upstream
// and Hub are optional; their endpoints answer 503 when absent.
type Dependencies struct {
	Recommender  Recommender
	Gamification Gamification
	Chat         ChatService
	Speech       Synthesizer
	Upstream     recommend.Upstream
	Hub          *ws.Hub
	Config       *config.Config
}

// Handler holds the dependencies of the HTTP handlers.
//
// Handler methods are split across files:
//   - handlers_recommend.go: queries, likes, cached contexts and history
//   - handlers_gamification.go: profiles, progress, spin and leaderboards
//   - handlers_assistant.go: chat and speech
//   - handlers_health.go: liveness, readiness and performance
//   - handlers_websocket.go: push channel upgrade
type Handler struct {
	recommender  Recommender
	gamification Gamification
	chat         ChatService
	speech       Synthesizer
	upstream     recommend.Upstream
	wsHub        *ws.Hub
	config       *config.Config
	perfMon      *middleware.PerformanceMonitor
	startTime    time.Time
	requestLimit time.Duration
}

// NewHandler creates the API handler.
func NewHandler(deps *Dependencies) *Handler {
	limit := 30 * time.Second
	if deps.Config != nil && deps.Config.Server.Timeout > 0 {
		limit = deps.Config.Server.Timeout
	}
	return &Handler{
		recommender:  deps.Recommender,
		gamification: deps.Gamification,
		chat:         deps.Chat,
		speech:       deps.Speech,
		upstream:     deps.Upstream,
		wsHub:        deps.Hub,
		config:       deps.Config,
		perfMon:      middleware.NewPerformanceMonitor(1000, 0),
		startTime:    time.Now(),
		requestLimit: limit,
	}
}

// PerformanceMonitor returns the monitor the router installs.
func (h *Handler) PerformanceMonitor() *middleware.PerformanceMonitor {
	return h.perfMon
}

// requestContext bounds one handler's downstream calls.
func (h *Handler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.requestLimit)
}

// withUser tags the request's logging context with userID.
func withUser(r *http.Request, userID string) context.Context {
	return logging.ContextWithUserID(r.Context(), userID)
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates WebSocket connection origins. Browsers
// always send Origin, so a missing one is rejected.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}

	if h.config == nil {
		return true
	}

	for _, allowedOrigin := range h.config.Security.CORSOrigins {
		if allowedOrigin == "*" || allowedOrigin == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}

var _ Recommender = (*recommend.Engine)(nil)
var _ Gamification = (*gamification.Service)(nil)
var _ ChatService = (*assistant.Service)(nil)
var _ Synthesizer = (*assistant.SpeechClient)(nil)
