// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sree-sphere/Qloo-CulturalQuest/internal/logging"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/models"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/recommend"
)

// Query handles POST /api/v1/recommendations/query.
// The mood is inferred from the query text when omitted. When the response
// reports diversifying=true a refined list follows over the push channel.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req recommend.QueryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	r = r.WithContext(withUser(r, req.UserID))
	ctx, cancel := h.requestContext(r)
	defer cancel()

	result, err := h.recommender.Query(ctx, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, result, start)
}

// ToggleLike handles POST /api/v1/recommendations/like.
// A new like also earns points; a failure there does not undo the like.
func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req LikeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	r = r.WithContext(withUser(r, req.UserID))
	ctx, cancel := h.requestContext(r)
	defer cancel()

	result, err := h.recommender.ToggleLike(ctx, req.UserID, req.Context, req.EntityID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	resp := &LikeResponse{LikeResult: result}
	if result.Liked && h.gamification != nil {
		progress, err := h.gamification.AwardLike(ctx, req.UserID)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("failed to award like points")
		} else {
			resp.Progress = progress
		}
	}
	respondSuccess(w, http.StatusOK, resp, start)
}

// LoadContext handles GET /api/v1/recommendations/{userID}/{context}.
// It serves the cached list re-ranked against current likes, or rebuilds
// the context from its default query.
func (h *Handler) LoadContext(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := h.userParam(w, r)
	if !ok {
		return
	}
	contextName := chi.URLParam(r, "context")

	r = r.WithContext(withUser(r, userID))
	ctx, cancel := h.requestContext(r)
	defer cancel()

	result, err := h.recommender.Load(ctx, userID, contextName)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   result,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
			Cached:      result.FromCache,
		},
	})
}

// DisplayedResponse is the in-memory view of one session.
type DisplayedResponse struct {
	Context    string             `json:"context"`
	State      string             `json:"state"`
	Generation uint64             `json:"generation"`
	Entities   []recommend.Entity `json:"entities"`
}

// Displayed handles GET /api/v1/recommendations/{userID}/{context}/displayed.
// It never touches the upstream.
func (h *Handler) Displayed(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := h.userParam(w, r)
	if !ok {
		return
	}
	contextName := chi.URLParam(r, "context")

	state, generation := h.recommender.SessionState(userID, contextName)
	entities := h.recommender.Displayed(userID, contextName)
	if entities == nil {
		entities = []recommend.Entity{}
	}
	respondSuccess(w, http.StatusOK, &DisplayedResponse{
		Context:    contextName,
		State:      state.String(),
		Generation: generation,
		Entities:   entities,
	}, start)
}

// Interactions handles GET /api/v1/users/{userID}/interactions.
func (h *Handler) Interactions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := h.userParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := h.requestContext(r)
	defer cancel()

	records, err := h.recommender.Interactions(ctx, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if records == nil {
		records = []recommend.InteractionRecord{}
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"interactions": records,
		"count":        len(records),
	}, start)
}

// Affinity handles GET /api/v1/users/{userID}/affinity.
func (h *Handler) Affinity(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := h.userParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := h.requestContext(r)
	defer cancel()

	vector, err := h.recommender.Affinity(ctx, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"affinity": vector,
		"liked":    h.recommender.LikedIDs(ctx, userID),
	}, start)
}

// Places handles GET /api/v1/places?tags=&entities=&location=&take=.
// It is a direct upstream lookup with no session or scoring.
func (h *Handler) Places(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.upstream == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Upstream is not configured", nil)
		return
	}

	q := r.URL.Query()
	req := PlacesRequest{
		Tags:     parseCommaSeparated(q.Get("tags")),
		Entities: parseCommaSeparated(q.Get("entities")),
		Location: q.Get("location"),
		Take:     getIntParam(r, "take", 5),
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondErrorDetails(w, http.StatusBadRequest, apiErr, nil)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	raws, err := h.upstream.Insights(ctx, &recommend.InsightsRequest{
		FilterType:              recommend.EntityTypePlace,
		SignalInterestsTags:     req.Tags,
		SignalInterestsEntities: req.Entities,
		FilterLocationQuery:     req.Location,
		Take:                    req.Take,
	})
	if err != nil {
		respondError(w, http.StatusBadGateway, ErrCodeUpstreamFailed, recommend.UserMessage, err)
		return
	}
	entities := recommend.FormatResults(recommend.Dedupe(raws))
	if entities == nil {
		entities = []recommend.Entity{}
	}
	respondSuccess(w, http.StatusOK, entities, start)
}

// Stats handles GET /api/v1/recommendations/stats.
func (h *Handler) Stats(w http.ResponseWriter, _ *http.Request) {
	respondSuccess(w, http.StatusOK, h.recommender.GetMetrics(), time.Now())
}

// userParam reads and validates the {userID} path parameter.
func (h *Handler) userParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	p := struct {
		UserID string `json:"userId" validate:"required,userid,max=128"`
	}{UserID: chi.URLParam(r, "userID")}
	if apiErr := validateRequest(&p); apiErr != nil {
		respondErrorDetails(w, http.StatusBadRequest, apiErr, nil)
		return "", false
	}
	return p.UserID, true
}
