// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/sree-sphere/Qloo-CulturalQuest/internal/metrics"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/models"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/store"
)

// Query branches, as reported in QueryResult.Branch.
const (
	BranchSearch    = "search"
	BranchNostalgic = "nostalgic"
	BranchWeekend   = "weekend"
	BranchDefault   = "default"
)

// State is the lifecycle state of one (user, context) session.
type State int

// Session states.
const (
	StateIdle State = iota
	StateQuerying
	StateRawDisplayed
	StateDiversifying
	StateDiversified
	StateReordering
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateQuerying:
		return "querying"
	case StateRawDisplayed:
		return "raw_displayed"
	case StateDiversifying:
		return "diversifying"
	case StateDiversified:
		return "diversified"
	case StateReordering:
		return "reordering"
	default:
		return "unknown"
	}
}

// ProfileSource loads and lazily creates user profiles. GetProfile returns
// models.ErrProfileNotFound for unknown users.
type ProfileSource interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	CreateProfile(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error)
}

// DisplayUpdate describes a change of the displayed list of a session.
type DisplayUpdate struct {
	UserID     string   `json:"userId"`
	Context    string   `json:"context"`
	Source     string   `json:"source"` // "query", "reorder", "load", "diversify"
	Generation uint64   `json:"generation"`
	Entities   []Entity `json:"entities"`
}

// Notifier is told about every display change. Implementations must not block.
type Notifier interface {
	DisplayChanged(ctx context.Context, update *DisplayUpdate)
}

// Dependencies are the collaborators of the Engine. Diversifier, Assistant
// and Notifier are optional.
type Dependencies struct {
	Upstream    Upstream
	Diversifier Diversifier
	Reorderer   Reorderer
	Assistant   Assistant
	Profiles    ProfileSource
	Store       StateStore
	Notifier    Notifier
}

// QueryResult is the outcome of Query or Load.
type QueryResult struct {
	Context  string   `json:"context"`
	Mood     Mood     `json:"mood"`
	Intent   Intent   `json:"intent"`
	Branch   string   `json:"branch"`
	Entities []Entity `json:"entities"`
	// Reply holds the assistant's weekend plan; Entities is empty then.
	Reply string `json:"reply,omitempty"`
	// Diversifying is true when a background pass was started.
	Diversifying bool `json:"diversifying"`
	// FromCache is true when Load served a valid cached list.
	FromCache bool `json:"fromCache"`
}

// LikeResult is the outcome of ToggleLike.
type LikeResult struct {
	EntityID string         `json:"entityId"`
	Liked    bool           `json:"liked"`
	Entities []Entity       `json:"entities"`
	Affinity AffinityVector `json:"affinity"`
}

type sessionKey struct {
	userID  string
	context string
}

// session is the per-(user, context) critical section.
type session struct {
	mu         sync.Mutex
	state      State
	generation uint64
	queries    uint64
	displayed  []Entity
	cancelPass context.CancelFunc
}

func (s *session) cancelPending() {
	if s.cancelPass != nil {
		s.cancelPass()
		s.cancelPass = nil
	}
}

// Engine is the recommendation orchestrator. It routes queries to a branch
// by mood and intent, keeps the per-context displayed list and cache, runs
// background diversification and re-ranks on every like.
// It is safe for concurrent use.
type Engine struct {
	config *Config
	logger zerolog.Logger

	upstream    Upstream
	diversifier Diversifier
	reorderer   Reorderer
	assistant   Assistant
	profiles    ProfileSource
	store       StateStore
	notifier    Notifier

	affinity *AffinityModel
	history  *HistoryCollector

	sessionsMu sync.Mutex
	sessions   map[sessionKey]*session

	// Background passes outlive the request that started them.
	baseCtx   context.Context
	cancelAll context.CancelFunc
	passes    sync.WaitGroup

	requestCount    atomic.Int64
	errorCount      atomic.Int64
	diversifyCount  atomic.Int64
	diversifyFailed atomic.Int64
}

// NewEngine creates a new orchestrator.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, deps Dependencies, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	switch {
	case deps.Upstream == nil:
		return nil, errors.New("upstream is required")
	case deps.Reorderer == nil:
		return nil, errors.New("reorderer is required")
	case deps.Profiles == nil:
		return nil, errors.New("profile source is required")
	case deps.Store == nil:
		return nil, errors.New("state store is required")
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		config:      cfg,
		logger:      logger.With().Str("component", "recommend").Logger(),
		upstream:    deps.Upstream,
		diversifier: deps.Diversifier,
		reorderer:   deps.Reorderer,
		assistant:   deps.Assistant,
		profiles:    deps.Profiles,
		store:       deps.Store,
		notifier:    deps.Notifier,
		affinity:    NewAffinityModel(deps.Store, logger),
		history:     NewHistoryCollector(deps.Store, logger),
		sessions:    make(map[sessionKey]*session),
		baseCtx:     baseCtx,
		cancelAll:   cancel,
	}
	return e, nil
}

// Close cancels in-flight diversification passes and waits for them.
func (e *Engine) Close() {
	e.cancelAll()
	e.passes.Wait()
}

func (e *Engine) session(userID, contextName string) *session {
	key := sessionKey{userID: userID, context: contextName}
	e.sessionsMu.Lock()
	defer e.sessionsMu.Unlock()
	s, ok := e.sessions[key]
	if !ok {
		s = &session{}
		e.sessions[key] = s
	}
	return s
}

// Query runs one user query end to end.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) Query(ctx context.Context, req QueryRequest) (*QueryResult, error) {
	e.requestCount.Add(1)
	req.Normalize()
	if req.UserID == "" || req.Query == "" {
		return nil, ErrInvalidRequest
	}

	contextName := req.ContextName()
	logger := e.logger.With().
		Str("user_id", req.UserID).
		Str("context", contextName).
		Str("mood", string(req.Mood)).
		Str("intent", string(req.Intent)).
		Logger()

	profile, err := e.ensureProfile(ctx, req.UserID)
	if err != nil {
		e.errorCount.Add(1)
		return nil, err
	}

	s := e.session(req.UserID, contextName)
	s.mu.Lock()
	s.queries++
	queryID := s.queries
	prevState := s.state
	s.state = StateQuerying
	s.generation++
	s.cancelPending()
	s.mu.Unlock()

	city := profile.City(e.config.DefaultCity)
	plan := PlanUpstream(&req, profile, city, e.config.UpstreamTake)
	raws, err := e.fetch(ctx, plan)
	if err != nil {
		e.errorCount.Add(1)
		metrics.RecommendationQueries.WithLabelValues(contextName, "error").Inc()
		s.mu.Lock()
		if s.queries == queryID {
			s.state = restoreAfterFailure(prevState, s.displayed)
		}
		s.mu.Unlock()
		logger.Warn().Err(err).Msg("upstream query failed")
		return nil, fmt.Errorf("%w: %w", ErrUpstreamQuery, err)
	}

	unique := Dedupe(raws)
	if err := e.store.Set(ctx, req.UserID, store.KeyFullAPIResponses, unique); err != nil {
		logger.Warn().Err(err).Msg("failed to persist raw snapshot")
	}
	logger.Debug().Int("raw", len(raws)).Int("unique", len(unique)).Msg("upstream results")

	result := &QueryResult{Context: contextName, Mood: req.Mood, Intent: req.Intent}

	switch {
	case req.IsSearch():
		result.Branch = BranchSearch
		formatted := FormatResults(unique)
		result.Entities = formatted
		e.commit(ctx, s, queryID, &req, formatted, formatted, nil, nil)

	case IsWeekendPlan(&req):
		result.Branch = BranchWeekend
		reply, err := e.planWeekend(ctx, req.UserID, city, unique)
		s.mu.Lock()
		if s.queries == queryID {
			s.state = restoreAfterFailure(prevState, s.displayed)
		}
		s.mu.Unlock()
		if err != nil {
			e.errorCount.Add(1)
			return nil, err
		}
		result.Reply = reply

	case req.Mood == MoodNostalgic:
		result.Branch = BranchNostalgic
		formatted := FormatResults(unique)
		liked, vector := e.likedAndVector(ctx, req.UserID)
		reordered := e.reorderer.Reorder(formatted, liked, vector)
		result.Entities = reordered
		result.Diversifying = e.commit(ctx, s, queryID, &req, formatted, reordered, unique, profile)

	default:
		result.Branch = BranchDefault
		formatted := FormatResults(unique)
		result.Entities = formatted
		result.Diversifying = e.commit(ctx, s, queryID, &req, formatted, formatted, unique, profile)
	}

	metrics.RecommendationQueries.WithLabelValues(contextName, result.Branch).Inc()
	logger.Info().
		Str("branch", result.Branch).
		Int("entities", len(result.Entities)).
		Bool("diversifying", result.Diversifying).
		Msg("query complete")
	return result, nil
}

func restoreAfterFailure(prev State, displayed []Entity) State {
	if prev == StateQuerying || prev == StateReordering {
		prev = StateIdle
	}
	if prev == StateIdle && len(displayed) > 0 {
		return StateRawDisplayed
	}
	if prev == StateDiversifying {
		// The pass was cancelled when the query started.
		return StateRawDisplayed
	}
	return prev
}

// commit caches cacheList, displays displayList and, when raws is non-nil,
// starts a background diversification pass over raws. It reports whether a
// pass was started. A commit from a superseded query is dropped.
func (e *Engine) commit(ctx context.Context, s *session, queryID uint64, req *QueryRequest,
	cacheList, displayList []Entity, raws []RawEntity, profile *models.UserProfile) bool {
	contextName := req.ContextName()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queries != queryID {
		e.logger.Debug().Str("context", contextName).Msg("dropping superseded query results")
		return false
	}

	if err := e.store.Set(ctx, req.UserID, store.ContextKey(contextName), cacheList); err != nil {
		e.logger.Warn().Err(err).Str("context", contextName).Msg("failed to cache results")
	}
	s.displayed = displayList
	s.state = StateRawDisplayed
	e.notify(ctx, req.UserID, contextName, "query", s)

	if raws == nil || !e.config.Diversify.Enabled || e.diversifier == nil || len(raws) == 0 {
		return false
	}

	passCtx, cancel := context.WithTimeout(e.baseCtx, e.config.Diversify.Timeout)
	s.cancelPass = cancel
	s.state = StateDiversifying
	gen := s.generation
	prefs := PreferenceTags(profile, req.Query)

	e.passes.Add(1)
	go func() {
		defer e.passes.Done()
		defer cancel()
		e.diversify(passCtx, s, req.UserID, contextName, gen, raws, prefs)
	}()
	return true
}

// diversify runs one background pass and applies its result only if the
// session generation is unchanged. Any failure keeps the current list.
func (e *Engine) diversify(ctx context.Context, s *session, userID, contextName string,
	gen uint64, raws []RawEntity, prefs []string) {
	start := time.Now()
	logger := e.logger.With().Str("user_id", userID).Str("context", contextName).Uint64("generation", gen).Logger()
	e.diversifyCount.Add(1)

	interactions, err := e.history.Collect(ctx, userID)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to collect interactions, diversifying without them")
		interactions = nil
	}

	result, err := e.diversifier.Diversify(ctx, &DiversifyRequest{
		Entities:        raws,
		UserPreferences: prefs,
		Interactions:    interactions,
		Options:         e.config.Diversify.Options(),
	})
	if err == nil && len(result) == 0 {
		err = errors.New("empty diversification result")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen {
		metrics.RecordDiversification(metrics.OutcomeStale, time.Since(start))
		logger.Debug().Uint64("current", s.generation).Msg("discarding stale diversification result")
		return
	}
	s.cancelPass = nil

	if err != nil {
		e.diversifyFailed.Add(1)
		s.state = StateRawDisplayed
		outcome := metrics.OutcomeFailed
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			outcome = metrics.OutcomeTimeout
		}
		metrics.RecordDiversification(outcome, time.Since(start))
		logger.Warn().Err(err).Str("outcome", outcome).Msg("diversification failed, keeping current results")
		return
	}

	formatted := FormatResults(result)
	if err := e.store.Set(e.baseCtx, userID, store.ContextKey(contextName), formatted); err != nil {
		logger.Warn().Err(err).Msg("failed to cache diversified results")
	}
	s.displayed = formatted
	s.state = StateDiversified
	metrics.RecordDiversification(metrics.OutcomeApplied, time.Since(start))
	e.notify(e.baseCtx, userID, contextName, "diversify", s)
	logger.Info().Int("entities", len(formatted)).Dur("duration", time.Since(start)).Msg("diversification applied")
}

// ToggleLike flips the like state of entityID, updates the affinity vector,
// persists the liked set and synchronously re-ranks the context's cached list.
// The reordered list is written back to the cache and displayed; in-flight
// diversification results for the context become stale.
func (e *Engine) ToggleLike(ctx context.Context, userID, contextName, entityID string) (*LikeResult, error) {
	if userID == "" || contextName == "" || entityID == "" {
		return nil, ErrInvalidRequest
	}
	start := time.Now()

	s := e.session(userID, contextName)
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.state
	if prev == StateDiversifying {
		// The pending pass would be stale once the list is reordered.
		s.cancelPending()
		prev = StateRawDisplayed
	}
	s.state = StateReordering
	defer func() { s.state = prev }()

	likedIDs := e.likedIDs(ctx, userID)
	cached := e.cachedList(ctx, userID, contextName)
	if len(cached) == 0 {
		cached = s.displayed
	}

	nowLiked := !NewLikedSet(likedIDs...).Has(entityID)
	vector, err := e.affinity.Update(ctx, userID, findEntity(cached, entityID), nowLiked)
	if err != nil {
		return nil, err
	}

	if nowLiked {
		likedIDs = append(likedIDs, entityID)
	} else {
		likedIDs = removeID(likedIDs, entityID)
	}
	if err := e.store.Set(ctx, userID, store.KeyLikedEntities, likedIDs); err != nil {
		return nil, fmt.Errorf("save liked entities: %w", err)
	}

	reordered := e.reorderer.Reorder(cached, NewLikedSet(likedIDs...), vector)
	if len(reordered) > 0 {
		if err := e.store.Set(ctx, userID, store.ContextKey(contextName), reordered); err != nil {
			e.logger.Warn().Err(err).Str("context", contextName).Msg("failed to cache reordered results")
		}
		s.displayed = reordered
	}
	s.generation++
	e.notify(ctx, userID, contextName, "reorder", s)

	metrics.RecordLike(nowLiked, time.Since(start))
	e.logger.Debug().
		Str("user_id", userID).
		Str("context", contextName).
		Str("entity_id", entityID).
		Bool("liked", nowLiked).
		Msg("like toggled")

	return &LikeResult{
		EntityID: entityID,
		Liked:    nowLiked,
		Entities: cloneEntities(reordered),
		Affinity: vector,
	}, nil
}

// Load serves a context from its cache, re-ranked against the current liked
// set. A missing, corrupt or malformed cache is discarded and the context's
// default query is issued instead.
func (e *Engine) Load(ctx context.Context, userID, contextName string) (*QueryResult, error) {
	if userID == "" || contextName == "" {
		return nil, ErrInvalidRequest
	}

	s := e.session(userID, contextName)
	s.mu.Lock()

	var cached []Entity
	err := e.store.Get(ctx, userID, store.ContextKey(contextName), &cached)
	switch {
	case err == nil && validCache(cached):
		liked, vector := e.likedAndVector(ctx, userID)
		reordered := e.reorderer.Reorder(cached, liked, vector)
		if err := e.store.Set(ctx, userID, store.ContextKey(contextName), reordered); err != nil {
			e.logger.Warn().Err(err).Str("context", contextName).Msg("failed to cache reordered results")
		}
		s.displayed = reordered
		s.generation++
		if s.state == StateIdle {
			s.state = StateRawDisplayed
		}
		e.notify(ctx, userID, contextName, "load", s)
		s.mu.Unlock()
		return &QueryResult{
			Context:   contextName,
			Mood:      Mood(contextName),
			Branch:    BranchDefault,
			Entities:  cloneEntities(reordered),
			FromCache: true,
		}, nil

	case err == nil, errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrCorrupt):
		if err == nil || errors.Is(err, store.ErrCorrupt) {
			metrics.StoreCorruptValues.WithLabelValues("recs").Inc()
			e.logger.Warn().Str("user_id", userID).Str("context", contextName).Msg("discarding invalid cached results")
			if delErr := e.store.Delete(ctx, userID, store.ContextKey(contextName)); delErr != nil {
				e.logger.Warn().Err(delErr).Msg("failed to delete invalid cache")
			}
		}
		s.mu.Unlock()

	default:
		s.mu.Unlock()
		return nil, fmt.Errorf("load cached results: %w", err)
	}

	profile, err := e.ensureProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	req, ok := DefaultQuery(contextName, profile.City(e.config.DefaultCity))
	if !ok {
		return nil, ErrNoDefaultQuery
	}
	req.UserID = userID
	return e.Query(ctx, req)
}

// DefaultQuery is the query that rebuilds a context from scratch.
func DefaultQuery(contextName, city string) (QueryRequest, bool) {
	switch Mood(contextName) {
	case MoodNostalgic:
		return QueryRequest{Query: "I'm feeling nostalgic today", Mood: MoodNostalgic, Intent: IntentExperience}, true
	case MoodAdventurous:
		return QueryRequest{Query: "I want to explore something completely new", Mood: MoodAdventurous, Intent: IntentExplore}, true
	case MoodSocial:
		return QueryRequest{Query: "Plan my weekend in " + city, Mood: MoodSocial, Intent: IntentDiscover}, true
	default:
		return QueryRequest{}, false
	}
}

// Displayed returns a copy of the session's displayed list.
func (e *Engine) Displayed(userID, contextName string) []Entity {
	s := e.session(userID, contextName)
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneEntities(s.displayed)
}

// SessionState returns the session's state and generation.
func (e *Engine) SessionState(userID, contextName string) (State, uint64) {
	s := e.session(userID, contextName)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.generation
}

// Interactions returns the user's interaction history.
func (e *Engine) Interactions(ctx context.Context, userID string) ([]InteractionRecord, error) {
	return e.history.Collect(ctx, userID)
}

// Affinity returns the user's affinity vector.
func (e *Engine) Affinity(ctx context.Context, userID string) (AffinityVector, error) {
	return e.affinity.Vector(ctx, userID)
}

// LikedIDs returns the user's liked entity IDs in like order.
func (e *Engine) LikedIDs(ctx context.Context, userID string) []string {
	return e.likedIDs(ctx, userID)
}

// Metrics is a snapshot of engine counters.
type Metrics struct {
	Requests        int64 `json:"requests"`
	Errors          int64 `json:"errors"`
	Diversified     int64 `json:"diversified"`
	DiversifyFailed int64 `json:"diversify_failed"`
	Sessions        int   `json:"sessions"`
}

// GetMetrics returns current engine counters.
func (e *Engine) GetMetrics() Metrics {
	e.sessionsMu.Lock()
	n := len(e.sessions)
	e.sessionsMu.Unlock()
	return Metrics{
		Requests:        e.requestCount.Load(),
		Errors:          e.errorCount.Load(),
		Diversified:     e.diversifyCount.Load(),
		DiversifyFailed: e.diversifyFailed.Load(),
		Sessions:        n,
	}
}

func (e *Engine) ensureProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	profile, err := e.profiles.GetProfile(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, models.ErrProfileNotFound) {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	profile, err = e.profiles.CreateProfile(ctx, models.NewDefaultProfile(userID, e.config.DefaultCity))
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	e.logger.Info().Str("user_id", userID).Msg("created profile for new user")
	return profile, nil
}

func (e *Engine) fetch(ctx context.Context, plan UpstreamPlan) ([]RawEntity, error) {
	if len(plan.Insights) == 0 {
		return e.upstream.Search(ctx, plan.Search)
	}
	var all []RawEntity
	for _, r := range plan.Insights {
		res, err := e.upstream.Insights(ctx, r)
		if err != nil {
			return nil, err
		}
		all = append(all, res...)
	}
	return all, nil
}

func (e *Engine) planWeekend(ctx context.Context, userID, city string, entities []RawEntity) (string, error) {
	if e.assistant == nil {
		return "", ErrAssistantUnavailable
	}
	candidates := WeekendCandidates(entities)
	reply, err := e.assistant.Chat(ctx, userID, WeekendPrompt(city, candidates))
	if err != nil {
		return "", fmt.Errorf("weekend plan: %w", err)
	}
	return reply, nil
}

func (e *Engine) likedIDs(ctx context.Context, userID string) []string {
	var ids []string
	if err := e.store.Get(ctx, userID, store.KeyLikedEntities, &ids); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			e.logger.Warn().Err(err).Str("user_id", userID).Msg("liked set unreadable, treating as empty")
		}
		return nil
	}
	return ids
}

func (e *Engine) likedAndVector(ctx context.Context, userID string) (LikedSet, AffinityVector) {
	liked := NewLikedSet(e.likedIDs(ctx, userID)...)
	vector, err := e.affinity.Vector(ctx, userID)
	if err != nil {
		e.logger.Warn().Err(err).Str("user_id", userID).Msg("affinity unreadable, treating as empty")
		vector = AffinityVector{}
	}
	return liked, vector
}

// cachedList reads a context cache; unreadable caches are treated as empty.
func (e *Engine) cachedList(ctx context.Context, userID, contextName string) []Entity {
	var cached []Entity
	if err := e.store.Get(ctx, userID, store.ContextKey(contextName), &cached); err != nil {
		return nil
	}
	return cached
}

func (e *Engine) notify(ctx context.Context, userID, contextName, source string, s *session) {
	if e.notifier == nil {
		return
	}
	e.notifier.DisplayChanged(ctx, &DisplayUpdate{
		UserID:     userID,
		Context:    contextName,
		Source:     source,
		Generation: s.generation,
		Entities:   cloneEntities(s.displayed),
	})
}

// validCache reports whether a cached list is non-empty and every entry has
// an id.
func validCache(list []Entity) bool {
	if len(list) == 0 {
		return false
	}
	for i := range list {
		if list[i].EntityID == "" {
			return false
		}
	}
	return true
}

func findEntity(list []Entity, id string) *Entity {
	for i := range list {
		if list[i].EntityID == id {
			e := list[i]
			return &e
		}
	}
	return nil
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}

func cloneEntities(in []Entity) []Entity {
	if in == nil {
		return nil
	}
	out := make([]Entity, len(in))
	copy(out, in)
	return out
}
