// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package recommend_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sree-sphere/Qloo-CulturalQuest/internal/models"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/recommend"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/recommend/reranking"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/store"
)

// mockUpstream returns fixed results and counts calls.
type mockUpstream struct {
	insights []recommend.RawEntity
	search   []recommend.RawEntity
	err      error

	insightCalls atomic.Int32
	searchCalls  atomic.Int32
}

func (m *mockUpstream) Insights(_ context.Context, _ *recommend.InsightsRequest) ([]recommend.RawEntity, error) {
	m.insightCalls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return m.insights, nil
}

func (m *mockUpstream) Search(_ context.Context, _ string) ([]recommend.RawEntity, error) {
	m.searchCalls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return m.search, nil
}

// mockDiversifier returns result after release is closed (if set). It
// ignores ctx unless honourCtx is true.
type mockDiversifier struct {
	result    []recommend.RawEntity
	err       error
	release   chan struct{}
	started   chan struct{}
	honourCtx bool

	mu       sync.Mutex
	requests []*recommend.DiversifyRequest
}

func (m *mockDiversifier) Diversify(ctx context.Context, req *recommend.DiversifyRequest) ([]recommend.RawEntity, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.started != nil {
		close(m.started)
	}
	if m.honourCtx {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.release != nil {
		<-m.release
	}
	return m.result, m.err
}

type mockAssistant struct {
	reply    string
	messages []string
}

func (m *mockAssistant) Chat(_ context.Context, _ string, message string) (string, error) {
	m.messages = append(m.messages, message)
	return m.reply, nil
}

type mockProfiles struct {
	mu       sync.Mutex
	profiles map[string]*models.UserProfile
	created  int
}

func (m *mockProfiles) GetProfile(_ context.Context, uid string) (*models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[uid]; ok {
		return p, nil
	}
	return nil, models.ErrProfileNotFound
}

func (m *mockProfiles) CreateProfile(_ context.Context, p *models.UserProfile) (*models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profiles == nil {
		m.profiles = make(map[string]*models.UserProfile)
	}
	m.profiles[p.UserID] = p
	m.created++
	return p, nil
}

// recordingNotifier forwards updates to a buffered channel.
type recordingNotifier struct {
	updates chan *recommend.DisplayUpdate
}

func (n *recordingNotifier) DisplayChanged(_ context.Context, u *recommend.DisplayUpdate) {
	select {
	case n.updates <- u:
	default:
	}
}

type harness struct {
	engine   *recommend.Engine
	store    *store.BadgerStore
	upstream *mockUpstream
	div      *mockDiversifier
	chat     *mockAssistant
	profiles *mockProfiles
	notes    *recordingNotifier
}

func places() []recommend.RawEntity {
	return []recommend.RawEntity{
		{EntityID: "a", Name: "Nonna's Kitchen", Tags: []recommend.Tag{{Name: "Italian Restaurant", Type: "urn:tag:category:place"}}},
		{EntityID: "b", Name: "Sakura Sushi", Tags: []recommend.Tag{{Name: "Sushi Bar", Type: "urn:tag:category:place"}}},
		{EntityID: "c", Name: "Trattoria Roma", Tags: []recommend.Tag{{Name: "Italian Bistro", Type: "urn:tag:category:place"}}},
		{EntityID: "a", Name: "Nonna's Kitchen"},
	}
}

func newHarness(t *testing.T, mutate func(cfg *recommend.Config, h *harness)) *harness {
	t.Helper()

	st, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	h := &harness{
		store:    st,
		upstream: &mockUpstream{insights: places(), search: places()},
		div:      &mockDiversifier{},
		chat:     &mockAssistant{reply: "Saturday: brunch at Green Bowl."},
		profiles: &mockProfiles{profiles: map[string]*models.UserProfile{
			"u1": {UserID: "u1", Location: models.Location{Current: "Toronto"},
				Preferences: models.Preferences{Cuisines: []string{"italian"}}},
		}},
		notes: &recordingNotifier{updates: make(chan *recommend.DisplayUpdate, 32)},
	}
	h.div.result = []recommend.RawEntity{places()[1]}

	cfg := recommend.DefaultConfig()
	cfg.Reorder.Jitter = 0
	if mutate != nil {
		mutate(cfg, h)
	}

	e, err := recommend.NewEngine(cfg, recommend.Dependencies{
		Upstream:    h.upstream,
		Diversifier: h.div,
		Reorderer:   reranking.NewReorderer(nil, cfg.Reorder.Limit, cfg.Reorder.Jitter, 1),
		Assistant:   h.chat,
		Profiles:    h.profiles,
		Store:       st,
		Notifier:    h.notes,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	t.Cleanup(e.Close)
	h.engine = e
	return h
}

func entityIDs(es []recommend.Entity) string {
	ids := make([]string, 0, len(es))
	for i := range es {
		ids = append(ids, es[i].EntityID)
	}
	return strings.Join(ids, ",")
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func (h *harness) cached(t *testing.T, uid, ctxName string) string {
	t.Helper()
	var list []recommend.Entity
	if err := h.store.Get(context.Background(), uid, store.ContextKey(ctxName), &list); err != nil {
		t.Fatalf("cache %s: %v", ctxName, err)
	}
	return entityIDs(list)
}

func TestNewEngine_RequiresDependencies(t *testing.T) {
	t.Parallel()

	if _, err := recommend.NewEngine(nil, recommend.Dependencies{}, zerolog.Nop()); err == nil {
		t.Error("expected error for missing dependencies")
	}

	bad := recommend.DefaultConfig()
	bad.Diversify.Lambda = 2
	if _, err := recommend.NewEngine(bad, recommend.Dependencies{}, zerolog.Nop()); err == nil {
		t.Error("expected error for invalid config")
	}
}

func TestQuery_SearchBranch(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	ctx := context.Background()

	res, err := h.engine.Query(ctx, recommend.QueryRequest{UserID: "u1", Query: "sushi near me", Mood: recommend.MoodSearch})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if res.Branch != recommend.BranchSearch || res.Context != "search" {
		t.Errorf("branch/context = %s/%s", res.Branch, res.Context)
	}
	if res.Diversifying {
		t.Error("search results must not be diversified")
	}
	if got := entityIDs(res.Entities); got != "a,b,c" {
		t.Errorf("entities = %s, want deduplicated a,b,c", got)
	}
	if h.upstream.searchCalls.Load() != 1 || h.upstream.insightCalls.Load() != 0 {
		t.Error("search branch should call Search only")
	}
	if got := h.cached(t, "u1", "search"); got != "a,b,c" {
		t.Errorf("cache = %s", got)
	}
	if state, _ := h.engine.SessionState("u1", "search"); state != recommend.StateRawDisplayed {
		t.Errorf("state = %s", state)
	}
}

func TestQuery_DefaultBranchAppliesDiversification(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	res, err := h.engine.Query(context.Background(), recommend.QueryRequest{
		UserID: "u1", Query: "something calm", Mood: recommend.MoodRelaxed, Intent: recommend.IntentPlan,
	})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if res.Branch != recommend.BranchDefault || !res.Diversifying {
		t.Fatalf("result = %+v", res)
	}
	if got := entityIDs(res.Entities); got != "a,b,c" {
		t.Errorf("immediate entities = %s", got)
	}

	waitFor(t, "diversified state", func() bool {
		state, _ := h.engine.SessionState("u1", "relaxed")
		return state == recommend.StateDiversified
	})
	if got := entityIDs(h.engine.Displayed("u1", "relaxed")); got != "b" {
		t.Errorf("displayed = %s, want diversified b", got)
	}
	if got := h.cached(t, "u1", "relaxed"); got != "b" {
		t.Errorf("cache = %s, want diversified b", got)
	}

	h.div.mu.Lock()
	req := h.div.requests[0]
	h.div.mu.Unlock()
	if len(req.Entities) != 3 || req.Options.TotalCount != 8 || req.Options.HighAffinityCount != 3 {
		t.Errorf("diversify request = %+v", req)
	}
	if len(req.UserPreferences) != 2 || req.UserPreferences[0] != "italian" || req.UserPreferences[1] != "something calm" {
		t.Errorf("preferences = %v", req.UserPreferences)
	}
}

func TestQuery_NostalgicReordersButCachesRaw(t *testing.T) {
	t.Parallel()
	h := newHarness(t, func(cfg *recommend.Config, _ *harness) { cfg.Diversify.Enabled = false })
	ctx := context.Background()

	if err := h.store.Set(ctx, "u1", store.KeyLikedEntities, []string{"b"}); err != nil {
		t.Fatal(err)
	}

	res, err := h.engine.Query(ctx, recommend.QueryRequest{
		UserID: "u1", Query: "I'm feeling nostalgic today", Mood: recommend.MoodNostalgic, Intent: recommend.IntentExperience,
	})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if res.Branch != recommend.BranchNostalgic {
		t.Errorf("branch = %s", res.Branch)
	}
	if h.upstream.insightCalls.Load() != 2 {
		t.Errorf("insight calls = %d, want heritage and cuisine", h.upstream.insightCalls.Load())
	}
	if got := entityIDs(res.Entities); !strings.HasPrefix(got, "b,") {
		t.Errorf("entities = %s, want liked b first", got)
	}
	if got := h.cached(t, "u1", "nostalgic"); got != "a,b,c" {
		t.Errorf("cache = %s, want pre-reorder a,b,c", got)
	}
}

func TestQuery_InferredNostalgicMoodTakesNostalgicBranch(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	ctx := context.Background()

	res, err := h.engine.Query(ctx, recommend.QueryRequest{UserID: "u1", Query: "I'm feeling nostalgic today"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if res.Branch != recommend.BranchNostalgic || res.Context != "nostalgic" {
		t.Errorf("branch/context = %s/%s, want nostalgic/nostalgic", res.Branch, res.Context)
	}
	if !res.Diversifying {
		t.Error("nostalgic query should start background diversification")
	}
	if h.upstream.searchCalls.Load() != 0 || h.upstream.insightCalls.Load() != 2 {
		t.Errorf("search/insight calls = %d/%d, want 0/2", h.upstream.searchCalls.Load(), h.upstream.insightCalls.Load())
	}
	waitFor(t, "diversified state", func() bool {
		state, _ := h.engine.SessionState("u1", "nostalgic")
		return state == recommend.StateDiversified
	})
	if got := h.cached(t, "u1", "nostalgic"); got != "b" {
		t.Errorf("cache = %s, want diversified b", got)
	}
}

func TestQuery_WeekendPlanUsesAssistant(t *testing.T) {
	t.Parallel()
	h := newHarness(t, func(_ *recommend.Config, h *harness) {
		h.upstream.insights = []recommend.RawEntity{{
			EntityID: "g", Name: "Green Bowl",
			Tags: []recommend.Tag{{Name: "Vegan"}},
			Properties: recommend.Properties{Hours: map[string][]recommend.OpeningSpan{
				"Saturday": {{Opens: "T09:00", Closes: "T17:00"}},
				"Sunday":   {{Opens: "T09:00", Closes: "T17:00"}},
			}},
		}}
	})

	res, err := h.engine.Query(context.Background(), recommend.QueryRequest{
		UserID: "u1", Query: "Plan my weekend in Toronto", Mood: recommend.MoodSocial, Intent: recommend.IntentDiscover,
	})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if res.Branch != recommend.BranchWeekend || res.Reply != h.chat.reply {
		t.Errorf("result = %+v", res)
	}
	if len(h.chat.messages) != 1 || !strings.Contains(h.chat.messages[0], "- Green Bowl") {
		t.Errorf("assistant messages = %v", h.chat.messages)
	}
}

func TestQuery_UpstreamFailure(t *testing.T) {
	t.Parallel()
	h := newHarness(t, func(cfg *recommend.Config, _ *harness) { cfg.Diversify.Enabled = false })
	ctx := context.Background()
	req := recommend.QueryRequest{UserID: "u1", Query: "calm", Mood: recommend.MoodRelaxed, Intent: recommend.IntentPlan}

	if _, err := h.engine.Query(ctx, req); err != nil {
		t.Fatal(err)
	}
	h.upstream.err = errors.New("502 bad gateway")

	_, err := h.engine.Query(ctx, req)
	if !errors.Is(err, recommend.ErrUpstreamQuery) {
		t.Fatalf("error = %v, want ErrUpstreamQuery", err)
	}
	if got := entityIDs(h.engine.Displayed("u1", "relaxed")); got != "a,b,c" {
		t.Errorf("displayed = %s, previous list should survive", got)
	}
	if state, _ := h.engine.SessionState("u1", "relaxed"); state != recommend.StateRawDisplayed {
		t.Errorf("state = %s", state)
	}
}

func TestQuery_InvalidRequest(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	if _, err := h.engine.Query(context.Background(), recommend.QueryRequest{UserID: "u1"}); !errors.Is(err, recommend.ErrInvalidRequest) {
		t.Errorf("error = %v, want ErrInvalidRequest", err)
	}
}

func TestQuery_CreatesProfileForNewUser(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	if _, err := h.engine.Query(context.Background(), recommend.QueryRequest{UserID: "newbie", Query: "tacos"}); err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	p, err := h.profiles.GetProfile(context.Background(), "newbie")
	if err != nil {
		t.Fatalf("profile not created: %v", err)
	}
	if p.Location.Current != "Toronto" || p.Demographics.Age != models.DefaultAgeBucket {
		t.Errorf("profile = %+v", p)
	}
}

func TestDiversification_FailureKeepsList(t *testing.T) {
	t.Parallel()
	h := newHarness(t, func(_ *recommend.Config, h *harness) { h.div.err = errors.New("engine down") })

	if _, err := h.engine.Query(context.Background(), recommend.QueryRequest{
		UserID: "u1", Query: "calm", Mood: recommend.MoodRelaxed, Intent: recommend.IntentPlan,
	}); err != nil {
		t.Fatal(err)
	}

	waitFor(t, "raw state", func() bool {
		state, _ := h.engine.SessionState("u1", "relaxed")
		return state == recommend.StateRawDisplayed
	})
	if got := entityIDs(h.engine.Displayed("u1", "relaxed")); got != "a,b,c" {
		t.Errorf("displayed = %s", got)
	}
	if got := h.engine.GetMetrics().DiversifyFailed; got != 1 {
		t.Errorf("DiversifyFailed = %d", got)
	}
}

func TestDiversification_EmptyResultKeepsList(t *testing.T) {
	t.Parallel()
	h := newHarness(t, func(_ *recommend.Config, h *harness) { h.div.result = nil })

	if _, err := h.engine.Query(context.Background(), recommend.QueryRequest{
		UserID: "u1", Query: "calm", Mood: recommend.MoodRelaxed, Intent: recommend.IntentPlan,
	}); err != nil {
		t.Fatal(err)
	}
	h.engine.Close()

	if got := entityIDs(h.engine.Displayed("u1", "relaxed")); got != "a,b,c" {
		t.Errorf("displayed = %s", got)
	}
}

func TestDiversification_Timeout(t *testing.T) {
	t.Parallel()
	h := newHarness(t, func(cfg *recommend.Config, h *harness) {
		cfg.Diversify.Timeout = 30 * time.Millisecond
		h.div.honourCtx = true
	})

	if _, err := h.engine.Query(context.Background(), recommend.QueryRequest{
		UserID: "u1", Query: "calm", Mood: recommend.MoodRelaxed, Intent: recommend.IntentPlan,
	}); err != nil {
		t.Fatal(err)
	}

	waitFor(t, "timeout fallback", func() bool {
		state, _ := h.engine.SessionState("u1", "relaxed")
		return state == recommend.StateRawDisplayed
	})
	if got := h.cached(t, "u1", "relaxed"); got != "a,b,c" {
		t.Errorf("cache = %s, want raw list after timeout", got)
	}
}

func TestDiversification_StaleAfterLike(t *testing.T) {
	t.Parallel()
	started := make(chan struct{})
	release := make(chan struct{})
	h := newHarness(t, func(_ *recommend.Config, h *harness) {
		h.div.started = started
		h.div.release = release
	})
	ctx := context.Background()

	if _, err := h.engine.Query(ctx, recommend.QueryRequest{
		UserID: "u1", Query: "calm", Mood: recommend.MoodRelaxed, Intent: recommend.IntentPlan,
	}); err != nil {
		t.Fatal(err)
	}
	<-started

	like, err := h.engine.ToggleLike(ctx, "u1", "relaxed", "c")
	if err != nil {
		t.Fatalf("ToggleLike() error = %v", err)
	}
	if !like.Liked || entityIDs(like.Entities) != "c,a,b" {
		t.Errorf("like = %+v", like)
	}

	close(release)
	h.engine.Close()

	if got := entityIDs(h.engine.Displayed("u1", "relaxed")); got != "c,a,b" {
		t.Errorf("displayed = %s, stale diversification must not overwrite", got)
	}
	if got := h.cached(t, "u1", "relaxed"); got != "c,a,b" {
		t.Errorf("cache = %s", got)
	}
}

func TestToggleLike_LikeThenUnlike(t *testing.T) {
	t.Parallel()
	h := newHarness(t, func(cfg *recommend.Config, _ *harness) { cfg.Diversify.Enabled = false })
	ctx := context.Background()

	if _, err := h.engine.Query(ctx, recommend.QueryRequest{
		UserID: "u1", Query: "calm", Mood: recommend.MoodRelaxed, Intent: recommend.IntentPlan,
	}); err != nil {
		t.Fatal(err)
	}
	_, genBefore := h.engine.SessionState("u1", "relaxed")

	first, err := h.engine.ToggleLike(ctx, "u1", "relaxed", "a")
	if err != nil {
		t.Fatal(err)
	}
	if !first.Liked || first.Entities[0].EntityID != "a" {
		t.Errorf("first toggle = %+v", first)
	}
	if got := entityIDs(first.Entities); got != "a,c,b" {
		t.Errorf("reordered = %s, want a,c,b", got)
	}
	if first.Affinity["cuisine_italian restaurant"] <= 0 {
		t.Errorf("affinity = %v", first.Affinity)
	}
	if ids := h.engine.LikedIDs(ctx, "u1"); len(ids) != 1 || ids[0] != "a" {
		t.Errorf("liked ids = %v", ids)
	}

	second, err := h.engine.ToggleLike(ctx, "u1", "relaxed", "a")
	if err != nil {
		t.Fatal(err)
	}
	if second.Liked {
		t.Error("second toggle should unlike")
	}
	if ids := h.engine.LikedIDs(ctx, "u1"); len(ids) != 0 {
		t.Errorf("liked ids = %v, want empty", ids)
	}
	if _, genAfter := h.engine.SessionState("u1", "relaxed"); genAfter != genBefore+2 {
		t.Errorf("generation = %d, want %d", genAfter, genBefore+2)
	}

	select {
	case u := <-h.notes.updates:
		if u.UserID != "u1" {
			t.Errorf("update = %+v", u)
		}
	default:
		t.Error("expected display notifications")
	}
}

func TestToggleLike_InvalidRequest(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	if _, err := h.engine.ToggleLike(context.Background(), "u1", "relaxed", ""); !errors.Is(err, recommend.ErrInvalidRequest) {
		t.Errorf("error = %v", err)
	}
}

func TestLoad_ValidCacheIsReordered(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	ctx := context.Background()

	cached := recommend.FormatResults(recommend.Dedupe(places()))
	if err := h.store.Set(ctx, "u1", store.ContextKey("nostalgic"), cached); err != nil {
		t.Fatal(err)
	}
	if err := h.store.Set(ctx, "u1", store.KeyLikedEntities, []string{"c"}); err != nil {
		t.Fatal(err)
	}

	res, err := h.engine.Load(ctx, "u1", "nostalgic")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !res.FromCache || entityIDs(res.Entities) != "c,a,b" {
		t.Errorf("Load() = %+v", res)
	}
	if h.upstream.insightCalls.Load() != 0 {
		t.Error("valid cache must not hit the upstream")
	}
	if got := h.cached(t, "u1", "nostalgic"); got != "c,a,b" {
		t.Errorf("cache = %s, want reordered list written back", got)
	}
}

func TestLoad_CorruptCacheReissuesDefaultQuery(t *testing.T) {
	t.Parallel()
	h := newHarness(t, func(cfg *recommend.Config, _ *harness) { cfg.Diversify.Enabled = false })
	ctx := context.Background()

	if err := h.store.Set(ctx, "u1", store.ContextKey("adventurous"), "garbage"); err != nil {
		t.Fatal(err)
	}

	res, err := h.engine.Load(ctx, "u1", "adventurous")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if res.FromCache || res.Context != "adventurous" {
		t.Errorf("Load() = %+v", res)
	}
	if h.upstream.insightCalls.Load() != 1 {
		t.Errorf("insight calls = %d, want default query", h.upstream.insightCalls.Load())
	}
	if got := h.cached(t, "u1", "adventurous"); got != "a,b,c" {
		t.Errorf("cache = %s", got)
	}
}

func TestLoad_EntriesWithoutIDAreInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		cached []recommend.Entity
	}{
		{"only entry", []recommend.Entity{{Name: "no id"}}},
		{"later entry", []recommend.Entity{{EntityID: "a", Name: "ok"}, {Name: "no id"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, func(cfg *recommend.Config, _ *harness) { cfg.Diversify.Enabled = false })
			ctx := context.Background()

			if err := h.store.Set(ctx, "u1", store.ContextKey("social"), tt.cached); err != nil {
				t.Fatal(err)
			}

			res, err := h.engine.Load(ctx, "u1", "social")
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if res.FromCache || res.Branch != recommend.BranchWeekend {
				t.Errorf("fromCache/branch = %v/%s, want default weekend query", res.FromCache, res.Branch)
			}
		})
	}
}

func TestLoad_NoDefaultQuery(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	if _, err := h.engine.Load(context.Background(), "u1", "spiritual"); !errors.Is(err, recommend.ErrNoDefaultQuery) {
		t.Errorf("error = %v, want ErrNoDefaultQuery", err)
	}
}

func TestDefaultQuery(t *testing.T) {
	t.Parallel()

	q, ok := recommend.DefaultQuery("social", "Ottawa")
	if !ok || q.Query != "Plan my weekend in Ottawa" || q.Intent != recommend.IntentDiscover {
		t.Errorf("DefaultQuery(social) = %+v, %v", q, ok)
	}
	if _, ok := recommend.DefaultQuery("search", "Ottawa"); ok {
		t.Error("search has no default query")
	}
}

func TestState_String(t *testing.T) {
	t.Parallel()

	if recommend.StateDiversifying.String() != "diversifying" || recommend.State(99).String() != "unknown" {
		t.Error("unexpected state names")
	}
}
