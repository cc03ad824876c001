// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/sree-sphere/Qloo-CulturalQuest/internal/api"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/assistant"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/config"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/diversify"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/events"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/gamification"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/logging"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/qloo"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/recommend"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/recommend/reranking"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/store"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/supervisor"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/supervisor/services"
	ws "github.com/sree-sphere/Qloo-CulturalQuest/internal/websocket"
)

// app holds every long-lived component of the server.
type app struct {
	cfg      *config.Config
	store    *store.BadgerStore
	upstream *qloo.Client
	bus      *events.Bus
	hub      *ws.Hub
	engine   *recommend.Engine
	game     *gamification.Service
	chat     *assistant.Service
	speech   *assistant.SpeechClient
	scorer   *recommend.Scorer
	router   http.Handler
	server   *http.Server
}

// buildApp wires the components. Nothing is started; services are added to
// the supervisor tree by addServices.
func buildApp(cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	st, err := openStore(&cfg.Store)
	if err != nil {
		return nil, err
	}
	a.store = st

	a.upstream, err = qloo.NewClient(&cfg.Upstream, logging.WithComponent("qloo"))
	if err != nil {
		a.close()
		return nil, fmt.Errorf("create upstream client: %w", err)
	}

	a.bus, err = events.NewBus(events.DefaultConfig(), logging.WithComponent("events"))
	if err != nil {
		a.close()
		return nil, fmt.Errorf("create event bus: %w", err)
	}
	a.hub = ws.NewHub()
	events.RegisterPush(a.bus, a.hub)

	a.game = gamification.NewService(st, logging.WithComponent("gamification"),
		gamification.WithPublisher(a.bus),
		gamification.WithDefaultCity(cfg.Recommend.DefaultCity),
	)

	if err := a.buildAssistant(); err != nil {
		a.close()
		return nil, err
	}

	if err := a.buildEngine(); err != nil {
		a.close()
		return nil, err
	}

	deps := &api.Dependencies{
		Recommender:  a.engine,
		Gamification: a.game,
		Upstream:     a.upstream,
		Hub:          a.hub,
		Config:       cfg,
	}
	// Optional services stay nil interfaces so the handlers answer 503.
	if a.chat != nil {
		deps.Chat = a.chat
	}
	if a.speech != nil {
		deps.Speech = a.speech
	}
	a.router = api.NewRouter(api.NewHandler(deps), api.ChiMiddlewareConfigFromSecurity(&cfg.Security)).SetupChi()

	a.server = &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		// Streamed chat replies may take the full assistant timeout.
		WriteTimeout: cfg.Server.Timeout + cfg.Assistant.Timeout,
		IdleTimeout:  60 * time.Second,
	}
	return a, nil
}

func openStore(cfg *config.StoreConfig) (*store.BadgerStore, error) {
	if cfg.Backend == "memory" {
		logging.Warn().Msg("Using in-memory store; all user state is lost on restart")
		return store.OpenMemory()
	}
	st, err := store.OpenBadger(store.Options{Path: cfg.Path})
	if err != nil {
		return nil, fmt.Errorf("open store at %s: %w", cfg.Path, err)
	}
	logging.Info().Str("path", cfg.Path).Msg("Badger store opened")
	return st, nil
}

func (a *app) buildAssistant() error {
	if a.cfg.Speech.Enabled {
		speech, err := assistant.NewSpeechClient(&a.cfg.Speech, logging.WithComponent("speech"))
		if err != nil {
			return fmt.Errorf("create speech client: %w", err)
		}
		a.speech = speech
	}
	if !a.cfg.Assistant.Enabled {
		logging.Info().Msg("Assistant disabled; weekend plans and chat are unavailable")
		return nil
	}

	completer, err := assistant.NewStreamClient(&a.cfg.Assistant, logging.WithComponent("assistant"))
	if err != nil {
		return fmt.Errorf("create assistant client: %w", err)
	}
	svcCfg := assistant.ServiceConfig{
		HistoryTurns: a.cfg.Assistant.HistoryTurns,
		DefaultCity:  a.cfg.Recommend.DefaultCity,
	}
	if a.speech != nil {
		svcCfg.Speech = a.speech
	}
	a.chat = assistant.NewService(completer, a.store, a.game, svcCfg, logging.WithComponent("assistant"))
	return nil
}

func (a *app) buildEngine() error {
	groups := recommend.DefaultSimilarityGroups()
	if path := a.cfg.Recommend.SimilarityGroupsPath; path != "" {
		loaded, err := recommend.LoadSimilarityGroups(path)
		if err != nil {
			return err
		}
		groups = loaded
	}
	a.scorer = recommend.NewScorer(groups)

	rc := engineConfig(a.cfg)
	deps := recommend.Dependencies{
		Upstream:  a.upstream,
		Reorderer: reranking.NewReorderer(a.scorer, rc.Reorder.Limit, rc.Reorder.Jitter, rc.Seed),
		Profiles:  a.game,
		Store:     a.store,
		Notifier:  a.bus,
	}
	if rc.Diversify.Enabled {
		d, err := newDiversifier(&a.cfg.Diversifier)
		if err != nil {
			return err
		}
		deps.Diversifier = d
	}
	if a.chat != nil {
		deps.Assistant = a.chat
	}

	engine, err := recommend.NewEngine(rc, deps, logging.WithComponent("recommend"))
	if err != nil {
		return fmt.Errorf("create recommendation engine: %w", err)
	}
	a.engine = engine
	return nil
}

// engineConfig maps the application config onto the engine's.
func engineConfig(cfg *config.Config) *recommend.Config {
	rc := recommend.DefaultConfig()
	rc.Diversify.Enabled = cfg.Diversifier.Enabled
	rc.Diversify.TotalCount = cfg.Diversifier.TotalCount
	rc.Diversify.HighAffinityCount = cfg.Diversifier.HighAffinityCount
	rc.Diversify.Lambda = cfg.Diversifier.Lambda
	rc.Diversify.Timeout = cfg.Diversifier.Timeout
	rc.Reorder.Limit = cfg.Recommend.ReorderLimit
	rc.Reorder.Jitter = cfg.Recommend.Jitter
	rc.UpstreamTake = cfg.Upstream.Take
	rc.DefaultCity = cfg.Recommend.DefaultCity
	return rc
}

// newDiversifier calls the standalone service when a URL is configured and
// diversifies in process otherwise.
func newDiversifier(cfg *config.DiversifierConfig) (recommend.Diversifier, error) {
	if cfg.URL == "" {
		logging.Info().Msg("Diversifying in process")
		return diversify.NewLocal(logging.WithComponent("diversify")), nil
	}
	client, err := diversify.NewHTTPClient(cfg.URL, cfg.Timeout, logging.WithComponent("diversify"))
	if err != nil {
		return nil, fmt.Errorf("create diversifier client: %w", err)
	}
	logging.Info().Str("url", cfg.URL).Msg("Using remote diversifier")
	return client, nil
}

// addServices registers the long-running services in the tree.
func (a *app) addServices(tree *supervisor.SupervisorTree) error {
	if a.cfg.Store.Backend != "memory" {
		gc, err := store.NewGCScheduler(a.store, a.cfg.Store.GCSchedule, a.cfg.Store.GCDiscardRatio, logging.WithComponent("store"))
		if err != nil {
			return err
		}
		tree.AddDataService(gc)
	}

	if path := a.cfg.Recommend.SimilarityGroupsPath; path != "" {
		sim := services.NewSimilarityService(services.ReloaderFunc(a.reloadGroups),
			services.SimilarityServiceConfig{}, logging.WithComponent("similarity"))
		if a.cfg.Recommend.WatchSimilarityGroups {
			if err := config.WatchConfigFile(path, sim.Trigger); err != nil {
				logging.Warn().Err(err).Str("path", path).Msg("Cannot watch similarity groups; edits need a restart")
			}
		}
		tree.AddDataService(sim)
	}

	tree.AddMessagingService(services.NewEventRouterService(a.bus))
	tree.AddMessagingService(services.NewPushHubService(a.hub, logging.WithComponent("websocket")))
	tree.AddAPIService(services.NewHTTPServerService(a.server, a.cfg.Server.ShutdownTimeout, logging.WithComponent("http")))
	return nil
}

// reloadGroups swaps the similarity table. A bad file keeps the old table.
func (a *app) reloadGroups(_ context.Context) error {
	groups, err := recommend.LoadSimilarityGroups(a.cfg.Recommend.SimilarityGroupsPath)
	if err != nil {
		return err
	}
	a.scorer.SetGroups(groups)
	logging.Info().
		Int("categories", len(groups.Categories)).
		Int("cuisines", len(groups.Cuisines)).
		Msg("Similarity groups reloaded")
	return nil
}

// close releases what buildApp acquired. It is safe on a partial app.
func (a *app) close() {
	if a.engine != nil {
		a.engine.Close()
	}
	if a.upstream != nil {
		a.upstream.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}
}

// logStartup summarizes the effective configuration.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func logStartup(cfg *config.Config, logger zerolog.Logger) {
	logger.Info().
		Str("addr", cfg.Server.Addr()).
		Str("environment", cfg.Server.Environment).
		Str("store", cfg.Store.Backend).
		Bool("diversify", cfg.Diversifier.Enabled).
		Str("diversifier_url", cfg.Diversifier.URL).
		Bool("assistant", cfg.Assistant.Enabled).
		Bool("speech", cfg.Speech.Enabled).
		Msg("Configuration loaded")

	if cfg.Security.RateLimitDisabled {
		logger.Warn().Msg("Rate limiting is DISABLED")
	}
	for _, origin := range cfg.Security.CORSOrigins {
		if origin == "*" && cfg.Server.IsProduction() {
			logger.Warn().Msg("CORS allows any origin in production; set CORS_ORIGINS")
			break
		}
	}
}
