// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

// Package main is the entry point for the CulturalQuest API server.
//
// The server answers mood and free-text queries with cultural
// recommendations from the upstream taste graph, re-ranks them as the user
// likes entries, awards points and badges, and pushes refined lists and
// gamification events over a WebSocket.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: defaults, optional config.yaml and environment (Koanf v2)
//  2. Store: per-user state in BadgerDB, or in memory with STORE_BACKEND=memory
//  3. Upstream client with rate limiting, caching and a circuit breaker
//  4. Event bus (Watermill GoChannel) and the WebSocket hub
//  5. Gamification, assistant and speech services
//  6. Recommendation engine with the diversifier and re-ranker
//  7. HTTP API (chi)
//
// Long-running parts run under a suture supervisor tree: store GC and the
// similarity table reloader in the data layer, the event router and the
// hub in the messaging layer, and the HTTP server in the API layer.
//
// # Diversification
//
// With DIVERSIFY_URL set the server calls cmd/diversifier over HTTP. With
// DIVERSIFY_URL empty it diversifies in process.
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the root context. The tree stops the HTTP server
// gracefully, then the remaining services, and the store is closed last.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sree-sphere/Qloo-CulturalQuest/internal/config"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/logging"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/supervisor"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	logging.Info().Msg("Starting CulturalQuest with supervisor tree")
	logStartup(cfg, logging.Logger())

	a, err := buildApp(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer a.close()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}
	if err := a.addServices(tree); err != nil {
		logging.Fatal().Err(err).Msg("Failed to register services")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().
		Str("addr", a.server.Addr).
		Interface("services", tree.ServiceCounts()).
		Msg("Starting supervisor tree...")
	for err := range tree.ServeBackground(ctx) {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
	}

	logging.Info().Msg("Application stopped gracefully")
}
