// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

// Package main runs the standalone diversification service.
//
// It serves POST /api/diversify on DIVERSIFY_PORT (default 8090) and shares
// configuration loading, logging and supervision with the main server. The
// main server calls it when DIVERSIFY_URL is set and diversifies in process
// otherwise.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sree-sphere/Qloo-CulturalQuest/internal/config"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/diversify"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/logging"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/supervisor"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/supervisor/services"
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

	logger := logging.WithComponent("diversifier")
	server := diversify.NewServer(diversify.NewLocal(logger), cfg.Diversifier.Timeout, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Diversifier.ListenPort),
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		// A pass may run for the full processing timeout.
		WriteTimeout: cfg.Diversifier.Timeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		Name:            "diversifier",
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}
	tree.AddAPIService(services.NewNamedHTTPServerService("diversifier-http", httpServer, cfg.Server.ShutdownTimeout, logger))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", httpServer.Addr).Msg("Diversification service starting")
	for err := range tree.ServeBackground(ctx) {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}
	logging.Info().Msg("Diversification service stopped")
}
