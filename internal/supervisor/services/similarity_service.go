// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// GroupReloader reloads the keyword similarity table from its source.
type GroupReloader interface {
	Reload(ctx context.Context) error
}

// ReloaderFunc adapts a function to GroupReloader.
type ReloaderFunc func(ctx context.Context) error

// Reload calls f.
func (f ReloaderFunc) Reload(ctx context.Context) error { return f(ctx) }

// SimilarityServiceConfig controls when the table is reloaded.
type SimilarityServiceConfig struct {
	// ReloadOnStartup reloads once when the service starts.
	ReloadOnStartup bool

	// ReloadInterval forces a periodic reload. Zero disables it.
	ReloadInterval time.Duration

	// ReloadTimeout bounds a single reload. Default: 10s
	ReloadTimeout time.Duration
}

// SimilarityService keeps the similarity table fresh. Reloads happen on
// startup, on a ticker and whenever Trigger is called (file watcher).
type SimilarityService struct {
	reloader GroupReloader
	config   SimilarityServiceConfig
	trigger  chan struct{}
	logger   zerolog.Logger
	name     string
}

// NewSimilarityService creates the reload service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewSimilarityService(reloader GroupReloader, cfg SimilarityServiceConfig, logger zerolog.Logger) *SimilarityService {
	if cfg.ReloadTimeout <= 0 {
		cfg.ReloadTimeout = 10 * time.Second
	}
	return &SimilarityService{
		reloader: reloader,
		config:   cfg,
		trigger:  make(chan struct{}, 1),
		logger:   logger.With().Str("service", "similarity").Logger(),
		name:     "similarity-service",
	}
}

// Trigger requests a reload. Requests made while one is pending coalesce.
func (s *SimilarityService) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Serve implements suture.Service.
func (s *SimilarityService) Serve(ctx context.Context) error {
	if s.config.ReloadOnStartup {
		s.reload(ctx, "startup")
	}

	var tick <-chan time.Time
	if s.config.ReloadInterval > 0 {
		ticker := time.NewTicker(s.config.ReloadInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
			s.reload(ctx, "interval")
		case <-s.trigger:
			s.reload(ctx, "watch")
		}
	}
}

// reload never fails the service; the previous table stays in effect.
func (s *SimilarityService) reload(ctx context.Context, reason string) {
	reloadCtx, cancel := context.WithTimeout(ctx, s.config.ReloadTimeout)
	defer cancel()

	start := time.Now()
	if err := s.reloader.Reload(reloadCtx); err != nil {
		s.logger.Warn().Err(err).Str("reason", reason).Msg("similarity table reload failed, keeping previous table")
		return
	}
	s.logger.Info().Str("reason", reason).Dur("duration", time.Since(start)).Msg("similarity table reloaded")
}

// String names the service in supervisor logs.
func (s *SimilarityService) String() string {
	return s.name
}
