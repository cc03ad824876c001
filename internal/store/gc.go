// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package store

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// GarbageCollector is anything that can reclaim space on demand.
type GarbageCollector interface {
	RunGC(discardRatio float64) error
}

// GCScheduler runs value-log GC on a cron schedule. It implements
// suture.Service through Serve.
type GCScheduler struct {
	target       GarbageCollector
	spec         string
	discardRatio float64
	logger       zerolog.Logger
}

// NewGCScheduler validates spec ("@every 10m", "0 */6 * * *") and returns a scheduler.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewGCScheduler(target GarbageCollector, spec string, discardRatio float64, logger zerolog.Logger) (*GCScheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("parse gc schedule %q: %w", spec, err)
	}
	return &GCScheduler{
		target:       target,
		spec:         spec,
		discardRatio: discardRatio,
		logger:       logger.With().Str("component", "store-gc").Logger(),
	}, nil
}

// Serve runs until ctx is canceled.
func (g *GCScheduler) Serve(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(g.spec, g.runOnce); err != nil {
		return fmt.Errorf("schedule gc: %w", err)
	}
	c.Start()
	g.logger.Info().Str("schedule", g.spec).Msg("Store GC scheduled")

	<-ctx.Done()
	<-c.Stop().Done()
	return ctx.Err()
}

func (g *GCScheduler) runOnce() {
	if err := g.target.RunGC(g.discardRatio); err != nil {
		g.logger.Warn().Err(err).Msg("Store GC failed")
		return
	}
	g.logger.Debug().Msg("Store GC pass complete")
}

// String names the service in supervisor logs.
func (g *GCScheduler) String() string {
	return "store-gc"
}
