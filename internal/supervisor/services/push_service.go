// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package services

import (
	"context"

	"github.com/rs/zerolog"
)

// PushHub is the subset of *websocket.Hub the service drives.
type PushHub interface {
	RunWithContext(ctx context.Context) error
	GetClientCount() int
}

// PushHubService runs the WebSocket push hub under suture. Clients
// reconnect on their own after a restart.
type PushHubService struct {
	hub    PushHub
	logger zerolog.Logger
}

// NewPushHubService wraps hub.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewPushHubService(hub PushHub, logger zerolog.Logger) *PushHubService {
	return &PushHubService{
		hub:    hub,
		logger: logger.With().Str("service", "push-hub").Logger(),
	}
}

// Serve implements suture.Service.
func (s *PushHubService) Serve(ctx context.Context) error {
	err := s.hub.RunWithContext(ctx)
	s.logger.Info().
		Int("clients", s.hub.GetClientCount()).
		AnErr("reason", err).
		Msg("push hub stopped")
	return err
}

// String names the service in supervisor logs.
func (s *PushHubService) String() string {
	return "push-hub"
}
