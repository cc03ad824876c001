// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/thejerf/suture/v4"
)

// EventRouter matches (*events.Bus).
type EventRouter interface {
	Run(ctx context.Context) error
	Close() error
}

// EventRouterService runs the event bus router under suture.
//
// A watermill router cannot run twice, so an unexpected exit is reported
// with suture.ErrDoNotRestart and the bus is closed; the rest of the
// process keeps serving without live pushes.
type EventRouterService struct {
	router EventRouter
	name   string
}

// NewEventRouterService wraps router.
func NewEventRouterService(router EventRouter) *EventRouterService {
	return &EventRouterService{router: router, name: "event-router"}
}

// Serve implements suture.Service.
func (s *EventRouterService) Serve(ctx context.Context) error {
	err := s.router.Run(ctx)
	closeErr := s.router.Close()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err == nil {
		err = errors.New("router stopped")
	}
	return errors.Join(suture.ErrDoNotRestart, fmt.Errorf("%s: %w", s.name, err), closeErr)
}

// String names the service in supervisor logs.
func (s *EventRouterService) String() string {
	return s.name
}
