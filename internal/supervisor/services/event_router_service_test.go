// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

type mockEventRouter struct {
	runErr error
	closed atomic.Int32
}

func (m *mockEventRouter) Run(ctx context.Context) error {
	if m.runErr != nil {
		return m.runErr
	}
	<-ctx.Done()
	return nil
}

func (m *mockEventRouter) Close() error {
	m.closed.Add(1)
	return nil
}

var _ suture.Service = (*EventRouterService)(nil)

func TestEventRouterService_Shutdown(t *testing.T) {
	router := &mockEventRouter{}
	svc := NewEventRouterService(router)
	if svc.String() != "event-router" {
		t.Errorf("String() = %q", svc.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return")
	}
	if router.closed.Load() != 1 {
		t.Errorf("Close called %d times, want 1", router.closed.Load())
	}
}

func TestEventRouterService_FailureIsNotRestarted(t *testing.T) {
	router := &mockEventRouter{runErr: errors.New("subscribe failed")}
	svc := NewEventRouterService(router)

	err := svc.Serve(context.Background())
	if !errors.Is(err, suture.ErrDoNotRestart) {
		t.Errorf("Serve() = %v, want ErrDoNotRestart", err)
	}
	if !errors.Is(err, router.runErr) {
		t.Errorf("Serve() = %v, want the router error wrapped", err)
	}
}
