// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"
)

var _ suture.Service = (*PushHubService)(nil)

type stubHub struct {
	clients int
	err     error
}

func (s *stubHub) RunWithContext(ctx context.Context) error {
	if s.err != nil {
		return s.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *stubHub) GetClientCount() int { return s.clients }

func TestPushHubService(t *testing.T) {
	tests := []struct {
		name    string
		hub     *stubHub
		cancel  bool
		wantErr error
	}{
		{name: "stops on cancel", hub: &stubHub{clients: 3}, cancel: true, wantErr: context.Canceled},
		{name: "hub failure surfaces", hub: &stubHub{err: errors.New("broadcast closed")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			svc := NewPushHubService(tt.hub, zerolog.New(&buf))

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if tt.cancel {
				go func() {
					time.Sleep(10 * time.Millisecond)
					cancel()
				}()
			}

			err := svc.Serve(ctx)
			switch {
			case tt.wantErr != nil && !errors.Is(err, tt.wantErr):
				t.Errorf("Serve() error = %v, want %v", err, tt.wantErr)
			case tt.wantErr == nil && (err == nil || err.Error() != "broadcast closed"):
				t.Errorf("Serve() error = %v, want hub error", err)
			}
			if !strings.Contains(buf.String(), "push hub stopped") {
				t.Errorf("missing stop log: %s", buf.String())
			}
		})
	}

	if got := NewPushHubService(&stubHub{}, zerolog.Nop()).String(); got != "push-hub" {
		t.Errorf("String() = %q", got)
	}
}
