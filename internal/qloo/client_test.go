// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package qloo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sree-sphere/Qloo-CulturalQuest/internal/config"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/recommend"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate func(cfg *config.UpstreamConfig)) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.UpstreamConfig{BaseURL: srv.URL + "/", APIKey: "secret", Timeout: 5 * time.Second}
	if mutate != nil {
		mutate(cfg)
	}
	c, err := NewClient(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestNewClient_Validation(t *testing.T) {
	if _, err := NewClient(&config.UpstreamConfig{APIKey: "k"}, zerolog.Nop()); err == nil {
		t.Error("expected error without base URL")
	}
	if _, err := NewClient(&config.UpstreamConfig{BaseURL: "http://x"}, zerolog.Nop()); err == nil {
		t.Error("expected error without API key")
	}
}

func TestClient_Insights(t *testing.T) {
	var gotPath, gotKey, gotTags, gotType string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-api-key")
		gotTags = r.URL.Query().Get("signal.interests.tags")
		gotType = r.URL.Query().Get("filter.type")
		_, _ = w.Write([]byte(`{"results":{"entities":[
			{"entity_id":"e1","name":"Sakura","properties":{"business_rating":"4.5"}},
			{"entity_id":"e2","name":"Taco Loco","query":{"affinity":0.9}}
		]}}`))
	}, nil)

	got, err := c.Insights(context.Background(), &recommend.InsightsRequest{
		SignalInterestsTags: []string{"urn:tag:category:museum", "urn:tag:category:festival"},
	})
	if err != nil {
		t.Fatalf("Insights() error = %v", err)
	}
	if gotPath != "/v2/insights" || gotKey != "secret" {
		t.Errorf("path = %q key = %q", gotPath, gotKey)
	}
	if gotTags != "urn:tag:category:museum,urn:tag:category:festival" || gotType != "urn:entity:place" {
		t.Errorf("tags = %q type = %q", gotTags, gotType)
	}
	if len(got) != 2 || got[0].Properties.BusinessRating.Value != 4.5 || got[1].Query.Affinity.Value != 0.9 {
		t.Errorf("entities = %+v", got)
	}
}

func TestClient_Search(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" || r.URL.Query().Get("query") != "dosa" || r.URL.Query().Get("types") != "urn:entity:place" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"results":[{"entity_id":"s1","name":"Dosa Hut"}]}`))
	}, nil)

	got, err := c.Search(context.Background(), "dosa")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 1 || got[0].Name != "Dosa Hut" {
		t.Errorf("Search() = %+v", got)
	}
}

func TestClient_MissingResultsIsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":true}`))
	}, nil)

	got, err := c.Insights(context.Background(), &recommend.InsightsRequest{})
	if err != nil || len(got) != 0 {
		t.Errorf("Insights() = %v, %v; want empty", got, err)
	}
	got, err = c.Search(context.Background(), "x")
	if err != nil || len(got) != 0 {
		t.Errorf("Search() = %v, %v; want empty", got, err)
	}
}

func TestClient_MalformedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	}, nil)

	if _, err := c.Insights(context.Background(), &recommend.InsightsRequest{}); err == nil {
		t.Error("expected decode error")
	}
}

func TestClient_UpstreamError(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		retryable bool
	}{
		{"unauthorized", http.StatusUnauthorized, false},
		{"rate limited", http.StatusTooManyRequests, true},
		{"server error", http.StatusBadGateway, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "nope", tt.status)
			}, nil)

			_, err := c.Search(context.Background(), "x")
			var ue *UpstreamError
			if !errors.As(err, &ue) {
				t.Fatalf("error = %v, want *UpstreamError", err)
			}
			if ue.Status != tt.status || ue.Retryable() != tt.retryable {
				t.Errorf("UpstreamError = %+v, retryable = %v", ue, ue.Retryable())
			}
		})
	}
}

func TestClient_CacheServesRepeats(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"results":[{"entity_id":"s1","name":"One"}]}`))
	}, func(cfg *config.UpstreamConfig) { cfg.CacheTTL = time.Minute })

	for i := 0; i < 3; i++ {
		if _, err := c.Search(context.Background(), "same"); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := c.Search(context.Background(), "different"); err != nil {
		t.Fatal(err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("upstream calls = %d, want 2", got)
	}
}

func TestClient_ErrorsAreNotCached(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "flaky", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"results":[]}`))
	}, func(cfg *config.UpstreamConfig) { cfg.CacheTTL = time.Minute })

	if _, err := c.Search(context.Background(), "q"); err == nil {
		t.Fatal("expected first call to fail")
	}
	if _, err := c.Search(context.Background(), "q"); err != nil {
		t.Fatalf("second call error = %v", err)
	}
}

func TestClient_RateLimiterHonoursContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	}, func(cfg *config.UpstreamConfig) {
		cfg.RateLimitPerSecond = 0.001
		cfg.RateLimitBurst = 1
	})

	if _, err := c.Search(context.Background(), "first"); err != nil {
		t.Fatalf("first call error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := c.Search(ctx, "second"); err == nil {
		t.Error("expected rate limiter to refuse within the deadline")
	}
}
