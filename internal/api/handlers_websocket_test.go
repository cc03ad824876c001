// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/sree-sphere/Qloo-CulturalQuest/internal/config"
	ws "github.com/sree-sphere/Qloo-CulturalQuest/internal/websocket"
)

func TestCheckWebSocketOrigin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		origins []string
		nilCfg  bool
		origin  string
		want    bool
	}{
		{name: "missing origin", origins: []string{"*"}, origin: "", want: false},
		{name: "wildcard", origins: []string{"*"}, origin: "http://evil.example", want: true},
		{name: "listed", origins: []string{"http://localhost:3000"}, origin: "http://localhost:3000", want: true},
		{name: "unlisted", origins: []string{"http://localhost:3000"}, origin: "http://evil.example", want: false},
		{name: "no config", nilCfg: true, origin: "http://localhost:3000", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			deps := &Dependencies{}
			if !tt.nilCfg {
				deps.Config = &config.Config{Security: config.SecurityConfig{CORSOrigins: tt.origins}}
			}
			h := NewHandler(deps)
			req := httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if got := h.checkWebSocketOrigin(req); got != tt.want {
				t.Errorf("checkWebSocketOrigin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWebSocket_RejectsBadRequests(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	NewHandler(&Dependencies{}).WebSocket(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ws?userId=alice", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("no hub status = %d, want 503", rec.Code)
	}

	rec = httptest.NewRecorder()
	NewHandler(&Dependencies{Hub: ws.NewHub()}).WebSocket(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing user status = %d, want 400", rec.Code)
	}
}

func TestWebSocket_DeliversUserMessages(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := ws.NewHub()
	go func() { _ = hub.RunWithContext(ctx) }()

	h := NewHandler(&Dependencies{
		Hub:    hub,
		Config: &config.Config{Security: config.SecurityConfig{CORSOrigins: []string{"http://localhost:3000"}}},
	})
	mw := DefaultChiMiddlewareConfig()
	mw.RateLimitDisabled = true
	srv := httptest.NewServer(NewRouter(h, mw).SetupChi())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws?userId=alice"
	header := http.Header{"Origin": []string{"http://localhost:3000"}}

	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("handshake status = %d", resp.StatusCode)
	}

	deadline := time.Now().Add(2 * time.Second)
	for hub.GetClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.Send("bob", "points", map[string]int{"total": 1})
	hub.Send("alice", "points", map[string]int{"total": 50})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	var msg struct {
		Type string         `json:"type"`
		Data map[string]int `json:"data"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("decode: %v (%s)", err, raw)
	}
	if msg.Type != "points" || msg.Data["total"] != 50 {
		t.Errorf("message = %+v, want alice's points only", msg)
	}

	_, _, err = websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"http://evil.example"}})
	if err == nil {
		t.Error("expected handshake failure for an unlisted origin")
	}
}
