// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/sree-sphere/Qloo-CulturalQuest/internal/gamification"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/metrics"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/recommend"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/websocket"
)

type sent struct {
	userID      string
	messageType string
	payload     []byte
}

type fakeSink struct {
	mu         sync.Mutex
	sent       chan sent
	broadcasts int
}

func newFakeSink() *fakeSink {
	return &fakeSink{sent: make(chan sent, 16)}
}

func (f *fakeSink) SendRaw(userID, messageType string, payload []byte) {
	f.sent <- sent{userID, messageType, payload}
}

func (f *fakeSink) BroadcastJSON(string, interface{}) {
	f.mu.Lock()
	f.broadcasts++
	f.mu.Unlock()
}

func (f *fakeSink) next(t *testing.T) sent {
	t.Helper()
	select {
	case s := <-f.sent:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for pushed event")
		return sent{}
	}
}

// runBus starts b and stops it when the test ends.
func runBus(t *testing.T, b *Bus) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = b.Run(ctx)
		close(done)
	}()
	select {
	case <-b.Running():
	case <-time.After(2 * time.Second):
		t.Fatal("router did not start")
	}
	t.Cleanup(func() {
		cancel()
		_ = b.Close()
		<-done
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.BufferSize != 256 || cfg.CloseTimeout != 5*time.Second || cfg.RetryMaxRetries != 2 {
		t.Errorf("DefaultConfig() = %+v", cfg)
	}
}

func TestBus_PushesGamificationEvents(t *testing.T) {
	b, err := NewBus(Config{}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	sink := newFakeSink()
	RegisterPush(b, sink)
	runBus(t, b)

	before := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(gamification.TopicBadge, "ok"))
	ev := &gamification.Event{UserID: "u1", Reason: "badge", Points: 1000, Total: 1050, Level: 2,
		Badge: &gamification.Badge{ID: "first_snap"}}
	if err := b.Publish(context.Background(), gamification.TopicBadge, ev); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	got := sink.next(t)
	if got.userID != "u1" || got.messageType != websocket.MessageTypeBadge {
		t.Errorf("pushed %q to %q", got.messageType, got.userID)
	}
	var decoded gamification.Event
	if err := json.Unmarshal(got.payload, &decoded); err != nil || decoded.Badge == nil || decoded.Badge.ID != "first_snap" {
		t.Errorf("payload = %s (%v)", got.payload, err)
	}
	if after := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(gamification.TopicBadge, "ok")); after != before+1 {
		t.Errorf("events_published_total delta = %v", after-before)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		sink.mu.Lock()
		n := sink.broadcasts
		sink.mu.Unlock()
		if n > 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Error("leaderboard broadcast not sent")
}

func TestBus_DisplayChanged(t *testing.T) {
	b, err := NewBus(DefaultConfig(), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	sink := newFakeSink()
	RegisterPush(b, sink)
	runBus(t, b)

	b.DisplayChanged(context.Background(), &recommend.DisplayUpdate{
		UserID: "u7", Context: "nostalgic", Source: "reorder", Generation: 3,
	})

	got := sink.next(t)
	if got.userID != "u7" || got.messageType != websocket.MessageTypeDisplay {
		t.Fatalf("pushed %q to %q", got.messageType, got.userID)
	}
	var decoded recommend.DisplayUpdate
	if err := json.Unmarshal(got.payload, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Context != "nostalgic" || decoded.Generation != 3 {
		t.Errorf("decoded = %+v", decoded)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.broadcasts != 0 {
		t.Error("display updates must not trigger leaderboard broadcasts")
	}
}

func TestBus_HandlerRecoversFromPanic(t *testing.T) {
	b, err := NewBus(Config{RetryMaxRetries: 0}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	handled := make(chan struct{}, 4)
	var once sync.Once
	b.Handle("flaky", "test.topic", func(*message.Message) error {
		var boom bool
		once.Do(func() { boom = true })
		if boom {
			panic("boom")
		}
		handled <- struct{}{}
		return nil
	})
	runBus(t, b)

	for range 2 {
		if err := b.Publish(context.Background(), "test.topic", map[string]string{"k": "v"}); err != nil {
			t.Fatal(err)
		}
	}
	select {
	case <-handled:
	case <-time.After(2 * time.Second):
		t.Fatal("router stopped handling after a panic")
	}
}

func TestBus_PublishErrors(t *testing.T) {
	b, err := NewBus(DefaultConfig(), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	if err := b.Publish(context.Background(), "x", make(chan int)); err == nil {
		t.Error("expected marshal error")
	}

	if err := b.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := b.Publish(context.Background(), "x", 1); !errors.Is(err, ErrClosed) {
		t.Errorf("Publish after Close error = %v, want ErrClosed", err)
	}
}

func TestUserID(t *testing.T) {
	msg := message.NewMessage("1", nil)
	if UserID(msg) != "" {
		t.Error("expected empty user")
	}
	msg.Metadata.Set(MetadataUserID, "u1")
	if UserID(msg) != "u1" {
		t.Error("metadata user not returned")
	}
}
