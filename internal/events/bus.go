// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sree-sphere/Qloo-CulturalQuest/internal/logging"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/metrics"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/recommend"
)

// TopicDisplay carries recommend.DisplayUpdate payloads.
const TopicDisplay = "recommend.display"

// MetadataUserID is the message metadata key holding the affected user.
const MetadataUserID = "user_id"

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("event bus closed")

// Config holds bus and router settings.
type Config struct {
	// BufferSize is the per-subscriber channel buffer. Default: 256
	BufferSize int64

	// CloseTimeout is how long the router waits for handlers on close.
	// Default: 5s
	CloseTimeout time.Duration

	// RetryMaxRetries is the number of handler retries. Default: 2
	RetryMaxRetries int

	// RetryInitialInterval is the first retry backoff. Default: 50ms
	RetryInitialInterval time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		BufferSize:           256,
		CloseTimeout:         5 * time.Second,
		RetryMaxRetries:      2,
		RetryInitialInterval: 50 * time.Millisecond,
	}
}

// Bus is the in-process event bus: a watermill GoChannel pub/sub plus a
// router with recovery and retry middleware.
type Bus struct {
	pubsub *gochannel.GoChannel
	router *message.Router
	logger zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewBus creates the bus. Handlers are added before Run.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBus(cfg Config, logger zerolog.Logger) (*Bus, error) {
	defaults := DefaultConfig()
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaults.BufferSize
	}
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = defaults.CloseTimeout
	}
	if cfg.RetryMaxRetries < 0 {
		cfg.RetryMaxRetries = 0
	}
	if cfg.RetryInitialInterval <= 0 {
		cfg.RetryInitialInterval = defaults.RetryInitialInterval
	}

	logger = logger.With().Str("component", "event-bus").Logger()
	wmLogger := logging.NewWatermillLogger(logger)

	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: cfg.BufferSize,
	}, wmLogger)

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	// Outer to inner: panics become errors, then transient failures retry.
	router.AddMiddleware(middleware.Recoverer)
	router.AddMiddleware(middleware.CorrelationID)
	retry := middleware.Retry{
		MaxRetries:      cfg.RetryMaxRetries,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     time.Second,
		Multiplier:      2.0,
		Logger:          wmLogger,
	}
	router.AddMiddleware(retry.Middleware)

	return &Bus{pubsub: pubsub, router: router, logger: logger}, nil
}

// Publish encodes payload as JSON and publishes it on topic. The user
// the event concerns is taken from payload when it exposes one.
func (b *Bus) Publish(ctx context.Context, topic string, payload any) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	data, err := json.Marshal(payload)
	if err != nil {
		metrics.EventsPublished.WithLabelValues(topic, "error").Inc()
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}

	msg := message.NewMessage(uuid.NewString(), data)
	msg.SetContext(context.WithoutCancel(ctx))
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		middleware.SetCorrelationID(id, msg)
	}
	if u, ok := payload.(interface{ EventUserID() string }); ok {
		msg.Metadata.Set(MetadataUserID, u.EventUserID())
	}

	if err := b.pubsub.Publish(topic, msg); err != nil {
		metrics.EventsPublished.WithLabelValues(topic, "error").Inc()
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	metrics.EventsPublished.WithLabelValues(topic, "ok").Inc()
	return nil
}

// DisplayChanged publishes a display update. Failures are logged.
func (b *Bus) DisplayChanged(ctx context.Context, update *recommend.DisplayUpdate) {
	if err := b.Publish(ctx, TopicDisplay, displayEvent{update}); err != nil {
		b.logger.Warn().Err(err).Str("user_id", update.UserID).Msg("display update not published")
	}
}

// displayEvent attaches the routing user to a display update.
type displayEvent struct {
	*recommend.DisplayUpdate
}

func (d displayEvent) EventUserID() string { return d.UserID }

// Handle registers a consumer for topic. Must be called before Run.
func (b *Bus) Handle(name, topic string, fn message.NoPublishHandlerFunc) {
	b.router.AddConsumerHandler(name, topic, b.pubsub, fn)
}

// Run starts the router and blocks until ctx is canceled.
func (b *Bus) Run(ctx context.Context) error {
	return b.router.Run(ctx)
}

// Running closes once the router is processing messages.
func (b *Bus) Running() <-chan struct{} {
	return b.router.Running()
}

// IsRunning reports whether the router is processing messages.
func (b *Bus) IsRunning() bool {
	return b.router.IsRunning()
}

// Close stops the router and the pub/sub. Publishing afterwards fails.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	routerErr := b.router.Close()
	return errors.Join(routerErr, b.pubsub.Close())
}

// UserID returns the user a message concerns, if any.
func UserID(msg *message.Message) string {
	return msg.Metadata.Get(MetadataUserID)
}

var _ recommend.Notifier = (*Bus)(nil)
