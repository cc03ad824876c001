// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sree-sphere/Qloo-CulturalQuest/internal/metrics"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/models"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/recommend"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/store"
)

const defaultHistoryTurns = 4

var (
	// ErrEmptyMessage is returned for a blank chat message.
	ErrEmptyMessage = errors.New("message is required")

	// ErrEmptyReply is returned when the model streamed no content.
	ErrEmptyReply = errors.New("assistant returned an empty reply")
)

// ProfileReader loads user profiles.
type ProfileReader interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
}

// Synthesizer turns text into audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Reply is the outcome of one chat turn. Audio is set only when speech was
// requested and synthesis succeeded.
type Reply struct {
	Text  string `json:"reply"`
	Audio []byte `json:"-"`
}

// Options tunes one chat turn.
type Options struct {
	// OnToken receives tokens as they stream in.
	OnToken TokenFunc
	// Speak forwards the finished reply to the synthesizer.
	Speak bool
}

// Service is the conversational guide. It persists each user's
// conversation and serializes turns per user.
type Service struct {
	completer    Completer
	store        recommend.StateStore
	profiles     ProfileReader
	speech       Synthesizer
	historyTurns int
	city         string
	now          func() time.Time
	logger       zerolog.Logger

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// ServiceConfig holds the optional Service settings.
type ServiceConfig struct {
	// HistoryTurns is how many prior turns the prompt includes. Default: 4
	HistoryTurns int
	// DefaultCity is used when the profile has no location.
	DefaultCity string
	// Speech is optional.
	Speech Synthesizer
}

// NewService creates the assistant.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewService(completer Completer, st recommend.StateStore, profiles ProfileReader, cfg ServiceConfig, logger zerolog.Logger) *Service {
	turns := cfg.HistoryTurns
	if turns <= 0 {
		turns = defaultHistoryTurns
	}
	return &Service{
		completer:    completer,
		store:        st,
		profiles:     profiles,
		speech:       cfg.Speech,
		historyTurns: turns,
		city:         cfg.DefaultCity,
		now:          time.Now,
		locks:        make(map[string]*sync.Mutex),
		logger:       logger.With().Str("component", "assistant").Logger(),
	}
}

func (s *Service) lock(userID string) func() {
	s.locksMu.Lock()
	mu, ok := s.locks[userID]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[userID] = mu
	}
	s.locksMu.Unlock()
	mu.Lock()
	return mu.Unlock
}

// Chat answers message for userID. It satisfies recommend.Assistant.
func (s *Service) Chat(ctx context.Context, userID, message string) (string, error) {
	reply, err := s.Respond(ctx, userID, message, Options{})
	if err != nil {
		return "", err
	}
	return reply.Text, nil
}

// Respond runs one chat turn: the user message is persisted before the
// model is called and the reply after it completes.
func (s *Service) Respond(ctx context.Context, userID, message string, opts Options) (*Reply, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", recommend.ErrInvalidRequest)
	}
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}
	defer s.lock(userID)()

	history, err := s.loadHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	previous := history
	if len(previous) > s.historyTurns {
		previous = previous[len(previous)-s.historyTurns:]
	}

	history = append(history, models.ChatMessage{Role: models.RoleUser, Content: message})
	if err := s.store.Set(ctx, userID, store.KeyConversationHistory, history); err != nil {
		return nil, fmt.Errorf("save conversation: %w", err)
	}

	prompt := BuildPrompt(&PromptInput{
		Profile:  s.profile(ctx, userID),
		Message:  message,
		History:  previous,
		Entities: s.entities(ctx, userID),
		Now:      s.now(),
		City:     s.city,
	})

	start := time.Now()
	text, err := s.completer.Complete(ctx, []models.ChatMessage{{Role: models.RoleUser, Content: prompt}}, opts.OnToken)
	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrEmptyReply
	}
	if err != nil {
		metrics.AssistantRequests.WithLabelValues("error").Inc()
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("chat completion failed")
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	metrics.AssistantRequests.WithLabelValues("success").Inc()
	s.logger.Debug().Str("user_id", userID).Int("reply_len", len(text)).Dur("duration", time.Since(start)).Msg("chat turn")

	history = append(history, models.ChatMessage{Role: models.RoleAssistant, Content: text})
	if err := s.store.Set(ctx, userID, store.KeyConversationHistory, history); err != nil {
		return nil, fmt.Errorf("save conversation: %w", err)
	}

	reply := &Reply{Text: text}
	if opts.Speak && s.speech != nil {
		audio, err := s.speech.Synthesize(ctx, text)
		if err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("speech synthesis failed, returning text only")
		} else {
			reply.Audio = audio
		}
	}
	return reply, nil
}

// History returns the persisted conversation of userID.
func (s *Service) History(ctx context.Context, userID string) ([]models.ChatMessage, error) {
	return s.loadHistory(ctx, userID)
}

// ClearHistory forgets the conversation of userID.
func (s *Service) ClearHistory(ctx context.Context, userID string) error {
	defer s.lock(userID)()
	return s.store.Delete(ctx, userID, store.KeyConversationHistory)
}

func (s *Service) loadHistory(ctx context.Context, userID string) ([]models.ChatMessage, error) {
	var history []models.ChatMessage
	err := s.store.Get(ctx, userID, store.KeyConversationHistory, &history)
	switch {
	case err == nil:
		return history, nil
	case errors.Is(err, store.ErrNotFound):
		return []models.ChatMessage{}, nil
	case errors.Is(err, store.ErrCorrupt):
		metrics.StoreCorruptValues.WithLabelValues(store.KeyConversationHistory).Inc()
		s.logger.Warn().Str("user_id", userID).Msg("corrupt conversation history reset")
		return []models.ChatMessage{}, nil
	default:
		return nil, fmt.Errorf("load conversation: %w", err)
	}
}

// profile is best effort; the prompt works without one.
func (s *Service) profile(ctx context.Context, userID string) *models.UserProfile {
	if s.profiles == nil {
		return nil
	}
	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		if !errors.Is(err, models.ErrProfileNotFound) {
			s.logger.Debug().Err(err).Str("user_id", userID).Msg("profile unavailable for prompt")
		}
		return &models.UserProfile{UserID: userID}
	}
	return p
}

// entities is the last upstream snapshot; missing or corrupt means none.
func (s *Service) entities(ctx context.Context, userID string) []recommend.RawEntity {
	var snapshot []recommend.RawEntity
	if err := s.store.Get(ctx, userID, store.KeyFullAPIResponses, &snapshot); err != nil {
		return nil
	}
	return snapshot
}

var _ recommend.Assistant = (*Service)(nil)
