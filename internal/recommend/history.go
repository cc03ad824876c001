// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/sree-sphere/Qloo-CulturalQuest/internal/models"
	"github.com/sree-sphere/Qloo-CulturalQuest/internal/store"
)

const minMentionLen = 4

// HistoryCollector assembles interaction records from persisted state only.
type HistoryCollector struct {
	store  StateStore
	logger zerolog.Logger
	now    func() time.Time
}

// NewHistoryCollector creates a collector over st.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHistoryCollector(st StateStore, logger zerolog.Logger) *HistoryCollector {
	return &HistoryCollector{
		store:  st,
		logger: logger.With().Str("component", "history").Logger(),
		now:    time.Now,
	}
}

// Collect returns explicit records for every snapshot entity with an ID, in
// snapshot order, followed by implicit positive records for entities
// mentioned in the user's own chat messages. Each entity appears at most once.
func (h *HistoryCollector) Collect(ctx context.Context, userID string) ([]InteractionRecord, error) {
	var likedIDs []string
	if err := loadState(ctx, h, userID, store.KeyLikedEntities, &likedIDs); err != nil {
		return nil, err
	}
	var snapshot []RawEntity
	if err := loadState(ctx, h, userID, store.KeyFullAPIResponses, &snapshot); err != nil {
		return nil, err
	}
	vector := AffinityVector{}
	if err := loadState(ctx, h, userID, store.KeyAffinity, &vector); err != nil {
		return nil, err
	}
	var conversation []models.ChatMessage
	if err := loadState(ctx, h, userID, store.KeyConversationHistory, &conversation); err != nil {
		return nil, err
	}

	liked := NewLikedSet(likedIDs...)
	now := h.now().UTC()

	records := make([]InteractionRecord, 0, len(snapshot))
	present := make(map[int]struct{}, len(snapshot))
	seenIDs := make(map[string]struct{}, len(snapshot))
	for i := range snapshot {
		id := snapshot[i].EntityID
		if id == "" {
			continue
		}
		if _, dup := seenIDs[id]; dup {
			continue
		}
		seenIDs[id] = struct{}{}
		present[i] = struct{}{}
		records = append(records, InteractionRecord{
			Entity:    snapshot[i],
			Liked:     liked.Has(id),
			Timestamp: now,
			Affinity:  vector[id],
		})
	}

	for _, fragment := range MentionFragments(conversation) {
		needle := strings.ToLower(fragment)
		for i := range snapshot {
			if _, ok := present[i]; ok {
				continue
			}
			if _, ok := seenIDs[snapshot[i].EntityID]; ok && snapshot[i].EntityID != "" {
				continue
			}
			if !strings.Contains(strings.ToLower(snapshot[i].Name), needle) {
				continue
			}
			present[i] = struct{}{}
			if snapshot[i].EntityID != "" {
				seenIDs[snapshot[i].EntityID] = struct{}{}
			}
			records = append(records, InteractionRecord{
				Entity:    snapshot[i],
				Liked:     true,
				Timestamp: now,
			})
			break
		}
	}
	return records, nil
}

// loadState reads key into dst, treating a missing value as empty. A corrupt
// value is logged and treated as empty too; dst is reset since a failed
// decode may have filled it partly.
func loadState[T any](ctx context.Context, h *HistoryCollector, userID, key string, dst *T) error {
	err := h.store.Get(ctx, userID, key, dst)
	switch {
	case err == nil, errors.Is(err, store.ErrNotFound):
		return nil
	case errors.Is(err, store.ErrCorrupt):
		var zero T
		*dst = zero
		h.logger.Warn().Str("user_id", userID).Str("key", key).Msg("ignoring corrupt state")
		return nil
	default:
		return fmt.Errorf("load %s: %w", key, err)
	}
}

// MentionFragments extracts candidate place-name fragments from user-authored
// messages: space-separated words longer than 3 characters that begin with an
// upper-case ASCII letter, deduplicated in discovery order.
func MentionFragments(history []models.ChatMessage) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, msg := range history {
		if msg.Role != models.RoleUser {
			continue
		}
		for _, word := range strings.Split(msg.Content, " ") {
			if utf8.RuneCountInString(word) < minMentionLen {
				continue
			}
			if word[0] < 'A' || word[0] > 'Z' {
				continue
			}
			if _, ok := seen[word]; ok {
				continue
			}
			seen[word] = struct{}{}
			out = append(out, word)
		}
	}
	return out
}
