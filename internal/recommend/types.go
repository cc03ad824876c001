// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package recommend

import (
	"context"
	"time"
)

// Mood is the session-level classification of a request.
type Mood string

// Known moods. MoodSearch is the raw free-text search mode.
const (
	MoodNostalgic   Mood = "nostalgic"
	MoodAdventurous Mood = "adventurous"
	MoodSocial      Mood = "social"
	MoodRelaxed     Mood = "relaxed"
	MoodSpiritual   Mood = "spiritual"
	MoodSearch      Mood = "search"
)

// Intent refines a mood.
type Intent string

// Known intents.
const (
	IntentExplore    Intent = "explore"
	IntentPlan       Intent = "plan"
	IntentDiscover   Intent = "discover"
	IntentExperience Intent = "experience"
	IntentSearch     Intent = "search"
)

// ContextName is the cache/session name for a mood. Search results share the
// generic "search" context.
func ContextName(m Mood) string {
	if m == "" {
		return string(MoodRelaxed)
	}
	return string(m)
}

// Entity is a formatted, display-ready recommendation. It is immutable once
// produced by FormatEntity.
type Entity struct {
	EntityID    string `json:"entityId"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	RatingStars string `json:"ratingStars"`
	Image       string `json:"image,omitempty"`
	Emoji       string `json:"emoji,omitempty"`
	Description string `json:"description,omitempty"`
	Address     string `json:"address,omitempty"`

	// Distance is the display form ("1.2 mi"); DistanceMiles the parsed value.
	Distance      string   `json:"distance,omitempty"`
	DistanceMiles *float64 `json:"distanceMiles,omitempty"`

	// Affinity is the display form ("87%" or "—").
	Affinity        string `json:"affinity"`
	AffinityPercent *int   `json:"affinityPercent,omitempty"`

	// StarValue is the numeric star count behind RatingStars (4.5 for "★★★★½").
	StarValue float64 `json:"starValue"`

	// PriceRange is "low", "medium" or "high" when the upstream supplied a price level.
	PriceRange string `json:"priceRange,omitempty"`
}

// InteractionRecord is one user's stance on one raw entity.
type InteractionRecord struct {
	Entity    RawEntity `json:"entity"`
	Liked     bool      `json:"liked"`
	Timestamp time.Time `json:"timestamp"`
	Affinity  float64   `json:"affinity"`
}

// AffinityVector maps feature keys such as "cuisine_italian" or "rating" to
// signed weights.
type AffinityVector map[string]float64

// Clone returns an independent copy.
func (v AffinityVector) Clone() AffinityVector {
	out := make(AffinityVector, len(v))
	for k, w := range v {
		out[k] = w
	}
	return out
}

// LikedSet is the set of entity IDs a user currently likes.
type LikedSet map[string]struct{}

// NewLikedSet builds a set from an ID list.
func NewLikedSet(ids ...string) LikedSet {
	s := make(LikedSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is liked.
func (s LikedSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// DiversifyOptions are forwarded opaquely to the diversification engine.
type DiversifyOptions struct {
	TotalCount        int     `json:"nTotal"`
	HighAffinityCount int     `json:"nHighAffinity"`
	Lambda            float64 `json:"lambdaParam"`
}

// DiversifyRequest is the payload of one diversification pass.
type DiversifyRequest struct {
	Entities        []RawEntity         `json:"entities"`
	UserPreferences []string            `json:"userPreferences"`
	Interactions    []InteractionRecord `json:"interactions"`
	Options         DiversifyOptions    `json:"options"`
}

// Diversifier selects a bounded, diversified subset of raw entities.
// Implementations must honour ctx cancellation.
type Diversifier interface {
	Diversify(ctx context.Context, req *DiversifyRequest) ([]RawEntity, error)
}

// Reorderer re-ranks a cached list against the liked set.
type Reorderer interface {
	Reorder(cached []Entity, liked LikedSet, vector AffinityVector) []Entity
}

// Upstream is the taste-graph recommender.
type Upstream interface {
	Insights(ctx context.Context, req *InsightsRequest) ([]RawEntity, error)
	Search(ctx context.Context, query string) ([]RawEntity, error)
}

// Assistant answers a free-text message for a user.
type Assistant interface {
	Chat(ctx context.Context, userID, message string) (string, error)
}

// StateStore is the subset of store.Store the recommendation layer needs.
type StateStore interface {
	Get(ctx context.Context, userID, key string, dst interface{}) error
	Set(ctx context.Context, userID, key string, v interface{}) error
	Delete(ctx context.Context, userID, key string) error
}
