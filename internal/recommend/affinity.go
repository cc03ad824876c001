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
	"sync"

	"github.com/rs/zerolog"

	"github.com/sree-sphere/Qloo-CulturalQuest/internal/store"
)

// Learning rates.
const (
	LikeRate   = 0.1
	UnlikeRate = -0.05

	defaultPriceRange = "medium"
	defaultDistance   = 5.0
)

// Feature is one extracted entity feature. Exactly one of Str or Num is used.
type Feature struct {
	Name    string
	Str     string
	Num     float64
	Numeric bool
}

// Key is the vector key the feature updates.
func (f Feature) Key() string {
	if f.Numeric {
		return f.Name
	}
	return f.Name + "_" + f.Str
}

// ExtractFeatures returns the affinity features of an entity in a fixed order:
// cuisine, priceRange, rating, distance.
func ExtractFeatures(e *Entity) []Feature {
	price := e.PriceRange
	if price == "" {
		price = defaultPriceRange
	}
	distance, ok := distanceOf(e)
	if !ok || distance == 0 {
		distance = defaultDistance
	}
	return []Feature{
		{Name: "cuisine", Str: strings.ToLower(e.Type)},
		{Name: "priceRange", Str: price},
		{Name: "rating", Num: e.StarValue, Numeric: true},
		{Name: "distance", Num: distance, Numeric: true},
	}
}

// Apply adds one interaction to v in place.
func (v AffinityVector) Apply(features []Feature, liked bool) {
	rate := UnlikeRate
	if liked {
		rate = LikeRate
	}
	for _, f := range features {
		if f.Numeric {
			v[f.Key()] += rate * f.Num
		} else {
			v[f.Key()] += rate
		}
	}
}

// AffinityModel owns the persisted per-user affinity vectors.
// It is safe for concurrent use; updates for one user are serialized.
type AffinityModel struct {
	store  StateStore
	logger zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewAffinityModel creates an affinity model over st.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewAffinityModel(st StateStore, logger zerolog.Logger) *AffinityModel {
	return &AffinityModel{
		store:  st,
		logger: logger.With().Str("component", "affinity").Logger(),
		locks:  make(map[string]*sync.Mutex),
	}
}

func (m *AffinityModel) userLock(userID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[userID] = l
	}
	return l
}

// Vector loads the user's vector. A missing or unreadable vector is empty.
func (m *AffinityModel) Vector(ctx context.Context, userID string) (AffinityVector, error) {
	v := AffinityVector{}
	err := m.store.Get(ctx, userID, store.KeyAffinity, &v)
	switch {
	case err == nil:
		if v == nil {
			v = AffinityVector{}
		}
		return v, nil
	case errors.Is(err, store.ErrNotFound):
		return AffinityVector{}, nil
	case errors.Is(err, store.ErrCorrupt):
		m.logger.Warn().Str("user_id", userID).Msg("discarding corrupt affinity vector")
		return AffinityVector{}, nil
	default:
		return nil, fmt.Errorf("load affinity: %w", err)
	}
}

// Update applies a like (liked=true) or unlike to the vector and persists it.
// A nil entity is a no-op that returns the current vector.
func (m *AffinityModel) Update(ctx context.Context, userID string, entity *Entity, liked bool) (AffinityVector, error) {
	l := m.userLock(userID)
	l.Lock()
	defer l.Unlock()

	v, err := m.Vector(ctx, userID)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return v, nil
	}

	v.Apply(ExtractFeatures(entity), liked)
	if err := m.store.Set(ctx, userID, store.KeyAffinity, v); err != nil {
		return nil, fmt.Errorf("save affinity: %w", err)
	}

	m.logger.Debug().
		Str("user_id", userID).
		Str("entity_id", entity.EntityID).
		Bool("liked", liked).
		Int("features", len(v)).
		Msg("affinity updated")
	return v.Clone(), nil
}
