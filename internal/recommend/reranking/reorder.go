// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package reranking

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/sree-sphere/Qloo-CulturalQuest/internal/recommend"
)

// DefaultReorderLimit caps a reordered list.
const DefaultReorderLimit = 15

// Reorderer re-ranks a cached list against the liked set without contacting
// the upstream. It is safe for concurrent use.
type Reorderer struct {
	scorer *recommend.Scorer
	limit  int
	jitter float64

	rngMu sync.Mutex
	rng   *rand.Rand
	// unit returns a value in [0, 1); overrides rng when set.
	unit func() float64
}

// NewReorderer creates a reorderer. jitter is the exclusive upper bound of the
// uniform tie-breaking noise; zero disables it.
func NewReorderer(scorer *recommend.Scorer, limit int, jitter float64, seed int64) *Reorderer {
	if scorer == nil {
		scorer = recommend.NewScorer(nil)
	}
	if limit <= 0 {
		limit = DefaultReorderLimit
	}
	if jitter < 0 {
		jitter = 0
	}
	if seed == 0 {
		seed = 42
	}
	return &Reorderer{
		scorer: scorer,
		limit:  limit,
		jitter: jitter,
		rng:    rand.New(rand.NewSource(seed)), //nolint:gosec // tie-breaking noise only
	}
}

// SetUnitSource replaces the random source with fn, which must return values
// in [0, 1). Intended for tests.
func (r *Reorderer) SetUnitSource(fn func() float64) {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()
	r.unit = fn
}

func (r *Reorderer) noise() float64 {
	if r.jitter == 0 {
		return 0
	}
	r.rngMu.Lock()
	defer r.rngMu.Unlock()
	if r.unit != nil {
		return r.unit() * r.jitter
	}
	return r.rng.Float64() * r.jitter
}

type scoredEntity struct {
	entity recommend.Entity
	score  float64
}

// Reorder returns liked entities first in input order, then the others by
// descending max similarity to the liked ones (plus jitter), capped at the
// configured limit. The input slice is not modified. The affinity vector is
// accepted for interface parity and does not influence the order.
func (r *Reorderer) Reorder(cached []recommend.Entity, liked recommend.LikedSet, _ recommend.AffinityVector) []recommend.Entity {
	pinned := make([]recommend.Entity, 0, len(cached))
	others := make([]scoredEntity, 0, len(cached))
	for i := range cached {
		if liked.Has(cached[i].EntityID) {
			pinned = append(pinned, cached[i])
		} else {
			others = append(others, scoredEntity{entity: cached[i]})
		}
	}

	for i := range others {
		best := 0.0
		for j := range pinned {
			if s := r.scorer.Score(&others[i].entity, &pinned[j]); s > best {
				best = s
			}
		}
		others[i].score = best + r.noise()
	}
	sort.SliceStable(others, func(i, j int) bool {
		return others[i].score > others[j].score
	})

	n := len(pinned) + len(others)
	if n > r.limit {
		n = r.limit
	}
	out := make([]recommend.Entity, 0, n)
	out = append(out, pinned...)
	for i := range others {
		out = append(out, others[i].entity)
	}
	return out[:n]
}

var _ recommend.Reorderer = (*Reorderer)(nil)
