// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package recommend

import (
	"math"
	"strings"
	"sync/atomic"
)

// Similarity points.
const (
	exactTypePoints    = 50
	categoryPoints     = 30
	cuisinePoints      = 25
	sharedTokenPoints  = 10
	nearDistancePoints = 15
	midDistancePoints  = 10

	minSharedTokenLen = 4
)

// Scorer computes an unbounded, additive similarity between two entities.
// Scores are only comparable when taken against the same reference entity.
// The keyword tables can be swapped at runtime with SetGroups.
type Scorer struct {
	groups atomic.Pointer[SimilarityGroups]
}

// NewScorer creates a scorer. A nil groups value selects the built-in tables.
func NewScorer(groups *SimilarityGroups) *Scorer {
	s := &Scorer{}
	s.SetGroups(groups)
	return s
}

// SetGroups replaces the keyword tables.
func (s *Scorer) SetGroups(groups *SimilarityGroups) {
	if groups == nil {
		groups = DefaultSimilarityGroups()
	}
	s.groups.Store(groups)
}

// Groups returns the active keyword tables.
func (s *Scorer) Groups() *SimilarityGroups {
	return s.groups.Load()
}

// Score rates how similar b is to a.
func (s *Scorer) Score(a, b *Entity) float64 {
	groups := s.groups.Load()
	score := 0.0

	typeA := strings.ToLower(a.Type)
	typeB := strings.ToLower(b.Type)
	if typeA == typeB {
		score += exactTypePoints
	}
	if firstSharedGroup(groups.Categories, typeA, typeB) {
		score += categoryPoints
	}
	if firstSharedGroup(groups.Cuisines, typeA, typeB) {
		score += cuisinePoints
	}

	score += float64(sharedTokenPoints * sharedNameTokens(a.Name, b.Name))

	da, okA := distanceOf(a)
	db, okB := distanceOf(b)
	if okA && okB {
		switch diff := math.Abs(da - db); {
		case diff < 1:
			score += nearDistancePoints
		case diff < 3:
			score += midDistancePoints
		}
	}
	return score
}

// firstSharedGroup reports whether some group matches both strings.
func firstSharedGroup(groups []KeywordGroup, a, b string) bool {
	for i := range groups {
		if groups[i].Matches(a) && groups[i].Matches(b) {
			return true
		}
	}
	return false
}

// sharedNameTokens counts the tokens of a (repeats included) that are longer
// than 3 characters and also appear in b.
func sharedNameTokens(a, b string) int {
	tokensB := strings.Fields(strings.ToLower(b))
	if len(tokensB) == 0 {
		return 0
	}
	inB := make(map[string]struct{}, len(tokensB))
	for _, t := range tokensB {
		inB[t] = struct{}{}
	}

	n := 0
	for _, t := range strings.Fields(strings.ToLower(a)) {
		if len([]rune(t)) < minSharedTokenLen {
			continue
		}
		if _, ok := inB[t]; ok {
			n++
		}
	}
	return n
}
