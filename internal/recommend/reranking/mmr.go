// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package reranking

import (
	"context"
	"math"
	"strings"

	"github.com/sree-sphere/Qloo-CulturalQuest/internal/recommend"
)

// maxRerankSize limits slice allocations; n is also bounded by len(items).
const maxRerankSize = 10000

// DiversityLambda is the lambda of the second, variety-focused phase.
const DiversityLambda = 0.3

// Candidate is one item offered to MMR: its relevance to the user and the
// vector used for pairwise similarity.
type Candidate struct {
	Relevance float64
	Vector    TermVector
}

// MMR implements two-phase Maximal Marginal Relevance selection.
//
// The MMR formula is:
//
//	MMR = argmax[lambda * rel(i) - (1-lambda) * max(cos(i, s)) for s in selected]
//
// Reference:
// Carbonell, J., & Goldstein, J. (1998). "The Use of MMR, Diversity-Based
// Reranking for Reordering Documents and Producing Summaries." SIGIR 1998.
type MMR struct {
	// lambda applies to the high-affinity phase.
	lambda float64
	// diversityLambda applies to the fill phase.
	diversityLambda float64
}

// NewMMR creates a new MMR selector. lambda is clamped to [0, 1].
func NewMMR(lambda float64) *MMR {
	return &MMR{lambda: clamp01(lambda), diversityLambda: DiversityLambda}
}

func clamp01(x float64) float64 {
	if x < 0 || math.IsNaN(x) {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// Name returns the reranker identifier.
func (m *MMR) Name() string {
	return "mmr"
}

// Select returns the indices of the chosen candidates in pick order. The first
// min(nHigh, len) picks use lambda, the rest use the diversity lambda, until
// min(nTotal, len) items are chosen. Ties go to the earlier candidate.
func (m *MMR) Select(ctx context.Context, items []Candidate, nTotal, nHigh int) []int {
	if len(items) == 0 || nTotal <= 0 {
		return nil
	}
	if nTotal > maxRerankSize {
		nTotal = maxRerankSize
	}
	if nTotal > len(items) {
		nTotal = len(items)
	}
	if nHigh < 0 {
		nHigh = 0
	}
	if nHigh > nTotal {
		nHigh = nTotal
	}

	similarities := buildSimilarityMatrix(items)

	selected := make([]int, 0, nTotal)
	taken := make([]bool, len(items))

	for len(selected) < nTotal {
		if ctx.Err() != nil {
			break
		}
		lambda := m.diversityLambda
		if len(selected) < nHigh {
			lambda = m.lambda
		}

		bestIdx := -1
		bestMMR := math.Inf(-1)
		for i := range items {
			if taken[i] {
				continue
			}
			maxSim := 0.0
			for _, j := range selected {
				if sim := similarities[i][j]; sim > maxSim {
					maxSim = sim
				}
			}
			score := lambda*items[i].Relevance - (1-lambda)*maxSim
			if score > bestMMR {
				bestMMR = score
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}
		selected = append(selected, bestIdx)
		taken[bestIdx] = true
	}
	return selected
}

// buildSimilarityMatrix computes pairwise cosine similarity.
func buildSimilarityMatrix(items []Candidate) [][]float64 {
	n := len(items)
	similarities := make([][]float64, n)
	for i := range similarities {
		similarities[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sim := Cosine(items[i].Vector, items[j].Vector)
			similarities[i][j] = sim
			similarities[j][i] = sim
		}
	}
	return similarities
}

// Options controls one Diversify pass.
type Options = recommend.DiversifyOptions

// Diversify scores entities against the preferences and interactions and
// returns the MMR selection, in pick order.
func Diversify(ctx context.Context, entities []recommend.RawEntity, prefs []string,
	interactions []recommend.InteractionRecord, opts Options) []recommend.RawEntity {
	if len(entities) == 0 {
		return nil
	}

	prefVec := NewTermVector(strings.Join(prefs, " "))
	model := TrainLearnedModel(interactions)

	items := make([]Candidate, len(entities))
	for i := range entities {
		vec := NewTermVector(FeatureText(&entities[i]))
		items[i] = Candidate{
			Relevance: Relevance(&entities[i], vec, prefVec, prefs, model),
			Vector:    vec,
		}
	}

	picks := NewMMR(opts.Lambda).Select(ctx, items, opts.TotalCount, opts.HighAffinityCount)
	out := make([]recommend.RawEntity, 0, len(picks))
	for _, idx := range picks {
		out = append(out, entities[idx])
	}
	return out
}
