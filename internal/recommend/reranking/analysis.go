// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package reranking

import (
	"math"
	"strings"

	"github.com/sree-sphere/Qloo-CulturalQuest/internal/recommend"
)

// DiversityMetrics summarizes the variety of a selection.
type DiversityMetrics struct {
	UniqueCuisines    int        `json:"unique_cuisines"`
	CuisineTypes      []string   `json:"cuisine_types"`
	UniqueEntityTypes int        `json:"unique_entity_types"`
	EntityTypes       []string   `json:"entity_types"`
	PriceRangeStd     float64    `json:"price_range_std"`
	RatingRange       [2]float64 `json:"rating_range"`
	AvgRating         float64    `json:"avg_rating"`
	TotalEntities     int        `json:"total_entities"`
}

// AnalyzeDiversity computes metrics over entities. Cuisine types and entity
// types are listed in first-seen order. It returns nil for an empty list.
func AnalyzeDiversity(entities []recommend.RawEntity) *DiversityMetrics {
	if len(entities) == 0 {
		return nil
	}

	m := &DiversityMetrics{
		CuisineTypes:  []string{},
		EntityTypes:   []string{},
		TotalEntities: len(entities),
	}
	cuisines := map[string]struct{}{}
	types := map[string]struct{}{}
	var prices, ratings []float64

	for i := range entities {
		e := &entities[i]
		for _, t := range e.Tags {
			if !strings.Contains(t.Type, "cuisine") && !strings.Contains(t.Type, "category") {
				continue
			}
			if _, ok := cuisines[t.Name]; !ok {
				cuisines[t.Name] = struct{}{}
				m.CuisineTypes = append(m.CuisineTypes, t.Name)
			}
		}
		if e.Type != "" {
			if _, ok := types[e.Type]; !ok {
				types[e.Type] = struct{}{}
				m.EntityTypes = append(m.EntityTypes, e.Type)
			}
		}
		if pr := e.Properties.PriceRange; pr != nil && (pr.From.Truthy() || pr.To.Truthy()) {
			prices = append(prices, (pr.From.Value+pr.To.Value)/2)
		}
		if r := e.Properties.BusinessRating; r.Valid && r.Value > 0 {
			ratings = append(ratings, r.Value)
		}
	}

	m.UniqueCuisines = len(cuisines)
	m.UniqueEntityTypes = len(types)
	m.PriceRangeStd = stdDev(prices)
	if len(ratings) > 0 {
		lo, hi, sum := ratings[0], ratings[0], 0.0
		for _, r := range ratings {
			lo = math.Min(lo, r)
			hi = math.Max(hi, r)
			sum += r
		}
		m.RatingRange = [2]float64{lo, hi}
		m.AvgRating = sum / float64(len(ratings))
	}
	return m
}

// stdDev is the population standard deviation, 0 for an empty sample.
func stdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	v := 0.0
	for _, x := range xs {
		v += (x - mean) * (x - mean)
	}
	return math.Sqrt(v / float64(len(xs)))
}
