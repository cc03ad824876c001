// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package reranking

import (
	"math"
	"strings"
	"unicode"

	"github.com/sree-sphere/Qloo-CulturalQuest/internal/recommend"
)

const (
	tagBoost            = 0.1
	emptyPreferenceRel  = 0.5
	likedReward         = 1.0
	unlikedReward       = -0.5
	minLearnedExamples  = 3
	embeddingWeight     = 0.7
	fallbackWeight      = 0.3
	learnedBaseWeight   = 0.6
	learnedWeight       = 0.4
	defaultLearnedScore = 0.5
)

// FeatureText joins the descriptive fields of a place: name, description,
// cuisine and category tags, amenity and offering tags, specialty dishes,
// good-for labels, address and entity type.
func FeatureText(e *recommend.RawEntity) string {
	parts := []string{e.Name, e.Properties.Description}
	for _, t := range e.Tags {
		if strings.Contains(t.Type, "cuisine") || strings.Contains(t.Type, "category") {
			parts = append(parts, t.Name)
		}
	}
	for _, t := range e.Tags {
		if strings.Contains(t.Type, "amenity") || strings.Contains(t.Type, "offerings") {
			parts = append(parts, t.Name)
		}
	}
	for _, d := range e.Properties.SpecialtyDishes {
		parts = append(parts, d.Name)
	}
	for _, g := range e.Properties.GoodFor {
		parts = append(parts, g.Name)
	}
	parts = append(parts, e.Properties.Address, e.Type)

	nonEmpty := parts[:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}

// Tokenize lower-cases text and splits it into letter/digit runs.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// TermVector is a term-frequency vector.
type TermVector map[string]float64

// NewTermVector counts the tokens of text.
func NewTermVector(text string) TermVector {
	v := TermVector{}
	for _, tok := range Tokenize(text) {
		v[tok]++
	}
	return v
}

// Cosine returns the cosine similarity of two vectors, 0 when either is empty.
func Cosine(a, b TermVector) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(b) < len(a) {
		a, b = b, a
	}
	dot := 0.0
	for k, x := range a {
		dot += x * b[k]
	}
	na, nb := norm(a), norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (na * nb)
}

func norm(v TermVector) float64 {
	s := 0.0
	for _, x := range v {
		s += x * x
	}
	return math.Sqrt(s)
}

func wordSet(text string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, w := range strings.Fields(strings.ToLower(text)) {
		set[w] = struct{}{}
	}
	return set
}

func tokenSet(text string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, tok := range Tokenize(text) {
		set[tok] = struct{}{}
	}
	return set
}

// FallbackScore is the keyword relevance of a place to the preferences:
// the Jaccard similarity of their word sets plus 0.1 for every
// (preference, tag) pair where one contains the other, capped at 1.
// Empty preferences score 0.5.
func FallbackScore(e *recommend.RawEntity, prefs []string) float64 {
	prefWords := wordSet(strings.Join(prefs, " "))
	if len(prefWords) == 0 {
		return emptyPreferenceRel
	}
	entityWords := wordSet(FeatureText(e))

	inter := 0
	for w := range prefWords {
		if _, ok := entityWords[w]; ok {
			inter++
		}
	}
	union := len(prefWords) + len(entityWords) - inter
	jaccard := 0.0
	if union > 0 {
		jaccard = float64(inter) / float64(union)
	}

	boost := 0.0
	for _, t := range e.Tags {
		tag := strings.ToLower(t.Name)
		for _, p := range prefs {
			p = strings.ToLower(p)
			if strings.Contains(tag, p) || strings.Contains(p, tag) {
				boost += tagBoost
			}
		}
	}
	return math.Min(1, jaccard+boost)
}

// LearnedModel scores places by the words they share with places the user
// liked (reward 1) or unliked (reward -0.5).
type LearnedModel struct {
	weights map[string]float64
}

// TrainLearnedModel builds a model from interactions. It returns nil when
// fewer than three interactions are available.
func TrainLearnedModel(interactions []recommend.InteractionRecord) *LearnedModel {
	if len(interactions) < minLearnedExamples {
		return nil
	}
	m := &LearnedModel{weights: map[string]float64{}}
	for i := range interactions {
		reward := unlikedReward
		if interactions[i].Liked {
			reward = likedReward
		}
		for w := range tokenSet(FeatureText(&interactions[i].Entity)) {
			m.weights[w] += reward
		}
	}
	return m
}

// Score returns the learned preference for e in [0, 1]; 0.5 is neutral.
func (m *LearnedModel) Score(e *recommend.RawEntity) float64 {
	if m == nil {
		return defaultLearnedScore
	}
	sum, mag := 0.0, 0.0
	for w := range tokenSet(FeatureText(e)) {
		x := m.weights[w]
		sum += x
		mag += math.Abs(x)
	}
	if mag == 0 {
		return defaultLearnedScore
	}
	return (sum/mag + 1) / 2
}

// Relevance blends the term-vector cosine to the preferences with the
// fallback score, or with the learned score when a model is available.
func Relevance(e *recommend.RawEntity, entityVec, prefVec TermVector, prefs []string, model *LearnedModel) float64 {
	base := Cosine(entityVec, prefVec)
	if model != nil {
		return learnedBaseWeight*base + learnedWeight*model.Score(e)
	}
	return embeddingWeight*base + fallbackWeight*FallbackScore(e, prefs)
}
