// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package recommend

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// KeywordGroup is a named set of lower-case keyword substrings.
type KeywordGroup struct {
	Name     string   `koanf:"name" json:"name"`
	Keywords []string `koanf:"keywords" json:"keywords"`
}

// Matches reports whether s contains any keyword of the group.
func (g *KeywordGroup) Matches(s string) bool {
	for _, kw := range g.Keywords {
		if kw != "" && strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// SimilarityGroups holds the ordered category and cuisine tables used by the
// Scorer. Order matters: only the first group matching both sides counts.
type SimilarityGroups struct {
	Categories []KeywordGroup `koanf:"category_groups" json:"categoryGroups"`
	Cuisines   []KeywordGroup `koanf:"cuisine_groups" json:"cuisineGroups"`
}

// DefaultSimilarityGroups returns the built-in keyword tables.
func DefaultSimilarityGroups() *SimilarityGroups {
	return &SimilarityGroups{
		Categories: []KeywordGroup{
			{Name: "food", Keywords: []string{
				"restaurant", "delivery service", "fast food", "breakfast", "sushi", "asian",
				"mexican", "vietnamese", "burrito", "caterer", "snack bar", "bubble tea",
				"bistro", "cafe", "bakery", "pizza", "italian", "diner", "eatery",
			}},
			{Name: "retail", Keywords: []string{"clothing store", "organic food store", "market", "boutique"}},
			{Name: "entertainment", Keywords: []string{
				"tourist attraction", "aquarium", "childrens party", "art gallery", "museum", "theater", "park",
			}},
			{Name: "services", Keywords: []string{"barber shop", "music instructor", "salon", "spa"}},
			{Name: "spiritual", Keywords: []string{"temple", "church", "mosque", "gurdwara", "shrine", "monastery"}},
		},
		Cuisines: []KeywordGroup{
			{Name: "asian", Keywords: []string{"sushi", "asian", "vietnamese", "bubble tea"}},
			{Name: "mexican", Keywords: []string{"mexican", "burrito"}},
			{Name: "american", Keywords: []string{"fast food", "breakfast", "steakburgers"}},
			{Name: "specialty", Keywords: []string{"bagels", "frozen custard", "pies"}},
			{Name: "european", Keywords: []string{"italian", "pizza", "pasta", "french", "greek", "mediterranean"}},
			{Name: "south asian", Keywords: []string{"indian", "punjabi", "pakistani", "sri lankan", "nepalese"}},
		},
	}
}

// Validate rejects empty or unnamed groups.
func (g *SimilarityGroups) Validate() error {
	check := func(kind string, groups []KeywordGroup) error {
		for i := range groups {
			if groups[i].Name == "" {
				return fmt.Errorf("%s group %d has no name", kind, i)
			}
			if len(groups[i].Keywords) == 0 {
				return fmt.Errorf("%s group %q has no keywords", kind, groups[i].Name)
			}
		}
		return nil
	}
	if err := check("category", g.Categories); err != nil {
		return err
	}
	return check("cuisine", g.Cuisines)
}

// normalize lower-cases every keyword in place.
func (g *SimilarityGroups) normalize() {
	for _, groups := range [][]KeywordGroup{g.Categories, g.Cuisines} {
		for i := range groups {
			for j, kw := range groups[i].Keywords {
				groups[i].Keywords[j] = strings.ToLower(strings.TrimSpace(kw))
			}
		}
	}
}

// LoadSimilarityGroups reads keyword tables from a YAML file:
//
//	category_groups:
//	  - name: food
//	    keywords: [restaurant, sushi]
//	cuisine_groups:
//	  - name: asian
//	    keywords: [sushi, vietnamese]
//
// A table missing from the file keeps its built-in default.
func LoadSimilarityGroups(path string) (*SimilarityGroups, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load similarity groups %s: %w", path, err)
	}

	groups := DefaultSimilarityGroups()
	if k.Exists("category_groups") {
		groups.Categories = nil
		if err := k.Unmarshal("category_groups", &groups.Categories); err != nil {
			return nil, fmt.Errorf("decode category_groups: %w", err)
		}
	}
	if k.Exists("cuisine_groups") {
		groups.Cuisines = nil
		if err := k.Unmarshal("cuisine_groups", &groups.Cuisines); err != nil {
			return nil, fmt.Errorf("decode cuisine_groups: %w", err)
		}
	}
	groups.normalize()

	if err := groups.Validate(); err != nil {
		return nil, err
	}
	return groups, nil
}
