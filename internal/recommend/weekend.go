// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package recommend

import (
	"regexp"
	"strings"
)

const weekendPlanSize = 3

var vegetarianTag = regexp.MustCompile(`(?i)vegetarian|vegan`)

// IsWeekendPlan reports whether a query takes the "plan my time off" branch.
func IsWeekendPlan(q *QueryRequest) bool {
	return q.Mood == MoodSocial && q.Intent == IntentDiscover
}

// WeekendCandidates keeps entities open on both Saturday and Sunday that are
// tagged or described as vegetarian friendly, at most three, in input order.
func WeekendCandidates(entities []RawEntity) []RawEntity {
	var out []RawEntity
	for i := range entities {
		e := &entities[i]
		if len(e.Properties.Hours["Saturday"]) == 0 || len(e.Properties.Hours["Sunday"]) == 0 {
			continue
		}
		if !isVegetarianFriendly(e) {
			continue
		}
		out = append(out, *e)
		if len(out) == weekendPlanSize {
			break
		}
	}
	return out
}

func isVegetarianFriendly(e *RawEntity) bool {
	for _, t := range e.Tags {
		if vegetarianTag.MatchString(t.Name) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(e.Properties.Description), "vegetarian")
}

// WeekendPrompt is the assistant message asking for a weekend plan in city
// built from the given candidates.
func WeekendPrompt(city string, candidates []RawEntity) string {
	items := make([]string, 0, len(candidates))
	for i := range candidates {
		items = append(items, weekendItem(&candidates[i]))
	}
	return "Plan my weekend in " + city +
		". Here are some vegetarian-friendly options that are open on weekends:" +
		strings.Join(items, "\n")
}

func weekendItem(e *RawEntity) string {
	address := e.Properties.Address
	if address == "" {
		address = "Address not available"
	}
	description := e.Properties.Description
	if description == "" {
		description = "No description available"
	}
	sat := firstSpan(e.Properties.Hours["Saturday"])
	sun := firstSpan(e.Properties.Hours["Sunday"])

	var b strings.Builder
	b.WriteString("\n- ")
	b.WriteString(e.Name)
	b.WriteString("\n  • ")
	b.WriteString(address)
	b.WriteString("\n  • Hours: Sat ")
	b.WriteString(FormatTime(sat.Opens) + "–" + FormatTime(sat.Closes))
	b.WriteString(", Sun ")
	b.WriteString(FormatTime(sun.Opens) + "–" + FormatTime(sun.Closes))
	b.WriteString("\n  • ")
	b.WriteString(description)
	b.WriteString("\n")
	return b.String()
}

func firstSpan(spans []OpeningSpan) OpeningSpan {
	if len(spans) == 0 {
		return OpeningSpan{}
	}
	return spans[0]
}
