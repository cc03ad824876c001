// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package recommend

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/sree-sphere/Qloo-CulturalQuest/internal/models"
)

// EntityTypePlace is the only entity kind this service asks for.
const EntityTypePlace = "urn:entity:place"

const (
	categoryTagPrefix   = "urn:tag:category:"
	restaurantTagPrefix = "urn:tag:genre:restaurant:"

	adventurePopularityMax = 0.7
	adventureDiversifyBy   = "properties.geocode.city"
	adventureDiversifyTake = 2
	budgetPriceLevelMax    = 2
)

// InsightsRequest is one upstream insights call. Zero-valued fields are omitted.
type InsightsRequest struct {
	FilterType               string
	SignalInterestsTags      []string
	SignalInterestsEntities  []string
	SignalDemographicsAge    string
	SignalDemographicsGender string
	FilterLocationQuery      string
	FilterHours              string
	FilterTags               []string
	FilterPriceLevelMax      int
	FilterPopularityMin      *float64
	FilterPopularityMax      *float64
	DiversifyBy              string
	DiversifyTake            int
	Take                     int
	FeatureExplainability    bool
}

// Values encodes the request as upstream query parameters.
func (r *InsightsRequest) Values() url.Values {
	v := url.Values{}
	setStr := func(k, s string) {
		if s != "" {
			v.Set(k, s)
		}
	}
	setList := func(k string, list []string) {
		if len(list) > 0 {
			v.Set(k, strings.Join(list, ","))
		}
	}
	setInt := func(k string, n int) {
		if n > 0 {
			v.Set(k, strconv.Itoa(n))
		}
	}
	setFloat := func(k string, f *float64) {
		if f != nil {
			v.Set(k, strconv.FormatFloat(*f, 'f', -1, 64))
		}
	}

	filterType := r.FilterType
	if filterType == "" {
		filterType = EntityTypePlace
	}
	v.Set("filter.type", filterType)
	setList("signal.interests.tags", r.SignalInterestsTags)
	setList("signal.interests.entities", r.SignalInterestsEntities)
	setStr("signal.demographics.age", r.SignalDemographicsAge)
	setStr("signal.demographics.gender", r.SignalDemographicsGender)
	setStr("filter.location.query", r.FilterLocationQuery)
	setStr("filter.hours", r.FilterHours)
	setList("filter.tags", r.FilterTags)
	setInt("filter.price_level.max", r.FilterPriceLevelMax)
	setFloat("filter.popularity.min", r.FilterPopularityMin)
	setFloat("filter.popularity.max", r.FilterPopularityMax)
	setStr("diversify.by", r.DiversifyBy)
	setInt("diversify.take", r.DiversifyTake)
	setInt("take", r.Take)
	if r.FeatureExplainability {
		v.Set("feature.explainability", "true")
	}
	return v
}

// QueryRequest is one user query against the orchestrator.
type QueryRequest struct {
	UserID string `json:"userId" validate:"required,userid,max=128"`
	Query  string `json:"query" validate:"required,max=500"`
	Mood   Mood   `json:"mood,omitempty" validate:"omitempty,oneof=nostalgic adventurous social relaxed spiritual search"`
	Intent Intent `json:"intent,omitempty" validate:"omitempty,oneof=explore plan discover experience search"`
	// SkipLocationFilter drops the location filter of general queries.
	SkipLocationFilter bool `json:"skipLocationFilter,omitempty"`
}

// Normalize fills in the mood inferred from the query text and the default
// search intent. The intent default does not select the search branch; only
// MoodSearch does.
func (q *QueryRequest) Normalize() {
	if q.Mood == "" {
		lower := strings.ToLower(q.Query)
		switch {
		case strings.Contains(lower, string(MoodNostalgic)):
			q.Mood = MoodNostalgic
		case strings.Contains(lower, string(MoodAdventurous)):
			q.Mood = MoodAdventurous
		default:
			q.Mood = MoodRelaxed
		}
	}
	if q.Intent == "" {
		q.Intent = IntentSearch
	}
}

// IsSearch reports whether the query bypasses recommendation scoring.
func (q *QueryRequest) IsSearch() bool {
	return q.Mood == MoodSearch
}

// ContextName is the session and cache name the query's results live under.
func (q *QueryRequest) ContextName() string {
	if q.IsSearch() {
		return string(MoodSearch)
	}
	return ContextName(q.Mood)
}

// UpstreamPlan is what to ask the upstream for one query: either a free-text
// search or a list of insights calls whose results are concatenated.
type UpstreamPlan struct {
	Search   string
	Insights []*InsightsRequest
}

// PlanUpstream maps a normalized query and profile to upstream calls.
// location is the general location filter; empty disables filters.
func PlanUpstream(q *QueryRequest, profile *models.UserProfile, location string, take int) UpstreamPlan {
	if q.IsSearch() {
		return UpstreamPlan{Search: q.Query}
	}

	if profile == nil {
		profile = &models.UserProfile{}
	}
	base := baseSignals(profile)
	if q.SkipLocationFilter {
		location = ""
	}
	applyFilters := func(r *InsightsRequest) {
		if location == "" {
			return
		}
		r.FilterLocationQuery = location
		r.Take = take
		lower := strings.ToLower(q.Query)
		if strings.Contains(lower, "weekend") {
			r.FilterHours = "saturday"
		}
		if strings.Contains(lower, "budget") {
			r.FilterPriceLevelMax = budgetPriceLevelMax
		}
	}

	switch q.Mood {
	case MoodNostalgic:
		heritage := base
		heritage.SignalInterestsTags = prefixed(categoryTagPrefix, profile.Preferences.CulturalInterests)
		heritage.FilterLocationQuery = profile.Location.Current
		heritage.FeatureExplainability = true

		cuisine := base
		cuisine.SignalInterestsTags = prefixed(restaurantTagPrefix, profile.Preferences.Cuisines)
		cuisine.FilterLocationQuery = profile.Location.Current
		cuisine.FeatureExplainability = true
		return UpstreamPlan{Insights: []*InsightsRequest{&heritage, &cuisine}}

	case MoodAdventurous:
		r := base
		r.SignalInterestsTags = prefixed(categoryTagPrefix, []string{"adventure", "unique", "local"})
		applyFilters(&r)
		maxPop := adventurePopularityMax
		r.FilterPopularityMax = &maxPop
		r.DiversifyBy = adventureDiversifyBy
		r.DiversifyTake = adventureDiversifyTake
		return UpstreamPlan{Insights: []*InsightsRequest{&r}}

	case MoodSpiritual:
		r := base
		r.SignalInterestsTags = prefixed(categoryTagPrefix, []string{"spiritual", "meditation", "temple", "peaceful"})
		applyFilters(&r)
		r.FilterTags = []string{"urn:tag:attribute:serene", "urn:tag:attribute:sacred"}
		return UpstreamPlan{Insights: []*InsightsRequest{&r}}

	default:
		r := base
		applyFilters(&r)
		r.FeatureExplainability = true
		return UpstreamPlan{Insights: []*InsightsRequest{&r}}
	}
}

// baseSignals are the demographic and interest signals shared by every mood.
func baseSignals(profile *models.UserProfile) InsightsRequest {
	r := InsightsRequest{
		FilterType:            EntityTypePlace,
		SignalDemographicsAge: models.DefaultAgeBucket,
	}
	if profile == nil {
		return r
	}
	if profile.Demographics.Age != "" {
		r.SignalDemographicsAge = profile.Demographics.Age
	}
	r.SignalDemographicsGender = profile.Demographics.Gender
	r.SignalInterestsTags = prefixed(categoryTagPrefix, profile.Preferences.CulturalInterests)
	return r
}

func prefixed(prefix string, values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, prefix+v)
		}
	}
	return out
}

// PreferenceTags are the diversification preferences for a query: the
// profile's cuisines and cultural interests followed by the query text.
func PreferenceTags(profile *models.UserProfile, query string) []string {
	tags := profile.PreferenceTags()
	if query != "" {
		tags = append(tags, query)
	}
	return tags
}
