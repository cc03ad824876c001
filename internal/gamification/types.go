// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package gamification

import "time"

// Badge categories.
const (
	CategoryCultural = "cultural"
	CategoryExplorer = "explorer"
	CategoryFoodie   = "foodie"
	CategoryFestival = "festival"
	CategoryHeritage = "heritage"
)

// Requirement types a badge can be earned by.
const (
	RequirementHeritageSites    = "heritage_sites"
	RequirementCuisineDiversity = "cuisine_diversity"
	RequirementFestivals        = "festival_participation"
	RequirementPhotoUploads     = "photo_uploads"
	RequirementHeritagePhotos   = "heritage_photos"
	RequirementRestaurantPhotos = "restaurant_photos"
	RequirementNone             = "visit_count"
)

// Activity types with their own point values. Anything else earns
// PointsOtherActivity.
const (
	ActivityVisit    = "visit"
	ActivityCuisine  = "cuisine"
	ActivityFestival = "festival"
	ActivityBooking  = "booking"
)

// Reward types on the spin wheel.
const (
	RewardDiscount   = "discount"
	RewardPoints     = "points"
	RewardBadge      = "badge"
	RewardExperience = "experience"
)

// Point values.
const (
	PointsLike          = 50
	PointsVisit         = 50
	PointsCuisine       = 30
	PointsFestival      = 100
	PointsBooking       = 75
	PointsOtherActivity = 10
	PointsPhoto         = 100
	PointsBadge         = 1000
	PointsLevelUp       = 500
	PointsPerLevel      = 1000
	SpinCost            = 100
)

// Leaderboard categories.
const (
	BoardPoints   = "points"
	BoardBadges   = "badges"
	BoardHeritage = "heritage"
)

// LeaderboardSize is the number of entries a leaderboard returns.
const LeaderboardSize = 10

// Requirement is the threshold a badge is earned at.
type Requirement struct {
	Type   string `json:"type"`
	Target int    `json:"target"`
}

// Badge is an achievement.
type Badge struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Icon        string      `json:"icon"`
	Category    string      `json:"category"`
	Requirement Requirement `json:"requirement"`
}

// PhotoStats counts photo uploads. Each location counts once.
type PhotoStats struct {
	Total            int      `json:"total"`
	Locations        []string `json:"locations"`
	HeritagePhotos   int      `json:"heritagePhotos"`
	RestaurantPhotos int      `json:"restaurantPhotos"`
}

// Achievements are the counters badges are checked against.
type Achievements struct {
	HeritageVisits        int        `json:"heritageVisits"`
	FestivalParticipation int        `json:"festivalParticipation"`
	CuisinesTried         []string   `json:"cuisinesTried"`
	CulturesExplored      []string   `json:"culturesExplored"`
	PhotoUploads          PhotoStats `json:"photoUploads"`
}

// Progress is a user's gamification state, stored under user-progress.
type Progress struct {
	UserID       string       `json:"userId"`
	Points       int          `json:"points"`
	Level        int          `json:"level"`
	Badges       []Badge      `json:"badges"`
	Achievements Achievements `json:"achievements"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// NewProgress is the state of a user who has done nothing yet.
func NewProgress(userID string) *Progress {
	return &Progress{
		UserID: userID,
		Level:  1,
		Badges: []Badge{},
		Achievements: Achievements{
			CuisinesTried:    []string{},
			CulturesExplored: []string{},
			PhotoUploads:     PhotoStats{Locations: []string{}},
		},
	}
}

// HasBadge reports whether the badge id is already held.
func (p *Progress) HasBadge(id string) bool {
	for i := range p.Badges {
		if p.Badges[i].ID == id {
			return true
		}
	}
	return false
}

// Activity is something a user did outside the recommendation list.
type Activity struct {
	Type       string `json:"type" validate:"required,max=32"`
	IsHeritage bool   `json:"isHeritage,omitempty"`
	Cuisine    string `json:"cuisine,omitempty" validate:"max=64"`
}

// ActivityResult is returned after recording an activity or photo.
type ActivityResult struct {
	NewBadges []Badge   `json:"newBadges"`
	Progress  *Progress `json:"progress"`
}

// Reward is one spin-wheel outcome. Value is a percentage for discounts, a
// point amount for points, and an identifier otherwise.
type Reward struct {
	Type        string  `json:"type"`
	Value       string  `json:"value"`
	Points      int     `json:"points,omitempty"`
	Description string  `json:"description"`
	Probability float64 `json:"probability"`
}

// SpinResult is the outcome of a spin. Reward is nil when the balance was
// below SpinCost; in that case nothing changed.
type SpinResult struct {
	Reward   *Reward   `json:"reward"`
	Progress *Progress `json:"progress"`
}

// LeaderboardEntry is one ranked user.
type LeaderboardEntry struct {
	Rank           int    `json:"rank"`
	UserID         string `json:"userId"`
	Name           string `json:"name,omitempty"`
	Points         int    `json:"points"`
	Level          int    `json:"level"`
	Badges         int    `json:"badges"`
	HeritageVisits int    `json:"heritageVisits"`
}
