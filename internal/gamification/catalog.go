// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package gamification

// DefaultBadges is the badge catalog, checked in this order.
func DefaultBadges() []Badge {
	return []Badge{
		{ID: "diwali_explorer", Name: "Festival of Lights Explorer", Description: "Visit 5 heritage sites during Diwali season",
			Icon: "🪔", Category: CategoryFestival, Requirement: Requirement{Type: RequirementHeritageSites, Target: 5}},
		{ID: "cultural_bridge", Name: "Cultural Bridge Builder", Description: "Experience 10 different cultural cuisines",
			Icon: "🌍", Category: CategoryCultural, Requirement: Requirement{Type: RequirementCuisineDiversity, Target: 10}},
		{ID: "heritage_guardian", Name: "Heritage Guardian", Description: "Visit 20 UNESCO World Heritage sites",
			Icon: "🏛️", Category: CategoryHeritage, Requirement: Requirement{Type: RequirementHeritageSites, Target: 20}},
		{ID: "flavor_nomad", Name: "Flavor Nomad", Description: "Try authentic dishes from 15 different regions",
			Icon: "🍛", Category: CategoryFoodie, Requirement: Requirement{Type: RequirementCuisineDiversity, Target: 15}},
		{ID: "first_snap", Name: "First Snap", Description: "Upload your first location photo",
			Icon: "📸", Category: CategoryExplorer, Requirement: Requirement{Type: RequirementPhotoUploads, Target: 1}},
		{ID: "photo_explorer", Name: "Photo Explorer", Description: "Upload photos at 5 different locations",
			Icon: "🌟", Category: CategoryExplorer, Requirement: Requirement{Type: RequirementPhotoUploads, Target: 5}},
		{ID: "heritage_photographer", Name: "Heritage Photographer", Description: "Upload photos at 3 heritage sites",
			Icon: "🏛️", Category: CategoryHeritage, Requirement: Requirement{Type: RequirementHeritagePhotos, Target: 3}},
		{ID: "foodie_snapper", Name: "Foodie Snapper", Description: "Upload photos at 7 restaurants",
			Icon: "🍴", Category: CategoryFoodie, Requirement: Requirement{Type: RequirementRestaurantPhotos, Target: 7}},
		{ID: "memory_keeper", Name: "Memory Keeper", Description: "Upload 15 location photos",
			Icon: "📚", Category: CategoryCultural, Requirement: Requirement{Type: RequirementPhotoUploads, Target: 15}},
	}
}

// DefaultRewards is the spin wheel. Probabilities sum to 1.
func DefaultRewards() []Reward {
	return []Reward{
		{Type: RewardDiscount, Value: "10", Description: "10% off next booking", Probability: 0.30},
		{Type: RewardDiscount, Value: "25", Description: "25% off heritage tours", Probability: 0.15},
		{Type: RewardPoints, Value: "500", Points: 500, Description: "500 culture points", Probability: 0.25},
		{Type: RewardPoints, Value: "1000", Points: 1000, Description: "1000 culture points", Probability: 0.10},
		{Type: RewardExperience, Value: "free_guide", Description: "Free cultural guide", Probability: 0.15},
		{Type: RewardBadge, Value: "lucky_explorer", Description: "Lucky Explorer badge", Probability: 0.05},
	}
}

// ActivityPoints returns the points an activity type is worth.
func ActivityPoints(activityType string) int {
	switch activityType {
	case ActivityVisit:
		return PointsVisit
	case ActivityCuisine:
		return PointsCuisine
	case ActivityFestival:
		return PointsFestival
	case ActivityBooking:
		return PointsBooking
	default:
		return PointsOtherActivity
	}
}

// LevelFor is the level a points total corresponds to.
func LevelFor(points int) int {
	if points < 0 {
		return 1
	}
	return points/PointsPerLevel + 1
}

// requirementMet checks one badge against the achievement counters.
func requirementMet(b *Badge, a *Achievements) bool {
	t := b.Requirement.Target
	switch b.Requirement.Type {
	case RequirementHeritageSites:
		return a.HeritageVisits >= t
	case RequirementCuisineDiversity:
		return len(a.CuisinesTried) >= t
	case RequirementFestivals:
		return a.FestivalParticipation >= t
	case RequirementPhotoUploads:
		return a.PhotoUploads.Total >= t
	case RequirementHeritagePhotos:
		return a.PhotoUploads.HeritagePhotos >= t
	case RequirementRestaurantPhotos:
		return a.PhotoUploads.RestaurantPhotos >= t
	default:
		return false
	}
}
