// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

// Package models holds the data shapes shared between the recommendation,
// gamification, assistant and API layers.
package models

import "errors"

// UserProfile describes a user's declared tastes and whereabouts.
type UserProfile struct {
	UserID       string       `json:"userId" validate:"required,userid,max=128"`
	Name         string       `json:"name,omitempty" validate:"max=128"`
	Preferences  Preferences  `json:"preferences"`
	Demographics Demographics `json:"demographics"`
	Location     Location     `json:"location"`
	Streak       Streak       `json:"currentStreak"`
}

// Preferences are the explicit taste declarations used as upstream signals
// and as diversification preference tags.
type Preferences struct {
	Cuisines          []string `json:"cuisines,omitempty" validate:"max=50,dive,max=64"`
	CulturalInterests []string `json:"culturalInterests,omitempty" validate:"max=50,dive,max=64"`
	TravelStyle       string   `json:"travelStyle,omitempty" validate:"omitempty,oneof=budget luxury authentic modern"`
	NostalgicPeriods  []string `json:"nostalgicPeriods,omitempty" validate:"max=20,dive,max=64"`
	IsVegetarian      bool     `json:"isVegetarian,omitempty"`
}

// Demographics feed the upstream demographic signals.
type Demographics struct {
	// Age is an upstream age bucket such as "35_and_younger".
	Age       string `json:"age,omitempty" validate:"omitempty,oneof=35_and_younger 36_to_55 55_and_older"`
	Gender    string `json:"gender,omitempty" validate:"omitempty,oneof=male female"`
	Ethnicity string `json:"ethnicity,omitempty" validate:"max=64"`
}

// Location is where the user currently is.
type Location struct {
	Current     string `json:"current,omitempty" validate:"max=128"`
	Coordinates string `json:"coordinates,omitempty" validate:"max=64"`
}

// Streak counts consecutive days of one activity type.
type Streak struct {
	Type  string `json:"type,omitempty"`
	Count int    `json:"count"`
}

// DefaultAgeBucket is sent when a profile has no age bucket.
const DefaultAgeBucket = "36_to_55"

// City returns the current location or fallback when unset.
func (p *UserProfile) City(fallback string) string {
	if p != nil && p.Location.Current != "" {
		return p.Location.Current
	}
	return fallback
}

// PreferenceTags flattens cuisines and cultural interests, in that order.
func (p *UserProfile) PreferenceTags() []string {
	if p == nil {
		return nil
	}
	tags := make([]string, 0, len(p.Preferences.Cuisines)+len(p.Preferences.CulturalInterests))
	tags = append(tags, p.Preferences.Cuisines...)
	tags = append(tags, p.Preferences.CulturalInterests...)
	return tags
}

// ErrProfileNotFound is returned when no profile exists for a user. Callers
// that need a profile create one lazily instead of surfacing the error.
var ErrProfileNotFound = errors.New("user profile not found")

// NewDefaultProfile is the profile created lazily for a first-time user.
func NewDefaultProfile(userID, city string) *UserProfile {
	return &UserProfile{
		UserID:       userID,
		Demographics: Demographics{Age: DefaultAgeBucket},
		Location:     Location{Current: city},
	}
}
