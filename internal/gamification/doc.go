// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

/*
Package gamification tracks user profiles, points, levels and badges.

Progress is kept per user in the store under user-progress and profiles
under user-profile. Every mutation loads, changes and saves the document
while holding a per-user lock, so concurrent likes from the same user do
not lose points.

Point rules:

	like                      +50
	visit / cuisine           +50 / +30
	festival / booking        +100 / +75
	other activity            +10
	photo at a new location   +100
	badge                     +1000
	level up                  +500 (level = points/1000 + 1)

A spin costs 100 points and draws one reward by cumulative probability.
Users below the cost get a nil reward and an unchanged balance.

Leaderboards rank by points, badge count or heritage visits and return
the top ten.

Changes are published through an optional Publisher; the API layer wires
it to the event bus so connected websocket clients see live updates.
*/
package gamification
