// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

/*
Package events is the in-process event bus.

Producers publish JSON payloads on named topics:

	recommend.display     display list of a session changed (Bus.DisplayChanged)
	gamification.points   points awarded
	gamification.badge    badge earned
	gamification.level    level up
	gamification.spin     spin-wheel reward

The bus is a watermill GoChannel pub/sub. Consumers run on a watermill
router with panic recovery, correlation ID propagation and a short retry.
RegisterPush wires every topic to the websocket hub, routing each message
to the user named in its user_id metadata.

Publishing never blocks the caller on consumers. The router runs as a
supervised service; see supervisor/services.EventRouterService.
*/
package events
