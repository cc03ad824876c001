// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

/*
Package websocket pushes live updates to connected browsers.

A Hub owns the client set and routes messages. Each Client subscribes to
one user's updates (the userId query parameter of /api/v1/ws) and also
receives broadcasts. Messages reach the hub from the event bus: display
changes of the recommendation engine and gamification events.

Message types:

  - display_update: the displayed list of a session changed
  - points, badge, level_up, spin: gamification progress
  - leaderboard_changed: broadcast after any points change
  - ping / pong: client keepalive

Each client runs a read goroutine (pings, disconnect detection) and a
write goroutine (queued messages, 54s ping ticker). A client whose send
buffer is full is dropped rather than blocking delivery to the others.

The hub runs under the supervisor via RunWithContext and closes every
client on shutdown.
*/
package websocket
