// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

/*
Package services provides suture.Service wrappers for CulturalQuest components.

Each wrapper translates a component's lifecycle (a listener, a Run
loop, a ticker) into suture's context-aware Serve and names itself through
fmt.Stringer for supervisor logs.

# Available Services

HTTP Server (HTTPServerService):
  - Binds the listener itself, so Addr reports the port chosen for ":0"
  - Graceful shutdown, then a hard close when the timeout passes
  - NewNamedHTTPServerService labels a second server (the diversifier)

Push Hub (PushHubService):
  - Runs websocket.Hub.RunWithContext
  - The hub closes every client on shutdown; the stop is logged with the
    number of clients still connected

Event Router (EventRouterService):
  - Runs the watermill router of events.Bus
  - A router cannot be restarted, so failures return suture.ErrDoNotRestart

Similarity Tables (SimilarityService):
  - Reloads the similarity tables on startup, on a ticker and on Trigger
  - Trigger is called from the config file watcher
  - A failed reload keeps the previous tables

# Usage Example

	tree, _ := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{})
	tree.AddDataService(services.NewSimilarityService(reloader, cfg, logger))
	tree.AddMessagingService(services.NewEventRouterService(bus))
	tree.AddMessagingService(services.NewPushHubService(hub, logger))
	tree.AddAPIService(services.NewHTTPServerService(srv, 10*time.Second, logger))
	errCh := tree.ServeBackground(ctx)

# Thread Safety

Wrappers hold no state of their own beyond what the wrapped component
guards. SimilarityService.Trigger may be called from any goroutine.
*/
package services
