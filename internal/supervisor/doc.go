// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

/*
Package supervisor runs the long-lived parts of CulturalQuest under suture v4.

The tree has three layers so that one failing component restarts alone:

	RootSupervisor ("culturalquest")
	├── DataSupervisor ("data-layer")
	│   ├── store.GCScheduler            (badger value-log GC on a cron spec)
	│   └── SimilarityService            (keyword table reloads)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── EventRouterService           (watermill router)
	│   └── PushHubService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

The diversifier binary uses the same tree with only the API layer populated.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second, logger))
	errCh := tree.ServeBackground(ctx)

Services return ctx.Err() on shutdown and any other error to request a
restart. Suture backs off once FailureThreshold failures accumulate within
the FailureDecay window.

If shutdown hangs, UnstoppedServiceReport names the services that ignored
their context.
*/
package supervisor
