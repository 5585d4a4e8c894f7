// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

/*
Package supervisor runs the long-lived services of newsrank under a suture v4
supervisor tree.

	root ("newsrank")
	├── data-layer
	│   └── EvictionService        cache eviction sweeps
	├── messaging-layer
	│   └── EventRouterService     feedback events → cache invalidation
	└── api-layer
	    └── HTTPServerService      chi router

Each layer restarts its services independently, so a failing NATS
connection restarts the event router without touching the HTTP server.
Supervisor events (start, failure, backoff) are logged through sutureslog
into the zerolog pipeline.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{})
	tree.AddDataService(services.NewEvictionService(evictor, cache, true))
	tree.AddMessagingService(services.NewEventRouterService(router))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	err = tree.Serve(ctx)
*/
package supervisor
