// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

/*
Package services adapts newsrank components to suture.Service.

  - HTTPServerService: ListenAndServe/Shutdown to Serve, with a drain timeout
  - EvictionService: an optional startup sweep, then the cache evictor loop
  - EventRouterService: the watermill router, refusing to run without handlers

Every wrapper returns ctx.Err() on shutdown and a wrapped error on failure,
so the supervisor restarts only services that actually failed.
*/
package services
