// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

/*
Package api provides the HTTP interface of newsrank.

Routes:

	GET  /api/recommendations           ranked, paginated feed for ?userId
	GET  /api/recommendations/stats     cache usage and active configuration
	POST /api/articles/{id}/feedback    like or dislike an article
	GET  /api/sources                   active feed sources
	POST /api/sources                   register a feed source
	POST /api/sources/{id}/import       import an RSS/Atom/JSON feed document
	GET  /api/stats                     article, source and feedback counts
	GET  /health                        liveness plus database connectivity
	GET  /metrics                       Prometheus exposition

The recommendation endpoints return their own body shapes. Everything else
is wrapped in models.APIResponse, and every failure is written as
models.ErrorResponse:

	{"error": {"code": "NOT_FOUND", "message": "article 42 not found"}}

A recommendation request only fails with 500 when the whole pipeline fails;
degraded recall channels and cache errors still produce a 200.

Middleware (outermost first): request id, real ip, access log, recoverer,
CORS, Prometheus metrics, and per-IP rate limiting on /api.
*/
package api
