// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

/*
Package middleware provides the chi-compatible HTTP middleware of the API.

Components:

  - RequestID: reuses a sane upstream X-Request-ID or generates a UUID, and
    stores it plus a fresh correlation id in the logging context
  - AccessLog: one zerolog line per request with status, size and latency
  - PrometheusMetrics: request count, latency and in-flight gauge, labelled
    by the matched chi route pattern so path parameters do not create series

Order in the router:

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.AccessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
*/
package middleware
