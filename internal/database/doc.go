// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

/*
Package database is the candidate store for newsrank.

It owns the relational tables every recall channel queries (rss_sources,
articles, user_preferences, user_interests), the stored article and user
embeddings, and the recommendation_cache table used by the SQL cache backend.

Two drivers are supported, selected by database.driver:

  - duckdb (default): github.com/duckdb/duckdb-go/v2
  - sqlite: modernc.org/sqlite, pure Go

Queries are written once in the subset both engines accept: "?" placeholders,
INSERT ... ON CONFLICT, RETURNING, and time bounds computed in Go rather than
with engine-specific date functions. Only DDL differs per driver (see schema.go).

All timestamps are written in UTC.
*/
package database
