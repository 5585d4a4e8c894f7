// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

/*
Package models defines the data structures shared across newsrank.

Model Categories:

1. Stored records:
  - Article: a feed item with its source and score
  - Source: an RSS/Atom feed registration
  - UserAction: an append-only like/dislike log entry
  - UserInterest: an accumulated keyword weight per user

2. Aggregates:
  - PreferenceStats: like/dislike counts for a user
  - SystemStats: article/source totals plus the user's preferences

3. API Request/Response Models:
  - APIResponse: standard response wrapper
  - APIError: error details
  - Metadata: response metadata (timestamp, query time)

Articles are owned by the ingest pipeline. The recommendation engine only reads
them, so none of these types carry behavior beyond small helpers.
*/
package models
