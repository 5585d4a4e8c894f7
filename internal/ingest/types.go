// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package ingest

import (
	"time"

	"github.com/tomtom215/newsrank/internal/models"
)

// ImportResult holds statistics about one feed import.
type ImportResult struct {
	// SourceID is the source the articles were stored under.
	SourceID int64

	// Found is the number of usable items in the document after the item limit.
	Found int

	// Inserted is the number of articles whose url was not stored yet.
	Inserted int

	// Analyzed and Indexed count new articles that were scored and embedded.
	Analyzed int
	Indexed  int

	// Failures counts per-article analysis or indexing failures.
	Failures int

	Duration time.Duration
}

// Response converts the result to the API body.
func (r *ImportResult) Response() models.ImportResponse {
	return models.ImportResponse{
		SourceID: r.SourceID,
		Found:    r.Found,
		Inserted: r.Inserted,
	}
}
