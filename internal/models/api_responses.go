// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package models

import (
	"time"
)

// APIResponse is the wrapper used by the non-recommendation endpoints
// (sources, stats, feedback). The recommendation feed has its own shape with
// pagination and algorithm metadata.
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": [{"id": 1, "name": "BBC News", ...}],
//	  "metadata": {"timestamp": "2026-03-01T12:00:00Z", "query_time_ms": 3}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
}

// Metadata contains response metadata for observability.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// ErrorResponse is written for every failed request.
//
// Example:
//
//	{
//	  "error": {
//	    "code": "VALIDATION_ERROR",
//	    "message": "action must be one of: like dislike"
//	  }
//	}
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// APIError carries a machine-readable code and a human-readable message.
//
// Common error codes:
//   - VALIDATION_ERROR: invalid query parameters or body
//   - NOT_FOUND: the article or source does not exist
//   - RATE_LIMIT_EXCEEDED: too many requests
//   - INTERNAL_ERROR: an unrecoverable pipeline failure
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// FeedbackRequest is the body of POST /api/articles/{id}/feedback.
type FeedbackRequest struct {
	Action string `json:"action" validate:"required,oneof=like dislike"`
	UserID string `json:"userId" validate:"omitempty,max=128,printable"`
}

// FeedbackResponse reports the keywords that were credited to the user.
type FeedbackResponse struct {
	Success  bool     `json:"success"`
	Keywords []string `json:"keywords"`
}

// CreateSourceRequest is the body of POST /api/sources.
type CreateSourceRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	URL      string `json:"url" validate:"required,url"`
	Category string `json:"category" validate:"omitempty,max=100"`
}

// ImportResponse is returned by POST /api/sources/{id}/import.
type ImportResponse struct {
	SourceID int64 `json:"source_id"`
	Found    int   `json:"found"`
	Inserted int   `json:"inserted"`
}
