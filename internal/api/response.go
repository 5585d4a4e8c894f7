// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/newsrank/internal/logging"
	"github.com/tomtom215/newsrank/internal/models"
)

// Error codes for API responses
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeConflict         = "CONFLICT"
	ErrCodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	ErrCodeTooManyRequests  = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

// writeJSON encodes v as the response body.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondSuccess wraps data in the standard envelope.
func respondSuccess(w http.ResponseWriter, status int, data interface{}, start time.Time) {
	writeJSON(w, status, &models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// respondError writes an error body. Server errors are logged with the
// underlying cause, which is never sent to the client.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	if err != nil && status >= http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().
			Err(err).
			Str("code", code).
			Str("path", sanitizeLogValue(r.URL.Path)).
			Msg("API error")
	}
	writeJSON(w, status, &models.ErrorResponse{
		Error: models.APIError{Code: code, Message: message},
	})
}

// respondAPIError writes a prepared APIError, keeping its details.
func respondAPIError(w http.ResponseWriter, status int, apiErr models.APIError) {
	writeJSON(w, status, &models.ErrorResponse{Error: apiErr})
}

// sanitizeLogValue strips line breaks from client-controlled values.
func sanitizeLogValue(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}
