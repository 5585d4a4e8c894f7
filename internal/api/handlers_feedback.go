// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/newsrank/internal/feedback"
	"github.com/tomtom215/newsrank/internal/models"
	"github.com/tomtom215/newsrank/internal/recommend"
	"github.com/tomtom215/newsrank/internal/validation"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 64 << 10

// PostFeedback handles POST /api/articles/{id}/feedback.
//
// Body: {"action": "like"|"dislike", "userId": "..."}. Responds 400 for an
// invalid action or id and 404 when the article does not exist.
func (h *Handler) PostFeedback(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	articleID, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
		return
	}

	var req models.FeedbackRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidation(w, verr)
		return
	}

	result, err := h.feedback.Process(r.Context(), req.UserID, articleID, req.Action)
	switch {
	case errors.Is(err, feedback.ErrInvalidAction), errors.Is(err, recommend.ErrInvalidUser):
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
		return
	case errors.Is(err, feedback.ErrArticleNotFound):
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, fmt.Sprintf("article %d not found", articleID), nil)
		return
	case err != nil:
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Failed to process feedback", err)
		return
	}

	respondSuccess(w, http.StatusOK, models.FeedbackResponse{
		Success:  result.Success,
		Keywords: result.Keywords,
	}, start)
}

// decodeJSON reads a bounded JSON body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "Request body too large", nil)
			return false
		}
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "Failed to read request body", nil)
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "Request body must be a JSON object", nil)
		return false
	}
	return true
}

func respondValidation(w http.ResponseWriter, verr *validation.RequestValidationError) {
	apiErr := verr.ToAPIError()
	respondAPIError(w, http.StatusBadRequest, models.APIError{
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	})
}
