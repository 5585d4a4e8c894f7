// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/newsrank/internal/recommend"
)

// GetRecommendations handles GET /api/recommendations.
//
// Query parameters: userId (default "default"), page, pageSize,
// forceRefresh and enableExplain. A page size larger than the ranked list
// returns the whole list on page one and is echoed in the pagination.
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	req, err := parseRecommendationRequest(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.RequestTimeout)
	defer cancel()

	resp, err := h.engine.Recommend(ctx, req)
	switch {
	case errors.Is(err, recommend.ErrInvalidUser):
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
		return
	case err != nil:
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Failed to get recommendations", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetRecommendationStats handles GET /api/recommendations/stats.
func (h *Handler) GetRecommendationStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Stats(r.Context()))
}
