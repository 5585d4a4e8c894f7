// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/newsrank/internal/recommend"
)

// parseRecommendationRequest reads the query of GET /api/recommendations.
// Absent numbers stay zero so the engine applies its defaults. Page and page
// size are otherwise passed through unchanged, so the pagination metadata
// echoes exactly what was requested; only non-numeric values fail.
func parseRecommendationRequest(r *http.Request) (recommend.Request, error) {
	q := r.URL.Query()
	req := recommend.Request{UserID: q.Get("userId")}

	var err error
	if req.Page, err = intParam(q.Get("page"), "page"); err != nil {
		return req, err
	}
	if req.PageSize, err = intParam(q.Get("pageSize"), "pageSize"); err != nil {
		return req, err
	}
	if req.ForceRefresh, err = boolParam(q.Get("forceRefresh"), "forceRefresh"); err != nil {
		return req, err
	}
	if req.EnableExplain, err = boolParam(q.Get("enableExplain"), "enableExplain"); err != nil {
		return req, err
	}
	return req, nil
}

func intParam(v, name string) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}

func boolParam(v, name string) (bool, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be true or false", name)
	}
	return b, nil
}

// idParam reads a positive int64 path parameter.
func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return id, nil
}
