// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/tomtom215/newsrank/internal/database"
	"github.com/tomtom215/newsrank/internal/ingest"
	"github.com/tomtom215/newsrank/internal/models"
	"github.com/tomtom215/newsrank/internal/validation"
)

// CreateSourceResponse is returned by POST /api/sources.
type CreateSourceResponse struct {
	Success bool          `json:"success"`
	ID      int64         `json:"id"`
	Source  models.Source `json:"source"`
}

// ListSources handles GET /api/sources.
func (h *Handler) ListSources(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	sources, err := h.store.ListActiveSources(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Failed to get sources", err)
		return
	}
	respondSuccess(w, http.StatusOK, sources, start)
}

// CreateSource handles POST /api/sources.
//
// Body: {"name", "url", "category"}. Name and url are required; the
// category defaults to "general". A url that is already registered is a 409.
func (h *Handler) CreateSource(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.CreateSourceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.URL = strings.TrimSpace(req.URL)
	req.Category = strings.TrimSpace(req.Category)
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidation(w, verr)
		return
	}

	src := &models.Source{Name: req.Name, URL: req.URL, Category: req.Category}
	err := h.store.CreateSource(r.Context(), src)
	switch {
	case errors.Is(err, database.ErrSourceExists):
		respondError(w, r, http.StatusConflict, ErrCodeConflict, "A source with this url already exists", nil)
		return
	case err != nil:
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Failed to add source", err)
		return
	}

	respondSuccess(w, http.StatusCreated, CreateSourceResponse{Success: true, ID: src.ID, Source: *src}, start)
}

// ImportSource handles POST /api/sources/{id}/import. The request body is
// the feed document itself.
func (h *Handler) ImportSource(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	sourceID, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.RequestTimeout)
	defer cancel()

	result, err := h.importer.Import(ctx, sourceID, r.Body)
	switch {
	case errors.Is(err, ingest.ErrSourceNotFound):
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, err.Error(), nil)
		return
	case errors.Is(err, ingest.ErrInvalidFeed):
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "Body is not a valid RSS, Atom or JSON feed", nil)
		return
	case errors.Is(err, ingest.ErrDocumentTooLarge):
		respondError(w, r, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, err.Error(), nil)
		return
	case err != nil:
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Failed to import feed", err)
		return
	}

	respondSuccess(w, http.StatusOK, result.Response(), start)
}
