// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/newsrank/internal/metrics"
	"github.com/tomtom215/newsrank/internal/models"
	"github.com/tomtom215/newsrank/internal/recommend"
)

// healthPingTimeout bounds the database ping of /health.
const healthPingTimeout = 2 * time.Second

// Health handles GET /health. The status is "degraded" when the database
// does not answer; the response code stays 200 so the process is not
// restarted for a database outage.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()
	dbConnected := h.store != nil && h.store.Ping(ctx) == nil

	status := "healthy"
	if !dbConnected {
		status = "degraded"
	}

	uptime := time.Since(h.startTime).Seconds()
	metrics.AppUptime.Set(uptime)

	respondSuccess(w, http.StatusOK, models.HealthStatus{
		Status:            status,
		Version:           h.opts.Version,
		DatabaseConnected: dbConnected,
		Uptime:            uptime,
	}, start)
}

// GetSystemStats handles GET /api/stats?userId.
func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	userID, err := recommend.NormalizeUserID(r.URL.Query().Get("userId"))
	if errors.Is(err, recommend.ErrInvalidUser) {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
		return
	}

	stats, err := h.store.SystemStats(r.Context(), userID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Failed to get stats", err)
		return
	}
	respondSuccess(w, http.StatusOK, stats, start)
}
