// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package models

// PreferenceStats counts a user's feedback.
type PreferenceStats struct {
	Likes    int `json:"likes"`
	Dislikes int `json:"dislikes"`
}

// SystemStats is returned by GET /api/stats.
type SystemStats struct {
	TotalArticles int             `json:"total_articles"`
	TotalSources  int             `json:"total_sources"`
	UserStats     PreferenceStats `json:"user_stats"`
}

// HealthStatus represents the health check response
type HealthStatus struct {
	Status            string  `json:"status"`
	Version           string  `json:"version"`
	DatabaseConnected bool    `json:"database_connected"`
	Uptime            float64 `json:"uptime_seconds"`
}
