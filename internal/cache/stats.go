// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package cache

import (
	"fmt"
	"math"
	"time"
)

// Stats is the cache_details block of /api/recommendations/stats.
type Stats struct {
	Backend        string     `json:"backend"`
	TotalEntries   int64      `json:"total_entries"`
	ActiveEntries  int64      `json:"active_entries"`
	ExpiredEntries int64      `json:"expired_entries"`
	HitRate        string     `json:"hit_rate"`
	AvgHitCount    float64    `json:"avg_hit_count"`
	MaxHitCount    int64      `json:"max_hit_count"`
	OldestEntry    *time.Time `json:"oldest_entry"`
	NewestEntry    *time.Time `json:"newest_entry"`
}

func newStats(backend string, raw StoreStats) Stats {
	s := Stats{
		Backend:        backend,
		TotalEntries:   raw.Total,
		ActiveEntries:  raw.Active,
		ExpiredEntries: raw.Total - raw.Active,
		HitRate:        hitRate(raw.AvgHits, raw.Total),
		AvgHitCount:    math.Round(raw.AvgHits*100) / 100,
		MaxHitCount:    raw.MaxHits,
	}
	if !raw.Oldest.IsZero() {
		oldest := raw.Oldest
		s.OldestEntry = &oldest
	}
	if !raw.Newest.IsZero() {
		newest := raw.Newest
		s.NewestEntry = &newest
	}
	return s
}

// hitRate is the average hit count per entry divided by the entry count, as
// a one-decimal percentage. An empty cache reports "0%".
func hitRate(avgHits float64, total int64) string {
	if total <= 0 {
		return "0%"
	}
	if math.IsNaN(avgHits) || math.IsInf(avgHits, 0) {
		avgHits = 0
	}
	return fmt.Sprintf("%.1f%%", avgHits/math.Max(1, float64(total))*100)
}
