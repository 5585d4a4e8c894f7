// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package cache

import (
	"github.com/goccy/go-json"
)

// Options are the request options that identify a cached result set.
// Field order is the canonical serialization order.
type Options struct {
	Page          int  `json:"page"`
	PageSize      int  `json:"pageSize"`
	ForceRefresh  bool `json:"forceRefresh"`
	EnableExplain bool `json:"enableExplain"`
}

// Canonical renders o as compact JSON with fields in declaration order.
func (o Options) Canonical() string {
	b, _ := json.Marshal(o) //nolint:errcheck // ints and bools always encode
	return string(b)
}

// Key derives the cache fingerprint for a user and request options:
// rec_<user>_<canonical options>.
func Key(userID string, o Options) string {
	return "rec_" + userID + "_" + o.Canonical()
}
