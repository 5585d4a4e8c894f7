// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Store.Get when no live entry exists for a key.
var ErrMiss = errors.New("cache entry not found")

// ErrCacheUnavailable wraps backend failures surfaced by Cache.Evict and
// Cache.InvalidateUser.
var ErrCacheUnavailable = errors.New("recommendation cache unavailable")

// Entry is one persisted ranked result set.
type Entry struct {
	Key       string
	UserID    string
	Data      []byte
	Options   []byte
	CreatedAt time.Time
	ExpiresAt time.Time
	HitCount  int64
}

// StoreStats is the raw aggregate a backend reports; Cache.Stats formats it.
type StoreStats struct {
	Total   int64
	Active  int64
	AvgHits float64
	MaxHits int64
	Oldest  time.Time
	Newest  time.Time
}

// Store is a recommendation cache backend. Every method is a single keyed
// operation or a sweep; backends rely on their own per-key atomicity.
type Store interface {
	// Name labels metrics and logs ("sql", "badger", "redis", "memory").
	Name() string

	// Get returns the entry for key if it expires after now, incrementing
	// its hit count as a side effect. The returned HitCount includes this
	// hit. Returns ErrMiss when absent or expired.
	Get(ctx context.Context, key string, now time.Time) (*Entry, error)

	// Put inserts or replaces the entry for e.Key, resetting its hit count.
	Put(ctx context.Context, e *Entry) error

	// DeleteExpired removes entries whose expiry is not after now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)

	// TrimOldest removes the oldest-created entries until at most max remain.
	TrimOldest(ctx context.Context, max int) (int64, error)

	// DeleteUser removes every entry belonging to userID.
	DeleteUser(ctx context.Context, userID string) (int64, error)

	// Stats aggregates over all stored entries, live or expired.
	Stats(ctx context.Context, now time.Time) (StoreStats, error)
}
