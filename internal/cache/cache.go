// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/newsrank/internal/logging"
	"github.com/tomtom215/newsrank/internal/metrics"
)

// Config is fixed at construction.
type Config struct {
	TTL           time.Duration
	MaxEntries    int
	EvictionQueue int
}

// DefaultConfig returns a 30 minute TTL and a 1000 entry cap.
func DefaultConfig() Config {
	return Config{TTL: 30 * time.Minute, MaxEntries: 1000, EvictionQueue: 16}
}

// EvictResult counts rows removed by one sweep.
type EvictResult struct {
	Expired  int64 `json:"expired"`
	Overflow int64 `json:"overflow"`
}

// Cache persists ranked result sets in a Store. Reads degrade to a miss and
// writes degrade to false on any backend or encoding failure; neither path
// returns an error to the caller.
type Cache struct {
	store   Store
	cfg     Config
	signals chan struct{}
	now     func() time.Time
	logger  zerolog.Logger
}

// New creates a cache over store. Zero config fields take DefaultConfig values.
func New(store Store, cfg Config) *Cache {
	def := DefaultConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = def.MaxEntries
	}
	if cfg.EvictionQueue <= 0 {
		cfg.EvictionQueue = def.EvictionQueue
	}
	return &Cache{
		store:   store,
		cfg:     cfg,
		signals: make(chan struct{}, cfg.EvictionQueue),
		now:     func() time.Time { return time.Now().UTC() },
		logger:  logging.WithComponent("cache").With().Str("backend", store.Name()).Logger(),
	}
}

// Config returns the construction-time settings.
func (c *Cache) Config() Config {
	return c.cfg
}

// Backend names the underlying store.
func (c *Cache) Backend() string {
	return c.store.Name()
}

// Get decodes the live entry for key into dst and reports whether it did.
// Expired, absent and undecodable entries are all misses. On a false return
// the contents of dst are unspecified.
func (c *Cache) Get(ctx context.Context, key string, dst any) bool {
	backend := c.store.Name()

	e, err := c.store.Get(ctx, key, c.now())
	if errors.Is(err, ErrMiss) {
		metrics.CacheMisses.WithLabelValues(backend, "absent").Inc()
		return false
	}
	if err != nil {
		metrics.CacheMisses.WithLabelValues(backend, "error").Inc()
		c.logger.Warn().Err(err).Str("stage", "cache_get").Str("cache_key", key).Msg("Cache read failed, treating as miss")
		return false
	}

	if err := json.Unmarshal(e.Data, dst); err != nil {
		metrics.CacheMisses.WithLabelValues(backend, "corrupt").Inc()
		c.logger.Warn().Err(err).Str("stage", "cache_get").Str("cache_key", key).Msg("Corrupt cache payload, treating as miss")
		return false
	}

	metrics.CacheHits.WithLabelValues(backend).Inc()
	return true
}

// Put stores data for key with expiry now+TTL and queues an eviction sweep.
// It returns false when data cannot be encoded or the store rejects the
// write; the caller proceeds without caching.
func (c *Cache) Put(ctx context.Context, key, userID string, data any, opts Options) (ok bool) {
	backend := c.store.Name()
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().Interface("panic", r).Str("stage", "cache_put").Str("cache_key", key).Msg("Cache encode panicked")
			ok = false
		}
		result := "success"
		if !ok {
			result = "failure"
		}
		metrics.CacheWrites.WithLabelValues(backend, result).Inc()
	}()

	payload, err := json.Marshal(data)
	if err != nil {
		c.logger.Warn().Err(err).Str("stage", "cache_put").Str("cache_key", key).Msg("Cannot encode recommendations for cache")
		return false
	}
	options, err := json.Marshal(opts)
	if err != nil {
		c.logger.Warn().Err(err).Str("stage", "cache_put").Str("cache_key", key).Msg("Cannot encode cache options")
		return false
	}

	created := c.now()
	entry := &Entry{
		Key:       key,
		UserID:    userID,
		Data:      payload,
		Options:   options,
		CreatedAt: created,
		ExpiresAt: created.Add(c.cfg.TTL),
	}
	if err := c.store.Put(ctx, entry); err != nil {
		c.logger.Warn().Err(err).Str("stage", "cache_put").Str("cache_key", key).Str("user_id", userID).Msg("Cache write failed")
		return false
	}

	c.signalEviction()
	return true
}

// signalEviction never blocks. A full queue means a sweep is already pending.
func (c *Cache) signalEviction() {
	select {
	case c.signals <- struct{}{}:
	default:
		metrics.CacheEvictionSignalsDropped.Inc()
	}
}

// Signals is drained by the Evictor.
func (c *Cache) Signals() <-chan struct{} {
	return c.signals
}

// Evict deletes expired entries, then trims the oldest-created entries until
// at most MaxEntries remain.
func (c *Cache) Evict(ctx context.Context) (EvictResult, error) {
	var res EvictResult
	backend := c.store.Name()

	expired, err := c.store.DeleteExpired(ctx, c.now())
	if err != nil {
		return res, fmt.Errorf("%w: delete expired: %v", ErrCacheUnavailable, err)
	}
	res.Expired = expired
	metrics.CacheEvicted.WithLabelValues(backend, "expired").Add(float64(expired))

	overflow, err := c.store.TrimOldest(ctx, c.cfg.MaxEntries)
	if err != nil {
		return res, fmt.Errorf("%w: trim oldest: %v", ErrCacheUnavailable, err)
	}
	res.Overflow = overflow
	metrics.CacheEvicted.WithLabelValues(backend, "overflow").Add(float64(overflow))

	return res, nil
}

// InvalidateUser drops every cached result set for userID.
func (c *Cache) InvalidateUser(ctx context.Context, userID string) (int64, error) {
	n, err := c.store.DeleteUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: invalidate %s: %v", ErrCacheUnavailable, userID, err)
	}
	metrics.CacheEvicted.WithLabelValues(c.store.Name(), "invalidated").Add(float64(n))
	return n, nil
}

// Stats summarizes the store. Backend failures yield zero values.
func (c *Cache) Stats(ctx context.Context) Stats {
	raw, err := c.store.Stats(ctx, c.now())
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to read cache stats")
		return Stats{Backend: c.store.Name(), HitRate: "0%"}
	}
	return newStats(c.store.Name(), raw)
}
