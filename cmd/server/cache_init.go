// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package main

import (
	"context"
	"fmt"

	"github.com/tomtom215/newsrank/internal/cache"
	"github.com/tomtom215/newsrank/internal/config"
	"github.com/tomtom215/newsrank/internal/database"
	"github.com/tomtom215/newsrank/internal/logging"
)

// CacheComponents holds the recommendation cache and its store.
type CacheComponents struct {
	Cache   *cache.Cache
	Evictor *cache.Evictor
	closer  func() error
}

// Close releases the store when it owns resources outside the main database.
func (c *CacheComponents) Close() error {
	if c == nil || c.closer == nil {
		return nil
	}
	return c.closer()
}

// newCacheStore opens the store selected by cfg.Backend. The returned close
// function is nil for stores without their own resources.
func newCacheStore(ctx context.Context, cfg config.CacheConfig, db *database.DB) (cache.Store, func() error, error) {
	switch cfg.Backend {
	case "", "sql":
		if db == nil {
			return nil, nil, fmt.Errorf("sql cache backend requires a database")
		}
		return db.CacheStore(), nil, nil
	case "memory":
		return cache.NewMemoryStore(), nil, nil
	case "badger":
		s, err := cache.OpenBadgerStore(cfg.BadgerPath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "redis":
		s, err := cache.OpenRedisStore(ctx, cfg.RedisURL, cfg.RedisKeyPrefix)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// initCache builds the recommendation cache and its evictor.
func initCache(ctx context.Context, cfg config.CacheConfig, db *database.DB) (*CacheComponents, error) {
	store, closer, err := newCacheStore(ctx, cfg, db)
	if err != nil {
		return nil, fmt.Errorf("open cache store: %w", err)
	}

	c := cache.New(store, cache.Config{
		TTL:           cfg.TTL,
		MaxEntries:    cfg.MaxEntries,
		EvictionQueue: cfg.EvictionQueue,
	})

	logging.Info().
		Str("backend", c.Backend()).
		Dur("ttl", cfg.TTL).
		Int("max_entries", cfg.MaxEntries).
		Msg("Recommendation cache initialized")

	return &CacheComponents{
		Cache:   c,
		Evictor: cache.NewEvictor(c, cfg.EvictionInterval),
		closer:  closer,
	}, nil
}
