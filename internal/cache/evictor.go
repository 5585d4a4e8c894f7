// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package cache

import (
	"context"
	"time"
)

// Evictor runs eviction sweeps off the request path. It sweeps once per
// signal queued by Cache.Put and once per interval tick. It implements
// suture.Service.
type Evictor struct {
	cache    *Cache
	interval time.Duration
	sweeps   chan EvictResult // test hook, nil in production
}

// NewEvictor creates an evictor for c. A non-positive interval disables the
// periodic sweep.
func NewEvictor(c *Cache, interval time.Duration) *Evictor {
	return &Evictor{cache: c, interval: interval}
}

// Serve blocks until ctx is canceled.
func (e *Evictor) Serve(ctx context.Context) error {
	var tick <-chan time.Time
	if e.interval > 0 {
		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	e.cache.logger.Info().Dur("interval", e.interval).Msg("Cache evictor started")

	for {
		select {
		case <-ctx.Done():
			e.cache.logger.Info().Msg("Cache evictor stopped")
			return ctx.Err()
		case <-e.cache.Signals():
			e.sweep(ctx)
		case <-tick:
			e.sweep(ctx)
		}
	}
}

func (e *Evictor) sweep(ctx context.Context) {
	res, err := e.cache.Evict(ctx)
	if err != nil {
		e.cache.logger.Warn().Err(err).Str("stage", "evict").Msg("Eviction sweep failed")
		return
	}
	if res.Expired > 0 || res.Overflow > 0 {
		e.cache.logger.Debug().
			Int64("expired", res.Expired).
			Int64("overflow", res.Overflow).
			Msg("Eviction sweep removed entries")
	}
	if e.sweeps != nil {
		select {
		case e.sweeps <- res:
		default:
		}
	}
}

// String names the service in supervisor logs.
func (e *Evictor) String() string {
	return "cache-evictor"
}
