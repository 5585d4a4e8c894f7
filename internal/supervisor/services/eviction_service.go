// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package services

import (
	"context"
	"fmt"

	"github.com/tomtom215/newsrank/internal/cache"
	"github.com/tomtom215/newsrank/internal/logging"
)

// EvictionLoop is the long-running sweep loop. Implemented by *cache.Evictor.
type EvictionLoop interface {
	Serve(ctx context.Context) error
}

// Sweeper runs one eviction pass. Implemented by *cache.Cache.
type Sweeper interface {
	Evict(ctx context.Context) (cache.EvictResult, error)
}

// EvictionService runs cache eviction in the data layer.
//
// With startupSweep set, entries that expired while the process was down
// are removed before the loop starts. The loop then sweeps on its ticker
// and after cache writes, which Cache.Put signals without blocking.
//
//	svc := services.NewEvictionService(components.Evictor, components.Cache, true)
//	tree.AddDataService(svc)
type EvictionService struct {
	loop         EvictionLoop
	sweeper      Sweeper
	startupSweep bool
}

// NewEvictionService creates the service. sweeper may be nil when
// startupSweep is false.
func NewEvictionService(loop EvictionLoop, sweeper Sweeper, startupSweep bool) *EvictionService {
	return &EvictionService{loop: loop, sweeper: sweeper, startupSweep: startupSweep && sweeper != nil}
}

// Serve implements suture.Service.
//
//  1. run the startup sweep when enabled; a failure is logged and ignored
//  2. run the eviction loop until ctx ends
//
// A loop error while ctx is live is returned wrapped so the supervisor
// restarts the service. After cancellation Serve returns ctx.Err().
func (s *EvictionService) Serve(ctx context.Context) error {
	if s.startupSweep {
		res, err := s.sweeper.Evict(ctx)
		if err != nil {
			logging.Warn().Err(err).Str("stage", "evict").Msg("Startup eviction sweep failed")
		} else {
			logging.Info().
				Int64("expired", res.Expired).
				Int64("overflow", res.Overflow).
				Msg("Startup eviction sweep completed")
		}
	}

	if err := s.loop.Serve(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("cache eviction loop failed: %w", err)
	}
	return ctx.Err()
}

// String names the service in supervisor log lines.
func (s *EvictionService) String() string {
	return "cache-eviction"
}
