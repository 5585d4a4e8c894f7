// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

//go:build integration

package cache_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/tomtom215/newsrank/internal/cache"
	"github.com/tomtom215/newsrank/internal/cache/cachetest"
	"github.com/tomtom215/newsrank/internal/testinfra"
)

func TestRedisStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	testinfra.SkipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	redis, err := testinfra.NewRedisContainer(ctx)
	if err != nil {
		t.Fatalf("Failed to create Redis container: %v", err)
	}
	defer testinfra.CleanupContainer(t, ctx, redis.Container)

	n := 0
	cachetest.StoreContract(t, func(t *testing.T) cache.Store {
		n++
		s, err := cache.OpenRedisStore(ctx, redis.URL, fmt.Sprintf("test%d:", n))
		if err != nil {
			t.Fatalf("OpenRedisStore() error = %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}
