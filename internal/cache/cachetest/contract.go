// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

// Package cachetest holds the behavior every cache.Store backend must share.
package cachetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/newsrank/internal/cache"
)

// StoreContract runs the shared behavior checks against stores built by
// newStore. Each subtest gets a fresh store.
func StoreContract(t *testing.T, newStore func(t *testing.T) cache.Store) {
	t.Helper()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entry := func(key, user string, created time.Time, ttl time.Duration) *cache.Entry {
		return &cache.Entry{
			Key:       key,
			UserID:    user,
			Data:      []byte(`{"k":"` + key + `"}`),
			Options:   []byte(`{"page":1}`),
			CreatedAt: created,
			ExpiresAt: created.Add(ttl),
		}
	}

	t.Run("get missing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(context.Background(), "nope", base)
		if !errors.Is(err, cache.ErrMiss) {
			t.Fatalf("Get() error = %v, want ErrMiss", err)
		}
	})

	t.Run("get counts hits", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		if err := s.Put(ctx, entry("a", "u1", base, time.Hour)); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		for want := int64(1); want <= 3; want++ {
			got, err := s.Get(ctx, "a", base.Add(time.Minute))
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.HitCount != want {
				t.Errorf("HitCount = %d, want %d", got.HitCount, want)
			}
			if string(got.Data) != `{"k":"a"}` {
				t.Errorf("Data = %s", got.Data)
			}
			if got.UserID != "u1" {
				t.Errorf("UserID = %q, want u1", got.UserID)
			}
		}
	})

	t.Run("expired is a miss", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		if err := s.Put(ctx, entry("a", "u1", base, time.Minute)); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		if _, err := s.Get(ctx, "a", base.Add(time.Minute)); !errors.Is(err, cache.ErrMiss) {
			t.Errorf("Get() at expiry error = %v, want ErrMiss", err)
		}
	})

	t.Run("put resets hit count", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_ = s.Put(ctx, entry("a", "u1", base, time.Hour))
		_, _ = s.Get(ctx, "a", base)
		_, _ = s.Get(ctx, "a", base)
		_ = s.Put(ctx, entry("a", "u1", base.Add(time.Second), time.Hour))
		got, err := s.Get(ctx, "a", base.Add(2*time.Second))
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.HitCount != 1 {
			t.Errorf("HitCount after overwrite = %d, want 1", got.HitCount)
		}
	})

	t.Run("delete expired", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_ = s.Put(ctx, entry("old", "u1", base, time.Minute))
		_ = s.Put(ctx, entry("new", "u1", base, time.Hour))
		n, err := s.DeleteExpired(ctx, base.Add(10*time.Minute))
		if err != nil {
			t.Fatalf("DeleteExpired() error = %v", err)
		}
		if n != 1 {
			t.Errorf("DeleteExpired() = %d, want 1", n)
		}
		if _, err := s.Get(ctx, "new", base.Add(10*time.Minute)); err != nil {
			t.Errorf("live entry removed: %v", err)
		}
	})

	t.Run("trim oldest", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		for i := 0; i < 5; i++ {
			_ = s.Put(ctx, entry(fmt.Sprintf("k%d", i), "u1", base.Add(time.Duration(i)*time.Second), time.Hour))
		}
		n, err := s.TrimOldest(ctx, 3)
		if err != nil {
			t.Fatalf("TrimOldest() error = %v", err)
		}
		if n != 2 {
			t.Errorf("TrimOldest() = %d, want 2", n)
		}
		now := base.Add(time.Minute)
		for _, k := range []string{"k0", "k1"} {
			if _, err := s.Get(ctx, k, now); !errors.Is(err, cache.ErrMiss) {
				t.Errorf("%s should be trimmed, err = %v", k, err)
			}
		}
		for _, k := range []string{"k2", "k3", "k4"} {
			if _, err := s.Get(ctx, k, now); err != nil {
				t.Errorf("%s should remain, err = %v", k, err)
			}
		}
		if n, _ := s.TrimOldest(ctx, 3); n != 0 {
			t.Errorf("second TrimOldest() = %d, want 0", n)
		}
	})

	t.Run("delete user", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_ = s.Put(ctx, entry("a1", "alice", base, time.Hour))
		_ = s.Put(ctx, entry("a2", "alice", base, time.Hour))
		_ = s.Put(ctx, entry("b1", "bob", base, time.Hour))
		n, err := s.DeleteUser(ctx, "alice")
		if err != nil {
			t.Fatalf("DeleteUser() error = %v", err)
		}
		if n != 2 {
			t.Errorf("DeleteUser() = %d, want 2", n)
		}
		if _, err := s.Get(ctx, "b1", base); err != nil {
			t.Errorf("other user's entry removed: %v", err)
		}
	})

	t.Run("stats", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		empty, err := s.Stats(ctx, base)
		if err != nil {
			t.Fatalf("Stats() error = %v", err)
		}
		if empty.Total != 0 || empty.AvgHits != 0 {
			t.Errorf("empty Stats() = %+v", empty)
		}

		_ = s.Put(ctx, entry("a", "u1", base, time.Minute))
		_ = s.Put(ctx, entry("b", "u1", base.Add(time.Second), time.Hour))
		_, _ = s.Get(ctx, "b", base.Add(2*time.Second))
		_, _ = s.Get(ctx, "b", base.Add(2*time.Second))

		st, err := s.Stats(ctx, base.Add(5*time.Minute))
		if err != nil {
			t.Fatalf("Stats() error = %v", err)
		}
		if st.Total != 2 || st.Active != 1 {
			t.Errorf("Total/Active = %d/%d, want 2/1", st.Total, st.Active)
		}
		if st.MaxHits != 2 {
			t.Errorf("MaxHits = %d, want 2", st.MaxHits)
		}
		if st.AvgHits != 1 {
			t.Errorf("AvgHits = %v, want 1", st.AvgHits)
		}
		if !st.Oldest.Equal(base) || !st.Newest.Equal(base.Add(time.Second)) {
			t.Errorf("Oldest/Newest = %v/%v", st.Oldest, st.Newest)
		}
	})

	t.Run("concurrent hits", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_ = s.Put(ctx, entry("hot", "u1", base, time.Hour))

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = s.Get(ctx, "hot", base)
			}()
		}
		wg.Wait()

		got, err := s.Get(ctx, "hot", base)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.HitCount != 21 {
			t.Errorf("HitCount = %d, want 21", got.HitCount)
		}
	})
}
