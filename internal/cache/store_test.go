// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/newsrank/internal/cache"
	"github.com/tomtom215/newsrank/internal/cache/cachetest"
)

func TestMemoryStore(t *testing.T) {
	cachetest.StoreContract(t, func(t *testing.T) cache.Store {
		return cache.NewMemoryStore()
	})
}

func TestBadgerStore(t *testing.T) {
	cachetest.StoreContract(t, func(t *testing.T) cache.Store {
		s, err := cache.OpenBadgerStore("")
		if err != nil {
			t.Fatalf("OpenBadgerStore() error = %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestBadgerStore_Persists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s, err := cache.OpenBadgerStore(dir)
	if err != nil {
		t.Fatalf("OpenBadgerStore() error = %v", err)
	}
	if err := s.Put(ctx, &cache.Entry{Key: "k", UserID: "u", Data: []byte("{}"), CreatedAt: now, ExpiresAt: now.Add(time.Hour)}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	s, err = cache.OpenBadgerStore(dir)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()

	if _, err := s.Get(ctx, "k", now); err != nil {
		t.Errorf("entry lost across reopen: %v", err)
	}
}

func TestBadgerStore_TTLDropsDeadEntries(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for badger TTL expiry")
	}
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s, err := cache.OpenBadgerStore("")
	if err != nil {
		t.Fatalf("OpenBadgerStore() error = %v", err)
	}
	defer s.Close()

	put := func(key string, lifetime time.Duration) {
		t.Helper()
		e := &cache.Entry{Key: key, UserID: "u", Data: []byte("{}"), CreatedAt: base, ExpiresAt: base.Add(lifetime)}
		if err := s.Put(ctx, e); err != nil {
			t.Fatalf("Put(%s) error = %v", key, err)
		}
	}
	// badger TTLs have one second resolution
	put("short", 2*time.Second)
	put("hit", 2*time.Second)
	put("long", time.Hour)
	put("dead", 0)

	// a hit rewrites the row and must keep its TTL
	if _, err := s.Get(ctx, "hit", base); err != nil {
		t.Fatalf("Get(hit) error = %v", err)
	}
	st, err := s.Stats(ctx, base)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if st.Total != 4 {
		t.Fatalf("Total before expiry = %d, want 4", st.Total)
	}

	time.Sleep(3100 * time.Millisecond)

	// the logical clock has not moved, so only badger can have removed
	// the short rows
	st, err = s.Stats(ctx, base)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if st.Total != 2 {
		t.Errorf("Total after badger TTL = %d, want 2 (long and dead)", st.Total)
	}
	if _, err := s.Get(ctx, "long", base); err != nil {
		t.Errorf("Get(long) error = %v", err)
	}
	n, err := s.DeleteExpired(ctx, base)
	if err != nil {
		t.Fatalf("DeleteExpired() error = %v", err)
	}
	if n != 1 {
		t.Errorf("DeleteExpired() = %d, want 1 (the entry written already expired)", n)
	}
	if n, err := s.DeleteUser(ctx, "u"); err != nil || n != 1 {
		t.Errorf("DeleteUser() = %d, %v; want only the live index row", n, err)
	}
}

func TestMemoryStore_PutCopiesPayload(t *testing.T) {
	s := cache.NewMemoryStore()
	ctx := context.Background()
	now := time.Now()
	data := []byte(`{"a":1}`)
	_ = s.Put(ctx, &cache.Entry{Key: "k", Data: data, CreatedAt: now, ExpiresAt: now.Add(time.Hour)})
	data[2] = 'X'

	got, err := s.Get(ctx, "k", now)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got.Data) != `{"a":1}` {
		t.Errorf("stored payload aliased caller buffer: %s", got.Data)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}
