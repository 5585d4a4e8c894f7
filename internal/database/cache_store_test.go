// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package database

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/newsrank/internal/cache"
	"github.com/tomtom215/newsrank/internal/cache/cachetest"
)

func TestCacheStore(t *testing.T) {
	for _, driver := range []string{DriverDuckDB, DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			cachetest.StoreContract(t, func(t *testing.T) cache.Store {
				return newTestDB(t, driver).CacheStore()
			})
		})
	}
}

func TestCacheStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	open := func() *DB {
		db, err := New(testConfig(DriverSQLite, path))
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		return db
	}

	db := open()
	c := cache.New(db.CacheStore(), cache.Config{TTL: time.Hour})
	if !c.Put(ctx, "k", "alice", map[string]int{"n": 1}, cache.Options{Page: 1}) {
		t.Fatal("Put() = false")
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	db = open()
	defer db.Close()
	e, err := db.CacheStore().Get(ctx, "k", time.Now())
	if err != nil {
		t.Fatalf("Get() after reopen error = %v", err)
	}
	if string(e.Data) != `{"n":1}` || e.UserID != "alice" {
		t.Errorf("entry after reopen = %+v", e)
	}
	if string(e.Options) != `{"page":1,"pageSize":0,"forceRefresh":false,"enableExplain":false}` {
		t.Errorf("Options = %s", e.Options)
	}
}

func TestCacheStore_LockSetIsBounded(t *testing.T) {
	db := newTestDB(t, DriverSQLite)
	store := db.CacheStore()
	ctx := context.Background()

	seen := map[*sync.Mutex]bool{}
	for i := 0; i < 5000; i++ {
		key := fmt.Sprintf("rec_user%d_{\"page\":1}", i)
		mu := store.lockKey(key)
		seen[mu] = true
		mu.Unlock()
	}
	if len(seen) > cacheLockStripes {
		t.Errorf("distinct locks = %d, want at most %d", len(seen), cacheLockStripes)
	}

	// The same key always maps to the same stripe.
	a := store.lockKey("rec_alice_x")
	a.Unlock()
	b := store.lockKey("rec_alice_x")
	b.Unlock()
	if a != b {
		t.Error("lockKey returned different stripes for the same key")
	}

	// Misses on many distinct keys still leave the store usable.
	for i := 0; i < 200; i++ {
		if _, err := store.Get(ctx, fmt.Sprintf("missing-%d", i), time.Now()); !errors.Is(err, cache.ErrMiss) {
			t.Fatalf("Get(missing) error = %v, want ErrMiss", err)
		}
	}
}
