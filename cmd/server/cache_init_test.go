// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/newsrank/internal/cache"
	"github.com/tomtom215/newsrank/internal/config"
	"github.com/tomtom215/newsrank/internal/database"
)

func newSQLiteDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(&config.DatabaseConfig{
		Driver:       database.DriverSQLite,
		Path:         filepath.Join(t.TempDir(), "newsrank.db"),
		QueryTimeout: 10 * time.Second,
	})
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNewCacheStore(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.CacheConfig
		withDB     bool
		wantName   string
		wantCloser bool
		wantErr    bool
	}{
		{name: "default is sql", cfg: config.CacheConfig{}, withDB: true, wantName: "sql"},
		{name: "sql", cfg: config.CacheConfig{Backend: "sql"}, withDB: true, wantName: "sql"},
		{name: "sql without database", cfg: config.CacheConfig{Backend: "sql"}, wantErr: true},
		{name: "memory", cfg: config.CacheConfig{Backend: "memory"}, wantName: "memory"},
		{name: "badger", cfg: config.CacheConfig{Backend: "badger"}, wantName: "badger", wantCloser: true},
		{name: "redis bad url", cfg: config.CacheConfig{Backend: "redis", RedisURL: "not a url"}, wantErr: true},
		{name: "unknown", cfg: config.CacheConfig{Backend: "memcached"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var db *database.DB
			if tt.withDB {
				db = newSQLiteDB(t)
			}
			if tt.cfg.Backend == "badger" {
				tt.cfg.BadgerPath = t.TempDir()
			}

			store, closer, err := newCacheStore(context.Background(), tt.cfg, db)
			if (err != nil) != tt.wantErr {
				t.Fatalf("newCacheStore() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if closer != nil {
				t.Cleanup(func() { _ = closer() })
			}
			if got := store.Name(); got != tt.wantName {
				t.Errorf("store.Name() = %q, want %q", got, tt.wantName)
			}
			if (closer != nil) != tt.wantCloser {
				t.Errorf("closer present = %v, want %v", closer != nil, tt.wantCloser)
			}
		})
	}
}

func TestInitCache(t *testing.T) {
	components, err := initCache(context.Background(), config.CacheConfig{
		Backend:          "memory",
		TTL:              time.Minute,
		MaxEntries:       10,
		EvictionInterval: time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("initCache() error = %v", err)
	}
	defer components.Close()

	c := components.Cache
	if c.Backend() != "memory" {
		t.Errorf("Backend() = %q, want memory", c.Backend())
	}
	if got := c.Config().MaxEntries; got != 10 {
		t.Errorf("MaxEntries = %d, want 10", got)
	}
	if components.Evictor == nil {
		t.Fatal("Evictor is nil")
	}

	ctx := context.Background()
	key := cache.Key("alice", cache.Options{Page: 1, PageSize: 10})
	if !c.Put(ctx, key, "alice", map[string]int{"n": 1}, cache.Options{Page: 1, PageSize: 10}) {
		t.Fatal("Put() = false")
	}
	var got map[string]int
	if !c.Get(ctx, key, &got) || got["n"] != 1 {
		t.Errorf("Get() = %v, want cached value", got)
	}
}

func TestInitCache_Error(t *testing.T) {
	if _, err := initCache(context.Background(), config.CacheConfig{Backend: "bogus"}, nil); err == nil {
		t.Error("initCache() accepted an unknown backend")
	}
}

func TestCacheComponents_CloseNil(t *testing.T) {
	var c *CacheComponents
	if err := c.Close(); err != nil {
		t.Errorf("Close() on nil = %v", err)
	}
	if err := (&CacheComponents{}).Close(); err != nil {
		t.Errorf("Close() without closer = %v", err)
	}
}
