// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

/*
Package cache persists ranked recommendation result sets with a TTL, a hit
counter and a bounded entry count.

# Overview

A Cache wraps one Store backend:
  - MemoryStore: process-local, creation-ordered linked list
  - BadgerStore: embedded BadgerDB with a per-user key index
  - RedisStore: shared across instances; hash per entry plus sorted-set indexes
  - database.CacheStore: the recommendation_cache table next to the articles

Entries are keyed by Key(user, Options), so two requests share an entry only
when user, page, page size and both flags match.

# Failure Semantics

Cache failures never fail a recommendation request. Get reports a miss on
backend errors and on payloads that no longer decode; Put reports false on
encoding or backend errors. Both are logged and counted in
newsrank_cache_misses_total / newsrank_cache_writes_total.

# Eviction

Put never blocks on eviction. After a successful write it queues a signal on
a bounded channel; the Evictor service drains it and runs Evict, which first
removes expired entries and then trims the oldest-created entries beyond
MaxEntries. The Evictor also sweeps on a fixed interval. Signals arriving
while the queue is full are dropped and counted, since a queued sweep will
observe the newer entries anyway.

# Usage

	store := cache.NewMemoryStore()
	c := cache.New(store, cache.Config{TTL: 30 * time.Minute, MaxEntries: 1000})
	sup.Add(cache.NewEvictor(c, time.Minute))

	key := cache.Key("alice", cache.Options{Page: 1, PageSize: 20})
	var resp recommend.Response
	if !c.Get(ctx, key, &resp) {
	    resp = compute()
	    c.Put(ctx, key, "alice", resp, opts)
	}
*/
package cache
