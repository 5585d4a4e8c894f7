// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/tomtom215/newsrank/internal/cache"
	"github.com/tomtom215/newsrank/internal/metrics"
)

// CacheStore implements cache.Store on the recommendation_cache table.
type CacheStore struct {
	db *DB
}

// CacheStore returns the SQL-backed cache store for this database.
func (db *DB) CacheStore() *CacheStore {
	return &CacheStore{db: db}
}

var _ cache.Store = (*CacheStore)(nil)

func (s *CacheStore) Name() string { return "sql" }

// cacheLockStripes is the fixed number of mutexes shared by all cache keys.
const cacheLockStripes = 64

// lockKey locks the stripe owning key. Distinct keys may share a stripe;
// the lock set never grows with the number of keys.
func (s *CacheStore) lockKey(key string) *sync.Mutex {
	mu := &s.db.keyLocks[xxhash.Sum64String(key)%cacheLockStripes]
	mu.Lock()
	return mu
}

// withConflictRetry retries DuckDB transaction conflicts with 1ms, 2ms, 4ms backoff.
func withConflictRetry(ctx context.Context, fn func() error) error {
	const maxRetries = 3
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		err := fn()
		if err == nil || !isTransactionConflict(err) {
			return err
		}
		lastErr = err
		backoff := time.Millisecond * time.Duration(1<<uint(attempt))
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func cacheTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// Get increments hit_count and returns the row in one statement so
// concurrent readers never lose an increment.
func (s *CacheStore) Get(ctx context.Context, key string, now time.Time) (*cache.Entry, error) {
	mu := s.lockKey(key)
	defer mu.Unlock()

	ctx, cancel := s.db.queryContext(ctx)
	defer cancel()

	start := time.Now()
	var e *cache.Entry
	err := withConflictRetry(ctx, func() error {
		var (
			options          sql.NullString
			created, expires scanTime
			entry            = cache.Entry{Key: key}
		)
		err := s.db.conn.QueryRowContext(ctx, `
			UPDATE recommendation_cache
			SET hit_count = hit_count + 1
			WHERE cache_key = ? AND expires_at > ?
			RETURNING user_id, data, options, created_at, expires_at, hit_count`,
			key, cacheTime(now),
		).Scan(&entry.UserID, &entry.Data, &options, &created, &expires, &entry.HitCount)
		if err != nil {
			return err
		}
		entry.Options = []byte(options.String)
		entry.CreatedAt = created.Time
		entry.ExpiresAt = expires.Time
		e = &entry
		return nil
	})
	metrics.RecordDBQuery("update", "recommendation_cache", time.Since(start), ignoreNoRows(err))

	if errors.Is(err, sql.ErrNoRows) {
		return nil, cache.ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}
	return e, nil
}

// Put upserts the row for e.Key, resetting hit_count.
func (s *CacheStore) Put(ctx context.Context, e *cache.Entry) error {
	mu := s.lockKey(e.Key)
	defer mu.Unlock()

	ctx, cancel := s.db.queryContext(ctx)
	defer cancel()

	start := time.Now()
	err := withConflictRetry(ctx, func() error {
		_, err := s.db.conn.ExecContext(ctx, `
			INSERT INTO recommendation_cache
				(cache_key, user_id, data, options, created_at, expires_at, hit_count)
			VALUES (?, ?, ?, ?, ?, ?, 0)
			ON CONFLICT (cache_key) DO UPDATE SET
				user_id = EXCLUDED.user_id,
				data = EXCLUDED.data,
				options = EXCLUDED.options,
				created_at = EXCLUDED.created_at,
				expires_at = EXCLUDED.expires_at,
				hit_count = 0`,
			e.Key, e.UserID, string(e.Data), string(e.Options),
			cacheTime(e.CreatedAt), cacheTime(e.ExpiresAt),
		)
		return err
	})
	metrics.RecordDBQuery("upsert", "recommendation_cache", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

func (s *CacheStore) exec(ctx context.Context, op, query string, args ...any) (int64, error) {
	ctx, cancel := s.db.queryContext(ctx)
	defer cancel()

	start := time.Now()
	var n int64
	err := withConflictRetry(ctx, func() error {
		res, err := s.db.conn.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	metrics.RecordDBQuery(op, "recommendation_cache", time.Since(start), err)
	return n, err
}

func (s *CacheStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.exec(ctx, "delete",
		`DELETE FROM recommendation_cache WHERE expires_at <= ?`, cacheTime(now))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired cache entries: %w", err)
	}
	return n, nil
}

// TrimOldest deletes by creation order, ties broken by id.
func (s *CacheStore) TrimOldest(ctx context.Context, max int) (int64, error) {
	qctx, cancel := s.db.queryContext(ctx)
	var total int64
	err := s.db.conn.QueryRowContext(qctx, `SELECT COUNT(*) FROM recommendation_cache`).Scan(&total)
	cancel()
	if err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}

	excess := total - int64(max)
	if excess <= 0 {
		return 0, nil
	}

	n, err := s.exec(ctx, "delete", `
		DELETE FROM recommendation_cache WHERE id IN (
			SELECT id FROM recommendation_cache ORDER BY created_at ASC, id ASC LIMIT ?
		)`, excess)
	if err != nil {
		return 0, fmt.Errorf("failed to trim cache: %w", err)
	}
	return n, nil
}

func (s *CacheStore) DeleteUser(ctx context.Context, userID string) (int64, error) {
	n, err := s.exec(ctx, "delete",
		`DELETE FROM recommendation_cache WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to invalidate cache for %s: %w", userID, err)
	}
	return n, nil
}

// Stats reads the aggregates and the oldest and newest creation times.
func (s *CacheStore) Stats(ctx context.Context, now time.Time) (cache.StoreStats, error) {
	ctx, cancel := s.db.queryContext(ctx)
	defer cancel()

	var st cache.StoreStats
	var sum int64
	err := s.db.conn.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(CASE WHEN expires_at > ? THEN 1 END),
			CAST(COALESCE(SUM(hit_count), 0) AS BIGINT),
			CAST(COALESCE(MAX(hit_count), 0) AS BIGINT)
		FROM recommendation_cache`, cacheTime(now),
	).Scan(&st.Total, &st.Active, &sum, &st.MaxHits)
	if err != nil {
		return st, fmt.Errorf("failed to query cache stats: %w", err)
	}
	if st.Total == 0 {
		return st, nil
	}
	st.AvgHits = float64(sum) / float64(st.Total)

	var oldest, newest scanTime
	if err := s.db.conn.QueryRowContext(ctx,
		`SELECT created_at FROM recommendation_cache ORDER BY created_at ASC LIMIT 1`,
	).Scan(&oldest); err != nil {
		return st, fmt.Errorf("failed to query oldest cache entry: %w", err)
	}
	if err := s.db.conn.QueryRowContext(ctx,
		`SELECT created_at FROM recommendation_cache ORDER BY created_at DESC LIMIT 1`,
	).Scan(&newest); err != nil {
		return st, fmt.Errorf("failed to query newest cache entry: %w", err)
	}
	st.Oldest = oldest.Time
	st.Newest = newest.Time
	return st, nil
}

func ignoreNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return err
}
