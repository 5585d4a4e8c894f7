// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Each entry is a hash. Two sorted sets index keys by creation and expiry
// time, and one set per user lists that user's keys. Times are Unix
// microseconds so they stay exact as Lua numbers and zset scores.
const (
	redisEntryPrefix = "e:"
	redisUserPrefix  = "u:"
	redisCreatedZSet = "created"
	redisExpiresZSet = "expires"
)

// getAndHit returns nil for absent or expired entries.
var getAndHit = redis.NewScript(`
local exp = redis.call('HGET', KEYS[1], 'expires_at')
if not exp then return nil end
if tonumber(exp) <= tonumber(ARGV[1]) then return nil end
redis.call('HINCRBY', KEYS[1], 'hit_count', 1)
return redis.call('HGETALL', KEYS[1])
`)

// RedisStore keeps entries in Redis so several server instances share one
// cache.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// OpenRedisStore connects to rawURL and verifies the connection.
func OpenRedisStore(ctx context.Context, rawURL, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}
	return NewRedisStore(client, prefix), nil
}

// NewRedisStore wraps client. All keys are namespaced under prefix.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Name() string { return "redis" }

func (s *RedisStore) entryKey(key string) string { return s.prefix + redisEntryPrefix + key }
func (s *RedisStore) userKey(user string) string { return s.prefix + redisUserPrefix + user }
func (s *RedisStore) createdKey() string         { return s.prefix + redisCreatedZSet }
func (s *RedisStore) expiresKey() string         { return s.prefix + redisExpiresZSet }

func (s *RedisStore) Get(ctx context.Context, key string, now time.Time) (*Entry, error) {
	res, err := getAndHit.Run(ctx, s.client, []string{s.entryKey(key)}, now.UnixMicro()).Slice()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}

	fields := make(map[string]string, len(res)/2)
	for i := 0; i+1 < len(res); i += 2 {
		k, _ := res[i].(string)
		v, _ := res[i+1].(string)
		fields[k] = v
	}
	return decodeRedisEntry(key, fields)
}

func decodeRedisEntry(key string, fields map[string]string) (*Entry, error) {
	created, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode created_at: %w", err)
	}
	expires, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode expires_at: %w", err)
	}
	hits, err := strconv.ParseInt(fields["hit_count"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode hit_count: %w", err)
	}
	return &Entry{
		Key:       key,
		UserID:    fields["user_id"],
		Data:      []byte(fields["data"]),
		Options:   []byte(fields["options"]),
		CreatedAt: time.UnixMicro(created).UTC(),
		ExpiresAt: time.UnixMicro(expires).UTC(),
		HitCount:  hits,
	}, nil
}

func (s *RedisStore) Put(ctx context.Context, e *Entry) error {
	ek := s.entryKey(e.Key)

	prevUser, err := s.client.HGet(ctx, ek, "user_id").Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("read previous owner: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if prevUser != "" && prevUser != e.UserID {
			pipe.SRem(ctx, s.userKey(prevUser), e.Key)
		}
		pipe.Del(ctx, ek)
		pipe.HSet(ctx, ek,
			"user_id", e.UserID,
			"data", e.Data,
			"options", e.Options,
			"created_at", e.CreatedAt.UnixMicro(),
			"expires_at", e.ExpiresAt.UnixMicro(),
			"hit_count", 0,
		)
		pipe.ZAdd(ctx, s.createdKey(), redis.Z{Score: float64(e.CreatedAt.UnixMicro()), Member: e.Key})
		pipe.ZAdd(ctx, s.expiresKey(), redis.Z{Score: float64(e.ExpiresAt.UnixMicro()), Member: e.Key})
		pipe.SAdd(ctx, s.userKey(e.UserID), e.Key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("write entry: %w", err)
	}
	return nil
}

// removeKeys deletes entries and their index rows. Owners are read first
// so the per-user sets stay consistent.
func (s *RedisStore) removeKeys(ctx context.Context, keys []string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	owners := make([]*redis.StringCmd, len(keys))
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, k := range keys {
			owners[i] = pipe.HGet(ctx, s.entryKey(k), "user_id")
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("read owners: %w", err)
	}

	dels := make([]*redis.IntCmd, len(keys))
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, k := range keys {
			dels[i] = pipe.Del(ctx, s.entryKey(k))
			pipe.ZRem(ctx, s.createdKey(), k)
			pipe.ZRem(ctx, s.expiresKey(), k)
			if owner, err := owners[i].Result(); err == nil && owner != "" {
				pipe.SRem(ctx, s.userKey(owner), k)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete entries: %w", err)
	}

	var removed int64
	for _, d := range dels {
		removed += d.Val()
	}
	return removed, nil
}

func (s *RedisStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	keys, err := s.client.ZRangeByScore(ctx, s.expiresKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.UnixMicro(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("list expired: %w", err)
	}
	return s.removeKeys(ctx, keys)
}

func (s *RedisStore) TrimOldest(ctx context.Context, max int) (int64, error) {
	total, err := s.client.ZCard(ctx, s.createdKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	excess := total - int64(max)
	if excess <= 0 {
		return 0, nil
	}
	keys, err := s.client.ZRange(ctx, s.createdKey(), 0, excess-1).Result()
	if err != nil {
		return 0, fmt.Errorf("list oldest: %w", err)
	}
	return s.removeKeys(ctx, keys)
}

func (s *RedisStore) DeleteUser(ctx context.Context, userID string) (int64, error) {
	keys, err := s.client.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("list user entries: %w", err)
	}
	n, err := s.removeKeys(ctx, keys)
	if err != nil {
		return 0, err
	}
	if err := s.client.Del(ctx, s.userKey(userID)).Err(); err != nil {
		return n, fmt.Errorf("delete user index: %w", err)
	}
	return n, nil
}

func (s *RedisStore) Stats(ctx context.Context, now time.Time) (StoreStats, error) {
	var st StoreStats

	keys, err := s.client.ZRangeWithScores(ctx, s.createdKey(), 0, -1).Result()
	if err != nil {
		return st, fmt.Errorf("list entries: %w", err)
	}
	if len(keys) == 0 {
		return st, nil
	}
	st.Total = int64(len(keys))
	st.Oldest = time.UnixMicro(int64(keys[0].Score)).UTC()
	st.Newest = time.UnixMicro(int64(keys[len(keys)-1].Score)).UTC()

	active, err := s.client.ZCount(ctx, s.expiresKey(), "("+strconv.FormatInt(now.UnixMicro(), 10), "+inf").Result()
	if err != nil {
		return st, fmt.Errorf("count active: %w", err)
	}
	st.Active = active

	hitCmds := make([]*redis.StringCmd, len(keys))
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, z := range keys {
			member, _ := z.Member.(string)
			hitCmds[i] = pipe.HGet(ctx, s.entryKey(member), "hit_count")
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return st, fmt.Errorf("read hit counts: %w", err)
	}

	var hits int64
	for _, c := range hitCmds {
		h, err := c.Int64()
		if err != nil {
			continue
		}
		hits += h
		if h > st.MaxHits {
			st.MaxHits = h
		}
	}
	st.AvgHits = float64(hits) / float64(st.Total)
	return st, nil
}
