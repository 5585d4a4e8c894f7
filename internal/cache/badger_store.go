// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// Key prefixes for BadgerDB storage
const (
	badgerEntryPrefix = "reccache:e:"
	badgerUserPrefix  = "reccache:u:"
	badgerMaxRetries  = 64
)

type badgerRecord struct {
	UserID    string    `json:"user_id"`
	Data      []byte    `json:"data"`
	Options   []byte    `json:"options"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	HitCount  int64     `json:"hit_count"`
}

// BadgerStore keeps entries in an embedded BadgerDB. A secondary
// user index makes DeleteUser a prefix scan.
//
// Entries are written with a badger TTL equal to their lifetime
// (ExpiresAt - CreatedAt), so badger drops dead rows on its own even if no
// sweep runs. The stored expires_at stays authoritative for reads.
type BadgerStore struct {
	db    *badger.DB
	owned bool
}

// OpenBadgerStore opens (or creates) a BadgerDB at path. The store closes it.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}
	return &BadgerStore{db: db, owned: true}, nil
}

// NewBadgerStore wraps an already open database. The caller closes it.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// Close releases the database if this store opened it.
func (s *BadgerStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

func (s *BadgerStore) Name() string { return "badger" }

func entryKey(key string) []byte { return []byte(badgerEntryPrefix + key) }

func userKey(userID, key string) []byte {
	return []byte(badgerUserPrefix + userID + "\x00" + key)
}

// update retries txn conflicts from concurrent Get/Put on the same key.
func (s *BadgerStore) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < badgerMaxRetries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

// withLifetime sets a badger TTL of lifetime on e. Entries whose lifetime
// is already over get none and wait for DeleteExpired to count them.
func withLifetime(e *badger.Entry, lifetime time.Duration) *badger.Entry {
	if lifetime <= 0 {
		return e
	}
	return e.WithTTL(lifetime)
}

func readRecord(item *badger.Item) (badgerRecord, error) {
	var rec badgerRecord
	err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	})
	return rec, err
}

func (s *BadgerStore) Get(ctx context.Context, key string, now time.Time) (*Entry, error) {
	var out *Entry
	err := s.update(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get(entryKey(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrMiss
		}
		if err != nil {
			return fmt.Errorf("get entry: %w", err)
		}
		rec, err := readRecord(item)
		if err != nil {
			return fmt.Errorf("decode entry: %w", err)
		}
		if !rec.ExpiresAt.After(now) {
			return ErrMiss
		}

		rec.HitCount++
		data, err := json.Marshal(&rec)
		if err != nil {
			return fmt.Errorf("encode entry: %w", err)
		}
		// keep the TTL the row was written with
		ent := badger.NewEntry(entryKey(key), data)
		ent.ExpiresAt = item.ExpiresAt()
		if err := txn.SetEntry(ent); err != nil {
			return fmt.Errorf("set entry: %w", err)
		}
		out = rec.entry(key)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BadgerStore) Put(ctx context.Context, e *Entry) error {
	rec := badgerRecord{
		UserID:    e.UserID,
		Data:      e.Data,
		Options:   e.Options,
		CreatedAt: e.CreatedAt,
		ExpiresAt: e.ExpiresAt,
	}
	data, err := json.Marshal(&rec)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	return s.update(ctx, func(txn *badger.Txn) error {
		// Drop a stale index row if the key changed owner.
		if item, err := txn.Get(entryKey(e.Key)); err == nil {
			if prev, err := readRecord(item); err == nil && prev.UserID != e.UserID {
				if err := txn.Delete(userKey(prev.UserID, e.Key)); err != nil {
					return fmt.Errorf("delete user mapping: %w", err)
				}
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("get entry: %w", err)
		}

		lifetime := e.ExpiresAt.Sub(e.CreatedAt)
		if err := txn.SetEntry(withLifetime(badger.NewEntry(entryKey(e.Key), data), lifetime)); err != nil {
			return fmt.Errorf("set entry: %w", err)
		}
		if err := txn.SetEntry(withLifetime(badger.NewEntry(userKey(e.UserID, e.Key), []byte{}), lifetime)); err != nil {
			return fmt.Errorf("set user mapping: %w", err)
		}
		return nil
	})
}

type badgerRow struct {
	key string
	rec badgerRecord
}

// scan visits every entry. Undecodable rows are returned with a zero
// record so sweeps can still remove them.
func (s *BadgerStore) scan() ([]badgerRow, error) {
	var rows []badgerRow
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(badgerEntryPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := strings.TrimPrefix(string(item.Key()), badgerEntryPrefix)
			rec, err := readRecord(item)
			if err != nil {
				rec = badgerRecord{}
			}
			rows = append(rows, badgerRow{key: key, rec: rec})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan entries: %w", err)
	}
	return rows, nil
}

func (s *BadgerStore) deleteRows(rows []badgerRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, r := range rows {
		if err := wb.Delete(entryKey(r.key)); err != nil {
			return 0, fmt.Errorf("delete entry: %w", err)
		}
		if err := wb.Delete(userKey(r.rec.UserID, r.key)); err != nil {
			return 0, fmt.Errorf("delete user mapping: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("flush deletes: %w", err)
	}
	return int64(len(rows)), nil
}

func (s *BadgerStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	rows, err := s.scan()
	if err != nil {
		return 0, err
	}
	var expired []badgerRow
	for _, r := range rows {
		if !r.rec.ExpiresAt.After(now) {
			expired = append(expired, r)
		}
	}
	return s.deleteRows(expired)
}

func (s *BadgerStore) TrimOldest(_ context.Context, max int) (int64, error) {
	rows, err := s.scan()
	if err != nil {
		return 0, err
	}
	if len(rows) <= max {
		return 0, nil
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].rec.CreatedAt.Equal(rows[j].rec.CreatedAt) {
			return rows[i].key < rows[j].key
		}
		return rows[i].rec.CreatedAt.Before(rows[j].rec.CreatedAt)
	})
	return s.deleteRows(rows[:len(rows)-max])
}

func (s *BadgerStore) DeleteUser(_ context.Context, userID string) (int64, error) {
	var rows []badgerRow
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(badgerUserPrefix + userID + "\x00")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := strings.TrimPrefix(string(it.Item().Key()), string(prefix))
			rows = append(rows, badgerRow{key: key, rec: badgerRecord{UserID: userID}})
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("list user entries: %w", err)
	}
	return s.deleteRows(rows)
}

func (s *BadgerStore) Stats(_ context.Context, now time.Time) (StoreStats, error) {
	rows, err := s.scan()
	if err != nil {
		return StoreStats{}, err
	}

	var st StoreStats
	var hits int64
	for _, r := range rows {
		st.Total++
		if r.rec.ExpiresAt.After(now) {
			st.Active++
		}
		hits += r.rec.HitCount
		if r.rec.HitCount > st.MaxHits {
			st.MaxHits = r.rec.HitCount
		}
		if st.Oldest.IsZero() || r.rec.CreatedAt.Before(st.Oldest) {
			st.Oldest = r.rec.CreatedAt
		}
		if r.rec.CreatedAt.After(st.Newest) {
			st.Newest = r.rec.CreatedAt
		}
	}
	if st.Total > 0 {
		st.AvgHits = float64(hits) / float64(st.Total)
	}
	return st, nil
}

func (r badgerRecord) entry(key string) *Entry {
	return &Entry{
		Key:       key,
		UserID:    r.UserID,
		Data:      r.Data,
		Options:   r.Options,
		CreatedAt: r.CreatedAt,
		ExpiresAt: r.ExpiresAt,
		HitCount:  r.HitCount,
	}
}
