// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package cache

import (
	"context"
	"sync"
	"time"
)

type memoryNode struct {
	entry Entry
	prev  *memoryNode
	next  *memoryNode
}

// MemoryStore keeps entries in process memory. Entries are linked in
// creation order so TrimOldest walks from the tail in O(removed).
// Contents do not survive a restart.
type MemoryStore struct {
	mu sync.Mutex

	items map[string]*memoryNode

	// head.next is the newest entry, tail.prev the oldest
	head *memoryNode
	tail *memoryNode
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		items: make(map[string]*memoryNode),
		head:  &memoryNode{},
		tail:  &memoryNode{},
	}
	s.head.next = s.tail
	s.tail.prev = s.head
	return s
}

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) Get(_ context.Context, key string, now time.Time) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.items[key]
	if !ok || !n.entry.ExpiresAt.After(now) {
		return nil, ErrMiss
	}
	n.entry.HitCount++
	e := n.entry
	return &e, nil
}

func (s *MemoryStore) Put(_ context.Context, e *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *e
	stored.HitCount = 0
	stored.Data = append([]byte(nil), e.Data...)
	stored.Options = append([]byte(nil), e.Options...)

	if n, ok := s.items[e.Key]; ok {
		n.entry = stored
		s.unlink(n)
		s.pushFront(n)
		return nil
	}

	n := &memoryNode{entry: stored}
	s.pushFront(n)
	s.items[e.Key] = n
	return nil
}

func (s *MemoryStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for n := s.tail.prev; n != s.head; {
		prev := n.prev
		if !n.entry.ExpiresAt.After(now) {
			s.remove(n)
			removed++
		}
		n = prev
	}
	return removed, nil
}

func (s *MemoryStore) TrimOldest(_ context.Context, max int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for len(s.items) > max {
		oldest := s.tail.prev
		if oldest == s.head {
			break
		}
		s.remove(oldest)
		removed++
	}
	return removed, nil
}

func (s *MemoryStore) DeleteUser(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for n := s.head.next; n != s.tail; {
		next := n.next
		if n.entry.UserID == userID {
			s.remove(n)
			removed++
		}
		n = next
	}
	return removed, nil
}

func (s *MemoryStore) Stats(_ context.Context, now time.Time) (StoreStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var st StoreStats
	var hits int64
	for n := s.head.next; n != s.tail; n = n.next {
		st.Total++
		if n.entry.ExpiresAt.After(now) {
			st.Active++
		}
		hits += n.entry.HitCount
		if n.entry.HitCount > st.MaxHits {
			st.MaxHits = n.entry.HitCount
		}
		if st.Oldest.IsZero() || n.entry.CreatedAt.Before(st.Oldest) {
			st.Oldest = n.entry.CreatedAt
		}
		if n.entry.CreatedAt.After(st.Newest) {
			st.Newest = n.entry.CreatedAt
		}
	}
	if st.Total > 0 {
		st.AvgHits = float64(hits) / float64(st.Total)
	}
	return st, nil
}

// Len returns the number of stored entries, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// List helpers, called with mu held.

func (s *MemoryStore) pushFront(n *memoryNode) {
	n.prev = s.head
	n.next = s.head.next
	s.head.next.prev = n
	s.head.next = n
}

func (s *MemoryStore) unlink(n *memoryNode) {
	n.prev.next = n.next
	n.next.prev = n.prev
}

func (s *MemoryStore) remove(n *memoryNode) {
	s.unlink(n)
	delete(s.items, n.entry.Key)
}
