// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopcore Contributors

package ledger

import (
	"context"
	"sync"
)

// DefaultMemoryCapacity bounds the in-memory ledger when no capacity is
// configured.
const DefaultMemoryCapacity = 1000

// MemoryStore is a fixed-capacity ring buffer. Inserting beyond capacity
// evicts the oldest entry.
type MemoryStore struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
}

// NewMemoryStore creates a memory-backed ledger holding at most capacity
// entries. Non-positive capacities fall back to DefaultMemoryCapacity.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryStore{entries: make([]Entry, capacity)}
}

// Record appends an entry, evicting the oldest when full.
func (s *MemoryStore) Record(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[s.next] = e
	s.next++
	if s.next == len(s.entries) {
		s.next = 0
		s.full = true
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *MemoryStore) Recent(_ context.Context, limit int) ([]Entry, error) {
	return s.collect(limit, func(Entry) bool { return true }), nil
}

// RecentForSteamID returns up to limit entries for one player, newest first.
func (s *MemoryStore) RecentForSteamID(_ context.Context, steamID uint64, limit int) ([]Entry, error) {
	return s.collect(limit, func(e Entry) bool { return e.SteamID == steamID }), nil
}

func (s *MemoryStore) collect(limit int, match func(Entry) bool) []Entry {
	if limit <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	size := s.next
	if s.full {
		size = len(s.entries)
	}

	out := make([]Entry, 0, min(limit, size))
	// Walk backwards from the most recent insertion point.
	for i := 1; i <= size && len(out) < limit; i++ {
		idx := s.next - i
		if idx < 0 {
			idx += len(s.entries)
		}
		if match(s.entries[idx]) {
			out = append(out, s.entries[idx])
		}
	}
	return out
}

// Mode identifies the backend.
func (s *MemoryStore) Mode() string { return "memory" }

// Close is a no-op for the memory backend.
func (s *MemoryStore) Close() error { return nil }
