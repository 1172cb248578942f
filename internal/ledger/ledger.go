// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopcore Contributors

// Package ledger provides the append-only audit trail of economic actions
// behind a swappable storage backend.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/oklog/ulid/v2"
)

// Ledger entry actions.
const (
	ActionPurchase        = "purchase"
	ActionSell            = "sell"
	ActionCreditsAdd      = "credits_add"
	ActionCreditsSubtract = "credits_subtract"
)

// ErrNoStore is returned when the manager has no active backend.
var ErrNoStore = errors.New("no ledger store configured")

// Entry is one immutable record of an economic action. Entries are never
// mutated or deleted except by ring-buffer eviction in the memory backend.
type Entry struct {
	ID              ulid.ULID
	Timestamp       int64 // unix seconds
	SteamID         uint64
	PlayerID        int
	PlayerName      string
	Action          string
	Amount          int64
	BalanceAfter    int64
	ItemID          string
	ItemDisplayName string
}

// Store persists ledger entries. Reads return entries newest-first.
type Store interface {
	Record(ctx context.Context, e Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	RecentForSteamID(ctx context.Context, steamID uint64, limit int) ([]Entry, error)
	Mode() string
	Close() error
}

// Manager owns the current ledger backend and serializes replacement.
// Callers read the backend pointer under the lock but the backend's own
// I/O happens outside it, so a slow write never blocks a swap for long.
type Manager struct {
	mu    sync.Mutex
	store Store
}

// NewManager creates a manager around an initial backend, which may be nil.
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

func (m *Manager) current() Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store
}

// Record appends an entry to the active backend, assigning a ULID if the
// entry does not carry one.
func (m *Manager) Record(ctx context.Context, e Entry) error {
	s := m.current()
	if s == nil {
		return ErrNoStore
	}
	if e.ID.Compare(ulid.ULID{}) == 0 {
		e.ID = ulid.Make()
	}
	return s.Record(ctx, e)
}

// Recent returns up to limit entries, newest first.
func (m *Manager) Recent(ctx context.Context, limit int) ([]Entry, error) {
	s := m.current()
	if s == nil {
		return nil, ErrNoStore
	}
	return s.Recent(ctx, limit)
}

// RecentForSteamID returns up to limit entries for one player, newest first.
func (m *Manager) RecentForSteamID(ctx context.Context, steamID uint64, limit int) ([]Entry, error) {
	s := m.current()
	if s == nil {
		return nil, ErrNoStore
	}
	return s.RecentForSteamID(ctx, steamID, limit)
}

// Mode returns the active backend's descriptive mode string.
func (m *Manager) Mode() string {
	s := m.current()
	if s == nil {
		return "none"
	}
	return s.Mode()
}

// Swap replaces the active backend. The previous backend is closed only
// after the replacement is visible to all subsequent readers, so no writer
// is left holding a disposed store.
func (m *Manager) Swap(next Store) {
	m.mu.Lock()
	old := m.store
	m.store = next
	m.mu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			slog.Warn("failed to close replaced ledger store", "mode", old.Mode(), "error", err)
		}
	}
}

// Close disposes the active backend and leaves the manager empty.
func (m *Manager) Close() error {
	m.mu.Lock()
	old := m.store
	m.store = nil
	m.mu.Unlock()

	if old == nil {
		return nil
	}
	return old.Close()
}
