// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopcore Contributors

package ledger

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver

	"github.com/shopcore/shopcore/internal/xdg"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS shop_ledger (
    id                TEXT PRIMARY KEY,
    created_at        INTEGER NOT NULL,
    steam_id          INTEGER NOT NULL,
    player_id         INTEGER NOT NULL,
    player_name       TEXT NOT NULL,
    action            TEXT NOT NULL,
    amount            INTEGER NOT NULL,
    balance_after     INTEGER NOT NULL,
    item_id           TEXT NOT NULL DEFAULT '',
    item_display_name TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_shop_ledger_steam_id ON shop_ledger (steam_id, id DESC);
`

// SQLiteStore persists ledger entries in an embedded SQL file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) a SQLite-backed ledger at path.
// When autoSync is true the schema is created or completed on startup.
func OpenSQLite(path string, autoSync bool) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, oops.Errorf("ledger database path is required")
	}
	path = filepath.Clean(path)
	if err := xdg.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, oops.Code("LEDGER_OPEN_FAILED").With("path", path).Wrap(err)
	}
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, oops.Code("LEDGER_OPEN_FAILED").With("path", path).Wrap(err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, oops.Code("LEDGER_PING_FAILED").With("path", path).Wrap(err)
	}
	if autoSync {
		if _, err := db.Exec(sqliteSchema); err != nil {
			_ = db.Close()
			return nil, oops.Code("LEDGER_SCHEMA_FAILED").With("path", path).Wrap(err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Record inserts one entry.
func (s *SQLiteStore) Record(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO shop_ledger (id, created_at, steam_id, player_id, player_name,
		   action, amount, balance_after, item_id, item_display_name)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.Timestamp, int64(e.SteamID), e.PlayerID, e.PlayerName,
		e.Action, e.Amount, e.BalanceAfter, e.ItemID, e.ItemDisplayName,
	)
	if err != nil {
		return oops.Code("LEDGER_RECORD_FAILED").With("action", e.Action).Wrap(err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, steam_id, player_id, player_name,
		   action, amount, balance_after, item_id, item_display_name
		 FROM shop_ledger ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, oops.Code("LEDGER_QUERY_FAILED").Wrap(err)
	}
	return scanEntries(rows)
}

// RecentForSteamID returns up to limit entries for one player, newest first.
func (s *SQLiteStore) RecentForSteamID(ctx context.Context, steamID uint64, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, steam_id, player_id, player_name,
		   action, amount, balance_after, item_id, item_display_name
		 FROM shop_ledger WHERE steam_id = ? ORDER BY id DESC LIMIT ?`,
		int64(steamID), limit)
	if err != nil {
		return nil, oops.Code("LEDGER_QUERY_FAILED").With("steam_id", steamID).Wrap(err)
	}
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var id string
		var steamID int64
		if err := rows.Scan(&id, &e.Timestamp, &steamID, &e.PlayerID, &e.PlayerName,
			&e.Action, &e.Amount, &e.BalanceAfter, &e.ItemID, &e.ItemDisplayName); err != nil {
			return nil, oops.Code("LEDGER_SCAN_FAILED").Wrap(err)
		}
		parsed, err := ulid.Parse(id)
		if err != nil {
			return nil, oops.Code("LEDGER_CORRUPT_ID").With("id", id).Wrap(err)
		}
		e.ID = parsed
		e.SteamID = uint64(steamID)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("LEDGER_ITERATE_FAILED").Wrap(err)
	}
	return entries, nil
}

// Mode identifies the backend.
func (s *SQLiteStore) Mode() string { return "sqlite" }

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
