// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopcore Contributors

package ledger

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// pgxPool is the subset of pgxpool.Pool the store uses. It allows the
// store to be exercised against pgxmock in tests.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore persists ledger entries in PostgreSQL.
type PostgresStore struct {
	pool pgxPool
}

// NewPostgresStore connects to PostgreSQL and verifies the connection,
// retrying the initial ping with exponential backoff.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, oops.Code("LEDGER_CONNECT_FAILED").Wrap(err)
	}

	backoff := retry.WithMaxRetries(5, retry.NewExponential(200*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if pingErr := pool.Ping(ctx); pingErr != nil {
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("LEDGER_PING_FAILED").Wrap(err)
	}

	return &PostgresStore{pool: pool}, nil
}

func newPostgresStoreWithPool(pool pgxPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Record inserts one entry.
func (s *PostgresStore) Record(ctx context.Context, e Entry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO shop_ledger (id, created_at, steam_id, player_id, player_name,
		   action, amount, balance_after, item_id, item_display_name)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID.String(), e.Timestamp, int64(e.SteamID), e.PlayerID, e.PlayerName,
		e.Action, e.Amount, e.BalanceAfter, e.ItemID, e.ItemDisplayName,
	)
	if err != nil {
		return oops.Code("LEDGER_RECORD_FAILED").With("action", e.Action).Wrap(err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, created_at, steam_id, player_id, player_name,
		   action, amount, balance_after, item_id, item_display_name
		 FROM shop_ledger ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, oops.Code("LEDGER_QUERY_FAILED").Wrap(err)
	}
	return scanPgxEntries(rows)
}

// RecentForSteamID returns up to limit entries for one player, newest first.
func (s *PostgresStore) RecentForSteamID(ctx context.Context, steamID uint64, limit int) ([]Entry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, created_at, steam_id, player_id, player_name,
		   action, amount, balance_after, item_id, item_display_name
		 FROM shop_ledger WHERE steam_id = $1 ORDER BY id DESC LIMIT $2`,
		int64(steamID), limit)
	if err != nil {
		return nil, oops.Code("LEDGER_QUERY_FAILED").With("steam_id", steamID).Wrap(err)
	}
	return scanPgxEntries(rows)
}

func scanPgxEntries(rows pgx.Rows) ([]Entry, error) {
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
func (s *PostgresStore) Mode() string { return "postgres" }

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}
