// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopcore Contributors

package ledger

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
)

// Options selects and configures a ledger backend.
type Options struct {
	// Backend is one of "memory", "sqlite", or "postgres".
	Backend string
	// Capacity bounds the memory backend.
	Capacity int
	// Path locates the sqlite database file.
	Path string
	// DatabaseURL is the postgres connection string.
	DatabaseURL string
	// AutoMigrate syncs the schema on startup for the SQL backends.
	AutoMigrate bool
}

// Open constructs the backend described by opts.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", "memory":
		return NewMemoryStore(opts.Capacity), nil

	case "sqlite":
		return OpenSQLite(opts.Path, opts.AutoMigrate)

	case "postgres":
		store, err := NewPostgresStore(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if opts.AutoMigrate {
			if err := migrateUp(opts.DatabaseURL); err != nil {
				_ = store.Close()
				return nil, err
			}
		}
		return store, nil

	default:
		return nil, oops.With("backend", opts.Backend).Errorf("unknown ledger backend %q", opts.Backend)
	}
}

func migrateUp(databaseURL string) error {
	migrator, err := NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			slog.Warn("failed to close migrator", "error", closeErr)
		}
	}()
	return migrator.Up()
}
