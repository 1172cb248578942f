// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopcore Contributors

package ledger

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopcore/shopcore/pkg/errutil"
)

type fakeMigrate struct {
	upErr      error
	downErr    error
	version    uint
	dirty      bool
	versionErr error
	sourceErr  error
	dbErr      error
}

func (f *fakeMigrate) Up() error   { return f.upErr }
func (f *fakeMigrate) Down() error { return f.downErr }

func (f *fakeMigrate) Version() (uint, bool, error) {
	return f.version, f.dirty, f.versionErr
}

func (f *fakeMigrate) Close() (error, error) {
	return f.sourceErr, f.dbErr
}

func TestMigrator_Up(t *testing.T) {
	t.Run("no change is not an error", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{upErr: migrate.ErrNoChange}}
		assert.NoError(t, m.Up())
	})

	t.Run("real failure is wrapped", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{upErr: errors.New("table locked")}}
		err := m.Up()
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "MIGRATION_UP_FAILED")
		assert.Contains(t, err.Error(), "table locked")
	})
}

func TestMigrator_Down(t *testing.T) {
	t.Run("no change is not an error", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{downErr: migrate.ErrNoChange}}
		assert.NoError(t, m.Down())
	})

	t.Run("real failure is wrapped", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{downErr: errors.New("dirty database")}}
		errutil.AssertErrorCode(t, m.Down(), "MIGRATION_DOWN_FAILED")
	})
}

func TestMigrator_Version(t *testing.T) {
	t.Run("pristine database reports zero", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{versionErr: migrate.ErrNilVersion}}
		version, dirty, err := m.Version()
		require.NoError(t, err)
		assert.Zero(t, version)
		assert.False(t, dirty)
	})

	t.Run("reports current version", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{version: 1, dirty: true}}
		version, dirty, err := m.Version()
		require.NoError(t, err)
		assert.EqualValues(t, 1, version)
		assert.True(t, dirty)
	})

	t.Run("real failure is wrapped", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{versionErr: errors.New("connection refused")}}
		_, _, err := m.Version()
		assert.Error(t, err)
	})
}

func TestMigrator_Close(t *testing.T) {
	t.Run("clean close", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{}}
		assert.NoError(t, m.Close())
	})

	t.Run("source error surfaces", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{sourceErr: errors.New("source gone")}}
		assert.Error(t, m.Close())
	})

	t.Run("database error surfaces", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{dbErr: errors.New("db gone")}}
		assert.Error(t, m.Close())
	})
}
