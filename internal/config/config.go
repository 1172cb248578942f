// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopcore Contributors

// Package config loads the shop core's configuration file and watches it
// for changes. A reload drives Engine.ApplySettings and a ledger backend
// swap in the embedding process.
package config

import (
	"log/slog"
	"path/filepath"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"

	"github.com/shopcore/shopcore/internal/ledger"
	"github.com/shopcore/shopcore/internal/shop"
	"github.com/shopcore/shopcore/internal/xdg"
	"github.com/shopcore/shopcore/pkg/errutil"
)

// LedgerConfig selects and configures the ledger backend.
type LedgerConfig struct {
	Backend     string `koanf:"backend"`
	Capacity    int    `koanf:"capacity"`
	Path        string `koanf:"path"`
	DatabaseURL string `koanf:"database_url"`
	AutoMigrate bool   `koanf:"auto_migrate"`
}

// LogConfig controls structured logging output.
type LogConfig struct {
	Format string `koanf:"format"`
}

// MetricsConfig controls the observability endpoints.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// Config is the shop core's configuration.
type Config struct {
	Wallet        string        `koanf:"wallet"`
	RefundRatio   float64       `koanf:"refund_ratio"`
	SellEnabled   bool          `koanf:"sell_enabled"`
	ExpiryNotices bool          `koanf:"expiry_notices"`
	Ledger        LedgerConfig  `koanf:"ledger"`
	Log           LogConfig     `koanf:"log"`
	Metrics       MetricsConfig `koanf:"metrics"`
}

// Default returns the configuration used when keys are absent.
func Default() Config {
	return Config{
		Wallet:      shop.DefaultWallet,
		RefundRatio: 0.5,
		SellEnabled: true,
		Ledger: LedgerConfig{
			Backend:     "memory",
			Capacity:    ledger.DefaultMemoryCapacity,
			AutoMigrate: true,
		},
		Log:     LogConfig{Format: "json"},
		Metrics: MetricsConfig{Addr: "127.0.0.1:9100"},
	}
}

// Load reads and validates the YAML file at path, merged over defaults.
func Load(path string) (Config, error) {
	return load(file.Provider(path))
}

func load(provider *file.File) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(provider, yaml.Parser()); err != nil {
		return Config{}, oops.Code("CONFIG_LOAD_FAILED").Wrap(err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, oops.Code("CONFIG_UNMARSHAL_FAILED").Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.Ledger.Backend {
	case "memory", "sqlite":
	case "postgres":
		if c.Ledger.DatabaseURL == "" {
			return oops.Errorf("ledger.database_url is required for the postgres backend")
		}
	default:
		return oops.With("backend", c.Ledger.Backend).Errorf("unknown ledger backend %q", c.Ledger.Backend)
	}

	if c.RefundRatio < 0 || c.RefundRatio > 1 {
		return oops.With("refund_ratio", c.RefundRatio).Errorf("refund_ratio must be within [0, 1]")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return oops.With("format", c.Log.Format).Errorf("log.format must be 'json' or 'text'")
	}
	return nil
}

// Settings maps the config onto engine settings.
func (c Config) Settings() shop.Settings {
	return shop.Settings{
		Wallet:        c.Wallet,
		RefundRatio:   c.RefundRatio,
		SellEnabled:   c.SellEnabled,
		ExpiryNotices: c.ExpiryNotices,
	}
}

// LedgerOptions maps the config onto ledger backend options. An sqlite
// backend without an explicit path lands in the XDG data directory.
func (c Config) LedgerOptions() ledger.Options {
	path := c.Ledger.Path
	if c.Ledger.Backend == "sqlite" && path == "" {
		path = filepath.Join(xdg.DataDir(), "ledger.db")
	}
	return ledger.Options{
		Backend:     c.Ledger.Backend,
		Capacity:    c.Ledger.Capacity,
		Path:        path,
		DatabaseURL: c.Ledger.DatabaseURL,
		AutoMigrate: c.Ledger.AutoMigrate,
	}
}

// Watch reloads the file on change and hands the new config to onChange.
// Reloads that fail to parse or validate are logged and skipped, leaving
// the previous configuration in effect.
func Watch(path string, onChange func(Config)) error {
	provider := file.Provider(path)
	err := provider.Watch(func(_ interface{}, watchErr error) {
		if watchErr != nil {
			slog.Error("config watch error", "path", path, "error", watchErr)
			return
		}
		cfg, loadErr := load(file.Provider(path))
		if loadErr != nil {
			errutil.LogError(slog.Default(), "ignoring invalid config reload", loadErr)
			return
		}
		slog.Info("configuration reloaded", "path", path)
		onChange(cfg)
	})
	if err != nil {
		return oops.Code("CONFIG_WATCH_FAILED").With("path", path).Wrap(err)
	}
	return nil
}
