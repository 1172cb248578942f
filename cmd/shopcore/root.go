// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopcore Contributors

package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/shopcore/shopcore/internal/xdg"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the shopcore CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shopcore",
		Short: "shopcore - transactional core of the in-game item economy",
		Long: `shopcore is the transactional core of an in-game virtual-goods
economy: item registry, purchase/sell/equip state machine, extension
hooks, and an append-only audit ledger.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", defaultConfigPath(), "config file path")

	cmd.AddCommand(NewLedgerCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

// defaultConfigPath prefers a config file in the working directory and
// falls back to the XDG config directory.
func defaultConfigPath() string {
	const name = "shopcore.yaml"
	if _, err := os.Stat(name); err == nil {
		return name
	}
	return filepath.Join(xdg.ConfigDir(), name)
}
