// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopcore Contributors

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shopcore/shopcore/internal/config"
	"github.com/shopcore/shopcore/internal/ledger"
	"github.com/shopcore/shopcore/internal/logging"
)

// NewLedgerCmd creates the ledger subcommand.
func NewLedgerCmd() *cobra.Command {
	var limit int
	var steamID uint64

	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Show recent ledger entries",
		Long:  `Open the configured ledger backend and print recent entries, newest first.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLedger(cmd, limit, steamID)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of entries to show")
	cmd.Flags().Uint64Var(&steamID, "steam-id", 0, "only show entries for this steam id")

	return cmd
}

func runLedger(cmd *cobra.Command, limit int, steamID uint64) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	logging.SetDefault("shopcore", version, cfg.Log.Format)

	ctx := cmd.Context()
	store, err := ledger.Open(ctx, cfg.LedgerOptions())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			cmd.PrintErrln("warning: failed to close ledger store:", closeErr)
		}
	}()

	var entries []ledger.Entry
	if steamID != 0 {
		entries, err = store.RecentForSteamID(ctx, steamID, limit)
	} else {
		entries, err = store.Recent(ctx, limit)
	}
	if err != nil {
		return err
	}

	cmd.Printf("ledger backend: %s, %d entries\n", store.Mode(), len(entries))
	for _, e := range entries {
		line := fmt.Sprintf("%s  %-16s %8d  balance=%d  steam=%d %s",
			time.Unix(e.Timestamp, 0).UTC().Format(time.RFC3339),
			e.Action, e.Amount, e.BalanceAfter, e.SteamID, e.PlayerName)
		if e.ItemID != "" {
			line += fmt.Sprintf("  item=%s (%s)", e.ItemID, e.ItemDisplayName)
		}
		cmd.Println(line)
	}
	return nil
}
