// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package main

import (
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/gatehouse/gatehouse/internal/store"
)

// migrateConfig holds configuration for the migrate subcommand.
type migrateConfig struct {
	down  bool
	steps int
}

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cfg := &migrateConfig{}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database schema migrations",
		Long: `Apply pending schema migrations against the PostgreSQL database.
With --down all migrations are rolled back (destructive); with --steps N
only N migrations are applied (negative N rolls back).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, args, cfg)
		},
	}

	cmd.Flags().BoolVar(&cfg.down, "down", false, "roll back all migrations (drops all data)")
	cmd.Flags().IntVar(&cfg.steps, "steps", 0, "apply exactly N migrations (negative rolls back)")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string, cfg *migrateConfig) error {
	if cfg.down && cfg.steps != 0 {
		return oops.Code("CONFIG_INVALID").Errorf("--down and --steps are mutually exclusive")
	}

	databaseURL := os.Getenv(envDatabaseURL)
	if databaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("%s environment variable is required", envDatabaseURL)
	}

	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		_ = migrator.Close() //nolint:errcheck // best effort on command exit
	}()

	switch {
	case cfg.down:
		cmd.Println("Rolling back all migrations...")
		if err := migrator.Down(); err != nil {
			return err
		}
	case cfg.steps != 0:
		cmd.Printf("Applying %d migration step(s)...\n", cfg.steps)
		if err := migrator.Steps(cfg.steps); err != nil {
			return err
		}
	default:
		cmd.Println("Applying pending migrations...")
		if err := migrator.Up(); err != nil {
			return err
		}
	}

	version, dirty, err := migrator.Version()
	if err != nil {
		return err
	}
	cmd.Printf("Schema at version %d (dirty: %t)\n", version, dirty)
	return nil
}
