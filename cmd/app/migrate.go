// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"codeberg.org/oliverandrich/go-account-service/internal/config"
	"codeberg.org/oliverandrich/go-account-service/internal/database"
)

type migrationFunc func(db *sql.DB, d database.Dialect) error

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage database migrations",
		Commands: []*cli.Command{
			{
				Name:   "up",
				Usage:  "Apply all pending migrations",
				Action: migrationAction(database.RunMigrations),
			},
			{
				Name:   "down",
				Usage:  "Roll back the last migration",
				Action: migrationAction(database.MigrateDown),
			},
			{
				Name:   "reset",
				Usage:  "Roll back all migrations",
				Action: migrationAction(database.MigrateReset),
			},
			{
				Name:   "status",
				Usage:  "Print the applied migration version",
				Action: migrationAction(nil),
			},
		},
	}
}

// migrationAction runs fn against the configured database and reports the
// resulting version. A nil fn only reports.
func migrationAction(fn migrationFunc) cli.ActionFunc {
	return func(_ context.Context, cmd *cli.Command) error {
		cfg := config.NewFromCLI(cmd)

		db, dialect, err := database.OpenForMigrations(cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		if fn != nil {
			if err := fn(db, dialect); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
		}

		version, err := database.MigrationVersion(db, dialect)
		if err != nil {
			return err
		}
		w := cmd.Root().Writer
		if w == nil {
			w = os.Stdout
		}
		_, err = fmt.Fprintf(w, "%s migration version: %d\n", dialect, version)
		return err
	}
}
