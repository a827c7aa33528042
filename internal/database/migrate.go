// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var embedMigrations embed.FS

// Dialect selects the migration set and the goose dialect.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
)

func (d Dialect) dir() (string, error) {
	switch d {
	case DialectSQLite:
		return "migrations/sqlite", nil
	case DialectPostgres:
		return "migrations/postgres", nil
	default:
		return "", fmt.Errorf("unsupported migration dialect: %q", d)
	}
}

func prepare(d Dialect) (string, error) {
	dir, err := d.dir()
	if err != nil {
		return "", err
	}

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(string(d)); err != nil {
		return "", err
	}
	return dir, nil
}

// RunMigrations runs all pending goose migrations.
func RunMigrations(db *sql.DB, d Dialect) error {
	dir, err := prepare(d)
	if err != nil {
		return err
	}
	return goose.Up(db, dir)
}

// MigrateDown rolls back the last migration.
func MigrateDown(db *sql.DB, d Dialect) error {
	dir, err := prepare(d)
	if err != nil {
		return err
	}
	return goose.Down(db, dir)
}

// MigrateReset rolls back all migrations.
func MigrateReset(db *sql.DB, d Dialect) error {
	dir, err := prepare(d)
	if err != nil {
		return err
	}
	return goose.Reset(db, dir)
}

// MigrationVersion returns the currently applied migration version.
func MigrationVersion(db *sql.DB, d Dialect) (int64, error) {
	if _, err := prepare(d); err != nil {
		return 0, err
	}
	return goose.GetDBVersion(db)
}

// OpenForMigrations opens a bare database/sql handle for the given store
// driver, without applying anything, so migrations can be stepped manually.
func OpenForMigrations(driver, dsn string) (*sql.DB, Dialect, error) {
	switch driver {
	case "sqlite", "":
		if dsn == "" {
			dsn = "./data/app.db"
		}
		if !isMemoryDSN(dsn) {
			if err := os.MkdirAll(filepath.Dir(dsn), 0o750); err != nil {
				return nil, "", err
			}
		}
		db, err := sql.Open("sqlite", addDefaultParams(dsn))
		if err != nil {
			return nil, "", err
		}
		return db, DialectSQLite, nil
	case "postgres":
		if dsn == "" {
			return nil, "", errors.New("postgres DSN is required")
		}
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, "", err
		}
		return db, DialectPostgres, nil
	default:
		return nil, "", fmt.Errorf("driver %q has no migrations", driver)
	}
}
