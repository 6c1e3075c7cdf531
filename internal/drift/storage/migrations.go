package storage

import (
	"database/sql"
	"embed"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	sqlite3mig "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	derr "github.com/driftlabs/driftcortex/internal/errors"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// applyMigrations runs every embedded migration against db in lexical order
// using golang-migrate, so reruns against an already-current schema are a
// no-op (ErrNoChange). Unlike internal/platform/migrations' hand-rolled
// IF-NOT-EXISTS approach, golang-migrate tracks applied versions in its own
// schema_migrations table, so migrations can stop being purely additive
// once the schema needs destructive changes.
func applyMigrations(db *sql.DB) error {
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return derr.MigrationFailed("source", err)
	}

	target, err := sqlite3mig.WithInstance(db, &sqlite3mig.Config{})
	if err != nil {
		return derr.MigrationFailed("driver", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", target)
	if err != nil {
		return derr.MigrationFailed("instance", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return derr.MigrationFailed("up", err)
	}
	return nil
}
