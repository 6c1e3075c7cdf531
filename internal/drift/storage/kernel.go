package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	derr "github.com/driftlabs/driftcortex/internal/errors"
)

// Kernel owns the two access handles the storage contract requires: a
// single write connection and a pool of read connections, both opened over
// the same SQLite file so WAL-mode readers observe committed writes without
// blocking the writer.
type Kernel struct {
	path    string
	writeDB *sql.DB
	readDB  *sql.DB
}

// Open opens path with maxReadConns read connections plus one dedicated
// write connection, enables WAL journaling for reader/writer concurrency,
// and applies migrations before returning.
func Open(ctx context.Context, path string, maxReadConns int) (*Kernel, error) {
	if maxReadConns < 1 {
		maxReadConns = 1
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path)

	writeDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, derr.Wrap(derr.KindStorage, derr.CodeMigrationFailed, "open write connection", err)
	}
	writeDB.SetMaxOpenConns(1)
	writeDB.SetMaxIdleConns(1)

	readDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		_ = writeDB.Close()
		return nil, derr.Wrap(derr.KindStorage, derr.CodeMigrationFailed, "open read pool", err)
	}
	readDB.SetMaxOpenConns(maxReadConns)

	if err := applyMigrations(writeDB); err != nil {
		_ = writeDB.Close()
		_ = readDB.Close()
		return nil, err
	}

	return &Kernel{path: path, writeDB: writeDB, readDB: readDB}, nil
}

// WriteDB returns the single write connection; all mutations must go
// through it (directly, or via BatchWriter).
func (k *Kernel) WriteDB() *sql.DB {
	return k.writeDB
}

// ReadDB returns the concurrent read pool.
func (k *Kernel) ReadDB() *sql.DB {
	return k.readDB
}

// Close closes both connections. Safe to call once.
func (k *Kernel) Close() error {
	writeErr := k.writeDB.Close()
	readErr := k.readDB.Close()
	if writeErr != nil {
		return writeErr
	}
	return readErr
}
