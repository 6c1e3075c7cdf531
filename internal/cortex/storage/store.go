// Package storage is the Cortex-side persistence layer: memories are
// stored as CouchDB-compatible JSON documents through Kivik, while the
// append-only event log and snapshots stay in the bbolt-backed
// eventstore package. This package owns only Memory CRUD and querying.
package storage

import (
	"context"
	"fmt"

	kivik "github.com/go-kivik/kivik/v4"
	_ "github.com/go-kivik/kivik/v4/couchdb" // registers the "couch" driver

	"github.com/driftlabs/driftcortex/internal/cortex/memory"
	derr "github.com/driftlabs/driftcortex/internal/errors"
)

// MemoryStore is the Kivik-backed store for Cortex memories, keyed by
// Memory.ID as the document _id.
type MemoryStore struct {
	client *kivik.Client
	db     *kivik.DB
	dbName string
}

// Open connects to a Kivik database using driver (only "couch" is
// registered by this package — see DESIGN.md) and dsn (a CouchDB server
// URL), creating dbName if it does not already exist.
func Open(ctx context.Context, driver, dsn, dbName string) (*MemoryStore, error) {
	client, err := kivik.New(driver, dsn)
	if err != nil {
		return nil, derr.Wrap(derr.KindStorage, derr.CodeMigrationFailed, "connect kivik client", err)
	}

	exists, err := client.DBExists(ctx, dbName)
	if err != nil {
		return nil, derr.Wrap(derr.KindStorage, derr.CodeMigrationFailed, "check database existence", err)
	}
	if !exists {
		if err := client.CreateDB(ctx, dbName); err != nil {
			return nil, derr.Wrap(derr.KindStorage, derr.CodeMigrationFailed, "create database", err)
		}
	}

	return &MemoryStore{client: client, db: client.DB(dbName), dbName: dbName}, nil
}

// Close releases the underlying Kivik client.
func (s *MemoryStore) Close() error {
	return s.client.Close()
}

// memoryDoc wraps a Memory with the Kivik revision field, since Memory
// itself has no _rev concept (that belongs to the storage layer, not the
// domain model).
type memoryDoc struct {
	memory.Memory
	Rev string `json:"_rev,omitempty"`
}

// Put inserts or updates mem, fetching its current revision first so
// concurrent writers fail with a CouchDB conflict rather than silently
// clobbering each other (CouchDB's MVCC surfaces this as a 409, mapped to
// derr.WriteConflict).
func (s *MemoryStore) Put(ctx context.Context, mem memory.Memory) error {
	doc := memoryDoc{Memory: mem}
	if existing, err := s.getRaw(ctx, mem.ID); err == nil {
		doc.Rev = existing.Rev
	}
	doc.Memory.ID = mem.ID
	if _, err := s.db.Put(ctx, mem.ID, doc); err != nil {
		if kivik.HTTPStatus(err) == 409 {
			return derr.WriteConflict("memory:"+mem.ID, err)
		}
		return derr.Wrap(derr.KindStorage, derr.CodeTxFailed, "put memory", err)
	}
	return nil
}

func (s *MemoryStore) getRaw(ctx context.Context, id string) (memoryDoc, error) {
	row := s.db.Get(ctx, id)
	if row.Err() != nil {
		if kivik.HTTPStatus(row.Err()) == 404 {
			return memoryDoc{}, derr.NotFound("memory", id)
		}
		return memoryDoc{}, derr.Wrap(derr.KindStorage, derr.CodeTxFailed, "get memory", row.Err())
	}
	var doc memoryDoc
	if err := row.ScanDoc(&doc); err != nil {
		return memoryDoc{}, derr.Wrap(derr.KindStorage, derr.CodeTxFailed, "scan memory document", err)
	}
	return doc, nil
}

// Get retrieves a memory by id.
func (s *MemoryStore) Get(ctx context.Context, id string) (memory.Memory, error) {
	doc, err := s.getRaw(ctx, id)
	if err != nil {
		return memory.Memory{}, err
	}
	return doc.Memory, nil
}

// Delete removes the memory with id (used only for hard deletes of test
// fixtures — production deletion is modeled as an Archived event, not a
// document removal, since memories are append-only by design).
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	doc, err := s.getRaw(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.db.Delete(ctx, id, doc.Rev); err != nil {
		return derr.Wrap(derr.KindStorage, derr.CodeTxFailed, "delete memory", err)
	}
	return nil
}

// FindByNamespace returns every live (non-archived) memory in namespace,
// using a Mango selector so filtering happens server-side.
func (s *MemoryStore) FindByNamespace(ctx context.Context, namespace string) ([]memory.Memory, error) {
	selector := map[string]any{
		"namespace": namespace,
		"archived":  false,
	}
	rows := s.db.Find(ctx, map[string]any{"selector": selector})
	defer rows.Close()

	var out []memory.Memory
	for rows.Next() {
		var doc memoryDoc
		if err := rows.ScanDoc(&doc); err != nil {
			return nil, derr.Wrap(derr.KindStorage, derr.CodeTxFailed, "scan memory row", err)
		}
		out = append(out, doc.Memory)
	}
	if err := rows.Err(); err != nil {
		return nil, derr.Wrap(derr.KindStorage, derr.CodeTxFailed, "iterate memory rows", err)
	}
	return out, nil
}

// All streams every memory in the store, used by temporal queries that
// need the full snapshot to diff or filter in-process.
func (s *MemoryStore) All(ctx context.Context) ([]memory.Memory, error) {
	rows := s.db.AllDocs(ctx, kivik.Param("include_docs", true))
	defer rows.Close()

	var out []memory.Memory
	for rows.Next() {
		id, err := rows.ID()
		if err == nil && len(id) > 0 && id[0] == '_' {
			continue // skip CouchDB design documents
		}
		var doc memoryDoc
		if err := rows.ScanDoc(&doc); err != nil {
			return nil, fmt.Errorf("scan memory row: %w", err)
		}
		out = append(out, doc.Memory)
	}
	if err := rows.Err(); err != nil {
		return nil, derr.Wrap(derr.KindStorage, derr.CodeTxFailed, "iterate all memories", err)
	}
	return out, nil
}
