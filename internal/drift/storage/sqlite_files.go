package storage

import (
	"context"
	"database/sql"

	"github.com/driftlabs/driftcortex/pkg/storage/sqlite"
)

// FileStore is the SQLite-backed IDriftFiles implementation.
type FileStore struct {
	*sqlite.BaseStore
}

// NewFileStore wraps db as a FileStore.
func NewFileStore(db *sql.DB) *FileStore {
	return &FileStore{BaseStore: sqlite.NewBaseStore(db, "files")}
}

func (s *FileStore) UpsertFile(ctx context.Context, rec FileRecord) error {
	_, err := s.ExecContext(ctx, `
		INSERT INTO files (path, content_hash, language, size, last_scanned_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			content_hash = excluded.content_hash,
			language = excluded.language,
			size = excluded.size,
			last_scanned_at = excluded.last_scanned_at`,
		rec.Path, rec.ContentHash, rec.Language, rec.Size, rec.LastScannedAt)
	return err
}

func (s *FileStore) DeleteFile(ctx context.Context, path string) error {
	return s.DeleteByID(ctx, path)
}

func (s *FileStore) GetFile(ctx context.Context, path string) (FileRecord, bool, error) {
	var rec FileRecord
	if err := s.GetContext(ctx, &rec, `SELECT path, content_hash, language, size, last_scanned_at FROM files WHERE path = ?`, path); err != nil {
		if err == sql.ErrNoRows {
			return FileRecord{}, false, nil
		}
		return FileRecord{}, false, err
	}
	return rec, true, nil
}

func (s *FileStore) ListFiles(ctx context.Context) ([]FileRecord, error) {
	var out []FileRecord
	if err := s.SelectContext(ctx, &out, `SELECT path, content_hash, language, size, last_scanned_at FROM files ORDER BY path`); err != nil {
		return nil, err
	}
	return out, nil
}
