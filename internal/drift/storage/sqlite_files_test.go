package storage

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestFileStore_UpsertFile(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rec := FileRecord{Path: "a.go", ContentHash: "h1", Language: "go", Size: 100, LastScannedAt: time.Now()}

	mock.ExpectExec("INSERT INTO files").
		WithArgs(rec.Path, rec.ContentHash, rec.Language, rec.Size, rec.LastScannedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	store := NewFileStore(db)
	require.NoError(t, store.UpsertFile(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFileStore_GetFile_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT path, content_hash, language, size, last_scanned_at FROM files").
		WithArgs("missing.go").
		WillReturnRows(sqlmock.NewRows([]string{"path", "content_hash", "language", "size", "last_scanned_at"}))

	store := NewFileStore(db)
	_, ok, err := store.GetFile(context.Background(), "missing.go")
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}
