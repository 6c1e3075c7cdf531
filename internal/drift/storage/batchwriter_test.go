package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeFiles struct {
	upserted []FileRecord
	failNext bool
}

func (f *fakeFiles) UpsertFile(ctx context.Context, rec FileRecord) error {
	if f.failNext {
		f.failNext = false
		return errors.New("boom")
	}
	f.upserted = append(f.upserted, rec)
	return nil
}
func (f *fakeFiles) DeleteFile(ctx context.Context, path string) error                { return nil }
func (f *fakeFiles) GetFile(ctx context.Context, path string) (FileRecord, bool, error) { return FileRecord{}, false, nil }
func (f *fakeFiles) ListFiles(ctx context.Context) ([]FileRecord, error)              { return nil, nil }

func TestBatchWriter_AppliesInEnqueueOrderAndTracksFailures(t *testing.T) {
	files := &fakeFiles{}
	handles := Handles{Files: files}
	w := NewBatchWriter(handles, 8)

	files.failNext = false
	require.NoError(t, w.Enqueue(UpsertFileCommand(FileRecord{Path: "a.go"})))
	files.failNext = true
	require.NoError(t, w.Enqueue(UpsertFileCommand(FileRecord{Path: "b.go"})))
	require.NoError(t, w.Enqueue(UpsertFileCommand(FileRecord{Path: "c.go"})))

	stats, err := w.Shutdown(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 2, stats.Applied)
	require.EqualValues(t, 1, stats.Failed)
	require.Len(t, stats.Errors, 1)

	require.Equal(t, []string{"a.go", "c.go"}, []string{files.upserted[0].Path, files.upserted[1].Path})
}

func TestBatchWriter_ShutdownIsIdempotent(t *testing.T) {
	files := &fakeFiles{}
	w := NewBatchWriter(Handles{Files: files}, 4)
	require.NoError(t, w.Enqueue(UpsertFileCommand(FileRecord{Path: "a.go"})))

	first, err := w.Shutdown(context.Background())
	require.NoError(t, err)
	second, err := w.Shutdown(context.Background())
	require.NoError(t, err)
	require.Equal(t, first, second)
}
