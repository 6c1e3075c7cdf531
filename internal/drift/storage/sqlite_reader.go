package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/driftlabs/driftcortex/pkg/storage/sqlite"
)

// ReaderStore is the SQLite-backed IDriftReader implementation: persisted
// DriftSnapshot range queries and the InsertDriftSnapshot write, all run on
// the database handle it was built with.
type ReaderStore struct {
	*sqlite.BaseStore
}

// NewReaderStore wraps db as a ReaderStore. db should be the Kernel's read
// pool, not the write connection.
func NewReaderStore(db *sql.DB) *ReaderStore {
	return &ReaderStore{BaseStore: sqlite.NewBaseStore(db, "drift_snapshots")}
}

func (s *ReaderStore) InsertDriftSnapshot(ctx context.Context, rec DriftSnapshotRecord) error {
	_, err := s.ExecContext(ctx, `
		INSERT INTO drift_snapshots (id, window_start, window_end, ksi, contradiction_density, consolidation_eff, evidence_freshness, average_confidence, memory_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.WindowStart, rec.WindowEnd, rec.KSI, rec.ContradictionDensity, rec.ConsolidationEff, rec.EvidenceFreshness, rec.AverageConfidence, rec.MemoryCount)
	return err
}

func (s *ReaderStore) DriftSnapshotsInRange(ctx context.Context, start, end time.Time) ([]DriftSnapshotRecord, error) {
	var out []DriftSnapshotRecord
	err := s.SelectContext(ctx, &out, `
		SELECT id, window_start, window_end, ksi, contradiction_density, consolidation_eff, evidence_freshness, average_confidence, memory_count
		FROM drift_snapshots
		WHERE window_start < ? AND window_end > ?
		ORDER BY window_start`, end, start)
	if err != nil {
		return nil, err
	}
	return out, nil
}
