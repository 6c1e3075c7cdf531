package storage

import (
	"context"
	"database/sql"

	"github.com/driftlabs/driftcortex/pkg/storage/sqlite"
)

// AdvancedStore is the SQLite-backed IDriftAdvanced implementation covering
// the secondary detectors: taint flows, file DNA fingerprints, constraints.
type AdvancedStore struct {
	*sqlite.BaseStore
}

// NewAdvancedStore wraps db as an AdvancedStore.
func NewAdvancedStore(db *sql.DB) *AdvancedStore {
	return &AdvancedStore{BaseStore: sqlite.NewBaseStore(db, "taint_flows")}
}

func (s *AdvancedStore) InsertTaintFlows(ctx context.Context, flows []TaintFlowRecord) error {
	if len(flows) == 0 {
		return nil
	}
	return s.WithTx(ctx, func(ctx context.Context) error {
		for _, f := range flows {
			if _, err := s.ExecContext(ctx, `
				INSERT INTO taint_flows (id, source_path, source_line, sink_path, sink_line, tag, confidence, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				f.ID, f.SourcePath, f.SourceLine, f.SinkPath, f.SinkLine, f.Tag, f.Confidence, f.CreatedAt); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *AdvancedStore) TaintFlowsForPath(ctx context.Context, path string) ([]TaintFlowRecord, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT id, source_path, source_line, sink_path, sink_line, tag, confidence, created_at
		FROM taint_flows WHERE sink_path = ? OR source_path = ? ORDER BY created_at DESC`, path, path)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TaintFlowRecord
	for rows.Next() {
		var f TaintFlowRecord
		if err := rows.Scan(&f.ID, &f.SourcePath, &f.SourceLine, &f.SinkPath, &f.SinkLine, &f.Tag, &f.Confidence, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *AdvancedStore) UpsertFileDNA(ctx context.Context, rec FileDNARecord) error {
	_, err := s.ExecContext(ctx, `
		INSERT INTO file_dna (path, fingerprint, unique_id, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			fingerprint = excluded.fingerprint,
			unique_id = excluded.unique_id,
			updated_at = excluded.updated_at`,
		rec.Path, rec.Fingerprint, rec.UniqueID, rec.UpdatedAt)
	return err
}

func (s *AdvancedStore) FileDNA(ctx context.Context, path string) (FileDNARecord, bool, error) {
	row := s.QueryRowContext(ctx, `SELECT path, fingerprint, unique_id, updated_at FROM file_dna WHERE path = ?`, path)
	var rec FileDNARecord
	if err := row.Scan(&rec.Path, &rec.Fingerprint, &rec.UniqueID, &rec.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return FileDNARecord{}, false, nil
		}
		return FileDNARecord{}, false, err
	}
	return rec, true, nil
}

func (s *AdvancedStore) UpsertConstraint(ctx context.Context, rec ConstraintRecord) error {
	_, err := s.ExecContext(ctx, `
		INSERT INTO constraints (id, path, expression, severity, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			expression = excluded.expression,
			severity = excluded.severity,
			updated_at = excluded.updated_at`,
		rec.ID, rec.Path, rec.Expression, rec.Severity, rec.UpdatedAt)
	return err
}

func (s *AdvancedStore) ConstraintsForPath(ctx context.Context, path string) ([]ConstraintRecord, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT id, path, expression, severity, updated_at FROM constraints WHERE path = ?`, path)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ConstraintRecord
	for rows.Next() {
		var c ConstraintRecord
		if err := rows.Scan(&c.ID, &c.Path, &c.Expression, &c.Severity, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
