package storage

import (
	"context"
	"database/sql"

	"github.com/driftlabs/driftcortex/pkg/storage/sqlite"
)

// StructuralStore is the SQLite-backed IDriftStructural implementation:
// pattern-intelligence conventions and Martin-metric coupling.
type StructuralStore struct {
	*sqlite.BaseStore
}

// NewStructuralStore wraps db as a StructuralStore.
func NewStructuralStore(db *sql.DB) *StructuralStore {
	return &StructuralStore{BaseStore: sqlite.NewBaseStore(db, "conventions")}
}

func (s *StructuralStore) UpsertConvention(ctx context.Context, rec ConventionRecord) error {
	_, err := s.ExecContext(ctx, `
		INSERT INTO conventions (id, category, pattern, confidence, sample_count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			confidence = excluded.confidence,
			sample_count = excluded.sample_count,
			updated_at = excluded.updated_at`,
		rec.ID, rec.Category, rec.Pattern, rec.Confidence, rec.SampleCount, rec.UpdatedAt)
	return err
}

func (s *StructuralStore) ConventionsForCategory(ctx context.Context, category string) ([]ConventionRecord, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT id, category, pattern, confidence, sample_count, updated_at
		FROM conventions WHERE category = ? ORDER BY confidence DESC`, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ConventionRecord
	for rows.Next() {
		var c ConventionRecord
		if err := rows.Scan(&c.ID, &c.Category, &c.Pattern, &c.Confidence, &c.SampleCount, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *StructuralStore) UpsertCoupling(ctx context.Context, rec CouplingRecord) error {
	_, err := s.ExecContext(ctx, `
		INSERT INTO coupling (path, depends_on, instability, afferent_count, efferent_count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path, depends_on) DO UPDATE SET
			instability = excluded.instability,
			afferent_count = excluded.afferent_count,
			efferent_count = excluded.efferent_count,
			updated_at = excluded.updated_at`,
		rec.Path, rec.DependsOn, rec.Instability, rec.AfferentCount, rec.EfferentCount, rec.UpdatedAt)
	return err
}

func (s *StructuralStore) CouplingForPath(ctx context.Context, path string) ([]CouplingRecord, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT path, depends_on, instability, afferent_count, efferent_count, updated_at
		FROM coupling WHERE path = ?`, path)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CouplingRecord
	for rows.Next() {
		var c CouplingRecord
		if err := rows.Scan(&c.Path, &c.DependsOn, &c.Instability, &c.AfferentCount, &c.EfferentCount, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
