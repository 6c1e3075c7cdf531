package storage

import (
	"context"
	"database/sql"

	"github.com/driftlabs/driftcortex/pkg/storage/sqlite"
)

// AnalysisStore is the SQLite-backed IDriftAnalysis implementation.
type AnalysisStore struct {
	*sqlite.BaseStore
}

// NewAnalysisStore wraps db as an AnalysisStore.
func NewAnalysisStore(db *sql.DB) *AnalysisStore {
	return &AnalysisStore{BaseStore: sqlite.NewBaseStore(db, "detections")}
}

func (s *AnalysisStore) InsertFunctions(ctx context.Context, funcs []FunctionRecord) error {
	if len(funcs) == 0 {
		return nil
	}
	return s.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.ExecContext(ctx, `DELETE FROM functions WHERE path = ?`, funcs[0].Path); err != nil {
			return err
		}
		for _, f := range funcs {
			if _, err := s.ExecContext(ctx, `
				INSERT INTO functions (id, path, content_hash, name, start_line, end_line, signature)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				f.ID, f.Path, f.ContentHash, f.Name, f.StartLine, f.EndLine, f.Signature); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *AnalysisStore) FunctionsForPath(ctx context.Context, path string) ([]FunctionRecord, error) {
	var out []FunctionRecord
	err := s.SelectContext(ctx, &out, `
		SELECT id, path, content_hash, name, start_line, end_line, signature
		FROM functions WHERE path = ? ORDER BY start_line`, path)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *AnalysisStore) InsertDetections(ctx context.Context, detections []DetectionRecord) error {
	if len(detections) == 0 {
		return nil
	}
	return s.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.ExecContext(ctx, `DELETE FROM detections WHERE path = ?`, detections[0].Path); err != nil {
			return err
		}
		for _, d := range detections {
			if _, err := s.ExecContext(ctx, `
				INSERT INTO detections (id, path, content_hash, pattern_id, category, confidence, detection_method, line, column, cwe, owasp, matched_text, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				d.ID, d.Path, d.ContentHash, d.PatternID, d.Category, d.Confidence, d.DetectionMethod, d.Line, d.Column, d.CWE, d.OWASP, d.MatchedText, d.CreatedAt); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *AnalysisStore) DetectionsForPath(ctx context.Context, path string) ([]DetectionRecord, error) {
	return s.scanDetections(ctx, `
		SELECT id, path, content_hash, pattern_id, category, confidence, detection_method, line, column, cwe, owasp, matched_text, created_at
		FROM detections WHERE path = ? ORDER BY line`, path)
}

func (s *AnalysisStore) DetectionsByCategory(ctx context.Context, category string) ([]DetectionRecord, error) {
	return s.scanDetections(ctx, `
		SELECT id, path, content_hash, pattern_id, category, confidence, detection_method, line, column, cwe, owasp, matched_text, created_at
		FROM detections WHERE category = ? ORDER BY created_at DESC`, category)
}

func (s *AnalysisStore) scanDetections(ctx context.Context, query string, arg string) ([]DetectionRecord, error) {
	rows, err := s.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DetectionRecord
	for rows.Next() {
		var d DetectionRecord
		var cwe, owasp, matched sql.NullString
		if err := rows.Scan(&d.ID, &d.Path, &d.ContentHash, &d.PatternID, &d.Category, &d.Confidence, &d.DetectionMethod, &d.Line, &d.Column, &cwe, &owasp, &matched, &d.CreatedAt); err != nil {
			return nil, err
		}
		d.CWE = cwe.String
		d.OWASP = owasp.String
		d.MatchedText = matched.String
		out = append(out, d)
	}
	return out, rows.Err()
}
