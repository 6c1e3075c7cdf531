package storage

import (
	"context"
	"database/sql"

	"github.com/driftlabs/driftcortex/pkg/storage/sqlite"
)

// EnforcementStore is the SQLite-backed IDriftEnforcement implementation.
type EnforcementStore struct {
	*sqlite.BaseStore
}

// NewEnforcementStore wraps db as an EnforcementStore.
func NewEnforcementStore(db *sql.DB) *EnforcementStore {
	return &EnforcementStore{BaseStore: sqlite.NewBaseStore(db, "violations")}
}

func (s *EnforcementStore) InsertViolations(ctx context.Context, violations []ViolationRecord) error {
	if len(violations) == 0 {
		return nil
	}
	return s.WithTx(ctx, func(ctx context.Context) error {
		for _, v := range violations {
			if _, err := s.ExecContext(ctx, `
				INSERT INTO violations (id, rule_id, path, severity, message, quick_fix, suppressed, is_new, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET
					severity = excluded.severity,
					message = excluded.message,
					quick_fix = excluded.quick_fix,
					suppressed = excluded.suppressed,
					is_new = excluded.is_new`,
				v.ID, v.RuleID, v.Path, v.Severity, v.Message, v.QuickFix, v.Suppressed, v.IsNew, v.CreatedAt); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *EnforcementStore) ViolationsForPath(ctx context.Context, path string) ([]ViolationRecord, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT id, rule_id, path, severity, message, quick_fix, suppressed, is_new, created_at
		FROM violations WHERE path = ? ORDER BY created_at DESC`, path)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ViolationRecord
	for rows.Next() {
		var v ViolationRecord
		var quickFix sql.NullString
		if err := rows.Scan(&v.ID, &v.RuleID, &v.Path, &v.Severity, &v.Message, &quickFix, &v.Suppressed, &v.IsNew, &v.CreatedAt); err != nil {
			return nil, err
		}
		v.QuickFix = quickFix.String
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *EnforcementStore) InsertGateResult(ctx context.Context, rec GateResultRecord) error {
	_, err := s.ExecContext(ctx, `
		INSERT INTO gate_results (id, gate, pass, score, summary, execution_millis, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Gate, rec.Pass, rec.Score, rec.Summary, rec.ExecutionTime.Milliseconds(), rec.CreatedAt)
	return err
}

func (s *EnforcementStore) LatestGateResults(ctx context.Context) ([]GateResultRecord, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT gr.id, gr.gate, gr.pass, gr.score, gr.summary, gr.execution_millis, gr.created_at
		FROM gate_results gr
		INNER JOIN (
			SELECT gate, MAX(created_at) AS max_created_at FROM gate_results GROUP BY gate
		) latest ON latest.gate = gr.gate AND latest.max_created_at = gr.created_at
		ORDER BY gr.gate`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GateResultRecord
	for rows.Next() {
		var rec GateResultRecord
		var millis int64
		var summary sql.NullString
		if err := rows.Scan(&rec.ID, &rec.Gate, &rec.Pass, &rec.Score, &summary, &millis, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Summary = summary.String
		rec.ExecutionTime = msDuration(millis)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// InsertAudit records one audit_log entry. Per spec.md §4.9 "every mutation
// is logged", this is append-only — no upsert, no update path.
func (s *EnforcementStore) InsertAudit(ctx context.Context, rec AuditRecord) error {
	_, err := s.ExecContext(ctx, `
		INSERT INTO audit_log (id, run_id, action, actor, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.RunID, rec.Action, rec.Actor, rec.Detail, rec.CreatedAt)
	return err
}

func (s *EnforcementStore) AuditForRun(ctx context.Context, runID string) ([]AuditRecord, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT id, run_id, action, actor, detail, created_at
		FROM audit_log WHERE run_id = ? ORDER BY created_at ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AuditRecord
	for rows.Next() {
		var rec AuditRecord
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.Action, &rec.Actor, &rec.Detail, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
