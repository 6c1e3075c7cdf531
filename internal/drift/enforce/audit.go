package enforce

import (
	"time"

	"github.com/google/uuid"

	"github.com/driftlabs/driftcortex/internal/drift/storage"
)

// AuditEntry records one enforcement-pipeline mutation for the audit log:
// a rule firing, a gate run, a policy decision, or a feedback adjustment.
// Per spec.md §4.9, every mutation is logged — nothing here is best-effort.
type AuditEntry struct {
	RunID  string
	Action string
	Actor  string
	Detail string
}

// ToRecord stamps a fresh id and timestamp onto e, producing the
// storage.AuditRecord the BatchWriter persists. now is injected rather than
// read from the clock internally so callers (and tests) control it.
func (e AuditEntry) ToRecord(now time.Time) storage.AuditRecord {
	return storage.AuditRecord{
		ID:        uuid.NewString(),
		RunID:     e.RunID,
		Action:    e.Action,
		Actor:     e.Actor,
		Detail:    e.Detail,
		CreatedAt: now,
	}
}

// AuditGateResults builds one AuditEntry per evaluated gate, describing its
// pass/fail outcome for the run.
func AuditGateResults(runID, actor string, results []GateResult) []AuditEntry {
	out := make([]AuditEntry, 0, len(results))
	for _, r := range results {
		out = append(out, AuditEntry{
			RunID:  runID,
			Action: "gate_evaluated",
			Actor:  actor,
			Detail: r.Gate + ": " + r.Summary,
		})
	}
	return out
}

// AuditPolicyDecision builds the AuditEntry for a run's final policy
// aggregation.
func AuditPolicyDecision(runID, actor string, result PolicyResult) AuditEntry {
	outcome := "fail"
	if result.Pass {
		outcome = "pass"
	}
	return AuditEntry{
		RunID:  runID,
		Action: "policy_applied",
		Actor:  actor,
		Detail: outcome + " overall_score=" + formatScore(result.OverallScore),
	}
}
