package temporal

import (
	"sort"
	"time"

	"github.com/driftlabs/driftcortex/internal/cortex/memory"
	derr "github.com/driftlabs/driftcortex/internal/errors"
)

// DecisionNarrative is the reconstructed "what was known when this was
// decided" view for a decision-memory (spec.md §4.5 Decision replay).
type DecisionNarrative struct {
	Decision     memory.Memory
	KnownAt      []memory.Memory
	Truncated    bool
	RelatedCount int
}

// ReplayDecision reconstructs a decision memory plus the set of memories
// live at its valid_time, bounded by maxRelated. `all` must contain the
// decision memory itself. The decision memory's own variant must be
// VariantDecision.
func ReplayDecision(all []memory.Memory, decisionID string, maxRelated int) (DecisionNarrative, error) {
	var decision memory.Memory
	found := false
	for _, m := range all {
		if m.ID == decisionID {
			decision = m
			found = true
			break
		}
	}
	if !found {
		return DecisionNarrative{}, derr.NotFound("memory", decisionID)
	}

	known := Current(all, decision.ValidTime, func(m memory.Memory) bool {
		return m.ID != decisionID
	})
	sort.Slice(known, func(i, j int) bool {
		return known[i].ValidTime.Before(known[j].ValidTime)
	})

	truncated := false
	if maxRelated > 0 && len(known) > maxRelated {
		known = known[:maxRelated]
		truncated = true
	}

	return DecisionNarrative{
		Decision:     decision,
		KnownAt:      known,
		Truncated:    truncated,
		RelatedCount: len(known),
	}, nil
}

// AsOfDecisionTime is a convenience wrapper returning what the system knew
// at exactly the time t, with no memory exclusion — used when narrating a
// hypothetical ("what if we decided now").
func AsOfDecisionTime(all []memory.Memory, t time.Time) []memory.Memory {
	return Current(all, t, nil)
}
