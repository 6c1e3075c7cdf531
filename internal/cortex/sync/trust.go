package sync

import (
	"math"
	"time"
)

// TrustEvidence accumulates the outcomes an agent's shared memories have
// had once validated by peers.
type TrustEvidence struct {
	Validated int64
	Useful    int64
	Total     int64
}

// ComputeOverallTrust implements spec.md §4.6's trust formula:
// (validated+useful)/(total+1) · (1 - 1/(total+1)).
func ComputeOverallTrust(ev TrustEvidence) float64 {
	denom := float64(ev.Total + 1)
	return (float64(ev.Validated+ev.Useful) / denom) * (1 - 1/denom)
}

// AgentTrust tracks one agent's trust score, evidence, and domain-specific
// sub-scores.
type AgentTrust struct {
	AgentID       string
	Overall       float64
	Evidence      TrustEvidence
	PerDomain     map[string]float64
	DomainEvidence map[string]TrustEvidence
	LastUpdated   time.Time
}

// NewAgentTrust returns a fresh, unbootstrapped trust record for agentID.
func NewAgentTrust(agentID string, at time.Time) *AgentTrust {
	return &AgentTrust{
		AgentID:        agentID,
		PerDomain:      make(map[string]float64),
		DomainEvidence: make(map[string]TrustEvidence),
		LastUpdated:    at,
	}
}

// BootstrapFromParent seeds a new agent's trust from its parent's overall
// and per-domain scores, discounted, with evidence counts reset to zero —
// the child must earn its own evidence from here (spec.md §4.6 Bootstrap).
func BootstrapFromParent(agentID string, parent *AgentTrust, discount float64, at time.Time) *AgentTrust {
	t := NewAgentTrust(agentID, at)
	t.Overall = parent.Overall * discount
	for domain, score := range parent.PerDomain {
		t.PerDomain[domain] = score * discount
	}
	return t
}

// RecordOutcome folds a validation/usefulness outcome into overall and
// (if domain is non-empty) per-domain trust.
func (t *AgentTrust) RecordOutcome(domain string, validated, useful bool, at time.Time) {
	t.Evidence.Total++
	if validated {
		t.Evidence.Validated++
	}
	if useful {
		t.Evidence.Useful++
	}
	t.Overall = ComputeOverallTrust(t.Evidence)

	if domain != "" {
		de := t.DomainEvidence[domain]
		de.Total++
		if validated {
			de.Validated++
		}
		if useful {
			de.Useful++
		}
		t.DomainEvidence[domain] = de
		t.PerDomain[domain] = ComputeOverallTrust(de)
	}
	t.LastUpdated = at
}

// Decay pulls Overall and every PerDomain score toward 0.5 with an
// exponential rate parameterized by halfLife, monotone with elapsed time
// (spec.md §4.6 Decay) — trust that hasn't been refreshed recently drifts
// back toward neutral rather than staying pinned at its last value.
func (t *AgentTrust) Decay(now time.Time, halfLife time.Duration) {
	elapsed := now.Sub(t.LastUpdated)
	if elapsed <= 0 || halfLife <= 0 {
		return
	}
	factor := math.Exp(-math.Ln2 * float64(elapsed) / float64(halfLife))
	t.Overall = 0.5 + (t.Overall-0.5)*factor
	for domain, score := range t.PerDomain {
		t.PerDomain[domain] = 0.5 + (score-0.5)*factor
	}
	t.LastUpdated = now
}
