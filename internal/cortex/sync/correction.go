package sync

import "math"

// CorrectionStrength returns the propagated strength of a correction at
// distance d hops from its origin: strengthBase * dampening^d (spec.md
// §4.6 Correction propagation).
func CorrectionStrength(strengthBase, dampening float64, d int) float64 {
	return strengthBase * math.Pow(dampening, float64(d))
}

// ShouldApplyCorrection reports whether a correction at distance d still
// carries enough strength to apply.
func ShouldApplyCorrection(strengthBase, dampening float64, d int, minThreshold float64) bool {
	return CorrectionStrength(strengthBase, dampening, d) >= minThreshold
}

// ContradictionResolution is the outcome of resolving a detected
// contradiction between two agents' memories.
type ContradictionResolution string

const (
	ResolutionTrustWins ContradictionResolution = "TrustWins"
	ResolutionManual    ContradictionResolution = "Manual"
)

// ContradictionPair describes two candidate memories flagged by a
// detector as contradicting one another, along with the trust of the
// agent that authored each.
type ContradictionPair struct {
	MemoryAID string
	TrustA    float64
	MemoryBID string
	TrustB    float64
}

// ResolveContradiction applies spec.md §4.6's resolution policy: if the
// trust gap between the two memories' source agents exceeds threshold,
// the higher-trust memory wins (TrustWins, winner returned); otherwise
// the contradiction is escalated for Manual review and no winner is
// returned.
func ResolveContradiction(pair ContradictionPair, threshold float64) (ContradictionResolution, string) {
	gap := pair.TrustA - pair.TrustB
	if math.Abs(gap) <= threshold {
		return ResolutionManual, ""
	}
	if gap > 0 {
		return ResolutionTrustWins, pair.MemoryAID
	}
	return ResolutionTrustWins, pair.MemoryBID
}
