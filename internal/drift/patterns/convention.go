package patterns

import "sort"

// PromotionStatus is the outcome of convention discovery for one pattern_id.
type PromotionStatus string

const (
	StatusApproved   PromotionStatus = "Approved"
	StatusDiscovered PromotionStatus = "Discovered"
	StatusDeprecated PromotionStatus = "Deprecated"
)

// discoveryThreshold/deprecationDominance/sampleSmoothing are the pure,
// time-and-filesystem-free threshold constants spec.md §4.8 requires.
const (
	discoveryThreshold  = 0.60
	deprecationDominance = 0.30
	sampleSmoothing      = 10.0
)

// ConventionObservation records one instance of a pattern_id taking on a
// particular variant (e.g. the specific naming style, import style, or
// config shape a file used for that pattern).
type ConventionObservation struct {
	PatternID string
	Variant   string
}

// ConventionResult is the per-pattern_id outcome of convention discovery.
type ConventionResult struct {
	PatternID        string
	DominantVariant  string
	DominanceRatio   float64
	ConvergenceScore float64
	SampleSize       int
	Status           PromotionStatus
}

// DiscoverConventions groups observations by PatternID and computes a
// dominance ratio (primary allele frequency), a convergence score (dominance
// weighted down for thin sample sizes), and a promotion status. approved
// marks pattern_ids that have cleared an external feedback-approval step
// (see Adjuster); it can upgrade a result to Approved but never rescues one
// whose dominance has collapsed back below deprecationDominance. Patterns
// that haven't reached discoveryThreshold and aren't externally approved are
// omitted entirely — not enough signal to call them a convention either way.
func DiscoverConventions(observations []ConventionObservation, approved map[string]bool) []ConventionResult {
	type variantCounts struct {
		total   int
		counts  map[string]int
	}

	byPattern := make(map[string]*variantCounts)
	var order []string
	for _, o := range observations {
		vc, ok := byPattern[o.PatternID]
		if !ok {
			vc = &variantCounts{counts: make(map[string]int)}
			byPattern[o.PatternID] = vc
			order = append(order, o.PatternID)
		}
		vc.counts[o.Variant]++
		vc.total++
	}
	sort.Strings(order)

	var out []ConventionResult
	for _, id := range order {
		vc := byPattern[id]

		var dominant string
		var dominantCount int
		var variantOrder []string
		for v := range vc.counts {
			variantOrder = append(variantOrder, v)
		}
		sort.Strings(variantOrder)
		for _, v := range variantOrder {
			if c := vc.counts[v]; c > dominantCount {
				dominant, dominantCount = v, c
			}
		}

		dominance := float64(dominantCount) / float64(vc.total)
		weight := float64(vc.total) / (float64(vc.total) + sampleSmoothing)
		convergence := dominance * weight

		status, include := classify(dominance, convergence, approved[id])
		if !include {
			continue
		}

		out = append(out, ConventionResult{
			PatternID:        id,
			DominantVariant:  dominant,
			DominanceRatio:   dominance,
			ConvergenceScore: convergence,
			SampleSize:       vc.total,
			Status:           status,
		})
	}
	return out
}

func classify(dominance, convergence float64, externallyApproved bool) (PromotionStatus, bool) {
	if dominance < deprecationDominance {
		return StatusDeprecated, true
	}
	if externallyApproved {
		return StatusApproved, true
	}
	if convergence >= discoveryThreshold {
		return StatusDiscovered, true
	}
	return "", false
}
