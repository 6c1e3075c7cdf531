package temporal

import (
	"time"

	"github.com/driftlabs/driftcortex/internal/cortex/memory"
)

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// KSI (Knowledge Stability Index) = clamp(1 - changes/(2*total_at_start), 0, 1).
func KSI(changes int, totalAtStart int) float64 {
	if totalAtStart <= 0 {
		return 1
	}
	return clamp01(1 - float64(changes)/(2*float64(totalAtStart)))
}

// ContradictionDensity = contradict_edges / max(1, total_memories).
func ContradictionDensity(contradictEdges, totalMemories int) float64 {
	denom := totalMemories
	if denom < 1 {
		denom = 1
	}
	return float64(contradictEdges) / float64(denom)
}

// ConsolidationEfficiency = semantic_created / max(1, episodic_archived).
func ConsolidationEfficiency(semanticCreated, episodicArchived int) float64 {
	denom := episodicArchived
	if denom < 1 {
		denom = 1
	}
	return float64(semanticCreated) / float64(denom)
}

// EvidenceFreshness = product of freshness factors, each in [0,1].
func EvidenceFreshness(factors []float64) float64 {
	product := 1.0
	for _, f := range factors {
		product *= clamp01(f)
	}
	return clamp01(product)
}

// FileHashFreshness returns 1 if the file's current content hash still
// matches the hash the memory's evidence was captured against, else a
// fixed stale value of 0.3.
func FileHashFreshness(evidenceHash, currentHash string) float64 {
	if evidenceHash == currentHash {
		return 1
	}
	return 0.3
}

// UserValidationDecay returns a freshness factor that decays exponentially
// with the age of the last user validation; more-recent validations yield a
// value >= that of older ones for the same halfLife.
func UserValidationDecay(age, halfLife time.Duration) float64 {
	if halfLife <= 0 {
		return 1
	}
	ratio := float64(age) / float64(halfLife)
	v := 1.0
	for ratio > 0 {
		step := ratio
		if step > 1 {
			step = 1
		}
		v *= 1 - 0.5*step
		ratio -= step
	}
	return clamp01(v)
}

// ConfidenceTrajectory buckets `mems` into k equal-width time windows over
// [start,end] and returns the mean confidence per bucket (a K-point
// time-series).
func ConfidenceTrajectory(mems []memory.Memory, start, end time.Time, k int) []float64 {
	if k <= 0 {
		return nil
	}
	out := make([]float64, k)
	counts := make([]int, k)
	window := end.Sub(start)
	if window <= 0 {
		return out
	}
	for _, m := range mems {
		if m.ValidTime.Before(start) || m.ValidTime.After(end) {
			continue
		}
		offset := m.ValidTime.Sub(start)
		bucket := int(float64(offset) / float64(window) * float64(k))
		if bucket >= k {
			bucket = k - 1
		}
		if bucket < 0 {
			bucket = 0
		}
		out[bucket] += m.Confidence
		counts[bucket]++
	}
	for i := range out {
		if counts[i] > 0 {
			out[i] /= float64(counts[i])
		}
	}
	return out
}

// Snapshot aggregates drift metrics for a window, globally and per memory
// variant (spec.md §3 DriftSnapshot).
type Snapshot struct {
	WindowStart             time.Time
	WindowEnd               time.Time
	KSI                     float64
	ContradictionDensity    float64
	ConsolidationEfficiency float64
	EvidenceFreshness       float64
	AverageConfidence       float64
	MemoryCount             int
	PerVariant              map[memory.ContentVariant]float64 // KSI per variant
}

// BuildSnapshot computes a global DriftSnapshot over [start,end] given the
// memory set active at start and the changes/contradictions/consolidation
// counters observed across the window.
func BuildSnapshot(start, end time.Time, atStart []memory.Memory, changes, contradictEdges, semanticCreated, episodicArchived int, freshnessFactors []float64) Snapshot {
	var confSum float64
	perVariantTotal := map[memory.ContentVariant]int{}
	perVariantChanges := map[memory.ContentVariant]int{}
	for _, m := range atStart {
		confSum += m.Confidence
		perVariantTotal[m.Variant]++
	}
	avg := 0.0
	if len(atStart) > 0 {
		avg = confSum / float64(len(atStart))
	}
	perVariant := make(map[memory.ContentVariant]float64, len(perVariantTotal))
	for v, total := range perVariantTotal {
		perVariant[v] = KSI(perVariantChanges[v], total)
	}
	return Snapshot{
		WindowStart:             start,
		WindowEnd:               end,
		KSI:                     KSI(changes, len(atStart)),
		ContradictionDensity:    ContradictionDensity(contradictEdges, len(atStart)),
		ConsolidationEfficiency: ConsolidationEfficiency(semanticCreated, episodicArchived),
		EvidenceFreshness:       EvidenceFreshness(freshnessFactors),
		AverageConfidence:       avg,
		MemoryCount:             len(atStart),
		PerVariant:              perVariant,
	}
}
