package temporal

import (
	"encoding/json"
	"time"

	"github.com/driftlabs/driftcortex/internal/cortex/memory"
)

// PatternKind names a detected drift pattern (spec.md §4.5 Drift patterns).
type PatternKind string

const (
	PatternCrystallization PatternKind = "Crystallization"
	PatternErosion         PatternKind = "Erosion"
	PatternExplosion       PatternKind = "Explosion"
	PatternConflictWave    PatternKind = "ConflictWave"
)

// Pattern is a single detected occurrence of a drift pattern over a window.
type Pattern struct {
	Kind      PatternKind
	WindowEnd time.Time
	Count     int
	Detail    string
}

type reclassifiedDelta struct {
	Variant memory.ContentVariant `json:"variant"`
}

type createdVariantDelta struct {
	Variant memory.ContentVariant `json:"variant"`
}

// DetectCrystallization flags episodic->semantic reclassifications within
// the window. It tracks each memory's variant across Created and
// Reclassified events in event order and counts the transitions that land
// on semantic having started episodic. minCount gates how many must occur
// to count as a pattern rather than routine consolidation.
func DetectCrystallization(events []memory.MemoryEvent, windowEnd time.Time, minCount int) *Pattern {
	variantOf := make(map[string]memory.ContentVariant)
	count := 0
	for _, ev := range events {
		switch ev.Type {
		case memory.EventCreated:
			var d createdVariantDelta
			if json.Unmarshal(ev.Delta, &d) == nil {
				variantOf[ev.MemoryID] = d.Variant
			}
		case memory.EventReclassified:
			var d reclassifiedDelta
			if json.Unmarshal(ev.Delta, &d) != nil {
				continue
			}
			if variantOf[ev.MemoryID] == memory.VariantEpisodic && d.Variant == memory.VariantSemantic {
				count++
			}
			variantOf[ev.MemoryID] = d.Variant
		}
	}
	if count < minCount {
		return nil
	}
	return &Pattern{Kind: PatternCrystallization, WindowEnd: windowEnd, Count: count, Detail: "episodic memories reclassified to semantic"}
}

// DetectErosion flags chains of Decayed events against the same memory
// within the window — chainLen or more consecutive decays against one
// memory_id signals sustained confidence erosion rather than a single dip.
func DetectErosion(events []memory.MemoryEvent, windowEnd time.Time, chainLen int) *Pattern {
	byMemory := make(map[string]int)
	maxChain := 0
	var worst string
	for _, ev := range events {
		if ev.Type == memory.EventDecayed {
			byMemory[ev.MemoryID]++
			if byMemory[ev.MemoryID] > maxChain {
				maxChain = byMemory[ev.MemoryID]
				worst = ev.MemoryID
			}
			continue
		}
		// Any non-decay event against the memory breaks its chain.
		byMemory[ev.MemoryID] = 0
	}
	if maxChain < chainLen {
		return nil
	}
	return &Pattern{Kind: PatternErosion, WindowEnd: windowEnd, Count: maxChain, Detail: "sustained decay chain on memory " + worst}
}

// DetectExplosion flags a create-rate spike: observedRate exceeds
// baselineRate + n*stdDev.
func DetectExplosion(observedRate, baselineRate, stdDev, n float64, windowEnd time.Time) *Pattern {
	threshold := baselineRate + n*stdDev
	if observedRate <= threshold {
		return nil
	}
	return &Pattern{Kind: PatternExplosion, WindowEnd: windowEnd, Count: int(observedRate), Detail: "memory creation rate exceeds baseline"}
}

// DetectConflictWave flags a spike in contradict-edge density relative to
// a rolling baseline.
func DetectConflictWave(currentDensity, baselineDensity, n, stdDev float64, windowEnd time.Time) *Pattern {
	threshold := baselineDensity + n*stdDev
	if currentDensity <= threshold {
		return nil
	}
	return &Pattern{Kind: PatternConflictWave, WindowEnd: windowEnd, Detail: "contradiction density spike"}
}
