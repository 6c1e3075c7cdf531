package patterns

import (
	"sort"

	"github.com/driftlabs/driftcortex/internal/drift/detect"
)

// Aggregated is the per-pattern_id rollup of every PatternMatch observed
// across a scan, per spec.md §4.8's aggregation step.
type Aggregated struct {
	PatternID      string
	Category       detect.Category
	LocationCount  int
	FileSpread     int
	ConfidenceMean float64
	Locations      []Location
}

// Location identifies one deduplicated (file, line) occurrence.
type Location struct {
	File string
	Line int
}

// Aggregate deduplicates matches by (pattern_id, file, line), then computes
// location_count, file_spread, and confidence_mean per pattern_id. Output is
// sorted by PatternID for deterministic downstream processing.
func Aggregate(matches []detect.PatternMatch) []Aggregated {
	type accum struct {
		category  detect.Category
		seen      map[Location]struct{}
		locations []Location
		files     map[string]struct{}
		confSum   float64
		confN     int
	}

	byPattern := make(map[string]*accum)
	var order []string

	for _, m := range matches {
		a, ok := byPattern[m.PatternID]
		if !ok {
			a = &accum{
				category: m.Category,
				seen:     make(map[Location]struct{}),
				files:    make(map[string]struct{}),
			}
			byPattern[m.PatternID] = a
			order = append(order, m.PatternID)
		}

		loc := Location{File: m.File, Line: m.Line}
		if _, dup := a.seen[loc]; !dup {
			a.seen[loc] = struct{}{}
			a.locations = append(a.locations, loc)
		}
		a.files[m.File] = struct{}{}
		a.confSum += m.Confidence
		a.confN++
	}

	sort.Strings(order)

	out := make([]Aggregated, 0, len(order))
	for _, id := range order {
		a := byPattern[id]
		mean := 0.0
		if a.confN > 0 {
			mean = a.confSum / float64(a.confN)
		}
		sort.Slice(a.locations, func(i, j int) bool {
			if a.locations[i].File != a.locations[j].File {
				return a.locations[i].File < a.locations[j].File
			}
			return a.locations[i].Line < a.locations[j].Line
		})
		out = append(out, Aggregated{
			PatternID:      id,
			Category:       a.category,
			LocationCount:  len(a.locations),
			FileSpread:     len(a.files),
			ConfidenceMean: mean,
			Locations:      a.locations,
		})
	}
	return out
}
