package temporal

import (
	"time"

	"github.com/driftlabs/driftcortex/internal/cortex/memory"
)

// RangeMode selects how a memory's validity interval is compared against
// the query window.
type RangeMode string

const (
	ModeOverlaps    RangeMode = "Overlaps"
	ModeContainedIn RangeMode = "ContainedIn"
	ModeContains    RangeMode = "Contains"
)

func validUntilOrMax(m memory.Memory) time.Time {
	if m.ValidUntil != nil {
		return *m.ValidUntil
	}
	return time.Unix(1<<62, 0)
}

// Range returns memories from `all` whose validity interval
// [valid_time, valid_until) satisfies mode against [from, to].
func Range(all []memory.Memory, from, to time.Time, mode RangeMode) []memory.Memory {
	var out []memory.Memory
	for _, m := range all {
		start, end := m.ValidTime, validUntilOrMax(m)
		var match bool
		switch mode {
		case ModeOverlaps:
			match = start.Before(to) && end.After(from)
		case ModeContainedIn:
			match = !start.Before(from) && !end.After(to)
		case ModeContains:
			match = !start.After(from) && !end.Before(to)
		}
		if match {
			out = append(out, m)
		}
	}
	return out
}
