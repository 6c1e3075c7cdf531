package causalgraph

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/driftlabs/driftcortex/internal/cortex/memory"
)

// ReconstructGraphAt replays RelationshipAdded, RelationshipRemoved and
// StrengthUpdated events (in event_id order) up to T, returning the graph
// that results. The graph has no state of its own outside of events: this
// is always how a caller obtains one for any point other than "now".
func ReconstructGraphAt(events []memory.MemoryEvent, t time.Time) (*Graph, error) {
	ordered := append([]memory.MemoryEvent{}, events...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].EventID < ordered[j].EventID })

	g := New()
	for _, ev := range ordered {
		if ev.RecordedAt.After(t) {
			continue
		}
		switch ev.Type {
		case memory.EventRelationshipAdded:
			var d memory.RelationshipDelta
			if err := json.Unmarshal(ev.Delta, &d); err != nil {
				return nil, err
			}
			// A cycle-rejected add during replay is dropped silently: the
			// event log is assumed to already reflect accepted mutations,
			// but replay must not panic on a stale/corrupt log.
			_ = g.AddEdge(ev.MemoryID, d.TargetID, Relation(d.Relation), d.Strength, nil)

		case memory.EventRelationshipRemoved:
			var d memory.RelationshipDelta
			if err := json.Unmarshal(ev.Delta, &d); err != nil {
				return nil, err
			}
			g.RemoveEdge(ev.MemoryID, d.TargetID, Relation(d.Relation))

		case memory.EventStrengthUpdated:
			var d memory.RelationshipDelta
			if err := json.Unmarshal(ev.Delta, &d); err != nil {
				return nil, err
			}
			// Applies only if the edge currently exists; no-op otherwise.
			g.UpdateStrength(ev.MemoryID, d.TargetID, Relation(d.Relation), d.Strength)
		}
	}
	return g, nil
}
