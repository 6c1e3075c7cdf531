package memory

import (
	"encoding/json"
	"time"
)

// EventType enumerates the kinds of mutation recorded against a memory or
// the causal graph.
type EventType string

const (
	EventCreated            EventType = "Created"
	EventContentUpdated     EventType = "ContentUpdated"
	EventConfidenceChanged  EventType = "ConfidenceChanged"
	EventArchived           EventType = "Archived"
	EventReclassified       EventType = "Reclassified"
	EventDecayed            EventType = "Decayed"
	EventRelationshipAdded  EventType = "RelationshipAdded"
	EventRelationshipRemoved EventType = "RelationshipRemoved"
	EventStrengthUpdated    EventType = "StrengthUpdated"
)

// Actor identifies who caused an event.
type Actor string

const (
	ActorSystem Actor = "system"
	ActorAgent  Actor = "agent"
	ActorUser   Actor = "user"
)

// MemoryEvent is the append-only log record. event_id is assigned by the
// event store at append time and is strictly monotonic; it is never set by
// callers.
type MemoryEvent struct {
	EventID    int64           `json:"event_id"`
	MemoryID   string          `json:"memory_id"`
	RecordedAt time.Time       `json:"recorded_at"`
	Type       EventType       `json:"event_type"`
	Delta      json.RawMessage `json:"delta"`
	Actor      Actor           `json:"actor"`
	CausedBy   []int64         `json:"caused_by,omitempty"`
}

// ConfidenceChangedDelta is the structured payload for EventConfidenceChanged.
type ConfidenceChangedDelta struct {
	Old float64 `json:"old"`
	New float64 `json:"new"`
}

// ContentUpdatedDelta is the structured payload for EventContentUpdated.
type ContentUpdatedDelta struct {
	Summary string          `json:"summary,omitempty"`
	Content json.RawMessage `json:"content,omitempty"`
}

// RelationshipDelta is the structured payload shared by RelationshipAdded,
// RelationshipRemoved and StrengthUpdated events.
type RelationshipDelta struct {
	TargetID string  `json:"target_id"`
	Relation string  `json:"relation,omitempty"`
	Strength float64 `json:"strength"`
	Inferred bool    `json:"inferred,omitempty"`
}

// ProvenanceAction enumerates the actions tracked by a ProvenanceHop chain.
type ProvenanceAction string

const (
	ProvenanceCreated     ProvenanceAction = "Created"
	ProvenanceSharedTo    ProvenanceAction = "SharedTo"
	ProvenanceValidatedBy ProvenanceAction = "ValidatedBy"
)

// ProvenanceHop is one link in a memory's provenance chain.
type ProvenanceHop struct {
	Agent          string           `json:"agent"`
	Action         ProvenanceAction `json:"action"`
	Timestamp      time.Time        `json:"timestamp"`
	ConfidenceDelta float64         `json:"confidence_delta"`
}

// ChainConfidence computes clamp(prod(1+delta), 0, 1) over an ordered
// provenance chain.
func ChainConfidence(hops []ProvenanceHop) float64 {
	product := 1.0
	for _, h := range hops {
		product *= 1 + h.ConfidenceDelta
	}
	if product < 0 {
		return 0
	}
	if product > 1 {
		return 1
	}
	return product
}
