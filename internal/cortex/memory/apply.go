package memory

import (
	"encoding/json"
	"fmt"
)

// Apply mutates mem in place according to a single event's delta. It is the
// sole mechanism by which event state becomes memory state: the event
// store's replay is nothing more than calling Apply once per event in
// order. Confidence changes are clamped to [0.01, 1] per spec.md §8
// scenario 1 (floor at 0.01, never exactly 0).
func Apply(mem *Memory, ev MemoryEvent) error {
	switch ev.Type {
	case EventCreated:
		// Created carries the full initial state as its delta.
		var created Memory
		if len(ev.Delta) > 0 {
			if err := json.Unmarshal(ev.Delta, &created); err != nil {
				return fmt.Errorf("apply Created: %w", err)
			}
		}
		created.ID = ev.MemoryID
		*mem = created

	case EventContentUpdated:
		var d ContentUpdatedDelta
		if err := json.Unmarshal(ev.Delta, &d); err != nil {
			return fmt.Errorf("apply ContentUpdated: %w", err)
		}
		if d.Summary != "" {
			mem.Summary = d.Summary
		}
		if len(d.Content) > 0 {
			mem.Content = d.Content
		}

	case EventConfidenceChanged:
		var d ConfidenceChangedDelta
		if err := json.Unmarshal(ev.Delta, &d); err != nil {
			return fmt.Errorf("apply ConfidenceChanged: %w", err)
		}
		next := d.New
		if next < 0.01 {
			next = 0.01
		}
		if next > 1 {
			next = 1
		}
		mem.Confidence = next

	case EventArchived:
		mem.Archived = true

	case EventReclassified:
		var d struct {
			Variant ContentVariant `json:"variant"`
		}
		if err := json.Unmarshal(ev.Delta, &d); err != nil {
			return fmt.Errorf("apply Reclassified: %w", err)
		}
		mem.Variant = d.Variant

	case EventDecayed:
		var d ConfidenceChangedDelta
		if err := json.Unmarshal(ev.Delta, &d); err != nil {
			return fmt.Errorf("apply Decayed: %w", err)
		}
		mem.Confidence = d.New

	case EventRelationshipAdded, EventRelationshipRemoved, EventStrengthUpdated:
		// Relationship events project onto the causal graph, not onto the
		// memory itself; Apply is a no-op for them here.

	default:
		return fmt.Errorf("apply: unknown event type %q", ev.Type)
	}
	return nil
}

// ReplayEvents applies events in array order to a shell memory, producing
// the state after the last event. It is independent of EventID values: the
// slice order is authoritative, not the ids (spec.md §4.3).
func ReplayEvents(shell Memory, events []MemoryEvent) (Memory, error) {
	mem := shell
	for _, ev := range events {
		if err := Apply(&mem, ev); err != nil {
			return mem, err
		}
	}
	return mem, nil
}
