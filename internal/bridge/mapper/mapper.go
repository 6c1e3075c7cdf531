// Package mapper implements the Bridge's event-handler contract: translating
// a Drift-side analysis event (a pattern approval, a regression, a fixed
// violation, …) into a Cortex Memory plus its founding Created MemoryEvent.
package mapper

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/driftlabs/driftcortex/internal/bridge/license"
	"github.com/driftlabs/driftcortex/internal/cortex/memory"
	derr "github.com/driftlabs/driftcortex/internal/errors"
	"github.com/driftlabs/driftcortex/infrastructure/redaction"
)

// DriftEvent is the Drift-side notification the Bridge consumes. Kind is one
// of the license.EventXxx constants. Detail carries free-form evidence text
// (a rule description, a diff snippet, a commit message) that may contain
// secrets lifted from source — it is redacted before becoming memory content.
type DriftEvent struct {
	Kind        string
	Namespace   string
	SourceAgent string
	Summary     string
	Detail      string
	Tags        []string
	Links       memory.Links
	OccurredAt  time.Time
}

// kindProfile fixes the content variant, importance and baseline confidence
// a Drift event kind maps to, absent any evidence-driven adjustment from the
// grounding loop.
type kindProfile struct {
	variant    memory.ContentVariant
	importance int
	confidence float64
}

var profiles = map[string]kindProfile{
	license.EventPatternApproved:   {memory.VariantPatternRationale, 7, 0.9},
	license.EventPatternDiscovered: {memory.VariantInsight, 5, 0.55},
	license.EventRegression:        {memory.VariantCodeSmell, 8, 0.75},
	license.EventViolationFixed:    {memory.VariantFeedback, 6, 0.85},
	license.EventConstraintBroken:  {memory.VariantConstraintOverride, 7, 0.7},
}

// Mapper turns DriftEvents into Memory/MemoryEvent pairs, gated by a
// FeatureGate so a denied event kind never reaches storage.
type Mapper struct {
	gate     *license.FeatureGate
	redactor *redaction.Redactor
}

// New builds a Mapper that gates on tier and redacts event detail text
// before it is persisted as memory content.
func New(gate *license.FeatureGate) *Mapper {
	return &Mapper{
		gate:     gate,
		redactor: redaction.NewRedactor(redaction.DefaultConfig()),
	}
}

// Mapped is the result of mapping one DriftEvent: a memory ready to persist
// and the Created event that founds its event-sourced history.
type Mapped struct {
	Memory memory.Memory
	Event  memory.MemoryEvent
}

// Map builds a Memory and its founding Created MemoryEvent from ev. Returns
// a KindLicense error (unwrapped, so callers can distinguish a denial from a
// real failure) when the event kind is not available at the gate's tier —
// this is the mapper's no-op path, not a fatal error.
func (m *Mapper) Map(ev DriftEvent) (Mapped, error) {
	if err := m.gate.CheckEvent(ev.Kind); err != nil {
		return Mapped{}, err
	}

	profile, ok := profiles[ev.Kind]
	if !ok {
		return Mapped{}, derr.New(derr.KindAnalysis, derr.CodeEventMappingFailed, "unrecognized drift event kind").
			WithDetails("kind", ev.Kind)
	}

	occurredAt := ev.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	content, err := json.Marshal(map[string]any{
		"kind":   ev.Kind,
		"detail": m.redactor.RedactString(ev.Detail),
	})
	if err != nil {
		return Mapped{}, derr.Wrap(derr.KindAnalysis, derr.CodeEventMappingFailed, "marshal event content", err)
	}

	id := uuid.New().String()
	mem := memory.Memory{
		ID:              id,
		Variant:         profile.variant,
		Summary:         ev.Summary,
		Content:         content,
		TransactionTime: time.Now().UTC(),
		ValidTime:       occurredAt,
		Confidence:      profile.confidence,
		Importance:      profile.importance,
		Links:           ev.Links,
		Tags:            append([]string{"bridge", "drift:" + ev.Kind}, ev.Tags...),
		Namespace:       ev.Namespace,
		SourceAgent:     ev.SourceAgent,
	}
	mem.ContentHash = memory.ContentHash(mem.Variant, mem.Summary, mem.Content, mem.ValidTime, mem.Namespace)

	delta, err := json.Marshal(mem)
	if err != nil {
		return Mapped{}, derr.Wrap(derr.KindAnalysis, derr.CodeEventMappingFailed, "marshal created delta", err)
	}
	event := memory.MemoryEvent{
		MemoryID:   id,
		RecordedAt: mem.TransactionTime,
		Type:       memory.EventCreated,
		Delta:      delta,
		Actor:      actorFor(ev.SourceAgent),
	}

	return Mapped{Memory: mem, Event: event}, nil
}

func actorFor(sourceAgent string) memory.Actor {
	if sourceAgent == "" {
		return memory.ActorSystem
	}
	return memory.ActorAgent
}

// IsDenied reports whether err is the mapper's license-denial no-op, as
// opposed to a real mapping failure.
func IsDenied(err error) bool {
	return derr.KindOf(err) == derr.KindLicense
}
