package memory

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReplayEvents_ConfidenceDecayFloor(t *testing.T) {
	created, err := json.Marshal(Memory{Variant: VariantEpisodic, Confidence: 0.8})
	require.NoError(t, err)

	events := []MemoryEvent{
		{MemoryID: "m1", Type: EventCreated, Delta: created},
	}
	conf := 0.8
	for i := 0; i < 50; i++ {
		conf -= 0.02
		d, err := json.Marshal(ConfidenceChangedDelta{Old: conf + 0.02, New: conf})
		require.NoError(t, err)
		events = append(events, MemoryEvent{MemoryID: "m1", Type: EventConfidenceChanged, Delta: d})
	}

	mem, err := ReplayEvents(Memory{}, events)
	require.NoError(t, err)
	require.InDelta(t, 0.01, mem.Confidence, 1e-9)
}

func TestReplayEvents_OneAtATimeEqualsBatch(t *testing.T) {
	created, _ := json.Marshal(Memory{Variant: VariantSemantic, Confidence: 0.5})
	archived := MemoryEvent{MemoryID: "m1", Type: EventArchived}
	events := []MemoryEvent{
		{MemoryID: "m1", Type: EventCreated, Delta: created},
		archived,
	}

	batch, err := ReplayEvents(Memory{}, events)
	require.NoError(t, err)

	var oneAtATime Memory
	for _, ev := range events {
		require.NoError(t, Apply(&oneAtATime, ev))
	}

	require.Equal(t, batch, oneAtATime)
	require.True(t, batch.Archived)
}

func TestMemory_Validate(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)

	m := Memory{ValidTime: now, ValidUntil: &past}
	require.ErrorIs(t, m.Validate(), ErrValidTimeAfterValidUntil)

	m2 := Memory{ValidTime: now, Confidence: 1.5}
	require.ErrorIs(t, m2.Validate(), ErrConfidenceOutOfRange)
}

func TestChainConfidence_Clamped(t *testing.T) {
	hops := []ProvenanceHop{
		{ConfidenceDelta: 0.5},
		{ConfidenceDelta: 0.5},
		{ConfidenceDelta: 0.5},
	}
	require.Equal(t, 1.0, ChainConfidence(hops))
}
