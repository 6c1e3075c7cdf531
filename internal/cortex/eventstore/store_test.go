package eventstore

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/driftlabs/driftcortex/internal/cortex/memory"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.bbolt")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAppend_MonotonicEventID(t *testing.T) {
	s := openTestStore(t)

	first, err := s.Append(memory.MemoryEvent{MemoryID: "m1", Type: memory.EventCreated})
	require.NoError(t, err)
	require.Equal(t, int64(1), first.EventID)

	second, err := s.Append(memory.MemoryEvent{MemoryID: "m1", Type: memory.EventArchived})
	require.NoError(t, err)
	require.Equal(t, int64(2), second.EventID)
}

func TestAppendBatch_PreservesOrder(t *testing.T) {
	s := openTestStore(t)

	batch := []memory.MemoryEvent{
		{MemoryID: "m1", Type: memory.EventCreated},
		{MemoryID: "m1", Type: memory.EventArchived},
		{MemoryID: "m1", Type: memory.EventReclassified},
	}
	out, err := s.AppendBatch(batch)
	require.NoError(t, err)
	require.Equal(t, int64(1), out[0].EventID)
	require.Equal(t, int64(2), out[1].EventID)
	require.Equal(t, int64(3), out[2].EventID)
}

func TestReconstructAt_SnapshotPlusReplay(t *testing.T) {
	s := openTestStore(t)

	created, _ := json.Marshal(memory.Memory{Variant: memory.VariantEpisodic, Confidence: 0.9})
	ev1, err := s.Append(memory.MemoryEvent{MemoryID: "m1", Type: memory.EventCreated, Delta: created, RecordedAt: time.Now()})
	require.NoError(t, err)

	state, _ := memory.ReplayEvents(memory.Memory{}, []memory.MemoryEvent{ev1})
	stateJSON, _ := json.Marshal(state)
	require.NoError(t, s.CreateSnapshot("m1", ev1.EventID, stateJSON, ReasonOnDemand))

	confDelta, _ := json.Marshal(memory.ConfidenceChangedDelta{Old: 0.9, New: 0.7})
	ev2, err := s.Append(memory.MemoryEvent{MemoryID: "m1", Type: memory.EventConfidenceChanged, Delta: confDelta, RecordedAt: time.Now()})
	require.NoError(t, err)

	reconstructed, err := s.ReconstructAt("m1", ev2.RecordedAt.Add(time.Second))
	require.NoError(t, err)
	require.InDelta(t, 0.7, reconstructed.Confidence, 1e-9)
}

func TestEventsForMemory_Isolated(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Append(memory.MemoryEvent{MemoryID: "m1", Type: memory.EventCreated})
	require.NoError(t, err)
	_, err = s.Append(memory.MemoryEvent{MemoryID: "m2", Type: memory.EventCreated})
	require.NoError(t, err)

	events, err := s.EventsForMemory("m1")
	require.NoError(t, err)
	require.Len(t, events, 1)
}
