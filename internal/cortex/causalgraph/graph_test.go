package causalgraph

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/driftlabs/driftcortex/internal/cortex/memory"
	derr "github.com/driftlabs/driftcortex/internal/errors"
)

func TestAddEdge_RejectsCycle(t *testing.T) {
	g := New()
	require.NoError(t, g.AddEdge("A", "B", RelationCaused, 0.8, nil))
	require.NoError(t, g.AddEdge("B", "C", RelationCaused, 0.8, nil))

	err := g.AddEdge("C", "A", RelationCaused, 0.8, nil)
	require.Error(t, err)
	de := derr.GetDriftError(err)
	require.NotNil(t, de)
	require.Equal(t, derr.CodeCyclicEdge, de.Code)

	require.Equal(t, 2, g.Stats().EdgeCount)
}

func TestReconstructGraphAt_AddThenRemove(t *testing.T) {
	d1, _ := json.Marshal(memory.RelationshipDelta{TargetID: "B", Relation: string(RelationCaused), Strength: 0.8})
	d2, _ := json.Marshal(memory.RelationshipDelta{TargetID: "B", Relation: string(RelationCaused), Strength: 0.9})
	d3, _ := json.Marshal(memory.RelationshipDelta{TargetID: "B", Relation: string(RelationCaused)})

	t1 := time.Now()
	t2 := t1.Add(time.Second)
	t3 := t2.Add(time.Second)

	events := []memory.MemoryEvent{
		{EventID: 1, MemoryID: "A", Type: memory.EventRelationshipAdded, Delta: d1, RecordedAt: t1},
		{EventID: 2, MemoryID: "A", Type: memory.EventRelationshipRemoved, Delta: d3, RecordedAt: t2},
		{EventID: 3, MemoryID: "A", Type: memory.EventStrengthUpdated, Delta: d2, RecordedAt: t3},
	}

	atT1, err := ReconstructGraphAt(events, t1)
	require.NoError(t, err)
	require.Equal(t, 1, atT1.Stats().EdgeCount)
	require.InDelta(t, 0.8, atT1.Neighbors("A")[0].Strength, 1e-9)

	atT3, err := ReconstructGraphAt(events, t3)
	require.NoError(t, err)
	require.Equal(t, 0, atT3.Stats().EdgeCount)
}

func TestTraceEffects_BoundedDepth(t *testing.T) {
	g := New()
	require.NoError(t, g.AddEdge("A", "B", RelationCaused, 1, nil))
	require.NoError(t, g.AddEdge("B", "C", RelationCaused, 1, nil))
	require.NoError(t, g.AddEdge("C", "D", RelationCaused, 1, nil))

	paths := g.TraceEffects("A", TraversalConfig{MaxDepth: 1, MaxNodes: 100})
	require.Len(t, paths, 1)
	require.Equal(t, []string{"A", "B"}, paths[0].Nodes)
}
