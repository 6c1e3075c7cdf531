package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGCounter_ConvergesUnderAnyMergeOrder(t *testing.T) {
	a := NewGCounter()
	a.Increment("a1", 3)
	b := NewGCounter()
	b.Increment("a2", 5)

	ab := NewGCounter()
	ab.Merge(a)
	ab.Merge(b)

	ba := NewGCounter()
	ba.Merge(b)
	ba.Merge(a)

	require.Equal(t, int64(8), ab.Value())
	require.Equal(t, ab.Value(), ba.Value())
}

func TestLWWRegister_TimestampThenActorTiebreak(t *testing.T) {
	r1 := NewLWWRegister("v1", 100, "agent-a")
	r2 := NewLWWRegister("v2", 200, "agent-b")
	require.Equal(t, "v2", r1.Merge(r2).Value)
	require.Equal(t, "v2", r2.Merge(r1).Value)

	tie1 := NewLWWRegister("from-a", 100, "agent-a")
	tie2 := NewLWWRegister("from-b", 100, "agent-b")
	require.Equal(t, "from-b", tie1.Merge(tie2).Value)
	require.Equal(t, "from-b", tie2.Merge(tie1).Value)
}

func TestMaxRegister_Merge(t *testing.T) {
	a := MaxRegister{Value: 3}
	b := MaxRegister{Value: 7}
	require.Equal(t, 7.0, a.Merge(b).Value)
	require.Equal(t, 7.0, b.Merge(a).Value)
}

func TestORSet_AddRemoveMergeConverges(t *testing.T) {
	s1 := NewORSet[string]()
	s1.Add("x", "agent-a")
	s2 := NewORSet[string]()
	s2.Merge(s1)
	s2.Remove("x")

	// s1 never saw the remove; merging in either order should still
	// converge to "absent" once both sides are combined, since the
	// tombstone covers the tag s1 originated.
	merged1 := NewORSet[string]()
	merged1.Merge(s1)
	merged1.Merge(s2)

	merged2 := NewORSet[string]()
	merged2.Merge(s2)
	merged2.Merge(s1)

	require.False(t, merged1.Contains("x"))
	require.False(t, merged2.Contains("x"))
}

func TestVectorClock_ConcurrentWith(t *testing.T) {
	a := NewVectorClock()
	a.Increment("a1")
	b := NewVectorClock()
	b.Increment("a2")

	require.True(t, ConcurrentWith(a, b))
	require.False(t, LessOrEqual(a, b))

	merged := Merge(a, b)
	require.True(t, LessOrEqual(a, merged))
	require.True(t, LessOrEqual(b, merged))
	require.False(t, ConcurrentWith(merged, merged))
}

func TestCanApplyClock(t *testing.T) {
	local := VectorClock{"a1": 1}
	require.True(t, CanApplyClock(VectorClock{"a1": 2}, local))
	require.False(t, CanApplyClock(VectorClock{"a1": 3}, local))
	require.False(t, CanApplyClock(VectorClock{"a1": 2, "a2": 2}, local))
}

func TestDeltaQueue_AppliesInCausalOrderDespiteArrivalOrder(t *testing.T) {
	transport := NewInProcessTransport()
	q := NewDeltaQueue(transport)
	ctx := context.Background()

	second := Delta{MemoryID: "m2", Clock: VectorClock{"a1": 2}}
	first := Delta{MemoryID: "m1", Clock: VectorClock{"a1": 1}}
	third := Delta{MemoryID: "m3", Clock: VectorClock{"a1": 3}}

	// second and third arrive before first, out of causal order.
	require.NoError(t, q.Push(ctx, "target", second))
	require.NoError(t, q.Push(ctx, "target", third))
	require.NoError(t, q.Push(ctx, "target", first))

	var applied []string
	apply := func(d Delta) error {
		applied = append(applied, d.MemoryID)
		return nil
	}

	require.NoError(t, q.Drain(ctx, "target", 5, apply))
	require.Equal(t, []string{"m1", "m2", "m3"}, applied)

	// Nothing left pending once everything has applied.
	applied = nil
	require.NoError(t, q.Drain(ctx, "target", 5, apply))
	require.Empty(t, applied)
}

func TestDeltaQueue_WaitsForMissingPredecessor(t *testing.T) {
	transport := NewInProcessTransport()
	q := NewDeltaQueue(transport)
	ctx := context.Background()

	second := Delta{MemoryID: "m2", Clock: VectorClock{"a1": 2}}
	require.NoError(t, q.Push(ctx, "target", second))

	var applied []string
	apply := func(d Delta) error {
		applied = append(applied, d.MemoryID)
		return nil
	}

	require.NoError(t, q.Drain(ctx, "target", 5, apply))
	require.Empty(t, applied)

	first := Delta{MemoryID: "m1", Clock: VectorClock{"a1": 1}}
	require.NoError(t, q.Push(ctx, "target", first))
	require.NoError(t, q.Drain(ctx, "target", 5, apply))
	require.Equal(t, []string{"m1", "m2"}, applied)
}

func TestComputeOverallTrust(t *testing.T) {
	zero := ComputeOverallTrust(TrustEvidence{})
	require.InDelta(t, 0, zero, 1e-9)

	some := ComputeOverallTrust(TrustEvidence{Validated: 8, Useful: 1, Total: 10})
	require.Greater(t, some, 0.0)
	require.Less(t, some, 1.0)
}

func TestAgentTrust_DecayMovesTowardNeutral(t *testing.T) {
	now := time.Now()
	tr := NewAgentTrust("agent-a", now)
	tr.Overall = 0.9
	tr.Decay(now.Add(365*24*time.Hour), 30*24*time.Hour)
	require.InDelta(t, 0.5, tr.Overall, 0.01)
}

func TestResolveContradiction(t *testing.T) {
	resolution, winner := ResolveContradiction(ContradictionPair{MemoryAID: "m1", TrustA: 0.9, MemoryBID: "m2", TrustB: 0.2}, 0.3)
	require.Equal(t, ResolutionTrustWins, resolution)
	require.Equal(t, "m1", winner)

	resolution, winner = ResolveContradiction(ContradictionPair{MemoryAID: "m1", TrustA: 0.5, MemoryBID: "m2", TrustB: 0.52}, 0.3)
	require.Equal(t, ResolutionManual, resolution)
	require.Empty(t, winner)
}

func TestNamespace_OwnerKeepsImplicitAdmin(t *testing.T) {
	uri, err := ParseNamespaceURI("project://driftcortex")
	require.NoError(t, err)
	ns := NewNamespace(uri, "owner-agent")

	require.True(t, ns.Check("owner-agent", PermAdmin))
	require.NoError(t, ns.Grant("owner-agent", "agent-b", PermRead))
	require.True(t, ns.Check("agent-b", PermRead))
	require.False(t, ns.Check("agent-b", PermWrite))

	require.NoError(t, ns.Revoke("owner-agent", "owner-agent", PermAdmin))
	require.True(t, ns.Check("owner-agent", PermAdmin))

	_, err = ParseNamespaceURI("not-a-uri")
	require.Error(t, err)
}
