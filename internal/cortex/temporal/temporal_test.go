package temporal

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/driftlabs/driftcortex/internal/cortex/memory"
)

func mustTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestDiff_IdentityAndSymmetry(t *testing.T) {
	a := []memory.Memory{
		{ID: "m1", ContentHash: "h1", Confidence: 0.5},
		{ID: "m2", ContentHash: "h2", Confidence: 0.7},
	}
	same := Diff(a, a)
	require.Empty(t, same.Created)
	require.Empty(t, same.Archived)
	require.Empty(t, same.Modified)
	require.Empty(t, same.ConfidenceShifts)

	b := []memory.Memory{
		{ID: "m2", ContentHash: "h2-changed", Confidence: 0.9},
		{ID: "m3", ContentHash: "h3", Confidence: 0.4},
	}
	ab := Diff(a, b)
	ba := Diff(b, a)
	require.Len(t, ab.Created, 1)
	require.Equal(t, "m3", ab.Created[0].ID)
	require.Len(t, ba.Archived, 1)
	require.Equal(t, "m3", ba.Archived[0].ID)
	require.Equal(t, len(ab.Created), len(ba.Archived))

	require.Len(t, ab.Archived, 1)
	require.Equal(t, "m1", ab.Archived[0].ID)
	require.Len(t, ba.Created, 1)
	require.Equal(t, "m1", ba.Created[0].ID)
	require.Equal(t, len(ab.Archived), len(ba.Created))
}

func TestKSI_ClampedToUnitInterval(t *testing.T) {
	require.InDelta(t, 1.0, KSI(0, 10), 1e-9)
	require.InDelta(t, 0.0, KSI(1000, 10), 1e-9)
	require.Equal(t, 1.0, KSI(5, 0))
	require.InDelta(t, 0.75, KSI(5, 10), 1e-9)
}

func TestEvidenceFreshness_RecencyMonotonicity(t *testing.T) {
	fresh := EvidenceFreshness([]float64{1, 1, 1})
	require.InDelta(t, 1.0, fresh, 1e-9)

	older := UserValidationDecay(30*24*time.Hour, 7*24*time.Hour)
	newer := UserValidationDecay(1*time.Hour, 7*24*time.Hour)
	require.Greater(t, newer, older)

	combined := EvidenceFreshness([]float64{1, newer})
	require.GreaterOrEqual(t, combined, 0.0)
	require.LessOrEqual(t, combined, 1.0)
}

func TestAsOf_CurrentTimeEquivalence(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	all := []memory.Memory{
		{ID: "m1", TransactionTime: past, ValidTime: past},
	}
	require.Equal(t, AsOf(all, now, now, nil), Current(all, now, nil))
}

func TestRange_Overlaps(t *testing.T) {
	start := mustTime("2026-01-01T00:00:00Z")
	until := mustTime("2026-01-10T00:00:00Z")
	all := []memory.Memory{
		{ID: "m1", ValidTime: start, ValidUntil: &until},
	}
	from := mustTime("2026-01-05T00:00:00Z")
	to := mustTime("2026-01-20T00:00:00Z")
	out := Range(all, from, to, ModeOverlaps)
	require.Len(t, out, 1)

	out = Range(all, from, to, ModeContainedIn)
	require.Empty(t, out)
}

func TestDampener_SuppressesWithinCooldown(t *testing.T) {
	rules := []Rule{
		{Category: "ksi", Severity: SeverityWarning, Threshold: 0.6, Above: false, Cooldown: time.Hour},
	}
	d := NewDampener()
	t0 := time.Now()
	alerts := d.Evaluate(rules, 0.2, t0)
	require.Len(t, alerts, 1)

	alerts = d.Evaluate(rules, 0.2, t0.Add(time.Minute))
	require.Empty(t, alerts)

	alerts = d.Evaluate(rules, 0.2, t0.Add(2*time.Hour))
	require.Len(t, alerts, 1)
}

func TestDetectCrystallization(t *testing.T) {
	created, _ := json.Marshal(createdVariantDelta{Variant: memory.VariantEpisodic})
	reclass, _ := json.Marshal(reclassifiedDelta{Variant: memory.VariantSemantic})
	events := []memory.MemoryEvent{
		{MemoryID: "m1", Type: memory.EventCreated, Delta: created},
		{MemoryID: "m1", Type: memory.EventReclassified, Delta: reclass},
	}
	p := DetectCrystallization(events, time.Now(), 1)
	require.NotNil(t, p)
	require.Equal(t, PatternCrystallization, p.Kind)

	require.Nil(t, DetectCrystallization(events, time.Now(), 2))
}

func TestDetectErosion_ChainBreaksOnOtherEvent(t *testing.T) {
	decay, _ := json.Marshal(memory.ConfidenceChangedDelta{Old: 0.5, New: 0.4})
	events := []memory.MemoryEvent{
		{MemoryID: "m1", Type: memory.EventDecayed, Delta: decay},
		{MemoryID: "m1", Type: memory.EventDecayed, Delta: decay},
		{MemoryID: "m1", Type: memory.EventDecayed, Delta: decay},
	}
	require.NotNil(t, DetectErosion(events, time.Now(), 3))

	broken := append(append([]memory.MemoryEvent{}, events[:2]...), memory.MemoryEvent{MemoryID: "m1", Type: memory.EventArchived})
	require.Nil(t, DetectErosion(broken, time.Now(), 3))
}

func TestReplayDecision_TruncatesAndExcludesSelf(t *testing.T) {
	decisionTime := mustTime("2026-03-01T00:00:00Z")
	all := []memory.Memory{
		{ID: "d1", Variant: memory.VariantDecision, ValidTime: decisionTime, TransactionTime: decisionTime},
		{ID: "m1", ValidTime: decisionTime.Add(-time.Hour), TransactionTime: decisionTime.Add(-time.Hour)},
		{ID: "m2", ValidTime: decisionTime.Add(-2 * time.Hour), TransactionTime: decisionTime.Add(-2 * time.Hour)},
	}
	narrative, err := ReplayDecision(all, "d1", 1)
	require.NoError(t, err)
	require.Equal(t, "d1", narrative.Decision.ID)
	require.Len(t, narrative.KnownAt, 1)
	require.True(t, narrative.Truncated)
	for _, m := range narrative.KnownAt {
		require.NotEqual(t, "d1", m.ID)
	}

	_, err = ReplayDecision(all, "missing", 10)
	require.Error(t, err)
}
