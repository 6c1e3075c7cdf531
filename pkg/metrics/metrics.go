// Package metrics exposes the Prometheus collectors shared by the Drift
// pipeline, the Cortex memory store and the Bridge.
package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	scanFilesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "driftcortex",
			Subsystem: "scan",
			Name:      "files_total",
			Help:      "Total number of files observed by a scan, grouped by change kind.",
		},
		[]string{"kind"}, // added|modified|removed|unchanged
	)

	scanDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "driftcortex",
			Subsystem: "scan",
			Name:      "duration_seconds",
			Help:      "Duration of a full scan pass.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"root"},
	)

	parseCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "driftcortex",
			Subsystem: "parser",
			Name:      "cache_total",
			Help:      "Parse cache lookups grouped by outcome.",
		},
		[]string{"outcome"}, // hit|miss|evicted
	)

	parseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "driftcortex",
			Subsystem: "parser",
			Name:      "duration_seconds",
			Help:      "Duration of a single file parse.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"language"},
	)

	detectionRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "driftcortex",
			Subsystem: "detect",
			Name:      "runs_total",
			Help:      "Detector visitor invocations grouped by category and outcome.",
		},
		[]string{"category", "outcome"}, // outcome: ok|panic|timeout
	)

	detectionFindings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "driftcortex",
			Subsystem: "detect",
			Name:      "findings_total",
			Help:      "Detections emitted grouped by category and severity.",
		},
		[]string{"category", "severity"},
	)

	gateResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "driftcortex",
			Subsystem: "enforce",
			Name:      "gate_results_total",
			Help:      "Enforcement gate evaluations grouped by gate and verdict.",
		},
		[]string{"gate", "verdict"}, // pass|fail|warn
	)

	eventAppends = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "driftcortex",
			Subsystem: "cortex",
			Name:      "event_appends_total",
			Help:      "Memory events appended to the event log grouped by content kind.",
		},
		[]string{"kind"},
	)

	snapshotDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "driftcortex",
			Subsystem: "cortex",
			Name:      "snapshot_duration_seconds",
			Help:      "Duration of Cortex snapshot construction.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"trigger"}, // event_threshold|periodic|on_demand
	)

	syncDeltasApplied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "driftcortex",
			Subsystem: "sync",
			Name:      "deltas_applied_total",
			Help:      "CRDT deltas applied grouped by origin peer and outcome.",
		},
		[]string{"peer", "outcome"}, // applied|buffered|rejected
	)

	agentTrust = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "driftcortex",
			Subsystem: "sync",
			Name:      "agent_trust",
			Help:      "Current trust score of a peer agent.",
		},
		[]string{"agent_id"},
	)

	groundingRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "driftcortex",
			Subsystem: "bridge",
			Name:      "grounding_runs_total",
			Help:      "Grounding loop executions grouped by outcome.",
		},
		[]string{"outcome"}, // scored|skipped_budget|error
	)

	groundingScore = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "driftcortex",
			Subsystem: "bridge",
			Name:      "grounding_score",
			Help:      "Distribution of grounding scores produced for memories.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		},
		[]string{"license_tier"},
	)

	fanoutRetention = 10 * time.Minute

	gateHistory = struct {
		mu     sync.Mutex
		points map[string][]gatePoint
	}{points: make(map[string][]gatePoint)}
)

// gatePoint captures a timestamped gate verdict for short-term windows.
type gatePoint struct {
	at   time.Time
	pass bool
}

func init() {
	Registry.MustRegister(
		scanFilesTotal,
		scanDuration,
		parseCacheTotal,
		parseDuration,
		detectionRuns,
		detectionFindings,
		gateResults,
		eventAppends,
		snapshotDuration,
		syncDeltasApplied,
		agentTrust,
		groundingRuns,
		groundingScore,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// RecordScan records the outcome of a scan pass over root.
func RecordScan(root string, added, modified, removed, unchanged int, dur time.Duration) {
	if root == "" {
		root = "."
	}
	scanFilesTotal.WithLabelValues("added").Add(float64(added))
	scanFilesTotal.WithLabelValues("modified").Add(float64(modified))
	scanFilesTotal.WithLabelValues("removed").Add(float64(removed))
	scanFilesTotal.WithLabelValues("unchanged").Add(float64(unchanged))
	scanDuration.WithLabelValues(root).Observe(dur.Seconds())
}

// RecordParseCache records a parse cache lookup outcome ("hit", "miss", "evicted").
func RecordParseCache(outcome string) {
	if outcome == "" {
		outcome = "miss"
	}
	parseCacheTotal.WithLabelValues(outcome).Inc()
}

// RecordParse records the duration of a single-file parse.
func RecordParse(language string, dur time.Duration) {
	if language == "" {
		language = "unknown"
	}
	parseDuration.WithLabelValues(language).Observe(dur.Seconds())
}

// RecordDetectionRun records a visitor invocation outcome ("ok", "panic", "timeout").
func RecordDetectionRun(category, outcome string) {
	if category == "" {
		category = "unknown"
	}
	if outcome == "" {
		outcome = "ok"
	}
	detectionRuns.WithLabelValues(category, outcome).Inc()
}

// RecordDetectionFinding records an emitted detection.
func RecordDetectionFinding(category, severity string) {
	if category == "" {
		category = "unknown"
	}
	if severity == "" {
		severity = "info"
	}
	detectionFindings.WithLabelValues(category, severity).Inc()
}

// RecordGateResult records an enforcement gate verdict and tracks a rolling
// pass/fail window used by GateWindow.
func RecordGateResult(gate, verdict string) {
	if gate == "" {
		gate = "unknown"
	}
	if verdict == "" {
		verdict = "warn"
	}
	gateResults.WithLabelValues(gate, verdict).Inc()

	now := time.Now()
	gateHistory.mu.Lock()
	points := append(gateHistory.points[gate], gatePoint{at: now, pass: verdict == "pass"})
	cutoff := now.Add(-fanoutRetention)
	pruned := points[:0]
	for _, p := range points {
		if p.at.After(cutoff) {
			pruned = append(pruned, p)
		}
	}
	gateHistory.points[gate] = pruned
	gateHistory.mu.Unlock()
}

// GateWindow returns the pass/fail counts for a gate within window (e.g. 5m).
func GateWindow(gate string, window time.Duration) (pass, fail int) {
	if window <= 0 {
		window = 5 * time.Minute
	}
	cutoff := time.Now().Add(-window)
	gateHistory.mu.Lock()
	defer gateHistory.mu.Unlock()
	for _, p := range gateHistory.points[gate] {
		if p.at.Before(cutoff) {
			continue
		}
		if p.pass {
			pass++
		} else {
			fail++
		}
	}
	return pass, fail
}

// RecordEventAppend records a MemoryEvent append by content kind.
func RecordEventAppend(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	eventAppends.WithLabelValues(kind).Inc()
}

// RecordSnapshot records the duration of a snapshot build, labelled by trigger.
func RecordSnapshot(trigger string, dur time.Duration) {
	if trigger == "" {
		trigger = "on_demand"
	}
	snapshotDuration.WithLabelValues(trigger).Observe(dur.Seconds())
}

// RecordSyncDelta records a CRDT delta application outcome.
func RecordSyncDelta(peer, outcome string) {
	if peer == "" {
		peer = "unknown"
	}
	if outcome == "" {
		outcome = "applied"
	}
	syncDeltasApplied.WithLabelValues(peer, outcome).Inc()
}

// SetAgentTrust publishes the current trust score for an agent.
func SetAgentTrust(agentID string, score float64) {
	if agentID == "" {
		agentID = "unknown"
	}
	agentTrust.WithLabelValues(agentID).Set(score)
}

// RecordGroundingRun records a Bridge grounding-loop pass outcome.
func RecordGroundingRun(outcome string) {
	if outcome == "" {
		outcome = "scored"
	}
	groundingRuns.WithLabelValues(outcome).Inc()
}

// RecordGroundingScore records a grounding score produced for a memory.
func RecordGroundingScore(licenseTier string, score float64) {
	if licenseTier == "" {
		licenseTier = "community"
	}
	groundingScore.WithLabelValues(strings.ToLower(licenseTier)).Observe(score)
}
