// Package grounding implements the Bridge's scoring pass: for each Cortex
// memory linked to Drift-observed files, it gathers fresh evidence from the
// Drift storage kernel (detections, violations, constraints, taint flows,
// gate results) and re-derives a confidence score, closing the loop spec.md
// §4.11 and §8 call "grounding".
package grounding

import (
	"context"
	"encoding/json"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/driftlabs/driftcortex/infrastructure/cache"
	"github.com/driftlabs/driftcortex/infrastructure/resilience"
	"github.com/driftlabs/driftcortex/internal/bridge/license"
	"github.com/driftlabs/driftcortex/internal/cortex/eventstore"
	"github.com/driftlabs/driftcortex/internal/cortex/memory"
	cortexstorage "github.com/driftlabs/driftcortex/internal/cortex/storage"
	driftstorage "github.com/driftlabs/driftcortex/internal/drift/storage"
	derr "github.com/driftlabs/driftcortex/internal/errors"
	"github.com/driftlabs/driftcortex/pkg/metrics"
)

// perMemoryBudget and the batchSize/batchBudget pair are the §4.11/§8
// grounding-loop latency contracts: under 50ms per memory, under 10s per
// 500-memory batch.
const (
	perMemoryBudget = 50 * time.Millisecond
	batchSize       = 500
	batchBudget     = 10 * time.Second

	materialConfidenceDelta = 0.02
	evidenceCacheTTL        = 30 * time.Second
)

// Evidence is the Drift-side signal one memory is grounded against, keyed by
// the file paths in its Links.
type Evidence struct {
	Detections  []driftstorage.DetectionRecord
	Violations  []driftstorage.ViolationRecord
	Constraints []driftstorage.ConstraintRecord
	TaintFlows  []driftstorage.TaintFlowRecord
	GateResults []driftstorage.GateResultRecord
}

// Loop runs grounding passes over Cortex memories using a Drift Handles set
// as the evidence source.
type Loop struct {
	drift   driftstorage.Handles
	mem     *cortexstorage.MemoryStore
	events  *eventstore.Store
	gate    *license.FeatureGate
	cache   *cache.TTLCache
	cb      *resilience.CircuitBreaker
	retry   resilience.RetryConfig
	limiter *rate.Limiter
	log     zerolog.Logger
	cron    *cron.Cron
}

// New builds a Loop. log should be a Bridge-scoped zerolog.Logger, distinct
// from the logrus loggers the Drift pipeline uses (see pkg/logger,
// infrastructure/logging) — the Bridge is its own ambient-stack citizen.
func New(drift driftstorage.Handles, mem *cortexstorage.MemoryStore, events *eventstore.Store, gate *license.FeatureGate, log zerolog.Logger) *Loop {
	return &Loop{
		drift:   drift,
		mem:     mem,
		events:  events,
		gate:    gate,
		cache:   cache.NewTTLCache(evidenceCacheTTL),
		cb:      resilience.New(resilience.DefaultConfig()),
		retry:   resilience.DefaultRetryConfig(),
		limiter: rate.NewLimiter(rate.Every(perMemoryBudget), 1),
		log:     log.With().Str("component", "grounding").Logger(),
	}
}

// Start schedules recurring runs on spec (a robfig/cron expression), gated
// by FeatureGate.ScheduledGroundingAllowed — Community deployments get
// RunOnce only, per spec.md §4.11 ("Team adds ... scheduled grounding").
func (l *Loop) Start(ctx context.Context, namespace, spec string) error {
	if !l.gate.ScheduledGroundingAllowed() {
		return derr.FeatureLocked("scheduled_grounding", l.gate.Tier().String())
	}
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if _, err := l.RunOnce(ctx, namespace); err != nil {
			l.log.Error().Err(err).Msg("scheduled grounding run failed")
		}
	}); err != nil {
		return derr.Wrap(derr.KindConfig, derr.CodeInvalidConfig, "parse grounding cron spec", err).
			WithDetails("spec", spec)
	}
	c.Start()
	l.cron = c
	return nil
}

// Stop halts a running cron schedule, if Start was ever called, and waits
// for any in-flight run to finish.
func (l *Loop) Stop() {
	if l.cron == nil {
		return
	}
	<-l.cron.Stop().Done()
	l.cron = nil
}

// Result summarizes one grounding pass.
type Result struct {
	Scored  int // memories whose confidence moved and were persisted
	Skipped int // memories left unconsidered by the batch/rate budget
	Errored int // memories whose evidence gather or persist failed
}

// RunOnce runs a single grounding pass over every live memory in namespace,
// honoring the batch-of-500/10s budget: memories beyond the first batchSize
// in a run are left unscored and counted as Skipped rather than exceeding
// the budget.
func (l *Loop) RunOnce(ctx context.Context, namespace string) (Result, error) {
	start := time.Now()
	memories, err := l.mem.FindByNamespace(ctx, namespace)
	if err != nil {
		metrics.RecordGroundingRun("error")
		return Result{}, derr.Wrap(derr.KindAnalysis, derr.CodeGateFailed, "list memories for grounding", err)
	}

	batch := memories
	res := Result{}
	if len(batch) > batchSize {
		res.Skipped = len(batch) - batchSize
		batch = batch[:batchSize]
	}

	runCtx, cancel := context.WithDeadline(ctx, start.Add(batchBudget))
	defer cancel()

	for i, mem := range batch {
		if err := l.limiter.Wait(runCtx); err != nil {
			res.Skipped += len(batch) - i
			break
		}
		scored, err := l.groundOne(runCtx, mem)
		switch {
		case err != nil:
			res.Errored++
			l.log.Warn().Err(err).Str("memory_id", mem.ID).Msg("grounding one memory failed")
		case scored:
			res.Scored++
		}
	}

	outcome := "scored"
	switch {
	case res.Scored == 0 && res.Errored > 0:
		outcome = "error"
	case res.Scored == 0 && res.Skipped > 0:
		outcome = "skipped_budget"
	}
	metrics.RecordGroundingRun(outcome)
	l.log.Info().
		Int("scored", res.Scored).
		Int("skipped", res.Skipped).
		Int("errored", res.Errored).
		Dur("elapsed", time.Since(start)).
		Msg("grounding run complete")
	return res, nil
}

// groundOne gathers evidence for one memory's file links and re-derives its
// confidence, persisting a ConfidenceChanged event when the score moves by
// more than materialConfidenceDelta. Returns scored=false for a memory with
// no file links (nothing to ground against) or whose score didn't move.
func (l *Loop) groundOne(ctx context.Context, mem memory.Memory) (bool, error) {
	if len(mem.Links.Files) == 0 {
		return false, nil
	}

	budgetCtx, cancel := context.WithTimeout(ctx, perMemoryBudget)
	defer cancel()

	ev, err := l.gather(budgetCtx, mem.Links.Files)
	if err != nil {
		return false, err
	}

	score := score(ev)
	metrics.RecordGroundingScore(l.gate.Tier().String(), score)

	if !materialChange(mem.Confidence, score) {
		return false, nil
	}

	old := mem.Confidence
	mem.Confidence = score
	delta, err := json.Marshal(memory.ConfidenceChangedDelta{Old: old, New: score})
	if err != nil {
		return false, derr.Wrap(derr.KindAnalysis, derr.CodeEventMappingFailed, "marshal confidence delta", err)
	}
	event := memory.MemoryEvent{
		MemoryID:   mem.ID,
		RecordedAt: time.Now().UTC(),
		Type:       memory.EventConfidenceChanged,
		Delta:      delta,
		Actor:      memory.ActorSystem,
	}

	if err := l.persist(ctx, mem, event); err != nil {
		return false, err
	}
	return true, nil
}

// gather collects Evidence for every path, retrying transient storage
// failures and caching each path's result for the run's evidence TTL so
// memories sharing a file link don't re-query the kernel.
func (l *Loop) gather(ctx context.Context, paths []string) (Evidence, error) {
	var out Evidence
	for _, path := range paths {
		if cached, ok := l.cache.Get(ctx, "path:"+path); ok {
			if pev, ok := cached.(Evidence); ok {
				out = mergeEvidence(out, pev)
				continue
			}
		}

		var pev Evidence
		err := resilience.Retry(ctx, l.retry, func() error {
			var gerr error
			pev, gerr = l.gatherPath(ctx, path)
			return gerr
		})
		if err != nil {
			return Evidence{}, derr.Wrap(derr.KindAnalysis, derr.CodeGateFailed, "gather evidence for path", err).
				WithDetails("path", path)
		}
		l.cache.Set(ctx, "path:"+path, pev)
		out = mergeEvidence(out, pev)
	}
	return out, nil
}

func (l *Loop) gatherPath(ctx context.Context, path string) (Evidence, error) {
	var ev Evidence
	var err error
	if ev.Detections, err = l.drift.Analysis.DetectionsForPath(ctx, path); err != nil {
		return Evidence{}, err
	}
	if ev.Violations, err = l.drift.Enforcement.ViolationsForPath(ctx, path); err != nil {
		return Evidence{}, err
	}
	if ev.Constraints, err = l.drift.Advanced.ConstraintsForPath(ctx, path); err != nil {
		return Evidence{}, err
	}
	if ev.TaintFlows, err = l.drift.Advanced.TaintFlowsForPath(ctx, path); err != nil {
		return Evidence{}, err
	}
	if ev.GateResults, err = l.drift.Enforcement.LatestGateResults(ctx); err != nil {
		return Evidence{}, err
	}
	return ev, nil
}

func mergeEvidence(a, b Evidence) Evidence {
	a.Detections = append(a.Detections, b.Detections...)
	a.Violations = append(a.Violations, b.Violations...)
	a.Constraints = append(a.Constraints, b.Constraints...)
	a.TaintFlows = append(a.TaintFlows, b.TaintFlows...)
	a.GateResults = append(a.GateResults, b.GateResults...)
	return a
}

// score derives a 0-1 confidence from Evidence: a weighted blend of
// (inverse) detection severity, enforcement gate pass rate, active
// (non-suppressed) violation pressure and taint-flow severity. Evidence
// categories absent for a path simply don't contribute a term, so a
// memory linked to a clean file scores high by default.
func score(ev Evidence) float64 {
	var weighted, totalWeight float64

	if n := len(ev.Detections); n > 0 {
		var sum float64
		for _, d := range ev.Detections {
			sum += d.Confidence
		}
		weighted += (1 - sum/float64(n)) * 0.35
		totalWeight += 0.35
	}
	if n := len(ev.GateResults); n > 0 {
		pass := 0
		for _, g := range ev.GateResults {
			if g.Pass {
				pass++
			}
		}
		weighted += (float64(pass) / float64(n)) * 0.30
		totalWeight += 0.30
	}
	if n := len(ev.Violations); n > 0 {
		active := 0
		for _, v := range ev.Violations {
			if !v.Suppressed {
				active++
			}
		}
		weighted += (1 / (1 + float64(active))) * 0.20
		totalWeight += 0.20
	}
	if n := len(ev.TaintFlows); n > 0 {
		var sum float64
		for _, t := range ev.TaintFlows {
			sum += t.Confidence
		}
		weighted += (1 - sum/float64(n)) * 0.15
		totalWeight += 0.15
	}

	if totalWeight == 0 {
		return 0.8 // no adverse evidence found for any linked file
	}
	s := weighted / totalWeight
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	default:
		return s
	}
}

func materialChange(old, new float64) bool {
	d := old - new
	if d < 0 {
		d = -d
	}
	return d > materialConfidenceDelta
}

// persist appends the ConfidenceChanged event and then writes the updated
// memory back to Cortex storage, both under the Loop's circuit breaker. The
// two writes are not one transaction: if the memory write fails, the event
// is already in the log. Running them under the breaker means a
// failing Cortex backend trips open rather than every grounded memory
// retrying against it one at a time.
func (l *Loop) persist(ctx context.Context, mem memory.Memory, event memory.MemoryEvent) error {
	return l.cb.Execute(ctx, func() error {
		if _, err := l.events.Append(event); err != nil {
			return err
		}
		return l.mem.Put(ctx, mem)
	})
}
