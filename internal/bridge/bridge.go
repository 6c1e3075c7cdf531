// Package bridge is the Drift -> Cortex connector: the single point where a
// Drift analysis event becomes a Cortex memory (via the mapper package,
// tiered by the license package) and where Cortex memories get re-scored
// against fresh Drift evidence (via the grounding package). See spec.md
// §4.11 and §8.
package bridge

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/driftlabs/driftcortex/infrastructure/resilience"
	"github.com/driftlabs/driftcortex/internal/bridge/grounding"
	"github.com/driftlabs/driftcortex/internal/bridge/license"
	"github.com/driftlabs/driftcortex/internal/bridge/mapper"
	"github.com/driftlabs/driftcortex/internal/cortex/eventstore"
	cortexstorage "github.com/driftlabs/driftcortex/internal/cortex/storage"
	driftstorage "github.com/driftlabs/driftcortex/internal/drift/storage"
	derr "github.com/driftlabs/driftcortex/internal/errors"
	"github.com/driftlabs/driftcortex/pkg/config"
)

// Bridge owns no storage of its own: it is handed an already-open Drift
// Handles set and Cortex memory/event stores, and wires the license gate,
// mapper and grounding loop around them.
type Bridge struct {
	cfg    config.BridgeConfig
	gate   *license.FeatureGate
	mapper *mapper.Mapper
	ground *grounding.Loop
	events *eventstore.Store
	mem    *cortexstorage.MemoryStore
	log    zerolog.Logger
	cb     *resilience.CircuitBreaker
}

// New wires a Bridge from cfg, the Drift storage kernel's Handles, and the
// Cortex memory/event stores.
func New(cfg config.BridgeConfig, drift driftstorage.Handles, mem *cortexstorage.MemoryStore, events *eventstore.Store) *Bridge {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().
		Timestamp().
		Str("service", "bridge").
		Logger()

	gate := license.NewFeatureGate(license.ParseTier(cfg.LicenseTier))

	return &Bridge{
		cfg:    cfg,
		gate:   gate,
		mapper: mapper.New(gate),
		ground: grounding.New(drift, mem, events, gate, log),
		events: events,
		mem:    mem,
		log:    log,
		cb:     resilience.New(resilience.DefaultConfig()),
	}
}

// Start launches the grounding loop's cron schedule for namespace, if the
// gate's tier allows scheduled grounding (spec.md §4.11: Team and above).
// Community deployments stay on-demand only; Start is then a no-op.
func (b *Bridge) Start(ctx context.Context, namespace string) error {
	if !b.cfg.Enabled {
		return nil
	}
	if !b.gate.ScheduledGroundingAllowed() {
		b.log.Info().Str("tier", b.gate.Tier().String()).
			Msg("scheduled grounding unavailable at this license tier, on-demand only")
		return nil
	}
	spec := b.cfg.GroundingCron
	if spec == "" {
		spec = "@every 10m"
	}
	if err := b.ground.Start(ctx, namespace, spec); err != nil {
		return err
	}
	b.log.Info().Str("namespace", namespace).Str("cron", spec).Msg("grounding loop scheduled")
	return nil
}

// Stop halts the grounding loop's schedule, if running.
func (b *Bridge) Stop() {
	b.ground.Stop()
}

// Handle maps a Drift event into a Cortex memory and persists the memory
// document and then its founding event under the Bridge's circuit breaker.
// The two writes go to separate stores and are not one transaction: if the
// event append fails, the memory document is already written.
// A mapper.IsDenied(err) == true return is the gate's no-op path —
// the event kind isn't mapped at the configured license tier — and callers
// should swallow it rather than treat it as failure.
func (b *Bridge) Handle(ctx context.Context, ev mapper.DriftEvent) error {
	if !b.cfg.Enabled {
		return nil
	}

	mapped, err := b.mapper.Map(ev)
	if err != nil {
		if mapper.IsDenied(err) {
			b.log.Debug().Str("kind", ev.Kind).Str("namespace", ev.Namespace).
				Msg("drift event not mapped at current license tier")
		} else {
			b.log.Warn().Err(err).Str("kind", ev.Kind).Msg("failed to map drift event")
		}
		return err
	}

	err = b.cb.Execute(ctx, func() error {
		if err := b.mem.Put(ctx, mapped.Memory); err != nil {
			return err
		}
		_, err := b.events.Append(mapped.Event)
		return err
	})
	if err != nil {
		b.log.Error().Err(err).Str("memory_id", mapped.Memory.ID).Msg("failed to persist mapped memory")
		return err
	}
	b.log.Debug().Str("memory_id", mapped.Memory.ID).Str("kind", ev.Kind).Msg("drift event mapped to memory")
	return nil
}

// RunGrounding runs a single on-demand grounding pass over namespace. Unlike
// the cron schedule, on-demand runs are available at every license tier.
func (b *Bridge) RunGrounding(ctx context.Context, namespace string) (grounding.Result, error) {
	if !b.cfg.Enabled {
		return grounding.Result{}, derr.FeatureLocked("grounding_loop", b.gate.Tier().String())
	}
	return b.ground.RunOnce(ctx, namespace)
}

// Gate exposes the Bridge's FeatureGate, e.g. so a CLI subcommand can check
// ContradictionGenerationAllowed before offering an Enterprise-only report.
func (b *Bridge) Gate() *license.FeatureGate {
	return b.gate
}
