package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/driftlabs/driftcortex/internal/bridge/license"
	"github.com/driftlabs/driftcortex/internal/bridge/mapper"
	"github.com/driftlabs/driftcortex/pkg/config"
)

// runDriftMemoryLearn maps one Drift event into a Cortex memory through the
// bridge, for operators wiring a CI step or git hook directly to driftctl
// rather than embedding the bridge in a long-running process.
func runDriftMemoryLearn(ctx context.Context, cfg *config.Config, args []string) error {
	var kind, namespace, agent, summary, detail, tags string
	if _, err := parseFlags("drift_memory_learn", args, func(fs *flag.FlagSet) {
		fs.StringVar(&kind, "kind", "", "event kind: "+allEventKinds())
		fs.StringVar(&namespace, "namespace", "", "target namespace uri")
		fs.StringVar(&agent, "agent", "", "source agent id, empty for system-originated")
		fs.StringVar(&summary, "summary", "", "memory summary")
		fs.StringVar(&detail, "detail", "", "free-form evidence text (redacted before storage)")
		fs.StringVar(&tags, "tags", "", "comma-separated tags")
	}); err != nil {
		return err
	}
	if kind == "" || namespace == "" {
		return fmt.Errorf("--kind and --namespace are required")
	}

	_, b, cleanup, err := openBridge(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ev := mapper.DriftEvent{
		Kind:        kind,
		Namespace:   namespace,
		SourceAgent: agent,
		Summary:     summary,
		Detail:      detail,
		Tags:        splitCSV(tags),
		OccurredAt:  time.Now().UTC(),
	}

	if err := b.Handle(ctx, ev); err != nil {
		if mapper.IsDenied(err) {
			fmt.Printf("event kind %q not available at the configured license tier\n", kind)
			return nil
		}
		return fmt.Errorf("map drift event: %w", err)
	}
	fmt.Println("memory recorded")
	return nil
}

// runGroundingCheck runs one on-demand grounding pass over namespace and
// prints its outcome.
func runGroundingCheck(ctx context.Context, cfg *config.Config, args []string) error {
	var namespace string
	if _, err := parseFlags("drift_grounding_check", args, func(fs *flag.FlagSet) {
		fs.StringVar(&namespace, "namespace", "", "namespace to ground (required)")
	}); err != nil {
		return err
	}
	if namespace == "" {
		return fmt.Errorf("--namespace is required")
	}

	_, b, cleanup, err := openBridge(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := b.RunGrounding(ctx, namespace)
	if err != nil {
		return fmt.Errorf("run grounding: %w", err)
	}
	fmt.Printf("grounding: scored=%d skipped=%d errored=%d (tier=%s)\n",
		result.Scored, result.Skipped, result.Errored, b.Gate().Tier())
	return nil
}

func allEventKinds() string {
	return fmt.Sprintf("%s|%s|%s|%s|%s",
		license.EventPatternApproved, license.EventPatternDiscovered,
		license.EventRegression, license.EventViolationFixed, license.EventConstraintBroken)
}
