// Command driftctl is the driftcortex command-line interface: it drives a
// scan/analyze/check/report cycle against the Drift storage kernel and, when
// the bridge is enabled, the Cortex memory grounding loop.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/driftlabs/driftcortex/internal/bridge"
	cortexstorage "github.com/driftlabs/driftcortex/internal/cortex/storage"
	"github.com/driftlabs/driftcortex/internal/cortex/eventstore"
	driftstorage "github.com/driftlabs/driftcortex/internal/drift/storage"
	"github.com/driftlabs/driftcortex/pkg/config"
)

const usage = `driftctl is the driftcortex command-line interface.

Usage:
  driftctl <command> [flags]

Commands:
  scan                   walk the scan root and record the file-content diff
  analyze                run built-in detectors over the scanned tree
  check                  evaluate enforcement gates over stored detections
  report                 render a JSON or SARIF report, optionally --filter'd
  audit                  print the audit log for a run
  drift_why              explore a memory's grounding evidence (TUI)
  drift_memory_learn     map a Drift event into a Cortex memory via the bridge
  drift_grounding_check  run one on-demand grounding pass and print the result
`

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "driftctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("no command specified")
	}

	cmd, rest := args[0], args[1:]
	if cmd == "-h" || cmd == "--help" || cmd == "help" {
		fmt.Fprint(os.Stderr, usage)
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	switch cmd {
	case "scan":
		return runScan(ctx, cfg, rest)
	case "analyze":
		return runAnalyze(ctx, cfg, rest)
	case "check":
		return runCheck(ctx, cfg, rest)
	case "report":
		return runReport(ctx, cfg, rest)
	case "audit":
		return runAudit(ctx, cfg, rest)
	case "drift_why":
		return runDriftWhy(ctx, cfg, rest)
	case "drift_memory_learn":
		return runDriftMemoryLearn(ctx, cfg, rest)
	case "drift_grounding_check":
		return runGroundingCheck(ctx, cfg, rest)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// openKernel opens the Drift storage kernel and wires a Handles set backed
// by it, including a BatchWriter for the command-queue mutations the scan
// and analyze subcommands enqueue.
func openKernel(ctx context.Context, cfg *config.Config) (*driftstorage.Kernel, driftstorage.Handles, error) {
	kernel, err := driftstorage.Open(ctx, cfg.Storage.SQLitePath, cfg.Storage.MaxReadConns)
	if err != nil {
		return nil, driftstorage.Handles{}, err
	}

	files := driftstorage.NewFileStore(kernel.WriteDB())
	analysis := driftstorage.NewAnalysisStore(kernel.WriteDB())
	structural := driftstorage.NewStructuralStore(kernel.WriteDB())
	enforcement := driftstorage.NewEnforcementStore(kernel.WriteDB())
	advanced := driftstorage.NewAdvancedStore(kernel.WriteDB())
	reader := driftstorage.NewReaderStore(kernel.ReadDB())

	handles := driftstorage.NewHandles(files, analysis, structural, enforcement, advanced, reader, nil)
	writer := driftstorage.NewBatchWriter(handles, cfg.Storage.BatchQueueDepth)
	handles.Writer = writer
	return kernel, handles, nil
}

// openBridge opens the Cortex memory/event stores and the Drift kernel
// together and wires a bridge.Bridge over both, for the drift_* subcommands.
func openBridge(ctx context.Context, cfg *config.Config) (*driftstorage.Kernel, *bridge.Bridge, func(), error) {
	kernel, handles, err := openKernel(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	mem, err := cortexstorage.Open(ctx, cfg.CortexStore.KivikDriver, cfg.CortexStore.KivikDSN, cfg.CortexStore.KivikDatabase)
	if err != nil {
		_ = kernel.Close()
		return nil, nil, nil, fmt.Errorf("open cortex memory store: %w", err)
	}

	events, err := eventstore.Open(cfg.Storage.EventLogPath)
	if err != nil {
		_ = mem.Close()
		_ = kernel.Close()
		return nil, nil, nil, fmt.Errorf("open cortex event log: %w", err)
	}

	b := bridge.New(cfg.Bridge, handles, mem, events)
	cleanup := func() {
		_ = mem.Close()
		_ = kernel.Close()
	}
	return kernel, b, cleanup, nil
}

// parseFlags runs a ContinueOnError flag set silently, so subcommand errors
// surface through driftctl's own "driftctl: ..." prefix rather than a second
// usage dump.
func parseFlags(name string, args []string, setup func(*flag.FlagSet)) (*flag.FlagSet, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	setup(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return fs, nil
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
