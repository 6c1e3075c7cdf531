package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/driftlabs/driftcortex/pkg/config"
)

// runAudit prints the audit_log entries for one run, oldest first, with
// human-relative timestamps.
func runAudit(ctx context.Context, cfg *config.Config, args []string) error {
	var runID string
	if _, err := parseFlags("audit", args, func(fs *flag.FlagSet) {
		fs.StringVar(&runID, "run", "", "run id to print (required)")
	}); err != nil {
		return err
	}
	if runID == "" {
		return fmt.Errorf("--run is required")
	}

	kernel, handles, err := openKernel(ctx, cfg)
	if err != nil {
		return err
	}
	defer kernel.Close()

	entries, err := handles.Enforcement.AuditForRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("audit for run %s: %w", runID, err)
	}

	for _, e := range entries {
		fmt.Printf("%s  %-10s %-12s %s (%s)\n", e.ID, e.Action, e.Actor, e.Detail, humanize.Time(e.CreatedAt))
	}
	fmt.Printf("%s entries\n", humanize.Comma(int64(len(entries))))
	return nil
}
