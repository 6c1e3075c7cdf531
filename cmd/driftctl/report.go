package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/tidwall/gjson"

	"github.com/driftlabs/driftcortex/internal/drift/enforce"
	"github.com/driftlabs/driftcortex/pkg/config"
)

// runReport renders the current violation set as a JSON or SARIF report.
// --filter applies a gjson path expression to the rendered JSON and prints
// only the matched value, e.g. --filter "violations.#.rule_id" to list rule
// ids without the rest of the report.
func runReport(ctx context.Context, cfg *config.Config, args []string) error {
	var format, filter, out string
	if _, err := parseFlags("report", args, func(fs *flag.FlagSet) {
		fs.StringVar(&format, "format", "json", "json|sarif")
		fs.StringVar(&filter, "filter", "", "gjson path expression to extract from the JSON report")
		fs.StringVar(&out, "out", "", "write to this file instead of stdout")
	}); err != nil {
		return err
	}

	kernel, handles, err := openKernel(ctx, cfg)
	if err != nil {
		return err
	}
	defer kernel.Close()

	aggregates, err := loadAggregates(ctx, handles)
	if err != nil {
		return err
	}
	violations := enforce.Evaluate(defaultRules(), aggregates, nil, nil)

	var body []byte
	switch format {
	case "sarif":
		body, err = enforce.ReportSARIF("driftctl", version, violations)
	case "json":
		results, rerr := handles.Enforcement.LatestGateResults(ctx)
		if rerr != nil {
			return fmt.Errorf("latest gate results: %w", rerr)
		}
		policy := enforce.Apply(enforce.Policy{Mode: enforce.Mode(cfg.Enforcement.PolicyMode), ScoreThreshold: cfg.Enforcement.ScoreThreshold}, results)
		body, err = enforce.ReportJSON(policy, violations)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	if filter != "" {
		if format != "json" {
			return fmt.Errorf("--filter only applies to --format json")
		}
		result := gjson.GetBytes(body, filter)
		body = []byte(result.String() + "\n")
	}

	if out == "" {
		_, err = os.Stdout.Write(body)
		return err
	}
	return os.WriteFile(out, body, 0o644)
}

const version = "0.1.0"
