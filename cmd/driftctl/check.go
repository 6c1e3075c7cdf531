package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/driftlabs/driftcortex/internal/drift/detect"
	"github.com/driftlabs/driftcortex/internal/drift/enforce"
	"github.com/driftlabs/driftcortex/internal/drift/patterns"
	driftstorage "github.com/driftlabs/driftcortex/internal/drift/storage"
	"github.com/driftlabs/driftcortex/pkg/config"
)

// defaultRules returns one Rule per detect.Category that enforce's gates
// key on by prefix (security.* and errors.*), mirroring enforce's own test
// fixture (internal/drift/enforce/enforce_test.go's secretRule).
func defaultRules() []enforce.Rule {
	return []enforce.Rule{
		{
			ID:       "security.flagged_pattern",
			Severity: enforce.SeverityCritical,
			Message:  "security-category pattern detected",
			QuickFix: "review the flagged location for a safer equivalent",
			Applies:  func(a patterns.Aggregated) bool { return a.Category == detect.CategorySecurity },
		},
		{
			ID:       "errors.flagged_pattern",
			Severity: enforce.SeverityMedium,
			Message:  "error-handling gap detected",
			QuickFix: "handle or explicitly discard the returned error",
			Applies:  func(a patterns.Aggregated) bool { return a.Category == detect.CategoryErrors },
		},
	}
}

// loadAggregates pulls every stored detection across every category and
// folds it into patterns.Aggregated groups.
func loadAggregates(ctx context.Context, handles driftstorage.Handles) ([]patterns.Aggregated, error) {
	var matches []detect.PatternMatch
	for _, cat := range detect.AllCategories {
		recs, err := handles.Analysis.DetectionsByCategory(ctx, string(cat))
		if err != nil {
			return nil, fmt.Errorf("detections for category %s: %w", cat, err)
		}
		for _, r := range recs {
			matches = append(matches, detect.PatternMatch{
				File:            r.Path,
				Line:            r.Line,
				Column:          r.Column,
				PatternID:       r.PatternID,
				Category:        detect.Category(r.Category),
				Confidence:      r.Confidence,
				DetectionMethod: detect.DetectionMethod(r.DetectionMethod),
				CWE:             r.CWE,
				OWASP:           r.OWASP,
				MatchedText:     r.MatchedText,
			})
		}
	}
	return patterns.Aggregate(matches), nil
}

// runCheck evaluates enforce's six gates over the stored detection set and
// rolls them up under the configured policy.
func runCheck(ctx context.Context, cfg *config.Config, args []string) error {
	var policyMode string
	if _, err := parseFlags("check", args, func(fs *flag.FlagSet) {
		fs.StringVar(&policyMode, "policy", cfg.Enforcement.PolicyMode, "Threshold|AllMustPass|AnyMayFail")
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

	prevResults, err := handles.Enforcement.LatestGateResults(ctx)
	if err != nil {
		return fmt.Errorf("latest gate results: %w", err)
	}
	var previousScore float64
	for _, r := range prevResults {
		if r.Gate == "health-trend" {
			previousScore = r.Score
		}
	}

	in := enforce.GateInput{
		Aggregates:        aggregates,
		Violations:        violations,
		TestCoverage:      cfg.Enforcement.TestCoverageMinimum,
		CoverageThreshold: cfg.Enforcement.TestCoverageMinimum,
		PreviousScore:     previousScore,
	}
	in.CurrentScore = currentScore(in)

	results := enforce.EvaluateGates(in)

	policy := enforce.Policy{Mode: enforce.Mode(policyMode), ScoreThreshold: cfg.Enforcement.ScoreThreshold}
	decision := enforce.Apply(policy, results)

	for _, r := range results {
		status := "PASS"
		if !r.Pass {
			status = "FAIL"
		}
		fmt.Printf("  [%s] %-22s score=%.2f  %s\n", status, r.Gate, r.Score, r.Summary)
	}
	fmt.Printf("overall: score=%.2f pass=%t (policy=%s)\n", decision.OverallScore, decision.Pass, policy.Mode)

	if err := persistCheckResults(ctx, handles, results, violations); err != nil {
		return err
	}
	if !decision.Pass {
		return fmt.Errorf("policy gate failed")
	}
	return nil
}

// currentScore derives the health-trend gate's input from the other five
// gates' mean, since CurrentScore must be computed before HealthTrendGate
// itself runs (EvaluateGates runs gates in a fixed order, health-trend last).
func currentScore(in enforce.GateInput) float64 {
	probe := enforce.EvaluateGates(enforce.GateInput{
		Aggregates:        in.Aggregates,
		Violations:        in.Violations,
		Constraints:       in.Constraints,
		TestCoverage:      in.TestCoverage,
		CoverageThreshold: in.CoverageThreshold,
	})
	var sum float64
	var n int
	for _, r := range probe {
		if r.Gate == "health-trend" {
			continue
		}
		sum += r.Score
		n++
	}
	if n == 0 {
		return 1.0
	}
	return sum / float64(n)
}

func persistCheckResults(ctx context.Context, handles driftstorage.Handles, results []enforce.GateResult, violations []enforce.Violation) error {
	for _, r := range results {
		rec := driftstorage.GateResultRecord{Gate: r.Gate, Pass: r.Pass, Score: r.Score, Summary: r.Summary}
		if err := handles.Writer.Enqueue(driftstorage.InsertGateResultCommand(rec)); err != nil {
			return fmt.Errorf("enqueue gate result: %w", err)
		}
	}
	recs := make([]driftstorage.ViolationRecord, 0, len(violations))
	for _, v := range violations {
		recs = append(recs, driftstorage.ViolationRecord{
			ID:         v.ID,
			RuleID:     v.RuleID,
			Path:       v.Path,
			Severity:   string(v.Severity),
			Message:    v.Message,
			QuickFix:   v.QuickFix,
			Suppressed: v.Suppressed,
			IsNew:      v.IsNew,
		})
	}
	if len(recs) > 0 {
		if err := handles.Writer.Enqueue(driftstorage.InsertViolationsCommand(recs)); err != nil {
			return fmt.Errorf("enqueue violations: %w", err)
		}
	}
	return handles.Writer.Flush(ctx)
}
