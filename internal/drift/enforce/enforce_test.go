package enforce

import (
	"strings"
	"testing"
	"time"

	"github.com/driftlabs/driftcortex/internal/drift/detect"
	"github.com/driftlabs/driftcortex/internal/drift/patterns"
	"github.com/driftlabs/driftcortex/internal/drift/taint"
)

func secretRule() Rule {
	return Rule{
		ID:       "security.hardcoded_secret",
		Severity: SeverityCritical,
		Message:  "hardcoded secret detected",
		QuickFix: "move to environment variable or secrets manager",
		Applies: func(a patterns.Aggregated) bool {
			return a.Category == detect.CategorySecurity
		},
	}
}

func TestEvaluateIsDeterministicAndSorted(t *testing.T) {
	aggregates := []patterns.Aggregated{
		{
			PatternID: "security.hardcoded_secret",
			Category:  detect.CategorySecurity,
			Locations: []patterns.Location{
				{File: "z.go", Line: 3},
				{File: "a.go", Line: 9},
				{File: "a.go", Line: 1},
			},
		},
	}

	v1 := Evaluate([]Rule{secretRule()}, aggregates, nil, nil)
	v2 := Evaluate([]Rule{secretRule()}, aggregates, nil, nil)

	if len(v1) != 3 {
		t.Fatalf("expected 3 violations, got %d", len(v1))
	}
	for i := range v1 {
		if v1[i] != v2[i] {
			t.Fatalf("Evaluate is not deterministic: run1[%d]=%+v run2[%d]=%+v", i, v1[i], i, v2[i])
		}
	}
	if v1[0].Path != "a.go" || v1[0].Line != 1 {
		t.Fatalf("expected sorted-first violation a.go:1, got %s:%d", v1[0].Path, v1[0].Line)
	}
	if v1[2].Path != "z.go" {
		t.Fatalf("expected z.go last, got %s", v1[2].Path)
	}
}

func TestEvaluateMarksIsNewFromBaseline(t *testing.T) {
	aggregates := []patterns.Aggregated{
		{
			PatternID: "security.hardcoded_secret",
			Category:  detect.CategorySecurity,
			Locations: []patterns.Location{{File: "a.go", Line: 1}},
		},
	}
	v := Evaluate([]Rule{secretRule()}, aggregates, nil, nil)
	if !v[0].IsNew {
		t.Fatal("expected IsNew=true with no baseline")
	}

	baseline := map[string]bool{v[0].ID: true}
	v2 := Evaluate([]Rule{secretRule()}, aggregates, baseline, nil)
	if v2[0].IsNew {
		t.Fatal("expected IsNew=false once the id is in baseline")
	}
}

func TestEvaluateHonorsInlineSuppression(t *testing.T) {
	aggregates := []patterns.Aggregated{
		{
			PatternID: "security.hardcoded_secret",
			Category:  detect.CategorySecurity,
			Locations: []patterns.Location{{File: "a.go", Line: 2}},
		},
	}
	lines := []string{
		`const x = 1`,
		`const key = "sk_live_xxx" // driftcortex:ignore security.hardcoded_secret`,
	}
	suppressed := ScanSuppressions(nil, "a.go", lines)

	v := Evaluate([]Rule{secretRule()}, aggregates, nil, suppressed)
	if !v[0].Suppressed {
		t.Fatal("expected the violation on the marked line to be suppressed")
	}
}

func TestGatesPassOnCleanInput(t *testing.T) {
	in := GateInput{
		CoverageThreshold: 0.8,
		TestCoverage:      0.9,
		CurrentScore:      0.95,
		PreviousScore:     0.9,
	}
	results := EvaluateGates(in)
	if len(results) != len(AllGates) {
		t.Fatalf("expected %d gate results, got %d", len(AllGates), len(results))
	}
	for _, r := range results {
		if !r.Pass {
			t.Fatalf("expected gate %q to pass on clean input, summary=%q", r.Gate, r.Summary)
		}
	}
}

func TestSecurityBoundariesGateFailsOnUnsuppressedViolation(t *testing.T) {
	in := GateInput{
		Aggregates: []patterns.Aggregated{{PatternID: "security.x", Category: detect.CategorySecurity}},
		Violations: []Violation{{RuleID: "security.hardcoded_secret", Suppressed: false}},
	}
	r := SecurityBoundariesGate(in)
	if r.Pass {
		t.Fatal("expected security-boundaries gate to fail with an unsuppressed security violation")
	}
}

func TestSecurityBoundariesGatePassesWhenSuppressed(t *testing.T) {
	in := GateInput{
		Aggregates: []patterns.Aggregated{{PatternID: "security.x", Category: detect.CategorySecurity}},
		Violations: []Violation{{RuleID: "security.hardcoded_secret", Suppressed: true}},
	}
	r := SecurityBoundariesGate(in)
	if !r.Pass {
		t.Fatal("expected security-boundaries gate to pass when the only violation is suppressed")
	}
}

func TestHealthTrendGateFailsOnRegression(t *testing.T) {
	r := HealthTrendGate(GateInput{CurrentScore: 0.5, PreviousScore: 0.8})
	if r.Pass {
		t.Fatal("expected health-trend gate to fail on a score regression")
	}
}

func TestPolicyModes(t *testing.T) {
	results := []GateResult{
		{Gate: "a", Pass: true, Score: 1.0},
		{Gate: "b", Pass: false, Score: 0.0},
	}

	if r := Apply(Policy{Mode: ModeAllMustPass}, results); r.Pass {
		t.Fatal("AllMustPass should fail when any gate fails")
	}
	if r := Apply(Policy{Mode: ModeAnyMayFail}, results); !r.Pass {
		t.Fatal("AnyMayFail should pass when at least one gate passes")
	}
	if r := Apply(Policy{Mode: ModeThreshold, ScoreThreshold: 0.4}, results); !r.Pass {
		t.Fatal("Threshold mode should pass when overall score clears the threshold")
	}
	if r := Apply(Policy{Mode: ModeThreshold, ScoreThreshold: 0.9}, results); r.Pass {
		t.Fatal("Threshold mode should fail when overall score misses the threshold")
	}
}

func TestPolicyRequiredGatesOverridesMode(t *testing.T) {
	results := []GateResult{
		{Gate: "security-boundaries", Pass: false, Score: 0.0},
		{Gate: "test-coverage", Pass: true, Score: 1.0},
	}
	r := Apply(Policy{Mode: ModeAnyMayFail, RequiredGates: []string{"security-boundaries"}}, results)
	if r.Pass {
		t.Fatal("a failing required gate must fail the policy even under AnyMayFail")
	}
}

func TestReportJSONIsDeterministic(t *testing.T) {
	result := PolicyResult{OverallScore: 0.8, Pass: true, Gates: []GateResult{{Gate: "x", Pass: true, Score: 1}}}
	violations := []Violation{{ID: "v1", RuleID: "r1", Path: "a.go", Line: 1, Severity: SeverityHigh, Message: "m"}}

	out1, err := ReportJSON(result, violations)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out2, err := ReportJSON(result, violations)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out1) != string(out2) {
		t.Fatal("ReportJSON is not byte-identical across repeated invocations")
	}
	if !strings.Contains(string(out1), `"rule_id": "r1"`) {
		t.Fatalf("expected rule_id in output, got %s", out1)
	}
}

func TestReportSARIFShapeAndDeterminism(t *testing.T) {
	violations := []Violation{
		{ID: "v1", RuleID: "security.hardcoded_secret", Path: "a.go", Line: 4, Severity: SeverityCritical, Message: "m"},
	}
	out1, err := ReportSARIF("driftcortex", "0.1.0", violations)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out2, _ := ReportSARIF("driftcortex", "0.1.0", violations)
	if string(out1) != string(out2) {
		t.Fatal("ReportSARIF is not byte-identical across repeated invocations")
	}
	if !strings.Contains(string(out1), `"$schema"`) || !strings.Contains(string(out1), `"2.1.0"`) {
		t.Fatalf("expected SARIF 2.1.0 envelope, got %s", out1)
	}
	if !strings.Contains(string(out1), `"ruleId": "security.hardcoded_secret"`) {
		t.Fatalf("expected ruleId in results, got %s", out1)
	}
}

func TestReportTaintSARIFIncludesCodeFlowAndMarksSanitizedAsNote(t *testing.T) {
	flows := []taint.TaintFlow{
		{
			SourceLabel: taint.LabelEnvironment,
			SourceCallee: "os.Getenv",
			SourceLine:  1,
			SinkCallee:  "sql.Query",
			SinkType:    taint.SinkSQLInjection,
			SinkLine:    2,
			CWE:         "CWE-89",
		},
		{
			SourceLabel:       taint.LabelEnvironment,
			SourceCallee:      "os.Getenv",
			SourceLine:        1,
			SinkCallee:        "sql.Query",
			SinkType:          taint.SinkSQLInjection,
			SinkLine:          3,
			SanitizersApplied: []string{"sql.EscapeString"},
			IsSanitized:       true,
			CWE:               "CWE-89",
		},
	}

	out, err := ReportTaintSARIF("driftcortex", "0.1.0", "handler.go", flows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(out), `"codeFlows"`) {
		t.Fatalf("expected a codeFlows entry, got %s", out)
	}
	if !strings.Contains(string(out), `"note"`) {
		t.Fatalf("expected the sanitized flow reported at note level, got %s", out)
	}
	if !strings.Contains(string(out), `"error"`) {
		t.Fatalf("expected the live flow reported at error level, got %s", out)
	}
}

func TestAuditGateResultsOneEntryPerGate(t *testing.T) {
	results := []GateResult{{Gate: "a", Summary: "ok"}, {Gate: "b", Summary: "also ok"}}
	entries := AuditGateResults("run-1", "driftctl", results)
	if len(entries) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(entries))
	}
	rec := entries[0].ToRecord(time.Unix(0, 0))
	if rec.RunID != "run-1" || rec.Action != "gate_evaluated" {
		t.Fatalf("unexpected audit record: %+v", rec)
	}
	if rec.ID == "" {
		t.Fatal("expected a generated audit id")
	}
}
