package enforce

import (
	"encoding/json"

	"github.com/tidwall/pretty"
)

// jsonReport is the shape ReportJSON serializes. Field order here controls
// key order in the (already byte-stable) marshaled output.
type jsonReport struct {
	OverallScore float64           `json:"overall_score"`
	Pass         bool              `json:"pass"`
	Gates        []jsonGateResult  `json:"gates"`
	Violations   []jsonViolation   `json:"violations"`
}

type jsonGateResult struct {
	Gate    string  `json:"gate"`
	Pass    bool    `json:"pass"`
	Score   float64 `json:"score"`
	Summary string  `json:"summary"`
}

type jsonViolation struct {
	ID         string `json:"id"`
	RuleID     string `json:"rule_id"`
	Path       string `json:"path"`
	Line       int    `json:"line"`
	Severity   string `json:"severity"`
	Message    string `json:"message"`
	QuickFix   string `json:"quick_fix,omitempty"`
	IsNew      bool   `json:"is_new"`
	Suppressed bool   `json:"suppressed"`
}

// ReportJSON renders policy and violations as deterministic, indented JSON.
// It is a pure function of its inputs: repeated invocation on identical
// input produces byte-identical output (violations must already be sorted,
// which Evaluate guarantees).
func ReportJSON(result PolicyResult, violations []Violation) ([]byte, error) {
	report := jsonReport{
		OverallScore: result.OverallScore,
		Pass:         result.Pass,
	}
	for _, g := range result.Gates {
		report.Gates = append(report.Gates, jsonGateResult{
			Gate: g.Gate, Pass: g.Pass, Score: g.Score, Summary: g.Summary,
		})
	}
	for _, v := range violations {
		report.Violations = append(report.Violations, jsonViolation{
			ID: v.ID, RuleID: v.RuleID, Path: v.Path, Line: v.Line,
			Severity: string(v.Severity), Message: v.Message, QuickFix: v.QuickFix,
			IsNew: v.IsNew, Suppressed: v.Suppressed,
		})
	}

	raw, err := json.Marshal(report)
	if err != nil {
		return nil, err
	}
	return pretty.PrettyOptions(raw, &pretty.Options{Indent: "  ", SortKeys: false}), nil
}
