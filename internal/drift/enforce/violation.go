// Package enforce evaluates aggregated pattern intelligence against rules
// and gates, aggregates the results under a policy, and reports them.
package enforce

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/driftlabs/driftcortex/internal/drift/patterns"
)

// Severity is a violation's urgency.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Violation is one rule firing against one location.
type Violation struct {
	ID             string
	RuleID         string
	Path           string
	Line           int
	Severity       Severity
	Message        string
	QuickFix       string
	IsNew          bool
	Suppressed     bool
}

// Rule maps an aggregated pattern into a Violation when its tier/score
// crosses a threshold.
type Rule struct {
	ID          string
	Severity    Severity
	Message     string
	QuickFix    string
	Applies     func(patterns.Aggregated) bool
}

// suppressMarker matches an inline suppression comment, e.g.
// "// driftcortex:ignore rule-id" on the violating line.
var suppressMarker = regexp.MustCompile(`driftcortex:ignore(?:\s+([\w.-]+))?`)

// SuppressedLines indexes, per file, which lines carry an inline
// suppression marker (and for which rule id, if scoped). Built once per
// scan via ScanSuppressions and passed into Evaluate.
type SuppressedLines map[string]map[int]string

// ScanSuppressions indexes one file's raw source lines (1-indexed) for
// inline suppression markers into dest, creating dest if nil, and returns
// the (possibly newly allocated) map. Callers fold every scanned file's
// lines into the same SuppressedLines before calling Evaluate.
func ScanSuppressions(dest SuppressedLines, path string, lines []string) SuppressedLines {
	var perLine map[int]string
	for i, line := range lines {
		if m := suppressMarker.FindStringSubmatch(line); m != nil {
			if perLine == nil {
				perLine = make(map[int]string)
			}
			perLine[i+1] = m[1] // empty string means "suppress every rule"
		}
	}
	if perLine == nil {
		return dest
	}
	if dest == nil {
		dest = make(SuppressedLines)
	}
	dest[path] = perLine
	return dest
}

// Evaluate runs every rule against every aggregated pattern, producing a
// deterministic, sorted Violation list. baselineIDs marks violation ids seen
// in a prior run (IsNew = !baseline.contains(id)); suppressed marks lines
// carrying an inline suppression comment. Evaluate is a pure function of its
// inputs — idempotent given the same aggregates, baseline, and suppression
// index.
func Evaluate(rules []Rule, aggregates []patterns.Aggregated, baselineIDs map[string]bool, suppressed SuppressedLines) []Violation {
	var out []Violation
	for _, rule := range rules {
		for _, agg := range aggregates {
			if !rule.Applies(agg) {
				continue
			}
			for _, loc := range agg.Locations {
				id := violationID(rule.ID, loc.File, loc.Line)
				v := Violation{
					ID:       id,
					RuleID:   rule.ID,
					Path:     loc.File,
					Line:     loc.Line,
					Severity: rule.Severity,
					Message:  rule.Message,
					QuickFix: rule.QuickFix,
					IsNew:    !baselineIDs[id],
				}
				if scoped, ok := suppressed[loc.File][loc.Line]; ok {
					if scoped == "" || strings.EqualFold(scoped, rule.ID) {
						v.Suppressed = true
					}
				}
				out = append(out, v)
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].RuleID < out[j].RuleID
	})
	return out
}

func violationID(ruleID, path string, line int) string {
	return ruleID + "@" + path + ":" + strconv.Itoa(line)
}
