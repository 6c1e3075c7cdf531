package enforce

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/pretty"

	"github.com/driftlabs/driftcortex/internal/drift/taint"
)

// SARIF 2.1.0 subset: $schema, version, runs[].tool.driver,
// results[].ruleId/level/message/locations, taxonomies for CWE+OWASP, per
// spec.md §4.9.
type sarifLog struct {
	Schema string     `json:"$schema"`
	Version string    `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool       sarifTool        `json:"tool"`
	Results    []sarifResult    `json:"results"`
	Taxonomies []sarifTaxonomy  `json:"taxonomies,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri,omitempty"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Help sarifRuleHelp   `json:"help,omitempty"`
}

type sarifRuleHelp struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID    string           `json:"ruleId"`
	Level     string           `json:"level"`
	Message   sarifMessage     `json:"message"`
	Locations []sarifLocation  `json:"locations"`
	Suppressions []sarifSuppression `json:"suppressions,omitempty"`
	CodeFlows []sarifCodeFlow  `json:"codeFlows,omitempty"`
}

// sarifCodeFlow carries a taint flow's source-to-sink path as one thread of
// locations, per the SARIF codeFlows vocabulary.
type sarifCodeFlow struct {
	ThreadFlows []sarifThreadFlow `json:"threadFlows"`
}

type sarifThreadFlow struct {
	Locations []sarifThreadFlowLocation `json:"locations"`
}

type sarifThreadFlowLocation struct {
	Location sarifLocation `json:"location"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
}

type sarifSuppression struct {
	Kind string `json:"kind"`
}

type sarifTaxonomy struct {
	Name string `json:"name"`
}

// sarifLevel maps a Violation's Severity to SARIF's level vocabulary
// (note, warning, error).
func sarifLevel(sev Severity) string {
	switch sev {
	case SeverityCritical, SeverityHigh:
		return "error"
	case SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}

// ReportSARIF renders violations as a SARIF 2.1.0 log. Pure function of its
// inputs: repeated invocation on an identical, already-sorted violation
// list produces byte-identical output.
func ReportSARIF(toolName, toolVersion string, violations []Violation) ([]byte, error) {
	ruleSeen := make(map[string]struct{})
	rules := []sarifRule{}
	results := []sarifResult{}

	for _, v := range violations {
		if _, ok := ruleSeen[v.RuleID]; !ok {
			ruleSeen[v.RuleID] = struct{}{}
			rules = append(rules, sarifRule{
				ID:   v.RuleID,
				Name: v.RuleID,
				Help: sarifRuleHelp{Text: v.Message},
			})
		}

		result := sarifResult{
			RuleID:  v.RuleID,
			Level:   sarifLevel(v.Severity),
			Message: sarifMessage{Text: v.Message},
			Locations: []sarifLocation{{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{URI: v.Path},
					Region:           sarifRegion{StartLine: v.Line},
				},
			}},
		}
		if v.Suppressed {
			result.Suppressions = []sarifSuppression{{Kind: "inSource"}}
		}
		results = append(results, result)
	}

	log := sarifLog{
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json",
		Version: "2.1.0",
		Runs: []sarifRun{{
			Tool: sarifTool{Driver: sarifDriver{
				Name:    toolName,
				Version: toolVersion,
				Rules:   rules,
			}},
			Results: results,
			Taxonomies: []sarifTaxonomy{
				{Name: "CWE"},
				{Name: "OWASP"},
			},
		}},
	}

	raw, err := json.Marshal(log)
	if err != nil {
		return nil, err
	}
	return pretty.PrettyOptions(raw, &pretty.Options{Indent: "  ", SortKeys: false}), nil
}

// taintLevel maps a taint flow to a SARIF level: a live flow is an error, a
// sanitized one is a note kept for audit visibility rather than suppressed
// outright (spec.md §4.10 requires sanitized flows to still be reported).
func taintLevel(f taint.TaintFlow) string {
	if f.IsSanitized {
		return "note"
	}
	return "error"
}

// ReportTaintSARIF renders taint flows as a SARIF 2.1.0 log, one result per
// flow with a codeFlows entry threading source → hops → sink. path
// identifies the file the flows were extracted from, since TaintFlow itself
// carries only line numbers local to one function body.
func ReportTaintSARIF(toolName, toolVersion, path string, flows []taint.TaintFlow) ([]byte, error) {
	ruleSeen := make(map[string]struct{})
	rules := []sarifRule{}
	results := []sarifResult{}

	for _, f := range flows {
		ruleID := string(f.SinkType)
		if _, ok := ruleSeen[ruleID]; !ok {
			ruleSeen[ruleID] = struct{}{}
			rules = append(rules, sarifRule{
				ID:   ruleID,
				Name: fmt.Sprintf("taint/%s", f.SinkType),
				Help: sarifRuleHelp{Text: fmt.Sprintf("%s (%s)", f.SinkType, f.CWE)},
			})
		}

		var threadLocs []sarifThreadFlowLocation
		threadLocs = append(threadLocs, sarifThreadFlowLocation{Location: sarifLocationAt(path, f.SourceLine)})
		for _, hop := range f.Hops {
			threadLocs = append(threadLocs, sarifThreadFlowLocation{Location: sarifLocationAt(path, hop.Line)})
		}
		threadLocs = append(threadLocs, sarifThreadFlowLocation{Location: sarifLocationAt(path, f.SinkLine)})

		msg := fmt.Sprintf("%s flows from %s into %s", f.SourceLabel, f.SourceCallee, f.SinkCallee)
		if f.IsSanitized {
			msg = fmt.Sprintf("%s (sanitized by %v)", msg, f.SanitizersApplied)
		}

		results = append(results, sarifResult{
			RuleID:  ruleID,
			Level:   taintLevel(f),
			Message: sarifMessage{Text: msg},
			Locations: []sarifLocation{sarifLocationAt(path, f.SinkLine)},
			CodeFlows: []sarifCodeFlow{{
				ThreadFlows: []sarifThreadFlow{{Locations: threadLocs}},
			}},
		})
	}

	log := sarifLog{
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json",
		Version: "2.1.0",
		Runs: []sarifRun{{
			Tool: sarifTool{Driver: sarifDriver{
				Name:    toolName,
				Version: toolVersion,
				Rules:   rules,
			}},
			Results: results,
			Taxonomies: []sarifTaxonomy{
				{Name: "CWE"},
			},
		}},
	}

	raw, err := json.Marshal(log)
	if err != nil {
		return nil, err
	}
	return pretty.PrettyOptions(raw, &pretty.Options{Indent: "  ", SortKeys: false}), nil
}

func sarifLocationAt(path string, line int) sarifLocation {
	return sarifLocation{
		PhysicalLocation: sarifPhysicalLocation{
			ArtifactLocation: sarifArtifactLocation{URI: path},
			Region:           sarifRegion{StartLine: line},
		},
	}
}
