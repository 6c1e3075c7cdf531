package secondary

import (
	"regexp"
	"sort"
)

// primitivePattern names one framework primitive (data-fetching or
// state-management call) a local API might be wrapping, and the regex that
// spots a call to it in source text.
type primitivePattern struct {
	name string
	re   *regexp.Regexp
}

var wrapperPrimitives = []primitivePattern{
	{"fetch", regexp.MustCompile(`\bfetch\s*\(`)},
	{"axios", regexp.MustCompile(`\baxios\.(?:get|post|put|delete|patch|create)\s*\(`)},
	{"useState", regexp.MustCompile(`\buseState\s*\(`)},
	{"useEffect", regexp.MustCompile(`\buseEffect\s*\(`)},
	{"useContext", regexp.MustCompile(`\buseContext\s*\(`)},
	{"localStorage", regexp.MustCompile(`\blocalStorage\.(?:getItem|setItem)\s*\(`)},
	{"XMLHttpRequest", regexp.MustCompile(`\bnew\s+XMLHttpRequest\s*\(`)},
}

// FunctionSource is one function or hook's source text, pre-extracted from
// a file (the wrapper detector operates on text, not an AST — any parser
// layer that can hand it a function body qualifies).
type FunctionSource struct {
	Name       string
	File       string
	Line       int
	Body       string
	IsExported bool
	UsageCount int
}

// Wrapper is a local API detected to be wrapping one or more framework
// primitives, with the primitives it wraps and whether it composes more
// than one (a stronger signal the wrapper is load-bearing abstraction
// rather than an incidental call).
type Wrapper struct {
	Name              string
	File              string
	Line              int
	Category          string
	WrappedPrimitives []string
	IsMultiPrimitive  bool
	IsExported        bool
	UsageCount        int
}

// DetectWrappers scans every FunctionSource for wrapped primitives and
// returns one Wrapper per function that wraps at least one.
func DetectWrappers(sources []FunctionSource) []Wrapper {
	var out []Wrapper
	for _, fn := range sources {
		var wrapped []string
		for _, p := range wrapperPrimitives {
			if p.re.MatchString(fn.Body) {
				wrapped = append(wrapped, p.name)
			}
		}
		if len(wrapped) == 0 {
			continue
		}
		sort.Strings(wrapped)
		out = append(out, Wrapper{
			Name:              fn.Name,
			File:              fn.File,
			Line:              fn.Line,
			Category:          wrapperCategory(wrapped),
			WrappedPrimitives: wrapped,
			IsMultiPrimitive:  len(wrapped) > 1,
			IsExported:        fn.IsExported,
			UsageCount:        fn.UsageCount,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		return out[i].Line < out[j].Line
	})
	return out
}

func wrapperCategory(wrapped []string) string {
	hasFetch := false
	hasState := false
	for _, w := range wrapped {
		switch w {
		case "fetch", "axios", "XMLHttpRequest":
			hasFetch = true
		case "useState", "useEffect", "useContext", "localStorage":
			hasState = true
		}
	}
	switch {
	case hasFetch && hasState:
		return "data_hook"
	case hasFetch:
		return "api_client"
	case hasState:
		return "state_hook"
	default:
		return "wrapper"
	}
}

// ComputeConfidence scores a Wrapper's confidence that it is a genuine,
// load-bearing abstraction: a base signal for wrapping anything at all,
// a bonus for composing multiple primitives (the useUserData case — a
// hook that is itself composed of several wrapped primitives is a
// stronger signal than a one-line passthrough), a bonus for being
// exported (internal-only wrappers are weaker convention evidence), and a
// bonus that grows with observed usage, capped so that usage alone cannot
// dominate the score.
func ComputeConfidence(w Wrapper) float64 {
	confidence := 0.3 + 0.15*float64(min(len(w.WrappedPrimitives), 3))
	if w.IsMultiPrimitive {
		confidence += 0.2
	}
	if w.IsExported {
		confidence += 0.1
	}
	usageBonus := float64(w.UsageCount) * 0.02
	if usageBonus > 0.15 {
		usageBonus = 0.15
	}
	confidence += usageBonus

	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}
