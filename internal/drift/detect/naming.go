package detect

import (
	"fmt"
	"strings"
	"sync"
)

// namingStyle classifies an identifier's casing convention.
type namingStyle string

const (
	styleCamelCase namingStyle = "camelCase"
	stylePascalCase namingStyle = "PascalCase"
	styleSnakeCase namingStyle = "snake_case"
	styleUnknown   namingStyle = "unknown"
)

func classifyStyle(name string) namingStyle {
	if name == "" {
		return styleUnknown
	}
	if strings.Contains(name, "_") {
		return styleSnakeCase
	}
	r := rune(name[0])
	switch {
	case r >= 'A' && r <= 'Z':
		return stylePascalCase
	case r >= 'a' && r <= 'z':
		return styleCamelCase
	default:
		return styleUnknown
	}
}

// NamingConventionHandler learns the dominant function-naming style across a
// batch (pass 1), then flags functions using a minority style as a
// MethodLearningDeviation finding (pass 2). Mirrors spec.md §4.7's example
// of a codebase that's 95% camelCase flagging the 5% snake_case outliers,
// rather than hardcoding "camelCase is correct" up front.
type NamingConventionHandler struct {
	mu     sync.Mutex
	counts map[namingStyle]int
}

// NewNamingConventionHandler returns a ready-to-use handler.
func NewNamingConventionHandler() *NamingConventionHandler {
	return &NamingConventionHandler{counts: make(map[namingStyle]int)}
}

func (h *NamingConventionHandler) Name() string { return "naming_convention" }

func (h *NamingConventionHandler) Observe(ctx DetectionContext) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, fn := range ctx.Parse.Functions {
		h.counts[classifyStyle(fn.Name)]++
	}
}

// dominant returns the most-observed style and whether enough samples exist
// to trust the result. Below 20 observed functions the signal is too thin to
// call anything a deviation, so Emit stays silent.
func (h *NamingConventionHandler) dominant() (namingStyle, int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var total int
	var best namingStyle
	var bestCount int
	for style, count := range h.counts {
		total += count
		if count > bestCount {
			best, bestCount = style, count
		}
	}
	return best, total, total >= 20
}

func (h *NamingConventionHandler) Emit(ctx DetectionContext) []PatternMatch {
	dominant, total, ready := h.dominant()
	if !ready || total == 0 {
		return nil
	}

	var out []PatternMatch
	for _, fn := range ctx.Parse.Functions {
		style := classifyStyle(fn.Name)
		if style == styleUnknown || style == dominant {
			continue
		}
		out = append(out, PatternMatch{
			File:            ctx.Path,
			Line:            fn.StartLine,
			PatternID:       mustPatternID(CategoryStyling, "naming_deviation"),
			Category:        CategoryStyling,
			Confidence:      0.7,
			DetectionMethod: MethodLearningDeviation,
			MatchedText:     fmt.Sprintf("%s uses %s, dominant convention is %s", fn.Name, style, dominant),
		})
	}
	return out
}

// RegisterNamingConvention wires a fresh NamingConventionHandler into r,
// scoped to languages where function names are a meaningful style signal.
func RegisterNamingConvention(r *VisitorRegistry, languages []string) {
	r.RegisterLearningHandler(languages, NewNamingConventionHandler())
}
