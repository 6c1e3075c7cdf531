package detect

import (
	"regexp"
	"time"

	derr "github.com/driftlabs/driftcortex/internal/errors"
)

// DefaultRegexTimeout bounds one pattern's evaluation against one string,
// per spec.md §5's "Parse and regex operations honor a per-call timeout
// (default ~2s)".
const DefaultRegexTimeout = 2 * time.Second

// CompiledPattern pairs a precompiled regexp with the metadata a detector
// needs to turn a match into a PatternMatch.
type CompiledPattern struct {
	ID      string
	Regex   *regexp.Regexp
	CWE     string
	OWASP   string
	Timeout time.Duration
}

type regexResult struct {
	locs [][]int
}

// FindAllTimeout runs re.FindAllStringSubmatchIndex against s under a
// timeout, returning derr.RegexTimeout if the match doesn't complete in
// time. Go's regexp engine is already guaranteed-linear (RE2-derived, no
// catastrophic backtracking), so this timeout is a defense against
// pathologically long inputs rather than adversarial patterns — but the
// contract ("must not hang on adversarial inputs") is honored either way.
func FindAllTimeout(re *regexp.Regexp, s string, timeout time.Duration) ([][]int, error) {
	if timeout <= 0 {
		timeout = DefaultRegexTimeout
	}

	done := make(chan regexResult, 1)
	go func() {
		done <- regexResult{locs: re.FindAllStringSubmatchIndex(s, -1)}
	}()

	select {
	case r := <-done:
		return r.locs, nil
	case <-time.After(timeout):
		return nil, derr.RegexTimeout(re.String())
	}
}

// ScanStrings applies every pattern to every string in texts (typically a
// ParseResult's extracted string literals plus raw source lines), returning
// one PatternMatch per match found before any pattern's timeout elapses.
// A pattern that times out against one string is skipped for that string
// only; other patterns and other strings still run.
func ScanStrings(category Category, patterns []CompiledPattern, texts []string, lineOf func(textIndex int) int) []PatternMatch {
	var out []PatternMatch
	for ti, text := range texts {
		for _, p := range patterns {
			locs, err := FindAllTimeout(p.Regex, text, p.Timeout)
			if err != nil {
				continue
			}
			for _, loc := range locs {
				out = append(out, PatternMatch{
					Line:            lineOf(ti),
					PatternID:       p.ID,
					Category:        category,
					Confidence:      1.0,
					DetectionMethod: MethodStringRegex,
					CWE:             p.CWE,
					OWASP:           p.OWASP,
					MatchedText:     text[loc[0]:loc[1]],
				})
			}
		}
	}
	return out
}
