package detect

import (
	"regexp"
	"strings"
)

// secretPatterns generalizes infrastructure/redaction's secret-matching
// regexes from a logging redactor into detector findings: the same shapes
// that must never reach a log line are exactly the shapes that shouldn't be
// hardcoded in source.
var secretPatterns = []CompiledPattern{
	{ID: mustPatternID(CategorySecurity, "api_key"), Regex: regexp.MustCompile(`(?i)(api[_-]?key|apikey)["']?\s*[:=]\s*["']?[^"'\s,}]{8,}["']?`), CWE: "CWE-798", OWASP: "A07:2021"},
	{ID: mustPatternID(CategorySecurity, "generic_secret"), Regex: regexp.MustCompile(`(?i)(secret|token|auth)["']?\s*[:=]\s*["']?[^"'\s,}]{8,}["']?`), CWE: "CWE-798", OWASP: "A07:2021"},
	{ID: mustPatternID(CategorySecurity, "bearer_jwt"), Regex: regexp.MustCompile(`(?i)Bearer\s+[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`), CWE: "CWE-798", OWASP: "A07:2021"},
	{ID: mustPatternID(CategorySecurity, "hardcoded_password"), Regex: regexp.MustCompile(`(?i)password["']?\s*[:=]\s*["']?[^"'\s,}]{4,}["']?`), CWE: "CWE-259", OWASP: "A07:2021"},
	{ID: mustPatternID(CategorySecurity, "private_key"), Regex: regexp.MustCompile(`(?i)(private[_-]?key|privkey)["']?\s*[:=]\s*["']?[^"'\s,}]{8,}["']?`), CWE: "CWE-321", OWASP: "A02:2021"},
}

// HardcodedSecretDetector flags literal strings in source that look like
// embedded credentials, keyed to the security category.
func HardcodedSecretDetector(ctx DetectionContext) []PatternMatch {
	lines := strings.Split(string(ctx.Source), "\n")
	matches := ScanStrings(CategorySecurity, secretPatterns, lines, func(i int) int { return i + 1 })
	for i := range matches {
		matches[i].File = ctx.Path
	}
	return matches
}

// weakCryptoPatterns flags known-broken hash/cipher identifiers.
var weakCryptoPatterns = []CompiledPattern{
	{ID: mustPatternID(CategorySecurity, "weak_hash_md5"), Regex: regexp.MustCompile(`\bmd5\.(New|Sum)\b`), CWE: "CWE-327", OWASP: "A02:2021"},
	{ID: mustPatternID(CategorySecurity, "weak_hash_sha1"), Regex: regexp.MustCompile(`\bsha1\.(New|Sum)\b`), CWE: "CWE-327", OWASP: "A02:2021"},
	{ID: mustPatternID(CategorySecurity, "weak_cipher_des"), Regex: regexp.MustCompile(`\bdes\.(NewCipher|NewTripleDESCipher)\b`), CWE: "CWE-327", OWASP: "A02:2021"},
	{ID: mustPatternID(CategorySecurity, "ecb_mode"), Regex: regexp.MustCompile(`(?i)NewECBEncrypter|ECB`), CWE: "CWE-327", OWASP: "A02:2021"},
}

// WeakCryptoDetector flags references to cryptographic primitives with
// known weaknesses (part of the "crypto" secondary detector, exercised
// here as a regular file-level security detector since it needs no call
// graph).
func WeakCryptoDetector(ctx DetectionContext) []PatternMatch {
	lines := strings.Split(string(ctx.Source), "\n")
	matches := ScanStrings(CategorySecurity, weakCryptoPatterns, lines, func(i int) int { return i + 1 })
	for i := range matches {
		matches[i].File = ctx.Path
	}
	return matches
}

// MissingErrorHandlingDetector flags Go's most common error-gap: a call
// assigned to `_` where the function signature's last declared return is an
// error-shaped identifier. This is a string-regex approximation (a true AST
// visitor needs the grammar seam this package treats as opaque), scoped to
// Go by the caller's RegisterFileDetector languages argument.
var ignoredErrRe = regexp.MustCompile(`(?m)^\s*_\s*(?:,\s*_\s*)*=\s*[A-Za-z_][\w.]*\(`)

func MissingErrorHandlingDetector(ctx DetectionContext) []PatternMatch {
	var out []PatternMatch
	lines := strings.Split(string(ctx.Source), "\n")
	for i, line := range lines {
		if ignoredErrRe.MatchString(line) {
			out = append(out, PatternMatch{
				File:            ctx.Path,
				Line:            i + 1,
				PatternID:       mustPatternID(CategoryErrors, "ignored_error"),
				Category:        CategoryErrors,
				Confidence:      0.6,
				DetectionMethod: MethodStringRegex,
				CWE:             "CWE-252",
				MatchedText:     strings.TrimSpace(line),
			})
		}
	}
	return out
}

// unstructuredLogPatterns flags direct stdout/stderr writes in code paths
// that otherwise use a structured logger, a common drift signal once a
// codebase has standardized on zerolog/zap/logrus.
var unstructuredLogPatterns = []CompiledPattern{
	{ID: mustPatternID(CategoryLogging, "raw_println"), Regex: regexp.MustCompile(`\bfmt\.(Print|Println|Printf)\(`)},
}

// UnstructuredLoggingDetector flags fmt.Print* calls, which bypass whatever
// structured logger (zerolog/zap/logrus) the rest of the codebase uses.
func UnstructuredLoggingDetector(ctx DetectionContext) []PatternMatch {
	lines := strings.Split(string(ctx.Source), "\n")
	matches := ScanStrings(CategoryLogging, unstructuredLogPatterns, lines, func(i int) int { return i + 1 })
	for i := range matches {
		matches[i].File = ctx.Path
	}
	return matches
}

// RegisterBuiltins wires the built-in detectors above into r, scoped to the
// languages they're meaningful for.
func RegisterBuiltins(r *VisitorRegistry) {
	r.RegisterFileDetector(CategorySecurity, nil, HardcodedSecretDetector)
	r.RegisterFileDetector(CategorySecurity, nil, WeakCryptoDetector)
	r.RegisterFileDetector(CategoryErrors, []string{"go"}, MissingErrorHandlingDetector)
	r.RegisterFileDetector(CategoryLogging, []string{"go"}, UnstructuredLoggingDetector)
}
