package secondary

import (
	"regexp"
	"strings"
)

// CryptoCategory classifies a weak-cryptography finding.
type CryptoCategory string

const (
	CategoryWeakHash        CryptoCategory = "weak_hash"
	CategoryDeprecatedCipher CryptoCategory = "deprecated_cipher"
	CategoryEcbMode         CryptoCategory = "ecb_mode"
	CategoryWeakRandom      CryptoCategory = "weak_random"
)

type cryptoRule struct {
	category    CryptoCategory
	description string
	re          *regexp.Regexp
	cwe         int
	owasp       string
	remediation string
	baseConfidence float64
}

var cryptoRules = []cryptoRule{
	{
		category:    CategoryWeakHash,
		description: "MD5 is cryptographically broken and unsuitable for integrity or password hashing",
		re:          regexp.MustCompile(`(?i)\b(?:hashlib\.md5|md5\.(?:New|Sum)|MD5\()`),
		cwe:         327,
		owasp:       "A02:2021-Cryptographic Failures",
		remediation: "use SHA-256 or a password hash (bcrypt/scrypt/argon2) instead of MD5",
		baseConfidence: 0.9,
	},
	{
		category:    CategoryWeakHash,
		description: "SHA1 is deprecated for security purposes (collision attacks)",
		re:          regexp.MustCompile(`(?i)\b(?:hashlib\.sha1|sha1\.(?:New|Sum)|SHA1\()`),
		cwe:         327,
		owasp:       "A02:2021-Cryptographic Failures",
		remediation: "use SHA-256 or better",
		baseConfidence: 0.85,
	},
	{
		category:    CategoryDeprecatedCipher,
		description: "DES has a 56-bit key and is trivially brute-forceable",
		re:          regexp.MustCompile(`(?i)\bDES\.(?:new|New)\(|crypto/des`),
		cwe:         327,
		owasp:       "A02:2021-Cryptographic Failures",
		remediation: "use AES-256-GCM",
		baseConfidence: 0.9,
	},
	{
		category:    CategoryDeprecatedCipher,
		description: "RC4 is a broken stream cipher",
		re:          regexp.MustCompile(`(?i)\bRC4\.(?:new|New)\(|crypto/rc4`),
		cwe:         327,
		owasp:       "A02:2021-Cryptographic Failures",
		remediation: "use AES-256-GCM",
		baseConfidence: 0.9,
	},
	{
		category:    CategoryEcbMode,
		description: "ECB mode leaks plaintext structure (identical blocks encrypt identically)",
		re:          regexp.MustCompile(`(?i)MODE_ECB|cipher\.NewECB|aes\.NewCipher\(.*\)\s*//\s*ecb`),
		cwe:         327,
		owasp:       "A02:2021-Cryptographic Failures",
		remediation: "use an authenticated mode such as GCM",
		baseConfidence: 0.8,
	},
	{
		category:    CategoryWeakRandom,
		description: "math/rand (or language equivalent) is not cryptographically secure",
		re:          regexp.MustCompile(`(?i)\bmath/rand\b|\brandom\.random\(\)|\bMath\.random\(\)`),
		cwe:         338,
		owasp:       "A02:2021-Cryptographic Failures",
		remediation: "use crypto/rand or the platform's CSPRNG",
		baseConfidence: 0.6,
	},
}

// CryptoFinding is one weak-cryptography detection.
type CryptoFinding struct {
	File        string
	Line        int
	Category    CryptoCategory
	Description string
	Code        string
	Confidence  float64
	CWE         int
	OWASP       string
	Remediation string
	Language    string
}

// DetectCrypto scans content line-by-line against cryptoRules. Confidence is
// left at zero here; call ComputeConfidenceBatch to fill it in, mirroring
// the two-phase detect-then-score shape used elsewhere in the Drift engine
// (detect.PatternMatch → patterns.Aggregate).
func DetectCrypto(content, file, language string) []CryptoFinding {
	var out []CryptoFinding
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		for _, rule := range cryptoRules {
			if rule.re.MatchString(line) {
				out = append(out, CryptoFinding{
					File:        file,
					Line:        i + 1,
					Category:    rule.category,
					Description: rule.description,
					Code:        trimCode(line),
					CWE:         rule.cwe,
					OWASP:       rule.owasp,
					Remediation: rule.remediation,
					Language:    language,
				})
			}
		}
	}
	return out
}

// ComputeConfidenceBatch fills in Confidence for every finding, in place.
// Confidence combines the rule's base severity with a small per-category
// adjustment: ECB-mode findings are raised slightly (misuse is unambiguous
// from the mode constant alone, unlike a hash call which could in principle
// be non-security use), matching the reference implementation's intent that
// confidence vary by severity rather than being a flat per-rule constant.
func ComputeConfidenceBatch(findings []CryptoFinding) {
	for i := range findings {
		f := &findings[i]
		for _, rule := range cryptoRules {
			if rule.category == f.Category && rule.description == f.Description {
				f.Confidence = rule.baseConfidence
				break
			}
		}
		if f.Category == CategoryEcbMode {
			f.Confidence += 0.05
			if f.Confidence > 1.0 {
				f.Confidence = 1.0
			}
		}
	}
}

func trimCode(line string) string {
	const maxLen = 120
	trimmed := strings.TrimSpace(line)
	if len(trimmed) > maxLen {
		trimmed = trimmed[:maxLen]
	}
	return trimmed
}
