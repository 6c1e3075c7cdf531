package secondary

import (
	"regexp"
	"sort"
	"strings"
)

// GeneID names one axis of stylistic "DNA" a codebase can vary along.
type GeneID string

const (
	GeneNaming           GeneID = "naming"
	GeneVariantHandling  GeneID = "variant_handling"
	GeneErrorHandling    GeneID = "error_handling"
	GeneConfig           GeneID = "config"
	GeneTesting          GeneID = "testing"
	GeneLogging          GeneID = "logging"
	GeneValidation       GeneID = "validation"
	GeneStateManagement  GeneID = "state_management"
	GeneAPIClient        GeneID = "api_client"
	GeneStyling          GeneID = "styling"
)

// GeneObservation is one file's raw extraction for a gene: the allele value
// it exhibits, or "" if the gene does not apply to this file at all (e.g. a
// file with no variant-handling import has no VariantHandling allele).
type GeneObservation struct {
	File  string
	Value string
}

// Allele is one value a gene has been observed to take, with its frequency
// among applicable files and the true count of distinct files backing it.
type Allele struct {
	Value     string
	Frequency float64
	FileCount int
}

// Gene is one extractor's built result: every allele observed, which one
// dominates, and how consistent the codebase is along this axis.
type Gene struct {
	ID          GeneID
	Name        string
	Description string
	Dominant    *Allele
	Alleles     []Allele
	Confidence  float64
	Consistency float64
	Exemplars   []string
}

// GeneExtractor extracts one gene's allele from a single file's content and
// builds the aggregate Gene from every file's observation.
type GeneExtractor interface {
	ID() GeneID
	Name() string
	Description() string
	ExtractFromFile(content, file string) GeneObservation
}

// BuildGene aggregates a set of per-file observations into a Gene. FileCount
// per allele is the true cardinality of the unique-file set backing it (a
// map keyed by file path), not a count-vs-file_count formula that can
// report a nonzero file count for zero applicable files.
func BuildGene(ex GeneExtractor, observations []GeneObservation) Gene {
	filesByValue := make(map[string]map[string]struct{})
	var order []string

	applicable := 0
	for _, obs := range observations {
		if obs.Value == "" {
			continue
		}
		applicable++
		if _, ok := filesByValue[obs.Value]; !ok {
			filesByValue[obs.Value] = make(map[string]struct{})
			order = append(order, obs.Value)
		}
		filesByValue[obs.Value][obs.File] = struct{}{}
	}

	var alleles []Allele
	for _, value := range order {
		files := filesByValue[value]
		freq := 0.0
		if applicable > 0 {
			freq = float64(len(files)) / float64(applicable)
		}
		alleles = append(alleles, Allele{
			Value:     value,
			Frequency: freq,
			FileCount: len(files),
		})
	}
	sort.Slice(alleles, func(i, j int) bool {
		if alleles[i].Frequency != alleles[j].Frequency {
			return alleles[i].Frequency > alleles[j].Frequency
		}
		return alleles[i].Value < alleles[j].Value
	})

	var dominant *Allele
	consistency := 1.0
	if len(alleles) > 0 {
		d := alleles[0]
		dominant = &d
		if len(alleles) > 1 {
			consistency = alleles[0].Frequency - alleles[1].Frequency
		}
	}

	confidence := 0.0
	if applicable > 0 {
		confidence = float64(applicable) / float64(applicable+10)
	}

	exemplars := make([]string, 0, 3)
	if dominant != nil {
		files := make([]string, 0, len(filesByValue[dominant.Value]))
		for f := range filesByValue[dominant.Value] {
			files = append(files, f)
		}
		sort.Strings(files)
		for i := 0; i < len(files) && i < 3; i++ {
			exemplars = append(exemplars, files[i])
		}
	}

	return Gene{
		ID:          ex.ID(),
		Name:        ex.Name(),
		Description: ex.Description(),
		Dominant:    dominant,
		Alleles:     alleles,
		Confidence:  confidence,
		Consistency: consistency,
		Exemplars:   exemplars,
	}
}

// GeneExtractorRegistry holds every built-in GeneExtractor, keyed by id.
type GeneExtractorRegistry struct {
	extractors map[GeneID]GeneExtractor
}

// WithAllExtractors returns a registry populated with every built-in gene
// extractor.
func WithAllExtractors() *GeneExtractorRegistry {
	r := &GeneExtractorRegistry{extractors: make(map[GeneID]GeneExtractor)}
	for _, ex := range []GeneExtractor{
		namingExtractor{},
		variantHandlingExtractor{},
		keywordExtractor{id: GeneErrorHandling, name: "Error Handling", description: "error propagation style",
			patterns: map[string]*regexp.Regexp{
				"exceptions":   regexp.MustCompile(`\btry\s*\{|\bcatch\s*\(`),
				"result_types": regexp.MustCompile(`\bResult<|\b,\s*err\s*:?=`),
			}},
		keywordExtractor{id: GeneConfig, name: "Configuration", description: "configuration loading style",
			patterns: map[string]*regexp.Regexp{
				"env_vars": regexp.MustCompile(`os\.Getenv|process\.env`),
				"yaml":     regexp.MustCompile(`\.ya?ml\b`),
				"dotenv":   regexp.MustCompile(`\.env\b`),
			}},
		keywordExtractor{id: GeneTesting, name: "Testing", description: "test assertion style",
			patterns: map[string]*regexp.Regexp{
				"table_driven": regexp.MustCompile(`\[\]struct\s*\{`),
				"assert_lib":   regexp.MustCompile(`\bassert\.|require\.`),
			}},
		keywordExtractor{id: GeneLogging, name: "Logging", description: "structured vs unstructured logging calls",
			patterns: map[string]*regexp.Regexp{
				"structured":   regexp.MustCompile(`zap\.|logrus\.|zerolog\.`),
				"unstructured": regexp.MustCompile(`console\.log|fmt\.Println`),
			}},
		keywordExtractor{id: GeneValidation, name: "Validation", description: "input validation style",
			patterns: map[string]*regexp.Regexp{
				"schema":  regexp.MustCompile(`zod\.|joi\.|validator\.`),
				"manual":  regexp.MustCompile(`if\s+.*==\s*nil|if\s+.*===\s*undefined`),
			}},
		keywordExtractor{id: GeneStateManagement, name: "State Management", description: "client state management library",
			patterns: map[string]*regexp.Regexp{
				"redux":   regexp.MustCompile(`react-redux|createSlice`),
				"hooks":   regexp.MustCompile(`useState|useReducer`),
			}},
		keywordExtractor{id: GeneAPIClient, name: "API Client", description: "HTTP client library",
			patterns: map[string]*regexp.Regexp{
				"axios": regexp.MustCompile(`\baxios\b`),
				"fetch": regexp.MustCompile(`\bfetch\s*\(`),
			}},
		keywordExtractor{id: GeneStyling, name: "Styling", description: "CSS styling approach",
			patterns: map[string]*regexp.Regexp{
				"tailwind":     regexp.MustCompile(`className=".*\b(?:flex|grid|p-\d)`),
				"css_modules":  regexp.MustCompile(`\.module\.css`),
				"styled_comp":  regexp.MustCompile(`styled\.\w+\s*\x60`),
			}},
	} {
		r.extractors[ex.ID()] = ex
	}
	return r
}

// Len returns the number of registered extractors.
func (r *GeneExtractorRegistry) Len() int {
	return len(r.extractors)
}

// Get looks up the extractor for id.
func (r *GeneExtractorRegistry) Get(id GeneID) (GeneExtractor, bool) {
	ex, ok := r.extractors[id]
	return ex, ok
}

// --- naming gene ---

type namingExtractor struct{}

func (namingExtractor) ID() GeneID          { return GeneNaming }
func (namingExtractor) Name() string        { return "Naming Convention" }
func (namingExtractor) Description() string { return "identifier casing style" }

var (
	snakeCaseRe = regexp.MustCompile(`\bfunc\s+[a-z][a-z0-9]*(?:_[a-z0-9]+)+\s*\(|\bdef\s+[a-z][a-z0-9]*(?:_[a-z0-9]+)+\s*\(`)
	camelCaseRe = regexp.MustCompile(`\bfunc\s+[a-z][a-zA-Z0-9]*\s*\(|\bfunction\s+[a-z][a-zA-Z0-9]*\s*\(`)
)

func (namingExtractor) ExtractFromFile(content, file string) GeneObservation {
	switch {
	case snakeCaseRe.MatchString(content):
		return GeneObservation{File: file, Value: "snake_case"}
	case camelCaseRe.MatchString(content):
		return GeneObservation{File: file, Value: "camelCase"}
	default:
		return GeneObservation{File: file, Value: ""}
	}
}

// --- variant-handling gene ---

type variantHandlingExtractor struct{}

func (variantHandlingExtractor) ID() GeneID          { return GeneVariantHandling }
func (variantHandlingExtractor) Name() string        { return "Variant Handling" }
func (variantHandlingExtractor) Description() string { return "conditional-class-name composition library" }

func (variantHandlingExtractor) ExtractFromFile(content, file string) GeneObservation {
	switch {
	case strings.Contains(content, "class-variance-authority") || strings.Contains(content, "cva("):
		return GeneObservation{File: file, Value: "cva"}
	case strings.Contains(content, "clsx"):
		return GeneObservation{File: file, Value: "clsx"}
	case strings.Contains(content, "classnames"):
		return GeneObservation{File: file, Value: "classnames"}
	default:
		return GeneObservation{File: file, Value: ""}
	}
}

// --- generic keyword-pattern gene ---

// keywordExtractor extracts an allele as the first pattern (by alphabetical
// key order) whose regex matches, for genes whose alleles are a short fixed
// vocabulary of library/style choices rather than requiring a bespoke
// extraction rule.
type keywordExtractor struct {
	id          GeneID
	name        string
	description string
	patterns    map[string]*regexp.Regexp
}

func (k keywordExtractor) ID() GeneID          { return k.id }
func (k keywordExtractor) Name() string        { return k.name }
func (k keywordExtractor) Description() string { return k.description }

func (k keywordExtractor) ExtractFromFile(content, file string) GeneObservation {
	keys := make([]string, 0, len(k.patterns))
	for key := range k.patterns {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if k.patterns[key].MatchString(content) {
			return GeneObservation{File: file, Value: key}
		}
	}
	return GeneObservation{File: file, Value: ""}
}
