package secondary

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeMartinMetrics_CeCaInstabilityDistance(t *testing.T) {
	graph := ImportGraph{
		Modules: []string{"A", "B", "C", "D", "E", "F", "G", "H"},
		Edges: map[string][]string{
			"A": {"B", "C", "D", "E", "F"},
			"G": {"A"},
			"H": {"A"},
			"B": {"A"},
		},
		TotalTypeCounts: map[string]int{"A": 10},
		AbstractCounts:  map[string]int{"A": 0},
	}

	metrics := ComputeMartinMetrics(graph)

	var a *CouplingMetrics
	for i := range metrics {
		if metrics[i].Module == "A" {
			a = &metrics[i]
		}
	}
	require.NotNil(t, a)
	require.Equal(t, 5, a.Ce)
	require.Equal(t, 3, a.Ca)
	require.InDelta(t, 5.0/8.0, a.Instability, 1e-10)
	require.InDelta(t, 0.0, a.Abstractness, 1e-10)
	require.InDelta(t, 0.375, a.Distance, 1e-10)
}

func TestDetectCycles_FindsSCCAndExcludesAcyclicMember(t *testing.T) {
	graph := ImportGraph{
		Modules: []string{"A", "B", "C", "D"},
		Edges: map[string][]string{
			"A": {"B"},
			"B": {"C"},
			"C": {"A"},
			"D": {"A"},
		},
	}

	cycles := DetectCycles(graph)
	require.NotEmpty(t, cycles)

	var abc *CouplingCycle
	for i := range cycles {
		c := cycles[i]
		has := func(m string) bool {
			for _, v := range c.Members {
				if v == m {
					return true
				}
			}
			return false
		}
		if has("A") && has("B") && has("C") {
			abc = &cycles[i]
		}
	}
	require.NotNil(t, abc)
	require.Len(t, abc.Members, 3)
	require.NotEmpty(t, abc.BreakSuggestions)

	for _, c := range cycles {
		for _, m := range c.Members {
			require.NotEqual(t, "D", m)
		}
	}
}

func TestDetectWrappers_MultiPrimitiveAndConfidenceAboveHalf(t *testing.T) {
	apiClientBody := `
const client = axios.create({ baseURL: baseUrl });
const get = (path) => fetch(` + "`${baseUrl}${path}`" + `);
const post = (path, body) => fetch(` + "`${baseUrl}${path}`" + `, { method: 'POST', body });
return { get, post };
`
	userDataBody := `
const [data, setData] = useState(null);
const [loading, setLoading] = useState(true);
useEffect(() => {
    fetch('/api/users').then(r => r.json()).then(setData);
}, []);
return { data, loading };
`

	sources := []FunctionSource{
		{Name: "useApiClient", File: "src/hooks/useApiClient.ts", Line: 3, Body: apiClientBody, IsExported: true, UsageCount: 4},
		{Name: "useUserData", File: "src/hooks/useApiClient.ts", Line: 12, Body: userDataBody, IsExported: true, UsageCount: 6},
	}

	wrappers := DetectWrappers(sources)
	require.NotEmpty(t, wrappers)

	for _, w := range wrappers {
		require.Greater(t, ComputeConfidence(w), 0.0)
	}

	var userData *Wrapper
	for i := range wrappers {
		if wrappers[i].Name == "useUserData" {
			userData = &wrappers[i]
		}
	}
	require.NotNil(t, userData)
	require.Greater(t, len(userData.WrappedPrimitives), 1)
	require.True(t, userData.IsMultiPrimitive)

	anyHigh := false
	for _, w := range wrappers {
		if ComputeConfidence(w) > 0.5 {
			anyHigh = true
		}
	}
	require.True(t, anyHigh)
}

func TestDetectCrypto_FindsMD5SHA1DESWithCWEAndOWASP(t *testing.T) {
	content := `
import hashlib
password_hash = hashlib.md5(password.encode()).hexdigest()
token_hash = hashlib.sha1(token.encode()).hexdigest()
cipher = DES.new(key, DES.MODE_ECB)
`
	findings := DetectCrypto(content, "src/crypto_utils.py", "python")
	ComputeConfidenceBatch(findings)

	require.NotEmpty(t, findings)

	hasMD5, hasSHA1, hasDES := false, false, false
	for _, f := range findings {
		if f.Category == CategoryWeakHash && contains(f.Description, "MD5") {
			hasMD5 = true
		}
		if f.Category == CategoryWeakHash && contains(f.Description, "SHA1") {
			hasSHA1 = true
		}
		if f.Category == CategoryDeprecatedCipher || f.Category == CategoryEcbMode {
			hasDES = true
		}
		require.Greater(t, f.CWE, 0)
		require.NotEmpty(t, f.OWASP)
	}
	require.True(t, hasMD5)
	require.True(t, hasSHA1)
	require.True(t, hasDES)

	anyNonZero := false
	for _, f := range findings {
		if f.Confidence > 0 {
			anyNonZero = true
		}
	}
	require.True(t, anyNonZero)
}

func contains(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}

func TestBuildGene_FiftyFiftySplitYieldsLowConsistencyAndStrongDominant(t *testing.T) {
	ex := variantHandlingExtractor{}

	cvaContent := `
import { cva } from 'class-variance-authority';
const button = cva("base", { variants: { size: { sm: "p-2", lg: "p-4" } } });
`
	clsxContent := `
import clsx from 'clsx';
const className = clsx("base", isActive && "active", size === "lg" && "large");
`

	// Distinct file names so FileCount reflects 5 files per allele, matching
	// the reference scenario of 5 cva files and 5 clsx files.
	var observations []GeneObservation
	for i := 0; i < 5; i++ {
		observations = append(observations, GeneObservation{File: fileName("cva", i), Value: ex.ExtractFromFile(cvaContent, "").Value})
		observations = append(observations, GeneObservation{File: fileName("clsx", i), Value: ex.ExtractFromFile(clsxContent, "").Value})
	}

	gene := BuildGene(ex, observations)

	require.GreaterOrEqual(t, len(gene.Alleles), 2)
	gap := gene.Alleles[0].Frequency - gene.Alleles[1].Frequency
	require.Less(t, gap, 0.5)
	require.NotNil(t, gene.Dominant)
	require.GreaterOrEqual(t, gene.Dominant.Frequency, 0.30)
}

func fileName(prefix string, i int) string {
	digits := "0123456789"
	return "src/components/" + prefix + "_" + string(digits[i]) + ".tsx"
}

func TestWithAllExtractors_HasAtLeastTenExtractors(t *testing.T) {
	registry := WithAllExtractors()
	require.GreaterOrEqual(t, registry.Len(), 10)

	ex, ok := registry.Get(GeneVariantHandling)
	require.True(t, ok)
	require.Equal(t, GeneVariantHandling, ex.ID())
}

func TestVerifyConstraints_MustExistFailsWhenTargetMissing(t *testing.T) {
	constraints := []Constraint{
		{
			Name:        "auth-middleware",
			Type:        MustExist,
			Description: "AuthMiddleware must exist in the codebase",
			Target:      "AuthMiddleware",
			Severity:    "high",
		},
	}

	facts := Facts{
		ExistingFiles: map[string]bool{
			"src/routes.ts": true,
			"src/utils.ts":  true,
		},
		ExistingModules: map[string]bool{},
	}

	results := VerifyConstraints(constraints, facts)
	require.Len(t, results, 1)
	require.False(t, results[0].Satisfied)
	require.Contains(t, results[0].Detail, "AuthMiddleware")
}

func TestVerifyConstraints_MustNotDependDetectsForbiddenEdge(t *testing.T) {
	constraints := []Constraint{
		{Name: "no-billing-from-auth", Type: MustNotDepend, Target: "auth", Forbidden: "billing", Severity: "medium"},
	}
	facts := Facts{
		ModuleEdges: map[string]map[string]bool{
			"auth": {"billing": true},
		},
	}
	results := VerifyConstraints(constraints, facts)
	require.Len(t, results, 1)
	require.False(t, results[0].Satisfied)
}

func TestVerifyConstraints_ExpressionEvaluatesViaGval(t *testing.T) {
	constraints := []Constraint{
		{Name: "users-table-rw", Type: Expression, Expr: "reads > 0 && writes > 0", Severity: "low"},
	}
	facts := Facts{
		Extra: map[string]interface{}{
			"reads":  2,
			"writes": 1,
		},
	}
	results := VerifyConstraints(constraints, facts)
	require.Len(t, results, 1)
	require.True(t, results[0].Satisfied)
}

func TestMatchContracts_FlagsMissingBackendUnusedBackendAndMethodMismatch(t *testing.T) {
	backend := []Endpoint{
		{Method: "GET", Path: "/api/users/{param}", File: "routes.go", Line: 10},
		{Method: "GET", Path: "/api/orders", File: "routes.go", Line: 20},
	}
	frontend := []Endpoint{
		{Method: "GET", Path: "/api/users/{param}", File: "client.ts", Line: 5},
		{Method: "POST", Path: "/api/users/{param}", File: "client.ts", Line: 8},
		{Method: "GET", Path: "/api/invoices", File: "client.ts", Line: 12},
	}

	mismatches := MatchContracts(backend, frontend)

	var sawMissing, sawUnused, sawMethod bool
	for _, m := range mismatches {
		switch m.Kind {
		case MismatchMissingBackend:
			if m.Path == "/api/invoices" {
				sawMissing = true
			}
		case MismatchUnusedBackend:
			if m.Path == "/api/orders" {
				sawUnused = true
			}
		case MismatchMethodMismatch:
			if m.Path == "/api/users/{param}" && m.Method == "POST" {
				sawMethod = true
			}
		}
	}
	require.True(t, sawMissing)
	require.True(t, sawUnused)
	require.True(t, sawMethod)
}

func TestNormalizePath_CollapsesParamStyles(t *testing.T) {
	require.Equal(t, "/api/users/{param}", normalizePath("/api/users/:id"))
	require.Equal(t, "/api/users/{param}", normalizePath("/api/users/{id}"))
	require.Equal(t, "/api/users/{param}", normalizePath("/api/users/${userId}"))
}
