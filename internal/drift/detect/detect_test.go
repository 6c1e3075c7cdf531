package detect

import (
	"context"
	"regexp"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func TestDispatchIsolatesPanickingDetector(t *testing.T) {
	r := NewVisitorRegistry()

	r.RegisterFileDetector(CategorySecurity, nil, func(ctx DetectionContext) []PatternMatch {
		panic("boom")
	})
	r.RegisterFileDetector(CategoryLogging, nil, func(ctx DetectionContext) []PatternMatch {
		return []PatternMatch{{File: ctx.Path, Category: CategoryLogging}}
	})

	matches := r.Dispatch(DetectionContext{Path: "main.go", Language: "go"})

	if len(matches) != 1 {
		t.Fatalf("expected the surviving detector's match, got %d", len(matches))
	}
	if matches[0].Category != CategoryLogging {
		t.Fatalf("unexpected match category %q", matches[0].Category)
	}

	panics := r.Panics()
	if len(panics) != 1 {
		t.Fatalf("expected exactly one recorded panic, got %d", len(panics))
	}
}

func TestDispatchScopesByLanguage(t *testing.T) {
	r := NewVisitorRegistry()
	var called bool
	r.RegisterFileDetector(CategoryTypes, []string{"python"}, func(ctx DetectionContext) []PatternMatch {
		called = true
		return nil
	})

	r.Dispatch(DetectionContext{Path: "main.go", Language: "go"})
	if called {
		t.Fatal("python-scoped detector ran against a go file")
	}

	r.Dispatch(DetectionContext{Path: "main.py", Language: "python"})
	if !called {
		t.Fatal("python-scoped detector did not run against a python file")
	}
}

func TestFindAllTimeoutReturnsMatches(t *testing.T) {
	re := regexp.MustCompile(`\d+`)
	locs, err := FindAllTimeout(re, "a1 b22 c333", time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(locs) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(locs))
	}
}

func TestFindAllTimeoutNonPositiveFallsBackToDefault(t *testing.T) {
	re := regexp.MustCompile(`x`)
	_, err := FindAllTimeout(re, "irrelevant", -1)
	if err != nil {
		t.Fatalf("non-positive timeout should fall back to default, not error: %v", err)
	}
}

func TestHardcodedSecretDetectorFindsAPIKey(t *testing.T) {
	src := []byte(`const cfg = { api_key: "sk_live_abcdef0123456789" }`)
	matches := HardcodedSecretDetector(DetectionContext{Path: "config.js", Language: "javascript", Source: src})
	if len(matches) == 0 {
		t.Fatal("expected at least one match for an embedded api key")
	}
	for _, m := range matches {
		if m.Category != CategorySecurity {
			t.Fatalf("unexpected category %q", m.Category)
		}
	}
}

func TestWeakCryptoDetectorFindsMD5(t *testing.T) {
	src := []byte("h := md5.Sum(data)")
	matches := WeakCryptoDetector(DetectionContext{Path: "hash.go", Language: "go", Source: src})
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
}

func TestMissingErrorHandlingDetectorFlagsIgnoredErr(t *testing.T) {
	src := []byte("_, err = os.Open(\"f\")\n_ = err\n_, _ = fmt.Println(\"ok\")")
	matches := MissingErrorHandlingDetector(DetectionContext{Path: "main.go", Language: "go", Source: src})
	if len(matches) == 0 {
		t.Fatal("expected at least one ignored-error match")
	}
}

func TestNamingConventionHandlerStaysSilentBelowSampleThreshold(t *testing.T) {
	h := NewNamingConventionHandler()

	outlier := DetectionContext{
		Path:     "b.go",
		Language: "go",
		Parse:    ParseView{Functions: []FunctionView{{Name: "get_user_by_id", StartLine: 5}}},
	}
	for i := 0; i < 9; i++ {
		ctx := DetectionContext{
			Path:     "a.go",
			Language: "go",
			Parse:    ParseView{Functions: []FunctionView{{Name: "getUserByID", StartLine: 1}}},
		}
		h.Observe(ctx)
	}
	h.Observe(outlier)

	if matches := h.Emit(outlier); len(matches) != 0 {
		t.Fatalf("with only 10 observed functions Emit should stay silent, got %d matches", len(matches))
	}
}

func TestRunIsDeterministicallyOrderedAcrossWorkerCounts(t *testing.T) {
	r := NewVisitorRegistry()
	RegisterBuiltins(r)

	var contexts []DetectionContext
	for i := 0; i < 12; i++ {
		path := "pkg/file.go"
		if i%2 == 0 {
			path = "pkg/other.go"
		}
		contexts = append(contexts, DetectionContext{
			Path:     path,
			Language: "go",
			Source:   []byte(`const apiKey = "sk_live_0123456789abcdef"` + "\nh := md5.Sum(nil)"),
		})
	}

	log := zaptest.NewLogger(t)

	serial, err := Run(context.Background(), log, r, contexts, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	parallel, err := Run(context.Background(), log, r, contexts, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(serial) != len(parallel) {
		t.Fatalf("mismatched match counts: serial=%d parallel=%d", len(serial), len(parallel))
	}
	for i := range serial {
		if serial[i] != parallel[i] {
			t.Fatalf("order diverged at %d: serial=%+v parallel=%+v", i, serial[i], parallel[i])
		}
	}
}

func TestNamingConventionHandlerViaRegistry(t *testing.T) {
	r := NewVisitorRegistry()
	RegisterNamingConvention(r, []string{"go"})

	var contexts []DetectionContext
	for i := 0; i < 25; i++ {
		contexts = append(contexts, DetectionContext{
			Path:     "a.go",
			Language: "go",
			Parse:    ParseView{Functions: []FunctionView{{Name: "getUserByID", StartLine: 1}}},
		})
	}
	contexts = append(contexts, DetectionContext{
		Path:     "b.go",
		Language: "go",
		Parse:    ParseView{Functions: []FunctionView{{Name: "get_user_by_id", StartLine: 5}}},
	})

	matches := r.RunLearningPass(contexts)

	var found bool
	for _, m := range matches {
		if m.DetectionMethod != MethodLearningDeviation {
			t.Fatalf("learning handler emitted non-deviation method %q", m.DetectionMethod)
		}
		if m.File == "b.go" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected the snake_case outlier to be flagged")
	}
}
