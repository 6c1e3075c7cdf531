package taint

import "testing"

func TestContextLiveLabelsAfterTaint(t *testing.T) {
	ctx := NewPropagationContext()
	ctx.Taint("q", LabelUserInput)

	labels, tainted := ctx.LiveLabels("q", SinkSQLInjection)
	if !tainted {
		t.Fatal("expected q to be live-tainted for SQL injection")
	}
	if len(labels) != 1 || labels[0] != LabelUserInput {
		t.Fatalf("unexpected labels: %+v", labels)
	}
}

func TestContextSanitizeIsPerSinkType(t *testing.T) {
	ctx := NewPropagationContext()
	ctx.Taint("q", LabelUserInput)
	ctx.Sanitize("q", []SinkType{SinkSQLInjection}, "sql.EscapeString")

	if _, tainted := ctx.LiveLabels("q", SinkSQLInjection); tainted {
		t.Fatal("expected q to be clean for SQL injection after sanitization")
	}
	if _, tainted := ctx.LiveLabels("q", SinkXSS); !tainted {
		t.Fatal("expected q to remain live-tainted for XSS, sanitization is per sink type")
	}
}

func TestContextStateForReportsSanitizedWithResponsibleCallee(t *testing.T) {
	ctx := NewPropagationContext()
	ctx.Taint("q", LabelUserInput)
	ctx.Sanitize("q", []SinkType{SinkSQLInjection}, "sql.EscapeString")

	labels, sanitized, by, hasHistory := ctx.StateFor("q", SinkSQLInjection)
	if !hasHistory {
		t.Fatal("expected taint history for q")
	}
	if !sanitized {
		t.Fatal("expected q sanitized for SQL injection")
	}
	if by != "sql.EscapeString" {
		t.Fatalf("expected sanitizer callee recorded, got %q", by)
	}
	if len(labels) != 1 || labels[0] != LabelUserInput {
		t.Fatalf("unexpected labels: %+v", labels)
	}
}

func TestContextRetaintClearsPriorSanitization(t *testing.T) {
	ctx := NewPropagationContext()
	ctx.Taint("q", LabelUserInput)
	ctx.Sanitize("q", []SinkType{SinkSQLInjection}, "sql.EscapeString")
	ctx.Taint("q", LabelUserInput)

	if _, tainted := ctx.LiveLabels("q", SinkSQLInjection); !tainted {
		t.Fatal("a fresh Taint call should re-taint against every sink type, including ones previously sanitized")
	}
}

func TestContextCopyPropagatesTaintAndSanitization(t *testing.T) {
	ctx := NewPropagationContext()
	ctx.Taint("a", LabelUserInput)
	ctx.Sanitize("a", []SinkType{SinkSQLInjection}, "sql.EscapeString")
	ctx.Copy("b", "a")

	if _, tainted := ctx.LiveLabels("b", SinkSQLInjection); tainted {
		t.Fatal("expected b to inherit a's sanitized state for SQL injection")
	}
	if _, tainted := ctx.LiveLabels("b", SinkXSS); !tainted {
		t.Fatal("expected b to inherit a's live taint for XSS")
	}
}

func TestContextIsTainted(t *testing.T) {
	ctx := NewPropagationContext()
	if ctx.IsTainted("x") {
		t.Fatal("unobserved variable should not be tainted")
	}
	ctx.Taint("x", LabelNetwork)
	if !ctx.IsTainted("x") {
		t.Fatal("expected x tainted after Taint call")
	}
}

func TestAnalyzeFunctionFindsLiveSQLInjectionFlow(t *testing.T) {
	calls := []Call{
		{Callee: "os.Getenv", AssignTo: "raw", Line: 1},
		{Callee: "sql.Query", Args: []string{"raw"}, Line: 2},
	}
	flows := AnalyzeFunction(calls, CoreSpec)
	if len(flows) != 1 {
		t.Fatalf("expected 1 flow, got %d", len(flows))
	}
	f := flows[0]
	if f.IsSanitized {
		t.Fatal("expected a live, unsanitized flow")
	}
	if f.SinkType != SinkSQLInjection || f.CWE != "CWE-89" {
		t.Fatalf("unexpected sink metadata: %+v", f)
	}
	if f.SourceLabel != LabelEnvironment {
		t.Fatalf("expected environment-sourced label, got %s", f.SourceLabel)
	}
}

func TestAnalyzeFunctionReportsSanitizedFlowRatherThanDropping(t *testing.T) {
	calls := []Call{
		{Callee: "os.Getenv", AssignTo: "raw", Line: 1},
		{Callee: "sql.EscapeString", Args: []string{"raw"}, AssignTo: "clean", Line: 2},
		{Callee: "sql.Query", Args: []string{"clean"}, Line: 3},
	}
	flows := AnalyzeFunction(calls, CoreSpec)
	if len(flows) != 1 {
		t.Fatalf("expected the sanitized flow to still be reported, got %d flows", len(flows))
	}
	f := flows[0]
	if !f.IsSanitized {
		t.Fatal("expected IsSanitized=true")
	}
	if len(f.SanitizersApplied) != 1 || f.SanitizersApplied[0] != "sql.EscapeString" {
		t.Fatalf("expected sql.EscapeString recorded as the applied sanitizer, got %+v", f.SanitizersApplied)
	}
	if f.Confidence >= 1.0 {
		t.Fatalf("expected a sanitized flow to carry lower confidence than a live one, got %f", f.Confidence)
	}
}

func TestAnalyzeFunctionSkipsUntaintedArguments(t *testing.T) {
	calls := []Call{
		{Callee: "sql.Query", Args: []string{"literal"}, Line: 1},
	}
	flows := AnalyzeFunction(calls, CoreSpec)
	if len(flows) != 0 {
		t.Fatalf("expected no flow for an argument with no taint history, got %d", len(flows))
	}
}

func TestAnalyzeFunctionFollowsCopyThroughIntermediateVariable(t *testing.T) {
	calls := []Call{
		{Callee: "os.Getenv", AssignTo: "raw", Line: 1},
		{Callee: "strings.TrimSpace", Args: []string{"raw"}, AssignTo: "trimmed", Line: 2},
		{Callee: "exec.Command", Args: []string{"trimmed"}, Line: 3},
	}
	flows := AnalyzeFunction(calls, CoreSpec)
	if len(flows) != 1 {
		t.Fatalf("expected the flow to survive the intermediate copy, got %d", len(flows))
	}
	if flows[0].SinkType != SinkCommandInjection {
		t.Fatalf("unexpected sink type %s", flows[0].SinkType)
	}
}

func TestMergeLaterSpecOverridesEarlierOnCollision(t *testing.T) {
	a := FrameworkSpec{ID: "a", Sources: map[string]SourceSpec{"x": {Callee: "x", Label: LabelUserInput}}}
	b := FrameworkSpec{ID: "b", Sources: map[string]SourceSpec{"x": {Callee: "x", Label: LabelNetwork}}}
	merged := Merge(a, b)
	if merged.Sources["x"].Label != LabelNetwork {
		t.Fatalf("expected b's source to win, got %s", merged.Sources["x"].Label)
	}
}

func TestAnalyzeProgramFollowsTaintAcrossFunctionBoundary(t *testing.T) {
	graph := CallGraph{
		"handleRequest": FunctionBody{
			Name: "handleRequest",
			File: "handler.go",
			Calls: []Call{
				{Callee: "os.Getenv", AssignTo: "raw", Line: 1},
				{Callee: "runQuery", Args: []string{"raw"}, Line: 2},
			},
		},
		"runQuery": FunctionBody{
			Name:   "runQuery",
			File:   "db.go",
			Params: []string{"q"},
			Calls: []Call{
				{Callee: "sql.Query", Args: []string{"q"}, Line: 10},
			},
		},
	}

	flows, errs := AnalyzeProgram(graph, CoreSpec, 8)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(flows) != 1 {
		t.Fatalf("expected 1 cross-function flow, got %d", len(flows))
	}
	if flows[0].SinkCallee != "sql.Query" {
		t.Fatalf("unexpected sink callee %q", flows[0].SinkCallee)
	}
}

func TestAnalyzeProgramDoesNotFollowUntaintedCallIntoCallee(t *testing.T) {
	graph := CallGraph{
		"caller": FunctionBody{
			Name: "caller",
			Calls: []Call{
				{Callee: "runQuery", Args: []string{"literal"}, Line: 1},
			},
		},
		"runQuery": FunctionBody{
			Name:   "runQuery",
			Params: []string{"q"},
			Calls: []Call{
				{Callee: "sql.Query", Args: []string{"q"}, Line: 10},
			},
		},
	}

	flows, errs := AnalyzeProgram(graph, CoreSpec, 8)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(flows) != 0 {
		t.Fatalf("expected no flow when the caller passes an untainted literal, got %d", len(flows))
	}
}

func TestAnalyzeProgramBreaksMutualRecursionWithoutHanging(t *testing.T) {
	graph := CallGraph{
		"a": FunctionBody{
			Name:   "a",
			Params: []string{"v"},
			Calls: []Call{
				{Callee: "os.Getenv", AssignTo: "v", Line: 1},
				{Callee: "b", Args: []string{"v"}, Line: 2},
			},
		},
		"b": FunctionBody{
			Name:   "b",
			Params: []string{"v"},
			Calls: []Call{
				{Callee: "a", Args: []string{"v"}, Line: 1},
				{Callee: "sql.Query", Args: []string{"v"}, Line: 2},
			},
		},
	}

	flows, errs := AnalyzeProgram(graph, CoreSpec, 8)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors from a bounded mutual recursion: %v", errs)
	}
	if len(flows) == 0 {
		t.Fatal("expected at least one flow to be found before recursion was cut off")
	}
}

func TestAnalyzeProgramRecordsBudgetExceededOnDeepChain(t *testing.T) {
	graph := CallGraph{
		"entry": FunctionBody{
			Name: "entry",
			File: "chain.go",
			Calls: []Call{
				{Callee: "os.Getenv", AssignTo: "v", Line: 1},
				{Callee: "step0", Args: []string{"v"}, Line: 2},
			},
		},
		"step0": FunctionBody{
			Name:   "step0",
			Params: []string{"v"},
			Calls: []Call{
				{Callee: "step1", Args: []string{"v"}, Line: 1},
			},
		},
		"step1": FunctionBody{
			Name:   "step1",
			Params: []string{"v"},
			Calls: []Call{
				{Callee: "step2", Args: []string{"v"}, Line: 1},
			},
		},
		"step2": FunctionBody{
			Name:   "step2",
			Params: []string{"v"},
			Calls: []Call{
				{Callee: "sql.Query", Args: []string{"v"}, Line: 1},
			},
		},
	}

	_, errs := AnalyzeProgram(graph, CoreSpec, 2)
	if len(errs) == 0 {
		t.Fatal("expected a taint-budget-exceeded error for a chain deeper than maxDepth")
	}
}
