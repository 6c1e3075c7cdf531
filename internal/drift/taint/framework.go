package taint

// SourceSpec declares a call that introduces taint into its return/assign
// target.
type SourceSpec struct {
	Callee string
	Label  Label
}

// SinkSpec declares a call whose arguments must not carry live taint for
// SinkType. Every built-in sink type maps to a CWE id, per spec.md §4.10.
type SinkSpec struct {
	Callee string
	Type   SinkType
	CWE    string
}

// SanitizerSpec declares a call that clears taint for the sink types it
// Covers, for whichever of its arguments it sanitizes.
type SanitizerSpec struct {
	Callee string
	Covers []SinkType
}

// FrameworkSpec is a declarative source/sink/sanitizer registry for one
// framework id (Express, Spring, FastAPI, …).
type FrameworkSpec struct {
	ID         string
	Sources    map[string]SourceSpec
	Sinks      map[string]SinkSpec
	Sanitizers map[string]SanitizerSpec
}

// MatchSource looks up callee as a declared taint source.
func (f FrameworkSpec) MatchSource(callee string) (SourceSpec, bool) {
	s, ok := f.Sources[callee]
	return s, ok
}

// MatchSink looks up callee as a declared sink.
func (f FrameworkSpec) MatchSink(callee string) (SinkSpec, bool) {
	s, ok := f.Sinks[callee]
	return s, ok
}

// MatchSanitizer looks up callee as a declared sanitizer.
func (f FrameworkSpec) MatchSanitizer(callee string) (SanitizerSpec, bool) {
	s, ok := f.Sanitizers[callee]
	return s, ok
}

// Merge returns a FrameworkSpec combining every spec in specs, later specs
// overriding earlier ones where they declare the same callee. Used to compose a
// project's enabled frameworks into one registry for analysis.
func Merge(specs ...FrameworkSpec) FrameworkSpec {
	merged := FrameworkSpec{
		ID:         "merged",
		Sources:    make(map[string]SourceSpec),
		Sinks:      make(map[string]SinkSpec),
		Sanitizers: make(map[string]SanitizerSpec),
	}
	for _, f := range specs {
		for k, v := range f.Sources {
			merged.Sources[k] = v
		}
		for k, v := range f.Sinks {
			merged.Sinks[k] = v
		}
		for k, v := range f.Sanitizers {
			merged.Sanitizers[k] = v
		}
	}
	return merged
}

// CoreSpec declares the language-agnostic sources/sinks/sanitizers every
// project gets regardless of framework: os.Getenv-shaped env reads, raw
// exec/SQL-string sinks, and their obvious counterparts.
var CoreSpec = FrameworkSpec{
	ID: "core",
	Sources: map[string]SourceSpec{
		"os.Getenv":     {Callee: "os.Getenv", Label: LabelEnvironment},
		"os.ReadFile":   {Callee: "os.ReadFile", Label: LabelFileSystem},
		"ioutil.ReadAll": {Callee: "ioutil.ReadAll", Label: LabelNetwork},
	},
	Sinks: map[string]SinkSpec{
		"sql.Query":   {Callee: "sql.Query", Type: SinkSQLInjection, CWE: "CWE-89"},
		"sql.Exec":    {Callee: "sql.Exec", Type: SinkSQLInjection, CWE: "CWE-89"},
		"exec.Command": {Callee: "exec.Command", Type: SinkCommandInjection, CWE: "CWE-78"},
		"os.Open":     {Callee: "os.Open", Type: SinkPathTraversal, CWE: "CWE-22"},
	},
	Sanitizers: map[string]SanitizerSpec{
		"sql.EscapeString":     {Callee: "sql.EscapeString", Covers: []SinkType{SinkSQLInjection}},
		"filepath.Clean":       {Callee: "filepath.Clean", Covers: []SinkType{SinkPathTraversal}},
		"shellwords.Escape":    {Callee: "shellwords.Escape", Covers: []SinkType{SinkCommandInjection}},
	},
}

// ExpressSpec declares Node/Express request-taint sources and common sinks.
var ExpressSpec = FrameworkSpec{
	ID: "express",
	Sources: map[string]SourceSpec{
		"req.body":   {Callee: "req.body", Label: LabelUserInput},
		"req.query":  {Callee: "req.query", Label: LabelUserInput},
		"req.params": {Callee: "req.params", Label: LabelUserInput},
	},
	Sinks: map[string]SinkSpec{
		"res.send":        {Callee: "res.send", Type: SinkXSS, CWE: "CWE-79"},
		"res.render":      {Callee: "res.render", Type: SinkXSS, CWE: "CWE-79"},
		"child_process.exec": {Callee: "child_process.exec", Type: SinkCommandInjection, CWE: "CWE-78"},
	},
	Sanitizers: map[string]SanitizerSpec{
		"escape-html":  {Callee: "escape-html", Covers: []SinkType{SinkXSS}},
		"validator.escape": {Callee: "validator.escape", Covers: []SinkType{SinkXSS}},
	},
}

// SpringSpec declares Java/Spring request-taint sources and common sinks.
var SpringSpec = FrameworkSpec{
	ID: "spring",
	Sources: map[string]SourceSpec{
		"@RequestParam": {Callee: "@RequestParam", Label: LabelUserInput},
		"@RequestBody":  {Callee: "@RequestBody", Label: LabelUserInput},
		"@PathVariable": {Callee: "@PathVariable", Label: LabelUserInput},
	},
	Sinks: map[string]SinkSpec{
		"jdbcTemplate.query":     {Callee: "jdbcTemplate.query", Type: SinkSQLInjection, CWE: "CWE-89"},
		"Runtime.exec":           {Callee: "Runtime.exec", Type: SinkCommandInjection, CWE: "CWE-78"},
		"ObjectInputStream.readObject": {Callee: "ObjectInputStream.readObject", Type: SinkDeserialization, CWE: "CWE-502"},
	},
	Sanitizers: map[string]SanitizerSpec{
		"PreparedStatement": {Callee: "PreparedStatement", Covers: []SinkType{SinkSQLInjection}},
	},
}

// FastAPISpec declares Python/FastAPI request-taint sources and common sinks.
var FastAPISpec = FrameworkSpec{
	ID: "fastapi",
	Sources: map[string]SourceSpec{
		"Query":  {Callee: "Query", Label: LabelUserInput},
		"Body":   {Callee: "Body", Label: LabelUserInput},
		"Path":   {Callee: "Path", Label: LabelUserInput},
	},
	Sinks: map[string]SinkSpec{
		"cursor.execute": {Callee: "cursor.execute", Type: SinkSQLInjection, CWE: "CWE-89"},
		"os.system":      {Callee: "os.system", Type: SinkCommandInjection, CWE: "CWE-78"},
		"pickle.loads":   {Callee: "pickle.loads", Type: SinkDeserialization, CWE: "CWE-502"},
	},
	Sanitizers: map[string]SanitizerSpec{
		"html.escape": {Callee: "html.escape", Covers: []SinkType{SinkXSS}},
	},
}

// Registry returns every built-in FrameworkSpec keyed by id.
func Registry() map[string]FrameworkSpec {
	return map[string]FrameworkSpec{
		CoreSpec.ID:    CoreSpec,
		ExpressSpec.ID: ExpressSpec,
		SpringSpec.ID:  SpringSpec,
		FastAPISpec.ID: FastAPISpec,
	}
}
