// Package parser turns source bytes into a typed ParseResult and caches
// results by content hash so identical file contents are never re-parsed,
// even across a rename or checkout that changes mtime.
package parser

import "time"

// Function is one extracted function or method.
type Function struct {
	Name      string
	StartLine int
	EndLine   int
	Signature string
}

// Class is one extracted class/struct/type declaration.
type Class struct {
	Name      string
	StartLine int
	EndLine   int
	Methods   []string
}

// Import is one extracted import/require/use statement.
type Import struct {
	Path  string
	Alias string
	Line  int
}

// Export is one extracted exported symbol.
type Export struct {
	Name string
	Line int
}

// CallSite is one function/method invocation.
type CallSite struct {
	Callee string
	Line   int
	Column int
}

// Decorator is one annotation/attribute/decorator attached to a declaration.
type Decorator struct {
	Name string
	Line int
}

// ErrorHandlingSpan marks a try/catch, defer-recover, or error-check block.
type ErrorHandlingSpan struct {
	Kind      string
	StartLine int
	EndLine   int
}

// DocComment is one doc comment attached to a declaration.
type DocComment struct {
	Text      string
	StartLine int
	EndLine   int
}

// ErrorRange marks one syntax error's extent, used when HasErrors is true.
type ErrorRange struct {
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
	Message   string
}

// ParseResult is the immutable product of parsing one file's content. Two
// ParseResults produced from byte-identical content must be deeply equal
// except for ParseTime.
type ParseResult struct {
	Path             string
	Language         string
	ContentHash      string
	Functions        []Function
	Classes          []Class
	Imports          []Import
	Exports          []Export
	CallSites        []CallSite
	StringLiterals   []string
	NumericLiterals  []string
	Decorators       []Decorator
	ErrorHandling    []ErrorHandlingSpan
	DocComments      []DocComment
	ParseTime        time.Duration
	HasErrors        bool
	ErrorCount       int
	ErrorRanges      []ErrorRange
}
