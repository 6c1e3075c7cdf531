package parser

import (
	"path/filepath"
	"strings"
)

// Language describes one registered source language. Grammar is an opaque
// handle to whatever AST producer a real build wires in (tree-sitter
// bindings are out of scope per spec.md's explicit-collaborators list); this
// package only needs a stable identity and extension set.
type Language struct {
	Name       string
	Extensions []string
	Grammar    any
}

var registry = map[string]Language{}

func register(lang Language) {
	for _, ext := range lang.Extensions {
		registry[ext] = lang
	}
}

func init() {
	register(Language{Name: "go", Extensions: []string{".go"}})
	register(Language{Name: "python", Extensions: []string{".py"}})
	register(Language{Name: "javascript", Extensions: []string{".js", ".jsx", ".mjs"}})
	register(Language{Name: "typescript", Extensions: []string{".ts", ".tsx"}})
	register(Language{Name: "rust", Extensions: []string{".rs"}})
	register(Language{Name: "java", Extensions: []string{".java"}})
	register(Language{Name: "ruby", Extensions: []string{".rb"}})
	register(Language{Name: "c", Extensions: []string{".c", ".h"}})
	register(Language{Name: "cpp", Extensions: []string{".cc", ".cpp", ".hpp", ".hh"}})
}

// DetectLanguage returns the registered Language for path's extension.
// Detection is total: an unrecognized extension returns ok=false, and
// callers skip language-specific stages for that file rather than erroring.
func DetectLanguage(path string) (Language, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	lang, ok := registry[ext]
	return lang, ok
}

// RegisterLanguage adds or overrides a language registration; used by
// callers wiring in a real grammar handle for an already-known extension.
func RegisterLanguage(lang Language) {
	register(lang)
}
