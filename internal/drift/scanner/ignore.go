// Package scanner walks a repository root into a content-addressed
// ScanDiff, skipping gitignore-excluded paths and classifying modification
// by content hash rather than mtime so the result survives checkouts.
package scanner

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// IgnoreMatcher matches repository-relative paths against a flat set of
// gitignore-style patterns. It supports the common subset of gitignore
// syntax (literal segments, `*`/`?` globs via filepath.Match, a trailing
// `/` restricting a pattern to directories, and `#`-comments/blank lines) —
// not full git semantics (no `**`, no negation, no nested per-directory
// .gitignore precedence rules). No pack example or ecosystem dependency in
// this retrieval set ships a gitignore parser, so this is a deliberately
// small hand-rolled matcher rather than a fabricated import.
type IgnoreMatcher struct {
	patterns []ignorePattern
}

type ignorePattern struct {
	raw     string
	dirOnly bool
}

// defaultIgnores are always excluded regardless of .gitignore content.
var defaultIgnores = []string{".git"}

// LoadGitignore reads root/.gitignore (if present) and returns a matcher
// seeded with it plus defaultIgnores. A missing .gitignore is not an error.
func LoadGitignore(root string) (*IgnoreMatcher, error) {
	m := &IgnoreMatcher{}
	for _, p := range defaultIgnores {
		m.patterns = append(m.patterns, ignorePattern{raw: p})
	}

	f, err := os.Open(filepath.Join(root, ".gitignore"))
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, err
	}
	defer f.Close()

	scanLines := bufio.NewScanner(f)
	for scanLines.Scan() {
		line := strings.TrimSpace(scanLines.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		dirOnly := strings.HasSuffix(line, "/")
		line = strings.TrimSuffix(line, "/")
		line = strings.TrimPrefix(line, "/")
		m.patterns = append(m.patterns, ignorePattern{raw: line, dirOnly: dirOnly})
	}
	return m, scanLines.Err()
}

// Ignored reports whether relPath (slash-separated, relative to root)
// should be excluded from the scan.
func (m *IgnoreMatcher) Ignored(relPath string, isDir bool) bool {
	relPath = filepath.ToSlash(relPath)
	segments := strings.Split(relPath, "/")
	for _, pat := range m.patterns {
		if pat.dirOnly && !isDir {
			continue
		}
		if matched, _ := filepath.Match(pat.raw, relPath); matched {
			return true
		}
		for _, seg := range segments {
			if matched, _ := filepath.Match(pat.raw, seg); matched {
				return true
			}
		}
	}
	return false
}
