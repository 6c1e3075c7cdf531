package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestScanner_IgnoresGitAndGitignorePatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "vendor/\n*.log\n")
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "vendor/dep.go", "package dep\n")
	writeFile(t, root, "debug.log", "noise\n")
	writeFile(t, root, ".git/HEAD", "ref: refs/heads/main\n")

	s, err := New(root, 2)
	require.NoError(t, err)

	_, current, err := s.Scan(context.Background(), nil)
	require.NoError(t, err)

	require.Contains(t, current, "main.go")
	require.NotContains(t, current, "vendor/dep.go")
	require.NotContains(t, current, "debug.log")
	require.NotContains(t, current, ".git/HEAD")
}

func TestScanner_ScanDiff_ClassifiesByContentHashNotMtime(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "package a\n")
	writeFile(t, root, "b.go", "package b\n")

	s, err := New(root, 2)
	require.NoError(t, err)

	diff1, state1, err := s.Scan(context.Background(), nil)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a.go", "b.go"}, diff1.Added)

	// Rewrite a.go with byte-identical content (simulating a touch/checkout
	// that changes mtime but not content) and remove b.go.
	writeFile(t, root, "a.go", "package a\n")
	require.NoError(t, os.Remove(filepath.Join(root, "b.go")))
	writeFile(t, root, "c.go", "package c\n")

	diff2, _, err := s.Scan(context.Background(), state1)
	require.NoError(t, err)
	require.Equal(t, []string{"a.go"}, diff2.Unchanged)
	require.Equal(t, []string{"b.go"}, diff2.Removed)
	require.Equal(t, []string{"c.go"}, diff2.Added)
	require.Empty(t, diff2.Modified)
}

func TestDiff_SortedDeterministicOutput(t *testing.T) {
	previous := map[string]string{"z.go": "h1", "a.go": "h2"}
	current := map[string]string{"z.go": "h1-changed", "a.go": "h2", "m.go": "h3"}

	diff := Diff(previous, current)
	require.Equal(t, []string{"m.go"}, diff.Added)
	require.Equal(t, []string{"z.go"}, diff.Modified)
	require.Equal(t, []string{"a.go"}, diff.Unchanged)
	require.Empty(t, diff.Removed)
}
