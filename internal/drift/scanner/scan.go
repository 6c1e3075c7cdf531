package scanner

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/shirou/gopsutil/v3/cpu"
	"golang.org/x/sync/errgroup"

	"github.com/driftlabs/driftcortex/internal/drift/parser"
)

// maxWorkerCeiling bounds the worker pool regardless of reported CPU count,
// since a very large machine scanning a small repo gains nothing from
// hundreds of goroutines contending over a handful of files.
const maxWorkerCeiling = 64

// Scanner walks a repository root, gitignore-aware, and produces a
// content-hash map suitable for diffing against a prior scan.
type Scanner struct {
	root       string
	ignore     *IgnoreMatcher
	maxWorkers int
}

// New returns a Scanner rooted at root. maxWorkers <= 0 derives the worker
// count from gopsutil's logical CPU count, capped by maxWorkerCeiling.
func New(root string, maxWorkers int) (*Scanner, error) {
	ignore, err := LoadGitignore(root)
	if err != nil {
		return nil, err
	}
	if maxWorkers <= 0 {
		maxWorkers = defaultWorkerCount()
	}
	return &Scanner{root: root, ignore: ignore, maxWorkers: maxWorkers}, nil
}

func defaultWorkerCount() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		n = 4
	}
	if n > maxWorkerCeiling {
		n = maxWorkerCeiling
	}
	return n
}

// walk collects every non-ignored regular file's path (relative to
// s.root, slash-separated) under s.root.
func (s *Scanner) walk() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == s.root {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		if s.ignore.Ignored(rel, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	return paths, err
}

// Scan walks s.root and hashes every eligible file's content in parallel,
// then diffs the result against previous (the content-hash map from the
// last completed scan; pass nil or empty for a first run). Scan takes no
// force-full-scan flag: the parse cache is what a full scan bypasses, and
// that flag is a parameter of parser.Manager.Parse.
func (s *Scanner) Scan(ctx context.Context, previous map[string]string) (ScanDiff, map[string]string, error) {
	paths, err := s.walk()
	if err != nil {
		return ScanDiff{}, nil, err
	}

	current := make(map[string]string, len(paths))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxWorkers)

	for _, relPath := range paths {
		relPath := relPath
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			content, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(relPath)))
			if err != nil {
				return err
			}
			hash := parser.ContentHash(content)
			mu.Lock()
			current[relPath] = hash
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return ScanDiff{}, nil, err
	}

	if previous == nil {
		previous = map[string]string{}
	}
	return Diff(previous, current), current, nil
}
