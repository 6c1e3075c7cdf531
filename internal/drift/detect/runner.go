package detect

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Run dispatches registry over every context in parallel (bounded by
// workers), then runs the registry's learning pass once over the full set.
// The returned matches are sorted by (file, line, column, pattern_id) so
// that, per spec.md §4.7's determinism requirement, a fixed input and fixed
// registry always produce a bit-identical ordered PatternMatch set
// regardless of goroutine scheduling.
func Run(ctx context.Context, log *zap.Logger, registry *VisitorRegistry, contexts []DetectionContext, workers int) ([]PatternMatch, error) {
	if workers <= 0 {
		workers = 1
	}
	if log == nil {
		log = zap.NewNop()
	}

	results := make([][]PatternMatch, len(contexts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, dc := range contexts {
		i, dc := i, dc
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			log.Debug("dispatching file", zap.String("path", dc.Path), zap.String("language", dc.Language))
			results[i] = registry.Dispatch(dc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []PatternMatch
	for _, r := range results {
		out = append(out, r...)
	}
	out = append(out, registry.RunLearningPass(contexts)...)

	for _, p := range registry.Panics() {
		log.Warn("detector panic recovered", zap.Error(p))
	}

	sortMatches(out)
	return out, nil
}

func sortMatches(matches []PatternMatch) {
	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return a.PatternID < b.PatternID
	})
}
