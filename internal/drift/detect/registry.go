package detect

import (
	"fmt"

	derr "github.com/driftlabs/driftcortex/internal/errors"
)

// FileDetector is a single-pass, stateless detector: given one file's
// DetectionContext, it returns whatever PatternMatches it finds.
type FileDetector func(ctx DetectionContext) []PatternMatch

// LearningHandler is a two-pass, stateful detector: Observe accumulates
// statistics across every context in the batch (pass 1), then Emit produces
// PatternMatch{DetectionMethod: LearningDeviation} findings for contexts
// that diverge from whatever norm Observe learned (pass 2). Base detectors
// never emit LearningDeviation; only a LearningHandler may.
type LearningHandler interface {
	Name() string
	Observe(ctx DetectionContext)
	Emit(ctx DetectionContext) []PatternMatch
}

type fileDetectorEntry struct {
	category  Category
	languages map[string]struct{}
	fn        FileDetector
}

func (e fileDetectorEntry) supports(language string) bool {
	if len(e.languages) == 0 {
		return true
	}
	_, ok := e.languages[language]
	return ok
}

type learningEntry struct {
	languages map[string]struct{}
	handler   LearningHandler
}

func (e learningEntry) supports(language string) bool {
	if len(e.languages) == 0 {
		return true
	}
	_, ok := e.languages[language]
	return ok
}

// VisitorRegistry holds every registered file-level and learning detector.
type VisitorRegistry struct {
	fileDetectors []fileDetectorEntry
	learning      []learningEntry
	panics        []*derr.DriftError
}

// NewVisitorRegistry returns an empty registry.
func NewVisitorRegistry() *VisitorRegistry {
	return &VisitorRegistry{}
}

// RegisterFileDetector adds a single-pass detector for category, scoped to
// languages (empty means "all languages").
func (r *VisitorRegistry) RegisterFileDetector(category Category, languages []string, fn FileDetector) {
	r.fileDetectors = append(r.fileDetectors, fileDetectorEntry{
		category:  category,
		languages: toSet(languages),
		fn:        fn,
	})
}

// RegisterLearningHandler adds a two-pass handler, scoped to languages
// (empty means "all languages").
func (r *VisitorRegistry) RegisterLearningHandler(languages []string, handler LearningHandler) {
	r.learning = append(r.learning, learningEntry{languages: toSet(languages), handler: handler})
}

func toSet(items []string) map[string]struct{} {
	if len(items) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

// Panics returns every panic recorded across Dispatch/RunLearningPass calls
// since the registry was created. Recording never clears automatically, so
// callers own draining it between batches if they want a per-batch view.
func (r *VisitorRegistry) Panics() []*derr.DriftError {
	return append([]*derr.DriftError(nil), r.panics...)
}

// Dispatch runs every file detector matching ctx.Language against ctx. A
// panicking detector is recorded (via Panics) and skipped; every other
// detector still runs.
func (r *VisitorRegistry) Dispatch(ctx DetectionContext) []PatternMatch {
	var matches []PatternMatch
	for _, entry := range r.fileDetectors {
		if !entry.supports(ctx.Language) {
			continue
		}
		matches = append(matches, r.invokeFileDetector(entry, ctx)...)
	}
	return matches
}

func (r *VisitorRegistry) invokeFileDetector(entry fileDetectorEntry, ctx DetectionContext) (result []PatternMatch) {
	defer func() {
		if rec := recover(); rec != nil {
			r.panics = append(r.panics, derr.DetectorPanic(string(entry.category), rec))
			result = nil
		}
	}()
	return entry.fn(ctx)
}

// RunLearningPass drives both passes of every registered learning handler
// over contexts: Observe across all contexts, then Emit per context.
func (r *VisitorRegistry) RunLearningPass(contexts []DetectionContext) []PatternMatch {
	for _, entry := range r.learning {
		r.observeLearning(entry, contexts)
	}

	var matches []PatternMatch
	for _, entry := range r.learning {
		for _, ctx := range contexts {
			if !entry.supports(ctx.Language) {
				continue
			}
			matches = append(matches, r.emitLearning(entry, ctx)...)
		}
	}
	return matches
}

func (r *VisitorRegistry) observeLearning(entry learningEntry, contexts []DetectionContext) {
	defer func() {
		if rec := recover(); rec != nil {
			r.panics = append(r.panics, derr.DetectorPanic(entry.handler.Name(), rec))
		}
	}()
	for _, ctx := range contexts {
		if entry.supports(ctx.Language) {
			entry.handler.Observe(ctx)
		}
	}
}

func (r *VisitorRegistry) emitLearning(entry learningEntry, ctx DetectionContext) (result []PatternMatch) {
	defer func() {
		if rec := recover(); rec != nil {
			r.panics = append(r.panics, derr.DetectorPanic(entry.handler.Name(), rec))
			result = nil
		}
	}()
	return entry.handler.Emit(ctx)
}

// mustPatternID is a small helper so built-in detectors construct stable,
// readable pattern ids instead of ad-hoc string concatenation scattered
// across files.
func mustPatternID(category Category, name string) string {
	return fmt.Sprintf("%s.%s", category, name)
}
