package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/driftlabs/driftcortex/internal/drift/detect"
	driftstorage "github.com/driftlabs/driftcortex/internal/drift/storage"
	"github.com/driftlabs/driftcortex/pkg/config"
)

// runAnalyze reads every file the scan subcommand has recorded, builds a
// DetectionContext for each, dispatches the built-in detector registry over
// all of them, and persists the resulting PatternMatches as DetectionRecords.
func runAnalyze(ctx context.Context, cfg *config.Config, args []string) error {
	var verbose bool
	if _, err := parseFlags("analyze", args, func(fs *flag.FlagSet) {
		fs.BoolVar(&verbose, "v", false, "print each finding as it is persisted")
	}); err != nil {
		return err
	}

	kernel, handles, err := openKernel(ctx, cfg)
	if err != nil {
		return err
	}
	defer kernel.Close()

	files, err := handles.Files.ListFiles(ctx)
	if err != nil {
		return fmt.Errorf("list files: %w", err)
	}

	registry := detect.NewVisitorRegistry()
	detect.RegisterBuiltins(registry)

	contexts := make([]detect.DetectionContext, 0, len(files))
	for _, f := range files {
		source, err := os.ReadFile(filepath.Join(cfg.Scan.Root, f.Path))
		if err != nil {
			continue // removed between scan and analyze; skip rather than fail the run
		}
		contexts = append(contexts, detect.DetectionContext{
			Path:     f.Path,
			Language: f.Language,
			Source:   source,
		})
	}

	workers := cfg.Scan.MaxWorkers
	if workers <= 0 {
		workers = 4
	}
	matches, err := detect.Run(ctx, zap.NewNop(), registry, contexts, workers)
	if err != nil {
		return fmt.Errorf("run detectors: %w", err)
	}

	byPath := make(map[string][]driftstorage.DetectionRecord)
	hashes := loadContentHashesByPath(files)
	for _, m := range matches {
		rec := driftstorage.DetectionRecord{
			ID:              uuid.New().String(),
			Path:            m.File,
			ContentHash:     hashes[m.File],
			PatternID:       m.PatternID,
			Category:        string(m.Category),
			Confidence:      m.Confidence,
			DetectionMethod: string(m.DetectionMethod),
			Line:            m.Line,
			Column:          m.Column,
			CWE:             m.CWE,
			OWASP:           m.OWASP,
			MatchedText:     m.MatchedText,
		}
		byPath[m.File] = append(byPath[m.File], rec)
		if verbose {
			fmt.Printf("  %s:%d [%s] %s\n", m.File, m.Line, m.Category, m.PatternID)
		}
	}

	var total int
	for _, recs := range byPath {
		if err := handles.Writer.Enqueue(driftstorage.InsertDetectionsCommand(recs)); err != nil {
			return fmt.Errorf("enqueue detections: %w", err)
		}
		total += len(recs)
	}
	if err := handles.Writer.Flush(ctx); err != nil {
		return fmt.Errorf("flush writer: %w", err)
	}

	fmt.Printf("analyze: %s findings across %s files\n", humanize.Comma(int64(total)), humanize.Comma(int64(len(files))))
	return nil
}

func loadContentHashesByPath(files []driftstorage.FileRecord) map[string]string {
	out := make(map[string]string, len(files))
	for _, f := range files {
		out[f.Path] = f.ContentHash
	}
	return out
}
