package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	driftstorage "github.com/driftlabs/driftcortex/internal/drift/storage"
	"github.com/driftlabs/driftcortex/internal/drift/scanner"
	"github.com/driftlabs/driftcortex/pkg/config"
)

// runScan walks cfg.Scan.Root, diffs it against the file table's recorded
// content hashes, and enqueues the resulting upsert/delete commands.
func runScan(ctx context.Context, cfg *config.Config, args []string) error {
	if _, err := parseFlags("scan", args, func(fs *flag.FlagSet) {
		fs.StringVar(&cfg.Scan.Root, "root", cfg.Scan.Root, "repository root to scan")
	}); err != nil {
		return err
	}

	kernel, handles, err := openKernel(ctx, cfg)
	if err != nil {
		return err
	}
	defer kernel.Close()

	s, err := scanner.New(cfg.Scan.Root, cfg.Scan.MaxWorkers)
	if err != nil {
		return fmt.Errorf("build scanner: %w", err)
	}

	previous, err := loadContentHashes(ctx, handles)
	if err != nil {
		return err
	}

	diff, current, err := s.Scan(ctx, previous)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	now := time.Now().UTC()
	for _, path := range append(append([]string{}, diff.Added...), diff.Modified...) {
		hash := current[path]
		size := int64(0)
		if info, err := os.Stat(filepath.Join(cfg.Scan.Root, path)); err == nil {
			size = info.Size()
		}
		rec := driftstorage.FileRecord{
			Path:          path,
			ContentHash:   hash,
			Language:      languageOf(path),
			Size:          size,
			LastScannedAt: now,
		}
		if err := handles.Writer.Enqueue(driftstorage.UpsertFileCommand(rec)); err != nil {
			return fmt.Errorf("enqueue upsert for %s: %w", path, err)
		}
	}
	for _, path := range diff.Removed {
		if err := handles.Writer.Enqueue(driftstorage.DeleteFileCommand(path)); err != nil {
			return fmt.Errorf("enqueue delete for %s: %w", path, err)
		}
	}

	if err := handles.Writer.Flush(ctx); err != nil {
		return fmt.Errorf("flush writer: %w", err)
	}

	var totalBytes int64
	for path := range current {
		if info, err := os.Stat(filepath.Join(cfg.Scan.Root, path)); err == nil {
			totalBytes += info.Size()
		}
	}

	fmt.Printf("scan: %d added, %d modified, %d removed (%s total)\n",
		len(diff.Added), len(diff.Modified), len(diff.Removed), humanize.Bytes(uint64(totalBytes)))
	return nil
}

func loadContentHashes(ctx context.Context, handles driftstorage.Handles) (map[string]string, error) {
	files, err := handles.Files.ListFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	out := make(map[string]string, len(files))
	for _, f := range files {
		out[f.Path] = f.ContentHash
	}
	return out, nil
}

// languageOf maps a file extension to the language tag the parser/detectors
// key on; unrecognized extensions fall back to "text".
func languageOf(path string) string {
	switch filepath.Ext(path) {
	case ".go":
		return "go"
	case ".py":
		return "python"
	case ".js", ".jsx":
		return "javascript"
	case ".ts", ".tsx":
		return "typescript"
	case ".java":
		return "java"
	case ".rb":
		return "ruby"
	default:
		return "text"
	}
}
