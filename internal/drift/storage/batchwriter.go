package storage

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	derr "github.com/driftlabs/driftcortex/internal/errors"
	"github.com/driftlabs/driftcortex/pkg/logger"
)

// BatchCommand is one mutation enqueued for the single writer goroutine.
// Each concrete command type owns its own apply(ctx, handles) step so the
// writer loop stays a dumb dispatcher.
type BatchCommand interface {
	kind() string
	apply(ctx context.Context, h Handles) error
}

type upsertFileCmd struct{ rec FileRecord }

func (upsertFileCmd) kind() string { return "upsert_file" }
func (c upsertFileCmd) apply(ctx context.Context, h Handles) error {
	return h.Files.UpsertFile(ctx, c.rec)
}

// UpsertFileCommand enqueues a file-metadata upsert.
func UpsertFileCommand(rec FileRecord) BatchCommand { return upsertFileCmd{rec} }

type deleteFileCmd struct{ path string }

func (deleteFileCmd) kind() string { return "delete_file" }
func (c deleteFileCmd) apply(ctx context.Context, h Handles) error {
	return h.Files.DeleteFile(ctx, c.path)
}

// DeleteFileCommand enqueues a file-metadata removal (a file dropped from
// the scan tree).
func DeleteFileCommand(path string) BatchCommand { return deleteFileCmd{path} }

type insertFunctionsCmd struct{ funcs []FunctionRecord }

func (insertFunctionsCmd) kind() string { return "insert_functions" }
func (c insertFunctionsCmd) apply(ctx context.Context, h Handles) error {
	return h.Analysis.InsertFunctions(ctx, c.funcs)
}

// InsertFunctionsCommand enqueues a batch of parsed function records.
func InsertFunctionsCommand(funcs []FunctionRecord) BatchCommand { return insertFunctionsCmd{funcs} }

type insertDetectionsCmd struct{ detections []DetectionRecord }

func (insertDetectionsCmd) kind() string { return "insert_detections" }
func (c insertDetectionsCmd) apply(ctx context.Context, h Handles) error {
	return h.Analysis.InsertDetections(ctx, c.detections)
}

// InsertDetectionsCommand enqueues a batch of detector findings.
func InsertDetectionsCommand(detections []DetectionRecord) BatchCommand {
	return insertDetectionsCmd{detections}
}

type insertViolationsCmd struct{ violations []ViolationRecord }

func (insertViolationsCmd) kind() string { return "insert_violations" }
func (c insertViolationsCmd) apply(ctx context.Context, h Handles) error {
	return h.Enforcement.InsertViolations(ctx, c.violations)
}

// InsertViolationsCommand enqueues a batch of enforcement violations.
func InsertViolationsCommand(violations []ViolationRecord) BatchCommand {
	return insertViolationsCmd{violations}
}

type insertGateResultCmd struct{ rec GateResultRecord }

func (insertGateResultCmd) kind() string { return "insert_gate_result" }
func (c insertGateResultCmd) apply(ctx context.Context, h Handles) error {
	return h.Enforcement.InsertGateResult(ctx, c.rec)
}

// InsertGateResultCommand enqueues a single gate evaluation result.
func InsertGateResultCommand(rec GateResultRecord) BatchCommand { return insertGateResultCmd{rec} }

type insertAuditCmd struct{ rec AuditRecord }

func (insertAuditCmd) kind() string { return "insert_audit" }
func (c insertAuditCmd) apply(ctx context.Context, h Handles) error {
	return h.Enforcement.InsertAudit(ctx, c.rec)
}

// InsertAuditCommand enqueues a single audit_log entry.
func InsertAuditCommand(rec AuditRecord) BatchCommand { return insertAuditCmd{rec} }

// WriterStats summarizes BatchWriter activity, returned by Shutdown so
// callers can report write failures without the caller having to observe
// each Enqueue's (discarded) return value.
type WriterStats struct {
	Applied int64
	Failed  int64
	Errors  []error
}

// BatchWriter drains a single buffered command channel with one goroutine,
// serializing every mutation against the storage kernel's sole write
// connection. Enqueue order is preserved per command kind; cross-kind
// ordering is whatever order commands were pushed to the channel, since
// there is exactly one consumer.
type BatchWriter struct {
	handles Handles
	queue   chan BatchCommand
	done    chan struct{}

	applied int64
	mu      sync.Mutex
	failed  []error

	log          *logger.Logger
	shutdownOnce sync.Once
}

// NewBatchWriter starts the writer goroutine against handles, buffering up
// to queueDepth pending commands before Enqueue blocks.
func NewBatchWriter(handles Handles, queueDepth int) *BatchWriter {
	if queueDepth < 1 {
		queueDepth = 1
	}
	w := &BatchWriter{
		handles: handles,
		queue:   make(chan BatchCommand, queueDepth),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

// SetLogger attaches a logger to the writer's hot path: every failed
// command is logged at Warn as it happens, not just accumulated for
// Shutdown's WriterStats. Nil by default, so writers built in tests stay
// silent.
func (w *BatchWriter) SetLogger(log *logger.Logger) {
	w.log = log
}

func (w *BatchWriter) run() {
	ctx := context.Background()
	for cmd := range w.queue {
		if err := cmd.apply(ctx, w.handles); err != nil {
			wrapped := derr.Wrap(derr.KindStorage, derr.CodeTxFailed, "batch command failed: "+cmd.kind(), err)
			w.mu.Lock()
			w.failed = append(w.failed, wrapped)
			w.mu.Unlock()
			if w.log != nil {
				w.log.WithFields(logrus.Fields{
					"command": cmd.kind(),
					"error":   err.Error(),
				}).Warn("batch command failed")
			}
			continue
		}
		atomic.AddInt64(&w.applied, 1)
	}
	close(w.done)
}

// Enqueue appends cmd to the write queue. It blocks if the queue is full,
// applying backpressure to producers rather than growing unbounded.
func (w *BatchWriter) Enqueue(cmd BatchCommand) error {
	w.queue <- cmd
	return nil
}

// Flush is a no-op barrier: since there is a single consumer draining in
// FIFO order, every command enqueued before Flush is called has either
// already applied or will apply before any command enqueued after. Flush
// exists as a named operation for callers that want the vocabulary of
// "wait for what I've sent so far" without tearing the writer down; it
// busy-waits on the channel's length reaching zero.
func (w *BatchWriter) Flush(ctx context.Context) error {
	for len(w.queue) > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
	return nil
}

// Shutdown closes the queue, waits for the writer goroutine to drain every
// already-enqueued command, and returns accumulated stats. Safe to call
// more than once; subsequent calls return the same stats.
func (w *BatchWriter) Shutdown(ctx context.Context) (WriterStats, error) {
	w.shutdownOnce.Do(func() { close(w.queue) })

	select {
	case <-w.done:
	case <-ctx.Done():
		return w.stats(), ctx.Err()
	}
	return w.stats(), nil
}

func (w *BatchWriter) stats() WriterStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return WriterStats{
		Applied: atomic.LoadInt64(&w.applied),
		Failed:  int64(len(w.failed)),
		Errors:  append([]error(nil), w.failed...),
	}
}
