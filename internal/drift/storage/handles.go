// Package storage is the Drift storage kernel: a single-writer, N-reader
// SQLite backend with a command-queue BatchWriter and a set of trait
// interfaces grouping the queries each pipeline stage needs. Cloud or other
// backends satisfy the same interfaces without the pipeline code changing.
package storage

import (
	"context"
	"time"
)

// FileRecord is the persisted state of one scanned file.
type FileRecord struct {
	Path          string    `db:"path"`
	ContentHash   string    `db:"content_hash"`
	Language      string    `db:"language"`
	Size          int64     `db:"size"`
	LastScannedAt time.Time `db:"last_scanned_at"`
}

// FunctionRecord is one function/method extracted from a ParseResult.
type FunctionRecord struct {
	ID          string `db:"id"`
	Path        string `db:"path"`
	ContentHash string `db:"content_hash"`
	Name        string `db:"name"`
	StartLine   int    `db:"start_line"`
	EndLine     int    `db:"end_line"`
	Signature   string `db:"signature"`
}

// DetectionRecord is a persisted PatternMatch/Detection.
type DetectionRecord struct {
	ID              string    `db:"id"`
	Path            string    `db:"path"`
	ContentHash     string    `db:"content_hash"`
	PatternID       string    `db:"pattern_id"`
	Category        string    `db:"category"`
	Confidence      float64   `db:"confidence"`
	DetectionMethod string    `db:"detection_method"`
	Line            int       `db:"line"`
	Column          int       `db:"column"`
	CWE             string    `db:"cwe"`
	OWASP           string    `db:"owasp"`
	MatchedText     string    `db:"matched_text"`
	CreatedAt       time.Time `db:"created_at"`
}

// ConventionRecord is a discovered team convention (pattern intelligence).
type ConventionRecord struct {
	ID          string
	Category    string
	Pattern     string
	Confidence  float64
	SampleCount int
	UpdatedAt   time.Time
}

// CouplingRecord is a pairwise afferent/efferent coupling measurement.
type CouplingRecord struct {
	Path          string
	DependsOn     string
	Instability   float64
	AfferentCount int
	EfferentCount int
	UpdatedAt     time.Time
}

// ViolationRecord is a persisted enforcement Violation.
type ViolationRecord struct {
	ID         string
	RuleID     string
	Path       string
	Severity   string
	Message    string
	QuickFix   string
	Suppressed bool
	IsNew      bool
	CreatedAt  time.Time
}

// GateResultRecord is a persisted GateResult.
type GateResultRecord struct {
	ID            string
	Gate          string
	Pass          bool
	Score         float64
	Summary       string
	ExecutionTime time.Duration
	CreatedAt     time.Time
}

// TaintFlowRecord is one source-to-sink taint propagation finding.
type TaintFlowRecord struct {
	ID         string
	SourcePath string
	SourceLine int
	SinkPath   string
	SinkLine   int
	Tag        string
	Confidence float64
	CreatedAt  time.Time
}

// FileDNARecord captures the secondary-detector "DNA" fingerprint for a file.
type FileDNARecord struct {
	Path       string
	Fingerprint string
	UniqueID   string
	UpdatedAt  time.Time
}

// ConstraintRecord is a persisted PaesslerAG/gval constraint expression bound
// to a path or pattern.
type ConstraintRecord struct {
	ID         string
	Path       string
	Expression string
	Severity   string
	UpdatedAt  time.Time
}

// DriftSnapshotRecord is a persisted DriftSnapshot (see internal/cortex/temporal).
type DriftSnapshotRecord struct {
	ID                   string    `db:"id"`
	WindowStart          time.Time `db:"window_start"`
	WindowEnd            time.Time `db:"window_end"`
	KSI                  float64   `db:"ksi"`
	ContradictionDensity float64   `db:"contradiction_density"`
	ConsolidationEff     float64   `db:"consolidation_eff"`
	EvidenceFreshness    float64   `db:"evidence_freshness"`
	AverageConfidence    float64   `db:"average_confidence"`
	MemoryCount          int       `db:"memory_count"`
}

// IDriftFiles groups file-table queries used by the scanner and parser.
type IDriftFiles interface {
	UpsertFile(ctx context.Context, rec FileRecord) error
	DeleteFile(ctx context.Context, path string) error
	GetFile(ctx context.Context, path string) (FileRecord, bool, error)
	ListFiles(ctx context.Context) ([]FileRecord, error)
}

// IDriftAnalysis groups the detection-engine's write and lookup queries.
type IDriftAnalysis interface {
	InsertFunctions(ctx context.Context, funcs []FunctionRecord) error
	FunctionsForPath(ctx context.Context, path string) ([]FunctionRecord, error)
	InsertDetections(ctx context.Context, detections []DetectionRecord) error
	DetectionsForPath(ctx context.Context, path string) ([]DetectionRecord, error)
	DetectionsByCategory(ctx context.Context, category string) ([]DetectionRecord, error)
}

// IDriftStructural groups pattern-intelligence and coupling queries.
type IDriftStructural interface {
	UpsertConvention(ctx context.Context, rec ConventionRecord) error
	ConventionsForCategory(ctx context.Context, category string) ([]ConventionRecord, error)
	UpsertCoupling(ctx context.Context, rec CouplingRecord) error
	CouplingForPath(ctx context.Context, path string) ([]CouplingRecord, error)
}

// AuditRecord is one entry in the audit_log table. Every mutation spec.md
// §4.9 requires auditing is recorded here: rule changes, gate runs, policy
// overrides, feedback adjustments.
type AuditRecord struct {
	ID        string
	RunID     string
	Action    string
	Actor     string
	Detail    string
	CreatedAt time.Time
}

// IDriftEnforcement groups gate/violation persistence.
type IDriftEnforcement interface {
	InsertViolations(ctx context.Context, violations []ViolationRecord) error
	ViolationsForPath(ctx context.Context, path string) ([]ViolationRecord, error)
	InsertGateResult(ctx context.Context, rec GateResultRecord) error
	LatestGateResults(ctx context.Context) ([]GateResultRecord, error)
	InsertAudit(ctx context.Context, rec AuditRecord) error
	AuditForRun(ctx context.Context, runID string) ([]AuditRecord, error)
}

// IDriftAdvanced groups the secondary-detector tables: taint, DNA, constraints.
type IDriftAdvanced interface {
	InsertTaintFlows(ctx context.Context, flows []TaintFlowRecord) error
	TaintFlowsForPath(ctx context.Context, path string) ([]TaintFlowRecord, error)
	UpsertFileDNA(ctx context.Context, rec FileDNARecord) error
	FileDNA(ctx context.Context, path string) (FileDNARecord, bool, error)
	UpsertConstraint(ctx context.Context, rec ConstraintRecord) error
	ConstraintsForPath(ctx context.Context, path string) ([]ConstraintRecord, error)
}

// IDriftReader groups aggregate queries that span concerns (drift snapshots,
// cross-table scans); InsertDriftSnapshot is the one write among them.
type IDriftReader interface {
	InsertDriftSnapshot(ctx context.Context, rec DriftSnapshotRecord) error
	DriftSnapshotsInRange(ctx context.Context, start, end time.Time) ([]DriftSnapshotRecord, error)
}

// IDriftBatchWriter is the command-queue facade every pipeline stage enqueues
// mutations through; see batchwriter.go.
type IDriftBatchWriter interface {
	Enqueue(cmd BatchCommand) error
	Flush(ctx context.Context) error
	Shutdown(ctx context.Context) (WriterStats, error)
}

// Handles is the full set of storage access points the pipeline depends on.
// It mirrors the teacher's app.Stores{Accounts, Functions, Triggers, ...}
// composition, generalized to Drift's concerns.
type Handles struct {
	Files       IDriftFiles
	Analysis    IDriftAnalysis
	Structural  IDriftStructural
	Enforcement IDriftEnforcement
	Advanced    IDriftAdvanced
	Reader      IDriftReader
	Writer      IDriftBatchWriter
}

// compositeHandles forwards every trait method via embedding, so a Handles
// can be assembled from heterogeneous backends (e.g. a cloud-only reader
// paired with the local SQLite writer) without each backend having to
// implement concerns it doesn't own.
type compositeHandles struct {
	IDriftFiles
	IDriftAnalysis
	IDriftStructural
	IDriftEnforcement
	IDriftAdvanced
	IDriftReader
	IDriftBatchWriter
}

// NewHandles assembles a Handles from the given per-concern implementations. Any argument may be a different
// concrete backend than the others.
func NewHandles(files IDriftFiles, analysis IDriftAnalysis, structural IDriftStructural, enforcement IDriftEnforcement, advanced IDriftAdvanced, reader IDriftReader, writer IDriftBatchWriter) Handles {
	return Handles{
		Files:       files,
		Analysis:    analysis,
		Structural:  structural,
		Enforcement: enforcement,
		Advanced:    advanced,
		Reader:      reader,
		Writer:      writer,
	}
}
