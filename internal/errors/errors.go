// Package errors provides a unified error taxonomy for the Drift pipeline,
// the Cortex memory store and the Bridge.
package errors

import (
	"errors"
	"fmt"
)

// Kind groups error codes by the subsystem that raised them.
type Kind string

const (
	KindConfig   Kind = "config"
	KindStorage  Kind = "storage"
	KindParse    Kind = "parse"
	KindEvent    Kind = "event"
	KindSync     Kind = "sync"
	KindAnalysis Kind = "analysis"
	KindLicense  Kind = "license"
)

// Code identifies a specific failure within a Kind.
type Code string

const (
	// Config (CFG_1xxx)
	CodeInvalidConfig   Code = "CFG_1001"
	CodeMissingField    Code = "CFG_1002"
	CodeUnsupportedMode Code = "CFG_1003"

	// Storage (STORE_2xxx) - the Drift storage kernel
	CodeWriteConflict   Code = "STORE_2001"
	CodeNotFound        Code = "STORE_2002"
	CodeMigrationFailed Code = "STORE_2003"
	CodeTxFailed        Code = "STORE_2004"

	// Parse (PARSE_3xxx)
	CodeSyntaxError         Code = "PARSE_3001"
	CodeParseTimeout        Code = "PARSE_3002"
	CodeUnsupportedLanguage Code = "PARSE_3003"

	// Event / Cortex (EVENT_4xxx)
	CodeAppendConflict Code = "EVENT_4001"
	CodeSnapshotFailed Code = "EVENT_4002"
	CodeReplayFailed   Code = "EVENT_4003"
	CodeCyclicEdge     Code = "EVENT_4004"

	// Sync / CRDT (SYNC_5xxx)
	CodeClockConflict  Code = "SYNC_5001"
	CodeUntrustedPeer  Code = "SYNC_5002"
	CodeDeltaRejected  Code = "SYNC_5003"
	CodeNamespaceDenied Code = "SYNC_5004"

	// Analysis (ANALYSIS_6xxx)
	CodeDetectorPanic       Code = "ANALYSIS_6001"
	CodeRegexTimeout        Code = "ANALYSIS_6002"
	CodeTaintBudgetExceeded Code = "ANALYSIS_6003"
	CodeGateFailed          Code = "ANALYSIS_6004"
	CodeEventMappingFailed  Code = "ANALYSIS_6005"

	// License (LICENSE_7xxx)
	CodeFeatureLocked Code = "LICENSE_7001"
	CodeTierExceeded  Code = "LICENSE_7002"
)

// DriftError is a structured error carrying a taxonomy Kind/Code, a message
// and optional machine-readable details.
type DriftError struct {
	Kind    Kind
	Code    Code
	Message string
	Details map[string]any
	Err     error
}

// Error implements the error interface.
func (e *DriftError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *DriftError) Unwrap() error {
	return e.Err
}

// WithDetails attaches a detail key/value pair and returns the receiver for chaining.
func (e *DriftError) WithDetails(key string, value any) *DriftError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// Retryable reports whether the condition that produced the error is
// expected to be transient (lock contention, timeouts) as opposed to
// a structural failure the caller should not retry.
func (e *DriftError) Retryable() bool {
	switch e.Code {
	case CodeWriteConflict, CodeTxFailed, CodeParseTimeout, CodeRegexTimeout, CodeClockConflict:
		return true
	default:
		return false
	}
}

// New creates a DriftError.
func New(kind Kind, code Code, message string) *DriftError {
	return &DriftError{Kind: kind, Code: code, Message: message}
}

// Wrap creates a DriftError around an existing error.
func Wrap(kind Kind, code Code, message string, err error) *DriftError {
	return &DriftError{Kind: kind, Code: code, Message: message, Err: err}
}

// --- Config ---

func InvalidConfig(field, reason string) *DriftError {
	return New(KindConfig, CodeInvalidConfig, "invalid configuration").
		WithDetails("field", field).
		WithDetails("reason", reason)
}

func MissingField(field string) *DriftError {
	return New(KindConfig, CodeMissingField, "missing required configuration field").
		WithDetails("field", field)
}

// --- Storage ---

func WriteConflict(table string, err error) *DriftError {
	return Wrap(KindStorage, CodeWriteConflict, "storage write conflict", err).
		WithDetails("table", table)
}

func NotFound(resource, id string) *DriftError {
	return New(KindStorage, CodeNotFound, "resource not found").
		WithDetails("resource", resource).
		WithDetails("id", id)
}

func MigrationFailed(version string, err error) *DriftError {
	return Wrap(KindStorage, CodeMigrationFailed, "migration failed", err).
		WithDetails("version", version)
}

func TxFailed(operation string, err error) *DriftError {
	return Wrap(KindStorage, CodeTxFailed, "transaction failed", err).
		WithDetails("operation", operation)
}

// --- Parse ---

func SyntaxError(path string, err error) *DriftError {
	return Wrap(KindParse, CodeSyntaxError, "syntax error", err).
		WithDetails("path", path)
}

func ParseTimeout(path string) *DriftError {
	return New(KindParse, CodeParseTimeout, "parse timed out").
		WithDetails("path", path)
}

func UnsupportedLanguage(path, language string) *DriftError {
	return New(KindParse, CodeUnsupportedLanguage, "unsupported language").
		WithDetails("path", path).
		WithDetails("language", language)
}

// --- Event / Cortex ---

func AppendConflict(streamID string, expected, actual int64) *DriftError {
	return New(KindEvent, CodeAppendConflict, "event append out of sequence").
		WithDetails("stream_id", streamID).
		WithDetails("expected", expected).
		WithDetails("actual", actual)
}

func SnapshotFailed(trigger string, err error) *DriftError {
	return Wrap(KindEvent, CodeSnapshotFailed, "snapshot construction failed", err).
		WithDetails("trigger", trigger)
}

func ReplayFailed(fromEventID int64, err error) *DriftError {
	return Wrap(KindEvent, CodeReplayFailed, "event replay failed", err).
		WithDetails("from_event_id", fromEventID)
}

func CyclicEdge(fromID, toID string) *DriftError {
	return New(KindEvent, CodeCyclicEdge, "causal edge would introduce a cycle").
		WithDetails("from", fromID).
		WithDetails("to", toID)
}

// --- Sync / CRDT ---

func ClockConflict(agentID string) *DriftError {
	return New(KindSync, CodeClockConflict, "vector clock out of order").
		WithDetails("agent_id", agentID)
}

func UntrustedPeer(agentID string, trust float64) *DriftError {
	return New(KindSync, CodeUntrustedPeer, "peer trust below acceptance threshold").
		WithDetails("agent_id", agentID).
		WithDetails("trust", trust)
}

func DeltaRejected(reason string) *DriftError {
	return New(KindSync, CodeDeltaRejected, "delta rejected").
		WithDetails("reason", reason)
}

func NamespaceDenied(namespace, agentID string) *DriftError {
	return New(KindSync, CodeNamespaceDenied, "namespace access denied").
		WithDetails("namespace", namespace).
		WithDetails("agent_id", agentID)
}

// --- Analysis ---

func DetectorPanic(category string, recovered any) *DriftError {
	return New(KindAnalysis, CodeDetectorPanic, "detector visitor panicked").
		WithDetails("category", category).
		WithDetails("recovered", fmt.Sprint(recovered))
}

func RegexTimeout(pattern string) *DriftError {
	return New(KindAnalysis, CodeRegexTimeout, "regular expression evaluation timed out").
		WithDetails("pattern", pattern)
}

func TaintBudgetExceeded(path string, depth int) *DriftError {
	return New(KindAnalysis, CodeTaintBudgetExceeded, "taint propagation exceeded depth budget").
		WithDetails("path", path).
		WithDetails("depth", depth)
}

func GateFailed(gate string, reason string) *DriftError {
	return New(KindAnalysis, CodeGateFailed, "enforcement gate failed").
		WithDetails("gate", gate).
		WithDetails("reason", reason)
}

// --- License ---

func FeatureLocked(feature, tier string) *DriftError {
	return New(KindLicense, CodeFeatureLocked, "feature not available in current license tier").
		WithDetails("feature", feature).
		WithDetails("tier", tier)
}

func TierExceeded(limit string) *DriftError {
	return New(KindLicense, CodeTierExceeded, "license tier limit exceeded").
		WithDetails("limit", limit)
}

// --- Helpers ---

// IsDriftError reports whether err is, or wraps, a *DriftError.
func IsDriftError(err error) bool {
	var de *DriftError
	return errors.As(err, &de)
}

// GetDriftError extracts a *DriftError from an error chain.
func GetDriftError(err error) *DriftError {
	var de *DriftError
	if errors.As(err, &de) {
		return de
	}
	return nil
}

// KindOf returns the Kind of err, or "" if it is not a DriftError.
func KindOf(err error) Kind {
	if de := GetDriftError(err); de != nil {
		return de.Kind
	}
	return ""
}
