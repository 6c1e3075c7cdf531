package errors

import (
	"errors"
	"testing"
)

func TestDriftError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *DriftError
		want string
	}{
		{
			name: "error without underlying error",
			err:  New(KindStorage, CodeNotFound, "resource not found"),
			want: "[STORE_2002] resource not found",
		},
		{
			name: "error with underlying error",
			err:  Wrap(KindStorage, CodeTxFailed, "transaction failed", errors.New("disk full")),
			want: "[STORE_2004] transaction failed: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDriftError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := Wrap(KindEvent, CodeReplayFailed, "test", underlying)

	if got := err.Unwrap(); got != underlying {
		t.Errorf("Unwrap() = %v, want %v", got, underlying)
	}
}

func TestDriftError_WithDetails(t *testing.T) {
	err := New(KindConfig, CodeInvalidConfig, "test")
	err.WithDetails("field", "scan.root").WithDetails("reason", "empty")

	if len(err.Details) != 2 {
		t.Errorf("Details length = %d, want 2", len(err.Details))
	}
	if err.Details["field"] != "scan.root" {
		t.Errorf("Details[field] = %v, want scan.root", err.Details["field"])
	}
}

func TestDriftError_Retryable(t *testing.T) {
	if !WriteConflict("detections", errors.New("busy")).Retryable() {
		t.Errorf("WriteConflict should be retryable")
	}
	if NotFound("detection", "abc").Retryable() {
		t.Errorf("NotFound should not be retryable")
	}
}

func TestNotFound(t *testing.T) {
	err := NotFound("detection", "abc123")

	if err.Code != CodeNotFound {
		t.Errorf("Code = %v, want %v", err.Code, CodeNotFound)
	}
	if err.Kind != KindStorage {
		t.Errorf("Kind = %v, want %v", err.Kind, KindStorage)
	}
	if err.Details["resource"] != "detection" {
		t.Errorf("Details[resource] = %v, want detection", err.Details["resource"])
	}
}

func TestAppendConflict(t *testing.T) {
	err := AppendConflict("stream-1", 5, 7)

	if err.Code != CodeAppendConflict {
		t.Errorf("Code = %v, want %v", err.Code, CodeAppendConflict)
	}
	if err.Details["expected"] != int64(5) {
		t.Errorf("Details[expected] = %v, want 5", err.Details["expected"])
	}
}

func TestUntrustedPeer(t *testing.T) {
	err := UntrustedPeer("agent-7", 0.1)

	if err.Code != CodeUntrustedPeer {
		t.Errorf("Code = %v, want %v", err.Code, CodeUntrustedPeer)
	}
	if err.Details["trust"] != 0.1 {
		t.Errorf("Details[trust] = %v, want 0.1", err.Details["trust"])
	}
}

func TestDetectorPanic(t *testing.T) {
	err := DetectorPanic("security", "index out of range")

	if err.Code != CodeDetectorPanic {
		t.Errorf("Code = %v, want %v", err.Code, CodeDetectorPanic)
	}
	if err.Kind != KindAnalysis {
		t.Errorf("Kind = %v, want %v", err.Kind, KindAnalysis)
	}
}

func TestFeatureLocked(t *testing.T) {
	err := FeatureLocked("causal_graph_export", "community")

	if err.Code != CodeFeatureLocked {
		t.Errorf("Code = %v, want %v", err.Code, CodeFeatureLocked)
	}
	if err.Kind != KindLicense {
		t.Errorf("Kind = %v, want %v", err.Kind, KindLicense)
	}
}

func TestIsDriftError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "drift error", err: New(KindStorage, CodeNotFound, "test"), want: true},
		{name: "standard error", err: errors.New("standard error"), want: false},
		{name: "nil error", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDriftError(tt.err); got != tt.want {
				t.Errorf("IsDriftError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetDriftError(t *testing.T) {
	de := New(KindStorage, CodeNotFound, "test")
	standard := errors.New("standard")

	if got := GetDriftError(de); got != de {
		t.Errorf("GetDriftError(de) = %v, want %v", got, de)
	}
	if got := GetDriftError(standard); got != nil {
		t.Errorf("GetDriftError(standard) = %v, want nil", got)
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(New(KindSync, CodeClockConflict, "test")); got != KindSync {
		t.Errorf("KindOf() = %v, want %v", got, KindSync)
	}
	if got := KindOf(errors.New("plain")); got != "" {
		t.Errorf("KindOf() = %v, want empty", got)
	}
}
