// Package memory defines the Cortex Memory data model: the atomic,
// bitemporal knowledge unit that the event store, causal graph and CRDT
// sync layers all operate on.
package memory

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// ContentVariant discriminates the kind of knowledge a Memory carries.
type ContentVariant string

const (
	VariantEpisodic          ContentVariant = "episodic"
	VariantSemantic          ContentVariant = "semantic"
	VariantDecision          ContentVariant = "decision"
	VariantPatternRationale  ContentVariant = "pattern_rationale"
	VariantTribal            ContentVariant = "tribal"
	VariantFeedback          ContentVariant = "feedback"
	VariantConstraintOverride ContentVariant = "constraint_override"
	VariantInsight           ContentVariant = "insight"
	VariantCodeSmell         ContentVariant = "code_smell"
	VariantDecisionContext   ContentVariant = "decision_context"
)

// Links collects the cross-references a memory may carry to other system
// entities.
type Links struct {
	Patterns    []string `json:"patterns,omitempty"`
	Constraints []string `json:"constraints,omitempty"`
	Files       []string `json:"files,omitempty"`
	Functions   []string `json:"functions,omitempty"`
}

// Memory is the atomic unit of knowledge stored by Cortex.
type Memory struct {
	ID              string         `json:"id"`
	Variant         ContentVariant `json:"variant"`
	Summary         string         `json:"summary"`
	Content         json.RawMessage `json:"content,omitempty"`
	TransactionTime time.Time      `json:"transaction_time"`
	ValidTime       time.Time      `json:"valid_time"`
	ValidUntil      *time.Time     `json:"valid_until,omitempty"`
	Confidence      float64        `json:"confidence"`
	Importance      int            `json:"importance"`
	AccessCount     int64          `json:"access_count"`
	LastAccessedAt  *time.Time     `json:"last_accessed_at,omitempty"`
	Links           Links          `json:"links"`
	Tags            []string       `json:"tags,omitempty"`
	Archived        bool           `json:"archived"`
	Supersedes      *string        `json:"supersedes,omitempty"`
	SupersededBy    *string        `json:"superseded_by,omitempty"`
	ContentHash     string         `json:"content_hash"`
	Namespace       string         `json:"namespace"`
	SourceAgent     string         `json:"source_agent"`
}

// ContentHash computes content_hash as a pure function of the fields that
// define the memory's meaning (variant, summary, content, valid_time,
// namespace) — explicitly NOT of mutable bookkeeping fields like
// access_count or confidence, so in-place mutations of those fields never
// change identity.
func ContentHash(variant ContentVariant, summary string, content json.RawMessage, validTime time.Time, namespace string) string {
	h := sha256.New()
	h.Write([]byte(variant))
	h.Write([]byte{0})
	h.Write([]byte(summary))
	h.Write([]byte{0})
	h.Write(content)
	h.Write([]byte{0})
	h.Write([]byte(validTime.UTC().Format(time.RFC3339Nano)))
	h.Write([]byte{0})
	h.Write([]byte(namespace))
	return hex.EncodeToString(h.Sum(nil))
}

// Validate checks the structural invariants spec.md §3 places on a Memory.
// It does not check supersedes/superseded_by resolution, which requires a
// store lookup and is the caller's responsibility.
func (m *Memory) Validate() error {
	if m.ValidUntil != nil && m.ValidTime.After(*m.ValidUntil) {
		return ErrValidTimeAfterValidUntil
	}
	if m.Confidence < 0 || m.Confidence > 1 {
		return ErrConfidenceOutOfRange
	}
	want := ContentHash(m.Variant, m.Summary, m.Content, m.ValidTime, m.Namespace)
	if m.ContentHash != "" && m.ContentHash != want {
		return ErrContentHashMismatch
	}
	return nil
}

// Touch records an access, incrementing AccessCount and stamping
// LastAccessedAt — one of the few in-place mutations the model permits.
func (m *Memory) Touch(at time.Time) {
	m.AccessCount++
	m.LastAccessedAt = &at
}

// IsLive reports whether the memory is valid at the given valid_time,
// i.e. valid_until is unset or strictly after valid_time.
func (m *Memory) IsLive(at time.Time) bool {
	return m.ValidUntil == nil || at.Before(*m.ValidUntil)
}
