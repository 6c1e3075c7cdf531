package memory

import "errors"

var (
	ErrValidTimeAfterValidUntil = errors.New("memory: valid_time is after valid_until")
	ErrConfidenceOutOfRange     = errors.New("memory: confidence outside [0,1]")
	ErrContentHashMismatch      = errors.New("memory: content_hash does not match computed hash")
)
