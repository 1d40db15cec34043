package domain

import "errors"

// ErrInvalidConfiguration is fatal to a run: negative hold offsets,
// non-positive weights, malformed date ranges. Nothing is computed when
// a component surfaces this.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// ErrInsufficientCandidates signals that filtering removed every candidate.
// Callers should treat this as a recoverable outcome, not a crash.
var ErrInsufficientCandidates = errors.New("insufficient candidates")
