// Package store implements the temporal insight store: an append-only,
// per-session log of observations with time-range, threat-level, and
// semantic nearest-neighbor access.
package store

import "errors"

// Sentinel errors for store operations. Use errors.Is() to check for these
// in calling code.
var (
	// ErrValidation indicates a malformed inbound record. The record is
	// rejected and never stored.
	ErrValidation = errors.New("invalid insight record")

	// ErrEmbeddingUnavailable indicates no record in scope carries an
	// embedding. Semantic queries degrade to keyword matching instead of
	// surfacing this to callers; it exists for logging and tests.
	ErrEmbeddingUnavailable = errors.New("no embeddings available")
)
