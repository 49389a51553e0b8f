package models

import "github.com/google/uuid"

// NewRunID generates a random run identifier. The pipeline prefers ids
// derived from the input fingerprint, which keep repeated runs of the
// same inputs byte-identical; this is the fallback when no fingerprint
// is available.
func NewRunID() string {
	return uuid.NewString()
}
