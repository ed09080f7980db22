package storage

import "errors"

// Common storage errors.
var (
	// ErrNotFound is returned when a document is not found.
	ErrNotFound = errors.New("document not found")

	// ErrConflict is returned when a document changed since the revision
	// the caller read.
	ErrConflict = errors.New("document revision conflict")
)
