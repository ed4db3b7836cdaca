package repository

import "errors"

// Shared repository errors. Infrastructure implementations map their
// driver-specific failures onto these before returning.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicateEntry indicates a write violated a uniqueness constraint.
	ErrDuplicateEntry = errors.New("repository: duplicate entry")
)

var (
	ErrSnapshotNotFound = ErrNotFound
)
