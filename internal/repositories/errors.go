package repositories

import "errors"

// Sentinel errors returned by every store in this package. Callers translate
// them into application errors at the service or handler boundary.
var (
	ErrNotFound = errors.New("repositories: record not found")
	ErrConflict = errors.New("repositories: unique constraint violated")
)
