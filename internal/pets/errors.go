package pets

import "errors"

var (
	// ErrMissingName is returned when a draft has no name.
	ErrMissingName = errors.New("pet name is required")

	// ErrNotFound is returned when no pet matches the lookup.
	ErrNotFound = errors.New("pet not found")
)
