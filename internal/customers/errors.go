package customers

import "errors"

var (
	// ErrMissingEmail is returned when a draft has no email.
	ErrMissingEmail = errors.New("customer email is required")

	// ErrMissingName is returned when a draft has no first name.
	ErrMissingName = errors.New("customer name is required")

	// ErrNotFound is returned when no customer matches the lookup.
	ErrNotFound = errors.New("customer not found")

	// ErrAlreadyActive is returned when activating a customer that already
	// completed registration.
	ErrAlreadyActive = errors.New("customer is already active")
)
