package catalog

import "errors"

var (
	// ErrServiceNotFound is returned when no service matches the name.
	ErrServiceNotFound = errors.New("service not found")

	// ErrAddonNotFound is returned when no addon matches the name.
	ErrAddonNotFound = errors.New("addon not found")

	// ErrPriceNotFound is returned when no price entry exists for the
	// (service, size) pair.
	ErrPriceNotFound = errors.New("no price for service and size")
)
