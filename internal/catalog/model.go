package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/wolfman30/grooming-platform/internal/pets"
)

// Service is a grooming service offered by the shop. Prices vary by pet size
// and live in the service_prices table.
type Service struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Addon is an optional extra with a flat price.
type Addon struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	PriceCents int       `json:"price_cents"`
}

// Catalog resolves service and addon names and looks up prices. The pricing
// source is external to the import pipeline; implementations may be the
// platform database or a remote catalog.
type Catalog interface {
	// ServiceByName matches case-insensitively; returns ErrServiceNotFound.
	ServiceByName(ctx context.Context, name string) (*Service, error)
	// AddonByName matches case-insensitively; returns ErrAddonNotFound.
	AddonByName(ctx context.Context, name string) (*Addon, error)
	// Price returns the price in cents for (service, size); returns
	// ErrPriceNotFound when no entry exists.
	Price(ctx context.Context, serviceID uuid.UUID, size pets.Size) (int, error)
}
