package catalog

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/wolfman30/grooming-platform/internal/pets"
)

type priceKey struct {
	serviceID uuid.UUID
	size      pets.Size
}

// InMemoryCatalog is a Catalog backed by process memory, used in tests and
// local development.
type InMemoryCatalog struct {
	mu       sync.RWMutex
	services map[string]*Service
	addons   map[string]*Addon
	prices   map[priceKey]int
}

// NewInMemoryCatalog creates an empty in-memory catalog.
func NewInMemoryCatalog() *InMemoryCatalog {
	return &InMemoryCatalog{
		services: make(map[string]*Service),
		addons:   make(map[string]*Addon),
		prices:   make(map[priceKey]int),
	}
}

// AddService registers a service and returns it.
func (c *InMemoryCatalog) AddService(name string) *Service {
	c.mu.Lock()
	defer c.mu.Unlock()

	svc := &Service{ID: uuid.New(), Name: name}
	c.services[strings.ToLower(name)] = svc
	return svc
}

// AddAddon registers an addon and returns it.
func (c *InMemoryCatalog) AddAddon(name string, priceCents int) *Addon {
	c.mu.Lock()
	defer c.mu.Unlock()

	a := &Addon{ID: uuid.New(), Name: name, PriceCents: priceCents}
	c.addons[strings.ToLower(name)] = a
	return a
}

// SetPrice registers a price for (service, size).
func (c *InMemoryCatalog) SetPrice(serviceID uuid.UUID, size pets.Size, cents int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.prices[priceKey{serviceID: serviceID, size: size}] = cents
}

// ServiceByName implements Catalog.
func (c *InMemoryCatalog) ServiceByName(ctx context.Context, name string) (*Service, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	svc, ok := c.services[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, ErrServiceNotFound
	}
	out := *svc
	return &out, nil
}

// AddonByName implements Catalog.
func (c *InMemoryCatalog) AddonByName(ctx context.Context, name string) (*Addon, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	a, ok := c.addons[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, ErrAddonNotFound
	}
	out := *a
	return &out, nil
}

// Price implements Catalog.
func (c *InMemoryCatalog) Price(ctx context.Context, serviceID uuid.UUID, size pets.Size) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cents, ok := c.prices[priceKey{serviceID: serviceID, size: size}]
	if !ok {
		return 0, ErrPriceNotFound
	}
	return cents, nil
}
