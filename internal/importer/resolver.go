package importer

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/wolfman30/grooming-platform/internal/appointments"
	"github.com/wolfman30/grooming-platform/internal/customers"
	"github.com/wolfman30/grooming-platform/internal/pets"
)

// batchResolver consolidates entity creation within one import run. Each
// identity key maps to its resolved record, so N rows referencing the same
// not-yet-existing customer or pet produce exactly one created record. The
// cache is only populated after the owning row's transaction commits;
// uncommitted resolutions must not leak into later rows under the partial
// policy.
type batchResolver struct {
	origin  customers.Origin
	byEmail map[string]*customers.Customer
	byPet   map[string]*pets.Pet

	pendingCustomer *cacheEntry[customers.Customer]
	pendingPet      *cacheEntry[pets.Pet]
}

type cacheEntry[T any] struct {
	key   string
	value *T
}

func newBatchResolver(origin customers.Origin) *batchResolver {
	return &batchResolver{
		origin:  origin,
		byEmail: make(map[string]*customers.Customer),
		byPet:   make(map[string]*pets.Pet),
	}
}

func petCacheKey(customerID uuid.UUID, name string) string {
	return customerID.String() + "|" + pets.CanonicalName(name)
}

// resolve finds or creates the row's customer and pet inside tx. Results are
// staged; call commitRow after the transaction commits to make them
// available to later rows, or discardRow after a rollback.
func (b *batchResolver) resolve(ctx context.Context, tx appointments.Tx, row *ValidatedRow) (*customers.Customer, *pets.Pet, error) {
	b.pendingCustomer, b.pendingPet = nil, nil

	emailKey := row.Resolved.Customer.CanonicalEmail()
	cust, cached := b.byEmail[emailKey]
	if !cached {
		resolved, _, err := tx.ResolveCustomer(ctx, row.Resolved.Customer, b.origin)
		if err != nil {
			return nil, nil, fmt.Errorf("importer: resolve customer: %w", err)
		}
		cust = resolved
		b.pendingCustomer = &cacheEntry[customers.Customer]{key: emailKey, value: resolved}
	}

	petKey := petCacheKey(cust.ID, row.Resolved.Pet.Name)
	pet, cached := b.byPet[petKey]
	if !cached {
		resolved, _, err := tx.ResolvePet(ctx, cust.ID, row.Resolved.Pet)
		if err != nil {
			return nil, nil, fmt.Errorf("importer: resolve pet: %w", err)
		}
		pet = resolved
		b.pendingPet = &cacheEntry[pets.Pet]{key: petKey, value: resolved}
	}

	return cust, pet, nil
}

// commitRow publishes the staged resolutions to the batch cache.
func (b *batchResolver) commitRow() {
	if b.pendingCustomer != nil {
		b.byEmail[b.pendingCustomer.key] = b.pendingCustomer.value
		b.pendingCustomer = nil
	}
	if b.pendingPet != nil {
		b.byPet[b.pendingPet.key] = b.pendingPet.value
		b.pendingPet = nil
	}
}

// discardRow drops staged resolutions after a row rollback.
func (b *batchResolver) discardRow() {
	b.pendingCustomer = nil
	b.pendingPet = nil
}
