package pets

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for pet storage.
type Repository interface {
	// FindOrCreate resolves a draft to a persisted pet scoped to the given
	// customer. Creation is a single conditional insert keyed on the unique
	// (customer_id, lower(name)) constraint. The second return reports
	// whether this call created the record.
	FindOrCreate(ctx context.Context, customerID uuid.UUID, draft Draft) (*Pet, bool, error)

	GetByName(ctx context.Context, customerID uuid.UUID, name string) (*Pet, error)
}

type petKey struct {
	customerID uuid.UUID
	name       string
}

// InMemoryRepository is a Repository backed by process memory.
type InMemoryRepository struct {
	mu     sync.RWMutex
	byName map[petKey]*Pet
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{byName: make(map[petKey]*Pet)}
}

// FindOrCreate implements Repository.
func (r *InMemoryRepository) FindOrCreate(ctx context.Context, customerID uuid.UUID, draft Draft) (*Pet, bool, error) {
	if err := draft.Validate(); err != nil {
		return nil, false, err
	}

	key := petKey{customerID: customerID, name: draft.CanonicalName()}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byName[key]; ok {
		p := *existing
		return &p, false, nil
	}

	p := &Pet{
		ID:         uuid.New(),
		CustomerID: customerID,
		Name:       draft.Name,
		Breed:      draft.Breed,
		Size:       draft.Size,
		WeightLbs:  draft.WeightLbs,
		CreatedAt:  time.Now().UTC(),
	}
	r.byName[key] = p

	out := *p
	return &out, true, nil
}

// GetByName implements Repository.
func (r *InMemoryRepository) GetByName(ctx context.Context, customerID uuid.UUID, name string) (*Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byName[petKey{customerID: customerID, name: CanonicalName(name)}]
	if !ok {
		return nil, ErrNotFound
	}
	out := *p
	return &out, nil
}
