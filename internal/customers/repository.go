package customers

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for customer storage.
type Repository interface {
	// FindOrCreate resolves a draft to a persisted customer. When no account
	// exists for the draft's canonical email a new inactive one is created
	// with the given origin; the create is a single conditional insert keyed
	// on the unique email constraint, so concurrent callers racing on the
	// same email converge on one record. The second return reports whether
	// this call created the record.
	FindOrCreate(ctx context.Context, draft Draft, origin Origin) (*Customer, bool, error)

	GetByEmail(ctx context.Context, email string) (*Customer, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Customer, error)

	// Activate transitions an inactive customer to active in place, attaching
	// the registration credential. The record's id never changes.
	Activate(ctx context.Context, email, credentialHash string) (*Customer, error)
}

// InMemoryRepository is a Repository backed by process memory, used in tests
// and local development.
type InMemoryRepository struct {
	mu      sync.RWMutex
	byEmail map[string]*Customer
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{byEmail: make(map[string]*Customer)}
}

// FindOrCreate implements Repository.
func (r *InMemoryRepository) FindOrCreate(ctx context.Context, draft Draft, origin Origin) (*Customer, bool, error) {
	if err := draft.Validate(); err != nil {
		return nil, false, err
	}

	key := draft.CanonicalEmail()

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byEmail[key]; ok {
		c := *existing
		return &c, false, nil
	}

	c := &Customer{
		ID:        uuid.New(),
		Email:     key,
		FirstName: draft.FirstName,
		LastName:  draft.LastName,
		Phone:     draft.Phone,
		Active:    false,
		Origin:    origin,
		CreatedAt: time.Now().UTC(),
	}
	r.byEmail[key] = c

	out := *c
	return &out, true, nil
}

// GetByEmail implements Repository.
func (r *InMemoryRepository) GetByEmail(ctx context.Context, email string) (*Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byEmail[CanonicalEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	out := *c
	return &out, nil
}

// GetByID implements Repository.
func (r *InMemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.byEmail {
		if c.ID == id {
			out := *c
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// Activate implements Repository.
func (r *InMemoryRepository) Activate(ctx context.Context, email, credentialHash string) (*Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byEmail[CanonicalEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	if c.Active {
		return nil, ErrAlreadyActive
	}
	c.Active = true
	c.CredentialHash = credentialHash

	out := *c
	return &out, nil
}
