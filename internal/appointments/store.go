package appointments

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/grooming-platform/internal/customers"
	"github.com/wolfman30/grooming-platform/internal/pets"
)

// Store opens booking transactions. A Tx opened from the store commits
// independently; a Tx opened from another Tx is a nested scope (savepoint in
// the Postgres implementation) whose writes only become durable when every
// enclosing scope commits. The batch executor uses one Tx per row under the
// partial failure policy, and one outer Tx with nested per-row scopes under
// all_or_nothing.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
}

// Tx is one booking transaction. Entity resolution runs inside it so the
// customer, pet, appointment, and payment writes of a row appear atomically
// to any reader.
type Tx interface {
	// ResolveCustomer finds or creates the customer for the draft's canonical
	// email; the create is an atomic conditional insert on the unique email
	// key. Reports whether this call created the record.
	ResolveCustomer(ctx context.Context, draft customers.Draft, origin customers.Origin) (*customers.Customer, bool, error)

	// ResolvePet finds or creates a pet scoped to the customer, keyed on the
	// unique (customer, lower-cased name) constraint.
	ResolvePet(ctx context.Context, customerID uuid.UUID, draft pets.Draft) (*pets.Pet, bool, error)

	// CreateAppointment persists the appointment, its addon links, and the
	// optional payment row.
	CreateAppointment(ctx context.Context, rec *Record) error

	// OverwriteAppointment updates an existing appointment in place. The
	// record keeps its id, created_via, created_by, and created_at; addon
	// links and payment are replaced.
	OverwriteAppointment(ctx context.Context, existingID uuid.UUID, rec *Record) error

	// Begin opens a nested scope within this transaction.
	Begin(ctx context.Context) (Tx, error)

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Reader serves duplicate probes over committed appointments.
type Reader interface {
	// FindActiveInHour returns the first non-cancelled, non-completed
	// appointment for (customer email, pet name) whose scheduled time falls
	// inside [hourStart, hourStart+1h). Returns ErrNotFound when none exists.
	FindActiveInHour(ctx context.Context, email, petName string, hourStart time.Time) (*Existing, error)
}
