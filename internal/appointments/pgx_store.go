package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wolfman30/grooming-platform/internal/customers"
	"github.com/wolfman30/grooming-platform/internal/pets"
)

// Pool is the subset of pgxpool.Pool the store needs; pgxmock satisfies it
// in tests.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgxStore implements Store and Reader over Postgres.
type PgxStore struct {
	pool Pool
}

// NewPgxStore creates a store backed by pgx.
func NewPgxStore(pool Pool) *PgxStore {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &PgxStore{pool: pool}
}

// Begin opens a top-level booking transaction.
func (s *PgxStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("appointments: begin failed: %w", err)
	}
	return newPgxTx(tx), nil
}

// FindActiveInHour implements Reader.
func (s *PgxStore) FindActiveInHour(ctx context.Context, email, petName string, hourStart time.Time) (*Existing, error) {
	query := `
		SELECT a.id, c.email, p.name, a.scheduled_at
		FROM appointments a
		JOIN customers c ON c.id = a.customer_id
		JOIN pets p ON p.id = a.pet_id
		WHERE c.email = $1
		  AND lower(p.name) = $2
		  AND a.scheduled_at >= $3 AND a.scheduled_at < $4
		  AND a.status NOT IN ($5, $6)
		ORDER BY a.scheduled_at
		LIMIT 1
	`
	var found Existing
	err := s.pool.QueryRow(ctx, query,
		customers.CanonicalEmail(email),
		pets.CanonicalName(petName),
		hourStart,
		hourStart.Add(time.Hour),
		StatusCancelled,
		StatusCompleted,
	).Scan(&found.ID, &found.CustomerEmail, &found.PetName, &found.ScheduledAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: duplicate probe failed: %w", err)
	}
	return &found, nil
}

type pgxTx struct {
	tx        pgx.Tx
	customers *customers.PostgresRepository
	pets      *pets.PostgresRepository
}

func newPgxTx(tx pgx.Tx) *pgxTx {
	return &pgxTx{
		tx:        tx,
		customers: customers.NewPostgresRepository(tx),
		pets:      pets.NewPostgresRepository(tx),
	}
}

func (t *pgxTx) ResolveCustomer(ctx context.Context, draft customers.Draft, origin customers.Origin) (*customers.Customer, bool, error) {
	return t.customers.FindOrCreate(ctx, draft, origin)
}

func (t *pgxTx) ResolvePet(ctx context.Context, customerID uuid.UUID, draft pets.Draft) (*pets.Pet, bool, error) {
	return t.pets.FindOrCreate(ctx, customerID, draft)
}

func (t *pgxTx) CreateAppointment(ctx context.Context, rec *Record) error {
	appt := &rec.Appointment
	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}
	if appt.Status == "" {
		appt.Status = StatusScheduled
	}

	insert := `
		INSERT INTO appointments (id, customer_id, pet_id, service_id, scheduled_at, status, notes, total_cents, created_via, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`
	err := t.tx.QueryRow(ctx, insert,
		appt.ID,
		appt.CustomerID,
		appt.PetID,
		appt.ServiceID,
		appt.ScheduledAt,
		appt.Status,
		appt.Notes,
		appt.TotalCents,
		appt.CreatedVia,
		appt.CreatedBy,
	).Scan(&appt.CreatedAt)
	if err != nil {
		return fmt.Errorf("appointments: insert failed: %w", err)
	}

	if err := t.insertAddons(ctx, appt.ID, rec.AddonIDs); err != nil {
		return err
	}
	return t.insertPayment(ctx, appt.ID, rec.Payment)
}

func (t *pgxTx) OverwriteAppointment(ctx context.Context, existingID uuid.UUID, rec *Record) error {
	appt := &rec.Appointment
	appt.ID = existingID
	if appt.Status == "" {
		appt.Status = StatusScheduled
	}

	// created_via, created_by, and created_at deliberately untouched: the
	// overwritten record keeps its original creation provenance.
	update := `
		UPDATE appointments
		SET customer_id = $2, pet_id = $3, service_id = $4, scheduled_at = $5,
		    status = $6, notes = $7, total_cents = $8
		WHERE id = $1
	`
	tag, err := t.tx.Exec(ctx, update,
		existingID,
		appt.CustomerID,
		appt.PetID,
		appt.ServiceID,
		appt.ScheduledAt,
		appt.Status,
		appt.Notes,
		appt.TotalCents,
	)
	if err != nil {
		return fmt.Errorf("appointments: overwrite failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if _, err := t.tx.Exec(ctx, `DELETE FROM appointment_addons WHERE appointment_id = $1`, existingID); err != nil {
		return fmt.Errorf("appointments: clear addons failed: %w", err)
	}
	if err := t.insertAddons(ctx, existingID, rec.AddonIDs); err != nil {
		return err
	}
	if _, err := t.tx.Exec(ctx, `DELETE FROM payments WHERE appointment_id = $1`, existingID); err != nil {
		return fmt.Errorf("appointments: clear payment failed: %w", err)
	}
	return t.insertPayment(ctx, existingID, rec.Payment)
}

func (t *pgxTx) insertAddons(ctx context.Context, apptID uuid.UUID, addonIDs []uuid.UUID) error {
	for _, addonID := range addonIDs {
		_, err := t.tx.Exec(ctx,
			`INSERT INTO appointment_addons (appointment_id, addon_id) VALUES ($1, $2)`,
			apptID, addonID,
		)
		if err != nil {
			return fmt.Errorf("appointments: insert addon link failed: %w", err)
		}
	}
	return nil
}

func (t *pgxTx) insertPayment(ctx context.Context, apptID uuid.UUID, payment *Payment) error {
	if payment == nil {
		return nil
	}
	_, err := t.tx.Exec(ctx,
		`INSERT INTO payments (id, appointment_id, status, method, amount_paid_cents) VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), apptID, payment.Status, payment.Method, payment.AmountPaidCents,
	)
	if err != nil {
		return fmt.Errorf("appointments: insert payment failed: %w", err)
	}
	return nil
}

// Begin opens a nested scope; pgx maps it onto a savepoint.
func (t *pgxTx) Begin(ctx context.Context) (Tx, error) {
	nested, err := t.tx.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("appointments: nested begin failed: %w", err)
	}
	return newPgxTx(nested), nil
}

func (t *pgxTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *pgxTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}
