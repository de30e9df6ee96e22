package customers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgx operations the repository needs. Both *pgxpool.Pool
// and pgx.Tx satisfy it, so the same repository runs standalone or inside a
// caller-managed transaction.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores customers in the relational database.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository initializes a repo backed by pgx.
func NewPostgresRepository(db DB) *PostgresRepository {
	if db == nil {
		panic("customers: pgx db required")
	}
	return &PostgresRepository{db: db}
}

// WithDB returns a copy of the repository bound to a different executor,
// typically a pgx.Tx.
func (r *PostgresRepository) WithDB(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const customerColumns = `id, email, first_name, last_name, phone, active, coalesce(credential_hash, ''), origin, created_at`

// FindOrCreate inserts the draft with ON CONFLICT DO NOTHING on the unique
// email key, then reads whichever row won. Two concurrent imports resolving
// the same new email therefore cannot both create a customer.
func (r *PostgresRepository) FindOrCreate(ctx context.Context, draft Draft, origin Origin) (*Customer, bool, error) {
	if err := draft.Validate(); err != nil {
		return nil, false, err
	}

	email := draft.CanonicalEmail()
	id := uuid.New()

	insert := `
		INSERT INTO customers (id, email, first_name, last_name, phone, active, origin)
		VALUES ($1, $2, $3, $4, $5, false, $6)
		ON CONFLICT (email) DO NOTHING
		RETURNING ` + customerColumns
	var c Customer
	err := r.db.QueryRow(ctx, insert,
		id,
		email,
		draft.FirstName,
		draft.LastName,
		draft.Phone,
		origin,
	).Scan(
		&c.ID, &c.Email, &c.FirstName, &c.LastName, &c.Phone,
		&c.Active, &c.CredentialHash, &c.Origin, &c.CreatedAt,
	)
	if err == nil {
		return &c, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("customers: conditional insert failed: %w", err)
	}

	// Conflict: another writer owns this email. Read the winning row.
	existing, err := r.GetByEmail(ctx, email)
	if err != nil {
		return nil, false, fmt.Errorf("customers: read after conflict: %w", err)
	}
	return existing, false, nil
}

// GetByEmail fetches a customer by canonical email.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE email = $1`
	var c Customer
	err := r.db.QueryRow(ctx, query, CanonicalEmail(email)).Scan(
		&c.ID, &c.Email, &c.FirstName, &c.LastName, &c.Phone,
		&c.Active, &c.CredentialHash, &c.Origin, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("customers: select by email failed: %w", err)
	}
	return &c, nil
}

// GetByID fetches a customer by id.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	var c Customer
	err := r.db.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Email, &c.FirstName, &c.LastName, &c.Phone,
		&c.Active, &c.CredentialHash, &c.Origin, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("customers: select by id failed: %w", err)
	}
	return &c, nil
}

// Activate flips an inactive customer to active and attaches the credential.
// The update is keyed on email and the current inactive state so a repeated
// registration cannot overwrite an established credential.
func (r *PostgresRepository) Activate(ctx context.Context, email, credentialHash string) (*Customer, error) {
	query := `
		UPDATE customers
		SET active = true, credential_hash = $2
		WHERE email = $1 AND active = false
		RETURNING ` + customerColumns
	var c Customer
	err := r.db.QueryRow(ctx, query, CanonicalEmail(email), credentialHash).Scan(
		&c.ID, &c.Email, &c.FirstName, &c.LastName, &c.Phone,
		&c.Active, &c.CredentialHash, &c.Origin, &c.CreatedAt,
	)
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("customers: activate failed: %w", err)
	}

	// Distinguish "no such customer" from "already active".
	existing, lookupErr := r.GetByEmail(ctx, email)
	if lookupErr != nil {
		return nil, lookupErr
	}
	if existing.Active {
		return nil, ErrAlreadyActive
	}
	return nil, ErrNotFound
}
