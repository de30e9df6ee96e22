package pets

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgx operations the repository needs. Both *pgxpool.Pool
// and pgx.Tx satisfy it.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores pets in the relational database.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository initializes a repo backed by pgx.
func NewPostgresRepository(db DB) *PostgresRepository {
	if db == nil {
		panic("pets: pgx db required")
	}
	return &PostgresRepository{db: db}
}

// WithDB returns a copy of the repository bound to a different executor,
// typically a pgx.Tx.
func (r *PostgresRepository) WithDB(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const petColumns = `id, customer_id, name, breed, size, weight_lbs, created_at`

// FindOrCreate inserts the draft with ON CONFLICT DO NOTHING on the unique
// (customer_id, lower(name)) key, then reads whichever row won.
func (r *PostgresRepository) FindOrCreate(ctx context.Context, customerID uuid.UUID, draft Draft) (*Pet, bool, error) {
	if err := draft.Validate(); err != nil {
		return nil, false, err
	}

	insert := `
		INSERT INTO pets (id, customer_id, name, breed, size, weight_lbs)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (customer_id, lower(name)) DO NOTHING
		RETURNING ` + petColumns
	var p Pet
	err := r.db.QueryRow(ctx, insert,
		uuid.New(),
		customerID,
		draft.Name,
		draft.Breed,
		draft.Size,
		draft.WeightLbs,
	).Scan(&p.ID, &p.CustomerID, &p.Name, &p.Breed, &p.Size, &p.WeightLbs, &p.CreatedAt)
	if err == nil {
		return &p, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("pets: conditional insert failed: %w", err)
	}

	existing, err := r.GetByName(ctx, customerID, draft.Name)
	if err != nil {
		return nil, false, fmt.Errorf("pets: read after conflict: %w", err)
	}
	return existing, false, nil
}

// GetByName fetches a pet by owner and case-insensitive name.
func (r *PostgresRepository) GetByName(ctx context.Context, customerID uuid.UUID, name string) (*Pet, error) {
	query := `SELECT ` + petColumns + ` FROM pets WHERE customer_id = $1 AND lower(name) = $2`
	var p Pet
	err := r.db.QueryRow(ctx, query, customerID, CanonicalName(name)).
		Scan(&p.ID, &p.CustomerID, &p.Name, &p.Breed, &p.Size, &p.WeightLbs, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("pets: select by name failed: %w", err)
	}
	return &p, nil
}
