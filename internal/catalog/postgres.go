package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wolfman30/grooming-platform/internal/pets"
)

// DB is the subset of pgx operations the catalog needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresCatalog reads the service/addon catalog from the platform database.
type PostgresCatalog struct {
	db DB
}

// NewPostgresCatalog initializes a catalog backed by pgx.
func NewPostgresCatalog(db DB) *PostgresCatalog {
	if db == nil {
		panic("catalog: pgx db required")
	}
	return &PostgresCatalog{db: db}
}

// ServiceByName implements Catalog.
func (c *PostgresCatalog) ServiceByName(ctx context.Context, name string) (*Service, error) {
	query := `SELECT id, name FROM services WHERE lower(name) = $1`
	var svc Service
	err := c.db.QueryRow(ctx, query, strings.ToLower(strings.TrimSpace(name))).Scan(&svc.ID, &svc.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("catalog: select service failed: %w", err)
	}
	return &svc, nil
}

// AddonByName implements Catalog.
func (c *PostgresCatalog) AddonByName(ctx context.Context, name string) (*Addon, error) {
	query := `SELECT id, name, price_cents FROM addons WHERE lower(name) = $1`
	var a Addon
	err := c.db.QueryRow(ctx, query, strings.ToLower(strings.TrimSpace(name))).Scan(&a.ID, &a.Name, &a.PriceCents)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAddonNotFound
		}
		return nil, fmt.Errorf("catalog: select addon failed: %w", err)
	}
	return &a, nil
}

// Price implements Catalog.
func (c *PostgresCatalog) Price(ctx context.Context, serviceID uuid.UUID, size pets.Size) (int, error) {
	query := `SELECT price_cents FROM service_prices WHERE service_id = $1 AND size = $2`
	var cents int
	err := c.db.QueryRow(ctx, query, serviceID, size).Scan(&cents)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrPriceNotFound
		}
		return 0, fmt.Errorf("catalog: select price failed: %w", err)
	}
	return cents, nil
}
