package audit

import (
	"context"
	"database/sql"
	"fmt"
)

// Store persists audit events.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store over the provided database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Insert writes one event. Events are append-only; there is no update path.
func (s *Store) Insert(ctx context.Context, event Event) error {
	query := `
		INSERT INTO audit_events (
			id, event_type, appointment_id, customer_id, operator_id,
			method, source_row, detail, occurred_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		event.Type,
		event.AppointmentID,
		event.CustomerID,
		event.OperatorID,
		nullString(event.Method),
		event.SourceRow,
		nullString(event.Detail),
		event.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("audit: failed to insert event: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
