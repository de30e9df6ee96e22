package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wolfman30/grooming-platform/internal/appointments"
	"github.com/wolfman30/grooming-platform/internal/customers"
	"github.com/wolfman30/grooming-platform/internal/pets"
)

// DuplicateDetector flags rows that collide with persisted appointments or
// with earlier rows in the same batch. The match key is (customer email,
// pet name, date, hour): minute-level differences inside the same wall-clock
// hour count as the same slot.
type DuplicateDetector struct {
	Reader appointments.Reader
}

type slotKey struct {
	email string
	pet   string
	hour  time.Time
}

// Detect inspects valid rows in order and returns the matches found. Invalid
// rows are ignored; validity and duplication stay orthogonal. Running Detect
// twice over the same input yields identical matches.
func (d *DuplicateDetector) Detect(ctx context.Context, rows []*ValidatedRow) ([]DuplicateMatch, error) {
	seen := make(map[slotKey]int) // key -> first row number holding the slot

	var matches []DuplicateMatch
	for _, row := range rows {
		if !row.IsValid() {
			continue
		}

		key := slotKey{
			email: customers.CanonicalEmail(row.Resolved.Customer.Email),
			pet:   pets.CanonicalName(row.Resolved.Pet.Name),
			hour:  hourStart(row.Resolved.ScheduledAt),
		}

		// In-batch collision: an earlier row already claimed this slot.
		if firstRow, ok := seen[key]; ok {
			row.Duplicate = true
			row.DuplicateRow = firstRow
			matches = append(matches, DuplicateMatch{
				Row:           row.Number,
				MatchedRow:    firstRow,
				CustomerEmail: key.email,
				PetName:       row.Resolved.Pet.Name,
				ScheduledAt:   row.Resolved.ScheduledAt,
			})
			continue
		}
		seen[key] = row.Number

		existing, err := d.Reader.FindActiveInHour(ctx, key.email, key.pet, key.hour)
		if errors.Is(err, appointments.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("importer: duplicate probe for row %d: %w", row.Number, err)
		}

		row.Duplicate = true
		row.DuplicateOf = existing.ID
		id := existing.ID
		matches = append(matches, DuplicateMatch{
			Row:           row.Number,
			ExistingID:    &id,
			CustomerEmail: key.email,
			PetName:       row.Resolved.Pet.Name,
			ScheduledAt:   row.Resolved.ScheduledAt,
		})
	}
	return matches, nil
}

// hourStart truncates a timestamp to the top of its wall-clock hour in its
// own location.
func hourStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}
