package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Insert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)
	apptID := uuid.New()
	opID := uuid.New()

	mock.ExpectExec("INSERT INTO audit_events").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = store.Insert(context.Background(), Event{
		ID:            uuid.NewString(),
		Type:          EventAppointmentCreated,
		AppointmentID: &apptID,
		OperatorID:    &opID,
		Method:        "bulk_import",
		SourceRow:     4,
		OccurredAt:    time.Now().UTC(),
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_InsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)

	mock.ExpectExec("INSERT INTO audit_events").
		WillReturnError(errors.New("connection reset"))

	err = store.Insert(context.Background(), Event{
		ID:   uuid.NewString(),
		Type: EventAppointmentOverwritten,
	})
	assert.Error(t, err)
}
