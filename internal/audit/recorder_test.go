package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Record(t *testing.T) {
	queue := NewMemoryQueue(4)
	recorder := NewRecorder(queue, nil)

	apptID := uuid.New()
	recorder.Record(context.Background(), Event{
		Type:          EventAppointmentCreated,
		AppointmentID: &apptID,
		Method:        "bulk_import",
		SourceRow:     2,
	})

	messages, err := queue.Receive(context.Background(), 1, 0)
	require.NoError(t, err)
	require.Len(t, messages, 1)

	var event Event
	require.NoError(t, json.Unmarshal([]byte(messages[0].Body), &event))
	assert.Equal(t, EventAppointmentCreated, event.Type)
	assert.NotEmpty(t, event.ID)
	assert.False(t, event.OccurredAt.IsZero())
	assert.Equal(t, apptID, *event.AppointmentID)
}

type failingQueue struct{}

func (failingQueue) Send(context.Context, string) error { return errors.New("broker down") }
func (failingQueue) Receive(context.Context, int, int) ([]Message, error) {
	return nil, errors.New("broker down")
}
func (failingQueue) Delete(context.Context, string) error { return errors.New("broker down") }

func TestRecorder_SendFailureDoesNotPanic(t *testing.T) {
	recorder := NewRecorder(failingQueue{}, nil)
	recorder.Record(context.Background(), Event{Type: EventImportCompleted})
}

func TestRecorder_NilQueueIsNoop(t *testing.T) {
	recorder := NewRecorder(nil, nil)
	recorder.Record(context.Background(), Event{Type: EventAppointmentCreated})
}

func TestMemoryQueue_SendReceiveDelete(t *testing.T) {
	queue := NewMemoryQueue(2)
	require.NoError(t, queue.Send(context.Background(), "a"))
	require.NoError(t, queue.Send(context.Background(), "b"))
	assert.Equal(t, 2, queue.Len())

	messages, err := queue.Receive(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "a", messages[0].Body)
	assert.Equal(t, "b", messages[1].Body)
	assert.NoError(t, queue.Delete(context.Background(), messages[0].ReceiptHandle))

	messages, err = queue.Receive(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Empty(t, messages)
}
