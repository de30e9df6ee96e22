package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingSender struct {
	sent []EmailMessage
	err  error
}

func (c *capturingSender) Send(ctx context.Context, msg EmailMessage) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, msg)
	return nil
}

func TestService_AppointmentBooked(t *testing.T) {
	sender := &capturingSender{}
	svc := NewService(sender, nil)

	err := svc.AppointmentBooked(context.Background(), BookingInfo{
		CustomerEmail: "jane@example.com",
		CustomerName:  "Jane Doe",
		PetName:       "Rex",
		ServiceName:   "Full Groom",
		Addons:        []string{"Nail Trim", "Teeth Brushing"},
		ScheduledAt:   time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC),
		TotalCents:    8500,
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, "jane@example.com", msg.To)
	assert.Contains(t, msg.Subject, "Rex")
	assert.Contains(t, msg.Body, "Full Groom")
	assert.Contains(t, msg.Body, "Nail Trim, Teeth Brushing")
	assert.Contains(t, msg.Body, "$85.00")
}

func TestService_AppointmentBookedSendFailure(t *testing.T) {
	sender := &capturingSender{err: errors.New("smtp down")}
	svc := NewService(sender, nil)

	err := svc.AppointmentBooked(context.Background(), BookingInfo{
		CustomerEmail: "jane@example.com",
		PetName:       "Rex",
	})
	assert.Error(t, err)
}

func TestService_AppointmentBookedNoRecipient(t *testing.T) {
	sender := &capturingSender{}
	svc := NewService(sender, nil)

	err := svc.AppointmentBooked(context.Background(), BookingInfo{PetName: "Rex"})
	assert.Error(t, err)
	assert.Empty(t, sender.sent)
}

func TestService_NilSenderIsNoop(t *testing.T) {
	svc := NewService(nil, nil)
	err := svc.AppointmentBooked(context.Background(), BookingInfo{
		CustomerEmail: "jane@example.com",
	})
	assert.NoError(t, err)
}

func TestStubEmailSender(t *testing.T) {
	stub := NewStubEmailSender(nil)
	assert.NoError(t, stub.Send(context.Background(), EmailMessage{To: "x@example.com"}))
}
