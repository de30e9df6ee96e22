package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/grooming-platform/pkg/logging"
)

// BookingInfo carries everything the confirmation email mentions.
type BookingInfo struct {
	CustomerEmail string
	CustomerName  string
	PetName       string
	ServiceName   string
	Addons        []string
	ScheduledAt   time.Time
	TotalCents    int
}

// Service sends customer-facing booking notifications.
type Service struct {
	email  EmailSender
	logger *logging.Logger
}

// NewService creates a notification service. A nil sender disables sending.
func NewService(email EmailSender, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, logger: logger}
}

// AppointmentBooked emails a booking confirmation. Callers treat a returned
// error as a delivery failure to count, never as a reason to fail the booking.
func (s *Service) AppointmentBooked(ctx context.Context, info BookingInfo) error {
	if s == nil || s.email == nil {
		return nil
	}
	if info.CustomerEmail == "" {
		return fmt.Errorf("notify: booking confirmation has no recipient")
	}

	msg := EmailMessage{
		To:      info.CustomerEmail,
		ToName:  info.CustomerName,
		Subject: fmt.Sprintf("Grooming appointment confirmed for %s", info.PetName),
		Body:    bookingBody(info),
	}
	if err := s.email.Send(ctx, msg); err != nil {
		s.logger.Error("booking confirmation failed", "to", info.CustomerEmail, "error", err)
		return err
	}
	return nil
}

func bookingBody(info BookingInfo) string {
	var b strings.Builder
	name := info.CustomerName
	if name == "" {
		name = "there"
	}
	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	fmt.Fprintf(&b, "%s is booked for %s on %s.\n",
		info.PetName, info.ServiceName, info.ScheduledAt.Format("Monday, January 2 at 3:04 PM"))
	if len(info.Addons) > 0 {
		fmt.Fprintf(&b, "Add-ons: %s.\n", strings.Join(info.Addons, ", "))
	}
	if info.TotalCents > 0 {
		fmt.Fprintf(&b, "Estimated total: $%.2f.\n", float64(info.TotalCents)/100)
	}
	b.WriteString("\nSee you soon!\n")
	return b.String()
}
