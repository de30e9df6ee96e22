package appointments

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status of an appointment. Cancelled and completed rows no longer occupy
// their slot for duplicate detection.
const (
	StatusScheduled = "scheduled"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// CreationMethod records how an appointment came to exist, for audit
// provenance.
type CreationMethod string

const (
	CreatedSelfService    CreationMethod = "self_service"
	CreatedOperatorManual CreationMethod = "operator_manual"
	CreatedBulkImport     CreationMethod = "bulk_import"
)

// PaymentStatus values accepted on inbound rows, matched case-insensitively.
const (
	PaymentUnpaid        = "unpaid"
	PaymentPartiallyPaid = "partially_paid"
	PaymentPaid          = "paid"
)

// ParsePaymentStatus matches a payment status label case-insensitively.
func ParsePaymentStatus(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unpaid":
		return PaymentUnpaid, true
	case "partially_paid", "partially paid", "partial":
		return PaymentPartiallyPaid, true
	case "paid":
		return PaymentPaid, true
	}
	return "", false
}

// Appointment is one scheduled grooming visit.
type Appointment struct {
	ID          uuid.UUID      `json:"id"`
	CustomerID  uuid.UUID      `json:"customer_id"`
	PetID       uuid.UUID      `json:"pet_id"`
	ServiceID   uuid.UUID      `json:"service_id"`
	ScheduledAt time.Time      `json:"scheduled_at"`
	Status      string         `json:"status"`
	Notes       string         `json:"notes,omitempty"`
	TotalCents  int            `json:"total_cents"`
	CreatedVia  CreationMethod `json:"created_via"`
	CreatedBy   *uuid.UUID     `json:"created_by,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Payment is the optional payment state attached to an appointment.
type Payment struct {
	Status          string `json:"status"`
	Method          string `json:"method,omitempty"`
	AmountPaidCents int    `json:"amount_paid_cents"`
}

// Record is the full aggregate persisted for one booking: the appointment,
// its addon links, and an optional payment row. The store writes all of it
// in one transaction so partial failures cannot orphan children.
type Record struct {
	Appointment Appointment
	AddonIDs    []uuid.UUID
	Payment     *Payment
}

// Existing is the slim projection returned by duplicate probes.
type Existing struct {
	ID            uuid.UUID
	CustomerEmail string
	PetName       string
	ScheduledAt   time.Time
}
