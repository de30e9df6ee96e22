// Package audit records who created each appointment, how, and when. Events
// flow through a queue so a failing audit sink can never block or fail a
// booking path.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// EventType labels one provenance event.
type EventType string

const (
	// EventAppointmentCreated is recorded when an appointment is first persisted.
	EventAppointmentCreated EventType = "appointment.created"
	// EventAppointmentOverwritten is recorded when an import replaces an
	// existing appointment under the overwrite duplicate strategy.
	EventAppointmentOverwritten EventType = "appointment.overwritten"
	// EventCustomerActivated is recorded when a self-registering customer
	// claims a placeholder account created by an import.
	EventCustomerActivated EventType = "customer.activated"
	// EventImportCompleted summarizes one finished import run.
	EventImportCompleted EventType = "import.completed"
)

// Event is an immutable provenance record.
type Event struct {
	ID            string     `json:"id"`
	Type          EventType  `json:"type"`
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	CustomerID    *uuid.UUID `json:"customer_id,omitempty"`
	OperatorID    *uuid.UUID `json:"operator_id,omitempty"`
	Method        string     `json:"method,omitempty"`
	SourceRow     int        `json:"source_row,omitempty"`
	Detail        string     `json:"detail,omitempty"`
	OccurredAt    time.Time  `json:"occurred_at"`
}
