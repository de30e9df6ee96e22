package importer

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/grooming-platform/internal/appointments"
	"github.com/wolfman30/grooming-platform/internal/customers"
	"github.com/wolfman30/grooming-platform/internal/pets"
)

// Recognized columns of an import file.
const (
	ColCustomerEmail   = "customer_email"
	ColCustomerName    = "customer_name"
	ColCustomerPhone   = "customer_phone"
	ColPetName         = "pet_name"
	ColPetBreed        = "pet_breed"
	ColPetSize         = "pet_size"
	ColPetWeight       = "pet_weight"
	ColServiceName     = "service_name"
	ColAppointmentDate = "appointment_date"
	ColAppointmentTime = "appointment_time"
	ColAddons          = "addons"
	ColNotes           = "notes"
	ColPaymentStatus   = "payment_status"
	ColPaymentMethod   = "payment_method"
	ColAmountPaid      = "amount_paid"
)

// RequiredColumns must all be present in the header row.
var RequiredColumns = []string{
	ColCustomerEmail,
	ColCustomerName,
	ColPetName,
	ColPetSize,
	ColServiceName,
	ColAppointmentDate,
	ColAppointmentTime,
}

// Field-level diagnostic codes.
const (
	CodeMissingRequired    = "MISSING_REQUIRED"
	CodeInvalidFormat      = "INVALID_FORMAT"
	CodeClosedDay          = "CLOSED_DAY"
	CodeOutsideHours       = "OUTSIDE_HOURS"
	CodePastDate           = "PAST_DATE"
	CodeWeightMismatch     = "WEIGHT_MISMATCH"
	CodeServiceNotFound    = "SERVICE_NOT_FOUND"
	CodeAddonNotFound      = "ADDON_NOT_FOUND"
	CodePricingUnavailable = "PRICING_UNAVAILABLE"
	CodePaymentInvalid     = "PAYMENT_INVALID"
)

// File-level rejection codes. Any of these aborts the import before a single
// row is validated.
const (
	FileCodeInvalidType    = "INVALID_FILE_TYPE"
	FileCodeTooLarge       = "FILE_TOO_LARGE"
	FileCodeTooManyRows    = "TOO_MANY_ROWS"
	FileCodeMissingColumns = "MISSING_COLUMNS"
	FileCodeEmpty          = "EMPTY_FILE"
	FileCodeParse          = "PARSE_ERROR"
)

// FileError rejects a whole file.
type FileError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// FieldError is a blocking per-field diagnostic.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FieldWarning is a non-blocking per-field diagnostic.
type FieldWarning struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RawRow is one data row as parsed from the file. Number is the 1-indexed
// position in the source file, where the header is row 1. Values holds
// sanitized cells; Original keeps the untouched input for error reporting.
type RawRow struct {
	Number   int
	Values   map[string]string
	Original map[string]string
}

// Resolved is the payload a valid row carries into persistence.
type Resolved struct {
	Customer        customers.Draft
	Pet             pets.Draft
	ServiceID       uuid.UUID
	ServiceName     string
	AddonIDs        []uuid.UUID
	ScheduledAt     time.Time
	TotalCents      int
	Notes           string
	PaymentStatus   string
	PaymentMethod   string
	AmountPaidCents int
}

// ValidatedRow is the outcome of schema plus business-rule validation for
// one row, with duplicate flags attached later. Validity and duplication are
// orthogonal signals.
type ValidatedRow struct {
	Number   int
	Raw      *RawRow
	Errors   []FieldError
	Warnings []FieldWarning
	Resolved Resolved

	Duplicate     bool
	DuplicateOf   uuid.UUID // existing appointment id, if matched in storage
	DuplicateRow  int       // earlier row number, if matched in batch
}

// IsValid reports whether the row can be persisted. Warnings never block.
func (r *ValidatedRow) IsValid() bool {
	return len(r.Errors) == 0
}

func (r *ValidatedRow) addError(field, code, message string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Code: code, Message: message})
}

func (r *ValidatedRow) addWarning(field, code, message string) {
	r.Warnings = append(r.Warnings, FieldWarning{Field: field, Code: code, Message: message})
}

// DuplicateStrategy selects what happens to duplicate-flagged rows.
type DuplicateStrategy string

const (
	DuplicateSkip      DuplicateStrategy = "skip"
	DuplicateOverwrite DuplicateStrategy = "overwrite"
	DuplicateReject    DuplicateStrategy = "reject"
)

// ParseDuplicateStrategy validates a strategy label; empty means skip.
func ParseDuplicateStrategy(s string) (DuplicateStrategy, bool) {
	switch DuplicateStrategy(s) {
	case "":
		return DuplicateSkip, true
	case DuplicateSkip, DuplicateOverwrite, DuplicateReject:
		return DuplicateStrategy(s), true
	}
	return "", false
}

// FailurePolicy selects behavior when a row fails persistence mid-batch.
type FailurePolicy string

const (
	PolicyPartial      FailurePolicy = "partial"
	PolicyAllOrNothing FailurePolicy = "all_or_nothing"
)

// ParseFailurePolicy validates a policy label; empty means partial.
func ParseFailurePolicy(s string) (FailurePolicy, bool) {
	switch FailurePolicy(s) {
	case "":
		return PolicyPartial, true
	case PolicyPartial, PolicyAllOrNothing:
		return FailurePolicy(s), true
	}
	return "", false
}

// Options parameterize one import run.
type Options struct {
	DuplicateStrategy DuplicateStrategy
	FailurePolicy     FailurePolicy
	SendNotifications bool
	ValidateOnly      bool
	IncludeReport     bool
	Method            appointments.CreationMethod
	OperatorID        *uuid.UUID
}

// DuplicateMatch describes one collision found by the detector.
type DuplicateMatch struct {
	Row           int        `json:"row"`
	ExistingID    *uuid.UUID `json:"existing_id,omitempty"`
	MatchedRow    int        `json:"matched_row,omitempty"`
	CustomerEmail string     `json:"customer_email"`
	PetName       string     `json:"pet_name"`
	ScheduledAt   time.Time  `json:"scheduled_at"`
}

// Row outcomes reported in the summary.
const (
	OutcomeCreated      = "created"
	OutcomeOverwritten  = "overwritten"
	OutcomeSkipped      = "skipped_duplicate"
	OutcomeInvalid      = "invalid"
	OutcomeFailed       = "failed"
	OutcomeRolledBack   = "rolled_back"
	OutcomeNotAttempted = "not_attempted"
)

// Import summary statuses.
const (
	StatusCompleted  = "completed"
	StatusRejected   = "rejected_duplicates"
	StatusRolledBack = "rolled_back"
	StatusCancelled  = "cancelled"
)

// RowResult is the per-row diagnostic that survives into the summary.
type RowResult struct {
	Row           int            `json:"row"`
	Valid         bool           `json:"valid"`
	Errors        []FieldError   `json:"errors,omitempty"`
	Warnings      []FieldWarning `json:"warnings,omitempty"`
	Duplicate     bool           `json:"duplicate,omitempty"`
	Outcome       string         `json:"outcome"`
	AppointmentID *uuid.UUID     `json:"appointment_id,omitempty"`
	FailureReason string         `json:"failure_reason,omitempty"`
}

// ImportSummary is the final report for one import run.
type ImportSummary struct {
	Status              string           `json:"status"`
	TotalRows           int              `json:"total_rows"`
	ValidRows           int              `json:"valid_rows"`
	InvalidRows         int              `json:"invalid_rows"`
	DuplicateRows       int              `json:"duplicate_rows"`
	Created             int              `json:"created"`
	Overwritten         int              `json:"overwritten"`
	Skipped             int              `json:"skipped"`
	Failed              int              `json:"failed"`
	NotificationsSent   int              `json:"notifications_sent"`
	NotificationsFailed int              `json:"notifications_failed"`
	Rows                []RowResult      `json:"rows"`
	Duplicates          []DuplicateMatch `json:"duplicates,omitempty"`

	// Report is the CSV error report, filled only when requested, so an
	// operator can fix the failed rows offline and resubmit them.
	Report string `json:"error_report_csv,omitempty"`
}
