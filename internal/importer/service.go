package importer

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/grooming-platform/internal/audit"
	"github.com/wolfman30/grooming-platform/internal/notify"
	"github.com/wolfman30/grooming-platform/internal/observability/metrics"
	"github.com/wolfman30/grooming-platform/pkg/logging"
)

// Notifier sends booking confirmations for imported rows.
type Notifier interface {
	AppointmentBooked(ctx context.Context, info notify.BookingInfo) error
}

// Service runs the full import pipeline: parse and sanitize, validate,
// detect duplicates, persist, then notify and record provenance for the rows
// that landed.
type Service struct {
	rules    *Rules
	detector *DuplicateDetector
	executor *Executor
	notifier Notifier
	auditor  *audit.Recorder
	limits   FileLimits
	logger   *logging.Logger
	m        *metrics.ImportMetrics
}

// NewService wires the pipeline. Notifier and auditor may be nil.
func NewService(rules *Rules, detector *DuplicateDetector, executor *Executor, notifier Notifier, auditor *audit.Recorder, limits FileLimits, m *metrics.ImportMetrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		rules:    rules,
		detector: detector,
		executor: executor,
		notifier: notifier,
		auditor:  auditor,
		limits:   limits,
		logger:   logger,
		m:        m,
	}
}

// Import processes one uploaded file. A *FileError return means the file was
// rejected wholesale; any other error is an infrastructure failure. A non-nil
// summary always accounts for every data row in the file.
func (s *Service) Import(ctx context.Context, filename string, data []byte, opts Options, progress ProgressFunc) (*ImportSummary, error) {
	ctx, span := importTracer.Start(ctx, "importer.import")
	defer span.End()
	start := time.Now()

	raws, ferr := Parse(filename, data, s.limits)
	if ferr != nil {
		span.SetAttributes(attribute.String("import.file_error", ferr.Code))
		s.logger.Warn("import file rejected", "file", filename, "code", ferr.Code)
		return nil, ferr
	}

	rows := s.validate(ctx, raws)

	valid := make([]*ValidatedRow, 0, len(rows))
	for _, row := range rows {
		if row.IsValid() {
			valid = append(valid, row)
		}
	}

	matches, err := s.detector.Detect(ctx, valid)
	if err != nil {
		return nil, err
	}

	summary := &ImportSummary{
		TotalRows:     len(rows),
		ValidRows:     len(valid),
		InvalidRows:   len(rows) - len(valid),
		DuplicateRows: len(matches),
		Duplicates:    matches,
		Status:        StatusCompleted,
	}

	if opts.DuplicateStrategy == DuplicateReject && len(matches) > 0 {
		summary.Status = StatusRejected
		s.finish(ctx, summary, rows, map[int]RowOutcome{}, start, span)
		return summary, nil
	}

	importable, skipped := partition(valid, opts.DuplicateStrategy)

	var outcomes map[int]RowOutcome
	if opts.ValidateOnly {
		outcomes = map[int]RowOutcome{}
	} else {
		res, err := s.executor.Execute(ctx, importable, opts, progress)
		if err != nil {
			return nil, err
		}
		summary.Status = res.Status
		outcomes = res.Outcomes
	}
	for _, row := range skipped {
		outcomes[row.Number] = RowOutcome{Outcome: OutcomeSkipped}
	}

	if !opts.ValidateOnly {
		s.afterPersist(ctx, summary, rows, outcomes, opts)
	}

	s.finish(ctx, summary, rows, outcomes, start, span)

	if opts.IncludeReport {
		results := make(map[int]RowResult, len(summary.Rows))
		for _, r := range summary.Rows {
			results[r.Row] = r
		}
		report, rerr := ErrorReport(rows, results)
		if rerr != nil {
			s.logger.Error("failed to build error report", "error", rerr)
		} else {
			summary.Report = string(report)
		}
	}
	return summary, nil
}

// validate runs schema and business-rule checks over every parsed row.
func (s *Service) validate(ctx context.Context, raws []RawRow) []*ValidatedRow {
	rows := make([]*ValidatedRow, 0, len(raws))
	for i := range raws {
		row, fields := ValidateSchema(&raws[i])
		s.rules.Validate(ctx, row, fields)
		rows = append(rows, row)
	}
	return rows
}

// partition splits valid rows into those the executor should attempt and
// those excluded by the duplicate strategy. Under overwrite, a row that
// collides with an earlier row in the same file is still skipped; the
// earlier row owns the slot.
func partition(valid []*ValidatedRow, strategy DuplicateStrategy) (importable, skipped []*ValidatedRow) {
	for _, row := range valid {
		if !row.Duplicate {
			importable = append(importable, row)
			continue
		}
		if strategy == DuplicateOverwrite && row.DuplicateRow == 0 {
			importable = append(importable, row)
			continue
		}
		skipped = append(skipped, row)
	}
	return importable, skipped
}

// afterPersist sends confirmations and records provenance for landed rows.
// Both are best effort.
func (s *Service) afterPersist(ctx context.Context, summary *ImportSummary, rows []*ValidatedRow, outcomes map[int]RowOutcome, opts Options) {
	for _, row := range rows {
		out, ok := outcomes[row.Number]
		if !ok || (out.Outcome != OutcomeCreated && out.Outcome != OutcomeOverwritten) {
			continue
		}

		if s.auditor != nil {
			eventType := audit.EventAppointmentCreated
			if out.Outcome == OutcomeOverwritten {
				eventType = audit.EventAppointmentOverwritten
			}
			s.auditor.Record(ctx, audit.Event{
				Type:          eventType,
				AppointmentID: out.AppointmentID,
				OperatorID:    opts.OperatorID,
				Method:        string(opts.Method),
				SourceRow:     row.Number,
			})
		}

		if opts.SendNotifications && s.notifier != nil {
			info := notify.BookingInfo{
				CustomerEmail: row.Resolved.Customer.Email,
				CustomerName:  row.Resolved.Customer.FirstName,
				PetName:       row.Resolved.Pet.Name,
				ServiceName:   row.Resolved.ServiceName,
				ScheduledAt:   row.Resolved.ScheduledAt,
				TotalCents:    row.Resolved.TotalCents,
			}
			if err := s.notifier.AppointmentBooked(ctx, info); err != nil {
				summary.NotificationsFailed++
			} else {
				summary.NotificationsSent++
			}
		}
	}
}

// finish assembles per-row results, tallies counters, and records metrics.
func (s *Service) finish(ctx context.Context, summary *ImportSummary, rows []*ValidatedRow, outcomes map[int]RowOutcome, start time.Time, span trace.Span) {
	summary.Rows = make([]RowResult, 0, len(rows))
	for _, row := range rows {
		result := RowResult{
			Row:       row.Number,
			Valid:     row.IsValid(),
			Errors:    row.Errors,
			Warnings:  row.Warnings,
			Duplicate: row.Duplicate,
		}
		switch {
		case !row.IsValid():
			result.Outcome = OutcomeInvalid
		default:
			out, ok := outcomes[row.Number]
			if !ok {
				result.Outcome = OutcomeNotAttempted
			} else {
				result.Outcome = out.Outcome
				result.AppointmentID = out.AppointmentID
				result.FailureReason = out.FailureReason
			}
		}
		switch result.Outcome {
		case OutcomeCreated:
			summary.Created++
		case OutcomeOverwritten:
			summary.Overwritten++
		case OutcomeSkipped:
			summary.Skipped++
		case OutcomeFailed:
			summary.Failed++
		}
		summary.Rows = append(summary.Rows, result)
	}

	if s.auditor != nil && summary.Status != StatusRejected {
		s.auditor.Record(ctx, audit.Event{Type: audit.EventImportCompleted, Detail: summary.Status})
	}

	s.m.ObserveImport(summary.Status, time.Since(start).Seconds())
	span.SetAttributes(
		attribute.String("import.status", summary.Status),
		attribute.Int("import.created", summary.Created),
		attribute.Int("import.invalid", summary.InvalidRows),
	)
	s.logger.Info("import finished",
		"status", summary.Status,
		"total", summary.TotalRows,
		"created", summary.Created,
		"overwritten", summary.Overwritten,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"invalid", summary.InvalidRows,
	)
}

// ManualRequest is one appointment entered by hand through the operator UI.
// It flows through the same sanitization, validation, and persistence path as
// a one-row import.
type ManualRequest struct {
	CustomerEmail string `json:"customer_email"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone,omitempty"`
	PetName       string `json:"pet_name"`
	PetBreed      string `json:"pet_breed,omitempty"`
	PetSize       string `json:"pet_size"`
	PetWeight     string `json:"pet_weight,omitempty"`
	ServiceName   string `json:"service_name"`
	Date          string `json:"appointment_date"`
	Time          string `json:"appointment_time"`
	Addons        string `json:"addons,omitempty"`
	Notes         string `json:"notes,omitempty"`
	PaymentStatus string `json:"payment_status,omitempty"`
	PaymentMethod string `json:"payment_method,omitempty"`
	AmountPaid    string `json:"amount_paid,omitempty"`
}

func (r ManualRequest) cells() map[string]string {
	return map[string]string{
		ColCustomerEmail:   r.CustomerEmail,
		ColCustomerName:    r.CustomerName,
		ColCustomerPhone:   r.CustomerPhone,
		ColPetName:         r.PetName,
		ColPetBreed:        r.PetBreed,
		ColPetSize:         r.PetSize,
		ColPetWeight:       r.PetWeight,
		ColServiceName:     r.ServiceName,
		ColAppointmentDate: r.Date,
		ColAppointmentTime: r.Time,
		ColAddons:          r.Addons,
		ColNotes:           r.Notes,
		ColPaymentStatus:   r.PaymentStatus,
		ColPaymentMethod:   r.PaymentMethod,
		ColAmountPaid:      r.AmountPaid,
	}
}

// CreateManual books a single appointment through the shared validation core.
// A duplicate slot is always rejected here; the caller sees the conflict
// instead of silently stacking bookings. The returned result uses row number
// 1 by convention.
func (s *Service) CreateManual(ctx context.Context, req ManualRequest, opts Options) (*RowResult, error) {
	ctx, span := importTracer.Start(ctx, "importer.create_manual")
	defer span.End()

	raw := sanitizeRow(1, req.cells())
	row, fields := ValidateSchema(&raw)
	s.rules.Validate(ctx, row, fields)

	result := &RowResult{
		Row:      row.Number,
		Valid:    row.IsValid(),
		Errors:   row.Errors,
		Warnings: row.Warnings,
	}
	if !row.IsValid() {
		result.Outcome = OutcomeInvalid
		return result, nil
	}

	if _, err := s.detector.Detect(ctx, []*ValidatedRow{row}); err != nil {
		return nil, err
	}
	if row.Duplicate {
		result.Duplicate = true
		result.Outcome = OutcomeSkipped
		return result, nil
	}

	res, err := s.executor.Execute(ctx, []*ValidatedRow{row}, opts, nil)
	if err != nil {
		return nil, err
	}
	out := res.Outcomes[row.Number]
	result.Outcome = out.Outcome
	result.AppointmentID = out.AppointmentID
	result.FailureReason = out.FailureReason

	if out.Outcome == OutcomeCreated {
		summary := &ImportSummary{}
		s.afterPersist(ctx, summary, []*ValidatedRow{row}, res.Outcomes, opts)
	}
	return result, nil
}
