package importer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/grooming-platform/internal/appointments"
	"github.com/wolfman30/grooming-platform/internal/customers"
	"github.com/wolfman30/grooming-platform/internal/observability/metrics"
	"github.com/wolfman30/grooming-platform/pkg/logging"
)

var importTracer = otel.Tracer("grooming.internal.importer")

// ExecutorConfig bounds persistence load. Rows are persisted sequentially in
// fixed-size groups with a pause between groups; progress is reported once
// per group.
type ExecutorConfig struct {
	GroupSize  int
	GroupPause time.Duration
}

// DefaultExecutorConfig returns the production bounds.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{GroupSize: 10, GroupPause: 100 * time.Millisecond}
}

// ProgressFunc is invoked after each completed group.
type ProgressFunc func(groupsDone, groupsTotal, rowsDone, rowsTotal int)

// RowOutcome is the persistence result for one row.
type RowOutcome struct {
	Outcome       string
	AppointmentID *uuid.UUID
	FailureReason string
}

// ExecResult is the executor's report, keyed by row number.
type ExecResult struct {
	Status   string
	Outcomes map[int]RowOutcome
}

// Executor persists importable rows under a failure policy. Per row it
// resolves entities and writes the appointment aggregate in one transaction;
// under all_or_nothing every row transaction nests inside one outer
// transaction so a single failure leaves nothing visible.
type Executor struct {
	store  appointments.Store
	logger *logging.Logger
	m      *metrics.ImportMetrics
	cfg    ExecutorConfig
}

// NewExecutor creates a batch executor.
func NewExecutor(store appointments.Store, cfg ExecutorConfig, m *metrics.ImportMetrics, logger *logging.Logger) *Executor {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.GroupSize <= 0 {
		cfg.GroupSize = DefaultExecutorConfig().GroupSize
	}
	return &Executor{store: store, logger: logger, m: m, cfg: cfg}
}

// Execute persists rows in order. The rows passed in must already be valid
// and not excluded by the duplicate strategy.
func (e *Executor) Execute(ctx context.Context, rows []*ValidatedRow, opts Options, progress ProgressFunc) (*ExecResult, error) {
	ctx, span := importTracer.Start(ctx, "importer.execute")
	defer span.End()
	span.SetAttributes(
		attribute.Int("import.rows", len(rows)),
		attribute.String("import.failure_policy", string(opts.FailurePolicy)),
	)

	res := &ExecResult{Status: StatusCompleted, Outcomes: make(map[int]RowOutcome, len(rows))}
	if len(rows) == 0 {
		return res, nil
	}

	resolver := newBatchResolver(originFromMethod(opts.Method))

	begin := e.store.Begin
	var outer appointments.Tx
	if opts.FailurePolicy == PolicyAllOrNothing {
		tx, err := e.store.Begin(ctx)
		if err != nil {
			return nil, err
		}
		outer = tx
		begin = outer.Begin
	}

	groups := chunkRows(rows, e.cfg.GroupSize)
	var processed []*ValidatedRow

	for gi, group := range groups {
		// The import is cancellable between groups only; committed rows stay
		// committed under partial, and all_or_nothing discards everything.
		if ctx.Err() != nil {
			e.finishCancelled(ctx, res, outer, processed, rows)
			return res, nil
		}

		for _, row := range group {
			outcome := e.executeRow(ctx, begin, resolver, row, opts)
			res.Outcomes[row.Number] = outcome
			processed = append(processed, row)
			e.m.ObserveRow(outcome.Outcome)

			if outcome.Outcome == OutcomeFailed && opts.FailurePolicy == PolicyAllOrNothing {
				e.rollbackAll(ctx, res, outer, processed, rows, row.Number)
				return res, nil
			}
		}

		if progress != nil {
			progress(gi+1, len(groups), len(processed), len(rows))
		}
		if e.cfg.GroupPause > 0 && gi < len(groups)-1 {
			select {
			case <-ctx.Done():
			case <-time.After(e.cfg.GroupPause):
			}
		}
	}

	if outer != nil {
		if err := outer.Commit(ctx); err != nil {
			e.logger.Error("import: outer commit failed", "error", err)
			e.rollbackAll(ctx, res, nil, processed, rows, 0)
			res.Status = StatusRolledBack
			return res, nil
		}
	}
	return res, nil
}

func (e *Executor) executeRow(ctx context.Context, begin func(context.Context) (appointments.Tx, error), resolver *batchResolver, row *ValidatedRow, opts Options) RowOutcome {
	ctx, span := importTracer.Start(ctx, "importer.execute_row")
	defer span.End()
	span.SetAttributes(attribute.Int("import.row", row.Number))

	tx, err := begin(ctx)
	if err != nil {
		return RowOutcome{Outcome: OutcomeFailed, FailureReason: err.Error()}
	}

	fail := func(err error) RowOutcome {
		_ = tx.Rollback(ctx)
		resolver.discardRow()
		span.SetAttributes(attribute.Bool("import.row_failed", true))
		e.logger.Warn("import: row persistence failed", "row", row.Number, "error", err)
		return RowOutcome{Outcome: OutcomeFailed, FailureReason: err.Error()}
	}

	cust, pet, err := resolver.resolve(ctx, tx, row)
	if err != nil {
		return fail(err)
	}

	rec := buildRecord(row, cust.ID, pet.ID, opts)
	outcome := OutcomeCreated
	if row.Duplicate && row.DuplicateOf != uuid.Nil && opts.DuplicateStrategy == DuplicateOverwrite {
		rec.Appointment.ID = row.DuplicateOf
		if err := tx.OverwriteAppointment(ctx, row.DuplicateOf, rec); err != nil {
			return fail(err)
		}
		outcome = OutcomeOverwritten
	} else {
		if err := tx.CreateAppointment(ctx, rec); err != nil {
			return fail(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fail(err)
	}
	resolver.commitRow()

	id := rec.Appointment.ID
	return RowOutcome{Outcome: outcome, AppointmentID: &id}
}

func (e *Executor) finishCancelled(ctx context.Context, res *ExecResult, outer appointments.Tx, processed, all []*ValidatedRow) {
	res.Status = StatusCancelled
	if outer != nil {
		// Nothing was durable yet; discard the processed rows too.
		_ = outer.Rollback(context.WithoutCancel(ctx))
		for _, row := range processed {
			if out, ok := res.Outcomes[row.Number]; ok && out.Outcome != OutcomeFailed {
				out.Outcome = OutcomeRolledBack
				out.AppointmentID = nil
				res.Outcomes[row.Number] = out
			}
		}
	}
	markNotAttempted(res, processed, all)
}

func (e *Executor) rollbackAll(ctx context.Context, res *ExecResult, outer appointments.Tx, processed, all []*ValidatedRow, failedRow int) {
	res.Status = StatusRolledBack
	if outer != nil {
		_ = outer.Rollback(context.WithoutCancel(ctx))
	}
	for _, row := range processed {
		if row.Number == failedRow {
			continue
		}
		if out, ok := res.Outcomes[row.Number]; ok && out.Outcome != OutcomeFailed {
			out.Outcome = OutcomeRolledBack
			out.AppointmentID = nil
			res.Outcomes[row.Number] = out
		}
	}
	markNotAttempted(res, processed, all)
}

func markNotAttempted(res *ExecResult, processed, all []*ValidatedRow) {
	done := make(map[int]bool, len(processed))
	for _, row := range processed {
		done[row.Number] = true
	}
	for _, row := range all {
		if !done[row.Number] {
			res.Outcomes[row.Number] = RowOutcome{Outcome: OutcomeNotAttempted}
		}
	}
}

func buildRecord(row *ValidatedRow, customerID, petID uuid.UUID, opts Options) *appointments.Record {
	rec := &appointments.Record{
		Appointment: appointments.Appointment{
			CustomerID:  customerID,
			PetID:       petID,
			ServiceID:   row.Resolved.ServiceID,
			ScheduledAt: row.Resolved.ScheduledAt,
			Status:      appointments.StatusScheduled,
			Notes:       row.Resolved.Notes,
			TotalCents:  row.Resolved.TotalCents,
			CreatedVia:  opts.Method,
			CreatedBy:   opts.OperatorID,
		},
		AddonIDs: row.Resolved.AddonIDs,
	}
	if row.Resolved.PaymentStatus != "" {
		rec.Payment = &appointments.Payment{
			Status:          row.Resolved.PaymentStatus,
			Method:          row.Resolved.PaymentMethod,
			AmountPaidCents: row.Resolved.AmountPaidCents,
		}
	}
	return rec
}

func originFromMethod(method appointments.CreationMethod) customers.Origin {
	switch method {
	case appointments.CreatedSelfService:
		return customers.OriginSelfService
	case appointments.CreatedOperatorManual:
		return customers.OriginOperatorManual
	default:
		return customers.OriginBulkImport
	}
}

func chunkRows(rows []*ValidatedRow, size int) [][]*ValidatedRow {
	var groups [][]*ValidatedRow
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		groups = append(groups, rows[start:end])
	}
	return groups
}
