package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// reportColumns is the canonical column order for error reports. Columns the
// source file never had are omitted; unrecognized extras are appended
// alphabetically.
var reportColumns = []string{
	ColCustomerEmail,
	ColCustomerName,
	ColCustomerPhone,
	ColPetName,
	ColPetBreed,
	ColPetSize,
	ColPetWeight,
	ColServiceName,
	ColAppointmentDate,
	ColAppointmentTime,
	ColAddons,
	ColNotes,
	ColPaymentStatus,
	ColPaymentMethod,
	ColAmountPaid,
}

// ErrorReport renders the rows that did not import as CSV, with the original
// cell values and an appended errors column, so an operator can fix the file
// offline and resubmit just the remainder.
func ErrorReport(rows []*ValidatedRow, results map[int]RowResult) ([]byte, error) {
	failed := make([]*ValidatedRow, 0, len(rows))
	for _, row := range rows {
		res, ok := results[row.Number]
		if !ok {
			continue
		}
		switch res.Outcome {
		case OutcomeInvalid, OutcomeFailed, OutcomeRolledBack, OutcomeNotAttempted:
			failed = append(failed, row)
		}
	}
	if len(failed) == 0 {
		return nil, nil
	}

	header := presentColumns(failed)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(append(append([]string{"row"}, header...), "errors")); err != nil {
		return nil, fmt.Errorf("importer: write report header: %w", err)
	}
	for _, row := range failed {
		rec := make([]string, 0, len(header)+2)
		rec = append(rec, strconv.Itoa(row.Number))
		for _, col := range header {
			rec = append(rec, row.Raw.Original[col])
		}
		rec = append(rec, describeFailure(row, results[row.Number]))
		if err := w.Write(rec); err != nil {
			return nil, fmt.Errorf("importer: write report row %d: %w", row.Number, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("importer: flush report: %w", err)
	}
	return buf.Bytes(), nil
}

func presentColumns(rows []*ValidatedRow) []string {
	seen := make(map[string]bool)
	for _, row := range rows {
		for col := range row.Raw.Original {
			seen[col] = true
		}
	}
	header := make([]string, 0, len(seen))
	for _, col := range reportColumns {
		if seen[col] {
			header = append(header, col)
			delete(seen, col)
		}
	}
	extras := make([]string, 0, len(seen))
	for col := range seen {
		extras = append(extras, col)
	}
	sort.Strings(extras)
	return append(header, extras...)
}

func describeFailure(row *ValidatedRow, res RowResult) string {
	parts := make([]string, 0, len(row.Errors)+1)
	for _, e := range row.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s (%s)", e.Field, e.Message, e.Code))
	}
	switch res.Outcome {
	case OutcomeFailed:
		if res.FailureReason != "" {
			parts = append(parts, "persistence failed: "+res.FailureReason)
		}
	case OutcomeRolledBack:
		parts = append(parts, "rolled back after a later row failed")
	case OutcomeNotAttempted:
		parts = append(parts, "not attempted")
	}
	return strings.Join(parts, "; ")
}
