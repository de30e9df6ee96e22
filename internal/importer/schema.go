package importer

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/grooming-platform/internal/appointments"
	"github.com/wolfman30/grooming-platform/internal/customers"
	"github.com/wolfman30/grooming-platform/internal/pets"
)

var (
	emailRegex    = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)
	nonDigitRegex = regexp.MustCompile(`\D`)
)

// Accepted layouts. Dates come in ISO or slash-delimited form, times in
// 12-hour with meridiem or 24-hour form.
var (
	dateLayouts = []string{"2006-01-02", "01/02/2006", "1/2/2006"}
	timeLayouts = []string{"3:04 PM", "3:04PM", "15:04"}
)

// parsedFields carries the typed values the schema validator extracted. A
// has* flag is set only when the field was present and parsed cleanly, so
// the rule validator can skip checks whose inputs never materialized.
type parsedFields struct {
	email     string
	firstName string
	lastName  string
	phone     string

	petName   string
	petBreed  string
	petSize   pets.Size
	hasSize   bool
	weightLbs float64
	hasWeight bool

	serviceName string
	addonNames  []string

	date    time.Time
	hasDate bool
	hour    int
	minute  int
	hasTime bool

	notes           string
	paymentStatus   string
	hasPayment      bool
	paymentMethod   string
	amountPaidCents int
	hasAmount       bool
}

// ValidateSchema runs every per-field check on a sanitized row. A failed
// field is reported and the remaining fields are still processed, so one
// pass surfaces every format problem in the row.
func ValidateSchema(raw *RawRow) (*ValidatedRow, *parsedFields) {
	row := &ValidatedRow{Number: raw.Number, Raw: raw}
	p := &parsedFields{}
	get := func(col string) string { return strings.TrimSpace(raw.Values[col]) }

	// customer_email
	if v := get(ColCustomerEmail); v == "" {
		row.addError(ColCustomerEmail, CodeMissingRequired, "customer email is required")
	} else if !emailRegex.MatchString(v) {
		row.addError(ColCustomerEmail, CodeInvalidFormat, fmt.Sprintf("%q is not a valid email", v))
	} else {
		p.email = customers.CanonicalEmail(v)
	}

	// customer_name
	if v := get(ColCustomerName); v == "" {
		row.addError(ColCustomerName, CodeMissingRequired, "customer name is required")
	} else {
		p.firstName, p.lastName = customers.SplitName(v)
	}

	// customer_phone (optional)
	if v := get(ColCustomerPhone); v != "" {
		digits, ok := NormalizePhone(v)
		if !ok {
			row.addError(ColCustomerPhone, CodeInvalidFormat, fmt.Sprintf("%q is not a valid phone number", v))
		} else {
			p.phone = digits
		}
	}

	// pet_name
	if v := get(ColPetName); v == "" {
		row.addError(ColPetName, CodeMissingRequired, "pet name is required")
	} else {
		p.petName = v
	}
	p.petBreed = get(ColPetBreed)

	// pet_size
	if v := get(ColPetSize); v == "" {
		row.addError(ColPetSize, CodeMissingRequired, "pet size is required")
	} else if size, ok := pets.ParseSize(v); !ok {
		row.addError(ColPetSize, CodeInvalidFormat, fmt.Sprintf("%q is not a recognized size", v))
	} else {
		p.petSize = size
		p.hasSize = true
	}

	// pet_weight (optional)
	if v := get(ColPetWeight); v != "" {
		w, err := strconv.ParseFloat(v, 64)
		if err != nil || w <= 0 {
			row.addError(ColPetWeight, CodeInvalidFormat, fmt.Sprintf("%q is not a valid weight", v))
		} else {
			p.weightLbs = w
			p.hasWeight = true
		}
	}

	// service_name
	if v := get(ColServiceName); v == "" {
		row.addError(ColServiceName, CodeMissingRequired, "service name is required")
	} else {
		p.serviceName = v
	}

	// addons (optional, comma-separated)
	if v := get(ColAddons); v != "" {
		for _, part := range strings.Split(v, ",") {
			if name := strings.TrimSpace(part); name != "" {
				p.addonNames = append(p.addonNames, name)
			}
		}
	}

	// appointment_date
	if v := get(ColAppointmentDate); v == "" {
		row.addError(ColAppointmentDate, CodeMissingRequired, "appointment date is required")
	} else if d, ok := parseDate(v); !ok {
		row.addError(ColAppointmentDate, CodeInvalidFormat, fmt.Sprintf("%q is not a valid date", v))
	} else {
		p.date = d
		p.hasDate = true
	}

	// appointment_time
	if v := get(ColAppointmentTime); v == "" {
		row.addError(ColAppointmentTime, CodeMissingRequired, "appointment time is required")
	} else if h, m, ok := parseClock(v); !ok {
		row.addError(ColAppointmentTime, CodeInvalidFormat, fmt.Sprintf("%q is not a valid time", v))
	} else {
		p.hour, p.minute = h, m
		p.hasTime = true
	}

	p.notes = get(ColNotes)

	// payment_status (optional)
	if v := get(ColPaymentStatus); v != "" {
		status, ok := appointments.ParsePaymentStatus(v)
		if !ok {
			row.addError(ColPaymentStatus, CodeInvalidFormat, fmt.Sprintf("%q is not a recognized payment status", v))
		} else {
			p.paymentStatus = status
			p.hasPayment = true
		}
	}
	p.paymentMethod = get(ColPaymentMethod)

	// amount_paid (optional, dollars)
	if v := get(ColAmountPaid); v != "" {
		amount, err := strconv.ParseFloat(strings.TrimPrefix(v, "$"), 64)
		if err != nil || amount < 0 {
			row.addError(ColAmountPaid, CodeInvalidFormat, fmt.Sprintf("%q is not a valid amount", v))
		} else {
			p.amountPaidCents = int(math.Round(amount * 100))
			p.hasAmount = true
		}
	}

	return row, p
}

// NormalizePhone accepts common US formats and reduces them to a canonical
// digit string: 10 digits, or 11 digits with a leading 1.
func NormalizePhone(s string) (string, bool) {
	digits := nonDigitRegex.ReplaceAllString(s, "")
	switch {
	case len(digits) == 10:
		return digits, true
	case len(digits) == 11 && digits[0] == '1':
		return digits, true
	}
	return "", false
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

func parseClock(s string) (hour, minute int, ok bool) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, upper); err == nil {
			return t.Hour(), t.Minute(), true
		}
	}
	return 0, 0, false
}
