package importer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/grooming-platform/internal/catalog"
	"github.com/wolfman30/grooming-platform/internal/pets"
)

func testCatalog() *catalog.InMemoryCatalog {
	c := catalog.NewInMemoryCatalog()
	groom := c.AddService("Full Groom")
	c.SetPrice(groom.ID, pets.SizeSmall, 5500)
	c.SetPrice(groom.ID, pets.SizeMedium, 7000)
	c.SetPrice(groom.ID, pets.SizeLarge, 8500)
	bath := c.AddService("Bath")
	c.SetPrice(bath.ID, pets.SizeSmall, 3000)
	c.AddAddon("Nail Trim", 1500)
	c.AddAddon("Teeth Brushing", 1000)
	return c
}

func testRules() *Rules {
	return &Rules{
		Catalog:   testCatalog(),
		OpenHour:  9,
		CloseHour: 17,
		ClosedDay: time.Sunday,
		Location:  time.UTC,
		Now: func() time.Time {
			return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
		},
	}
}

func validateRow(t *testing.T, raw *RawRow) *ValidatedRow {
	t.Helper()
	row, fields := ValidateSchema(raw)
	testRules().Validate(context.Background(), row, fields)
	return row
}

func TestRules_ValidRowResolvesPricing(t *testing.T) {
	row := validateRow(t, goodRow(2))

	require.Empty(t, row.Errors)
	assert.Equal(t, "Full Groom", row.Resolved.ServiceName)
	assert.Len(t, row.Resolved.AddonIDs, 2)
	// Large groom 8500 plus addons 1500 and 1000.
	assert.Equal(t, 11000, row.Resolved.TotalCents)
	assert.Equal(t, time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC), row.Resolved.ScheduledAt)
}

func TestRules_ClosedDay(t *testing.T) {
	raw := goodRow(2)
	raw.Values[ColAppointmentDate] = "2026-09-13" // a Sunday

	row := validateRow(t, raw)
	require.Len(t, row.Errors, 1)
	assert.Equal(t, CodeClosedDay, row.Errors[0].Code)
}

func TestRules_OutsideHours(t *testing.T) {
	for _, clock := range []string{"8:00 AM", "17:30", "7:15 PM"} {
		raw := goodRow(2)
		raw.Values[ColAppointmentTime] = clock

		row := validateRow(t, raw)
		require.Len(t, row.Errors, 1, clock)
		assert.Equal(t, CodeOutsideHours, row.Errors[0].Code, clock)
	}
}

func TestRules_PastDateIsWarningOnly(t *testing.T) {
	raw := goodRow(2)
	raw.Values[ColAppointmentDate] = "2026-08-20"

	row := validateRow(t, raw)
	assert.Empty(t, row.Errors)
	require.Len(t, row.Warnings, 1)
	assert.Equal(t, CodePastDate, row.Warnings[0].Code)
	assert.True(t, row.IsValid())
}

func TestRules_WeightMismatchIsWarningOnly(t *testing.T) {
	raw := goodRow(2)
	raw.Values[ColPetSize] = "small"
	raw.Values[ColPetWeight] = "45"
	raw.Values[ColAmountPaid] = "$80.00"

	row := validateRow(t, raw)
	assert.True(t, row.IsValid())

	var mismatches []FieldWarning
	for _, w := range row.Warnings {
		if w.Code == CodeWeightMismatch {
			mismatches = append(mismatches, w)
		}
	}
	require.Len(t, mismatches, 1)
	assert.Equal(t, ColPetWeight, mismatches[0].Field)
}

func TestRules_UnknownServiceAndAddon(t *testing.T) {
	raw := goodRow(2)
	raw.Values[ColServiceName] = "Mud Bath"
	raw.Values[ColAddons] = "Nail Trim, Feather Extensions"

	row := validateRow(t, raw)
	codes := map[string]bool{}
	for _, e := range row.Errors {
		codes[e.Code] = true
	}
	assert.True(t, codes[CodeServiceNotFound])
	assert.True(t, codes[CodeAddonNotFound])
	assert.Zero(t, row.Resolved.TotalCents)
}

func TestRules_PricingUnavailable(t *testing.T) {
	raw := goodRow(2)
	raw.Values[ColServiceName] = "Bath" // only priced for small
	raw.Values[ColPetSize] = "large"

	row := validateRow(t, raw)
	require.NotEmpty(t, row.Errors)
	assert.Equal(t, CodePricingUnavailable, row.Errors[0].Code)
}

func TestRules_PaymentConsistency(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		method   string
		amount   string
		wantCode string
	}{
		{"partial without amount", "partially_paid", "card", "", CodePaymentInvalid},
		{"partial equal to total", "partially_paid", "card", "$110.00", CodePaymentInvalid},
		{"partial over total", "partially_paid", "card", "$200.00", CodePaymentInvalid},
		{"partial ok", "partially_paid", "card", "$50.00", ""},
		{"paid without method", "paid", "", "$110.00", CodePaymentInvalid},
		{"unpaid needs nothing", "unpaid", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := goodRow(2)
			raw.Values[ColPaymentStatus] = tt.status
			raw.Values[ColPaymentMethod] = tt.method
			raw.Values[ColAmountPaid] = tt.amount

			row := validateRow(t, raw)
			if tt.wantCode == "" {
				assert.Empty(t, row.Errors)
				return
			}
			require.NotEmpty(t, row.Errors)
			assert.Equal(t, tt.wantCode, row.Errors[0].Code)
		})
	}
}
