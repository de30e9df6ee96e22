package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wolfman30/grooming-platform/internal/appointments"
	"github.com/wolfman30/grooming-platform/internal/catalog"
	"github.com/wolfman30/grooming-platform/internal/customers"
	"github.com/wolfman30/grooming-platform/internal/pets"
)

// Rules is the business-rule validator. Every check runs independently so a
// row surfaces all of its violations in one pass; no check short-circuits
// another.
type Rules struct {
	Catalog   catalog.Catalog
	OpenHour  int
	CloseHour int
	ClosedDay time.Weekday
	Location  *time.Location

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

func (r *Rules) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Rules) location() *time.Location {
	if r.Location != nil {
		return r.Location
	}
	return time.UTC
}

// Validate applies business rules to a schema-validated row and fills in the
// resolved payload. Checks whose inputs failed schema validation are
// skipped; everything else still runs.
func (r *Rules) Validate(ctx context.Context, row *ValidatedRow, p *parsedFields) {
	row.Resolved.Customer = customers.Draft{
		Email:     p.email,
		FirstName: p.firstName,
		LastName:  p.lastName,
		Phone:     p.phone,
	}
	row.Resolved.Pet = pets.Draft{
		Name:      p.petName,
		Breed:     p.petBreed,
		Size:      p.petSize,
		WeightLbs: p.weightLbs,
	}
	row.Resolved.Notes = p.notes

	r.checkSchedule(row, p)
	r.checkWeight(row, p)
	total, priced := r.resolvePricing(ctx, row, p)
	r.checkPayment(row, p, total, priced)
}

func (r *Rules) checkSchedule(row *ValidatedRow, p *parsedFields) {
	if !p.hasDate || !p.hasTime {
		return
	}

	loc := r.location()
	scheduled := time.Date(p.date.Year(), p.date.Month(), p.date.Day(), p.hour, p.minute, 0, 0, loc)
	row.Resolved.ScheduledAt = scheduled

	if scheduled.Weekday() == r.ClosedDay {
		row.addError(ColAppointmentDate, CodeClosedDay,
			fmt.Sprintf("the shop is closed on %s", r.ClosedDay))
	}
	if p.hour < r.OpenHour || p.hour >= r.CloseHour {
		row.addError(ColAppointmentTime, CodeOutsideHours,
			fmt.Sprintf("time is outside business hours (%02d:00-%02d:00)", r.OpenHour, r.CloseHour))
	}
	if scheduled.Before(r.now()) {
		row.addWarning(ColAppointmentDate, CodePastDate, "appointment is in the past")
	}
}

func (r *Rules) checkWeight(row *ValidatedRow, p *parsedFields) {
	if !p.hasSize || !p.hasWeight {
		return
	}
	if !p.petSize.InBand(p.weightLbs) {
		min, max := p.petSize.WeightBand()
		band := fmt.Sprintf("%.0f-%.0f lbs", min, max)
		if max == 0 {
			band = fmt.Sprintf("over %.0f lbs", min)
		}
		row.addWarning(ColPetWeight, CodeWeightMismatch,
			fmt.Sprintf("weight %.1f lbs is unusual for size %s (expected %s)", p.weightLbs, p.petSize, band))
	}
}

// resolvePricing resolves the service, addons, and total price. Returns the
// total in cents and whether pricing fully resolved.
func (r *Rules) resolvePricing(ctx context.Context, row *ValidatedRow, p *parsedFields) (int, bool) {
	priced := true
	total := 0

	if p.serviceName != "" {
		svc, err := r.Catalog.ServiceByName(ctx, p.serviceName)
		switch {
		case errors.Is(err, catalog.ErrServiceNotFound):
			row.addError(ColServiceName, CodeServiceNotFound, fmt.Sprintf("unknown service %q", p.serviceName))
			priced = false
		case err != nil:
			row.addError(ColServiceName, CodeServiceNotFound, "service lookup failed")
			priced = false
		default:
			row.Resolved.ServiceID = svc.ID
			row.Resolved.ServiceName = svc.Name

			if p.hasSize {
				cents, err := r.Catalog.Price(ctx, svc.ID, p.petSize)
				switch {
				case errors.Is(err, catalog.ErrPriceNotFound):
					row.addError(ColServiceName, CodePricingUnavailable,
						fmt.Sprintf("no price for %q at size %s", svc.Name, p.petSize))
					priced = false
				case err != nil:
					row.addError(ColServiceName, CodePricingUnavailable, "price lookup failed")
					priced = false
				default:
					total += cents
				}
			} else {
				priced = false
			}
		}
	} else {
		priced = false
	}

	for _, name := range p.addonNames {
		addon, err := r.Catalog.AddonByName(ctx, name)
		switch {
		case errors.Is(err, catalog.ErrAddonNotFound):
			row.addError(ColAddons, CodeAddonNotFound, fmt.Sprintf("unknown addon %q", name))
			priced = false
		case err != nil:
			row.addError(ColAddons, CodeAddonNotFound, "addon lookup failed")
			priced = false
		default:
			row.Resolved.AddonIDs = append(row.Resolved.AddonIDs, addon.ID)
			total += addon.PriceCents
		}
	}

	if priced {
		row.Resolved.TotalCents = total
	}
	return total, priced
}

// checkPayment enforces financial consistency. Violations here are always
// blocking; payment fields never downgrade to warnings.
func (r *Rules) checkPayment(row *ValidatedRow, p *parsedFields, total int, priced bool) {
	if !p.hasPayment {
		return
	}
	row.Resolved.PaymentStatus = p.paymentStatus
	row.Resolved.PaymentMethod = p.paymentMethod
	row.Resolved.AmountPaidCents = p.amountPaidCents

	switch p.paymentStatus {
	case appointments.PaymentPartiallyPaid:
		if !p.hasAmount || p.amountPaidCents <= 0 {
			row.addError(ColAmountPaid, CodePaymentInvalid,
				"partially_paid requires an amount_paid greater than zero")
		} else if priced && p.amountPaidCents >= total {
			row.addError(ColAmountPaid, CodePaymentInvalid,
				fmt.Sprintf("partial amount %d must be less than the total %d", p.amountPaidCents, total))
		}
	case appointments.PaymentPaid:
		if p.paymentMethod == "" {
			row.addError(ColPaymentMethod, CodePaymentInvalid, "paid status requires a payment method")
		}
	}
}
