package pets

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Size buckets a pet for pricing and handling. Stored lower-cased.
type Size string

const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
	SizeXLarge Size = "xlarge"
)

// ParseSize matches a size label case-insensitively.
func ParseSize(s string) (Size, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "small", "s":
		return SizeSmall, true
	case "medium", "m":
		return SizeMedium, true
	case "large", "l":
		return SizeLarge, true
	case "xlarge", "extra_large", "extra large", "xl":
		return SizeXLarge, true
	}
	return "", false
}

// WeightBand returns the inclusive weight range, in pounds, considered
// normal for the size. The upper bound for XLarge is open.
func (s Size) WeightBand() (min, max float64) {
	switch s {
	case SizeSmall:
		return 0, 25
	case SizeMedium:
		return 26, 60
	case SizeLarge:
		return 61, 100
	case SizeXLarge:
		return 101, 0
	}
	return 0, 0
}

// InBand reports whether the weight falls inside the size's normal band.
func (s Size) InBand(weightLbs float64) bool {
	min, max := s.WeightBand()
	if weightLbs < min {
		return false
	}
	if max > 0 && weightLbs > max {
		return false
	}
	return true
}

// Pet belongs to exactly one customer. Name is unique per customer,
// case-insensitively.
type Pet struct {
	ID         uuid.UUID `json:"id"`
	CustomerID uuid.UUID `json:"customer_id"`
	Name       string    `json:"name"`
	Breed      string    `json:"breed"`
	Size       Size      `json:"size"`
	WeightLbs  float64   `json:"weight_lbs"`
	CreatedAt  time.Time `json:"created_at"`
}

// Draft holds the fields needed to create a pet that does not exist yet.
type Draft struct {
	Name      string  `json:"name"`
	Breed     string  `json:"breed"`
	Size      Size    `json:"size"`
	WeightLbs float64 `json:"weight_lbs"`
}

// CanonicalName returns the per-customer identity key for this draft.
func (d Draft) CanonicalName() string {
	return CanonicalName(d.Name)
}

// Validate checks the draft has enough data to create a pet.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrMissingName
	}
	return nil
}

// CanonicalName lower-cases and trims a pet name for identity comparison.
func CanonicalName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
