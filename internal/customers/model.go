package customers

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Origin records how a customer account came to exist.
type Origin string

const (
	// OriginSelfService marks accounts created by the customer through signup.
	OriginSelfService Origin = "self_service"
	// OriginOperatorManual marks accounts created by staff on a customer's behalf.
	OriginOperatorManual Origin = "operator_manual"
	// OriginBulkImport marks accounts created by the bulk import pipeline.
	OriginBulkImport Origin = "bulk_import"
)

// Customer is a registered or operator-created account. Email is stored in
// canonical lower-cased form and is unique across the system.
type Customer struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Phone          string    `json:"phone"`
	Active         bool      `json:"active"`
	CredentialHash string    `json:"-"`
	Origin         Origin    `json:"origin"`
	CreatedAt      time.Time `json:"created_at"`
}

// Draft holds the fields needed to create a customer that does not exist yet.
type Draft struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// CanonicalEmail returns the identity key for this draft.
func (d Draft) CanonicalEmail() string {
	return CanonicalEmail(d.Email)
}

// Validate checks the draft has enough data to create an account.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Email) == "" {
		return ErrMissingEmail
	}
	if strings.TrimSpace(d.FirstName) == "" {
		return ErrMissingName
	}
	return nil
}

// CanonicalEmail lower-cases and trims an email for identity comparison.
func CanonicalEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SplitName splits a full name at the first whitespace boundary. Everything
// after the first token belongs to the last name.
func SplitName(full string) (first, last string) {
	fields := strings.Fields(full)
	if len(fields) == 0 {
		return "", ""
	}
	if len(fields) == 1 {
		return fields[0], ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}
