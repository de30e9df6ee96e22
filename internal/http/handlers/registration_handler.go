package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/wolfman30/grooming-platform/internal/audit"
	"github.com/wolfman30/grooming-platform/internal/customers"
	"github.com/wolfman30/grooming-platform/pkg/logging"
)

// RegistrationHandler handles customer self-registration. A customer whose
// record was placeholder-created by an import claims that record in place;
// the customer id never changes, so imported appointments stay attached.
type RegistrationHandler struct {
	repo    customers.Repository
	auditor *audit.Recorder
	logger  *logging.Logger
}

// NewRegistrationHandler creates a registration handler.
func NewRegistrationHandler(repo customers.Repository, auditor *audit.Recorder, logger *logging.Logger) *RegistrationHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &RegistrationHandler{repo: repo, auditor: auditor, logger: logger}
}

// RegisterRequest is the request body for self-registration.
type RegisterRequest struct {
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Phone      string `json:"phone,omitempty"`
	Credential string `json:"credential"`
}

// RegisterResponse is returned after successful registration.
type RegisterResponse struct {
	CustomerID string    `json:"customer_id"`
	Email      string    `json:"email"`
	Claimed    bool      `json:"claimed_existing"`
	CreatedAt  time.Time `json:"created_at"`
}

// Register handles POST /api/customers/register.
func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Credential = strings.TrimSpace(req.Credential)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		jsonError(w, "a valid email is required", http.StatusBadRequest)
		return
	}
	if req.Credential == "" {
		jsonError(w, "credential is required", http.StatusBadRequest)
		return
	}

	draft := customers.Draft{
		Email:     req.Email,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Phone:     strings.TrimSpace(req.Phone),
	}
	cust, created, err := h.repo.FindOrCreate(r.Context(), draft, customers.OriginSelfService)
	if err != nil {
		h.logger.Error("registration lookup failed", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	activated, err := h.repo.Activate(r.Context(), req.Email, hashCredential(req.Credential))
	switch {
	case errors.Is(err, customers.ErrAlreadyActive):
		jsonError(w, "an account already exists for this email", http.StatusConflict)
		return
	case err != nil:
		h.logger.Error("registration activation failed", "error", err, "customer_id", cust.ID)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	if h.auditor != nil {
		id := activated.ID
		h.auditor.Record(r.Context(), audit.Event{
			Type:       audit.EventCustomerActivated,
			CustomerID: &id,
			Method:     string(customers.OriginSelfService),
		})
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, RegisterResponse{
		CustomerID: activated.ID.String(),
		Email:      activated.Email,
		Claimed:    !created,
		CreatedAt:  activated.CreatedAt,
	})
}

func hashCredential(credential string) string {
	sum := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(sum[:])
}
