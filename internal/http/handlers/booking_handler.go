package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/wolfman30/grooming-platform/internal/appointments"
	"github.com/wolfman30/grooming-platform/internal/http/middleware"
	"github.com/wolfman30/grooming-platform/internal/importer"
	"github.com/wolfman30/grooming-platform/pkg/logging"
)

// BookingHandler creates single appointments entered by hand. The request
// runs through the same validation and persistence core as a bulk import
// row.
type BookingHandler struct {
	svc         *importer.Service
	defaultSend bool
	logger      *logging.Logger
}

// NewBookingHandler creates a booking handler.
func NewBookingHandler(svc *importer.Service, defaultSendNotifications bool, logger *logging.Logger) *BookingHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingHandler{svc: svc, defaultSend: defaultSendNotifications, logger: logger}
}

// Create handles POST /api/bookings.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	operatorID, ok := middleware.OperatorIDFromContext(r.Context())
	if !ok {
		jsonError(w, "operator identity required", http.StatusUnauthorized)
		return
	}

	var req importer.ManualRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	opts := importer.Options{
		FailurePolicy:     importer.PolicyPartial,
		SendNotifications: h.defaultSend,
		Method:            appointments.CreatedOperatorManual,
		OperatorID:        &operatorID,
	}

	result, err := h.svc.CreateManual(r.Context(), req, opts)
	if err != nil {
		h.logger.Error("manual booking failed", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	switch result.Outcome {
	case importer.OutcomeInvalid:
		writeJSON(w, http.StatusUnprocessableEntity, result)
	case importer.OutcomeSkipped:
		writeJSON(w, http.StatusConflict, result)
	case importer.OutcomeCreated:
		writeJSON(w, http.StatusCreated, result)
	default:
		writeJSON(w, http.StatusInternalServerError, result)
	}
}
