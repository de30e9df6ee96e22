package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/wolfman30/grooming-platform/internal/appointments"
	"github.com/wolfman30/grooming-platform/internal/http/middleware"
	"github.com/wolfman30/grooming-platform/internal/importer"
	"github.com/wolfman30/grooming-platform/pkg/logging"
)

// ImportHandler accepts bulk appointment files from operators.
type ImportHandler struct {
	svc          *importer.Service
	maxFileBytes int64
	defaultSend  bool
	logger       *logging.Logger
}

// NewImportHandler creates an import handler.
func NewImportHandler(svc *importer.Service, maxFileBytes int64, defaultSendNotifications bool, logger *logging.Logger) *ImportHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ImportHandler{
		svc:          svc,
		maxFileBytes: maxFileBytes,
		defaultSend:  defaultSendNotifications,
		logger:       logger,
	}
}

// Upload handles POST /api/imports. The multipart form carries the file
// under "file" plus optional duplicate_strategy, failure_policy,
// send_notifications, validate_only, and include_report fields.
func (h *ImportHandler) Upload(w http.ResponseWriter, r *http.Request) {
	operatorID, ok := middleware.OperatorIDFromContext(r.Context())
	if !ok {
		jsonError(w, "operator identity required", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileBytes+64*1024)
	if err := r.ParseMultipartForm(h.maxFileBytes); err != nil {
		jsonError(w, "file exceeds the upload size limit", http.StatusRequestEntityTooLarge)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "multipart field \"file\" is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("failed to read import upload", "error", err)
		jsonError(w, "failed to read uploaded file", http.StatusBadRequest)
		return
	}

	strategy, ok := importer.ParseDuplicateStrategy(r.FormValue("duplicate_strategy"))
	if !ok {
		jsonError(w, "duplicate_strategy must be skip, overwrite, or reject", http.StatusBadRequest)
		return
	}
	policy, ok := importer.ParseFailurePolicy(r.FormValue("failure_policy"))
	if !ok {
		jsonError(w, "failure_policy must be partial or all_or_nothing", http.StatusBadRequest)
		return
	}

	opts := importer.Options{
		DuplicateStrategy: strategy,
		FailurePolicy:     policy,
		SendNotifications: boolField(r, "send_notifications", h.defaultSend),
		ValidateOnly:      boolField(r, "validate_only", false),
		IncludeReport:     boolField(r, "include_report", false),
		Method:            appointments.CreatedBulkImport,
		OperatorID:        &operatorID,
	}

	summary, err := h.svc.Import(r.Context(), header.Filename, data, opts, nil)
	if err != nil {
		var ferr *importer.FileError
		if errors.As(err, &ferr) {
			writeJSON(w, http.StatusBadRequest, ferr)
			return
		}
		h.logger.Error("import failed", "error", err, "file", header.Filename)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	if summary.Status == importer.StatusRejected {
		status = http.StatusConflict
	}
	writeJSON(w, status, summary)
}

// DownloadReport handles POST /api/imports/report. It turns the
// error_report_csv field of a previously returned summary into a CSV file
// download, so browser clients do not have to synthesize one.
func (h *ImportHandler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.OperatorIDFromContext(r.Context()); !ok {
		jsonError(w, "operator identity required", http.StatusUnauthorized)
		return
	}

	var req struct {
		Report string `json:"error_report_csv"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Report == "" {
		jsonError(w, "error_report_csv is required", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="import-errors.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(req.Report))
}

func boolField(r *http.Request, name string, fallback bool) bool {
	v := r.FormValue(name)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
