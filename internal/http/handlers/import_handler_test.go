package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/grooming-platform/internal/appointments"
	"github.com/wolfman30/grooming-platform/internal/catalog"
	"github.com/wolfman30/grooming-platform/internal/http/middleware"
	"github.com/wolfman30/grooming-platform/internal/importer"
	"github.com/wolfman30/grooming-platform/internal/pets"
)

func newImportService(store *appointments.InMemoryStore) *importer.Service {
	c := catalog.NewInMemoryCatalog()
	groom := c.AddService("Full Groom")
	c.SetPrice(groom.ID, pets.SizeSmall, 5500)
	c.SetPrice(groom.ID, pets.SizeLarge, 8500)

	rules := &importer.Rules{
		Catalog:   c,
		OpenHour:  9,
		CloseHour: 17,
		ClosedDay: time.Sunday,
		Location:  time.UTC,
		Now: func() time.Time {
			return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
		},
	}
	return importer.NewService(
		rules,
		&importer.DuplicateDetector{Reader: store},
		importer.NewExecutor(store, importer.ExecutorConfig{GroupSize: 10}, nil, nil),
		nil,
		nil,
		importer.DefaultFileLimits(),
		nil,
		nil,
	)
}

func multipartUpload(t *testing.T, filename, contents string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(contents))
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func importRequest(t *testing.T, body *bytes.Buffer, contentType string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/imports", body)
	req.Header.Set("Content-Type", contentType)
	return req.WithContext(middleware.ContextWithOperatorID(req.Context(), uuid.New()))
}

const importCSV = "customer_email,customer_name,pet_name,pet_size,service_name,appointment_date,appointment_time\n" +
	"jane@example.com,Jane Doe,Rex,large,Full Groom,2026-09-14,10:00 AM\n" +
	"bad-email,Bob Ray,Fluffy,small,Full Groom,2026-09-15,2:00 PM\n"

func TestImportHandler_Upload(t *testing.T) {
	store := appointments.NewInMemoryStore()
	handler := NewImportHandler(newImportService(store), 5*1024*1024, false, nil)

	body, ct := multipartUpload(t, "bookings.csv", importCSV, nil)
	rec := httptest.NewRecorder()
	handler.Upload(rec, importRequest(t, body, ct))

	require.Equal(t, http.StatusOK, rec.Code)

	var summary importer.ImportSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, importer.StatusCompleted, summary.Status)
	assert.Equal(t, 2, summary.TotalRows)
	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 1, summary.InvalidRows)
	assert.Equal(t, 1, store.CountAppointments())
}

func TestImportHandler_FileRejected(t *testing.T) {
	handler := NewImportHandler(newImportService(appointments.NewInMemoryStore()), 5*1024*1024, false, nil)

	body, ct := multipartUpload(t, "bookings.pdf", "whatever", nil)
	rec := httptest.NewRecorder()
	handler.Upload(rec, importRequest(t, body, ct))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var ferr importer.FileError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ferr))
	assert.Equal(t, "INVALID_FILE_TYPE", ferr.Code)
}

func TestImportHandler_BadStrategy(t *testing.T) {
	handler := NewImportHandler(newImportService(appointments.NewInMemoryStore()), 5*1024*1024, false, nil)

	body, ct := multipartUpload(t, "bookings.csv", importCSV, map[string]string{
		"duplicate_strategy": "maybe",
	})
	rec := httptest.NewRecorder()
	handler.Upload(rec, importRequest(t, body, ct))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportHandler_MissingFile(t *testing.T) {
	handler := NewImportHandler(newImportService(appointments.NewInMemoryStore()), 5*1024*1024, false, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("duplicate_strategy", "skip"))
	require.NoError(t, mw.Close())

	rec := httptest.NewRecorder()
	handler.Upload(rec, importRequest(t, &body, mw.FormDataContentType()))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportHandler_RequiresOperator(t *testing.T) {
	handler := NewImportHandler(newImportService(appointments.NewInMemoryStore()), 5*1024*1024, false, nil)

	body, ct := multipartUpload(t, "bookings.csv", importCSV, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/imports", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	handler.Upload(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestImportHandler_ValidateOnly(t *testing.T) {
	store := appointments.NewInMemoryStore()
	handler := NewImportHandler(newImportService(store), 5*1024*1024, false, nil)

	body, ct := multipartUpload(t, "bookings.csv", importCSV, map[string]string{
		"validate_only": "true",
	})
	rec := httptest.NewRecorder()
	handler.Upload(rec, importRequest(t, body, ct))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, store.CountAppointments())
}

func TestImportHandler_DownloadReport(t *testing.T) {
	handler := NewImportHandler(newImportService(appointments.NewInMemoryStore()), 5*1024*1024, false, nil)

	payload := `{"error_report_csv":"row,customer_email,errors\n3,bad,customer_email: invalid\n"}`
	req := httptest.NewRequest(http.MethodPost, "/api/imports/report", bytes.NewReader([]byte(payload)))
	req = req.WithContext(middleware.ContextWithOperatorID(req.Context(), uuid.New()))
	rec := httptest.NewRecorder()
	handler.DownloadReport(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "import-errors.csv")
	assert.Contains(t, rec.Body.String(), "customer_email: invalid")
}

func TestImportHandler_DownloadReportEmpty(t *testing.T) {
	handler := NewImportHandler(newImportService(appointments.NewInMemoryStore()), 5*1024*1024, false, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/imports/report", bytes.NewReader([]byte(`{}`)))
	req = req.WithContext(middleware.ContextWithOperatorID(req.Context(), uuid.New()))
	rec := httptest.NewRecorder()
	handler.DownloadReport(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
