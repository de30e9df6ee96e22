package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/grooming-platform/internal/audit"
	"github.com/wolfman30/grooming-platform/internal/customers"
	"github.com/wolfman30/grooming-platform/pkg/logging"
)

func registerRequest(t *testing.T, payload any) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/customers/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestRegister_NewCustomer(t *testing.T) {
	repo := customers.NewInMemoryRepository()
	queue := audit.NewMemoryQueue(4)
	handler := NewRegistrationHandler(repo, audit.NewRecorder(queue, logging.Default()), nil)

	rec := httptest.NewRecorder()
	handler.Register(rec, registerRequest(t, RegisterRequest{
		Email:      "new@example.com",
		FirstName:  "Nora",
		LastName:   "Chen",
		Credential: "hunter2hunter2",
	}))

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp RegisterResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "new@example.com", resp.Email)
	assert.False(t, resp.Claimed)
	assert.NotEmpty(t, resp.CustomerID)

	cust, err := repo.GetByEmail(context.Background(), "new@example.com")
	require.NoError(t, err)
	assert.True(t, cust.Active)
	assert.Equal(t, 1, queue.Len())
}

func TestRegister_ClaimsImportedPlaceholder(t *testing.T) {
	repo := customers.NewInMemoryRepository()
	handler := NewRegistrationHandler(repo, nil, nil)

	placeholder, created, err := repo.FindOrCreate(context.Background(), customers.Draft{
		Email:     "jane@example.com",
		FirstName: "Jane",
		LastName:  "Doe",
	}, customers.OriginBulkImport)
	require.NoError(t, err)
	require.True(t, created)
	require.False(t, placeholder.Active)

	rec := httptest.NewRecorder()
	handler.Register(rec, registerRequest(t, RegisterRequest{
		Email:      "Jane@Example.com",
		FirstName:  "Jane",
		LastName:   "Doe",
		Credential: "correct horse battery",
	}))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp RegisterResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Claimed)
	assert.Equal(t, placeholder.ID.String(), resp.CustomerID)

	claimed, err := repo.GetByID(context.Background(), placeholder.ID)
	require.NoError(t, err)
	assert.True(t, claimed.Active)
}

func TestRegister_AlreadyActive(t *testing.T) {
	repo := customers.NewInMemoryRepository()
	handler := NewRegistrationHandler(repo, nil, nil)

	body := RegisterRequest{Email: "taken@example.com", Credential: "first-secret"}
	rec := httptest.NewRecorder()
	handler.Register(rec, registerRequest(t, body))
	require.Equal(t, http.StatusCreated, rec.Code)

	body.Credential = "second-secret"
	rec = httptest.NewRecorder()
	handler.Register(rec, registerRequest(t, body))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegister_BadRequests(t *testing.T) {
	handler := NewRegistrationHandler(customers.NewInMemoryRepository(), nil, nil)

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", "{nope"},
		{"missing email", `{"credential":"secret"}`},
		{"invalid email", `{"email":"not-an-email","credential":"secret"}`},
		{"missing credential", `{"email":"a@example.com"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/customers/register", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			handler.Register(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
