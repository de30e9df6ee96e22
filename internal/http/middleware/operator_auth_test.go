package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signedToken(t *testing.T, secret, subject string) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func operatorEcho(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := OperatorIDFromContext(r.Context())
		require.True(t, ok)
		w.Write([]byte(id.String()))
	})
}

func TestOperatorJWT_ValidToken(t *testing.T) {
	operatorID := uuid.New()
	handler := OperatorJWT(testSecret)(operatorEcho(t))

	req := httptest.NewRequest(http.MethodPost, "/imports", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, testSecret, operatorID.String()))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, operatorID.String(), rec.Body.String())
}

func TestOperatorJWT_Rejections(t *testing.T) {
	handler := OperatorJWT(testSecret)(operatorEcho(t))

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.jwt"},
		{"wrong secret", "Bearer " + signedToken(t, "other-secret", uuid.NewString())},
		{"non-uuid subject", "Bearer " + signedToken(t, testSecret, "admin")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/imports", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestOperatorJWT_EmptySecretDisablesAuth(t *testing.T) {
	handler := OperatorJWT("")(operatorEcho(t))

	req := httptest.NewRequest(http.MethodPost, "/imports", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, testSecret, uuid.NewString()))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOperatorJWT_ExpiredToken(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	handler := OperatorJWT(testSecret)(operatorEcho(t))
	req := httptest.NewRequest(http.MethodPost, "/imports", nil)
	req.Header.Set("Authorization", "Bearer "+s)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
