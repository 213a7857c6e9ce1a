package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/lingdou-api/internal/api/shared"
	"github.com/phrazzld/lingdou-api/internal/mocks"
	"github.com/phrazzld/lingdou-api/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoUser(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUserID(r)
		require.True(t, ok)
		_, _ = w.Write([]byte(userID.String()))
	})
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	tests := []struct {
		name       string
		header     string
		validate   error
		claims     *auth.Claims
		wantStatus int
		wantBody   string
	}{
		{name: "valid", header: "Bearer good", wantStatus: http.StatusOK, wantBody: userID.String()},
		{name: "lowercase scheme", header: "bearer good", wantStatus: http.StatusOK, wantBody: userID.String()},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized, wantBody: "Authorization header required"},
		{name: "basic scheme", header: "Basic abc", wantStatus: http.StatusUnauthorized, wantBody: "Authorization header required"},
		{name: "expired", header: "Bearer old", validate: auth.ErrExpiredToken, wantStatus: http.StatusUnauthorized, wantBody: "Token expired"},
		{name: "invalid", header: "Bearer bad", validate: auth.ErrInvalidToken, wantStatus: http.StatusUnauthorized, wantBody: "Invalid token"},
		{name: "wrong type", header: "Bearer refresh", validate: auth.ErrWrongTokenType, wantStatus: http.StatusUnauthorized, wantBody: "Invalid token"},
		{name: "nil user", header: "Bearer anon", claims: &auth.Claims{}, wantStatus: http.StatusUnauthorized, wantBody: "Invalid token"},
		{name: "unexpected", header: "Bearer x", validate: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantBody: "Authentication error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			jwt := mocks.NewMockJWTServiceForUser(userID)
			jwt.ValidateErr = tt.validate
			if tt.claims != nil {
				jwt.Claims = tt.claims
			}
			if tt.validate != nil {
				jwt.Claims = nil
			}

			req := httptest.NewRequest(http.MethodGet, "/api/ledger/balances", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			NewAuthMiddleware(jwt).Authenticate(echoUser(t)).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestTraceMiddleware(t *testing.T) {
	t.Parallel()

	var seen string
	h := NewTraceMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = shared.GetTraceID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Len(t, seen, 32)
	assert.Equal(t, seen, rec.Header().Get("X-Trace-Id"))
}
