package shared

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestSetTraceID(t *testing.T) {
	t.Parallel()

	t.Run("generated", func(t *testing.T) {
		t.Parallel()
		ctx := SetTraceID(context.Background())
		id := GetTraceID(ctx)
		require.Len(t, id, 32)
		_, err := hex.DecodeString(id)
		assert.NoError(t, err)
		assert.NotEqual(t, id, GetTraceID(SetTraceID(context.Background())))
	})

	t.Run("reuses span trace id", func(t *testing.T) {
		t.Parallel()
		traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
		require.NoError(t, err)
		spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
		require.NoError(t, err)
		sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
		ctx := trace.ContextWithSpanContext(context.Background(), sc)

		assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", GetTraceID(SetTraceID(ctx)))
	})

	t.Run("wrong type", func(t *testing.T) {
		t.Parallel()
		ctx := context.WithValue(context.Background(), TraceIDKey, 123)
		assert.Empty(t, GetTraceID(ctx))
	})
}

func TestUserIDFromContext(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	got, ok := UserIDFromContext(WithUserID(context.Background(), id))
	assert.True(t, ok)
	assert.Equal(t, id, got)

	_, ok = UserIDFromContext(WithUserID(context.Background(), uuid.Nil))
	assert.False(t, ok)

	_, ok = UserIDFromContext(context.Background())
	assert.False(t, ok)
}

func TestFallbackTraceID(t *testing.T) {
	t.Parallel()
	assert.Len(t, generateFallbackTraceID(), 32)
}

type applyBody struct {
	Amount int64  `json:"amount" validate:"required"`
	Reason string `json:"reason" validate:"required,max=200"`
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		wantErr bool
		empty   bool
	}{
		{name: "valid", body: `{"amount": 5, "reason": "bonus"}`},
		{name: "malformed", body: `{"amount": 5,}`, wantErr: true},
		{name: "unknown field", body: `{"amount": 5, "reason": "x", "extra": 1}`, wantErr: true},
		{name: "empty", body: ``, wantErr: true, empty: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var v applyBody
			err := DecodeJSON(req, &v)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, int64(5), v.Amount)
				return
			}
			require.Error(t, err)
			if tt.empty {
				assert.ErrorIs(t, err, ErrEmptyBody)
			}
		})
	}
}

type selfValidating struct{ ok bool }

func (s selfValidating) Validate() error {
	if !s.ok {
		return errors.New("not ok")
	}
	return nil
}

func TestValidateRequest(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateRequest(&applyBody{Amount: 1, Reason: "bonus"}))
	assert.Error(t, ValidateRequest(&applyBody{Reason: "bonus"}))
	assert.Error(t, ValidateRequest(&applyBody{Amount: 1, Reason: strings.Repeat("x", 201)}))
	assert.NoError(t, ValidateRequest(selfValidating{ok: true}))
	assert.Error(t, ValidateRequest(selfValidating{}))
}

func TestRespondWithJSON(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	RespondWithJSON(rec, req, http.StatusCreated, map[string]int{"balance": 95})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"balance":95}`, rec.Body.String())
}

func TestRespondWithErrorAndLog(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/x/finish", nil)
	req = req.WithContext(SetTraceID(req.Context()))
	rec := httptest.NewRecorder()

	RespondWithErrorAndLog(rec, req, http.StatusServiceUnavailable, "Grading is temporarily unavailable",
		errors.New("dial postgres://u:p@db/x"), WithRetryable())

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Grading is temporarily unavailable", body.Error)
	assert.True(t, body.Retryable)
	assert.Equal(t, GetTraceID(req.Context()), body.TraceID)
	assert.NotContains(t, rec.Body.String(), "postgres")
}

func TestRespondWithError(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	RespondWithError(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusUnauthorized, "Invalid token")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid token"}`, rec.Body.String())
}
