package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/phrazzld/lingdou-api/internal/api/shared"
	"github.com/phrazzld/lingdou-api/internal/domain"
	"github.com/phrazzld/lingdou-api/internal/platform/grader"
	"github.com/phrazzld/lingdou-api/internal/service"
	"github.com/phrazzld/lingdou-api/internal/service/auth"
	"github.com/phrazzld/lingdou-api/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{auth.ErrExpiredToken, http.StatusUnauthorized},
		{auth.ErrMissingToken, http.StatusUnauthorized},
		{service.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("spend: %w", domain.ErrInsufficientBalance), http.StatusPaymentRequired},
		{fmt.Errorf("%w: product", service.ErrNotFound), http.StatusNotFound},
		{store.ErrProductNotFound, http.StatusNotFound},
		{service.ErrSessionAlreadyFinished, http.StatusConflict},
		{domain.ErrOutOfStock, http.StatusConflict},
		{&grader.ProviderError{Provider: "openai", Status: http.StatusTooManyRequests, Err: errors.New("quota")}, http.StatusServiceUnavailable},
		{domain.ErrInvalidSession, http.StatusBadRequest},
		{domain.ErrInvalidAmount, http.StatusBadRequest},
		{domain.ErrInvalidCurrency, http.StatusBadRequest},
		{fmt.Errorf("%w: limit", domain.ErrValidation), http.StatusBadRequest},
		{&service.ServiceError{Operation: "apply", Message: "db", Err: errors.New("conn reset")}, http.StatusInternalServerError},
		{domain.ErrConsistencyViolation, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, MapErrorToStatusCode(tt.err))
		})
	}
}

func TestGetSafeErrorMessage_HidesInternals(t *testing.T) {
	t.Parallel()

	err := &service.ServiceError{
		Operation: "apply_ledger",
		Message:   "failed",
		Err:       errors.New("dial postgres://lingdou:secret@db:5432 refused"),
	}
	msg := GetSafeErrorMessage(err)
	assert.Equal(t, "An unexpected error occurred", msg)
	assert.NotContains(t, msg, "postgres")

	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
	assert.Equal(t, "Token expired", GetSafeErrorMessage(auth.ErrExpiredToken))
	assert.Equal(t, "Invalid token", GetSafeErrorMessage(auth.ErrWrongTokenType))
}

func TestSanitizeValidationError(t *testing.T) {
	t.Parallel()

	err := shared.ValidateRequest(&LedgerApplyRequest{Currency: "points", Amount: 0, Reason: "x"})
	assert.Equal(t, "Invalid amount: must not be zero", SanitizeValidationError(err))

	err = shared.ValidateRequest(&FinishSessionRequest{
		TopicRef: "t",
		Attempts: []AttemptRequest{{Kind: "voice"}},
	})
	assert.Equal(t, "Invalid attempts[0].question_text: validation failed", SanitizeValidationError(err))

	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("plain")))
}
