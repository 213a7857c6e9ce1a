package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/lingdou-api/internal/api/shared"
	"github.com/phrazzld/lingdou-api/internal/domain"
	"github.com/phrazzld/lingdou-api/internal/service"
	"github.com/phrazzld/lingdou-api/internal/service/auth"
	"github.com/phrazzld/lingdou-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes so that
// internal error types never reach clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return http.StatusUnauthorized

	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden

	case errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusPaymentRequired

	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, service.ErrSessionAlreadyFinished),
		errors.Is(err, domain.ErrOutOfStock):
		return http.StatusConflict

	case errors.Is(err, domain.ErrGradingUnavailable):
		return http.StatusServiceUnavailable

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidSession),
		errors.Is(err, domain.ErrInvalidAttempt),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidCurrency),
		errors.Is(err, domain.ErrInvalidMasteryLevel),
		errors.Is(err, domain.ErrInvalidProgress),
		errors.Is(err, domain.ErrEmptyReason),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err that never
// includes internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case MapErrorToStatusCode(err) == http.StatusUnauthorized:
		return "Invalid token"

	case errors.Is(err, service.ErrForbidden):
		return "You cannot access another user's data"

	case errors.Is(err, domain.ErrInsufficientBalance):
		return "Insufficient balance"

	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, store.ErrNotFound):
		return "Not found"

	case errors.Is(err, service.ErrSessionAlreadyFinished):
		return "Training session already finished"
	case errors.Is(err, domain.ErrOutOfStock):
		return "Product out of stock"

	case errors.Is(err, domain.ErrGradingUnavailable):
		return "Answer grading is temporarily unavailable, please retry"

	case errors.Is(err, domain.ErrInvalidSession):
		return "Training session has no answers"
	case errors.Is(err, domain.ErrInvalidAttempt):
		return "Invalid answer in training session"
	case errors.Is(err, domain.ErrInvalidAmount):
		return "Amount must not be zero"
	case errors.Is(err, domain.ErrInvalidCurrency):
		return "Unknown currency"
	case errors.Is(err, domain.ErrEmptyReason):
		return "Reason is required"
	case MapErrorToStatusCode(err) == http.StatusBadRequest:
		return "Invalid request"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the mapped status and safe message for err and logs
// the redacted error. fallback replaces the generic message of a 500.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" {
		message = fallback
	}

	var opts []shared.ResponseOption
	switch status {
	case http.StatusServiceUnavailable:
		opts = append(opts, shared.WithRetryable())
	case http.StatusForbidden, http.StatusConflict:
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}

// SanitizeValidationError turns a validator error into a short
// client-facing message naming the first failed field.
func SanitizeValidationError(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return fmt.Sprintf("Invalid %s: %s", jsonFieldName(fe), getValidationTagMessage(fe.Tag()))
	}
	return "Validation error"
}

// jsonFieldName turns the struct namespace of fe into a dotted path of
// lower-case names such as attempts[0].kind.
func jsonFieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	return toSnake(ns)
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && isLowerOrDigit(s[i-1]) {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min", "gte":
		return "too small"
	case "max", "lte":
		return "too large"
	case "oneof":
		return "invalid value"
	case "uuid", "uuid4":
		return "invalid id"
	case "ne":
		return "must not be zero"
	default:
		return "validation failed"
	}
}

func isLowerOrDigit(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}
