package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/lingdou-api/internal/domain"
	"github.com/phrazzld/lingdou-api/internal/store"
)

// Common service errors. Callers check them with errors.Is; the API layer
// maps them to HTTP status codes.
var (
	// ErrForbidden indicates a request for another user's data.
	// API layer should map this to HTTP 403 Forbidden.
	ErrForbidden = errors.New("resource belongs to another user")

	// ErrSessionAlreadyFinished indicates a session id that has already been recorded.
	// API layer should map this to HTTP 409 Conflict.
	ErrSessionAlreadyFinished = errors.New("training session already finished")

	// ErrNotFound indicates that a catalog entity does not exist.
	ErrNotFound = errors.New("not found")
)

// sentinels are returned to callers unwrapped.
var sentinels = []error{
	ErrForbidden,
	ErrSessionAlreadyFinished,
	ErrNotFound,
	domain.ErrValidation,
	domain.ErrInsufficientBalance,
	domain.ErrGradingUnavailable,
	domain.ErrInvalidSession,
	domain.ErrConsistencyViolation,
	domain.ErrInvalidAmount,
	domain.ErrInvalidCurrency,
	domain.ErrInvalidAttempt,
	domain.ErrInvalidMasteryLevel,
	domain.ErrInvalidProgress,
	domain.ErrOutOfStock,
	domain.ErrEmptyReason,
}

// ServiceError wraps an unexpected failure with the operation it happened in.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "finish_session", "apply_ledger")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewError returns err unchanged when it matches a known sentinel, maps
// store not-found and duplicate errors to their service equivalents, and
// wraps anything else in a ServiceError.
func NewError(operation, message string, err error) error {
	if err == nil {
		return nil
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return err
		}
	}
	switch {
	case errors.Is(err, store.ErrSessionExists):
		return fmt.Errorf("%w: %v", ErrSessionAlreadyFinished, err)
	case store.IsNotFoundError(err):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
