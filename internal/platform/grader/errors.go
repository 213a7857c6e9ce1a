package grader

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/phrazzld/lingdou-api/internal/domain"
)

// ErrInvalidConfig is returned when a grader cannot be built from config.
var ErrInvalidConfig = errors.New("invalid grader configuration")

// ProviderError is a failed provider call. It matches
// domain.ErrGradingUnavailable under errors.Is.
type ProviderError struct {
	Provider string
	// Status is the HTTP status reported by the provider, 0 when unknown.
	Status int
	Err    error
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) Is(target error) bool {
	return target == domain.ErrGradingUnavailable
}

// RateLimited reports whether the provider rejected the call for quota.
func (e *ProviderError) RateLimited() bool {
	return e.Status == http.StatusTooManyRequests
}

// InvalidResponseError is a provider reply that is not a valid grade.
type InvalidResponseError struct {
	Content string
	Err     error
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("invalid grader response: %v", e.Err)
}

func (e *InvalidResponseError) Unwrap() error { return e.Err }

func (e *InvalidResponseError) Is(target error) bool {
	return target == domain.ErrGradingUnavailable
}
