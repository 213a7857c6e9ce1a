package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	// This is a generic version of the entity-specific not found errors.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrUpdateFailed is returned when an update affected no rows or
	// violated a constraint.
	ErrUpdateFailed = errors.New("update failed")

	// Entity-specific "not found" errors

	ErrTopicNotFound    = fmt.Errorf("%w: topic", ErrNotFound)
	ErrModuleNotFound   = fmt.Errorf("%w: module", ErrNotFound)
	ErrCategoryNotFound = fmt.Errorf("%w: category", ErrNotFound)
	ErrProgressNotFound = fmt.Errorf("%w: progress", ErrNotFound)
	ErrProductNotFound  = fmt.Errorf("%w: product", ErrNotFound)

	// Entity-specific "duplicate" errors

	// ErrSessionExists indicates a training session with the same id was already recorded.
	ErrSessionExists = fmt.Errorf("%w: training session", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
