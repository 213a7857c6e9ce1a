package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrTopicNotResolvable marks a reference that matched no catalog entry.
	// It is informational only: resolution always falls back to a synthetic topic.
	ErrTopicNotResolvable = errors.New("topic not resolvable")

	// ErrInsufficientBalance is returned when a spend would take a balance below zero.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrGradingUnavailable is returned when the answer grader timed out,
	// was rate limited, or returned an unusable result.
	ErrGradingUnavailable = errors.New("grading unavailable")

	// ErrInvalidSession is returned when a session is finished with no attempts.
	ErrInvalidSession = errors.New("invalid session")

	// ErrConsistencyViolation is returned when replaying a ledger does not
	// reproduce its balance snapshots.
	ErrConsistencyViolation = errors.New("ledger consistency violation")

	// ErrInvalidAmount is returned for a zero ledger amount.
	ErrInvalidAmount = errors.New("invalid ledger amount")

	// ErrInvalidCurrency is returned for an unknown currency kind.
	ErrInvalidCurrency = errors.New("invalid currency")

	// ErrInvalidAttempt is returned when an attempt carries an out-of-range tier or unknown kind.
	ErrInvalidAttempt = errors.New("invalid attempt")

	// ErrInvalidMasteryLevel is returned when a mastery level string is not recognized.
	ErrInvalidMasteryLevel = errors.New("invalid mastery level")

	// ErrInvalidProgress is returned when progress counters break their invariants.
	ErrInvalidProgress = errors.New("invalid progress")
)
