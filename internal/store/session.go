package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/lingdou-api/internal/domain"
)

// SessionStore defines persistence for finished training sessions.
// Sessions are append-only.
type SessionStore interface {
	// Create records a finished session.
	// Returns ErrSessionExists if a session with the same id was recorded.
	Create(ctx context.Context, session *domain.TrainingSession) error

	// ListByUser returns a user's most recent sessions, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.TrainingSession, error)
}
