package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/lingdou-api/internal/domain"
)

// ProgressStore defines persistence for per-user, per-topic progress rows.
type ProgressStore interface {
	// ListByUser returns all progress rows of a user.
	// Returns an empty slice if the user has none.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.UserProgress, error)

	// GetForUpdate retrieves one row and, inside a transaction, locks it
	// until the transaction ends.
	// Returns ErrProgressNotFound if no row exists.
	GetForUpdate(ctx context.Context, userID uuid.UUID, topicID string) (*domain.UserProgress, error)

	// Save inserts or replaces the row for (UserID, TopicID).
	// Returns ErrInvalidEntity when the row breaks its invariants.
	Save(ctx context.Context, progress *domain.UserProgress) error

	// Leaderboard aggregates progress per user, ordered by the sort column
	// descending, at most limit entries.
	Leaderboard(ctx context.Context, sortBy domain.LeaderboardSort, limit int) ([]domain.LeaderboardEntry, error)
}
