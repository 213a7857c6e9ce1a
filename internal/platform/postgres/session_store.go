package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/lingdou-api/internal/domain"
	"github.com/phrazzld/lingdou-api/internal/platform/logger"
	"github.com/phrazzld/lingdou-api/internal/store"
)

// PostgresSessionStore implements the store.SessionStore interface.
type PostgresSessionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSessionStore creates a new PostgreSQL implementation of the SessionStore interface.
func NewPostgresSessionStore(db store.DBTX, logger *slog.Logger) *PostgresSessionStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresSessionStore{
		db:     db,
		logger: logger.With(slog.String("component", "session_store")),
	}
}

// Ensure PostgresSessionStore implements store.SessionStore interface
var _ store.SessionStore = (*PostgresSessionStore)(nil)

// Create implements store.SessionStore.Create
func (s *PostgresSessionStore) Create(ctx context.Context, session *domain.TrainingSession) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := session.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO training_sessions
		    (id, user_id, topic_id, questions_answered, correct_count, total_score, points_earned, completion_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		session.ID, session.UserID, session.TopicID, session.QuestionsAnswered,
		session.CorrectCount, session.TotalScore, session.PointsEarned, session.CompletionDate)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("training session already recorded",
				slog.String("session_id", session.ID.String()))
			return store.ErrSessionExists
		}
		log.Error("failed to create training session",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return MapError(err)
	}

	log.Info("training session recorded",
		slog.String("session_id", session.ID.String()),
		slog.String("user_id", session.UserID.String()),
		slog.String("topic_id", session.TopicID),
		slog.Int("score", session.TotalScore))
	return nil
}

// ListByUser implements store.SessionStore.ListByUser
func (s *PostgresSessionStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	limit int,
) ([]domain.TrainingSession, error) {
	if limit <= 0 {
		return nil, errors.New("limit must be positive")
	}
	query := `
		SELECT id, user_id, topic_id, questions_answered, correct_count, total_score, points_earned, completion_date
		FROM training_sessions
		WHERE user_id = $1
		ORDER BY completion_date DESC, id
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	out := []domain.TrainingSession{}
	for rows.Next() {
		var ts domain.TrainingSession
		if err := rows.Scan(&ts.ID, &ts.UserID, &ts.TopicID, &ts.QuestionsAnswered,
			&ts.CorrectCount, &ts.TotalScore, &ts.PointsEarned, &ts.CompletionDate); err != nil {
			return nil, MapError(err)
		}
		out = append(out, ts)
	}
	return out, MapError(rows.Err())
}
