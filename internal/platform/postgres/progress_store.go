package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/lingdou-api/internal/domain"
	"github.com/phrazzld/lingdou-api/internal/platform/logger"
	"github.com/phrazzld/lingdou-api/internal/store"
)

const progressColumns = `user_id, topic_id, knowledge_learned, mastery_level, training_count,
	correct_answers, total_questions, accuracy_rate, best_score, last_trained_date,
	created_at, updated_at`

// leaderboardOrder whitelists the ORDER BY expression for each sort key.
var leaderboardOrder = map[domain.LeaderboardSort]string{
	domain.SortTotalScore:     "total_score",
	domain.SortTotalTrainings: "total_trainings",
	domain.SortMasteredTopics: "mastered_topics",
}

// PostgresProgressStore implements the store.ProgressStore interface.
type PostgresProgressStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresProgressStore creates a new PostgreSQL implementation of the ProgressStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresProgressStore(db store.DBTX, logger *slog.Logger) *PostgresProgressStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresProgressStore{
		db:     db,
		logger: logger.With(slog.String("component", "progress_store")),
	}
}

// Ensure PostgresProgressStore implements store.ProgressStore interface
var _ store.ProgressStore = (*PostgresProgressStore)(nil)

func scanProgress(row rowScanner) (*domain.UserProgress, error) {
	var (
		p           domain.UserProgress
		lastTrained sql.NullTime
	)
	err := row.Scan(&p.UserID, &p.TopicID, &p.KnowledgeLearned, &p.MasteryLevel, &p.TrainingCount,
		&p.CorrectAnswers, &p.TotalQuestions, &p.AccuracyRate, &p.BestScore, &lastTrained,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if lastTrained.Valid {
		t := lastTrained.Time.UTC()
		p.LastTrainedDate = &t
	}
	return &p, nil
}

// ListByUser implements store.ProgressStore.ListByUser
func (s *PostgresProgressStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.UserProgress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + progressColumns + ` FROM user_progress WHERE user_id = $1 ORDER BY topic_id`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to list progress",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	out := []domain.UserProgress{}
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, MapError(err)
		}
		out = append(out, *p)
	}
	return out, MapError(rows.Err())
}

// GetForUpdate implements store.ProgressStore.GetForUpdate
func (s *PostgresProgressStore) GetForUpdate(
	ctx context.Context,
	userID uuid.UUID,
	topicID string,
) (*domain.UserProgress, error) {
	query := `SELECT ` + progressColumns + `
		FROM user_progress
		WHERE user_id = $1 AND topic_id = $2
		FOR UPDATE`

	p, err := scanProgress(s.db.QueryRowContext(ctx, query, userID, topicID))
	if err != nil {
		return nil, mapNotFound(err, store.ErrProgressNotFound)
	}
	return p, nil
}

// Save implements store.ProgressStore.Save
func (s *PostgresProgressStore) Save(ctx context.Context, p *domain.UserProgress) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := p.Validate(); err != nil {
		log.Warn("progress validation failed during save",
			slog.String("error", err.Error()),
			slog.String("user_id", p.UserID.String()),
			slog.String("topic_id", p.TopicID))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO user_progress (` + progressColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (user_id, topic_id) DO UPDATE
		SET knowledge_learned = EXCLUDED.knowledge_learned,
		    mastery_level = EXCLUDED.mastery_level,
		    training_count = EXCLUDED.training_count,
		    correct_answers = EXCLUDED.correct_answers,
		    total_questions = EXCLUDED.total_questions,
		    accuracy_rate = EXCLUDED.accuracy_rate,
		    best_score = EXCLUDED.best_score,
		    last_trained_date = EXCLUDED.last_trained_date,
		    updated_at = EXCLUDED.updated_at
	`
	var lastTrained sql.NullTime
	if p.LastTrainedDate != nil {
		lastTrained = sql.NullTime{Time: *p.LastTrainedDate, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		p.UserID, p.TopicID, p.KnowledgeLearned, p.MasteryLevel, p.TrainingCount,
		p.CorrectAnswers, p.TotalQuestions, p.AccuracyRate, p.BestScore, lastTrained,
		p.CreatedAt, p.UpdatedAt)
	if err != nil {
		log.Error("failed to save progress",
			slog.String("error", err.Error()),
			slog.String("user_id", p.UserID.String()),
			slog.String("topic_id", p.TopicID))
		return MapError(err)
	}

	log.Debug("progress saved",
		slog.String("user_id", p.UserID.String()),
		slog.String("topic_id", p.TopicID),
		slog.String("mastery_level", string(p.MasteryLevel)))
	return nil
}

// Leaderboard implements store.ProgressStore.Leaderboard
func (s *PostgresProgressStore) Leaderboard(
	ctx context.Context,
	sortBy domain.LeaderboardSort,
	limit int,
) ([]domain.LeaderboardEntry, error) {
	order, ok := leaderboardOrder[sortBy]
	if !ok {
		return nil, fmt.Errorf("%w: unknown leaderboard sort %q", store.ErrInvalidEntity, sortBy)
	}

	query := `
		SELECT user_id,
		       COALESCE(SUM(best_score), 0) AS total_score,
		       COALESCE(SUM(training_count), 0) AS total_trainings,
		       COUNT(*) FILTER (WHERE mastery_level = 'mastered') AS mastered_topics
		FROM user_progress
		GROUP BY user_id
		ORDER BY ` + order + ` DESC, user_id
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	out := []domain.LeaderboardEntry{}
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.TotalScore, &e.TotalTrainings, &e.MasteredTopics); err != nil {
			return nil, MapError(err)
		}
		out = append(out, e)
	}
	return out, MapError(rows.Err())
}
