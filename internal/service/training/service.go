// Package training records finished training sessions: it grades free-text
// answers, scores the batch, and commits the session record, the points
// award and the progress update together.
package training

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lingdou-api/internal/domain"
	"github.com/phrazzld/lingdou-api/internal/domain/mastery"
	"github.com/phrazzld/lingdou-api/internal/domain/resolver"
	"github.com/phrazzld/lingdou-api/internal/domain/scoring"
	"github.com/phrazzld/lingdou-api/internal/events"
	"github.com/phrazzld/lingdou-api/internal/platform/grader"
	"github.com/phrazzld/lingdou-api/internal/platform/logger"
	"github.com/phrazzld/lingdou-api/internal/service"
	"github.com/phrazzld/lingdou-api/internal/service/catalog"
	"github.com/phrazzld/lingdou-api/internal/service/ledger"
	"github.com/phrazzld/lingdou-api/internal/service/progress"
	"github.com/phrazzld/lingdou-api/internal/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const tracerName = "github.com/phrazzld/lingdou-api/internal/service/training"

// gradeConcurrency bounds the grader calls in flight for one session.
const gradeConcurrency = 4

// ReasonPrefix starts the ledger reason of every session award.
const ReasonPrefix = "training:"

// FinishRequest is the raw outcome of a session run.
type FinishRequest struct {
	TopicRef string
	Scope    resolver.Scope
	Attempts []domain.Attempt
}

// FinishResult is what a finished session produced.
type FinishResult struct {
	Session  domain.TrainingSession `json:"session"`
	Topic    domain.Topic           `json:"topic"`
	Score    scoring.Result         `json:"score"`
	Progress domain.UserProgress    `json:"progress"`
	// Balance is the points balance after the award.
	Balance int64 `json:"balance"`
	// Attempts carry the grades assigned to voice attempts.
	Attempts []domain.Attempt `json:"attempts"`
}

// Service finishes training sessions.
type Service interface {
	// Finish grades and scores the attempts and records the session.
	// Nothing is written when it fails: a session without attempts yields
	// domain.ErrInvalidSession, a session where no attempt could be graded
	// yields domain.ErrGradingUnavailable, and a session id that was already
	// recorded yields service.ErrSessionAlreadyFinished.
	Finish(ctx context.Context, userID, sessionID uuid.UUID, req FinishRequest) (*FinishResult, error)

	// History returns the user's most recent sessions, newest first.
	History(ctx context.Context, userID uuid.UUID, limit int) ([]domain.TrainingSession, error)
}

// Deps are the collaborators of the training Service. Policy, Scorer and
// Emitter fall back to defaults when nil.
type Deps struct {
	UnitOfWork store.UnitOfWork
	Catalog    catalog.Service
	Grader     grader.Grader
	Scorer     scoring.Service
	Policy     *mastery.Policy
	Emitter    events.EventEmitter
	Logger     *slog.Logger
}

type serviceImpl struct {
	uow     store.UnitOfWork
	catalog catalog.Service
	grader  grader.Grader
	scorer  scoring.Service
	policy  *mastery.Policy
	emitter events.EventEmitter
	logger  *slog.Logger
	now     func() time.Time
}

var _ Service = (*serviceImpl)(nil)

// NewService creates a training Service.
func NewService(deps Deps) (Service, error) {
	if deps.UnitOfWork == nil {
		return nil, &service.ServiceError{Operation: "create_service", Message: "unit of work cannot be nil"}
	}
	if deps.Catalog == nil {
		return nil, &service.ServiceError{Operation: "create_service", Message: "catalog service cannot be nil"}
	}
	if deps.Grader == nil {
		return nil, &service.ServiceError{Operation: "create_service", Message: "grader cannot be nil"}
	}
	if deps.Scorer == nil {
		deps.Scorer = scoring.NewDefaultService()
	}
	if deps.Policy == nil {
		deps.Policy = mastery.DefaultPolicy()
	}
	if deps.Emitter == nil {
		deps.Emitter = events.NopEmitter{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &serviceImpl{
		uow:     deps.UnitOfWork,
		catalog: deps.Catalog,
		grader:  deps.Grader,
		scorer:  deps.Scorer,
		policy:  deps.Policy,
		emitter: deps.Emitter,
		logger:  deps.Logger.With(slog.String("component", "training_service")),
		now:     time.Now,
	}, nil
}

func (s *serviceImpl) Finish(
	ctx context.Context,
	userID, sessionID uuid.UUID,
	req FinishRequest,
) (*FinishResult, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "training.Finish",
		trace.WithAttributes(
			attribute.String("session_id", sessionID.String()),
			attribute.Int("attempts", len(req.Attempts)),
		),
	)
	defer span.End()

	result, err := s.finish(ctx, userID, sessionID, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "finish failed")
		return nil, service.NewError("finish_session", "failed to finish training session", err)
	}
	span.SetAttributes(
		attribute.Int("score", result.Score.Score),
		attribute.Int("points_earned", result.Score.PointsEarned),
	)
	return result, nil
}

func (s *serviceImpl) finish(
	ctx context.Context,
	userID, sessionID uuid.UUID,
	req FinishRequest,
) (*FinishResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("user_id", userID.String()),
		slog.String("session_id", sessionID.String()))

	if sessionID == uuid.Nil {
		return nil, fmt.Errorf("%w: session id is required", domain.ErrValidation)
	}
	if len(req.Attempts) == 0 {
		return nil, fmt.Errorf("%w: no attempts", domain.ErrInvalidSession)
	}

	topic, _, err := s.catalog.Resolve(ctx, req.TopicRef, req.Scope)
	if err != nil {
		return nil, err
	}

	catalogTopics, err := s.catalog.Topics(ctx)
	if err != nil {
		return nil, err
	}

	attempts, err := s.grade(ctx, req.Attempts)
	if err != nil {
		return nil, err
	}

	scored, err := s.scorer.Score(attempts, topic.Difficulty.Tier())
	if err != nil {
		log.Warn("session could not be scored", slog.String("error", err.Error()))
		return nil, err
	}

	now := s.now().UTC()
	session := domain.TrainingSession{
		ID:                sessionID,
		UserID:            userID,
		TopicID:           topic.ID,
		QuestionsAnswered: scored.Answered,
		CorrectCount:      scored.CorrectCount,
		TotalScore:        scored.Score,
		PointsEarned:      scored.PointsEarned,
		CompletionDate:    now,
	}
	if err := session.Validate(); err != nil {
		return nil, err
	}

	out := &FinishResult{Session: session, Topic: topic, Score: *scored, Attempts: attempts}
	err = s.uow.Do(ctx, func(ctx context.Context, st store.Stores) error {
		if err := st.Sessions.Create(ctx, &session); err != nil {
			return err
		}

		if scored.PointsEarned > 0 {
			applied, err := ledger.ApplyInTx(ctx, st.Ledger, userID, domain.CurrencyPoints,
				int64(scored.PointsEarned), ReasonPrefix+topic.Name, now)
			if err != nil {
				return err
			}
			out.Balance = applied.NewBalance
		}

		progressID, err := progress.WriteTarget(ctx, st.Progress, catalogTopics, userID, req.TopicRef, topic)
		if err != nil {
			return err
		}
		score := scored.Score
		p, err := progress.ApplyPatch(ctx, st.Progress, s.policy, userID, progressID, domain.ProgressPatch{
			AddTrainingCount: 1,
			AddCorrect:       scored.CorrectCount,
			AddQuestions:     scored.Answered,
			SessionScore:     &score,
			TrainedAt:        &now,
		}, now)
		if err != nil {
			return err
		}
		out.Progress = *p
		return nil
	})
	if err != nil {
		log.Warn("session not recorded", slog.String("error", err.Error()))
		return nil, err
	}

	log.Info("training session finished",
		slog.String("topic_id", topic.ID),
		slog.Int("score", scored.Score),
		slog.Int("points_earned", scored.PointsEarned),
		slog.Int("ungraded", scored.Ungraded),
		slog.String("mastery_level", string(out.Progress.MasteryLevel)))

	s.emit(ctx, userID, events.SessionFinishedPayload{
		SessionID:    sessionID,
		TopicID:      topic.ID,
		Score:        scored.Score,
		PointsEarned: scored.PointsEarned,
		MasteryLevel: string(out.Progress.MasteryLevel),
	})
	return out, nil
}

// grade fills in the grade of every voice attempt. A failed grader call
// never fails the session: the attempt gets the neutral unavailable grade
// and the scorer leaves it out.
func (s *serviceImpl) grade(ctx context.Context, attempts []domain.Attempt) ([]domain.Attempt, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	out := make([]domain.Attempt, len(attempts))
	copy(out, attempts)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(gradeConcurrency)
	for i := range out {
		if out[i].Kind != domain.AttemptVoice {
			continue
		}
		g.Go(func() error {
			a := &out[i]
			res, err := s.grader.Grade(gctx, grader.GradeRequest{
				QuestionText: a.QuestionText,
				ModelAnswer:  a.ModelAnswer,
				AnswerText:   a.AnswerText,
			})
			if err != nil {
				log.Warn("attempt left ungraded",
					slog.String("question_id", a.QuestionID),
					slog.String("error", err.Error()))
				res = domain.UnavailableGrade()
			}
			a.Grade = &res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *serviceImpl) History(ctx context.Context, userID uuid.UUID, limit int) ([]domain.TrainingSession, error) {
	if limit <= 0 || limit > ledger.HistoryLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", domain.ErrValidation, ledger.HistoryLimit)
	}
	sessions, err := s.uow.Stores().Sessions.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, service.NewError("session_history", "failed to list training sessions", err)
	}
	return sessions, nil
}

func (s *serviceImpl) emit(ctx context.Context, userID uuid.UUID, payload events.SessionFinishedPayload) {
	event, err := events.New(events.SessionFinished, userID, payload)
	if err == nil {
		err = s.emitter.EmitEvent(ctx, event)
	}
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("failed to emit event",
			slog.String("event_type", string(events.SessionFinished)),
			slog.String("error", err.Error()))
	}
}
