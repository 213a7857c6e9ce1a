// Package progress serves per-user topic progress, the unlock maps derived
// from it, and the leaderboard.
package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lingdou-api/internal/domain"
	"github.com/phrazzld/lingdou-api/internal/domain/mastery"
	"github.com/phrazzld/lingdou-api/internal/domain/resolver"
	"github.com/phrazzld/lingdou-api/internal/domain/unlock"
	"github.com/phrazzld/lingdou-api/internal/events"
	"github.com/phrazzld/lingdou-api/internal/platform/cache"
	"github.com/phrazzld/lingdou-api/internal/platform/logger"
	"github.com/phrazzld/lingdou-api/internal/service"
	"github.com/phrazzld/lingdou-api/internal/service/catalog"
	"github.com/phrazzld/lingdou-api/internal/store"
)

// MaxLeaderboardLimit is the largest leaderboard page served.
const MaxLeaderboardLimit = 100

// View is a user's progress on a resolved topic.
type View struct {
	Topic    domain.Topic        `json:"topic"`
	Progress domain.UserProgress `json:"progress"`
	// Catalogued is false when the topic was synthesized.
	Catalogued bool `json:"catalogued"`
}

// ModuleMap is the unlock layout of one module for a user.
type ModuleMap struct {
	Module    domain.Module        `json:"module"`
	Topics    []unlock.TopicStatus `json:"topics"`
	Aggregate unlock.Aggregate     `json:"aggregate"`
}

// CategoryMap is the unlock layout of one category for a user.
type CategoryMap struct {
	Category  domain.Category       `json:"category"`
	Modules   []unlock.ModuleStatus `json:"modules"`
	Aggregate unlock.Aggregate      `json:"aggregate"`
}

// Service provides progress operations.
type Service interface {
	// Get returns the user's progress for a topic reference. A reference
	// with no stored progress yields default progress, never an error.
	Get(ctx context.Context, userID uuid.UUID, topicRef string, scope resolver.Scope) (*View, error)

	// Upsert applies patch to the user's progress on topicID atomically.
	Upsert(ctx context.Context, userID uuid.UUID, topicID string, patch domain.ProgressPatch) (*domain.UserProgress, error)

	// MarkLearned records that the user finished learning a topic. scope
	// resolves the reference the same way Get does.
	MarkLearned(ctx context.Context, userID uuid.UUID, topicRef string, scope resolver.Scope) (*View, error)

	// UnlockMap lays out the topics of a module for the user.
	UnlockMap(ctx context.Context, userID uuid.UUID, moduleKey string) (*ModuleMap, error)

	// CategoryMap lays out the modules of a category for the user.
	CategoryMap(ctx context.Context, userID uuid.UUID, category string) (*CategoryMap, error)

	// Leaderboard ranks users by sortBy.
	Leaderboard(ctx context.Context, sortBy domain.LeaderboardSort, limit int) ([]domain.LeaderboardEntry, error)
}

// DefaultService implements Service on a unit of work.
type DefaultService struct {
	uow     store.UnitOfWork
	catalog catalog.Service
	policy  *mastery.Policy
	cache   cache.Cache
	ttl     time.Duration
	emitter events.EventEmitter
	logger  *slog.Logger
	now     func() time.Time
}

var (
	_ Service             = (*DefaultService)(nil)
	_ events.EventHandler = (*DefaultService)(nil)
)

// Deps are the collaborators of the progress Service. Cache and Emitter
// are optional.
type Deps struct {
	UnitOfWork store.UnitOfWork
	Catalog    catalog.Service
	Policy     *mastery.Policy
	Cache      cache.Cache
	CacheTTL   time.Duration
	Emitter    events.EventEmitter
	Logger     *slog.Logger
}

// NewService creates a progress Service. The returned value also handles
// the events that invalidate the leaderboard cache.
func NewService(deps Deps) (*DefaultService, error) {
	if deps.UnitOfWork == nil {
		return nil, &service.ServiceError{Operation: "create_service", Message: "unit of work cannot be nil"}
	}
	if deps.Catalog == nil {
		return nil, &service.ServiceError{Operation: "create_service", Message: "catalog service cannot be nil"}
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
	return &DefaultService{
		uow:     deps.UnitOfWork,
		catalog: deps.Catalog,
		policy:  deps.Policy,
		cache:   deps.Cache,
		ttl:     deps.CacheTTL,
		emitter: deps.Emitter,
		logger:  deps.Logger.With(slog.String("component", "progress_service")),
		now:     time.Now,
	}, nil
}

// WriteTarget returns the topic id a write for reference lands on: the
// user's existing row found through the lookup chain, or the resolved
// topic's id when the user has none. Reads and writes then agree on one row
// even after catalog ids change. It must run inside a unit of work.
func WriteTarget(
	ctx context.Context,
	progress store.ProgressStore,
	catalogTopics []domain.Topic,
	userID uuid.UUID,
	reference string,
	resolved domain.Topic,
) (string, error) {
	rows, err := progress.ListByUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if p, ok := resolver.FindProgress(rows, catalogTopics, reference, resolved); ok {
		return p.TopicID, nil
	}
	return resolved.ID, nil
}

// ApplyPatch loads the row for update, applies patch, promotes mastery by
// policy and saves. It must run inside a unit of work.
func ApplyPatch(
	ctx context.Context,
	progress store.ProgressStore,
	policy *mastery.Policy,
	userID uuid.UUID,
	topicID string,
	patch domain.ProgressPatch,
	now time.Time,
) (*domain.UserProgress, error) {
	p, err := progress.GetForUpdate(ctx, userID, topicID)
	if errors.Is(err, store.ErrNotFound) {
		p = domain.NewUserProgress(userID, topicID)
		p.CreatedAt = now
	} else if err != nil {
		return nil, err
	}

	if err := p.Apply(patch, now); err != nil {
		return nil, err
	}
	p.MasteryLevel = policy.Next(*p)

	if err := progress.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *DefaultService) Get(
	ctx context.Context,
	userID uuid.UUID,
	topicRef string,
	scope resolver.Scope,
) (*View, error) {
	topics, err := s.catalog.Topics(ctx)
	if err != nil {
		return nil, err
	}
	topic, matched := resolver.Resolve(topicRef, topics, scope)

	rows, err := s.uow.Stores().Progress.ListByUser(ctx, userID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list progress",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, service.NewError("get_progress", "failed to read progress", err)
	}

	p, _ := resolver.FindProgress(rows, topics, topicRef, topic)
	p.UserID = userID
	return &View{Topic: topic, Progress: p, Catalogued: matched}, nil
}

func (s *DefaultService) Upsert(
	ctx context.Context,
	userID uuid.UUID,
	topicID string,
	patch domain.ProgressPatch,
) (*domain.UserProgress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if topicID == "" {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, domain.ErrEmptyTopicID)
	}

	var saved *domain.UserProgress
	err := s.uow.Do(ctx, func(ctx context.Context, st store.Stores) error {
		var err error
		saved, err = ApplyPatch(ctx, st.Progress, s.policy, userID, topicID, patch, s.now().UTC())
		return err
	})
	if err != nil {
		log.Error("failed to upsert progress",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("topic_id", topicID))
		return nil, service.NewError("upsert_progress", "failed to save progress", err)
	}
	return saved, nil
}

func (s *DefaultService) MarkLearned(
	ctx context.Context,
	userID uuid.UUID,
	topicRef string,
	scope resolver.Scope,
) (*View, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	topic, matched, err := s.catalog.Resolve(ctx, topicRef, scope)
	if err != nil {
		return nil, err
	}
	topics, err := s.catalog.Topics(ctx)
	if err != nil {
		return nil, err
	}

	var saved *domain.UserProgress
	err = s.uow.Do(ctx, func(ctx context.Context, st store.Stores) error {
		topicID, err := WriteTarget(ctx, st.Progress, topics, userID, topicRef, topic)
		if err != nil {
			return err
		}
		saved, err = ApplyPatch(ctx, st.Progress, s.policy, userID, topicID,
			domain.ProgressPatch{MarkLearned: true}, s.now().UTC())
		return err
	})
	if err != nil {
		log.Error("failed to mark topic learned",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("topic_id", topic.ID))
		return nil, service.NewError("mark_learned", "failed to save progress", err)
	}

	s.emit(ctx, events.TopicLearned, userID, map[string]string{"topic_id": saved.TopicID})
	return &View{Topic: topic, Progress: *saved, Catalogued: matched}, nil
}

// alignProgress returns, for each topic, the user's row found through the
// progress lookup chain, keyed by the topic's current id.
func alignProgress(rows []domain.UserProgress, catalogTopics, topics []domain.Topic) []domain.UserProgress {
	out := make([]domain.UserProgress, 0, len(topics))
	for _, t := range topics {
		p, ok := resolver.FindProgress(rows, catalogTopics, t.ID, t)
		if !ok {
			continue
		}
		p.TopicID = t.ID
		out = append(out, p)
	}
	return out
}

func (s *DefaultService) UnlockMap(ctx context.Context, userID uuid.UUID, moduleKey string) (*ModuleMap, error) {
	module, topics, err := s.catalog.ModuleTopics(ctx, moduleKey)
	if err != nil {
		return nil, err
	}
	all, err := s.catalog.Topics(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.uow.Stores().Progress.ListByUser(ctx, userID)
	if err != nil {
		return nil, service.NewError("unlock_map", "failed to read progress", err)
	}

	aligned := alignProgress(rows, all, topics)
	layout := unlock.Layout(topics, aligned, module.LinearGating)
	for i := range layout {
		layout[i].Progress.UserID = userID
	}
	return &ModuleMap{
		Module:    *module,
		Topics:    layout,
		Aggregate: unlock.Summarize(topics, aligned),
	}, nil
}

func (s *DefaultService) CategoryMap(ctx context.Context, userID uuid.UUID, name string) (*CategoryMap, error) {
	category, modules, err := s.catalog.Category(ctx, name)
	if err != nil {
		return nil, err
	}
	all, err := s.catalog.Topics(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.uow.Stores().Progress.ListByUser(ctx, userID)
	if err != nil {
		return nil, service.NewError("category_map", "failed to read progress", err)
	}

	byModule := map[string][]domain.Topic{}
	for _, t := range all {
		byModule[t.ModuleName] = append(byModule[t.ModuleName], t)
	}

	aggregates := make(map[string]unlock.Aggregate, len(modules))
	parts := make([]unlock.Aggregate, 0, len(modules))
	for _, m := range modules {
		topics := byModule[m.Name]
		agg := unlock.Summarize(topics, alignProgress(rows, all, topics))
		aggregates[m.Name] = agg
		parts = append(parts, agg)
	}

	return &CategoryMap{
		Category:  *category,
		Modules:   unlock.LayoutModules(modules, aggregates, category.LinearGating),
		Aggregate: unlock.Merge(parts...),
	}, nil
}

func leaderboardKey(sortBy domain.LeaderboardSort) string {
	return "leaderboard:" + string(sortBy)
}

func (s *DefaultService) Leaderboard(
	ctx context.Context,
	sortBy domain.LeaderboardSort,
	limit int,
) ([]domain.LeaderboardEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !sortBy.Valid() {
		return nil, fmt.Errorf("%w: unknown sort %q", domain.ErrValidation, sortBy)
	}
	if limit <= 0 || limit > MaxLeaderboardLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", domain.ErrValidation, MaxLeaderboardLimit)
	}

	var entries []domain.LeaderboardEntry
	cached := false
	if s.cache != nil {
		err := cache.GetJSON(ctx, s.cache, leaderboardKey(sortBy), &entries)
		switch {
		case err == nil:
			cached = true
		case !errors.Is(err, cache.ErrMiss):
			log.Warn("leaderboard cache read failed", slog.String("error", err.Error()))
		}
	}

	if !cached {
		var err error
		entries, err = s.uow.Stores().Progress.Leaderboard(ctx, sortBy, MaxLeaderboardLimit)
		if err != nil {
			return nil, service.NewError("leaderboard", "failed to rank users", err)
		}
		if s.cache != nil {
			if err := cache.SetJSON(ctx, s.cache, leaderboardKey(sortBy), entries, s.ttl); err != nil {
				log.Warn("leaderboard cache write failed", slog.String("error", err.Error()))
			}
		}
	}

	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// HandleEvent drops cached leaderboards when progress changes.
func (s *DefaultService) HandleEvent(ctx context.Context, event *events.Event) error {
	if s.cache == nil {
		return nil
	}
	switch event.Type {
	case events.SessionFinished, events.TopicLearned:
		return s.cache.Delete(ctx,
			leaderboardKey(domain.SortTotalScore),
			leaderboardKey(domain.SortTotalTrainings),
			leaderboardKey(domain.SortMasteredTopics))
	}
	return nil
}

func (s *DefaultService) emit(ctx context.Context, t events.Type, userID uuid.UUID, payload any) {
	event, err := events.New(t, userID, payload)
	if err == nil {
		err = s.emitter.EmitEvent(ctx, event)
	}
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("failed to emit event",
			slog.String("event_type", string(t)),
			slog.String("error", err.Error()))
	}
}
