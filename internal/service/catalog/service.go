// Package catalog serves the learning catalog and resolves topic references
// against it.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/lingdou-api/internal/domain"
	"github.com/phrazzld/lingdou-api/internal/domain/resolver"
	"github.com/phrazzld/lingdou-api/internal/platform/cache"
	"github.com/phrazzld/lingdou-api/internal/platform/logger"
	"github.com/phrazzld/lingdou-api/internal/service"
	"github.com/phrazzld/lingdou-api/internal/store"
)

// topicsKey caches the full ordered topic list.
const topicsKey = "catalog:topics"

// Service reads the catalog.
type Service interface {
	// Topics returns every catalog topic in catalog order.
	Topics(ctx context.Context) ([]domain.Topic, error)

	// Resolve maps a reference to a catalog topic, or to a synthetic topic
	// when nothing matches. It only fails when the catalog cannot be read.
	Resolve(ctx context.Context, reference string, scope resolver.Scope) (domain.Topic, bool, error)

	// ModuleTopics returns the module and its topics in catalog order.
	ModuleTopics(ctx context.Context, moduleKey string) (*domain.Module, []domain.Topic, error)

	// Category returns the category and its modules in catalog order.
	Category(ctx context.Context, name string) (*domain.Category, []domain.Module, error)

	// Invalidate drops cached catalog data after a catalog write.
	Invalidate(ctx context.Context) error
}

type serviceImpl struct {
	catalog store.CatalogStore
	cache   cache.Cache
	ttl     time.Duration
	logger  *slog.Logger
}

var _ Service = (*serviceImpl)(nil)

// NewService creates a catalog Service. A nil cache disables caching.
func NewService(catalog store.CatalogStore, c cache.Cache, ttl time.Duration, logger *slog.Logger) (Service, error) {
	if catalog == nil {
		return nil, &service.ServiceError{
			Operation: "create_service",
			Message:   "catalog store cannot be nil",
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &serviceImpl{
		catalog: catalog,
		cache:   c,
		ttl:     ttl,
		logger:  logger.With(slog.String("component", "catalog_service")),
	}, nil
}

func (s *serviceImpl) Topics(ctx context.Context) ([]domain.Topic, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if s.cache != nil {
		var topics []domain.Topic
		err := cache.GetJSON(ctx, s.cache, topicsKey, &topics)
		if err == nil {
			return topics, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			log.Warn("catalog cache read failed", slog.String("error", err.Error()))
		}
	}

	topics, err := s.catalog.ListTopics(ctx)
	if err != nil {
		log.Error("failed to list catalog topics", slog.String("error", err.Error()))
		return nil, service.NewError("list_topics", "failed to read catalog", err)
	}

	if s.cache != nil {
		if err := cache.SetJSON(ctx, s.cache, topicsKey, topics, s.ttl); err != nil {
			log.Warn("catalog cache write failed", slog.String("error", err.Error()))
		}
	}
	return topics, nil
}

func (s *serviceImpl) Resolve(
	ctx context.Context,
	reference string,
	scope resolver.Scope,
) (domain.Topic, bool, error) {
	topics, err := s.Topics(ctx)
	if err != nil {
		return domain.Topic{}, false, err
	}

	topic, matched := resolver.Resolve(reference, topics, scope)
	if !matched {
		logger.FromContextOrDefault(ctx, s.logger).Info("using synthetic topic",
			slog.String("reason", domain.ErrTopicNotResolvable.Error()),
			slog.String("reference", reference),
			slog.String("topic_id", topic.ID))
	}
	return topic, matched, nil
}

func (s *serviceImpl) ModuleTopics(ctx context.Context, moduleKey string) (*domain.Module, []domain.Topic, error) {
	module, err := s.catalog.GetModule(ctx, moduleKey)
	if err != nil {
		return nil, nil, service.NewError("module_topics", "failed to load module", err)
	}

	all, err := s.Topics(ctx)
	if err != nil {
		return nil, nil, err
	}
	topics := []domain.Topic{}
	for _, t := range all {
		if t.ModuleName == module.Name {
			topics = append(topics, t)
		}
	}
	return module, topics, nil
}

func (s *serviceImpl) Category(ctx context.Context, name string) (*domain.Category, []domain.Module, error) {
	category, err := s.catalog.GetCategory(ctx, name)
	if err != nil {
		return nil, nil, service.NewError("category", "failed to load category", err)
	}
	modules, err := s.catalog.ListModules(ctx, name)
	if err != nil {
		return nil, nil, service.NewError("category", "failed to list modules", err)
	}
	return category, modules, nil
}

func (s *serviceImpl) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, topicsKey)
}
