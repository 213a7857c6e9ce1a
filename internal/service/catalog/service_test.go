package catalog

import (
	"context"
	"testing"

	"github.com/phrazzld/lingdou-api/internal/domain"
	"github.com/phrazzld/lingdou-api/internal/domain/resolver"
	"github.com/phrazzld/lingdou-api/internal/platform/cache"
	"github.com/phrazzld/lingdou-api/internal/platform/memory"
	"github.com/phrazzld/lingdou-api/internal/service"
	"github.com/phrazzld/lingdou-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, s store.CatalogStore) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.UpsertCategory(ctx, &domain.Category{Name: "Basics", LinearGating: true}))
	require.NoError(t, s.UpsertModule(ctx, &domain.Module{Name: "Intro", CategoryName: "Basics", LinearGating: true}))
	require.NoError(t, s.UpsertModule(ctx, &domain.Module{Name: "Empty", CategoryName: "Basics", Position: 1}))
	require.NoError(t, s.UpsertTopic(ctx, &domain.Topic{ID: "t1", Name: "Greetings", ModuleName: "Intro", Difficulty: domain.DifficultyBeginner}))
	require.NoError(t, s.UpsertTopic(ctx, &domain.Topic{ID: "t2", Name: "Numbers", ModuleName: "Intro", Difficulty: domain.DifficultyBeginner, Position: 1}))
}

func TestResolve(t *testing.T) {
	t.Parallel()

	uow := memory.NewUnitOfWork(nil)
	seed(t, uow.Stores().Catalog)
	svc, err := NewService(uow.Stores().Catalog, nil, 0, nil)
	require.NoError(t, err)

	ctx := context.Background()
	byID, ok, err := svc.Resolve(ctx, "t2", resolver.Scope{})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Numbers", byID.Name)

	byName, ok, err := svc.Resolve(ctx, "Greetings", resolver.Scope{})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "t1", byName.ID)

	synthetic, ok, err := svc.Resolve(ctx, "Colors", resolver.Scope{Category: "Basics", Module: "Intro"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, synthetic.Synthetic)
	assert.True(t, domain.IsSyntheticID(synthetic.ID))
}

func TestTopicsUsesCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	uow := memory.NewUnitOfWork(nil)
	seed(t, uow.Stores().Catalog)
	c := cache.NewMemoryCache()
	svc, err := NewService(uow.Stores().Catalog, c, 0, nil)
	require.NoError(t, err)

	first, err := svc.Topics(ctx)
	require.NoError(t, err)
	require.Len(t, first, 2)

	// A write that bypasses the service is invisible until invalidation.
	require.NoError(t, uow.Stores().Catalog.UpsertTopic(ctx,
		&domain.Topic{ID: "t3", Name: "Colors", ModuleName: "Intro", Difficulty: domain.DifficultyBeginner, Position: 2}))
	cached, err := svc.Topics(ctx)
	require.NoError(t, err)
	assert.Len(t, cached, 2)

	require.NoError(t, svc.Invalidate(ctx))
	fresh, err := svc.Topics(ctx)
	require.NoError(t, err)
	assert.Len(t, fresh, 3)
}

func TestModuleTopicsAndCategory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	uow := memory.NewUnitOfWork(nil)
	seed(t, uow.Stores().Catalog)
	svc, err := NewService(uow.Stores().Catalog, nil, 0, nil)
	require.NoError(t, err)

	module, topics, err := svc.ModuleTopics(ctx, "Intro")
	require.NoError(t, err)
	assert.True(t, module.LinearGating)
	require.Len(t, topics, 2)
	assert.Equal(t, "t1", topics[0].ID)

	_, _, err = svc.ModuleTopics(ctx, "Missing")
	assert.ErrorIs(t, err, service.ErrNotFound)

	category, modules, err := svc.Category(ctx, "Basics")
	require.NoError(t, err)
	assert.Equal(t, "Basics", category.Name)
	assert.Len(t, modules, 2)
}

func TestNewService_NilStore(t *testing.T) {
	t.Parallel()

	_, err := NewService(nil, nil, 0, nil)
	var svcErr *service.ServiceError
	assert.ErrorAs(t, err, &svcErr)
}
