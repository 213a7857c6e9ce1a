package memory

import (
	"cmp"
	"context"
	"slices"

	"github.com/phrazzld/lingdou-api/internal/domain"
	"github.com/phrazzld/lingdou-api/internal/store"
)

// CatalogStore implements store.CatalogStore in memory.
type CatalogStore struct {
	db db
}

var _ store.CatalogStore = (*CatalogStore)(nil)

// ListTopics implements store.CatalogStore.ListTopics
func (s *CatalogStore) ListTopics(ctx context.Context) ([]domain.Topic, error) {
	defer s.db.lock()()
	st := s.db.state()

	type sortable struct {
		topic    domain.Topic
		category domain.Category
		module   domain.Module
	}
	rows := make([]sortable, 0, len(st.topics))
	for _, t := range st.topics {
		m, ok := st.modules[t.ModuleName]
		if !ok {
			continue
		}
		c, ok := st.categories[m.CategoryName]
		if !ok {
			continue
		}
		t.CategoryName = m.CategoryName
		rows = append(rows, sortable{topic: t, category: c, module: m})
	}

	slices.SortFunc(rows, func(a, b sortable) int {
		return cmp.Or(
			cmp.Compare(a.category.Position, b.category.Position),
			cmp.Compare(a.category.Name, b.category.Name),
			cmp.Compare(a.module.Position, b.module.Position),
			cmp.Compare(a.module.Name, b.module.Name),
			cmp.Compare(a.topic.Position, b.topic.Position),
			cmp.Compare(a.topic.ID, b.topic.ID),
		)
	})

	topics := make([]domain.Topic, 0, len(rows))
	for _, r := range rows {
		topics = append(topics, r.topic)
	}
	return topics, nil
}

// ListModules implements store.CatalogStore.ListModules
func (s *CatalogStore) ListModules(ctx context.Context, category string) ([]domain.Module, error) {
	defer s.db.lock()()

	modules := []domain.Module{}
	for _, m := range s.db.state().modules {
		if m.CategoryName == category {
			modules = append(modules, m)
		}
	}
	slices.SortFunc(modules, func(a, b domain.Module) int {
		return cmp.Or(cmp.Compare(a.Position, b.Position), cmp.Compare(a.Name, b.Name))
	})
	return modules, nil
}

// GetModule implements store.CatalogStore.GetModule
func (s *CatalogStore) GetModule(ctx context.Context, name string) (*domain.Module, error) {
	defer s.db.lock()()

	m, ok := s.db.state().modules[name]
	if !ok {
		return nil, store.ErrModuleNotFound
	}
	return &m, nil
}

// GetCategory implements store.CatalogStore.GetCategory
func (s *CatalogStore) GetCategory(ctx context.Context, name string) (*domain.Category, error) {
	defer s.db.lock()()

	c, ok := s.db.state().categories[name]
	if !ok {
		return nil, store.ErrCategoryNotFound
	}
	return &c, nil
}

// UpsertCategory implements store.CatalogStore.UpsertCategory
func (s *CatalogStore) UpsertCategory(ctx context.Context, c *domain.Category) error {
	if c.Name == "" {
		return domain.ErrEmptyCategoryName
	}
	defer s.db.lock()()

	s.db.state().categories[c.Name] = *c
	return nil
}

// UpsertModule implements store.CatalogStore.UpsertModule
func (s *CatalogStore) UpsertModule(ctx context.Context, m *domain.Module) error {
	if err := m.Validate(); err != nil {
		return err
	}
	defer s.db.lock()()

	st := s.db.state()
	if _, ok := st.categories[m.CategoryName]; !ok {
		return store.ErrInvalidEntity
	}
	st.modules[m.Name] = *m
	return nil
}

// UpsertTopic implements store.CatalogStore.UpsertTopic
func (s *CatalogStore) UpsertTopic(ctx context.Context, t *domain.Topic) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if t.Synthetic || domain.IsSyntheticID(t.ID) {
		return store.ErrInvalidEntity
	}
	defer s.db.lock()()

	st := s.db.state()
	if _, ok := st.modules[t.ModuleName]; !ok {
		return store.ErrInvalidEntity
	}
	for id, other := range st.topics {
		if id != t.ID && other.Name == t.Name {
			return store.ErrDuplicate
		}
	}
	stored := *t
	stored.CategoryName = ""
	if stored.EstimatedMinutes <= 0 {
		stored.EstimatedMinutes = domain.DefaultEstimatedMinutes
	}
	st.topics[t.ID] = stored
	return nil
}
