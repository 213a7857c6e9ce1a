package postgres

import (
	"context"
	"log/slog"

	"github.com/phrazzld/lingdou-api/internal/domain"
	"github.com/phrazzld/lingdou-api/internal/platform/logger"
	"github.com/phrazzld/lingdou-api/internal/store"
)

// PostgresCatalogStore implements the store.CatalogStore interface.
type PostgresCatalogStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCatalogStore creates a new PostgreSQL implementation of the CatalogStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresCatalogStore(db store.DBTX, logger *slog.Logger) *PostgresCatalogStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresCatalogStore{
		db:     db,
		logger: logger.With(slog.String("component", "catalog_store")),
	}
}

// Ensure PostgresCatalogStore implements store.CatalogStore interface
var _ store.CatalogStore = (*PostgresCatalogStore)(nil)

// ListTopics implements store.CatalogStore.ListTopics
func (s *PostgresCatalogStore) ListTopics(ctx context.Context) ([]domain.Topic, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT t.id, t.name, m.category_name, t.module_name, t.difficulty,
		       t.estimated_minutes, t.position
		FROM topics t
		JOIN modules m ON m.name = t.module_name
		JOIN categories c ON c.name = m.category_name
		ORDER BY c.position, c.name, m.position, m.name, t.position, t.id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to list topics", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	topics := []domain.Topic{}
	for rows.Next() {
		var t domain.Topic
		if err := rows.Scan(&t.ID, &t.Name, &t.CategoryName, &t.ModuleName,
			&t.Difficulty, &t.EstimatedMinutes, &t.Position); err != nil {
			return nil, MapError(err)
		}
		topics = append(topics, t)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	log.Debug("listed topics", slog.Int("count", len(topics)))
	return topics, nil
}

// ListModules implements store.CatalogStore.ListModules
func (s *PostgresCatalogStore) ListModules(ctx context.Context, category string) ([]domain.Module, error) {
	query := `
		SELECT name, category_name, position, linear_gating
		FROM modules
		WHERE category_name = $1
		ORDER BY position, name
	`
	rows, err := s.db.QueryContext(ctx, query, category)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	modules := []domain.Module{}
	for rows.Next() {
		var m domain.Module
		if err := rows.Scan(&m.Name, &m.CategoryName, &m.Position, &m.LinearGating); err != nil {
			return nil, MapError(err)
		}
		modules = append(modules, m)
	}
	return modules, MapError(rows.Err())
}

// GetModule implements store.CatalogStore.GetModule
func (s *PostgresCatalogStore) GetModule(ctx context.Context, name string) (*domain.Module, error) {
	query := `SELECT name, category_name, position, linear_gating FROM modules WHERE name = $1`

	var m domain.Module
	err := s.db.QueryRowContext(ctx, query, name).
		Scan(&m.Name, &m.CategoryName, &m.Position, &m.LinearGating)
	if err != nil {
		return nil, mapNotFound(err, store.ErrModuleNotFound)
	}
	return &m, nil
}

// GetCategory implements store.CatalogStore.GetCategory
func (s *PostgresCatalogStore) GetCategory(ctx context.Context, name string) (*domain.Category, error) {
	query := `SELECT name, position, linear_gating FROM categories WHERE name = $1`

	var c domain.Category
	err := s.db.QueryRowContext(ctx, query, name).Scan(&c.Name, &c.Position, &c.LinearGating)
	if err != nil {
		return nil, mapNotFound(err, store.ErrCategoryNotFound)
	}
	return &c, nil
}

// UpsertCategory implements store.CatalogStore.UpsertCategory
func (s *PostgresCatalogStore) UpsertCategory(ctx context.Context, c *domain.Category) error {
	if c.Name == "" {
		return domain.ErrEmptyCategoryName
	}
	query := `
		INSERT INTO categories (name, position, linear_gating)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE
		SET position = EXCLUDED.position, linear_gating = EXCLUDED.linear_gating
	`
	_, err := s.db.ExecContext(ctx, query, c.Name, c.Position, c.LinearGating)
	return MapError(err)
}

// UpsertModule implements store.CatalogStore.UpsertModule
func (s *PostgresCatalogStore) UpsertModule(ctx context.Context, m *domain.Module) error {
	if err := m.Validate(); err != nil {
		return err
	}
	query := `
		INSERT INTO modules (name, category_name, position, linear_gating)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE
		SET category_name = EXCLUDED.category_name,
		    position = EXCLUDED.position,
		    linear_gating = EXCLUDED.linear_gating
	`
	_, err := s.db.ExecContext(ctx, query, m.Name, m.CategoryName, m.Position, m.LinearGating)
	return MapError(err)
}

// UpsertTopic implements store.CatalogStore.UpsertTopic
func (s *PostgresCatalogStore) UpsertTopic(ctx context.Context, t *domain.Topic) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := t.Validate(); err != nil {
		log.Warn("topic validation failed during upsert",
			slog.String("error", err.Error()),
			slog.String("topic_id", t.ID))
		return err
	}
	if t.Synthetic || domain.IsSyntheticID(t.ID) {
		return store.ErrInvalidEntity
	}

	query := `
		INSERT INTO topics (id, name, module_name, difficulty, estimated_minutes, position)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    module_name = EXCLUDED.module_name,
		    difficulty = EXCLUDED.difficulty,
		    estimated_minutes = EXCLUDED.estimated_minutes,
		    position = EXCLUDED.position
	`
	minutes := t.EstimatedMinutes
	if minutes <= 0 {
		minutes = domain.DefaultEstimatedMinutes
	}
	_, err := s.db.ExecContext(ctx, query, t.ID, t.Name, t.ModuleName, t.Difficulty, minutes, t.Position)
	if err != nil {
		log.Error("failed to upsert topic",
			slog.String("error", err.Error()),
			slog.String("topic_id", t.ID))
		return MapError(err)
	}
	return nil
}
