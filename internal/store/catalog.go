package store

import (
	"context"

	"github.com/phrazzld/lingdou-api/internal/domain"
)

// CatalogStore defines persistence for categories, modules and topics.
// The catalog is read-only to the engine apart from seeding.
type CatalogStore interface {
	// ListTopics returns every topic in catalog order: category position,
	// then module position, then topic position.
	// Returns an empty slice when the catalog is empty.
	ListTopics(ctx context.Context) ([]domain.Topic, error)

	// ListModules returns the modules of a category in position order.
	ListModules(ctx context.Context, category string) ([]domain.Module, error)

	// GetModule retrieves a module by name.
	// Returns ErrModuleNotFound if the module does not exist.
	GetModule(ctx context.Context, name string) (*domain.Module, error)

	// GetCategory retrieves a category by name.
	// Returns ErrCategoryNotFound if the category does not exist.
	GetCategory(ctx context.Context, name string) (*domain.Category, error)

	// UpsertCategory, UpsertModule and UpsertTopic insert or replace catalog
	// rows keyed by name, name and id respectively.
	UpsertCategory(ctx context.Context, category *domain.Category) error
	UpsertModule(ctx context.Context, module *domain.Module) error
	UpsertTopic(ctx context.Context, topic *domain.Topic) error
}
