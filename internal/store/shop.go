package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/lingdou-api/internal/domain"
)

// ShopStore defines persistence for exchangeable products and exchanges.
type ShopStore interface {
	// ListProducts returns every product ordered by price.
	ListProducts(ctx context.Context) ([]domain.Product, error)

	// GetProductForUpdate retrieves a product and locks it inside a transaction.
	// Returns ErrProductNotFound if it does not exist.
	GetProductForUpdate(ctx context.Context, id string) (*domain.Product, error)

	// UpsertProduct inserts or replaces a product.
	UpsertProduct(ctx context.Context, product *domain.Product) error

	// UpdateStock writes product.Stock.
	UpdateStock(ctx context.Context, product *domain.Product) error

	// CreateExchange records a completed exchange.
	CreateExchange(ctx context.Context, exchange *domain.Exchange) error

	// ListExchanges returns a user's exchanges, newest first.
	ListExchanges(ctx context.Context, userID uuid.UUID) ([]domain.Exchange, error)
}
