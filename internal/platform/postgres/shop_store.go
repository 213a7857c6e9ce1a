package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/lingdou-api/internal/domain"
	"github.com/phrazzld/lingdou-api/internal/platform/logger"
	"github.com/phrazzld/lingdou-api/internal/store"
)

// PostgresShopStore implements the store.ShopStore interface.
type PostgresShopStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresShopStore creates a new PostgreSQL implementation of the ShopStore interface.
func NewPostgresShopStore(db store.DBTX, logger *slog.Logger) *PostgresShopStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresShopStore{
		db:     db,
		logger: logger.With(slog.String("component", "shop_store")),
	}
}

// Ensure PostgresShopStore implements store.ShopStore interface
var _ store.ShopStore = (*PostgresShopStore)(nil)

// ListProducts implements store.ShopStore.ListProducts
func (s *PostgresShopStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, price, stock FROM products ORDER BY price, id`)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	out := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock); err != nil {
			return nil, MapError(err)
		}
		out = append(out, p)
	}
	return out, MapError(rows.Err())
}

// GetProductForUpdate implements store.ShopStore.GetProductForUpdate
func (s *PostgresShopStore) GetProductForUpdate(ctx context.Context, id string) (*domain.Product, error) {
	query := `SELECT id, name, description, price, stock FROM products WHERE id = $1 FOR UPDATE`

	var p domain.Product
	err := s.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock)
	if err != nil {
		return nil, mapNotFound(err, store.ErrProductNotFound)
	}
	return &p, nil
}

// UpsertProduct implements store.ShopStore.UpsertProduct
func (s *PostgresShopStore) UpsertProduct(ctx context.Context, p *domain.Product) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	query := `
		INSERT INTO products (id, name, description, price, stock)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    description = EXCLUDED.description,
		    price = EXCLUDED.price,
		    stock = EXCLUDED.stock
	`
	_, err := s.db.ExecContext(ctx, query, p.ID, p.Name, p.Description, p.Price, p.Stock)
	return MapError(err)
}

// UpdateStock implements store.ShopStore.UpdateStock
func (s *PostgresShopStore) UpdateStock(ctx context.Context, p *domain.Product) error {
	if p.Stock < 0 {
		return domain.ErrOutOfStock
	}
	result, err := s.db.ExecContext(ctx, `UPDATE products SET stock = $2 WHERE id = $1`, p.ID, p.Stock)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrProductNotFound)
}

// CreateExchange implements store.ShopStore.CreateExchange
func (s *PostgresShopStore) CreateExchange(ctx context.Context, e *domain.Exchange) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO exchanges (id, user_id, product_id, product_name, cost, transaction_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		e.ID, e.UserID, e.ProductID, e.ProductName, e.Cost, e.TransactionID, e.CreatedAt)
	if err != nil {
		log.Error("failed to record exchange",
			slog.String("error", err.Error()),
			slog.String("product_id", e.ProductID))
		return MapError(err)
	}
	return nil
}

// ListExchanges implements store.ShopStore.ListExchanges
func (s *PostgresShopStore) ListExchanges(ctx context.Context, userID uuid.UUID) ([]domain.Exchange, error) {
	query := `
		SELECT id, user_id, product_id, product_name, cost, transaction_id, created_at
		FROM exchanges
		WHERE user_id = $1
		ORDER BY created_at DESC, id
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	out := []domain.Exchange{}
	for rows.Next() {
		var e domain.Exchange
		if err := rows.Scan(&e.ID, &e.UserID, &e.ProductID, &e.ProductName,
			&e.Cost, &e.TransactionID, &e.CreatedAt); err != nil {
			return nil, MapError(err)
		}
		out = append(out, e)
	}
	return out, MapError(rows.Err())
}
