package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/phrazzld/lingdou-api/internal/domain"
	"github.com/phrazzld/lingdou-api/internal/store"
)

// ShopStore implements store.ShopStore in memory.
type ShopStore struct {
	db db
}

var _ store.ShopStore = (*ShopStore)(nil)

// ListProducts implements store.ShopStore.ListProducts
func (s *ShopStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	defer s.db.lock()()

	out := []domain.Product{}
	for _, p := range s.db.state().products {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b domain.Product) int {
		return cmp.Or(cmp.Compare(a.Price, b.Price), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

// GetProductForUpdate implements store.ShopStore.GetProductForUpdate
func (s *ShopStore) GetProductForUpdate(ctx context.Context, id string) (*domain.Product, error) {
	defer s.db.lock()()

	p, ok := s.db.state().products[id]
	if !ok {
		return nil, store.ErrProductNotFound
	}
	return &p, nil
}

// UpsertProduct implements store.ShopStore.UpsertProduct
func (s *ShopStore) UpsertProduct(ctx context.Context, p *domain.Product) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	defer s.db.lock()()

	s.db.state().products[p.ID] = *p
	return nil
}

// UpdateStock implements store.ShopStore.UpdateStock
func (s *ShopStore) UpdateStock(ctx context.Context, p *domain.Product) error {
	if p.Stock < 0 {
		return domain.ErrOutOfStock
	}
	defer s.db.lock()()

	st := s.db.state()
	current, ok := st.products[p.ID]
	if !ok {
		return store.ErrProductNotFound
	}
	current.Stock = p.Stock
	st.products[p.ID] = current
	return nil
}

// CreateExchange implements store.ShopStore.CreateExchange
func (s *ShopStore) CreateExchange(ctx context.Context, e *domain.Exchange) error {
	defer s.db.lock()()

	st := s.db.state()
	if _, ok := st.products[e.ProductID]; !ok {
		return fmt.Errorf("%w: unknown product", store.ErrInvalidEntity)
	}
	st.exchanges = append(st.exchanges, *e)
	return nil
}

// ListExchanges implements store.ShopStore.ListExchanges
func (s *ShopStore) ListExchanges(ctx context.Context, userID uuid.UUID) ([]domain.Exchange, error) {
	defer s.db.lock()()

	out := []domain.Exchange{}
	st := s.db.state()
	for i := len(st.exchanges) - 1; i >= 0; i-- {
		if st.exchanges[i].UserID == userID {
			out = append(out, st.exchanges[i])
		}
	}
	return out, nil
}
