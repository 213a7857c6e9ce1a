// Package shop exchanges points for catalog products.
package shop

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lingdou-api/internal/domain"
	"github.com/phrazzld/lingdou-api/internal/events"
	"github.com/phrazzld/lingdou-api/internal/platform/logger"
	"github.com/phrazzld/lingdou-api/internal/service"
	"github.com/phrazzld/lingdou-api/internal/service/ledger"
	"github.com/phrazzld/lingdou-api/internal/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/phrazzld/lingdou-api/internal/service/shop"

// ReasonPrefix starts the ledger reason of every exchange.
const ReasonPrefix = "exchange:"

// Receipt is the outcome of an exchange.
type Receipt struct {
	Exchange domain.Exchange `json:"exchange"`
	// Balance is the points balance after payment.
	Balance int64 `json:"balance"`
}

// Service provides the points shop.
type Service interface {
	// Products lists every product, cheapest first.
	Products(ctx context.Context) ([]domain.Product, error)

	// Exchange buys one unit of a product with points. It fails with
	// domain.ErrOutOfStock or domain.ErrInsufficientBalance and then writes
	// nothing.
	Exchange(ctx context.Context, userID uuid.UUID, productID string) (*Receipt, error)

	// History lists the user's exchanges, newest first.
	History(ctx context.Context, userID uuid.UUID) ([]domain.Exchange, error)
}

type serviceImpl struct {
	uow     store.UnitOfWork
	emitter events.EventEmitter
	logger  *slog.Logger
	now     func() time.Time
}

var _ Service = (*serviceImpl)(nil)

// NewService creates a shop Service. A nil emitter discards events.
func NewService(uow store.UnitOfWork, emitter events.EventEmitter, logger *slog.Logger) (Service, error) {
	if uow == nil {
		return nil, &service.ServiceError{Operation: "create_service", Message: "unit of work cannot be nil"}
	}
	if emitter == nil {
		emitter = events.NopEmitter{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &serviceImpl{
		uow:     uow,
		emitter: emitter,
		logger:  logger.With(slog.String("component", "shop_service")),
		now:     time.Now,
	}, nil
}

func (s *serviceImpl) Products(ctx context.Context) ([]domain.Product, error) {
	products, err := s.uow.Stores().Shop.ListProducts(ctx)
	if err != nil {
		return nil, service.NewError("list_products", "failed to list products", err)
	}
	return products, nil
}

func (s *serviceImpl) Exchange(ctx context.Context, userID uuid.UUID, productID string) (*Receipt, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "shop.Exchange",
		trace.WithAttributes(attribute.String("product_id", productID)),
	)
	defer span.End()

	log := logger.FromContextOrDefault(ctx, s.logger)

	var receipt Receipt
	err := s.uow.Do(ctx, func(ctx context.Context, st store.Stores) error {
		product, err := st.Shop.GetProductForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if product.Stock <= 0 {
			return domain.ErrOutOfStock
		}

		now := s.now().UTC()
		paid, err := ledger.ApplyInTx(ctx, st.Ledger, userID, domain.CurrencyPoints,
			-product.Price, ReasonPrefix+product.Name, now)
		if err != nil {
			return err
		}

		product.Stock--
		if err := st.Shop.UpdateStock(ctx, product); err != nil {
			return err
		}

		receipt.Balance = paid.NewBalance
		receipt.Exchange = domain.Exchange{
			ID:            uuid.New(),
			UserID:        userID,
			ProductID:     product.ID,
			ProductName:   product.Name,
			Cost:          product.Price,
			TransactionID: paid.Transaction.ID,
			CreatedAt:     now,
		}
		return st.Shop.CreateExchange(ctx, &receipt.Exchange)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "exchange failed")
		log.Warn("exchange rejected",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("product_id", productID))
		return nil, service.NewError("exchange_product", "failed to exchange product", err)
	}

	log.Info("product exchanged",
		slog.String("user_id", userID.String()),
		slog.String("product_id", productID),
		slog.Int64("cost", receipt.Exchange.Cost),
		slog.Int64("balance_after", receipt.Balance))

	event, err := events.New(events.ExchangeCompleted, userID, events.ExchangeCompletedPayload{
		ExchangeID:    receipt.Exchange.ID,
		ProductID:     receipt.Exchange.ProductID,
		Cost:          receipt.Exchange.Cost,
		TransactionID: receipt.Exchange.TransactionID,
	})
	if err == nil {
		err = s.emitter.EmitEvent(ctx, event)
	}
	if err != nil {
		log.Warn("failed to emit event",
			slog.String("event_type", string(events.ExchangeCompleted)),
			slog.String("error", err.Error()))
	}
	return &receipt, nil
}

func (s *serviceImpl) History(ctx context.Context, userID uuid.UUID) ([]domain.Exchange, error) {
	exchanges, err := s.uow.Stores().Shop.ListExchanges(ctx, userID)
	if err != nil {
		return nil, service.NewError("exchange_history", "failed to list exchanges", err)
	}
	return exchanges, nil
}
