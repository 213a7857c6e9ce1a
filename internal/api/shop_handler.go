package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/lingdou-api/internal/api/shared"
	"github.com/phrazzld/lingdou-api/internal/platform/logger"
	"github.com/phrazzld/lingdou-api/internal/service/shop"
)

// ShopHandler serves the points shop.
type ShopHandler struct {
	shop   shop.Service
	logger *slog.Logger
}

// NewShopHandler creates a ShopHandler.
func NewShopHandler(svc shop.Service, logger *slog.Logger) *ShopHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ShopHandler")
	}
	return &ShopHandler{
		shop:   svc,
		logger: logger.With(slog.String("component", "shop_handler")),
	}
}

// Products handles GET /api/shop/products.
func (h *ShopHandler) Products(w http.ResponseWriter, r *http.Request) {
	products, err := h.shop.Products(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list products")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, ProductsResponse{Products: products})
}

// Exchange handles POST /api/shop/products/{id}/exchange.
func (h *ShopHandler) Exchange(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	productID := chi.URLParam(r, "id")

	receipt, err := h.shop.Exchange(r.Context(), userID, productID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to exchange product")
		return
	}

	log.Debug("product exchanged", slog.String("product_id", productID))
	shared.RespondWithJSON(w, r, http.StatusCreated, receipt)
}

// Exchanges handles GET /api/shop/exchanges.
func (h *ShopHandler) Exchanges(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	exchanges, err := h.shop.History(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list exchanges")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, ExchangesResponse{Exchanges: exchanges})
}
