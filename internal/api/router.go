package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	apiMiddleware "github.com/phrazzld/lingdou-api/internal/api/middleware"
	"github.com/phrazzld/lingdou-api/internal/api/shared"
	"github.com/phrazzld/lingdou-api/internal/redact"
	"github.com/phrazzld/lingdou-api/internal/service/auth"
	"github.com/phrazzld/lingdou-api/internal/service/ledger"
	"github.com/phrazzld/lingdou-api/internal/service/progress"
	"github.com/phrazzld/lingdou-api/internal/service/shop"
	"github.com/phrazzld/lingdou-api/internal/service/training"
)

// healthTimeout bounds the readiness check.
const healthTimeout = 2 * time.Second

// RouterDeps are the services behind the HTTP surface.
type RouterDeps struct {
	JWT      auth.JWTService
	Training training.Service
	Ledger   ledger.Service
	Progress progress.Service
	Shop     shop.Service
	// Ping reports whether the backing store is reachable. Nil means always healthy.
	Ping   func(ctx context.Context) error
	Logger *slog.Logger
}

// NewRouter builds the application router.
func NewRouter(deps RouterDeps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(log))

	authMiddleware := apiMiddleware.NewAuthMiddleware(deps.JWT)
	trainingHandler := NewTrainingHandler(deps.Training, log)
	ledgerHandler := NewLedgerHandler(deps.Ledger, log)
	progressHandler := NewProgressHandler(deps.Progress, log)
	shopHandler := NewShopHandler(deps.Shop, log)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Post("/sessions/{id}/finish", trainingHandler.FinishSession)
		r.Get("/sessions", trainingHandler.ListSessions)

		r.Post("/ledger/apply", ledgerHandler.Apply)
		r.Get("/ledger/balances", ledgerHandler.Balances)
		r.Get("/ledger/transactions", ledgerHandler.Transactions)
		r.Post("/ledger/hint", ledgerHandler.SpendHint)

		r.Get("/progress/{userId}/{topicRef}", progressHandler.GetProgress)
		r.Get("/unlock-map/{userId}/{moduleKey}", progressHandler.UnlockMap)
		r.Get("/category-map/{userId}/{category}", progressHandler.CategoryMap)
		r.Post("/topics/{topicRef}/learned", progressHandler.MarkLearned)
		r.Get("/leaderboard", progressHandler.Leaderboard)

		r.Get("/shop/products", shopHandler.Products)
		r.Post("/shop/products/{id}/exchange", shopHandler.Exchange)
		r.Get("/shop/exchanges", shopHandler.Exchanges)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if deps.Ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			defer cancel()
			if err := deps.Ping(ctx); err != nil {
				log.Error("health check failed", slog.String("error", redact.Error(err)))
				shared.RespondWithError(w, r, http.StatusServiceUnavailable, "Unavailable")
				return
			}
		}
		shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
