package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/lingdou-api/internal/api/shared"
	"github.com/phrazzld/lingdou-api/internal/domain"
	"github.com/phrazzld/lingdou-api/internal/platform/logger"
	"github.com/phrazzld/lingdou-api/internal/service/ledger"
)

// LedgerHandler serves balance and transaction endpoints.
type LedgerHandler struct {
	ledger ledger.Service
	logger *slog.Logger
}

// NewLedgerHandler creates a LedgerHandler.
func NewLedgerHandler(svc ledger.Service, logger *slog.Logger) *LedgerHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for LedgerHandler")
	}
	return &LedgerHandler{
		ledger: svc,
		logger: logger.With(slog.String("component", "ledger_handler")),
	}
}

// Apply handles POST /api/ledger/apply for the caller's own balance.
func (h *LedgerHandler) Apply(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req LedgerApplyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.ledger.Apply(r.Context(), userID, domain.Currency(req.Currency), req.Amount, req.Reason)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to apply ledger change")
		return
	}

	log.Debug("ledger change applied",
		slog.String("currency", req.Currency),
		slog.Int64("amount", req.Amount))
	shared.RespondWithJSON(w, r, http.StatusOK, res)
}

// Balances handles GET /api/ledger/balances.
func (h *LedgerHandler) Balances(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	accounts, err := h.ledger.Balances(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load balances")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, BalancesResponse{Balances: accounts})
}

// Transactions handles GET /api/ledger/transactions?currency=&limit=.
// The currency defaults to points.
func (h *LedgerHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	currency := domain.CurrencyPoints
	if raw := r.URL.Query().Get("currency"); raw != "" {
		c, err := domain.ParseCurrency(raw)
		if err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
		currency = c
	}
	limit, err := queryLimit(r, ledger.HistoryLimit, ledger.HistoryLimit)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	txs, err := h.ledger.History(r.Context(), userID, currency, limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list transactions")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, TransactionsResponse{Currency: currency, Transactions: txs})
}

// SpendHint handles POST /api/ledger/hint, charging one lingdou for an
// inspiration hint. A caller without lingdou gets 402.
func (h *LedgerHandler) SpendHint(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	res, err := h.ledger.SpendHint(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to buy hint")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, res)
}
