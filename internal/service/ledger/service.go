// Package ledger applies currency changes to user balances and keeps every
// change as an immutable transaction.
package ledger

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lingdou-api/internal/domain"
	"github.com/phrazzld/lingdou-api/internal/events"
	"github.com/phrazzld/lingdou-api/internal/platform/logger"
	"github.com/phrazzld/lingdou-api/internal/service"
	"github.com/phrazzld/lingdou-api/internal/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Hint pricing.
const (
	HintCost   int64 = 1
	HintReason       = "inspiration hint"
)

// HistoryLimit caps a History page.
const HistoryLimit = 200

// auditConcurrency bounds the accounts replayed at once.
const auditConcurrency = 8

const tracerName = "github.com/phrazzld/lingdou-api/internal/service/ledger"

// Result is the outcome of a ledger apply.
type Result struct {
	NewBalance  int64                    `json:"new_balance"`
	Transaction domain.LedgerTransaction `json:"transaction"`
}

// Violation is one account whose transactions do not replay to its balance.
type Violation struct {
	UserID   uuid.UUID       `json:"user_id"`
	Currency domain.Currency `json:"currency"`
	Error    string          `json:"error"`
}

// AuditReport summarizes a full ledger replay.
type AuditReport struct {
	Accounts   int         `json:"accounts"`
	Violations []Violation `json:"violations"`
}

// Service provides ledger operations.
type Service interface {
	// Apply changes a balance by amount. A negative amount that would take
	// the balance below zero fails with domain.ErrInsufficientBalance and
	// writes nothing.
	Apply(ctx context.Context, userID uuid.UUID, currency domain.Currency, amount int64, reason string) (*Result, error)

	// Balances returns the user's balance in every currency.
	Balances(ctx context.Context, userID uuid.UUID) ([]domain.LedgerAccount, error)

	// History returns the most recent transactions in creation order.
	History(ctx context.Context, userID uuid.UUID, currency domain.Currency, limit int) ([]domain.LedgerTransaction, error)

	// SpendHint charges the price of an inspiration hint.
	SpendHint(ctx context.Context, userID uuid.UUID) (*Result, error)

	// Audit replays every account and reports the ones that drifted.
	Audit(ctx context.Context) (*AuditReport, error)
}

// ApplyInTx locks the account, applies amount and appends the transaction.
// It must run inside a unit of work so that the balance and the
// transaction commit together.
func ApplyInTx(
	ctx context.Context,
	ledger store.LedgerStore,
	userID uuid.UUID,
	currency domain.Currency,
	amount int64,
	reason string,
	now time.Time,
) (*Result, error) {
	if err := domain.ValidateLedgerEntry(currency, amount, reason); err != nil {
		return nil, err
	}

	acct, err := ledger.GetAccountForUpdate(ctx, userID, currency)
	if err != nil {
		return nil, err
	}
	next, err := domain.ApplyAmount(acct.Balance, amount)
	if err != nil {
		return nil, err
	}

	acct.Balance = next
	if err := ledger.UpdateBalance(ctx, acct); err != nil {
		return nil, err
	}

	tx := domain.LedgerTransaction{
		ID:           uuid.New(),
		UserID:       userID,
		Currency:     currency,
		Amount:       amount,
		Reason:       reason,
		BalanceAfter: next,
		CreatedAt:    now.UTC(),
	}
	if err := ledger.AppendTransaction(ctx, &tx); err != nil {
		return nil, err
	}
	return &Result{NewBalance: next, Transaction: tx}, nil
}

type serviceImpl struct {
	uow     store.UnitOfWork
	emitter events.EventEmitter
	logger  *slog.Logger
	now     func() time.Time
}

var _ Service = (*serviceImpl)(nil)

// NewService creates a ledger Service. A nil emitter discards events.
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
		logger:  logger.With(slog.String("component", "ledger_service")),
		now:     time.Now,
	}, nil
}

func (s *serviceImpl) Apply(
	ctx context.Context,
	userID uuid.UUID,
	currency domain.Currency,
	amount int64,
	reason string,
) (*Result, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "ledger.Apply",
		trace.WithAttributes(
			attribute.String("currency", string(currency)),
			attribute.Int64("amount", amount),
		),
	)
	defer span.End()

	log := logger.FromContextOrDefault(ctx, s.logger)

	var result *Result
	err := s.uow.Do(ctx, func(ctx context.Context, st store.Stores) error {
		var err error
		result, err = ApplyInTx(ctx, st.Ledger, userID, currency, amount, reason, s.now())
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "apply failed")
		log.Warn("ledger apply rejected",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("currency", string(currency)),
			slog.Int64("amount", amount))
		return nil, service.NewError("apply_ledger", "failed to apply ledger entry", err)
	}

	log.Info("ledger entry applied",
		slog.String("user_id", userID.String()),
		slog.String("transaction_id", result.Transaction.ID.String()),
		slog.String("currency", string(currency)),
		slog.Int64("amount", amount),
		slog.Int64("balance_after", result.NewBalance))

	if event, err := events.New(events.LedgerApplied, userID, events.LedgerAppliedPayload{
		TransactionID: result.Transaction.ID,
		Currency:      string(currency),
		Amount:        amount,
		BalanceAfter:  result.NewBalance,
	}); err == nil {
		if err := s.emitter.EmitEvent(ctx, event); err != nil {
			log.Warn("failed to emit ledger event", slog.String("error", err.Error()))
		}
	}
	return result, nil
}

func (s *serviceImpl) Balances(ctx context.Context, userID uuid.UUID) ([]domain.LedgerAccount, error) {
	accounts, err := s.uow.Stores().Ledger.ListAccounts(ctx, userID)
	if err != nil {
		return nil, service.NewError("balances", "failed to list accounts", err)
	}

	byCurrency := make(map[domain.Currency]domain.LedgerAccount, len(accounts))
	for _, a := range accounts {
		byCurrency[a.Currency] = a
	}
	out := make([]domain.LedgerAccount, 0, len(domain.Currencies))
	for _, c := range domain.Currencies {
		acct, ok := byCurrency[c]
		if !ok {
			acct = domain.LedgerAccount{UserID: userID, Currency: c}
		}
		out = append(out, acct)
	}
	return out, nil
}

func (s *serviceImpl) History(
	ctx context.Context,
	userID uuid.UUID,
	currency domain.Currency,
	limit int,
) ([]domain.LedgerTransaction, error) {
	if !currency.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidCurrency, currency)
	}
	if limit <= 0 || limit > HistoryLimit {
		limit = HistoryLimit
	}
	txs, err := s.uow.Stores().Ledger.ListTransactions(ctx, userID, currency, limit)
	if err != nil {
		return nil, service.NewError("history", "failed to list transactions", err)
	}
	return txs, nil
}

func (s *serviceImpl) SpendHint(ctx context.Context, userID uuid.UUID) (*Result, error) {
	return s.Apply(ctx, userID, domain.CurrencyLingdou, -HintCost, HintReason)
}

func (s *serviceImpl) Audit(ctx context.Context) (*AuditReport, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	stores := s.uow.Stores()

	accounts, err := stores.Ledger.ListAllAccounts(ctx)
	if err != nil {
		return nil, service.NewError("audit", "failed to list accounts", err)
	}

	report := &AuditReport{Accounts: len(accounts), Violations: []Violation{}}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(auditConcurrency)
	for _, acct := range accounts {
		g.Go(func() error {
			txs, err := stores.Ledger.ListTransactions(gctx, acct.UserID, acct.Currency, 0)
			if err != nil {
				return err
			}
			if err := domain.VerifyReplay(txs, acct.Balance); err != nil {
				log.Error("ledger replay mismatch",
					slog.String("user_id", acct.UserID.String()),
					slog.String("currency", string(acct.Currency)),
					slog.String("error", err.Error()))
				mu.Lock()
				report.Violations = append(report.Violations, Violation{
					UserID: acct.UserID, Currency: acct.Currency, Error: err.Error(),
				})
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, service.NewError("audit", "failed to replay ledger", err)
	}
	slices.SortFunc(report.Violations, func(a, b Violation) int {
		return cmp.Or(cmp.Compare(a.UserID.String(), b.UserID.String()), cmp.Compare(a.Currency, b.Currency))
	})

	log.Info("ledger audit finished",
		slog.Int("accounts", report.Accounts),
		slog.Int("violations", len(report.Violations)))
	return report, nil
}
