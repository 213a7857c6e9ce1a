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

// PostgresLedgerStore implements the store.LedgerStore interface.
type PostgresLedgerStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresLedgerStore creates a new PostgreSQL implementation of the LedgerStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresLedgerStore(db store.DBTX, logger *slog.Logger) *PostgresLedgerStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresLedgerStore{
		db:     db,
		logger: logger.With(slog.String("component", "ledger_store")),
	}
}

// Ensure PostgresLedgerStore implements store.LedgerStore interface
var _ store.LedgerStore = (*PostgresLedgerStore)(nil)

// GetAccountForUpdate implements store.LedgerStore.GetAccountForUpdate.
// A missing account is created with a zero balance before the row is locked,
// so concurrent first writes serialize on the same row.
func (s *PostgresLedgerStore) GetAccountForUpdate(
	ctx context.Context,
	userID uuid.UUID,
	currency domain.Currency,
) (*domain.LedgerAccount, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !currency.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidCurrency, currency)
	}

	ensure := `
		INSERT INTO ledger_accounts (user_id, currency, balance)
		VALUES ($1, $2, 0)
		ON CONFLICT (user_id, currency) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, ensure, userID, currency); err != nil {
		log.Error("failed to ensure ledger account",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("currency", string(currency)))
		return nil, MapError(err)
	}

	query := `
		SELECT user_id, currency, balance
		FROM ledger_accounts
		WHERE user_id = $1 AND currency = $2
		FOR UPDATE
	`
	var acct domain.LedgerAccount
	err := s.db.QueryRowContext(ctx, query, userID, currency).
		Scan(&acct.UserID, &acct.Currency, &acct.Balance)
	if err != nil {
		log.Error("failed to lock ledger account",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("currency", string(currency)))
		return nil, MapError(err)
	}
	return &acct, nil
}

func (s *PostgresLedgerStore) listAccounts(ctx context.Context, query string, args ...any) ([]domain.LedgerAccount, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	out := []domain.LedgerAccount{}
	for rows.Next() {
		var a domain.LedgerAccount
		if err := rows.Scan(&a.UserID, &a.Currency, &a.Balance); err != nil {
			return nil, MapError(err)
		}
		out = append(out, a)
	}
	return out, MapError(rows.Err())
}

// ListAccounts implements store.LedgerStore.ListAccounts
func (s *PostgresLedgerStore) ListAccounts(ctx context.Context, userID uuid.UUID) ([]domain.LedgerAccount, error) {
	return s.listAccounts(ctx,
		`SELECT user_id, currency, balance FROM ledger_accounts WHERE user_id = $1 ORDER BY currency`,
		userID)
}

// ListAllAccounts implements store.LedgerStore.ListAllAccounts
func (s *PostgresLedgerStore) ListAllAccounts(ctx context.Context) ([]domain.LedgerAccount, error) {
	return s.listAccounts(ctx,
		`SELECT user_id, currency, balance FROM ledger_accounts ORDER BY user_id, currency`)
}

// UpdateBalance implements store.LedgerStore.UpdateBalance
func (s *PostgresLedgerStore) UpdateBalance(ctx context.Context, account *domain.LedgerAccount) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if account.Balance < 0 {
		return fmt.Errorf("%w: negative balance", store.ErrInvalidEntity)
	}

	query := `
		UPDATE ledger_accounts
		SET balance = $3, updated_at = NOW()
		WHERE user_id = $1 AND currency = $2
	`
	result, err := s.db.ExecContext(ctx, query, account.UserID, account.Currency, account.Balance)
	if err != nil {
		log.Error("failed to update balance",
			slog.String("error", err.Error()),
			slog.String("user_id", account.UserID.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrNotFound)
}

// AppendTransaction implements store.LedgerStore.AppendTransaction.
// The assigned sequence number is written back to tx.Seq.
func (s *PostgresLedgerStore) AppendTransaction(ctx context.Context, tx *domain.LedgerTransaction) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := domain.ValidateLedgerEntry(tx.Currency, tx.Amount, tx.Reason); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO ledger_transactions (id, user_id, currency, amount, reason, balance_after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING seq
	`
	err := s.db.QueryRowContext(ctx, query,
		tx.ID, tx.UserID, tx.Currency, tx.Amount, tx.Reason, tx.BalanceAfter, tx.CreatedAt).
		Scan(&tx.Seq)
	if err != nil {
		log.Error("failed to append ledger transaction",
			slog.String("error", err.Error()),
			slog.String("transaction_id", tx.ID.String()))
		return MapError(err)
	}

	log.Debug("ledger transaction appended",
		slog.String("transaction_id", tx.ID.String()),
		slog.Int64("seq", tx.Seq),
		slog.Int64("amount", tx.Amount),
		slog.Int64("balance_after", tx.BalanceAfter))
	return nil
}

// ListTransactions implements store.LedgerStore.ListTransactions.
// With limit > 0 the most recent limit entries are returned; results are
// always in creation order.
func (s *PostgresLedgerStore) ListTransactions(
	ctx context.Context,
	userID uuid.UUID,
	currency domain.Currency,
	limit int,
) ([]domain.LedgerTransaction, error) {
	query := `
		SELECT id, seq, user_id, currency, amount, reason, balance_after, created_at
		FROM ledger_transactions
		WHERE user_id = $1 AND currency = $2
		ORDER BY seq
	`
	args := []any{userID, currency}
	if limit > 0 {
		query = `
			SELECT * FROM (
				SELECT id, seq, user_id, currency, amount, reason, balance_after, created_at
				FROM ledger_transactions
				WHERE user_id = $1 AND currency = $2
				ORDER BY seq DESC
				LIMIT $3
			) recent
			ORDER BY seq
		`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	out := []domain.LedgerTransaction{}
	for rows.Next() {
		var t domain.LedgerTransaction
		if err := rows.Scan(&t.ID, &t.Seq, &t.UserID, &t.Currency, &t.Amount,
			&t.Reason, &t.BalanceAfter, &t.CreatedAt); err != nil {
			return nil, MapError(err)
		}
		out = append(out, t)
	}
	return out, MapError(rows.Err())
}
