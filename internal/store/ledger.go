package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/lingdou-api/internal/domain"
)

// LedgerStore defines persistence for balances and their transactions.
type LedgerStore interface {
	// GetAccountForUpdate returns the account for (user, currency), creating
	// a zero-balance account when none exists. Inside a transaction the row
	// stays locked until the transaction ends.
	GetAccountForUpdate(ctx context.Context, userID uuid.UUID, currency domain.Currency) (*domain.LedgerAccount, error)

	// ListAccounts returns every account of a user. Missing currencies are omitted.
	ListAccounts(ctx context.Context, userID uuid.UUID) ([]domain.LedgerAccount, error)

	// ListAllAccounts returns every account in the ledger.
	ListAllAccounts(ctx context.Context) ([]domain.LedgerAccount, error)

	// UpdateBalance writes account.Balance.
	// Returns ErrUpdateFailed if the account row does not exist.
	UpdateBalance(ctx context.Context, account *domain.LedgerAccount) error

	// AppendTransaction inserts an immutable transaction and sets its Seq.
	AppendTransaction(ctx context.Context, tx *domain.LedgerTransaction) error

	// ListTransactions returns an account's transactions in creation order.
	// A limit of 0 returns all of them; otherwise the most recent limit
	// transactions are returned, still in creation order.
	ListTransactions(ctx context.Context, userID uuid.UUID, currency domain.Currency, limit int) ([]domain.LedgerTransaction, error)
}
