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

// LedgerStore implements store.LedgerStore in memory.
type LedgerStore struct {
	db db
}

var _ store.LedgerStore = (*LedgerStore)(nil)

// GetAccountForUpdate implements store.LedgerStore.GetAccountForUpdate.
// A missing account is created with a zero balance.
func (s *LedgerStore) GetAccountForUpdate(
	ctx context.Context,
	userID uuid.UUID,
	currency domain.Currency,
) (*domain.LedgerAccount, error) {
	if !currency.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidCurrency, currency)
	}
	defer s.db.lock()()

	st := s.db.state()
	key := accountKey{userID, currency}
	acct, ok := st.accounts[key]
	if !ok {
		acct = domain.LedgerAccount{UserID: userID, Currency: currency}
		st.accounts[key] = acct
	}
	return &acct, nil
}

func sortAccounts(accounts []domain.LedgerAccount) {
	slices.SortFunc(accounts, func(a, b domain.LedgerAccount) int {
		return cmp.Or(
			cmp.Compare(a.UserID.String(), b.UserID.String()),
			cmp.Compare(a.Currency, b.Currency),
		)
	})
}

// ListAccounts implements store.LedgerStore.ListAccounts
func (s *LedgerStore) ListAccounts(ctx context.Context, userID uuid.UUID) ([]domain.LedgerAccount, error) {
	defer s.db.lock()()

	out := []domain.LedgerAccount{}
	for k, a := range s.db.state().accounts {
		if k.userID == userID {
			out = append(out, a)
		}
	}
	sortAccounts(out)
	return out, nil
}

// ListAllAccounts implements store.LedgerStore.ListAllAccounts
func (s *LedgerStore) ListAllAccounts(ctx context.Context) ([]domain.LedgerAccount, error) {
	defer s.db.lock()()

	out := make([]domain.LedgerAccount, 0, len(s.db.state().accounts))
	for _, a := range s.db.state().accounts {
		out = append(out, a)
	}
	sortAccounts(out)
	return out, nil
}

// UpdateBalance implements store.LedgerStore.UpdateBalance
func (s *LedgerStore) UpdateBalance(ctx context.Context, account *domain.LedgerAccount) error {
	if account.Balance < 0 {
		return fmt.Errorf("%w: negative balance", store.ErrInvalidEntity)
	}
	defer s.db.lock()()

	st := s.db.state()
	key := accountKey{account.UserID, account.Currency}
	if _, ok := st.accounts[key]; !ok {
		return store.ErrNotFound
	}
	st.accounts[key] = *account
	return nil
}

// AppendTransaction implements store.LedgerStore.AppendTransaction
func (s *LedgerStore) AppendTransaction(ctx context.Context, tx *domain.LedgerTransaction) error {
	if err := domain.ValidateLedgerEntry(tx.Currency, tx.Amount, tx.Reason); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	if tx.BalanceAfter < 0 {
		return fmt.Errorf("%w: negative balance after", store.ErrInvalidEntity)
	}
	defer s.db.lock()()

	st := s.db.state()
	if _, ok := st.accounts[accountKey{tx.UserID, tx.Currency}]; !ok {
		return fmt.Errorf("%w: no ledger account", store.ErrInvalidEntity)
	}
	for _, existing := range st.transactions {
		if existing.ID == tx.ID {
			return store.ErrDuplicate
		}
	}
	st.seq++
	tx.Seq = st.seq
	st.transactions = append(st.transactions, *tx)
	return nil
}

// ListTransactions implements store.LedgerStore.ListTransactions
func (s *LedgerStore) ListTransactions(
	ctx context.Context,
	userID uuid.UUID,
	currency domain.Currency,
	limit int,
) ([]domain.LedgerTransaction, error) {
	defer s.db.lock()()

	out := []domain.LedgerTransaction{}
	for _, tx := range s.db.state().transactions {
		if tx.UserID == userID && tx.Currency == currency {
			out = append(out, tx)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}
