package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Currency is a balance kind held by a user.
type Currency string

// Supported currencies
const (
	CurrencyPoints  Currency = "points"
	CurrencyLingdou Currency = "lingdou"
)

// Currencies lists every supported currency.
var Currencies = []Currency{CurrencyPoints, CurrencyLingdou}

// ErrEmptyReason is returned when a ledger entry has no reason.
var ErrEmptyReason = errors.New("ledger reason cannot be empty")

// ParseCurrency converts s into a Currency.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, s)
	}
	return c, nil
}

// Valid reports whether c is supported.
func (c Currency) Valid() bool {
	return c == CurrencyPoints || c == CurrencyLingdou
}

// LedgerAccount is a user's balance in one currency. Balance never goes negative.
type LedgerAccount struct {
	UserID   uuid.UUID `json:"user_id"`
	Currency Currency  `json:"currency"`
	Balance  int64     `json:"balance"`
}

// LedgerTransaction is an immutable ledger entry. BalanceAfter is the account
// balance immediately after Amount was applied.
type LedgerTransaction struct {
	ID           uuid.UUID `json:"id"`
	Seq          int64     `json:"seq"`
	UserID       uuid.UUID `json:"user_id"`
	Currency     Currency  `json:"currency"`
	Amount       int64     `json:"amount"`
	Reason       string    `json:"reason"`
	BalanceAfter int64     `json:"balance_after"`
	CreatedAt    time.Time `json:"created_at"`
}

// ValidateLedgerEntry checks a request to change a balance.
func ValidateLedgerEntry(currency Currency, amount int64, reason string) error {
	if !currency.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCurrency, currency)
	}
	if amount == 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(reason) == "" {
		return ErrEmptyReason
	}
	return nil
}

// ApplyAmount returns the balance after applying amount, or
// ErrInsufficientBalance when a spend would go below zero.
func ApplyAmount(balance, amount int64) (int64, error) {
	next := balance + amount
	if amount < 0 && next < 0 {
		return balance, fmt.Errorf("%w: balance %d, requested %d", ErrInsufficientBalance, balance, -amount)
	}
	return next, nil
}

// VerifyReplay replays transactions in order and checks that every
// BalanceAfter equals the running sum, and that the final sum equals
// balance. Transactions must belong to a single user and currency.
func VerifyReplay(transactions []LedgerTransaction, balance int64) error {
	var running int64
	for i, tx := range transactions {
		if i > 0 {
			prev := transactions[i-1]
			if tx.UserID != prev.UserID || tx.Currency != prev.Currency {
				return fmt.Errorf("%w: transaction %s belongs to a different account", ErrConsistencyViolation, tx.ID)
			}
		}
		running += tx.Amount
		if running < 0 {
			return fmt.Errorf("%w: balance negative after transaction %s", ErrConsistencyViolation, tx.ID)
		}
		if tx.BalanceAfter != running {
			return fmt.Errorf("%w: transaction %s records balance %d, replay gives %d",
				ErrConsistencyViolation, tx.ID, tx.BalanceAfter, running)
		}
	}
	if running != balance {
		return fmt.Errorf("%w: account balance %d, replay gives %d", ErrConsistencyViolation, balance, running)
	}
	return nil
}
