package store

import "context"

// Stores bundles the repositories that take part in one unit of work.
type Stores struct {
	Catalog  CatalogStore
	Progress ProgressStore
	Sessions SessionStore
	Ledger   LedgerStore
	Shop     ShopStore
}

// UnitOfWorkFn is the body of a unit of work. It must only use the stores
// it is given.
type UnitOfWorkFn func(ctx context.Context, s Stores) error

// UnitOfWork gives services access to stores, either directly or bound to a
// single atomic transaction.
type UnitOfWork interface {
	// Stores returns stores outside any transaction, for reads.
	Stores() Stores

	// Do runs fn atomically. Every write made through the stores passed to
	// fn is committed if fn returns nil and discarded otherwise.
	Do(ctx context.Context, fn UnitOfWorkFn) error
}
