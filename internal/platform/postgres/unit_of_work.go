package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/phrazzld/lingdou-api/internal/store"
)

// UnitOfWork implements store.UnitOfWork on top of a *sql.DB.
type UnitOfWork struct {
	db     *sql.DB
	logger *slog.Logger
	stores store.Stores
}

// NewUnitOfWork creates a UnitOfWork whose plain stores run on db directly.
func NewUnitOfWork(db *sql.DB, logger *slog.Logger) *UnitOfWork {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UnitOfWork{
		db:     db,
		logger: logger,
		stores: newStores(db, logger),
	}
}

// Ensure UnitOfWork implements store.UnitOfWork interface
var _ store.UnitOfWork = (*UnitOfWork)(nil)

func newStores(db store.DBTX, logger *slog.Logger) store.Stores {
	return store.Stores{
		Catalog:  NewPostgresCatalogStore(db, logger),
		Progress: NewPostgresProgressStore(db, logger),
		Sessions: NewPostgresSessionStore(db, logger),
		Ledger:   NewPostgresLedgerStore(db, logger),
		Shop:     NewPostgresShopStore(db, logger),
	}
}

// Stores implements store.UnitOfWork.Stores
func (u *UnitOfWork) Stores() store.Stores {
	return u.stores
}

// Do implements store.UnitOfWork.Do. Every store passed to fn shares one
// database transaction.
func (u *UnitOfWork) Do(ctx context.Context, fn store.UnitOfWorkFn) error {
	return store.RunInTransaction(ctx, u.db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, newStores(tx, u.logger))
	})
}
