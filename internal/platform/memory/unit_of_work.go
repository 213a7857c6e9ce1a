package memory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/phrazzld/lingdou-api/internal/platform/logger"
	"github.com/phrazzld/lingdou-api/internal/store"
)

// UnitOfWork implements store.UnitOfWork in memory.
type UnitOfWork struct {
	mu     sync.Mutex
	state  *state
	logger *slog.Logger
}

// NewUnitOfWork creates an empty in-memory UnitOfWork.
func NewUnitOfWork(logger *slog.Logger) *UnitOfWork {
	if logger == nil {
		logger = slog.Default()
	}
	return &UnitOfWork{
		state:  newState(),
		logger: logger.With(slog.String("component", "memory_unit_of_work")),
	}
}

// Ensure UnitOfWork implements store.UnitOfWork interface
var _ store.UnitOfWork = (*UnitOfWork)(nil)

// db is the handle every store works through. A nil mu means the caller
// already holds the lock.
type db struct {
	uow *UnitOfWork
	mu  *sync.Mutex
}

func (d db) lock() func() {
	if d.mu == nil {
		return func() {}
	}
	d.mu.Lock()
	return d.mu.Unlock
}

func (d db) state() *state {
	return d.uow.state
}

func (u *UnitOfWork) stores(d db) store.Stores {
	return store.Stores{
		Catalog:  &CatalogStore{db: d},
		Progress: &ProgressStore{db: d},
		Sessions: &SessionStore{db: d},
		Ledger:   &LedgerStore{db: d},
		Shop:     &ShopStore{db: d},
	}
}

// Stores implements store.UnitOfWork.Stores. Each call on the returned
// stores is atomic on its own.
func (u *UnitOfWork) Stores() store.Stores {
	return u.stores(db{uow: u, mu: &u.mu})
}

// Do implements store.UnitOfWork.Do. Units of work are serialized; a failed
// or panicking unit of work leaves the state as it was before.
func (u *UnitOfWork) Do(ctx context.Context, fn store.UnitOfWorkFn) (err error) {
	log := logger.FromContextOrDefault(ctx, u.logger)

	u.mu.Lock()
	defer u.mu.Unlock()

	snapshot := u.state.clone()
	defer func() {
		if p := recover(); p != nil {
			u.state = snapshot
			log.Error("rolled back unit of work after panic", slog.Any("panic", p))
			panic(p)
		}
		if err != nil {
			u.state = snapshot
			log.Debug("rolled back unit of work", slog.String("error", err.Error()))
		}
	}()

	return fn(ctx, u.stores(db{uow: u}))
}
