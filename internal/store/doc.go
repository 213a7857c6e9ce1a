// Package store declares the persistence contracts of the engine: one
// store interface per aggregate (catalog, progress, training sessions,
// ledger, shop) and the UnitOfWork that runs several of them atomically.
// Implementations live in internal/platform/memory and
// internal/platform/postgres.
package store
