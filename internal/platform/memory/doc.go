// Package memory provides in-process implementations of the store
// interfaces.
//
// All stores created by one UnitOfWork share a single state guarded by a
// mutex. UnitOfWork.Do holds the mutex for the whole unit of work and
// restores a snapshot of the state when the unit of work fails, which gives
// the same all-or-nothing behavior as a database transaction.
package memory
