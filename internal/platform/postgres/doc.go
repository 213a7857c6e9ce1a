// Package postgres implements the store interfaces on PostgreSQL through
// database/sql and the pgx driver. Ledger and stock changes take row locks
// (SELECT ... FOR UPDATE) so concurrent spends serialize per account.
package postgres
