// Package domain contains the core business entities of the progress and
// rewards engine: catalog topics, per-user progress, training sessions,
// ledger accounts and transactions, and shop products. It is independent of
// storage and transport.
package domain
