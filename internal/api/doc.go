// Package api is the HTTP surface of the progress and rewards engine. It
// authenticates the caller, decodes and validates JSON requests, calls the
// training, ledger, progress and shop services, and maps their errors to
// status codes without leaking internal detail.
package api
