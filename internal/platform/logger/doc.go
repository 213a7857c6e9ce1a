// Package logger provides structured logging functionality for the application.
//
// It builds log/slog JSON loggers with configurable levels, correlates records
// with OpenTelemetry spans, and carries request-scoped loggers in contexts.
package logger
