// Package logger configures the process-wide slog logger and propagates
// request-scoped loggers through context.Context.
package logger
