// Package logging provides structured logging configuration using log/slog.
//
// This package integrates with chi's RequestID middleware to propagate
// request IDs through structured log entries, and tags pipeline runs with
// their run ID so the stages of one run can be correlated.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

type runIDKey struct{}

// Setup configures the global slog logger on stdout based on level and format.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
func Setup(level, format string) {
	SetupWriter(os.Stdout, level, format)
}

// SetupWriter is Setup with an explicit destination. The CLI logs to stderr
// so that stdout stays free for command output.
func SetupWriter(w io.Writer, level, format string) {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// FromContext returns a logger enriched with request context.
//
// The logger carries request_id when ctx holds a chi RequestID and run_id
// when ctx was returned by WithRun.
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	if runID := RunID(ctx); runID != "" {
		logger = logger.With("run_id", runID)
	}

	return logger
}

// WithRun returns a context tagged with a pipeline run ID.
func WithRun(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunID returns the run ID stored by WithRun, or "".
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// WithFields returns a logger with additional structured fields.
//
// Usage:
//
//	runLogger := logging.WithFields(ctx,
//	    "period", period,
//	    "sheet", sheetName,
//	)
//	runLogger.Info("run started")
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
