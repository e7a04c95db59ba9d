package telemetry

import (
	"context"
	"log/slog"
	"os"
)

// LogLevel reads the logging level from the LOG_LEVEL environment
// variable. One of DEBUG, INFO, WARN, ERROR; defaults to INFO.
func LogLevel() slog.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogger initialises the process-wide structured logger.
//
// Output format is controlled by LOG_FORMAT:
//   - "json" (default) — structured JSON for production
//   - "text" — human-readable, for local development
func SetupLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     LogLevel(),
		AddSource: LogLevel() == slog.LevelDebug,
	}

	var handler slog.Handler
	if os.Getenv("LOG_FORMAT") == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

type ctxKey string

const ctxLogger ctxKey = "logger"

// WithLogger attaches a logger to ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxLogger, logger)
}

// FromContext retrieves the logger attached to ctx, falling back to the
// global default.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(ctxLogger).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithWorkerTag returns a logger annotated with the correlation tag
// (W01..WNN) assigned to a submission slot.
func WithWorkerTag(logger *slog.Logger, workerTag string) *slog.Logger {
	return logger.With("worker", workerTag)
}

// WithWorkID returns a logger annotated with a work item's id.
func WithWorkID(logger *slog.Logger, workID string) *slog.Logger {
	return logger.With("work_id", workID)
}
