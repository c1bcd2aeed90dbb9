package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

func NewJSONLogger(service, level string) *slog.Logger {
	return NewJSONLoggerTo(os.Stdout, service, level)
}

// NewJSONLoggerTo is NewJSONLogger with an explicit sink; deckctl logs to stderr so stdout stays
// reserved for artifact paths.
func NewJSONLoggerTo(w io.Writer, service, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return slog.New(handler).With("service", service)
}

// ForProject scopes a logger to one project and run.
func ForProject(logger *slog.Logger, projectID, runID string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{"project", projectID}
	if runID != "" {
		attrs = append(attrs, "run_id", runID)
	}
	return logger.With(attrs...)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
