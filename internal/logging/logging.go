package logging

import (
	"io"
	"log/slog"

	"upload-service/internal/config"
)

// New returns the service logger: JSON at info level in production,
// human-readable text at debug level otherwise.
func New(w io.Writer, environment string) *slog.Logger {
	if environment == config.EnvProduction {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// Discard returns a logger that drops every record. Used by tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
