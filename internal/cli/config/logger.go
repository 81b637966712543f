package config

import (
	"io"
	"log/slog"
	"strings"
)

// NewLogger builds the CLI logger from log_level and log_format.
// Verbose forces debug level.
func NewLogger(w io.Writer, level, format string, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel maps a level name to a slog level. Unknown names mean info.
func ParseLevel(level string) slog.Level {
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
