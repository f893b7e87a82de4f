package utils

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/brickster241/gemerge/utils/constants"
)

// NewLogger returns a text logger on stderr whose level comes from GEGIT_LOG_LEVEL. Warn is the default.
func NewLogger() *slog.Logger {
	return NewLoggerTo(os.Stderr, os.Getenv(constants.EnvLogLevel))
}

// NewLoggerTo builds the logger on w with the named level.
func NewLoggerTo(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

// ParseLevel maps debug/info/warn/error (any case) to a slog level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// DiscardLogger drops every record. Used for quiet passes and in tests.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
