// Package logging provides structured logging setup for listingiq.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Setup initializes the default slog logger on stderr, keeping stdout free
// for command output. Dev mode uses human-readable text at debug level; prod
// uses JSON at the configured level.
func Setup(devMode bool, level string) {
	slog.SetDefault(New(os.Stderr, devMode, level))
}

// New builds a logger writing to w. See Setup.
func New(w io.Writer, devMode bool, level string) *slog.Logger {
	if devMode {
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

// ParseLevel maps a config level name to a slog level. Unknown names are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
