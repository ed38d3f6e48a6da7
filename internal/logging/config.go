// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	EnvLogLevel  = "WESTRUN_LOG_LEVEL"
	EnvLogFormat = "WESTRUN_LOG_FORMAT"
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileVerbose
)

// Options controls handler construction. Zero values fall back to the
// profile defaults.
type Options struct {
	Writer io.Writer
	Level  string
	Format string // "text" | "json"
}

// Configure builds a logger, installs it as the slog default and returns it.
// Components constructed without a logger fall back to slog.Default, so they
// follow the same level and format.
func Configure(profile Profile, opts Options) *slog.Logger {
	logger := New(profile, opts)
	slog.SetDefault(logger)
	return logger
}

// New builds a logger without touching the global default.
func New(profile Profile, opts Options) *slog.Logger {
	level := defaultLevel(profile)
	if lvl, ok := ParseLevel(opts.Level); ok {
		level = lvl
	}
	if lvl, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
		level = lvl
	}

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if env := strings.ToLower(strings.TrimSpace(os.Getenv(EnvLogFormat))); env != "" {
		format = env
	}

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

func defaultLevel(profile Profile) slog.Level {
	switch profile {
	case ProfileVerbose:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// ParseLevel maps a user-supplied level name to a slog level. The second
// return is false for empty or unknown names.
func ParseLevel(raw string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug", "trace":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// Discard returns a logger that drops every record. Used by tests and by
// components constructed without a logger in quiet mode.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
