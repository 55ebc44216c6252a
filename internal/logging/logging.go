// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

var level = new(slog.LevelVar)

// ParseLevel maps "debug", "info", "warn" and "error" to slog levels.
// Anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Setup installs a tint handler on stderr as the default logger. The
// XSWEEP_LOG_LEVEL environment variable takes precedence over levelName.
func Setup(levelName string) *slog.Logger {
	if env := os.Getenv("XSWEEP_LOG_LEVEL"); env != "" {
		levelName = env
	}
	logger := New(os.Stderr, levelName, !isatty.IsTerminal(os.Stderr.Fd()))
	slog.SetDefault(logger)
	return logger
}

// New builds a tint logger writing to w.
func New(w io.Writer, levelName string, noColor bool) *slog.Logger {
	level.Set(ParseLevel(levelName))
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    noColor,
	}))
}

// SetLevel changes the level of loggers built by this package.
func SetLevel(l slog.Level) {
	level.Set(l)
}
