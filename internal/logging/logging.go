// Package logging configures the process-wide slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format is the log output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseLevel accepts error, warn, info, debug or their numeric forms 0..3.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error", "0":
		return slog.LevelError, nil
	case "warn", "warning", "1":
		return slog.LevelWarn, nil
	case "info", "2":
		return slog.LevelInfo, nil
	case "debug", "3":
		return slog.LevelDebug, nil
	default:
		return 0, fmt.Errorf("unknown log level %q (want error, warn, info, debug or 0-3)", s)
	}
}

// New returns a logger writing to w (stderr when nil) at level.
func New(w io.Writer, level slog.Level, format Format) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if format == FormatJSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// Setup parses level and format, builds a logger and installs it as the
// default.
func Setup(w io.Writer, level string, format Format) (*slog.Logger, slog.Level, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, 0, err
	}
	if format != FormatText && format != FormatJSON {
		return nil, 0, fmt.Errorf("unknown log format %q (want text or json)", format)
	}
	logger := New(w, lvl, format)
	slog.SetDefault(logger)
	return logger, lvl, nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
