package logger

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

type contextKey string

const loggerKey contextKey = "logger"

// Log formats accepted by ForFormat.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// ForFormat returns the logger for a named format.
func ForFormat(format string, w io.Writer, verbose bool) (zerolog.Logger, error) {
	switch format {
	case FormatConsole, "":
		return New(w, verbose), nil
	case FormatJSON:
		return NewJSON(w, verbose), nil
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q (want %s or %s)", format, FormatConsole, FormatJSON)
	}
}

func levelFor(verbose bool) zerolog.Level {
	if verbose {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

// New returns a human-readable console logger writing to w. Debug output is
// enabled when verbose is set.
func New(w io.Writer, verbose bool) zerolog.Logger {
	level := levelFor(verbose)
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    true,
	}
	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

// NewJSON returns a structured JSON logger writing to w.
func NewJSON(w io.Writer, verbose bool) zerolog.Logger {
	return zerolog.New(w).Level(levelFor(verbose)).With().Timestamp().Logger()
}

// WithContext adds the logger to the context.
func WithContext(ctx context.Context, l zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext retrieves the logger from the context, or a disabled logger
// when none was stored.
func FromContext(ctx context.Context) zerolog.Logger {
	if l, ok := ctx.Value(loggerKey).(zerolog.Logger); ok {
		return l
	}
	return zerolog.Nop()
}
