// Package logging builds the leveled console logger and the store observer
// that traces every operation.
package logging

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/idilsaglam/tada/internal/todo"
)

const prefix = "tada"

// New returns a logger writing to w. Unknown level or format names fall
// back to warn and text.
func New(w io.Writer, level, format string) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:     ParseLevel(level),
		Formatter: ParseFormatter(format),
		Prefix:    prefix,
	})
}

func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.WarnLevel
	}
}

func ParseFormatter(format string) log.Formatter {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

// Observer returns a store observer that logs each event at debug level.
// Persistence failures are already reported by the store itself.
func Observer(l *log.Logger) todo.Observer {
	return todo.ObserverFunc(func(ev todo.Event) {
		fields := []any{"op", string(ev.Op), "changed", ev.Changed}
		if ev.ID != 0 {
			fields = append(fields, "id", ev.ID)
		}
		if ev.Err != nil {
			fields = append(fields, "err", ev.Err)
		}
		l.Debug("store operation", fields...)
	})
}
