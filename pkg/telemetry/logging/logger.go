// Package logging provides structured logging for stathive built on
// log/slog, with runtime level adjustment for config hot-reload.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"stathive-hq/stathive/pkg/config"
)

// Logger wraps a slog.Logger with a mutable level so the minimum level
// can be re-applied when the configuration file changes without
// rebuilding handlers.
type Logger struct {
	slog  *slog.Logger
	level *slog.LevelVar
}

// New creates a Logger from the logging configuration. If w is nil,
// output goes to stdout.
func New(cfg config.LoggingConfig, w io.Writer) (*Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if w == nil {
		w = os.Stdout
	}

	lv := new(slog.LevelVar)
	lv.Set(level)
	opts := &slog.HandlerOptions{Level: lv}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	case "json", "":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}

	return &Logger{
		slog:  slog.New(handler),
		level: lv,
	}, nil
}

// Slog returns the underlying slog.Logger.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// SetAsDefault installs the logger as the process-wide slog default.
func (l *Logger) SetAsDefault() {
	slog.SetDefault(l.slog)
}

// SetLevel changes the minimum level of all handlers derived from this
// logger. Used by the config watcher's reload path.
func (l *Logger) SetLevel(name string) error {
	level, err := ParseLevel(name)
	if err != nil {
		return err
	}
	l.level.Set(level)
	return nil
}

// ParseLevel maps a configuration level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch name {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q", name)
	}
}
