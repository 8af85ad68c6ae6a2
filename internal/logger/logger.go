// Package logger owns the process-wide slog instance shared by every
// component. Handlers write to stdout; level, format and component name
// come from configuration.
package logger

import (
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/amora-app/amora-server/internal/config"
)

// Options controls handler construction. The zero value is a text handler
// at info level with no component attribute.
type Options struct {
	Level      string // debug, info, warn, error
	JSON       bool
	Component  string
	WithSource bool
}

var (
	mu     sync.RWMutex
	logger *slog.Logger
)

// InitFromConfig wires the global logger from app config.
func InitFromConfig(c *config.Config) {
	if c == nil {
		Init(Options{})
		return
	}
	Init(Options{
		Level:      c.Log.Level,
		JSON:       strings.EqualFold(c.Log.Format, "json"),
		Component:  c.Log.Component,
		WithSource: c.Log.Source,
	})
}

// Init installs the global logger. Safe to call multiple times.
func Init(o Options) {
	mu.Lock()
	defer mu.Unlock()
	logger = build(o)
}

func build(o Options) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(o.Level),
		AddSource: o.WithSource,
	}

	var handler slog.Handler
	if o.JSON {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	l := slog.New(handler)
	if o.Component != "" {
		l = l.With("component", o.Component)
	}
	return l
}

// L returns the global logger, installing the defaults on first use.
func L() *slog.Logger {
	mu.RLock()
	if logger != nil {
		defer mu.RUnlock()
		return logger
	}
	mu.RUnlock()

	Init(Options{})

	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// With creates a child logger with additional attributes.
func With(args ...any) *slog.Logger { return L().With(args...) }

func Debug(msg string, args ...any) { L().Debug(msg, args...) }
func Info(msg string, args ...any)  { L().Info(msg, args...) }
func Warn(msg string, args ...any)  { L().Warn(msg, args...) }
func Error(msg string, args ...any) { L().Error(msg, args...) }

func parseLevel(s string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
