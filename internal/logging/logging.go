// Package logging configures the process-wide structured logger and hands
// out component-scoped loggers.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Component identifies a subsystem for log attribution.
type Component string

const (
	CompBridge  Component = "bridge"
	CompChannel Component = "channel"
	CompRouter  Component = "router"
	CompOptions Component = "options"
	CompDiag    Component = "diag"
)

// Options controls where and how log output is written.
type Options struct {
	// File is the log file path. Empty writes to stderr without rotation.
	File string

	// Level is one of "debug", "info", "warn", "error". Unknown values
	// fall back to info.
	Level string

	// MaxSizeMB is the rotation threshold for the log file.
	MaxSizeMB int

	// MaxBackups is the number of rotated files to retain.
	MaxBackups int
}

var (
	mu   sync.RWMutex
	root = slog.New(slog.NewTextHandler(os.Stderr, nil))
)

// Setup directs all component loggers at the configured sink. With a file
// path set, output is JSON with size-based rotation; otherwise it is text on
// stderr.
func Setup(opts Options) {
	var handler slog.Handler
	if opts.File != "" {
		maxSize := opts.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 10
		}
		var w io.Writer = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    maxSize,
			MaxBackups: opts.MaxBackups,
			Compress:   true,
		}
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(opts.Level)})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: ParseLevel(opts.Level)})
	}

	mu.Lock()
	root = slog.New(handler)
	mu.Unlock()
}

// SetOutput points all component loggers at w. Intended for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	root = slog.New(slog.NewJSONHandler(w, nil))
	mu.Unlock()
}

// ForComponent returns a logger tagged with the component name.
func ForComponent(c Component) *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root.With(slog.String("component", string(c)))
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
