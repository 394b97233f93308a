// Package logging sets up structured, file-backed logging for the watcher
// and server processes.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Config controls where and how verbosely a process logs.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string
	// FilePath is the log file to write to. Created (with parents) if absent.
	FilePath string
	// WriteToStderr additionally mirrors log lines to stderr.
	WriteToStderr bool
}

// Setup opens FilePath, builds a JSON slog.Logger over it (optionally
// tee'd to stderr), and returns the logger plus a cleanup func that closes
// the file.
func Setup(cfg Config) (*slog.Logger, func(), error) {
	dir := filepath.Dir(cfg.FilePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, err
	}

	f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}

	var output io.Writer = f
	if cfg.WriteToStderr {
		output = io.MultiWriter(f, os.Stderr)
	}

	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	})
	logger := slog.New(handler)

	cleanup := func() { _ = f.Close() }
	return logger, cleanup, nil
}

// parseLevel converts a config string into an slog.Level, defaulting to Info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
