// Package logging provides zerolog-based structured logging for rigup,
// including context plumbing and the environment-mutation audit log.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

const logFileMode = 0o600

// Config controls logger construction.
type Config struct {
	// Level is a zerolog level name ("debug", "info", ...). Invalid or empty
	// values fall back to "info".
	Level string

	// Format selects "console" (human-readable, default) or "json".
	Format string

	// File, when non-empty, appends all log output to the given path in
	// addition to stderr.
	File string

	// Caller enables caller annotation on every event.
	Caller bool
}

// Result is the outcome of constructing a logger. When a log file was
// requested but could not be opened, FallbackUsed is set and logging
// continues on stderr only.
type Result struct {
	Logger         zerolog.Logger
	FilePath       string
	UsingFile      bool
	FallbackUsed   bool
	FallbackReason string

	file *os.File
}

// Close releases the log file handle, if any.
func (r *Result) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// New builds a logger from cfg. File-open failures never fail construction;
// they degrade to stderr-only output and are recorded on the Result.
func New(cfg Config) Result {
	lvl, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		lvl = zerolog.InfoLevel
	}

	var writers []io.Writer
	if cfg.Format == "json" {
		writers = append(writers, os.Stderr)
	} else {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	}

	result := Result{}
	if cfg.File != "" {
		if dirErr := os.MkdirAll(filepath.Dir(cfg.File), 0o750); dirErr != nil {
			result.FallbackUsed = true
			result.FallbackReason = dirErr.Error()
		} else if f, openErr := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, logFileMode); openErr != nil {
			result.FallbackUsed = true
			result.FallbackReason = openErr.Error()
		} else {
			result.file = f
			result.FilePath = cfg.File
			result.UsingFile = true
			writers = append(writers, f)
		}
	}

	lctx := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lvl).
		With().
		Timestamp()
	if cfg.Caller {
		lctx = lctx.Caller()
	}
	result.Logger = lctx.Logger()
	return result
}

// ComponentLogger returns a child logger tagged with a component field.
// All rigup packages log through component-scoped loggers so events can be
// filtered by subsystem.
func ComponentLogger(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}
