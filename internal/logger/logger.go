// ABOUTME: Process logger construction on zerolog
// ABOUTME: Console output for terminals, JSON lines when logging to a file
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var pid = os.Getpid()

// New builds the process logger. Valid levels are "none", "trace", "debug",
// "info", "warn" and "error". With an empty logFile the logger writes
// human-readable lines to stderr; otherwise it appends JSON to logFile and
// the returned closer must be closed on exit.
func New(level, logFile, tag string) (zerolog.Logger, io.Closer, error) {
	if level == "none" {
		return zerolog.Nop(), nopCloser{}, nil
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.Nop(), nil, fmt.Errorf("unexpected log level %q", level)
	}

	if logFile == "" {
		return NewConsole(os.Stderr, lvl, tag), nopCloser{}, nil
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("failed to open log file: %w", err)
	}
	log := zerolog.New(f).Level(lvl).With().
		Timestamp().
		Int("pid", pid).
		Str("s", tag).
		Logger()
	return log, f, nil
}

// NewConsole returns a colorless console logger writing to w
func NewConsole(w io.Writer, level zerolog.Level, tag string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05.0000",
		NoColor:    true,
		PartsOrder: []string{
			zerolog.TimestampFieldName,
			zerolog.LevelFieldName,
			"s",
			zerolog.MessageFieldName,
		},
		FieldsExclude: []string{"s"},
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano

	return zerolog.New(output).Level(level).With().
		Timestamp().
		Str("s", tag).
		Logger()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
