// Package logger provides component-tagged structured logging on top of
// zerolog, with an optional append-mode run log file.
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config controls logger output.
type Config struct {
	// Verbose enables debug-level events on the console.
	Verbose bool

	// FilePath, when non-empty, appends every event to this file with
	// timestamp, level and message fields.
	FilePath string

	// Quiet drops console output entirely (the TUI renders its own).
	Quiet bool
}

// Logger is a zerolog logger bound to a component name.
type Logger struct {
	zerolog.Logger

	file *os.File
}

// New creates a console-only logger for a component.
func New(component string) *Logger {
	l, _ := NewWithConfig(component, Config{})
	return l
}

// NewWithConfig creates a logger for a component. When cfg.FilePath is
// set, the file is opened in append mode and every event is duplicated
// into it.
func NewWithConfig(component string, cfg Config) (*Logger, error) {
	zerolog.TimeFieldFormat = time.RFC3339

	var writers []io.Writer
	if !cfg.Quiet {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "2006-01-02 15:04:05",
			FormatMessage: func(i interface{}) string {
				return fmt.Sprintf("[%s] %s", component, i)
			},
		})
	}

	var file *os.File
	if cfg.FilePath != "" {
		f, err := os.OpenFile(cfg.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", cfg.FilePath, err)
		}
		file = f
		writers = append(writers, f)
	}

	level := zerolog.InfoLevel
	if cfg.Verbose {
		level = zerolog.DebugLevel
	}

	var out io.Writer = io.Discard
	switch len(writers) {
	case 1:
		out = writers[0]
	default:
		if len(writers) > 1 {
			out = zerolog.MultiLevelWriter(writers...)
		}
	}

	log := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("component", component).
		Logger()

	return &Logger{Logger: log, file: file}, nil
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
