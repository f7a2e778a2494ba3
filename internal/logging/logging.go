// Package logging builds the charmbracelet/log logger tada writes to.
// The terminal belongs to the UI, so logs go to a file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// Options holds configuration for the logger.
type Options struct {
	Level  string
	File   string
	Prefix string
}

// Logger wraps a log.Logger with the file it owns.
type Logger struct {
	*log.Logger
	file *os.File
}

// New opens opts.File for appending and returns a logger writing to it.
// An empty File discards everything.
func New(opts Options) (*Logger, error) {
	level, err := log.ParseLevel(opts.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "tada"
	}

	var w io.Writer = io.Discard
	var file *os.File
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o700); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		file, err = os.OpenFile(opts.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		w = file
	}

	return &Logger{
		Logger: NewWithWriter(w, level, prefix),
		file:   file,
	}, nil
}

// NewWithWriter returns a text logger on w. Tests use it with a buffer.
func NewWithWriter(w io.Writer, level log.Level, prefix string) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       log.TextFormatter,
		ReportTimestamp: true,
		Prefix:          prefix,
	})
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}
