package logger

import (
	"io"
	"strings"
	"sync"
)

// Log levels accepted in configuration.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

// Output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options select the level, encoding and destination of a logger.
type Options struct {
	Level  string
	Format string    // console (default) or json
	Output io.Writer // stdout when nil
}

var (
	globalLogger *Logger
	once         sync.Once
)

// Get returns the process-wide logger. Only the first call's options are used.
func Get(opts Options) *Logger {
	once.Do(func() {
		globalLogger = New(opts)
	})
	return globalLogger
}

// New builds a standalone logger.
func New(opts Options) *Logger {
	opts.Level = strings.ToLower(strings.TrimSpace(opts.Level))
	opts.Format = strings.ToLower(strings.TrimSpace(opts.Format))
	return newZapLogger(opts)
}
