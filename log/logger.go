// Package log provides fast, leveled, structured logging based on Go's
// slog package.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// DefaultTimeFormat is a slim default time format used if no other time
// format is specified.
const DefaultTimeFormat = "2006-01-02 15:04:05"

// Config represents configuration for a logger.
type Config struct {
	Level Level

	Output io.Writer

	// Handler handles log records produced by a Logger. Defaults to a
	// console handler writing to Output.
	Handler slog.Handler

	// TimeFormat defines the time format to use, defaults to
	// DefaultTimeFormat. Outputting of time can be disabled with "-".
	TimeFormat string
}

// Logger provides leveled, structured logging. All methods are safe for
// concurrent use.
type Logger struct {
	logger  *slog.Logger
	handler slog.Handler
	level   *slog.LevelVar
}

// New returns a new Logger instance with the default configuration.
func New() *Logger {
	return NewWithConfig(Config{Level: DefaultLevel()})
}

// NewWithConfig creates a new logger for the given config.
func NewWithConfig(cfg Config) *Logger {
	level := &slog.LevelVar{}
	level.Set(cfg.Level)

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	handler := cfg.Handler
	if handler == nil {
		handler = NewConsoleHandler(output, level, cfg.TimeFormat)
	}

	return &Logger{
		logger:  slog.New(handler),
		handler: handler,
		level:   level,
	}
}

// NewNop creates a no-op logger which never writes logs to the output.
// Useful for tests.
func NewNop() *Logger {
	return NewWithConfig(Config{
		Output: io.Discard,
		Level:  Level(100),
	})
}

// With creates a child logger and adds structured context to it. Fields
// added to the child don't affect the parent, and vice versa.
func (l *Logger) With(fields ...any) *Logger {
	return &Logger{
		logger:  l.logger.With(fields...),
		handler: l.handler,
		level:   l.level,
	}
}

// Named adds a new path segment to the logger's name. Segments are joined
// by periods. By default, Loggers are unnamed.
func (l *Logger) Named(name string) *Logger {
	return &Logger{
		logger:  l.logger.WithGroup(name),
		handler: l.handler,
		level:   l.level,
	}
}

// Level returns the minimum enabled log level.
func (l *Logger) Level() Level {
	return l.level.Level()
}

// SetLevel alters the logging level.
func (l *Logger) SetLevel(level Level) {
	l.level.Set(level)
}

// Trace logs at TraceLevel.
func (l *Logger) Trace(msg string, args ...any) {
	l.logger.Log(context.Background(), TraceLevel, msg, args...)
}

// Debug logs at DebugLevel.
func (l *Logger) Debug(msg string, args ...any) {
	l.logger.Log(context.Background(), DebugLevel, msg, args...)
}

// Info logs at InfoLevel.
func (l *Logger) Info(msg string, args ...any) {
	l.logger.Log(context.Background(), InfoLevel, msg, args...)
}

// Warn logs at WarnLevel.
func (l *Logger) Warn(msg string, args ...any) {
	l.logger.Log(context.Background(), WarnLevel, msg, args...)
}

// Error logs at ErrorLevel.
func (l *Logger) Error(msg string, args ...any) {
	l.logger.Log(context.Background(), ErrorLevel, msg, args...)
}

// Fatal logs at FatalLevel and then calls os.Exit(1).
func (l *Logger) Fatal(msg string, args ...any) {
	l.logger.Log(context.Background(), FatalLevel, msg, args...)
	os.Exit(1)
}
