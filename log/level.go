package log

import (
	"log/slog"
	"sync/atomic"
)

// Log levels.
const (
	// TraceLevel logs are typically voluminous, and are usually disabled in
	// production.
	TraceLevel = slog.LevelDebug << 1

	// DebugLevel logs are typically voluminous, and are usually disabled in
	// production.
	DebugLevel = slog.LevelDebug

	// InfoLevel is the default logging priority.
	InfoLevel = slog.LevelInfo

	// WarnLevel logs are more important than Info, but don't need individual
	// human review.
	WarnLevel = slog.LevelWarn

	// ErrorLevel logs are high-priority. If an application is running
	// smoothly, it shouldn't generate any error-level logs.
	ErrorLevel = slog.LevelError

	// FatalLevel logs a message, then calls os.Exit(1).
	FatalLevel = slog.LevelError << 1
)

// Level is a logging priority. Higher levels are more important.
type Level = slog.Level

var defaultLevel atomic.Int64

func init() {
	defaultLevel.Store(int64(InfoLevel))
}

// DefaultLevel returns the current default level for all loggers
// newly created with New().
func DefaultLevel() Level {
	return Level(defaultLevel.Load())
}

// SetDefaultLevel sets the default level for all newly created loggers.
func SetDefaultLevel(level Level) {
	defaultLevel.Store(int64(level))
}

// ParseLevel converts a level name into a Level.
// Returns false if the name is not a known level.
func ParseLevel(name string) (Level, bool) {
	switch name {
	case "trace":
		return TraceLevel, true
	case "debug":
		return DebugLevel, true
	case "info":
		return InfoLevel, true
	case "warn":
		return WarnLevel, true
	case "error":
		return ErrorLevel, true
	case "fatal":
		return FatalLevel, true
	default:
		return InfoLevel, false
	}
}

// levelString translates a level to a padded string ready for printing on
// the console.
func levelString(level Level) string {
	switch {
	case level >= FatalLevel:
		return "FATAL   "
	case level >= ErrorLevel:
		return "ERROR   "
	case level >= WarnLevel:
		return "WARN    "
	case level >= InfoLevel:
		return "INFO    "
	case level >= DebugLevel:
		return "DEBUG   "
	default:
		return "TRACE   "
	}
}
