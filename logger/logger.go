package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const (
	LOG_LEVEL_DEBUG = "DEBUG"
	LOG_LEVEL_INFO  = "INFO"
	LOG_LEVEL_WARN  = "WARN"
	LOG_LEVEL_ERROR = "ERROR"
	LOG_LEVEL_FATAL = "FATAL"
	LOG_LEVEL_PANIC = "PANIC"

	LogLevelEnv = "NER_LOGLEVEL"
)

var levels = map[string]zerolog.Level{
	LOG_LEVEL_DEBUG: zerolog.DebugLevel,
	LOG_LEVEL_INFO:  zerolog.InfoLevel,
	LOG_LEVEL_WARN:  zerolog.WarnLevel,
	LOG_LEVEL_ERROR: zerolog.ErrorLevel,
	LOG_LEVEL_FATAL: zerolog.FatalLevel,
	LOG_LEVEL_PANIC: zerolog.PanicLevel,
}

// SetupLogging sets the field names shared with the other services of the platform.
// Call it once before creating loggers.
func SetupLogging() {
	zerolog.LevelFieldName = "level_name"
	zerolog.TimestampFieldName = "timestamp"
}

// ParseLevel is case insensitive, unknown levels fall back to INFO.
func ParseLevel(level string) zerolog.Level {
	if l, ok := levels[strings.ToUpper(strings.TrimSpace(level))]; ok {
		return l
	}
	return zerolog.InfoLevel
}

// NewLogger returns a JSON logger on stderr tagged with the component name, its level
// comes from NER_LOGLEVEL.
func NewLogger(component string) zerolog.Logger {
	return zerolog.New(os.Stderr).
		Level(ParseLevel(os.Getenv(LogLevelEnv))).
		With().
		Str("component", component).
		Timestamp().
		Logger()
}
