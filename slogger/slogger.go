package slogger

import (
	"context"
	"strings"
)

// DefaultLogger is used by clients and servers that are not given a logger
var DefaultLogger Logger = NewDevNullLogger()

// Logger is the structured logging interface used throughout docdb. It is
// satisfied by *Slogger and can be adapted to other logging libraries.
type Logger interface {
	// Debug logs a message at debug level with optional key-value pairs
	Debug(msg string, keysAndValues ...any)

	// Info logs a message at info level with optional key-value pairs
	Info(msg string, keysAndValues ...any)

	// Warn logs a message at warn level with optional key-value pairs
	Warn(msg string, keysAndValues ...any)

	// Error logs a message at error level with optional key-value pairs
	Error(msg string, keysAndValues ...any)

	// With returns a Logger that adds the given key-value pairs to every entry
	With(keysAndValues ...any) Logger
}

type contextKey string

const loggerKey contextKey = "docdb.logger"

// WithLogger returns a new context carrying the given logger
func WithLogger(ctx context.Context, logger Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// Ctx returns the logger carried by ctx, or DefaultLogger
func Ctx(ctx context.Context) Logger {
	if ctx == nil {
		return DefaultLogger
	}
	if logger, ok := ctx.Value(loggerKey).(Logger); ok && logger != nil {
		return logger
	}
	return DefaultLogger
}

// LevelFromString converts a level name to a LogLevel. Unknown names map to
// DefaultLogLevel.
func LevelFromString(level string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return DefaultLogLevel
	}
}

// DevNullLogger discards every entry. It is the DefaultLogger.
type DevNullLogger struct{}

func NewDevNullLogger() *DevNullLogger {
	return &DevNullLogger{}
}

func (l *DevNullLogger) Debug(string, ...any) {}
func (l *DevNullLogger) Info(string, ...any)  {}
func (l *DevNullLogger) Warn(string, ...any)  {}
func (l *DevNullLogger) Error(string, ...any) {}
func (l *DevNullLogger) With(...any) Logger   { return l }
