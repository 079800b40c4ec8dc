package slogger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

var DefaultLogLevel = LevelInfo

// LogLevel represents the minimum log level
type LogLevel slog.Level

const (
	LevelDebug LogLevel = LogLevel(slog.LevelDebug)
	LevelInfo  LogLevel = LogLevel(slog.LevelInfo)
	LevelWarn  LogLevel = LogLevel(slog.LevelWarn)
	LevelError LogLevel = LogLevel(slog.LevelError)
)

func (l LogLevel) String() string {
	return slog.Level(l).String()
}

// Options configures a Slogger
type Options struct {
	// Writer receives log output. Defaults to os.Stderr.
	Writer io.Writer
	Level  LogLevel
	// JSON selects machine-readable output instead of tinted text
	JSON bool
	// Caller adds the calling file and line to each entry
	Caller bool
}

// Slogger implements Logger on top of log/slog
type Slogger struct {
	logger *slog.Logger
	caller bool
}

// New returns a Slogger writing tinted text to stderr
func New(level LogLevel) *Slogger {
	return NewWithOptions(Options{Level: level})
}

func NewWithOptions(opts Options) *Slogger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.Level(opts.Level)})
	} else {
		handler = tint.NewHandler(w, &tint.Options{
			NoColor:    !isTerminal(w),
			TimeFormat: time.Kitchen,
			Level:      slog.Level(opts.Level),
		})
	}
	return &Slogger{logger: slog.New(handler), caller: opts.Caller}
}

// FromSlog wraps an existing slog.Logger
func FromSlog(logger *slog.Logger) *Slogger {
	return &Slogger{logger: logger}
}

func (l *Slogger) Debug(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, l.attrs(keysAndValues)...)
}

func (l *Slogger) Info(msg string, keysAndValues ...any) {
	l.logger.Info(msg, l.attrs(keysAndValues)...)
}

func (l *Slogger) Warn(msg string, keysAndValues ...any) {
	l.logger.Warn(msg, l.attrs(keysAndValues)...)
}

func (l *Slogger) Error(msg string, keysAndValues ...any) {
	l.logger.Error(msg, l.attrs(keysAndValues)...)
}

func (l *Slogger) With(keysAndValues ...any) Logger {
	return &Slogger{logger: l.logger.With(keysAndValues...), caller: l.caller}
}

// Slog exposes the underlying slog.Logger
func (l *Slogger) Slog() *slog.Logger {
	return l.logger
}

func (l *Slogger) attrs(keysAndValues []any) []any {
	if !l.caller {
		return keysAndValues
	}
	const callerSkip = 2 // skip attrs and the level method
	if _, file, line, ok := runtime.Caller(callerSkip); ok {
		return append([]any{"caller", formatCaller(file, line)}, keysAndValues...)
	}
	return keysAndValues
}

func formatCaller(file string, line int) string {
	// last two path components are enough to locate the call
	parts := strings.Split(file, "/")
	if len(parts) < 2 {
		return fmt.Sprintf("%s:%d", file, line)
	}
	return fmt.Sprintf("%s/%s:%d", parts[len(parts)-2], parts[len(parts)-1], line)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
