package rest

import (
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/deepnoodle-ai/docdb/slogger"
)

// RequestLog describes one request made by a Client
type RequestLog struct {
	Method     string
	Path       string
	Query      url.Values
	StatusCode int
	Duration   time.Duration
	// Body holds up to the logger's ContentMax bytes of the request body
	Body []byte
	Err  error
}

// RequestLogger receives a record of each request while logging is started
type RequestLogger interface {
	LogRequest(entry *RequestLog)
	// ContentMax is the number of request body bytes to capture. Zero
	// captures none.
	ContentMax() int64
}

// StreamLogger writes one line per request to a stream. It is safe for
// concurrent use.
type StreamLogger struct {
	mu         sync.Mutex
	w          io.Writer
	contentMax int64
	enabled    bool
}

func NewStreamLogger(w io.Writer, contentMax int64) *StreamLogger {
	return &StreamLogger{w: w, contentMax: contentMax, enabled: true}
}

func (l *StreamLogger) ContentMax() int64 {
	return l.contentMax
}

// SetEnabled pauses or resumes output without detaching the logger
func (l *StreamLogger) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

func (l *StreamLogger) LogRequest(entry *RequestLog) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.enabled {
		return
	}
	target := entry.Path
	if len(entry.Query) > 0 {
		target += "?" + entry.Query.Encode()
	}
	status := fmt.Sprint(entry.StatusCode)
	if entry.Err != nil && entry.StatusCode == 0 {
		status = "error: " + entry.Err.Error()
	}
	fmt.Fprintf(l.w, "%s %s %s %s\n", entry.Method, target, status, entry.Duration.Round(time.Microsecond))
	if len(entry.Body) > 0 {
		fmt.Fprintf(l.w, "  %s\n", entry.Body)
	}
}

// SloggerRequestLogger forwards request records to a structured logger at
// debug level.
type SloggerRequestLogger struct {
	Logger slogger.Logger
}

func (l *SloggerRequestLogger) ContentMax() int64 {
	return 0
}

func (l *SloggerRequestLogger) LogRequest(entry *RequestLog) {
	args := []any{
		"method", entry.Method,
		"path", entry.Path,
		"status", entry.StatusCode,
		"duration", entry.Duration,
	}
	if len(entry.Query) > 0 {
		args = append(args, "query", entry.Query.Encode())
	}
	if entry.Err != nil {
		args = append(args, "error", entry.Err)
	}
	l.Logger.Debug("docdb request", args...)
}
