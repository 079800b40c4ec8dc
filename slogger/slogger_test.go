package slogger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected LogLevel
	}{
		{"debug level", "debug", LevelDebug},
		{"info level", "info", LevelInfo},
		{"warn level", "warn", LevelWarn},
		{"warning alias", "warning", LevelWarn},
		{"error level", "error", LevelError},
		{"uppercase", "DEBUG", LevelDebug},
		{"padded", " error ", LevelError},
		{"invalid level", "invalid", DefaultLogLevel},
		{"empty string", "", DefaultLogLevel},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, LevelFromString(tc.input))
		})
	}
}

func TestDevNullLogger(t *testing.T) {
	logger := NewDevNullLogger()
	logger.Debug("debug message", "key", "value")
	logger.Error("error message", "key", "value")

	withLogger := logger.With("context", "value")
	require.IsType(t, &DevNullLogger{}, withLogger)
}

func TestSloggerText(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOptions(Options{Writer: &buf, Level: LevelInfo})

	logger.Debug("hidden")
	logger.Info("document written", "uri", "/a.json")
	logger.With("txid", "t1").Warn("transaction expired")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "document written")
	require.Contains(t, out, "uri=/a.json")
	require.Contains(t, out, "txid=t1")
	// not a terminal, so no escape sequences
	require.NotContains(t, out, "\x1b[")
}

func TestSloggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOptions(Options{Writer: &buf, Level: LevelDebug, JSON: true, Caller: true})
	logger.Debug("read", "uri", "/b.xml", "bytes", 12)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "read", entry["msg"])
	require.Equal(t, "/b.xml", entry["uri"])
	require.Equal(t, float64(12), entry["bytes"])
	caller, ok := entry["caller"].(string)
	require.True(t, ok)
	require.True(t, strings.HasPrefix(caller, "slogger/slogger_test.go:"), caller)
}

//nolint:staticcheck // SA1012: Intentionally passing nil context for testing
func TestContextFunctions(t *testing.T) {
	logger := NewDevNullLogger()

	ctx := WithLogger(nil, logger)
	require.NotNil(t, ctx)
	require.Equal(t, Logger(logger), Ctx(ctx))

	require.Equal(t, DefaultLogger, Ctx(nil))
	require.Equal(t, DefaultLogger, Ctx(context.Background()))

	slog := New(LevelWarn)
	require.Equal(t, Logger(slog), Ctx(WithLogger(context.Background(), slog)))
}

func TestDefaultLogger(t *testing.T) {
	require.IsType(t, &DevNullLogger{}, DefaultLogger)
}
