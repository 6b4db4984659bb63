// Package logger_test contains tests for the logger package
package logger_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/phrazzld/scry-engine/internal/config"
	"github.com/phrazzld/scry-engine/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in    string
		level slog.Level
		ok    bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"", slog.LevelInfo, true},
		{"warn", slog.LevelWarn, true},
		{"Error", slog.LevelError, true},
		{"verbose", slog.LevelInfo, false},
	}

	for _, tc := range tests {
		level, ok := logger.ParseLevel(tc.in)
		assert.Equal(t, tc.level, level, tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
	}
}

func TestSetupWithWriter(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	buf := &logger.TestLogBuffer{}
	l, err := logger.SetupWithWriter(config.ServerConfig{LogLevel: "warn"}, buf)
	require.NoError(t, err)
	require.NotNil(t, l)

	l.Info("hidden")
	l.Warn("visible", "key", "value")

	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "visible", entries[0]["msg"])
	assert.Equal(t, "value", entries[0]["key"])
	assert.Equal(t, "scry-engine", entries[0]["service"])
	assert.Same(t, l, slog.Default())
}

func TestFromContextOrDefault(t *testing.T) {
	t.Parallel()
	fallback, fallbackBuf := logger.GetTestLogger(t)
	stored, storedBuf := logger.GetTestLogger(t)

	t.Run("stored logger wins", func(t *testing.T) {
		ctx := logger.WithLogger(context.Background(), stored)
		logger.FromContextOrDefault(ctx, fallback).Info("from stored")
		logger.AssertLogContains(t, storedBuf, "from stored")
	})

	t.Run("fallback carries request id", func(t *testing.T) {
		ctx := logger.WithRequestID(context.Background(), "req-123")
		logger.FromContextOrDefault(ctx, fallback).Info("from fallback")
		logger.AssertLogField(t, fallbackBuf, "request_id", "req-123")
	})

	t.Run("nil fallback uses default", func(t *testing.T) {
		assert.NotNil(t, logger.FromContextOrDefault(context.Background(), nil))
	})
}

func TestRequestIDFromContext(t *testing.T) {
	t.Parallel()
	assert.Empty(t, logger.RequestIDFromContext(context.Background()))
	ctx := logger.WithRequestID(context.Background(), "abc")
	assert.Equal(t, "abc", logger.RequestIDFromContext(ctx))
}
