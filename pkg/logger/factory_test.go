package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailrelay/pkg/environment"
	"github.com/dmitrymomot/mailrelay/pkg/logger"
)

type ctxKey struct{}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("creates JSON logger", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf))
		log.Info("hello")

		entry := decode(t, buf)
		assert.Equal(t, "INFO", entry["level"])
		assert.Equal(t, "hello", entry["msg"])
	})

	t.Run("text formatter option", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithTextFormatter())
		log.Info("hello")

		assert.Contains(t, buf.String(), "level=INFO")
		assert.Contains(t, buf.String(), "msg=hello")
	})

	t.Run("level filters records", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithLevel(slog.LevelWarn))
		log.Info("ignored")

		assert.Empty(t, buf.String())
	})

	t.Run("invalid format panics", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			logger.New(logger.WithFormat("xml"))
		})
	})

	t.Run("context value extractor", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		log := logger.New(
			logger.WithOutput(buf),
			logger.WithContextValue("request_id", ctxKey{}),
		)
		ctx := context.WithValue(context.Background(), ctxKey{}, "req-1")
		log.InfoContext(ctx, "hello")

		assert.Equal(t, "req-1", decode(t, buf)["request_id"])
	})
}

func TestWithEnvironment(t *testing.T) {
	t.Parallel()

	t.Run("production uses json at info", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		log := logger.New(
			logger.WithOutput(buf),
			logger.WithEnvironment(environment.Production, "mailrelay"),
		)
		log.Debug("hidden")
		log.Info("shown")

		entry := decode(t, buf)
		assert.Equal(t, "shown", entry["msg"])
		assert.Equal(t, "mailrelay", entry["service"])
		assert.Equal(t, "production", entry["env"])
	})

	t.Run("test uses text at debug", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		log := logger.New(
			logger.WithOutput(buf),
			logger.WithEnvironment(environment.Test, "mailrelay"),
		)
		log.Debug("visible")

		assert.Contains(t, buf.String(), "msg=visible")
		assert.Contains(t, buf.String(), "env=test")
	})
}

func TestAttrs(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.New(logger.WithOutput(buf))
	log.Info("attempt failed",
		logger.LogID("log-1"),
		logger.MessageID(""),
		logger.Template("event_reminder"),
		logger.Attempt(2, 3),
		logger.Error(errors.New("boom")),
		logger.Error(nil),
	)

	entry := decode(t, buf)
	assert.Equal(t, "log-1", entry["log_id"])
	assert.Equal(t, "event_reminder", entry["template"])
	assert.Equal(t, "boom", entry["error"])
	assert.NotContains(t, entry, "message_id")

	retry, ok := entry["retry"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 2, retry["attempt"])
	assert.EqualValues(t, 3, retry["max_attempts"])
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	log := logger.Discard()
	assert.False(t, log.Enabled(context.Background(), slog.LevelError))
}
