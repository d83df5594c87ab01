package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("json format writes structured records", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(&buf, "info", "json")
		logger.Info("refresh finished", "success", 2)

		var record map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		assert.Equal(t, "refresh finished", record["msg"])
		assert.Equal(t, float64(2), record["success"])
	})

	t.Run("level filters lower records", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(&buf, "warn", "json")
		logger.Info("hidden")
		assert.Empty(t, buf.String())

		logger.Warn("shown")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("text format uses console handler", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(&buf, "debug", "text")
		logger.Debug("probe", "proxy", "127.0.0.1:8080")
		assert.Contains(t, buf.String(), "probe")
		assert.Contains(t, buf.String(), "127.0.0.1:8080")
	})
}

func TestOr(t *testing.T) {
	assert.NotNil(t, Or(nil))

	l := Discard()
	assert.Same(t, l, Or(l))
}
