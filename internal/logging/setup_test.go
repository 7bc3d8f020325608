package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupHandlerText(t *testing.T) {
	tests := []struct {
		name            string
		logLevel        string
		expectTimestamp bool
	}{
		{"trace level", "trace", true},
		{"debug level", "debug", true},
		{"info level", "info", false},
		{"warn level", "warn", false},
		{"warning level", "warning", false},
		{"error level", "error", false},
		{"mixed case level", "DeBuG", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			handler := SetupHandlerText(tt.logLevel, buf)
			require.NotNil(t, handler)

			slog.New(handler).Error("test message", "key", "value")

			output := buf.String()
			assert.Contains(t, output, "test message")
			assert.Contains(t, output, "key")
			assert.Contains(t, output, "value")
			if tt.expectTimestamp {
				assert.Contains(t, output, ":", "expected a timestamp for level %s", tt.logLevel)
			}
		})
	}
}

func TestSetupHandlerText_LevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(SetupHandlerText("error", buf))

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	output := buf.String()
	assert.NotContains(t, output, "debug message")
	assert.NotContains(t, output, "info message")
	assert.NotContains(t, output, "warn message")
	assert.Contains(t, output, "error message")
}

func TestSetupHandlerJSON(t *testing.T) {
	tests := []struct {
		name         string
		logLevel     string
		expectDebug  bool
		expectSource bool
	}{
		{"trace level", "trace", true, true},
		{"debug level", "debug", true, false},
		{"info level", "info", false, false},
		{"unknown level defaults to info", "unknown", false, false},
		{"empty level defaults to info", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := slog.New(SetupHandlerJSON(tt.logLevel, buf))

			logger.Debug("debug message")
			logger.Info("test message", "key", "value")

			output := buf.String()
			assert.Contains(t, output, `"msg":"test message"`)
			assert.Contains(t, output, `"key":"value"`)
			assert.Equal(t, tt.expectDebug, strings.Contains(output, "debug message"))
			if tt.expectSource {
				assert.Contains(t, output, `"source"`)
			}
		})
	}
}

func TestNewHandler(t *testing.T) {
	t.Parallel()

	t.Run("text to file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "logs", "coffeemaker.log")
		handler, err := NewHandler("text", "info", path)
		require.NoError(t, err)
		assert.IsType(t, &log.Logger{}, handler)

		slog.New(handler).Info("brewing")
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "brewing")
	})

	t.Run("json to file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "coffeemaker.json")
		handler, err := NewHandler("JSON", "debug", path)
		require.NoError(t, err)
		assert.IsType(t, &slog.JSONHandler{}, handler)
	})

	t.Run("unknown format", func(t *testing.T) {
		t.Parallel()
		_, err := NewHandler("xml", "info", "stderr")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown log format")
	})

	t.Run("unsupported output", func(t *testing.T) {
		t.Parallel()
		_, err := NewHandler("text", "info", "mqtt://broker")
		require.Error(t, err)
	})
}

func TestSetupLogger(t *testing.T) {
	originalDefault := slog.Default()
	defer slog.SetDefault(originalDefault)

	SetupLogger("debug")
	assert.NotSame(t, originalDefault, slog.Default())
	slog.Default().Info("test message from default logger")
}
