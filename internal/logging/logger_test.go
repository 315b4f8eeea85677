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
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelInfo, parseLevel("info"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("chatty"))
}

func TestNewWithOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(Config{Level: "info", Format: "json"}, &buf)

	logger.Info("export finished", "task_id", "abc")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "export finished", entry["msg"])
	assert.Equal(t, "abc", entry["task_id"])
}

func TestNewWithOutputLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(Config{Level: "warn", Format: "json"}, &buf)

	logger.Info("hidden")
	assert.Zero(t, buf.Len())

	logger.Warn("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestNewWithOutputConsole(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(Config{Level: "debug", Format: "console"}, &buf)

	logger.Debug("starting poll", "attempt", 1)
	assert.Contains(t, buf.String(), "starting poll")
}
