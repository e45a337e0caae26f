package logging

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewWithSinkJSON(t *testing.T) {
	buf := &strings.Builder{}
	logger, err := NewWithSink("info", "json", zapcore.AddSync(buf))
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("visible", zap.String("run_id", "abc"))
	require.NoError(t, logger.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "visible", entry["msg"])
	assert.Equal(t, "abc", entry["run_id"])
	assert.Equal(t, "info", entry["level"])
}

func TestNewWithSinkConsole(t *testing.T) {
	buf := &strings.Builder{}
	logger, err := NewWithSink("debug", "console", zapcore.AddSync(buf))
	require.NoError(t, err)

	logger.Debug("details")

	assert.Contains(t, buf.String(), "DEBUG")
	assert.Contains(t, buf.String(), "details")
}

func TestNewWithSinkRejectsBadSettings(t *testing.T) {
	_, err := NewWithSink("loud", "json", zapcore.AddSync(&strings.Builder{}))
	assert.Error(t, err)

	_, err = NewWithSink("info", "xml", zapcore.AddSync(&strings.Builder{}))
	assert.Error(t, err)
}
