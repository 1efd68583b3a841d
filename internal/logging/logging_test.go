package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, lvl)

	lvl, err = ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestJSONLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(&buf, "warn", true)
	require.NoError(t, err)
	log.Info("hidden")
	log.Warn("filter skipped", zap.String("column", "city"))
	require.NoError(t, log.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "filter skipped", entry["msg"])
	assert.Equal(t, "city", entry["column"])
	assert.Equal(t, "warn", entry["level"])
}

func TestConsoleLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(&buf, "info", false)
	require.NoError(t, err)
	log.Info("snapshot committed", zap.String("project", "sales"))
	assert.Contains(t, buf.String(), "INFO")
	assert.Contains(t, buf.String(), "snapshot committed")
	assert.Contains(t, buf.String(), `"project": "sales"`)
}
