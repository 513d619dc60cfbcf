package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Level: "info", Format: "json", Output: &buf})
	require.NoError(t, err)

	log.WithComponent("pipeline").WithRunID("run-1").Warn("Could not locate field region",
		zap.String("site", "site_a"),
		zap.String("field", "complaint"),
	)
	require.NoError(t, log.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "Could not locate field region", entry["msg"])
	assert.Equal(t, "pipeline", entry["component"])
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, "site_a", entry["site"])
	assert.Contains(t, entry, "timestamp")
}

func TestNew_ConsoleLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Level: "info", Format: "console", Output: &buf})
	require.NoError(t, err)

	log.Debug("hidden")
	log.Warn("shown", zap.String("site", "site_b"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.HasPrefix(out, "WARN"), "got %q", out)
	assert.Contains(t, out, `"site": "site_b"`)
}

func TestNew_DefaultsAndErrors(t *testing.T) {
	log, err := New(Config{Output: &bytes.Buffer{}})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zap.InfoLevel))
	assert.False(t, log.Core().Enabled(zap.DebugLevel))

	_, err = New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	log := Nop()
	log.Warn("discarded")
	assert.False(t, log.Core().Enabled(zap.ErrorLevel))
}

func TestWithSite(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Format: "json", Output: &buf})
	require.NoError(t, err)

	log.WithSite("uni_x").Info("Generated consent form")
	require.NoError(t, log.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "uni_x", entry["site"])
}
