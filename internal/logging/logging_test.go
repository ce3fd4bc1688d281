package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARNING"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestForComponent_TagsOutput(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	ForComponent(CompRouter).Info("dispatch_complete", slog.String("action", "getUrl"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "router", entry["component"])
	assert.Equal(t, "dispatch_complete", entry["msg"])
	assert.Equal(t, "getUrl", entry["action"])
}

func TestSetup_WritesToFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "bridge.log")
	Setup(Options{File: logFile, Level: "debug"})
	defer SetOutput(os.Stderr)

	ForComponent(CompBridge).Info("startup_complete")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "startup_complete")
	assert.Contains(t, string(data), `"component":"bridge"`)
}

func TestSetup_LevelFiltersDebug(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "bridge.log")
	Setup(Options{File: logFile, Level: "info"})
	defer SetOutput(os.Stderr)

	ForComponent(CompBridge).Debug("too_quiet")
	ForComponent(CompBridge).Info("loud_enough")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "too_quiet")
	assert.Contains(t, string(data), "loud_enough")
}
