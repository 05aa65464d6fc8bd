package log

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLoggerWithoutFileDiscards(t *testing.T) {
	for _, cfg := range []*Config{nil, {File: ""}} {
		logger, err := SetupLogger(cfg)
		require.NoError(t, err)
		require.NotNil(t, logger)
	}
}

func TestSetupLoggerWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "shelfdesk.log")

	logger, err := SetupLogger(&Config{File: path, Level: "DEBUG"})
	require.NoError(t, err)

	logger.Debug("hello", "key", "value")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "value", entry["key"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("WARNING"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
	assert.Equal(t, slog.LevelInfo, parseLevel("nonsense"))
}

func TestNullLoggerDiscards(t *testing.T) {
	logger := NullLogger()
	require.NotNil(t, logger)
	logger.Info("discarded")
}
