package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warning": slog.LevelWarn,
		"Error":   slog.LevelError,
	}
	for input, want := range cases {
		got, err := ParseLevel(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNew_JSONFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.log")

	logger, closeFn, err := New(Config{Level: "warn", Format: "json", Output: path})
	require.NoError(t, err)

	logger.Info("[Bridge] 무시되는 메시지")
	logger.Warn("[Bridge] 기록되는 메시지", "definition", "counter")
	require.NoError(t, closeFn())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 1)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &record))
	assert.Equal(t, "[Bridge] 기록되는 메시지", record["msg"])
	assert.Equal(t, "counter", record["definition"])
}

func TestNew_RejectsUnknownFormat(t *testing.T) {
	_, _, err := New(Config{Format: "xml"})
	assert.Error(t, err)
}
