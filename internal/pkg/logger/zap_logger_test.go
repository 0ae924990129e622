package logger

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestIsolatedLoggerWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hub.log")
	l := NewIsolatedLogger(path)

	l.Info("HUB", "client registered", map[string]interface{}{"session_id": "s-1"})
	l.Debug("HUB", "dropped below file level", nil)
	_ = l.Sync()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]interface{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		lines = append(lines, entry)
	}

	require.Len(t, lines, 1)
	assert.Equal(t, "INFO", lines[0]["level"])
	assert.Equal(t, "client registered", lines[0]["message"])
	assert.Equal(t, "HUB", lines[0]["module"])
}

func TestNopLoggerAcceptsNilDetails(t *testing.T) {
	l := NewNopLogger()
	assert.NotPanics(t, func() {
		l.Error("TEST", "boom", nil)
		l.Warn("TEST", "careful", nil)
	})
}

func TestNewWithoutOutputsDiscards(t *testing.T) {
	l := New(Options{})
	assert.NotPanics(t, func() {
		l.Info("TEST", "nowhere", map[string]interface{}{"error": assert.AnError})
	})
}

func TestFileLevelFiltersEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l := New(Options{FilePath: path, FileLevel: zapcore.WarnLevel})

	l.Info("RISK", "filtered", nil)
	l.Warn("RISK", "kept", map[string]interface{}{"error": assert.AnError})
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, assert.AnError.Error(), entry["error"])
}
