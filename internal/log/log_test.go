package log

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelWarn)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(LevelInfo)
	})

	Debug("hidden debug")
	Info("hidden info")
	Warn("seed fallback", "range", "2025-01-13..2025-01-19")
	Error("fetch failed", errors.New("boom"), "status", 502)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] seed fallback range=2025-01-13..2025-01-19")
	assert.Contains(t, out, "[ERROR] fetch failed err=boom status=502")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel(" warning "))
	assert.Equal(t, LevelError, ParseLevel("ERROR"))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}

func TestOddKeyValuesAreIgnored(t *testing.T) {
	assert.Equal(t, " a=1", formatKVs("a", 1, "dangling"))
	assert.Equal(t, " b=x", formatKVs(42, "skipped", "b", "x"))
}

func TestEnableFileWritesRotatingLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trainingcal.log")
	closer := EnableFile(FileOptions{Path: path, MaxSizeMB: 1})
	t.Cleanup(func() {
		SetOutput(os.Stderr)
	})

	Info("written to file", "k", "v")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file k=v")
}
