package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("debug", "json", &buf)
	require.NoError(t, err)

	log.Debug("index built", "entries", 12)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "index built", rec["msg"])
	assert.Equal(t, float64(12), rec["entries"])
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("warn", "text", &buf)
	require.NoError(t, err)

	log.Info("hidden")
	assert.Empty(t, buf.String())
	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_Invalid(t *testing.T) {
	_, err := New("loud", "text", &bytes.Buffer{})
	assert.Error(t, err)
	_, err = New("info", "xml", &bytes.Buffer{})
	assert.Error(t, err)
}

func TestDiscard(t *testing.T) {
	log := Discard()
	require.NotNil(t, log)
	assert.False(t, log.Enabled(context.Background(), slog.LevelError))
	assert.NotPanics(t, func() { log.Error("dropped", "k", 1) })
}
