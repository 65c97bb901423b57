package log

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_WritesFile(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer

	require.NoError(t, Init(Config{Level: "debug", Format: "json", Dir: dir, Output: &console}))
	t.Cleanup(func() { _ = Close() })

	Logger().Warn().Str("kind", "EveType").Int64("id", 34).Msg("sync failed")

	assert.Contains(t, console.String(), `"kind":"EveType"`)
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "sync failed")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.Disabled, ParseLevel("off"))
}

func TestWith(t *testing.T) {
	var console bytes.Buffer
	require.NoError(t, Init(Config{Level: "info", Format: "json", Output: &console}))

	l := With("EveRegion", 10000002)
	l.Info().Msg("loaded")

	assert.Contains(t, console.String(), `"id":10000002`)
	assert.Contains(t, console.String(), `"kind":"EveRegion"`)
}

func TestWatermillAdapter(t *testing.T) {
	var console bytes.Buffer
	require.NoError(t, Init(Config{Level: "debug", Format: "json", Output: &console}))

	a := NewWatermillAdapter().With(watermill.LogFields{"topic": "tasks.0"})
	a.Error("handler failed", errors.New("boom"), watermill.LogFields{"uuid": "x"})

	out := console.String()
	assert.Contains(t, out, `"topic":"tasks.0"`)
	assert.Contains(t, out, `"error":"boom"`)
	assert.Contains(t, out, "handler failed")
}
