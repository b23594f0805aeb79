package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Format: "json", ServiceName: "quotecatalog", ServiceVersion: "test"}, &buf)
	require.NoError(t, err)

	logger.Info().Str("name", "AAPL").Msg("Ticker added")
	logger.Debug().Msg("hidden")

	out := buf.String()
	assert.Contains(t, out, `"service":"quotecatalog"`)
	assert.Contains(t, out, `"name":"AAPL"`)
	assert.NotContains(t, out, "hidden")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestNew_FileOutput(t *testing.T) {
	dir := t.TempDir()
	logger, err := New(Config{
		Level:        "debug",
		Format:       "json",
		FileEnabled:  true,
		FilePath:     dir,
		RotationSize: 1,
	}, &bytes.Buffer{})
	require.NoError(t, err)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	logger.Info().Msg("plain")
	logger.Error().Msg("broken")

	app, err := os.ReadFile(filepath.Join(dir, "app.log"))
	require.NoError(t, err)
	assert.Contains(t, string(app), "plain")
	assert.Contains(t, string(app), "broken")

	errs, err := os.ReadFile(filepath.Join(dir, "error.log"))
	require.NoError(t, err)
	assert.NotContains(t, string(errs), "plain")
	assert.Contains(t, string(errs), "broken")
}
