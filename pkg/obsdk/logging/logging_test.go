package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadOmitsContent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(slog.New(slog.NewTextHandler(&buf, nil)))

	logger.Info(context.Background(), "raw data sent", Payload("data", []byte("calibration")))

	out := buf.String()
	assert.Contains(t, out, "data.bytes=11")
	assert.Contains(t, out, "data.crc32=")
	assert.NotContains(t, out, "calibration")
}

func TestNilContextIsAccepted(t *testing.T) {
	var buf bytes.Buffer
	logger := New(slog.New(slog.NewTextHandler(&buf, nil)))

	//nolint:staticcheck
	logger.Info(nil, "finalized")

	assert.Contains(t, buf.String(), "msg=finalized")
}

func TestWithCarriesAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := New(slog.New(slog.NewTextHandler(&buf, nil))).With("device", "AY123")

	logger.Warn(context.Background(), "heartbeat lost")

	assert.Contains(t, buf.String(), "device=AY123")
	assert.Contains(t, buf.String(), "level=WARN")
}

func TestNewWithOptionsConsoleLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := NewWithOptions(Options{
		Level:   slog.LevelWarn,
		Output:  OutputConsole,
		Console: &buf,
	})
	require.NoError(t, err)
	defer closer.Close()

	logger.Info(context.Background(), "skipped")
	logger.Error(context.Background(), "kept")

	assert.NotContains(t, buf.String(), "skipped")
	assert.Contains(t, buf.String(), "kept")
}

func TestNewWithOptionsFileAndConsole(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "nested", "obsdk.log")

	logger, closer, err := NewWithOptions(Options{
		Output:   OutputAll,
		FilePath: path,
		Console:  &buf,
		JSON:     true,
	})
	require.NoError(t, err)

	logger.Info(context.Background(), "both", "k", "v")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"both"`)
	assert.Contains(t, buf.String(), `"msg":"both"`)
}

func TestNewWithOptionsNone(t *testing.T) {
	logger, closer, err := NewWithOptions(Options{Output: OutputNone})
	require.NoError(t, err)
	require.NoError(t, closer.Close())
	assert.NotPanics(t, func() { logger.Error(context.Background(), "dropped") })
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{MaxBackups: 50}.withDefaults()
	assert.Equal(t, DefaultFilePath, o.FilePath)
	assert.Equal(t, DefaultMaxSizeMB, o.MaxSizeMB)
	assert.Equal(t, maxBackupsLimit, o.MaxBackups)

	o = Options{}.withDefaults()
	assert.Equal(t, DefaultMaxBackups, o.MaxBackups)
}

func TestUnknownOutput(t *testing.T) {
	_, _, err := NewWithOptions(Options{Output: Output(99)})
	assert.Error(t, err)
}
