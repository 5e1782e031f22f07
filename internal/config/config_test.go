package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 4096, cfg.BufferSize)
	assert.False(t, cfg.Zstd)
	assert.Equal(t, "info", cfg.LogLevel)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "podump.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("full file", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfig(t, "buffer_size: 65536\nzstd: true\nlog_level: debug\n"))
		require.NoError(t, err)
		assert.Equal(t, &Config{BufferSize: 65536, Zstd: true, LogLevel: "debug"}, cfg)

		level, err := cfg.Level()
		require.NoError(t, err)
		assert.Equal(t, slog.LevelDebug, level)
	})

	t.Run("missing keys keep defaults", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfig(t, "zstd: true\n"))
		require.NoError(t, err)
		assert.Equal(t, 4096, cfg.BufferSize)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.True(t, cfg.Zstd)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "buffer_size: [\n"))
		assert.Error(t, err)
	})

	t.Run("bad buffer size", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "buffer_size: 0\n"))
		assert.ErrorContains(t, err, "buffer_size")
	})

	t.Run("bad log level", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "log_level: loud\n"))
		assert.ErrorContains(t, err, "log_level")
	})
}
