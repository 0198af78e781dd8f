package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDefaults(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "defaults.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadPlaybackConfig_BuiltInDefaults(t *testing.T) {
	cfg, err := LoadPlaybackConfig("")

	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, int64(20), cfg.TickRate)
	assert.Equal(t, 16, cfg.MaxCheckpoints)
	assert.False(t, cfg.StartPaused)
	assert.Empty(t, cfg.ReplayFile)
}

func TestLoadPlaybackConfig_YAMLOverridesDefaults(t *testing.T) {
	path := writeDefaults(t, `
replay_file: session.rpy
tick_rate: 60
start_paused: true
`)

	cfg, err := LoadPlaybackConfig(path)

	require.NoError(t, err)
	assert.Equal(t, "session.rpy", cfg.ReplayFile)
	assert.Equal(t, int64(60), cfg.TickRate)
	assert.True(t, cfg.StartPaused)
	assert.Equal(t, "info", cfg.LogLevel, "untouched keys keep their defaults")
}

func TestLoadPlaybackConfig_EnvOverridesYAML(t *testing.T) {
	path := writeDefaults(t, "tick_rate: 60\nlog_level: debug\n")
	t.Setenv("REPLAY_TICK_RATE", "120")
	t.Setenv("REPLAY_MAX_CHECKPOINTS", "4")

	cfg, err := LoadPlaybackConfig(path)

	require.NoError(t, err)
	assert.Equal(t, int64(120), cfg.TickRate)
	assert.Equal(t, 4, cfg.MaxCheckpoints)
	assert.Equal(t, "debug", cfg.LogLevel, "env leaves keys it does not set alone")
}

func TestLoadPlaybackConfig_UnknownKeyIsError(t *testing.T) {
	path := writeDefaults(t, "tick_rte: 60\n")

	_, err := LoadPlaybackConfig(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse defaults file")
}

func TestLoadPlaybackConfig_MissingFileIsError(t *testing.T) {
	_, err := LoadPlaybackConfig(filepath.Join(t.TempDir(), "nope.yaml"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "read defaults file")
}
