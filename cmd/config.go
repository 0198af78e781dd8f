package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// PlaybackConfig collects every knob of a playback session. Values are
// resolved lowest-precedence first: built-in defaults, then an optional
// YAML defaults file, then REPLAY_* environment variables, then
// explicit CLI flags.
type PlaybackConfig struct {
	ReplayFile     string `yaml:"replay_file" env:"REPLAY_FILE"`
	LogLevel       string `yaml:"log_level" env:"REPLAY_LOG_LEVEL"`
	TickRate       int64  `yaml:"tick_rate" env:"REPLAY_TICK_RATE"`
	StartPaused    bool   `yaml:"start_paused" env:"REPLAY_START_PAUSED"`
	MaxCheckpoints int    `yaml:"max_checkpoints" env:"REPLAY_MAX_CHECKPOINTS"`
	TraceOut       string `yaml:"trace_out" env:"REPLAY_TRACE_OUT"`
}

// DefaultPlaybackConfig returns the built-in defaults.
func DefaultPlaybackConfig() PlaybackConfig {
	return PlaybackConfig{
		LogLevel:       "info",
		TickRate:       20,
		MaxCheckpoints: 16,
	}
}

// LoadPlaybackConfig resolves the config from defaults, the YAML file
// at path (skipped when path is empty) and environment variables.
// YAML parsing is strict: unknown keys are errors, so typos in a
// defaults file fail loudly instead of being ignored.
func LoadPlaybackConfig(path string) (PlaybackConfig, error) {
	cfg := DefaultPlaybackConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read defaults file: %w", err)
		}
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("parse defaults file %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
