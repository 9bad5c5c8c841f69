package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hobbes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.Agent.BaseURL)
	assert.Equal(t, "OPENROUTER_API_KEY", cfg.Agent.APIKeyEnv)
	assert.Equal(t, StyleDelimited, cfg.Agent.Style)
	assert.Equal(t, 180, cfg.Turn.Threshold)
	assert.Equal(t, 5, cfg.Turn.HoldFrames)
	assert.Equal(t, 30, cfg.Turn.SequenceDelayFrames)
	assert.Equal(t, 1, cfg.Emulator.Speed)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
agent:
  model: openai/gpt-4o
  style: tools
emulator:
  rom: roms/pokemon_blue.gb
  speed: 0
turn:
  threshold: 600
spectator:
  addr: ":8080"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "openai/gpt-4o", cfg.Agent.Model)
	assert.Equal(t, StyleTools, cfg.Agent.Style)
	assert.Equal(t, "roms/pokemon_blue.gb", cfg.Emulator.ROM)
	assert.Equal(t, 0, cfg.Emulator.Speed)
	assert.Equal(t, 600, cfg.Turn.Threshold)
	assert.Equal(t, ":8080", cfg.Spectator.Addr)

	// Untouched sections keep their defaults.
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.Agent.BaseURL)
	assert.Equal(t, 5, cfg.Turn.HoldFrames)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"bad style", "agent:\n  style: freestyle\n"},
		{"negative speed", "emulator:\n  speed: -1\n"},
		{"zero threshold", "turn:\n  threshold: 0\n"},
		{"empty model", "agent:\n  model: \"\"\n"},
		{"malformed yaml", "agent: [\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestAPIKeyFromEnv(t *testing.T) {
	t.Setenv("HOBBES_TEST_KEY", "sk-test")

	cfg := defaults()
	cfg.Agent.APIKeyEnv = "HOBBES_TEST_KEY"
	assert.Equal(t, "sk-test", cfg.APIKey())
}
