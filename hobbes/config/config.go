// Package config loads the YAML configuration file and applies
// defaults for anything left unset.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Agent     AgentConfig     `yaml:"agent"`
	Emulator  EmulatorConfig  `yaml:"emulator"`
	Turn      TurnConfig      `yaml:"turn"`
	Notes     NotesConfig     `yaml:"notes"`
	Spectator SpectatorConfig `yaml:"spectator"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type AgentConfig struct {
	BaseURL string `yaml:"base_url"`
	// APIKeyEnv names the environment variable holding the API key.
	// The key itself never appears in the config file.
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
	Referer   string `yaml:"referer,omitempty"`
	Title     string `yaml:"title,omitempty"`
	// Style selects the response protocol: "delimited" or "tools".
	Style      string `yaml:"style"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

type EmulatorConfig struct {
	ROM string `yaml:"rom"`
	// Speed 0 runs unthrottled, 1 is real time, higher multiplies.
	Speed      int `yaml:"speed"`
	SkipFrames int `yaml:"skip_frames"`
}

type TurnConfig struct {
	// Threshold is how many headless frames pass between automatic
	// agent turns.
	Threshold           int `yaml:"threshold"`
	HoldFrames          int `yaml:"hold_frames"`
	SequenceDelayFrames int `yaml:"sequence_delay_frames"`
	MaxFrames           int `yaml:"max_frames"`
}

type NotesConfig struct {
	Path string `yaml:"path"`
}

type SpectatorConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

const (
	StyleDelimited = "delimited"
	StyleTools     = "tools"
)

func defaults() Config {
	return Config{
		Agent: AgentConfig{
			BaseURL:    "https://openrouter.ai/api/v1",
			APIKeyEnv:  "OPENROUTER_API_KEY",
			Model:      "anthropic/claude-sonnet-4",
			Style:      StyleDelimited,
			TimeoutSec: 120,
		},
		Emulator: EmulatorConfig{
			Speed: 1,
		},
		Turn: TurnConfig{
			Threshold:           180,
			HoldFrames:          5,
			SequenceDelayFrames: 30,
		},
		Notes: NotesConfig{
			Path: "hobbes-notes.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the config at path on top of the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Agent.BaseURL) == "" {
		return fmt.Errorf("agent.base_url must not be empty")
	}
	if strings.TrimSpace(c.Agent.Model) == "" {
		return fmt.Errorf("agent.model must not be empty")
	}
	if c.Agent.Style != StyleDelimited && c.Agent.Style != StyleTools {
		return fmt.Errorf("agent.style must be %q or %q, got %q", StyleDelimited, StyleTools, c.Agent.Style)
	}
	if c.Agent.TimeoutSec <= 0 {
		return fmt.Errorf("agent.timeout_sec must be > 0")
	}
	if c.Emulator.Speed < 0 {
		return fmt.Errorf("emulator.speed must be >= 0")
	}
	if c.Emulator.SkipFrames < 0 {
		return fmt.Errorf("emulator.skip_frames must be >= 0")
	}
	if c.Turn.Threshold <= 0 {
		return fmt.Errorf("turn.threshold must be > 0")
	}
	if c.Turn.HoldFrames <= 0 {
		return fmt.Errorf("turn.hold_frames must be > 0")
	}
	if c.Turn.SequenceDelayFrames < 0 {
		return fmt.Errorf("turn.sequence_delay_frames must be >= 0")
	}
	if c.Turn.MaxFrames < 0 {
		return fmt.Errorf("turn.max_frames must be >= 0")
	}
	return nil
}

// APIKey resolves the agent API key from the environment.
func (c Config) APIKey() string {
	return os.Getenv(c.Agent.APIKeyEnv)
}
