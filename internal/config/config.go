// Package config loads and validates the YAML configuration for a game
// instance: logging, rule toggles, the player roster and optional server and
// database settings. The resulting Config is immutable for the lifetime of
// the game.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration document.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Game     GameConfig     `mapstructure:"game"`
	Players  []PlayerConfig `mapstructure:"players"`
	Database DatabaseConfig `mapstructure:"database"`
	Web      WebConfig      `mapstructure:"web"`
}

// LoggingConfig selects the zap logger profile.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// GameConfig holds the rule toggles and the preset name.
type GameConfig struct {
	Preset            string        `mapstructure:"preset"`
	RevoteOnTie       bool          `mapstructure:"revote_on_tie"`
	RevealRoleOnDeath bool          `mapstructure:"reveal_role_on_death"`
	WitchSelfSave     bool          `mapstructure:"witch_self_save"`
	ResponseTimeout   time.Duration `mapstructure:"response_timeout"`
	Seed              int64         `mapstructure:"seed"`
	TranscriptDir     string        `mapstructure:"transcript_dir"`
}

// PlayerConfig describes one seat. Model selects the responder: "human",
// "demo", or an LLM model name, which then requires base_url and an API key
// environment variable.
type PlayerConfig struct {
	Name        string  `mapstructure:"name"`
	Model       string  `mapstructure:"model"`
	BaseURL     string  `mapstructure:"base_url"`
	APIKeyEnv   string  `mapstructure:"api_key_env"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int64   `mapstructure:"max_tokens"`
}

// DatabaseConfig enables the optional finished-game archive when URL is set.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConns        int32         `mapstructure:"max_conns"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	StatementPrefix string        `mapstructure:"statement_prefix"`
}

// WebConfig configures the websocket observer server.
type WebConfig struct {
	Addr string `mapstructure:"addr"`
}

// Load reads and validates the configuration file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("game.reveal_role_on_death", true)
	v.SetDefault("game.witch_self_save", true)
	v.SetDefault("game.response_timeout", time.Minute)
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.connect_timeout", 10*time.Second)
	v.SetDefault("web.addr", ":8080")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces the setup rules the engine depends on: at least one
// player, unique names, and complete LLM settings where an LLM model is
// named.
func (c *Config) Validate() error {
	if len(c.Players) == 0 {
		return fmt.Errorf("no players configured")
	}
	seen := make(map[string]bool, len(c.Players))
	for i, p := range c.Players {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return fmt.Errorf("player %d has no name", i+1)
		}
		key := strings.ToLower(name)
		if seen[key] {
			return fmt.Errorf("duplicate player name %q", p.Name)
		}
		seen[key] = true

		model := strings.ToLower(strings.TrimSpace(p.Model))
		if model == "" {
			return fmt.Errorf("player %q has no model", p.Name)
		}
		if model != "human" && model != "demo" && p.BaseURL == "" {
			return fmt.Errorf("player %q: base_url is required for LLM model %q", p.Name, p.Model)
		}
	}
	return nil
}
