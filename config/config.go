// Package config loads runtime settings: built-in defaults, then an
// optional YAML file, then PARLEY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PARLEY_"

// Config is the full runtime configuration.
type Config struct {
	ContentDir string  `yaml:"content_dir" env:"CONTENT_DIR"`
	Log        Log     `yaml:"log" envPrefix:"LOG_"`
	Store      Store   `yaml:"store" envPrefix:"STORE_"`
	Prompts    Prompts `yaml:"prompts" envPrefix:"PROMPTS_"`
}

// Log configures the logger. File receives log output while the full
// screen UI owns the terminal; empty discards it there.
type Log struct {
	Level string `yaml:"level" env:"LEVEL"`
	File  string `yaml:"file" env:"FILE"`
}

// Store selects and configures the save-slot backend.
type Store struct {
	Driver        string `yaml:"driver" env:"DRIVER"` // file, sqlite or redis
	Path          string `yaml:"path" env:"PATH"`
	RedisAddr     string `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword string `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" env:"REDIS_DB"`
	Prefix        string `yaml:"prefix" env:"PREFIX"`
}

// Prompts are the interaction prompt messages.
type Prompts struct {
	CanTalk          string `yaml:"can_talk" env:"CAN_TALK"`
	ConditionsNotMet string `yaml:"conditions_not_met" env:"CONDITIONS_NOT_MET"`
	NoDialogue       string `yaml:"no_dialogue" env:"NO_DIALOGUE"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ContentDir: ".",
		Log:        Log{Level: "warn"},
		Store: Store{
			Driver:    "file",
			Path:      "saves",
			RedisAddr: "localhost:6379",
			Prefix:    "parley:save:",
		},
		Prompts: Prompts{
			CanTalk:          "Ready to talk.",
			ConditionsNotMet: "Come back later...",
			NoDialogue:       "...",
		},
	}
}

// Load builds the configuration. An empty path skips the file; a named
// file that does not exist is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadOptional is Load for a conventional path that may be absent.
func LoadOptional(path string) (Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return Load("")
	}
	return Load(path)
}

// Validate checks enumerated settings.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case "file", "sqlite", "redis":
	default:
		return fmt.Errorf("unknown store driver %q (want file, sqlite or redis)", c.Store.Driver)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}
