package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"go-notelength/humanize"
)

const appName = "notelength"

// Config holds persisted preferences
type Config struct {
	Intensity  float64       `json:"intensity"`
	ApplyToAll bool          `json:"applyToAll"`
	Seed       humanize.Seed `json:"seed"`
	Palette    string        `json:"palette,omitempty"`    // GPL file for the TUI
	OutputPort string        `json:"outputPort,omitempty"` // audition port name
	Debug      bool          `json:"debug,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Intensity:  0.2,
		ApplyToAll: true,
		Seed:       humanize.NewSeed(),
	}
}

// Options returns the humanize options the config describes
func (c *Config) Options() humanize.Options {
	return humanize.Options{
		ApplyToAll: c.ApplyToAll,
		Intensity:  c.Intensity,
	}
}

// Reseed replaces the seed with a fresh one and returns it
func (c *Config) Reseed() humanize.Seed {
	c.Seed = humanize.NewSeed()
	return c.Seed
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	if dir := os.Getenv("NOTELENGTH_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LogPath returns the debug log path
func LogPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "debug.log"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
