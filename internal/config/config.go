// Package config holds the podump configuration file.
package config

import (
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config represents the podump configuration
type Config struct {
	BufferSize int    `yaml:"buffer_size"`
	Zstd       bool   `yaml:"zstd"`
	LogLevel   string `yaml:"log_level"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		BufferSize: 4096,
		LogLevel:   "info",
	}
}

// LoadConfig loads configuration from path. Keys missing from the file keep
// their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if cfg.BufferSize <= 0 {
		return nil, errors.Errorf("config %s: buffer_size must be positive, got %d", path, cfg.BufferSize)
	}
	if _, err := cfg.Level(); err != nil {
		return nil, errors.WithMessage(err, path)
	}
	return cfg, nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return l, errors.Wrapf(err, "log_level %q", c.LogLevel)
	}
	return l, nil
}
