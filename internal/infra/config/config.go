// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Control  ControlConfig  `yaml:"control"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Playback PlaybackConfig `yaml:"playback"`
	Audio    AudioConfig    `yaml:"audio"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr        string      `yaml:"addr" default:":8080"`
	MetricsPath string      `yaml:"metrics_path" default:"/metrics"`
	Hooks       HooksConfig `yaml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// ControlConfig protects mutating RPCs. An empty token disables the check.
type ControlConfig struct {
	Token string `yaml:"token"`
}

// CatalogConfig selects where the track catalog comes from.
// Exactly one of File and Dir must be set.
type CatalogConfig struct {
	Name string `yaml:"name" default:"isai"`
	File string `yaml:"file" validate:"required_without=Dir,excluded_with=Dir"`
	Dir  string `yaml:"dir" validate:"required_without=File"`

	// Filters drop catalog entries at startup, keyed by filter name.
	Filters map[string]FilterConfig `yaml:"filters"`
}

// FilterConfig represents a filter's configuration.
type FilterConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// PlaybackConfig represents playback control configuration.
type PlaybackConfig struct {
	SampleIntervalMs int  `yaml:"sample_interval_ms" default:"250" validate:"gte=10,lte=5000"`
	StallThresholdMs int  `yaml:"stall_threshold_ms" default:"1000" validate:"gtfield=SampleIntervalMs"`
	EventBufferSize  int  `yaml:"event_buffer_size" default:"32" validate:"gte=1,lte=4096"`
	AutoPlay         bool `yaml:"auto_play"`
}

// AudioConfig selects the audio backend.
type AudioConfig struct {
	Backend  string         `yaml:"backend" default:"beep" validate:"oneof=beep sim"`
	Settings map[string]any `yaml:"settings"`
}

// LogConfig represents logging configuration. Command-line flags override it.
type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn warning error"`
	Output string `yaml:"output" default:"stdout"`
	Format string `yaml:"format" validate:"omitempty,oneof=console json"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	return Parse(data)
}

// Parse parses configuration from YAML bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("ISAIBOX_CONTROL_TOKEN"); v != "" {
		c.Control.Token = v
	}
	if v := os.Getenv("ISAIBOX_CATALOG_DIR"); v != "" {
		c.Catalog.Dir = v
		c.Catalog.File = ""
	}
	if v := os.Getenv("ISAIBOX_AUDIO_BACKEND"); v != "" {
		c.Audio.Backend = v
	}
	if v := os.Getenv("ISAIBOX_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}

// SampleInterval returns the position sampling interval.
func (p PlaybackConfig) SampleInterval() time.Duration {
	return time.Duration(p.SampleIntervalMs) * time.Millisecond
}

// StallThreshold returns how long a frozen position is tolerated.
func (p PlaybackConfig) StallThreshold() time.Duration {
	return time.Duration(p.StallThresholdMs) * time.Millisecond
}

// ControlEnabled reports whether mutating RPCs require a token.
func (c *Config) ControlEnabled() bool {
	return c.Control.Token != ""
}
