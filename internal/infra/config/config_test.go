package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Catalog: CatalogConfig{Name: "isai", Dir: "music"},
		Playback: PlaybackConfig{
			SampleIntervalMs: 250,
			StallThresholdMs: 1000,
			EventBufferSize:  32,
		},
		Audio: AudioConfig{Backend: "sim"},
		Log:   LogConfig{Level: "info", Output: "stdout"},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "catalog file instead of dir",
			mutate: func(c *Config) {
				c.Catalog.Dir = ""
				c.Catalog.File = "catalog.yaml"
			},
			wantErr: false,
		},
		{
			name: "missing catalog source",
			mutate: func(c *Config) {
				c.Catalog.Dir = ""
			},
			wantErr: true,
			errMsg:  "File",
		},
		{
			name: "both catalog sources",
			mutate: func(c *Config) {
				c.Catalog.File = "catalog.yaml"
			},
			wantErr: true,
			errMsg:  "File",
		},
		{
			name: "threshold equal to interval",
			mutate: func(c *Config) {
				c.Playback.StallThresholdMs = 250
			},
			wantErr: true,
			errMsg:  "StallThresholdMs",
		},
		{
			name: "threshold below interval",
			mutate: func(c *Config) {
				c.Playback.StallThresholdMs = 100
			},
			wantErr: true,
			errMsg:  "StallThresholdMs",
		},
		{
			name: "interval too small",
			mutate: func(c *Config) {
				c.Playback.SampleIntervalMs = 1
			},
			wantErr: true,
			errMsg:  "SampleIntervalMs",
		},
		{
			name: "json log format",
			mutate: func(c *Config) {
				c.Log.Format = "json"
			},
			wantErr: false,
		},
		{
			name: "unknown log level",
			mutate: func(c *Config) {
				c.Log.Level = "trace"
			},
			wantErr: true,
			errMsg:  "Level",
		},
		{
			name: "unknown backend",
			mutate: func(c *Config) {
				c.Audio.Backend = "alsa"
			},
			wantErr: true,
			errMsg:  "Backend",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()

			if tt.wantErr {
				require.Error(t, err, "expected validation to fail")
				assert.Contains(t, err.Error(), tt.errMsg,
					"error message should mention the problematic field")
			} else {
				assert.NoError(t, err, "expected validation to pass")
			}
		})
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("catalog:\n  dir: music\n"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "/metrics", cfg.Server.MetricsPath)
	assert.Equal(t, "isai", cfg.Catalog.Name)
	assert.Equal(t, "beep", cfg.Audio.Backend)
	assert.Equal(t, 250*time.Millisecond, cfg.Playback.SampleInterval())
	assert.Equal(t, time.Second, cfg.Playback.StallThreshold())
	assert.Equal(t, 32, cfg.Playback.EventBufferSize)
	assert.False(t, cfg.ControlEnabled())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "stdout", cfg.Log.Output)
}

func TestParse_Settings(t *testing.T) {
	data := []byte(`
server:
  addr: "127.0.0.1:9000"
  hooks:
    on_started: ["echo up"]
catalog:
  file: catalog.yaml
  filters:
    extension_filter:
      enabled: true
      settings:
        allowed: [mp3]
playback:
  sample_interval_ms: 100
  stall_threshold_ms: 800
  auto_play: true
audio:
  backend: sim
  settings:
    track_length: 30s
`)
	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, []string{"echo up"}, cfg.Server.Hooks.OnStarted)
	assert.Equal(t, "catalog.yaml", cfg.Catalog.File)
	require.Contains(t, cfg.Catalog.Filters, "extension_filter")
	assert.True(t, cfg.Catalog.Filters["extension_filter"].Enabled)
	assert.Equal(t, []any{"mp3"}, cfg.Catalog.Filters["extension_filter"].Settings["allowed"])
	assert.Equal(t, 800*time.Millisecond, cfg.Playback.StallThreshold())
	assert.True(t, cfg.Playback.AutoPlay)
	assert.Equal(t, "sim", cfg.Audio.Backend)
	assert.Equal(t, "30s", cfg.Audio.Settings["track_length"])
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("catalog: [unclosed"))
	assert.Error(t, err)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte("catalog:\n  file: catalog.yaml\n"), 0o644))

	t.Setenv("ISAIBOX_CONTROL_TOKEN", "secret")
	t.Setenv("ISAIBOX_CATALOG_DIR", "/srv/music")
	t.Setenv("ISAIBOX_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.Control.Token)
	assert.True(t, cfg.ControlEnabled())
	assert.Equal(t, "/srv/music", cfg.Catalog.Dir)
	assert.Empty(t, cfg.Catalog.File)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
