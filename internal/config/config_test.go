package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/dissect/internal/core"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `
dissect:
  log:
    level: debug
    format: json
  diameter:
    dictionary: /etc/dissect/dict.yaml
    ports: [3868, 3869]
    track: false
    track_ttl: 5m
  vj:
    max_slot: 15
    frame_cache: 128
  metrics:
    enabled: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "/etc/dissect/dict.yaml", cfg.Diameter.Dictionary)
	assert.Equal(t, []uint16{3868, 3869}, cfg.Diameter.Ports)
	assert.False(t, cfg.Diameter.Track)
	assert.Equal(t, 5*time.Minute, cfg.Diameter.TrackTTL)
	assert.Equal(t, 15, cfg.VJ.MaxSlot)
	assert.Equal(t, 128, cfg.VJ.FrameCache)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 255, cfg.VJ.MaxSlot)
	assert.Equal(t, 4096, cfg.VJ.FrameCache)
	assert.Equal(t, []uint16{3868}, cfg.Diameter.Ports)
	assert.True(t, cfg.Diameter.Track)
	assert.Equal(t, time.Minute, cfg.Diameter.TrackTTL)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "dissect:\n  log:\n    level: info\n")
	t.Setenv("DISSECT_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	assert.Error(t, err)
}

func TestValidateAndApplyDefaults(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, true},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, true},
		{"file without path", func(c *Config) { c.Log.File.Enabled = true }, true},
		{"slot too large", func(c *Config) { c.VJ.MaxSlot = 256 }, true},
		{"negative slot", func(c *Config) { c.VJ.MaxSlot = -1 }, true},
		{"zero cache", func(c *Config) { c.VJ.FrameCache = 0 }, true},
		{"negative ttl", func(c *Config) { c.Diameter.TrackTTL = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.ValidateAndApplyDefaults()
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrConfigInvalid)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateFillsEmptyFields(t *testing.T) {
	cfg := &Config{VJ: VJConfig{MaxSlot: 0, FrameCache: 1}}
	require.NoError(t, cfg.ValidateAndApplyDefaults())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, []uint16{3868}, cfg.Diameter.Ports)
	assert.Equal(t, time.Minute, cfg.Diameter.TrackTTL)
}
