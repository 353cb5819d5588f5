// Package config handles configuration loading using viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"firestige.xyz/dissect/internal/core"
)

// Config is the top-level configuration, found under the `dissect:` root key.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Diameter DiameterConfig `mapstructure:"diameter"`
	VJ       VJConfig       `mapstructure:"vj"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level   string        `mapstructure:"level"`   // trace | debug | info | warn | error
	Format  string        `mapstructure:"format"`  // text | json
	Pattern string        `mapstructure:"pattern"` // text format only
	File    FileLogConfig `mapstructure:"file"`
}

// FileLogConfig configures the rotating log file output.
type FileLogConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// DiameterConfig configures the Diameter dissector.
type DiameterConfig struct {
	Dictionary string        `mapstructure:"dictionary"` // empty = embedded base dictionary
	Ports      []uint16      `mapstructure:"ports"`
	Track      bool          `mapstructure:"track"`     // pair requests with answers
	TrackTTL   time.Duration `mapstructure:"track_ttl"` // how long a request waits for its answer
}

// VJConfig configures the VJ header decompressor.
type VJConfig struct {
	MaxSlot    int `mapstructure:"max_slot"`
	FrameCache int `mapstructure:"frame_cache"`
}

// MetricsConfig toggles counter updates.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type configRoot struct {
	Dissect Config `mapstructure:"dissect"`
}

// Load loads configuration from path. An empty path yields the defaults.
// Env vars override file values with the DISSECT_ prefix (e.g. DISSECT_LOG_LEVEL).
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// The `dissect.` key prefix maps to DISSECT_ via the replacer.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.Dissect

	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		// defaults always validate
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("dissect.log.level", "info")
	v.SetDefault("dissect.log.format", "text")
	v.SetDefault("dissect.log.file.enabled", false)
	v.SetDefault("dissect.log.file.max_size_mb", 100)
	v.SetDefault("dissect.log.file.max_backups", 5)
	v.SetDefault("dissect.log.file.max_age_days", 30)
	v.SetDefault("dissect.log.file.compress", true)

	v.SetDefault("dissect.diameter.dictionary", "")
	v.SetDefault("dissect.diameter.ports", []uint16{3868})
	v.SetDefault("dissect.diameter.track", true)
	v.SetDefault("dissect.diameter.track_ttl", "60s")

	v.SetDefault("dissect.vj.max_slot", 255)
	v.SetDefault("dissect.vj.frame_cache", 4096)

	v.SetDefault("dissect.metrics.enabled", true)
}

// ValidateAndApplyDefaults checks the configuration and fills zero values.
func (c *Config) ValidateAndApplyDefaults() error {
	switch strings.ToLower(c.Log.Level) {
	case "":
		c.Log.Level = "info"
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: log.level %q", core.ErrConfigInvalid, c.Log.Level)
	}

	switch strings.ToLower(c.Log.Format) {
	case "":
		c.Log.Format = "text"
	case "text", "json":
	default:
		return fmt.Errorf("%w: log.format %q (must be text or json)", core.ErrConfigInvalid, c.Log.Format)
	}

	if c.Log.File.Enabled && c.Log.File.Path == "" {
		return fmt.Errorf("%w: log.file.path is required when file output is enabled", core.ErrConfigInvalid)
	}

	if c.VJ.MaxSlot < 0 || c.VJ.MaxSlot > 255 {
		return fmt.Errorf("%w: vj.max_slot %d out of range [0,255]", core.ErrConfigInvalid, c.VJ.MaxSlot)
	}
	if c.VJ.FrameCache <= 0 {
		return fmt.Errorf("%w: vj.frame_cache must be positive", core.ErrConfigInvalid)
	}

	if c.Diameter.TrackTTL < 0 {
		return fmt.Errorf("%w: diameter.track_ttl must not be negative", core.ErrConfigInvalid)
	}
	if c.Diameter.TrackTTL == 0 {
		c.Diameter.TrackTTL = time.Minute
	}
	if len(c.Diameter.Ports) == 0 {
		c.Diameter.Ports = []uint16{3868}
	}
	return nil
}
