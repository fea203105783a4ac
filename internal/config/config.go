// Package config loads lopen's configuration via viper, layering the
// project store's config.json, environment variables (LOPEN_*), and
// built-in defaults.
package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/lopen-dev/lopen/internal/storage/paths"
)

// Config represents the complete lopen configuration.
type Config struct {
	Session SessionConfig `mapstructure:"session"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// SessionConfig controls session retention behavior.
type SessionConfig struct {
	// Retention is how many most-recent sessions pruning keeps.
	Retention int `mapstructure:"retention"`
}

// CacheConfig controls the derived-artifact caches.
type CacheConfig struct {
	// Enabled turns the section and assessment caches on or off.
	Enabled bool `mapstructure:"enabled"`
	// WatchInvalidation enables live invalidation of cache entries via
	// filesystem notifications in addition to the mtime check on read.
	WatchInvalidation bool `mapstructure:"watch_invalidation"`
}

// LoggingConfig controls the structured debug log.
type LoggingConfig struct {
	// Level is one of DEBUG, INFO, WARN, ERROR.
	Level string `mapstructure:"level"`
}

// SetDefaults registers default values with viper. Called before any
// config file is read so defaults apply even without one.
func SetDefaults() {
	viper.SetDefault("session.retention", 10)
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.watch_invalidation", false)
	viper.SetDefault("logging.level", "INFO")
}

// Load reads the effective configuration for a project. The store's
// config.json is optional; defaults and LOPEN_* environment variables
// always apply.
func Load(projectRoot string) (*Config, error) {
	SetDefaults()

	layout := paths.NewLayout(projectRoot)
	viper.SetConfigFile(layout.ConfigFile())
	viper.SetConfigType("json")

	viper.AutomaticEnv()
	viper.SetEnvPrefix("LOPEN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// The config file is optional; ignore a missing one.
	_ = viper.ReadInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return &cfg, nil
}
