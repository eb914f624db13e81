// Package config loads the application configuration from YAML via viper
// and hands the components explicit config structs; nothing reads viper
// state after startup.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/lepinkainen/entity-forge/pkg/filesystem"
	"github.com/lepinkainen/entity-forge/pkg/metacache"
	"github.com/lepinkainen/entity-forge/pkg/opengraph"
)

// Config holds the central application configuration
type Config struct {
	// Cache configures the metadata cache layer.
	Cache struct {
		Backend              string        `mapstructure:"backend"` // memory, sqlite or badger
		Path                 string        `mapstructure:"path"`
		TTL                  time.Duration `mapstructure:"ttl"`
		FailureTTL           time.Duration `mapstructure:"failure_ttl"`
		FetchTimeout         time.Duration `mapstructure:"fetch_timeout"`
		MaxAttempts          int           `mapstructure:"max_attempts"`
		BaseDelay            time.Duration `mapstructure:"base_delay"`
		MaxDelay             time.Duration `mapstructure:"max_delay"`
		DegradedThreshold    float64       `mapstructure:"degraded_threshold"`
		DegradedTTLFactor    float64       `mapstructure:"degraded_ttl_factor"`
		StaleWhileRevalidate bool          `mapstructure:"stale_while_revalidate"`
	} `mapstructure:"cache"`

	// Fetch configures the OpenGraph scraper.
	Fetch struct {
		UserAgent     string        `mapstructure:"user_agent"`
		MaxConcurrent int           `mapstructure:"max_concurrent"`
		DomainDelay   time.Duration `mapstructure:"domain_delay"`
	} `mapstructure:"fetch"`

	// Patterns points at an optional YAML file of extra named matchers
	// registered into the pattern library at startup.
	Patterns struct {
		File string `mapstructure:"file"`
	} `mapstructure:"patterns"`
}

// LoadConfig loads the configuration from a file
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = "config.yaml"
	}

	// If path is relative, try current directory first, then executable directory
	if !filepath.IsAbs(path) {
		if _, err := os.Stat(path); err != nil {
			if execPath, err := filesystem.GetDefaultPath(path); err == nil {
				if _, err := os.Stat(execPath); err == nil {
					path = execPath
				}
			}
		}
	}

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	defaults := metacache.DefaultConfig()
	viper.SetDefault("cache.backend", "sqlite")
	viper.SetDefault("cache.path", "metadata.db")
	viper.SetDefault("cache.ttl", defaults.TTL)
	viper.SetDefault("cache.failure_ttl", defaults.FailureTTL)
	viper.SetDefault("cache.fetch_timeout", defaults.FetchTimeout)
	viper.SetDefault("cache.max_attempts", defaults.MaxAttempts)
	viper.SetDefault("cache.base_delay", defaults.BaseDelay)
	viper.SetDefault("cache.max_delay", defaults.MaxDelay)
	viper.SetDefault("cache.degraded_threshold", defaults.DegradedThreshold)
	viper.SetDefault("cache.degraded_ttl_factor", defaults.DegradedTTLFactor)
	viper.SetDefault("cache.stale_while_revalidate", false)

	fetchDefaults := opengraph.DefaultFetcherConfig()
	viper.SetDefault("fetch.user_agent", fetchDefaults.UserAgent)
	viper.SetDefault("fetch.max_concurrent", fetchDefaults.MaxConcurrent)
	viper.SetDefault("fetch.domain_delay", fetchDefaults.DomainDelay)

	viper.SetDefault("patterns.file", "")

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine, the defaults stand.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// CacheConfig converts the loaded settings into the metacache config.
func (c *Config) CacheConfig() metacache.Config {
	cfg := metacache.DefaultConfig()
	cfg.TTL = c.Cache.TTL
	cfg.FailureTTL = c.Cache.FailureTTL
	cfg.FetchTimeout = c.Cache.FetchTimeout
	cfg.MaxAttempts = c.Cache.MaxAttempts
	cfg.BaseDelay = c.Cache.BaseDelay
	cfg.MaxDelay = c.Cache.MaxDelay
	cfg.DegradedThreshold = c.Cache.DegradedThreshold
	cfg.DegradedTTLFactor = c.Cache.DegradedTTLFactor
	cfg.StaleWhileRevalidate = c.Cache.StaleWhileRevalidate
	return cfg
}

// FetcherConfig converts the loaded settings into the scraper config.
func (c *Config) FetcherConfig() opengraph.FetcherConfig {
	cfg := opengraph.DefaultFetcherConfig()
	if c.Fetch.UserAgent != "" {
		cfg.UserAgent = c.Fetch.UserAgent
	}
	if c.Fetch.MaxConcurrent > 0 {
		cfg.MaxConcurrent = c.Fetch.MaxConcurrent
	}
	cfg.DomainDelay = c.Fetch.DomainDelay
	cfg.Timeout = c.Cache.FetchTimeout
	return cfg
}
