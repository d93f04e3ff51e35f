// Package config loads pescan configuration from defaults, an optional
// per-user config file, and PESCAN_* environment variables.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// configFileName is the per-user config file, at $(UserConfigDir)/pescan/config.json
const configFileName = "config.json"

// Config represents the complete pescan configuration
type Config struct {
	Source  SourceConfig  `json:"source" mapstructure:"source"`
	Cache   CacheConfig   `json:"cache" mapstructure:"cache"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// SourceConfig contains reference-source fetch configuration
type SourceConfig struct {
	// Endpoint is the base URL of the reference source index
	Endpoint string `json:"endpoint" mapstructure:"endpoint"`
	// DetailPath is the path under Endpoint serving per-API detail pages
	DetailPath string `json:"detailPath" mapstructure:"detailPath"`
	// Concurrency bounds parallel detail-page requests during a refresh
	Concurrency int `json:"concurrency" mapstructure:"concurrency"`
	// TimeoutSeconds is the per-request HTTP timeout
	TimeoutSeconds int `json:"timeoutSeconds" mapstructure:"timeoutSeconds"`
}

// CacheConfig contains persisted-store configuration
type CacheConfig struct {
	// Dir overrides the cache directory. Empty means $(UserCacheDir)/pescan.
	Dir string `json:"dir" mapstructure:"dir"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Endpoint:       "https://malapi.io",
			DetailPath:     "/winapi/",
			Concurrency:    4,
			TimeoutSeconds: 30,
		},
		Cache: CacheConfig{
			Dir: "",
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// Load reads configuration with precedence: env > config file > defaults.
// A missing config file is not an error; a malformed one is.
func Load() (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("source.endpoint", defaults.Source.Endpoint)
	v.SetDefault("source.detailPath", defaults.Source.DetailPath)
	v.SetDefault("source.concurrency", defaults.Source.Concurrency)
	v.SetDefault("source.timeoutSeconds", defaults.Source.TimeoutSeconds)
	v.SetDefault("cache.dir", defaults.Cache.Dir)
	v.SetDefault("logging.format", defaults.Logging.Format)
	v.SetDefault("logging.level", defaults.Logging.Level)

	v.SetEnvPrefix("PESCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := configFilePath(); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// configFilePath returns the per-user config file path, or "" if no
// user config directory is available
func configFilePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "pescan", configFileName)
}
