// Package config handles configuration management for the kanban server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Roots   RootsConfig   `mapstructure:"roots" yaml:"roots"`
	Watcher WatcherConfig `mapstructure:"watcher" yaml:"watcher"`
	Cache   CacheConfig   `mapstructure:"cache" yaml:"cache"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// ServerConfig holds the HTTP/streaming server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// RootsConfig holds the three watched directory roots.
type RootsConfig struct {
	Tasks    string `mapstructure:"tasks" yaml:"tasks"`
	Projects string `mapstructure:"projects" yaml:"projects"`
	Teams    string `mapstructure:"teams" yaml:"teams"`
}

// WatcherConfig holds file watcher configuration.
type WatcherConfig struct {
	Enabled    bool `mapstructure:"enabled" yaml:"enabled"`
	DebounceMS int  `mapstructure:"debounce_ms" yaml:"debounce_ms"`
}

// CacheConfig holds the cache freshness windows.
type CacheConfig struct {
	MetadataTTLSecs int `mapstructure:"metadata_ttl_secs" yaml:"metadata_ttl_secs"`
	TeamTTLSecs     int `mapstructure:"team_ttl_secs" yaml:"team_ttl_secs"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Load loads configuration from files and environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.claude-code-kanban")
	}

	v.SetEnvPrefix("KANBAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	claudeDir := defaultClaudeDir()

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8790)

	v.SetDefault("roots.tasks", filepath.Join(claudeDir, "tasks"))
	v.SetDefault("roots.projects", filepath.Join(claudeDir, "projects"))
	v.SetDefault("roots.teams", filepath.Join(claudeDir, "teams"))

	v.SetDefault("watcher.enabled", true)
	v.SetDefault("watcher.debounce_ms", 100)

	v.SetDefault("cache.metadata_ttl_secs", 10)
	v.SetDefault("cache.team_ttl_secs", 5)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	if cfg.Watcher.DebounceMS < 0 {
		return fmt.Errorf("watcher.debounce_ms must not be negative, got %d", cfg.Watcher.DebounceMS)
	}
	if cfg.Roots.Tasks == "" {
		return fmt.Errorf("roots.tasks must not be empty")
	}
	switch cfg.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", cfg.Logging.Format)
	}
	return nil
}

// defaultClaudeDir returns the external writer's data directory.
func defaultClaudeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".claude")
}
