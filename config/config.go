// Package config provides configuration loading and management for mvdkit.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete mvdkit configuration
type Config struct {
	Schema  SchemaConfig  `yaml:"schema"`
	Watch   WatchConfig   `yaml:"watch"`
	Store   StoreConfig   `yaml:"store"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

// SchemaConfig configures the schema catalog used to check entity names
type SchemaConfig struct {
	// Catalog is the path of a YAML schema catalog (empty = no entity checks)
	Catalog string `yaml:"catalog"`
}

// WatchConfig configures the document watcher
type WatchConfig struct {
	// Debounce is the quiet period before a changed file is re-checked
	Debounce time.Duration `yaml:"debounce"`
	// Extensions are the file extensions watched (with dot)
	Extensions []string `yaml:"extensions"`
	// ExcludeDirs are directory names never entered
	ExcludeDirs []string `yaml:"exclude_dirs"`
}

// StoreConfig configures the NATS key-value document store
type StoreConfig struct {
	// URL is the NATS server URL
	URL string `yaml:"url"`
	// Bucket is the key-value bucket holding documents
	Bucket string `yaml:"bucket"`
}

// MetricsConfig configures the Prometheus endpoint
type MetricsConfig struct {
	// Addr is the listen address for /metrics (empty = disabled)
	Addr string `yaml:"addr"`
}

// LogConfig configures logging
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `yaml:"level"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Watch: WatchConfig{
			Debounce:    500 * time.Millisecond,
			Extensions:  []string{".mvdxml", ".xml"},
			ExcludeDirs: []string{".git", "node_modules", "vendor"},
		},
		Store: StoreConfig{
			URL:    "nats://localhost:4222",
			Bucket: "MVDXML_DOCUMENTS",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	for _, ext := range c.Watch.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("watch.extensions: %q must start with a dot", ext)
		}
	}
	if c.Store.Bucket == "" {
		return fmt.Errorf("store.bucket is required")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// ParseLevel maps a level name to a slog level
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown level %q", level)
	}
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Schema.Catalog != "" {
		c.Schema.Catalog = other.Schema.Catalog
	}

	// Watch
	if other.Watch.Debounce != 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}
	if len(other.Watch.Extensions) > 0 {
		c.Watch.Extensions = other.Watch.Extensions
	}
	if len(other.Watch.ExcludeDirs) > 0 {
		c.Watch.ExcludeDirs = other.Watch.ExcludeDirs
	}

	// Store
	if other.Store.URL != "" {
		c.Store.URL = other.Store.URL
	}
	if other.Store.Bucket != "" {
		c.Store.Bucket = other.Store.Bucket
	}

	if other.Metrics.Addr != "" {
		c.Metrics.Addr = other.Metrics.Addr
	}
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
}
