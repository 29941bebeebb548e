// ABOUTME: Configuration management for the client with YAML file and environment variable support
// ABOUTME: Defines configuration structures for the counter service, cache, logging and Sentry

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// Service contains references counter API settings
	Service ServiceConfig `yaml:"service"`

	// Cache contains cache configuration
	Cache CacheConfig `yaml:"cache"`

	// Log contains logger configuration
	Log LogConfig `yaml:"log"`

	// Sentry contains error reporting configuration
	Sentry SentryConfig `yaml:"sentry"`
}

// ServiceConfig holds references counter API configuration
type ServiceConfig struct {
	// BaseURL is the root of the counter service
	BaseURL string `yaml:"base_url"`

	// UserAgent is sent with every request
	UserAgent string `yaml:"user_agent"`

	// Timeout bounds a single request
	Timeout time.Duration `yaml:"timeout"`

	// Concurrency is the number of requests in flight per batch
	Concurrency int `yaml:"concurrency"`
}

// CacheConfig holds cache backend configuration
type CacheConfig struct {
	// Type specifies the cache backend (none/memory/redis)
	Type string `yaml:"type"`

	// TTL is how long a counted revision is reused
	TTL time.Duration `yaml:"ttl"`

	// Redis contains Redis-specific configuration
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	// Address is the Redis server address
	Address string `yaml:"address"`

	// Password is the Redis authentication password
	Password string `yaml:"password"`

	// DB is the Redis database number
	DB int `yaml:"db"`

	// KeyPrefix namespaces every key
	KeyPrefix string `yaml:"key_prefix"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SentryConfig holds Sentry configuration. An empty DSN disables Sentry.
type SentryConfig struct {
	DSN         string `yaml:"dsn"`
	Environment string `yaml:"environment"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			BaseURL:     "https://reference-counter.toolforge.org",
			UserAgent:   "RefCounterAPI/1.0",
			Timeout:     30 * time.Second,
			Concurrency: 1,
		},
		Cache: CacheConfig{
			Type: "none",
			TTL:  7 * 24 * time.Hour,
			Redis: RedisConfig{
				Address:   "localhost:6379",
				KeyPrefix: "refcounter:",
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Sentry: SentryConfig{
			Environment: "production",
		},
	}
}

// Load reads an optional YAML file named by REFCOUNTER_CONFIG_PATH and then
// applies environment variable overrides
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("REFCOUNTER_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() (*Config, error) {
	cfg := Default()
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.Service.BaseURL = getEnvOrDefault("REFCOUNTER_BASE_URL", cfg.Service.BaseURL)
	cfg.Service.UserAgent = getEnvOrDefault("REFCOUNTER_USER_AGENT", cfg.Service.UserAgent)
	cfg.Cache.Type = getEnvOrDefault("REFCOUNTER_CACHE_TYPE", cfg.Cache.Type)
	cfg.Cache.Redis.Address = getEnvOrDefault("REDIS_ADDRESS", cfg.Cache.Redis.Address)
	cfg.Cache.Redis.Password = getEnvOrDefault("REDIS_PASSWORD", cfg.Cache.Redis.Password)
	cfg.Log.Level = getEnvOrDefault("REFCOUNTER_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnvOrDefault("REFCOUNTER_LOG_FORMAT", cfg.Log.Format)
	cfg.Sentry.DSN = getEnvOrDefault("SENTRY_DSN", cfg.Sentry.DSN)
	cfg.Sentry.Environment = getEnvOrDefault("SENTRY_ENVIRONMENT", cfg.Sentry.Environment)

	var err error
	if cfg.Service.Timeout, err = getEnvAsDurationOrDefault("REFCOUNTER_TIMEOUT", cfg.Service.Timeout); err != nil {
		return err
	}
	if cfg.Cache.TTL, err = getEnvAsDurationOrDefault("REFCOUNTER_CACHE_TTL", cfg.Cache.TTL); err != nil {
		return err
	}
	if cfg.Service.Concurrency, err = getEnvAsIntOrDefault("REFCOUNTER_CONCURRENCY", cfg.Service.Concurrency); err != nil {
		return err
	}
	if cfg.Cache.Redis.DB, err = getEnvAsIntOrDefault("REDIS_DB", cfg.Cache.Redis.DB); err != nil {
		return err
	}
	return nil
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault returns the environment variable as int or a default
func getEnvAsIntOrDefault(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return intValue, nil
}

// getEnvAsDurationOrDefault accepts Go durations ("30s") or plain seconds
func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Service.BaseURL == "" {
		return errors.New("service base URL cannot be empty")
	}

	if !strings.HasPrefix(c.Service.BaseURL, "http://") && !strings.HasPrefix(c.Service.BaseURL, "https://") {
		return errors.New("service base URL must be http or https")
	}

	if c.Service.Timeout <= 0 {
		return errors.New("service timeout must be positive")
	}

	if c.Service.Concurrency < 1 {
		return errors.New("service concurrency must be at least 1")
	}

	switch c.Cache.Type {
	case "none", "memory", "redis":
	default:
		return errors.New("cache type must be 'none', 'memory' or 'redis'")
	}

	if c.Cache.Type == "redis" && c.Cache.Redis.Address == "" {
		return errors.New("redis address cannot be empty when using redis cache")
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		return errors.New("log format must be 'json' or 'text'")
	}

	return nil
}
