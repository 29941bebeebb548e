// ABOUTME: Configuration options for the reference counter library client
// ABOUTME: Provides functional options pattern for flexible client configuration

package refcounter

import (
	"time"

	"refcounter-api/core/interfaces"
	"refcounter-api/core/refcount"
)

// Option is a functional option for configuring the client
type Option func(*Config) error

// WithCache sets a cache for counted revisions
func WithCache(cache interfaces.Cache) Option {
	return func(c *Config) error {
		c.Cache = cache
		return nil
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client interfaces.HTTPClient) Option {
	return func(c *Config) error {
		if client == nil {
			return NewError(ErrorTypeConfiguration, "HTTP client cannot be nil")
		}
		c.HTTPClient = client
		return nil
	}
}

// WithLogger sets a custom logger
func WithLogger(logger interfaces.Logger) Option {
	return func(c *Config) error {
		c.Logger = logger
		return nil
	}
}

// WithErrorTracker sets the tracker told about failed batches
func WithErrorTracker(tracker interfaces.ErrorTracker) Option {
	return func(c *Config) error {
		c.ErrorTracker = tracker
		return nil
	}
}

// WithBaseURL points the client at another counter service
func WithBaseURL(baseURL string) Option {
	return func(c *Config) error {
		if baseURL == "" {
			return NewError(ErrorTypeConfiguration, "base URL cannot be empty")
		}
		c.Settings.BaseURL = baseURL
		return nil
	}
}

// WithConcurrency sets how many requests a batch keeps in flight
func WithConcurrency(n int) Option {
	return func(c *Config) error {
		if n < 1 {
			return NewError(ErrorTypeConfiguration, "concurrency must be at least 1").
				WithContext("concurrency", n)
		}
		c.Settings.Concurrency = n
		return nil
	}
}

// WithCacheTTL sets the TTL for cached counts
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Config) error {
		c.Settings.CacheTTL = ttl
		return nil
	}
}

// WithUserAgent sets the User-Agent of the default HTTP client
func WithUserAgent(userAgent string) Option {
	return func(c *Config) error {
		c.UserAgent = userAgent
		return nil
	}
}

// defaultConfig returns the default client configuration
func defaultConfig() Config {
	return Config{
		Settings: refcount.DefaultSettings(),
	}
}
