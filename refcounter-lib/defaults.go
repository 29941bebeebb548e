// ABOUTME: Default implementations for library dependencies
// ABOUTME: Provides factory functions for creating default HTTP, cache and logger implementations

package refcounter

import (
	"io"
	"os"
	"time"

	"refcounter-api/core/interfaces"
	"refcounter-api/infrastructure/cache/memory"
	httpInfra "refcounter-api/infrastructure/http/standard"
	"refcounter-api/infrastructure/logger/structured"
)

// DefaultTimeout bounds a single request made by the default HTTP client
const DefaultTimeout = 30 * time.Second

// DefaultHTTPClient creates a default HTTP client with sensible timeouts
func DefaultHTTPClient(userAgent string) interfaces.HTTPClient {
	return httpInfra.NewStandardHTTPClient(DefaultTimeout, httpInfra.WithUserAgent(userAgent))
}

// DefaultMemoryCache creates a default in-memory cache
func DefaultMemoryCache() interfaces.Cache {
	return memory.NewMemoryCache()
}

// DefaultLogger creates a JSON logger that writes to stderr
func DefaultLogger() interfaces.Logger {
	return structured.NewLogger(os.Stderr, "info", structured.FormatJSON)
}

// QuietLogger creates a logger that discards all output
func QuietLogger() interfaces.Logger {
	return structured.NewLogger(io.Discard, "error", structured.FormatJSON)
}

// WithMemoryCache enables the in-memory cache
func WithMemoryCache() Option {
	return func(c *Config) error {
		c.Cache = DefaultMemoryCache()
		return nil
	}
}

// WithQuietMode configures the client to suppress all log output
func WithQuietMode() Option {
	return func(c *Config) error {
		c.Logger = QuietLogger()
		return nil
	}
}
