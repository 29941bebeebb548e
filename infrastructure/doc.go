// Package infrastructure provides concrete implementations of the interfaces
// defined in the core package.
//
// The infrastructure package is organized by technical concern:
//
// - cache/memory: In-memory cache backed by go-cache
// - cache/redis: Redis cache backed by go-redis
// - http/standard: Single-attempt net/http client
// - logger/structured: logrus JSON or text logger
// - logger/sentry: Sentry sink for warnings and errors
// - logger/multi: Fan-out to several loggers
//
// # Cache Implementations
//
//	cache := memory.NewMemoryCache()
//	err := cache.Set(ctx, "refcount:wiktionary:es:5006940", []byte("10"), 7*24*time.Hour)
//
//	cache, err := redis.NewRedisCache(config.RedisConfig{
//	    Address:   "localhost:6379",
//	    KeyPrefix: "refcounter:",
//	})
//
// # HTTP Client
//
// Requests are never retried; a failed request fails the batch it belongs to.
//
//	client := standard.NewStandardHTTPClient(30*time.Second, standard.WithUserAgent("dashboard/1.0"))
//	resp, err := client.Get(ctx, "https://reference-counter.toolforge.org/api/v1/references/wikipedia/en/1")
//
// # Logger
//
//	logger := multi.NewLogger(
//	    structured.NewLogger(os.Stderr, "info", structured.FormatJSON),
//	    sentrySink,
//	)
//	logger.Warn("Non-200 response hitting references counter API", map[string]interface{}{
//	    "rev_id":      "5006940",
//	    "status_code": 404,
//	})
package infrastructure
