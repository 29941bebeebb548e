package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"refcounter-api/core/interfaces"
	"refcounter-api/infrastructure/cache/memory"
	"refcounter-api/infrastructure/cache/redis"
	stdhttp "refcounter-api/infrastructure/http/standard"
	"refcounter-api/infrastructure/logger/multi"
	"refcounter-api/infrastructure/logger/sentry"
	"refcounter-api/infrastructure/logger/structured"
	"refcounter-api/pkg/config"
	"refcounter-api/pkg/featureflags"
	"refcounter-api/pkg/utils/parse"
	refcounter "refcounter-api/refcounter-lib"
)

const (
	exitOK     = 0
	exitConfig = 1
	exitUsage  = 2
)

// exitError carries the process exit code for a failed run
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

// NewRootCmd creates the refcounter command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refcounter <project> <language|-> <rev_id>...",
		Short: "Print reference counts for wiki revisions",
		Long: `refcounter asks the references counter service how many references each
revision contains and prints the results as a JSON object.

Revision ids may be given as separate arguments or comma separated. Use "-"
as the language for projects without one. Revisions that could not be
counted are printed as {}.`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runFetch,
	}

	cmd.Flags().Bool("pretty", false, "Indent the JSON output")

	return cmd
}

// execute runs the command and maps its error to an exit code
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	fmt.Fprintln(stderr, err)

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	fmt.Fprintln(stderr, cmd.UsageString())
	return exitUsage
}

func runFetch(cmd *cobra.Command, args []string) error {
	project, language := args[0], args[1]
	if language == "-" {
		language = ""
	}
	revIDs := parse.RevisionList(args[2:])

	pretty, err := cmd.Flags().GetBool("pretty")
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return &exitError{code: exitConfig, err: fmt.Errorf("failed to load configuration: %w", err)}
	}
	if err := cfg.Validate(); err != nil {
		return &exitError{code: exitConfig, err: fmt.Errorf("invalid configuration: %w", err)}
	}

	flags := featureflags.NewEnvManager("REFCOUNTER_FEATURE_", map[featureflags.FeatureFlag]bool{
		featureflags.CacheEnabled:    cfg.Cache.Type != "none",
		featureflags.ConcurrentFetch: cfg.Service.Concurrency > 1,
		featureflags.SentryReporting: cfg.Sentry.DSN != "",
	})

	logger, flush := buildLogger(cfg, flags, cmd.ErrOrStderr())
	defer flush()

	opts := []refcounter.Option{
		refcounter.WithLogger(logger),
		refcounter.WithBaseURL(cfg.Service.BaseURL),
		refcounter.WithHTTPClient(stdhttp.NewStandardHTTPClient(cfg.Service.Timeout,
			stdhttp.WithUserAgent(cfg.Service.UserAgent))),
	}
	if flags.IsEnabled(featureflags.ConcurrentFetch) {
		opts = append(opts, refcounter.WithConcurrency(cfg.Service.Concurrency))
	}
	if flags.IsEnabled(featureflags.CacheEnabled) {
		cache, closeCache := buildCache(cfg, logger)
		defer closeCache()
		opts = append(opts, refcounter.WithCache(cache), refcounter.WithCacheTTL(cfg.Cache.TTL))
	}

	client, err := refcounter.NewClient(project, language, opts...)
	if err != nil {
		if refcounter.IsInvalidProjectError(err) {
			return &exitError{code: exitUsage, err: err}
		}
		return &exitError{code: exitConfig, err: err}
	}

	results := client.Fetch(cmd.Context(), revIDs...)

	enc := json.NewEncoder(cmd.OutOrStdout())
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(results); err != nil {
		return &exitError{code: exitConfig, err: fmt.Errorf("failed to write results: %w", err)}
	}

	return nil
}

// buildLogger returns the structured logger, fanned out to Sentry when
// reporting is on, and a func that flushes pending Sentry events
func buildLogger(cfg *config.Config, flags featureflags.Manager, stderr io.Writer) (interfaces.Logger, func()) {
	logger := structured.NewLogger(stderr, cfg.Log.Level, structured.Format(cfg.Log.Format))

	if !flags.IsEnabled(featureflags.SentryReporting) {
		return logger, func() {}
	}

	sink, err := sentry.NewLogger(sentry.Config{
		DSN:         cfg.Sentry.DSN,
		Environment: cfg.Sentry.Environment,
	})
	if err != nil {
		logger.Error("Failed to create Sentry client, reporting to log only", map[string]interface{}{
			"error": err.Error(),
		})
		return logger, func() {}
	}

	return multi.NewLogger(logger, sink), func() { sink.Flush(2 * time.Second) }
}

// buildCache returns the configured cache, falling back to memory when
// Redis is unreachable
func buildCache(cfg *config.Config, logger interfaces.Logger) (interfaces.Cache, func()) {
	if cfg.Cache.Type == "redis" {
		redisCache, err := redis.NewRedisCache(cfg.Cache.Redis)
		if err == nil {
			logger.Debug("Using Redis cache", map[string]interface{}{
				"address": cfg.Cache.Redis.Address,
			})
			return redisCache, func() { _ = redisCache.Close() }
		}
		logger.Error("Failed to create Redis cache, falling back to memory", map[string]interface{}{
			"error": err.Error(),
		})
	}

	logger.Debug("Using memory cache", nil)
	return memory.NewMemoryCache(), func() {}
}
