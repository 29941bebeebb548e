// ABOUTME: Main client for the reference counter library
// ABOUTME: Offers a small API for counting references per revision without wiring dependencies by hand

package refcounter

import (
	"context"

	"refcounter-api/core/domain"
	"refcounter-api/core/interfaces"
	"refcounter-api/core/refcount"
)

// Client is the main entry point for the library. A Client is bound to
// one wiki project and is safe for concurrent use.
type Client struct {
	service *refcount.Service
	config  Config
}

// Config holds the configuration for the client
type Config struct {
	// Cache stores counted revisions (optional)
	Cache interfaces.Cache

	// HTTPClient performs requests against the counter service
	HTTPClient interfaces.HTTPClient

	// Logger receives per-revision and batch failure events
	Logger interfaces.Logger

	// ErrorTracker is told how many revisions a failed batch left uncounted (optional)
	ErrorTracker interfaces.ErrorTracker

	// Settings tune base URL, concurrency and cache TTL
	Settings refcount.Settings

	// UserAgent is used when the default HTTP client is built
	UserAgent string
}

// NewClient creates a client for the given project and language.
// It returns an error satisfying IsInvalidProjectError for wikidata.
func NewClient(project, language string, options ...Option) (*Client, error) {
	config := defaultConfig()

	for _, opt := range options {
		if err := opt(&config); err != nil {
			return nil, err
		}
	}

	if config.HTTPClient == nil {
		config.HTTPClient = DefaultHTTPClient(config.UserAgent)
	}
	if config.Logger == nil {
		config.Logger = DefaultLogger()
	}

	deps := interfaces.Dependencies{
		HTTPClient:   config.HTTPClient,
		Cache:        config.Cache,
		Logger:       config.Logger,
		ErrorTracker: config.ErrorTracker,
	}

	service, err := refcount.NewService(domain.NewProject(project, language), deps, config.Settings)
	if err != nil {
		return nil, wrapCoreError(err)
	}

	return &Client{
		service: service,
		config:  config,
	}, nil
}

// Project returns the project code the client serves
func (c *Client) Project() string {
	return c.service.Project().Project
}

// Language returns the language code, or "" when the project has none
func (c *Client) Language() string {
	return c.service.Project().Language
}

// Fetch returns the reference count of each revision. Failures are never
// returned: uncounted revisions map to an empty result.
func (c *Client) Fetch(ctx context.Context, revIDs ...string) Results {
	ids := make([]domain.RevisionID, len(revIDs))
	for i, id := range revIDs {
		ids[i] = domain.RevisionIDFromString(id)
	}
	return newResults(c.service.Fetch(ctx, ids))
}

// FetchInts is Fetch for numeric revision ids
func (c *Client) FetchInts(ctx context.Context, revIDs ...int64) Results {
	return newResults(c.service.FetchInts(ctx, revIDs))
}
