// ABOUTME: Reference count service fetches citation counts for batches of revisions
// ABOUTME: Absorbs every per-revision and transport failure into empty results plus log events

package refcount

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"refcounter-api/core/domain"
	coreerrors "refcounter-api/core/errors"
	"refcounter-api/core/interfaces"
)

const (
	// DefaultBaseURL is the public references counter service
	DefaultBaseURL = "https://reference-counter.toolforge.org"

	// DefaultCacheTTL bounds how long a cached count is reused
	DefaultCacheTTL = 7 * 24 * time.Hour

	apiName = "reference-counter"
)

// Settings tunes a Service
type Settings struct {
	// BaseURL is the counter service root, without trailing slash
	BaseURL string

	// Concurrency is the number of requests in flight; 1 means sequential
	Concurrency int

	// CacheTTL is used when Dependencies.Cache is set
	CacheTTL time.Duration
}

// DefaultSettings returns sequential settings against the public service
func DefaultSettings() Settings {
	return Settings{
		BaseURL:     DefaultBaseURL,
		Concurrency: 1,
		CacheTTL:    DefaultCacheTTL,
	}
}

// Service fetches reference counts for revisions of one project
type Service struct {
	project  domain.Project
	deps     interfaces.Dependencies
	settings Settings
	reporter *Reporter
}

// NewService creates a service for project. It fails with an
// InvalidProjectError when the project is not served by the counter API.
func NewService(project domain.Project, deps interfaces.Dependencies, settings Settings) (*Service, error) {
	if err := domain.ValidateProject(project); err != nil {
		return nil, err
	}

	if deps.HTTPClient == nil {
		return nil, &coreerrors.ValidationError{Field: "HTTPClient", Message: "must be configured"}
	}
	if deps.Logger == nil {
		deps.Logger = nopLogger{}
	}

	settings.BaseURL = strings.TrimRight(settings.BaseURL, "/")
	if settings.BaseURL == "" {
		settings.BaseURL = DefaultBaseURL
	}
	if settings.Concurrency < 1 {
		settings.Concurrency = 1
	}
	if settings.CacheTTL <= 0 {
		settings.CacheTTL = DefaultCacheTTL
	}

	return &Service{
		project:  project,
		deps:     deps,
		settings: settings,
		reporter: NewReporter(project, deps.Logger, deps.ErrorTracker),
	}, nil
}

// Project returns the project the service was built for
func (s *Service) Project() domain.Project {
	return s.project
}

// Fetch returns the reference count of every revision in ids. It never
// fails: revisions that could not be counted map to an empty result and
// the failure is reported through the logger.
func (s *Service) Fetch(ctx context.Context, ids []domain.RevisionID) *domain.ResultMapping {
	keys := domain.NewResultMapping(ids).Keys()
	if len(keys) == 0 {
		return domain.Merge(nil)
	}

	pending := make([]domain.RevisionID, len(keys))
	for i, key := range keys {
		pending[i] = domain.RevisionID(key)
	}

	batchID := uuid.NewString()
	s.deps.Logger.Debug("Fetching reference counts", map[string]interface{}{
		"project_code": s.project.Project,
		"batch_id":     batchID,
		"count":        len(pending),
	})

	counts := make([]domain.ReferenceCount, len(pending))
	var (
		serviced int
		err      error
	)
	if s.settings.Concurrency > 1 && len(pending) > 1 {
		serviced, err = s.fetchConcurrent(ctx, batchID, pending, counts)
	} else {
		serviced, err = s.fetchSequential(ctx, batchID, pending, counts)
	}

	if err != nil {
		s.reporter.ReportBatchFailure(batchID, err, pending, len(pending)-serviced)
	}

	entries := make([]domain.Entry, len(pending))
	for i, id := range pending {
		entries[i] = domain.Entry{ID: id, Result: counts[i]}
	}
	return domain.Merge(entries)
}

// FetchInts is Fetch for numeric revision ids
func (s *Service) FetchInts(ctx context.Context, ids []int64) *domain.ResultMapping {
	return s.Fetch(ctx, domain.RevisionIDsFromInts(ids))
}
