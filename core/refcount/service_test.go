package refcount

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refcounter-api/core/domain"
	coreerrors "refcounter-api/core/errors"
	"refcounter-api/core/interfaces"
)

const permissionDeniedBody = `{"description":"You don't have permission to view deleted text or changes between deleted revisions."}`

var (
	enWikipedia  = domain.NewProject("wikipedia", "en")
	esWiktionary = domain.NewProject("wiktionary", "es")
	wikidata     = domain.NewProject("wikidata", "")
	revIDs       = []int64{5006940, 5006942, 5006946}
)

// routeByRevision answers each request from a rev id -> response table
func routeByRevision(table map[string]*mockResponse) func(ctx context.Context, url string) (interfaces.Response, error) {
	return func(ctx context.Context, url string) (interfaces.Response, error) {
		rev := url[strings.LastIndex(url, "/")+1:]
		if resp, ok := table[rev]; ok {
			return resp, nil
		}
		return &mockResponse{statusCode: 404, body: `{"description":"not found"}`}, nil
	}
}

func newTestService(t *testing.T, project domain.Project, httpClient interfaces.HTTPClient, logger interfaces.Logger) *Service {
	t.Helper()
	svc, err := NewService(project, interfaces.Dependencies{
		HTTPClient: httpClient,
		Logger:     logger,
	}, DefaultSettings())
	require.NoError(t, err)
	return svc
}

func countOf(t *testing.T, m *domain.ResultMapping, key string) (int, bool) {
	t.Helper()
	r, ok := m.Get(key)
	require.True(t, ok, "missing key %s", key)
	return r.Count()
}

func TestNewService_RejectsWikidata(t *testing.T) {
	svc, err := NewService(wikidata, interfaces.Dependencies{HTTPClient: &mockHTTPClient{}}, DefaultSettings())

	require.Error(t, err)
	assert.Nil(t, svc)
	assert.True(t, coreerrors.IsInvalidProject(err))
}

func TestNewService_AcceptsValidProjects(t *testing.T) {
	for _, p := range []domain.Project{enWikipedia, esWiktionary, domain.NewProject("commons", "")} {
		svc, err := NewService(p, interfaces.Dependencies{HTTPClient: &mockHTTPClient{}}, DefaultSettings())
		require.NoError(t, err, p.String())
		assert.Equal(t, p, svc.Project())
	}
}

func TestNewService_RequiresHTTPClient(t *testing.T) {
	_, err := NewService(enWikipedia, interfaces.Dependencies{}, DefaultSettings())

	require.Error(t, err)
	assert.True(t, coreerrors.IsValidation(err))
}

func TestNewService_NormalizesSettings(t *testing.T) {
	svc, err := NewService(enWikipedia, interfaces.Dependencies{HTTPClient: &mockHTTPClient{}}, Settings{
		BaseURL: "http://localhost:9000/",
	})
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000", svc.settings.BaseURL)
	assert.Equal(t, 1, svc.settings.Concurrency)
	assert.Equal(t, DefaultCacheTTL, svc.settings.CacheTTL)
}

func TestService_Fetch_Success(t *testing.T) {
	client := &mockHTTPClient{getFunc: routeByRevision(map[string]*mockResponse{
		"5006940": {statusCode: 200, body: `{"num_ref": 10, "lang": "es", "project": "wiktionary", "revid": 5006940}`},
		"5006942": {statusCode: 200, body: `{"num_ref": 4}`},
		"5006946": {statusCode: 200, body: `{"num_ref": 2}`},
	})}
	logger := &recordingLogger{}
	svc := newTestService(t, esWiktionary, client, logger)

	results := svc.FetchInts(context.Background(), revIDs)

	assert.Equal(t, []string{"5006940", "5006942", "5006946"}, results.Keys())
	n, ok := countOf(t, results, "5006940")
	assert.True(t, ok)
	assert.Equal(t, 10, n)
	n, _ = countOf(t, results, "5006942")
	assert.Equal(t, 4, n)
	n, _ = countOf(t, results, "5006946")
	assert.Equal(t, 2, n)

	assert.Empty(t, logger.byLevel("warn"))
	assert.Empty(t, logger.byLevel("error"))

	data, err := json.Marshal(results)
	require.NoError(t, err)
	assert.Equal(t, `{"5006940":{"num_ref":10},"5006942":{"num_ref":4},"5006946":{"num_ref":2}}`, string(data))
}

func TestService_Fetch_RequestURL(t *testing.T) {
	client := &mockHTTPClient{getFunc: routeByRevision(map[string]*mockResponse{
		"5006940": {statusCode: 200, body: `{"num_ref": 1}`},
	})}
	svc := newTestService(t, esWiktionary, client, nil)

	svc.FetchInts(context.Background(), []int64{5006940})

	require.Equal(t, 1, client.callCount())
	assert.Equal(t, "https://reference-counter.toolforge.org/api/v1/references/wiktionary/es/5006940", client.calls[0])
}

func TestService_Fetch_NonSuccessResponse(t *testing.T) {
	client := &mockHTTPClient{getFunc: routeByRevision(map[string]*mockResponse{
		"708326238": {statusCode: 404, body: permissionDeniedBody},
	})}
	logger := &recordingLogger{}
	svc := newTestService(t, enWikipedia, client, logger)

	results := svc.FetchInts(context.Background(), []int64{708326238})

	r, ok := results.Get("708326238")
	require.True(t, ok)
	assert.True(t, r.IsEmpty())

	warnings := logger.byLevel("warn")
	require.Len(t, warnings, 1)
	assert.Equal(t, "Non-200 response hitting references counter API", warnings[0].msg)
	assert.Equal(t, "wikipedia", warnings[0].fields["project_code"])
	assert.Equal(t, "en", warnings[0].fields["language_code"])
	assert.Equal(t, "708326238", warnings[0].fields["rev_id"])
	assert.Equal(t, 404, warnings[0].fields["status_code"])
	assert.Equal(t, map[string]interface{}{
		"description": "You don't have permission to view deleted text or changes between deleted revisions.",
	}, warnings[0].fields["content"])
	assert.Empty(t, logger.byLevel("error"))
}

func TestService_Fetch_NonSuccessDoesNotStopBatch(t *testing.T) {
	client := &mockHTTPClient{getFunc: routeByRevision(map[string]*mockResponse{
		"1": {statusCode: 200, body: `{"num_ref": 3}`},
		"2": {statusCode: 500, body: `<html>Internal Server Error</html>`},
		"3": {statusCode: 200, body: `{"num_ref": 0}`},
	})}
	logger := &recordingLogger{}
	svc := newTestService(t, enWikipedia, client, logger)

	results := svc.FetchInts(context.Background(), []int64{1, 2, 3})

	assert.Equal(t, 3, client.callCount())
	n, ok := countOf(t, results, "1")
	assert.True(t, ok)
	assert.Equal(t, 3, n)
	_, ok = countOf(t, results, "2")
	assert.False(t, ok)
	n, ok = countOf(t, results, "3")
	assert.True(t, ok)
	assert.Equal(t, 0, n)

	warnings := logger.byLevel("warn")
	require.Len(t, warnings, 1)
	assert.Equal(t, "2", warnings[0].fields["rev_id"])
	assert.Equal(t, map[string]interface{}{"raw": "<html>Internal Server Error</html>"}, warnings[0].fields["content"])
}

func TestService_Fetch_MalformedSuccessBody(t *testing.T) {
	client := &mockHTTPClient{getFunc: routeByRevision(map[string]*mockResponse{
		"1": {statusCode: 200, body: `not json`},
		"2": {statusCode: 200, body: `{"lang": "en"}`},
		"3": {statusCode: 200, body: `{"num_ref": -1}`},
	})}
	logger := &recordingLogger{}
	svc := newTestService(t, enWikipedia, client, logger)

	results := svc.FetchInts(context.Background(), []int64{1, 2, 3})

	for _, key := range results.Keys() {
		_, ok := countOf(t, results, key)
		assert.False(t, ok, key)
	}
	warnings := logger.byLevel("warn")
	require.Len(t, warnings, 3)
	for _, w := range warnings {
		assert.Equal(t, "Unexpected response body from references counter API", w.msg)
		assert.Equal(t, 200, w.fields["status_code"])
	}
	assert.Empty(t, logger.byLevel("error"))
}

func TestService_Fetch_TransportFailure(t *testing.T) {
	client := &mockHTTPClient{getFunc: func(ctx context.Context, url string) (interfaces.Response, error) {
		return nil, context.DeadlineExceeded
	}}
	logger := &recordingLogger{}
	tracker := &countingTracker{}
	svc, err := NewService(esWiktionary, interfaces.Dependencies{
		HTTPClient:   client,
		Logger:       logger,
		ErrorTracker: tracker,
	}, DefaultSettings())
	require.NoError(t, err)

	results := svc.FetchInts(context.Background(), revIDs)

	assert.Equal(t, 3, results.Len())
	for _, key := range []string{"5006940", "5006942", "5006946"} {
		_, ok := countOf(t, results, key)
		assert.False(t, ok, key)
	}

	errs := logger.byLevel("error")
	require.Len(t, errs, 1)
	assert.Equal(t, "Transport failure hitting references counter API", errs[0].msg)
	assert.Equal(t, "wiktionary", errs[0].fields["project_code"])
	assert.Equal(t, "es", errs[0].fields["language_code"])
	assert.Equal(t, []string{"5006940", "5006942", "5006946"}, errs[0].fields["rev_ids"])
	assert.Equal(t, 3, errs[0].fields["error_count"])
	assert.Equal(t, "timeout", errs[0].fields["error_kind"])
	assert.Empty(t, logger.byLevel("warn"))

	assert.Equal(t, 1, client.callCount(), "batch stops at the first transport failure")
	assert.Equal(t, 1, tracker.calls)
	assert.Equal(t, 3, tracker.total)
}

func TestService_Fetch_TransportFailureMidBatch(t *testing.T) {
	var calls int32
	client := &mockHTTPClient{getFunc: func(ctx context.Context, url string) (interfaces.Response, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return &mockResponse{statusCode: 200, body: `{"num_ref": 7}`}, nil
		}
		return nil, errors.New("connection reset by peer")
	}}
	logger := &recordingLogger{}
	svc := newTestService(t, esWiktionary, client, logger)

	results := svc.FetchInts(context.Background(), revIDs)

	n, ok := countOf(t, results, "5006940")
	assert.True(t, ok)
	assert.Equal(t, 7, n)
	_, ok = countOf(t, results, "5006942")
	assert.False(t, ok)
	_, ok = countOf(t, results, "5006946")
	assert.False(t, ok)

	errs := logger.byLevel("error")
	require.Len(t, errs, 1)
	assert.Equal(t, 2, errs[0].fields["error_count"])
	assert.Len(t, errs[0].fields["rev_ids"], 3)
}

func TestService_Fetch_BodyReadFailureIsTransport(t *testing.T) {
	client := &mockHTTPClient{getFunc: func(ctx context.Context, url string) (interfaces.Response, error) {
		return &failingBodyResponse{mockResponse{statusCode: 200}}, nil
	}}
	logger := &recordingLogger{}
	svc := newTestService(t, enWikipedia, client, logger)

	results := svc.FetchInts(context.Background(), []int64{1, 2})

	assert.Equal(t, 2, results.Len())
	errs := logger.byLevel("error")
	require.Len(t, errs, 1)
	assert.Equal(t, 2, errs[0].fields["error_count"])
}

func TestService_Fetch_EmptyAndDuplicateInput(t *testing.T) {
	client := &mockHTTPClient{getFunc: routeByRevision(map[string]*mockResponse{
		"1": {statusCode: 200, body: `{"num_ref": 5}`},
	})}
	svc := newTestService(t, enWikipedia, client, nil)

	empty := svc.Fetch(context.Background(), nil)
	assert.Equal(t, 0, empty.Len())
	assert.Equal(t, 0, client.callCount())

	results := svc.Fetch(context.Background(), []domain.RevisionID{"1", "1"})
	assert.Equal(t, []string{"1"}, results.Keys())
	assert.Equal(t, 1, client.callCount())
}

func TestService_Fetch_KeySetMatchesInput(t *testing.T) {
	client := &mockHTTPClient{getFunc: routeByRevision(map[string]*mockResponse{
		"10":  {statusCode: 200, body: `{"num_ref": 1}`},
		"abc": {statusCode: 200, body: `{"num_ref": 2}`},
	})}
	svc := newTestService(t, enWikipedia, client, &recordingLogger{})

	ids := []domain.RevisionID{"30", "10", "abc", "20"}
	results := svc.Fetch(context.Background(), ids)

	assert.Equal(t, []string{"30", "10", "abc", "20"}, results.Keys())
}

func TestService_Fetch_CancelledContext(t *testing.T) {
	client := &mockHTTPClient{getFunc: func(ctx context.Context, url string) (interfaces.Response, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return &mockResponse{statusCode: 200, body: `{"num_ref": 1}`}, nil
	}}
	logger := &recordingLogger{}
	svc := newTestService(t, enWikipedia, client, logger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := svc.FetchInts(ctx, []int64{1, 2})

	assert.Equal(t, 2, results.Len())
	require.Len(t, logger.byLevel("error"), 1)
}

func TestService_Fetch_UsesCache(t *testing.T) {
	store := map[string][]byte{"refcount:wikipedia:en:1": []byte("12")}
	var setKeys []string
	cache := &mockCache{
		getFunc: func(ctx context.Context, key string) ([]byte, error) {
			if v, ok := store[key]; ok {
				return v, nil
			}
			return nil, errors.New("key not found")
		},
		setFunc: func(ctx context.Context, key string, value []byte, ttl time.Duration) error {
			setKeys = append(setKeys, key)
			assert.Equal(t, DefaultCacheTTL, ttl)
			store[key] = value
			return nil
		},
	}
	client := &mockHTTPClient{getFunc: routeByRevision(map[string]*mockResponse{
		"2": {statusCode: 200, body: `{"num_ref": 8}`},
		"3": {statusCode: 404, body: ``},
	})}
	svc, err := NewService(enWikipedia, interfaces.Dependencies{
		HTTPClient: client,
		Cache:      cache,
	}, DefaultSettings())
	require.NoError(t, err)

	results := svc.FetchInts(context.Background(), []int64{1, 2, 3})

	n, _ := countOf(t, results, "1")
	assert.Equal(t, 12, n)
	n, _ = countOf(t, results, "2")
	assert.Equal(t, 8, n)
	_, ok := countOf(t, results, "3")
	assert.False(t, ok)

	assert.Equal(t, 2, client.callCount())
	assert.Equal(t, []string{"refcount:wikipedia:en:2"}, setKeys)
}

func TestService_Fetch_CacheErrorsAreIgnored(t *testing.T) {
	cache := &mockCache{
		setFunc: func(ctx context.Context, key string, value []byte, ttl time.Duration) error {
			return errors.New("cache unavailable")
		},
	}
	client := &mockHTTPClient{getFunc: routeByRevision(map[string]*mockResponse{
		"1": {statusCode: 200, body: `{"num_ref": 4}`},
	})}
	logger := &recordingLogger{}
	svc, err := NewService(enWikipedia, interfaces.Dependencies{
		HTTPClient: client,
		Cache:      cache,
		Logger:     logger,
	}, DefaultSettings())
	require.NoError(t, err)

	results := svc.FetchInts(context.Background(), []int64{1})

	n, ok := countOf(t, results, "1")
	assert.True(t, ok)
	assert.Equal(t, 4, n)
	assert.Empty(t, logger.byLevel("warn"))
	assert.Empty(t, logger.byLevel("error"))
}

func TestService_Fetch_Concurrent(t *testing.T) {
	table := map[string]*mockResponse{}
	ids := make([]int64, 0, 20)
	for i := int64(1); i <= 20; i++ {
		ids = append(ids, i)
		if i%5 == 0 {
			continue
		}
		table[domain.RevisionIDFromInt(i).String()] = &mockResponse{statusCode: 200, body: `{"num_ref": 1}`}
	}
	client := &mockHTTPClient{getFunc: routeByRevision(table)}
	logger := &recordingLogger{}
	settings := DefaultSettings()
	settings.Concurrency = 4
	svc, err := NewService(enWikipedia, interfaces.Dependencies{HTTPClient: client, Logger: logger}, settings)
	require.NoError(t, err)

	results := svc.FetchInts(context.Background(), ids)

	assert.Equal(t, domain.NewResultMapping(domain.RevisionIDsFromInts(ids)).Keys(), results.Keys())
	assert.Equal(t, 20, client.callCount())
	assert.Len(t, logger.byLevel("warn"), 4)
	assert.Empty(t, logger.byLevel("error"))
}

func TestService_Fetch_ConcurrentTransportFailure(t *testing.T) {
	client := &mockHTTPClient{getFunc: func(ctx context.Context, url string) (interfaces.Response, error) {
		return nil, context.DeadlineExceeded
	}}
	logger := &recordingLogger{}
	settings := DefaultSettings()
	settings.Concurrency = 3
	svc, err := NewService(esWiktionary, interfaces.Dependencies{HTTPClient: client, Logger: logger}, settings)
	require.NoError(t, err)

	results := svc.FetchInts(context.Background(), revIDs)

	assert.Equal(t, 3, results.Len())
	for _, key := range results.Keys() {
		_, ok := countOf(t, results, key)
		assert.False(t, ok)
	}
	errs := logger.byLevel("error")
	require.Len(t, errs, 1)
	assert.Equal(t, 3, errs[0].fields["error_count"])
}

func TestService_Fetch_TransportFailureWithDuplicateIDs(t *testing.T) {
	client := &mockHTTPClient{getFunc: func(ctx context.Context, url string) (interfaces.Response, error) {
		return nil, errors.New("connection refused")
	}}
	logger := &recordingLogger{}
	svc := newTestService(t, enWikipedia, client, logger)

	results := svc.Fetch(context.Background(), []domain.RevisionID{"1", "2", "1"})

	assert.Equal(t, []string{"1", "2"}, results.Keys())
	errs := logger.byLevel("error")
	require.Len(t, errs, 1)
	assert.Equal(t, []string{"1", "2"}, errs[0].fields["rev_ids"])
	assert.Equal(t, 2, errs[0].fields["error_count"])
}

func TestService_Fetch_ResultsFollowRequestOrderWhenConcurrent(t *testing.T) {
	client := &mockHTTPClient{getFunc: routeByRevision(map[string]*mockResponse{
		"3": {statusCode: 200, body: `{"num_ref": 3}`},
		"1": {statusCode: 200, body: `{"num_ref": 1}`},
		"2": {statusCode: 200, body: `{"num_ref": 2}`},
	})}
	svc, err := NewService(enWikipedia, interfaces.Dependencies{HTTPClient: client}, Settings{Concurrency: 3})
	require.NoError(t, err)

	results := svc.Fetch(context.Background(), []domain.RevisionID{"3", "1", "2", "3"})

	assert.Equal(t, []string{"3", "1", "2"}, results.Keys())
	out, err := results.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"3":{"num_ref":3},"1":{"num_ref":1},"2":{"num_ref":2}}`, string(out))
}
