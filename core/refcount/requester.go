// ABOUTME: Revision requester issues one counter API request per revision
// ABOUTME: Classifies responses and stops the batch on the first transport failure

package refcount

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"refcounter-api/core/domain"
	coreerrors "refcounter-api/core/errors"
)

const cacheKeyPrefix = "refcount"

// referenceCountResponse is the success payload of the counter API
type referenceCountResponse struct {
	NumRef *int `json:"num_ref"`
}

// fetchSequential requests revisions one after another and stops at the
// first transport failure. counts[i] receives the result for pending[i];
// unserviced slots stay empty. It returns how many revisions were serviced.
func (s *Service) fetchSequential(ctx context.Context, batchID string, pending []domain.RevisionID, counts []domain.ReferenceCount) (int, error) {
	for i, id := range pending {
		result, err := s.fetchOne(ctx, batchID, id)
		if err != nil {
			return i, err
		}
		counts[i] = result
	}
	return len(pending), nil
}

// fetchConcurrent requests revisions with bounded parallelism. The first
// transport failure cancels the remaining requests; later failures caused
// by that cancellation are not reported separately.
func (s *Service) fetchConcurrent(ctx context.Context, batchID string, pending []domain.RevisionID, counts []domain.ReferenceCount) (int, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.settings.Concurrency)

	var serviced int64

	for i, id := range pending {
		i, id := i, id
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			result, err := s.fetchOne(gctx, batchID, id)
			if err != nil {
				return err
			}
			counts[i] = result
			atomic.AddInt64(&serviced, 1)
			return nil
		})
	}

	err := g.Wait()
	done := int(atomic.LoadInt64(&serviced))
	if err == nil && ctx.Err() != nil && done < len(pending) {
		// Caller cancelled before every revision was attempted.
		err = &coreerrors.TransportError{Op: "GET", URL: s.settings.BaseURL, Err: ctx.Err()}
	}
	return done, err
}

// fetchOne returns the count for a single revision. Non-200 responses and
// unusable bodies are reported and yield an empty result with a nil error;
// only transport failures are returned as errors.
func (s *Service) fetchOne(ctx context.Context, batchID string, id domain.RevisionID) (domain.ReferenceCount, error) {
	if cached, ok := s.lookupCache(ctx, id); ok {
		return cached, nil
	}

	target := s.referencesURL(id)
	resp, err := s.deps.HTTPClient.Get(ctx, target)
	if err != nil {
		return domain.EmptyReferenceCount(), &coreerrors.TransportError{Op: "GET", URL: target, Err: err}
	}

	body := resp.Body()
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return domain.EmptyReferenceCount(), &coreerrors.TransportError{Op: "read", URL: target, Err: err}
	}

	if resp.StatusCode() != http.StatusOK {
		s.reporter.ReportItemFailure(batchID, id, resp.StatusCode(), data)
		return domain.EmptyReferenceCount(), nil
	}

	count, err := parseReferenceCount(data)
	if err != nil {
		s.reporter.ReportMalformedResponse(batchID, id, resp.StatusCode(), data, err)
		return domain.EmptyReferenceCount(), nil
	}

	s.storeCache(ctx, id, count)
	return domain.NewReferenceCount(count), nil
}

// referencesURL builds {base}/api/v1/references/{project}/{language}/{rev_id}
func (s *Service) referencesURL(id domain.RevisionID) string {
	var b strings.Builder
	b.WriteString(s.settings.BaseURL)
	b.WriteString("/api/v1/references/")
	b.WriteString(url.PathEscape(s.project.Project))
	b.WriteByte('/')
	b.WriteString(url.PathEscape(s.project.Language))
	b.WriteByte('/')
	b.WriteString(url.PathEscape(id.String()))
	return b.String()
}

func parseReferenceCount(data []byte) (int, error) {
	var payload referenceCountResponse
	if err := json.Unmarshal(data, &payload); err != nil {
		return 0, coreerrors.WrapError(err, "decoding references counter response")
	}
	if payload.NumRef == nil {
		return 0, errors.New("response has no num_ref field")
	}
	if *payload.NumRef < 0 {
		return 0, errors.New("response has negative num_ref")
	}
	return *payload.NumRef, nil
}

func (s *Service) cacheKey(id domain.RevisionID) string {
	return strings.Join([]string{cacheKeyPrefix, s.project.Project, s.project.Language, id.String()}, ":")
}

// lookupCache serves a previously counted revision. Any cache error is a miss.
func (s *Service) lookupCache(ctx context.Context, id domain.RevisionID) (domain.ReferenceCount, bool) {
	if s.deps.Cache == nil {
		return domain.EmptyReferenceCount(), false
	}
	data, err := s.deps.Cache.Get(ctx, s.cacheKey(id))
	if err != nil || len(data) == 0 {
		return domain.EmptyReferenceCount(), false
	}
	count, err := strconv.Atoi(string(data))
	if err != nil || count < 0 {
		return domain.EmptyReferenceCount(), false
	}
	return domain.NewReferenceCount(count), true
}

func (s *Service) storeCache(ctx context.Context, id domain.RevisionID, count int) {
	if s.deps.Cache == nil {
		return
	}
	if err := s.deps.Cache.Set(ctx, s.cacheKey(id), []byte(strconv.Itoa(count)), s.settings.CacheTTL); err != nil {
		s.deps.Logger.Debug("Failed to cache reference count", map[string]interface{}{
			"rev_id": id.String(),
			"error":  err.Error(),
		})
	}
}
