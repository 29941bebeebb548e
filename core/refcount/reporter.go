// ABOUTME: Failure reporter turns counter API failures into structured log events
// ABOUTME: Emits one warning per failed revision and one error per failed batch

package refcount

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"unicode/utf8"

	"refcounter-api/core/domain"
	coreerrors "refcounter-api/core/errors"
	"refcounter-api/core/interfaces"
)

const (
	nonSuccessMessage    = "Non-200 response hitting references counter API"
	malformedMessage     = "Unexpected response body from references counter API"
	transportMessage     = "Transport failure hitting references counter API"
	maxRawContentLength  = 1024
	rawContentKey        = "raw"
	truncatedContentNote = "...(truncated)"
)

// Reporter sends failure events for one project to the injected logger
type Reporter struct {
	project domain.Project
	logger  interfaces.Logger
	tracker interfaces.ErrorTracker
}

// NewReporter creates a reporter. tracker may be nil.
func NewReporter(project domain.Project, logger interfaces.Logger, tracker interfaces.ErrorTracker) *Reporter {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Reporter{
		project: project,
		logger:  logger,
		tracker: tracker,
	}
}

// ReportItemFailure records a non-200 response for a single revision
func (r *Reporter) ReportItemFailure(batchID string, id domain.RevisionID, statusCode int, body []byte) {
	fields := r.baseFields(batchID)
	fields["rev_id"] = id.String()
	fields["status_code"] = statusCode
	fields["content"] = normalizeContent(body)
	fields["error"] = (&coreerrors.ExternalAPIError{
		StatusCode: statusCode,
		Message:    http.StatusText(statusCode),
		API:        apiName,
	}).Error()

	r.logger.Warn(nonSuccessMessage, fields)
}

// ReportMalformedResponse records a 200 response whose body holds no usable count
func (r *Reporter) ReportMalformedResponse(batchID string, id domain.RevisionID, statusCode int, body []byte, cause error) {
	fields := r.baseFields(batchID)
	fields["rev_id"] = id.String()
	fields["status_code"] = statusCode
	fields["content"] = normalizeContent(body)
	fields["error"] = cause.Error()

	r.logger.Warn(malformedMessage, fields)
}

// ReportBatchFailure records a transport failure that stopped a batch.
// affected is the number of revisions left without a result.
func (r *Reporter) ReportBatchFailure(batchID string, err error, ids []domain.RevisionID, affected int) {
	revIDs := make([]string, len(ids))
	for i, id := range ids {
		revIDs[i] = id.String()
	}

	fields := r.baseFields(batchID)
	fields["rev_ids"] = revIDs
	fields["error_count"] = affected
	fields["error"] = err.Error()
	fields["error_kind"] = string(coreerrors.ClassifyTransport(err))
	fields["error_class"] = fmt.Sprintf("%T", coreerrors.RootCause(err))

	r.logger.Error(transportMessage, fields)

	if r.tracker != nil {
		r.tracker.IncrementErrorCount(affected)
	}
}

func (r *Reporter) baseFields(batchID string) map[string]interface{} {
	var language interface{}
	if r.project.HasLanguage() {
		language = r.project.Language
	}
	return map[string]interface{}{
		"project_code":  r.project.Project,
		"language_code": language,
		"batch_id":      batchID,
	}
}

// normalizeContent decodes a response body for the event payload.
// Non-JSON bodies are kept as text under "raw"; empty bodies become {}.
func normalizeContent(body []byte) interface{} {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return map[string]interface{}{}
	}

	var content interface{}
	if err := json.Unmarshal(trimmed, &content); err == nil {
		return content
	}

	raw := string(trimmed)
	if len(raw) > maxRawContentLength {
		cut := maxRawContentLength
		for cut > 0 && !utf8.RuneStart(raw[cut]) {
			cut--
		}
		raw = raw[:cut] + truncatedContentNote
	}
	return map[string]interface{}{rawContentKey: raw}
}

// nopLogger discards all events
type nopLogger struct{}

func (nopLogger) Debug(msg string, fields map[string]interface{}) {}
func (nopLogger) Info(msg string, fields map[string]interface{})  {}
func (nopLogger) Warn(msg string, fields map[string]interface{})  {}
func (nopLogger) Error(msg string, fields map[string]interface{}) {}
