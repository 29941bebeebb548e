// ABOUTME: Custom error types for the core business logic
// ABOUTME: Provides structured errors for project validation, upstream responses and transport failures

package errors

import (
	"context"
	"fmt"
	"net"
	"syscall"

	crdb "github.com/cockroachdb/errors"
)

// InvalidProjectError is returned when a client is built for a project
// the counting service does not support
type InvalidProjectError struct {
	Project string
}

// Error implements the error interface
func (e *InvalidProjectError) Error() string {
	return fmt.Sprintf("invalid project for references counter API: %s", e.Project)
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// ExternalAPIError represents a non-success response from an external API
type ExternalAPIError struct {
	StatusCode int
	Message    string
	API        string
}

// Error implements the error interface
func (e *ExternalAPIError) Error() string {
	return fmt.Sprintf("external API error from %s: %d - %s", e.API, e.StatusCode, e.Message)
}

// TransportError wraps a failure of the request mechanism itself
// (timeout, refused or reset connection, unreadable body)
type TransportError struct {
	Op  string
	URL string
	Err error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s %s: %v", e.Op, e.URL, e.Err)
}

// Unwrap returns the underlying cause
func (e *TransportError) Unwrap() error {
	return e.Err
}

// TransportKind is a coarse classification of a transport failure
type TransportKind string

const (
	TransportTimeout    TransportKind = "timeout"
	TransportConnection TransportKind = "connection"
	TransportOther      TransportKind = "other"
)

// IsInvalidProject checks if an error is an InvalidProjectError
func IsInvalidProject(err error) bool {
	var projectErr *InvalidProjectError
	return crdb.As(err, &projectErr)
}

// IsValidation checks if an error is a ValidationError
func IsValidation(err error) bool {
	var validationErr *ValidationError
	return crdb.As(err, &validationErr)
}

// IsExternalAPI checks if an error is an ExternalAPIError
func IsExternalAPI(err error) bool {
	var apiErr *ExternalAPIError
	return crdb.As(err, &apiErr)
}

// IsTransport checks if an error is a TransportError
func IsTransport(err error) bool {
	var transportErr *TransportError
	return crdb.As(err, &transportErr)
}

// ClassifyTransport reports which kind of transport failure err is
func ClassifyTransport(err error) TransportKind {
	if err == nil {
		return TransportOther
	}

	if crdb.Is(err, context.DeadlineExceeded) {
		return TransportTimeout
	}

	var netErr net.Error
	if crdb.As(err, &netErr) && netErr.Timeout() {
		return TransportTimeout
	}

	if crdb.Is(err, syscall.ECONNREFUSED) || crdb.Is(err, syscall.ECONNRESET) {
		return TransportConnection
	}

	var opErr *net.OpError
	if crdb.As(err, &opErr) {
		return TransportConnection
	}

	return TransportOther
}

// RootCause returns the innermost error of a wrapped chain
func RootCause(err error) error {
	return crdb.UnwrapAll(err)
}

// WrapError wraps an error with additional context
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return crdb.Wrap(err, message)
}
