// ABOUTME: Error types and handling for the reference counter library
// ABOUTME: Provides structured errors with context for client construction

package refcounter

import (
	"fmt"

	crdb "github.com/cockroachdb/errors"

	coreerrors "refcounter-api/core/errors"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeValidation indicates a validation error
	ErrorTypeValidation ErrorType = "validation"

	// ErrorTypeInvalidProject indicates a project the counter service does not serve
	ErrorTypeInvalidProject ErrorType = "invalid_project"

	// ErrorTypeConfiguration indicates a configuration error
	ErrorTypeConfiguration ErrorType = "configuration"
)

// Error represents a structured error from the library
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new error with the given type and message
func NewError(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

// WithCause adds a cause to the error
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// wrapCoreError converts construction errors from the core package
func wrapCoreError(err error) error {
	var invalid *coreerrors.InvalidProjectError
	if crdb.As(err, &invalid) {
		return NewError(ErrorTypeInvalidProject, "project is not supported by the references counter").
			WithCause(err).
			WithContext("project", invalid.Project)
	}
	if coreerrors.IsValidation(err) {
		return NewError(ErrorTypeValidation, "invalid client configuration").WithCause(err)
	}
	return err
}

// IsInvalidProjectError checks if an error reports an unsupported project
func IsInvalidProjectError(err error) bool {
	return coreerrors.IsInvalidProject(err)
}

// IsConfigurationError checks if an error is a configuration error
func IsConfigurationError(err error) bool {
	var e *Error
	if crdb.As(err, &e) {
		return e.Type == ErrorTypeConfiguration
	}
	return false
}
