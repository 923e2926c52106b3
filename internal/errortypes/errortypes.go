// Package errortypes provides error types and handling for paper-cli.
package errortypes

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error that occurred
type ErrorType string

// Error types
const (
	// ErrorTypeAuth indicates the remote endpoint rejected the credentials.
	// Never retried.
	ErrorTypeAuth ErrorType = "auth"

	// ErrorTypeRateLimit indicates the remote endpoint rejected the call
	// because of request-rate pressure. Retried with backoff.
	ErrorTypeRateLimit ErrorType = "rate_limit"

	// ErrorTypeConnection indicates the request never produced a usable
	// HTTP response. Retried with backoff.
	ErrorTypeConnection ErrorType = "connection"

	// ErrorTypeAPI indicates a generic upstream API failure. Retried with
	// backoff.
	ErrorTypeAPI ErrorType = "api"

	// ErrorTypeEmptyResponse indicates a technically successful call whose
	// body carried no usable text. A blank summary is never a valid
	// product, so this is grouped with the transient kinds.
	ErrorTypeEmptyResponse ErrorType = "empty_response"

	// ErrorTypeDocument wraps any failure while processing a single
	// document. Contained at the orchestrator boundary.
	ErrorTypeDocument ErrorType = "document"

	// ErrorTypeConfig indicates a configuration-level failure. Aborts the
	// run before any worker is dispatched.
	ErrorTypeConfig ErrorType = "config"

	// ErrorTypeDatabase indicates a library-store failure.
	ErrorTypeDatabase ErrorType = "database"

	// ErrorTypeValidation indicates an input validation error.
	ErrorTypeValidation ErrorType = "validation"
)

// AppError represents an application error with context
type AppError struct {
	Err     error
	Type    ErrorType
	Message string
	Fields  map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Err.Error()
}

// Unwrap unwraps the error to support errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithField adds a field to the error for additional context
func (e *AppError) WithField(key string, value interface{}) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	e.Fields[key] = value
	return e
}

// Retryable reports whether the retry loop may attempt the operation
// again. Authentication failures and document/config wrappers are
// terminal; everything classified as transient is retryable.
func (e *AppError) Retryable() bool {
	switch e.Type {
	case ErrorTypeRateLimit, ErrorTypeConnection, ErrorTypeAPI, ErrorTypeEmptyResponse:
		return true
	default:
		return false
	}
}

// newAppError creates a new AppError with the given type, underlying error, and message
func newAppError(errType ErrorType, err error, message string) *AppError {
	if err == nil {
		err = errors.New("unknown error")
	}

	return &AppError{
		Err:     err,
		Type:    errType,
		Message: message,
		Fields:  make(map[string]interface{}),
	}
}

// AuthError creates a new authentication error
func AuthError(err error, message string) *AppError {
	return newAppError(ErrorTypeAuth, err, message)
}

// RateLimitError creates a new rate-limit rejection error
func RateLimitError(err error, message string) *AppError {
	return newAppError(ErrorTypeRateLimit, err, message)
}

// ConnectionError creates a new connection error
func ConnectionError(err error, message string) *AppError {
	return newAppError(ErrorTypeConnection, err, message)
}

// APIError creates a new upstream API error
func APIError(err error, message string) *AppError {
	return newAppError(ErrorTypeAPI, err, message)
}

// EmptyResponseError creates a new empty-response error
func EmptyResponseError(message string) *AppError {
	return newAppError(ErrorTypeEmptyResponse, errors.New("empty response from model"), message)
}

// DocumentError wraps a per-document processing failure
func DocumentError(err error, message string) *AppError {
	return newAppError(ErrorTypeDocument, err, message)
}

// ConfigError creates a new configuration error
func ConfigError(err error, message string) *AppError {
	return newAppError(ErrorTypeConfig, err, message)
}

// DatabaseError creates a new database error
func DatabaseError(err error, message string) *AppError {
	return newAppError(ErrorTypeDatabase, err, message)
}

// ValidationError creates a new validation error
func ValidationError(err error, message string) *AppError {
	return newAppError(ErrorTypeValidation, err, message)
}

// IsRetryable reports whether err is an AppError the retry loop may
// attempt again. Plain errors are treated as non-retryable.
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable()
	}
	return false
}

// TypeOf returns the ErrorType of err, or the empty string for plain errors.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsAuthError checks if an error is an authentication error
func IsAuthError(err error) bool {
	return TypeOf(err) == ErrorTypeAuth
}

// IsDocumentError checks if an error is a per-document wrapper
func IsDocumentError(err error) bool {
	return TypeOf(err) == ErrorTypeDocument
}

// IsConfigError checks if an error is a configuration error
func IsConfigError(err error) bool {
	return TypeOf(err) == ErrorTypeConfig
}
