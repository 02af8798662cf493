package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface enables extensible error handling in the
// transport layer without switching on concrete types.
type HTTPError interface {
	error
	StatusCode() int
}

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a resource (session, form file) was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input, including a malformed
	// form definition at session creation
	ValidationError struct {
		Message string
	}

	// ConflictError indicates a concurrent turn for the same session
	ConflictError struct {
		Message string
	}
)

// Constructors
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf("%s not found: %s", resource, id)}
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}

// Error implementations
func (e *NotFoundError) Error() string   { return e.Message }
func (e *ValidationError) Error() string { return e.Message }
func (e *ConflictError) Error() string   { return e.Message }

// StatusCode implementations (HTTPError interface)
func (e *NotFoundError) StatusCode() int   { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int { return http.StatusBadRequest }
func (e *ConflictError) StatusCode() int   { return http.StatusConflict }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound            = errors.New("not found")
	ErrValidation          = errors.New("validation failed")
	ErrMalformedDefinition = errors.New("malformed form definition")
	ErrTurnInFlight        = errors.New("a turn is already in flight for this session")
)

// Is allows errors.Is() to match against the sentinels
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation || target == ErrMalformedDefinition
}
func (e *ConflictError) Is(target error) bool { return target == ErrTurnInFlight }
