// Package errors provides the standardized error taxonomy for the client.
// Every API and orchestrator failure is normalized into a ClientError so
// callers never inspect transport-specific details.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// ErrCodeValidation: required input missing before any network call.
	ErrCodeValidation ErrorCode = "VALIDATION_FAILED"
	// ErrCodeTransport: no response received (connectivity or timeout).
	ErrCodeTransport ErrorCode = "TRANSPORT_FAILURE"
	// ErrCodeService: a response was received but indicated failure.
	ErrCodeService ErrorCode = "SERVICE_ERROR"
	// ErrCodeNotFound: the target resource does not exist server-side.
	ErrCodeNotFound ErrorCode = "RESOURCE_NOT_FOUND"
	// ErrCodeEmptyResult: analysis succeeded at the transport level but
	// returned no usable matches.
	ErrCodeEmptyResult ErrorCode = "EMPTY_RESULT"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// ClientError is the single structured error shape surfaced by the client.
type ClientError struct {
	Code       ErrorCode `json:"code"`
	Op         string    `json:"op"`
	Target     string    `json:"target,omitempty"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"statusCode,omitempty"`
	Retryable  bool      `json:"retryable"`
	Timestamp  time.Time `json:"timestamp"`
	wrapped    error
}

func (e *ClientError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("ClientError[%s] %s(%s): %s", e.Code, e.Op, e.Target, e.Message)
	}
	return fmt.Sprintf("ClientError[%s] %s: %s", e.Code, e.Op, e.Message)
}

func (e *ClientError) Unwrap() error {
	return e.wrapped
}

// UserMessage returns the message suitable for a transient user-facing
// notification: no stack detail, no server internals.
func (e *ClientError) UserMessage() string {
	switch e.Code {
	case ErrCodeValidation:
		return e.Message
	case ErrCodeTransport:
		if e.Target != "" {
			return fmt.Sprintf("Could not reach the analysis service while processing %q. Check your connection and try again.", e.Target)
		}
		return "Could not reach the analysis service. Check your connection and try again."
	case ErrCodeService:
		if e.Target != "" {
			return fmt.Sprintf("The analysis service rejected %q: %s", e.Target, e.Message)
		}
		return fmt.Sprintf("The analysis service reported an error: %s", e.Message)
	case ErrCodeNotFound:
		return fmt.Sprintf("%s was not found. It may have already been deleted.", e.Target)
	case ErrCodeEmptyResult:
		return "Analysis completed but produced no matches."
	default:
		return "Analysis failed. Please try again."
	}
}

// NewValidationError creates a non-retryable precondition error. It is
// resolved locally and never reaches the backend.
func NewValidationError(op, message string) *ClientError {
	return &ClientError{
		Code:      ErrCodeValidation,
		Op:        op,
		Message:   message,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTransportError creates a retryable no-response error.
func NewTransportError(op, target string, err error) *ClientError {
	return &ClientError{
		Code:      ErrCodeTransport,
		Op:        op,
		Target:    target,
		Message:   "no response from service",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		wrapped:   err,
	}
}

// NewServiceError creates an error for a non-2xx response. The server
// message is carried when available.
func NewServiceError(op, target string, statusCode int, serverMessage string) *ClientError {
	if serverMessage == "" {
		serverMessage = fmt.Sprintf("service returned status %d", statusCode)
	}
	return &ClientError{
		Code:       ErrCodeService,
		Op:         op,
		Target:     target,
		Message:    serverMessage,
		StatusCode: statusCode,
		Retryable:  statusCode >= 500,
		Timestamp:  time.Now().UTC(),
	}
}

// NewNotFoundError creates a non-retryable missing-resource error. Callers
// deleting an already-deleted id receive this rather than a crash.
func NewNotFoundError(op, target string) *ClientError {
	return &ClientError{
		Code:       ErrCodeNotFound,
		Op:         op,
		Target:     target,
		Message:    "resource not found",
		StatusCode: 404,
		Retryable:  false,
		Timestamp:  time.Now().UTC(),
	}
}

// NewEmptyResultError marks a transport-level success that carried no
// usable matches. Handled via the fallback policy, not as a hard failure.
func NewEmptyResultError(op string) *ClientError {
	return &ClientError{
		Code:      ErrCodeEmptyResult,
		Op:        op,
		Message:   "analysis returned no matches",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// Normalize ensures any error is a ClientError.
func Normalize(op string, err error) *ClientError {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce
	}
	return &ClientError{
		Code:      ErrCodeInternal,
		Op:        op,
		Message:   "unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		wrapped:   err,
	}
}

// CodeOf returns the taxonomy code of err, or ErrCodeInternal for errors
// produced outside the client.
func CodeOf(err error) ErrorCode {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ErrCodeInternal
}

func IsValidation(err error) bool  { return CodeOf(err) == ErrCodeValidation }
func IsTransport(err error) bool   { return CodeOf(err) == ErrCodeTransport }
func IsService(err error) bool     { return CodeOf(err) == ErrCodeService }
func IsNotFound(err error) bool    { return CodeOf(err) == ErrCodeNotFound }
func IsEmptyResult(err error) bool { return CodeOf(err) == ErrCodeEmptyResult }
