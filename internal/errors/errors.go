// Package errors provides standardized domain errors with codes for the ReadAloud API.
//
// Usage:
//
//	// In services - return typed errors
//	if resp.StatusCode != http.StatusOK {
//	    return errors.SynthesisProviderf(resp.StatusCode, "provider rejected request: %s", body)
//	}
//
//	// In handlers - check with errors.Is
//	if errors.Is(err, errors.ErrSynthesisTimeout) {
//	    response.HandleError(w, err, logger)
//	    return
//	}
//
//	// Or use the Code directly for switch statements
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) {
//	    switch domainErr.Code {
//	    case errors.CodeSynthesisTimeout:
//	        ...
//	    }
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeNotFound          Code = "NOT_FOUND"
	CodeValidation        Code = "VALIDATION"
	CodeInternal          Code = "INTERNAL"
	CodeSynthesisTimeout  Code = "SYNTHESIS_TIMEOUT"
	CodeSynthesisProvider Code = "SYNTHESIS_PROVIDER"
	CodeMalformedResponse Code = "MALFORMED_RESPONSE"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeValidation:
		return http.StatusBadRequest
	case CodeSynthesisTimeout:
		return http.StatusGatewayTimeout
	case CodeSynthesisProvider, CodeMalformedResponse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`

	// UpstreamStatus carries the synthesis provider's HTTP status for
	// CodeSynthesisProvider errors so callers can distinguish rate limits
	// from hard failures.
	UpstreamStatus int `json:"upstream_status,omitempty"`

	// Segment is the index of the segment the error belongs to, or -1 when
	// the error is not segment-scoped. Segment-level failures never
	// invalidate sibling segments.
	Segment int `json:"segment,omitempty"`

	cause error // unexported, for wrapping
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:           e.Code,
		Message:        e.Message,
		Details:        e.Details,
		UpstreamStatus: e.UpstreamStatus,
		Segment:        e.Segment,
		cause:          err,
	}
}

// WithSegment tags the error with the segment index it belongs to.
func (e *Error) WithSegment(index int) *Error {
	return &Error{
		Code:           e.Code,
		Message:        e.Message,
		Details:        e.Details,
		UpstreamStatus: e.UpstreamStatus,
		Segment:        index,
		cause:          e.cause,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound          = &Error{Code: CodeNotFound, Message: "not found"}
	ErrValidation        = &Error{Code: CodeValidation, Message: "validation error"}
	ErrInternal          = &Error{Code: CodeInternal, Message: "internal error"}
	ErrSynthesisTimeout  = &Error{Code: CodeSynthesisTimeout, Message: "synthesis timed out"}
	ErrSynthesisProvider = &Error{Code: CodeSynthesisProvider, Message: "synthesis provider error"}
	ErrMalformedResponse = &Error{Code: CodeMalformedResponse, Message: "malformed synthesis response"}
)

// Constructor functions for creating errors with custom messages.

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Internalf creates an internal error with formatted message.
func Internalf(format string, args ...any) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...)}
}

// SynthesisTimeout creates a synthesis timeout error.
func SynthesisTimeout(msg string) *Error {
	return &Error{Code: CodeSynthesisTimeout, Message: msg}
}

// SynthesisTimeoutf creates a synthesis timeout error with formatted message.
func SynthesisTimeoutf(format string, args ...any) *Error {
	return &Error{Code: CodeSynthesisTimeout, Message: fmt.Sprintf(format, args...)}
}

// SynthesisProvider creates a provider error carrying the upstream status.
func SynthesisProvider(status int, msg string) *Error {
	return &Error{Code: CodeSynthesisProvider, Message: msg, UpstreamStatus: status}
}

// SynthesisProviderf creates a provider error with formatted message.
func SynthesisProviderf(status int, format string, args ...any) *Error {
	return &Error{Code: CodeSynthesisProvider, Message: fmt.Sprintf(format, args...), UpstreamStatus: status}
}

// MalformedResponse creates a malformed response error.
func MalformedResponse(msg string) *Error {
	return &Error{Code: CodeMalformedResponse, Message: msg}
}

// MalformedResponsef creates a malformed response error with formatted message.
func MalformedResponsef(format string, args ...any) *Error {
	return &Error{Code: CodeMalformedResponse, Message: fmt.Sprintf(format, args...)}
}
