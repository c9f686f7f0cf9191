// Package dto defines API request/response types and error handling.
//
// This package contains all types used for HTTP API communication:
//   - Request types with query/json struct tags for parameter binding
//   - Response types with relative paths and RFC3339 timestamps
//   - Structured error types with HTTP status codes and error codes
//
// The dto package is the API contract layer and does not import the storage
// packages. Conversion is done by the handlers package.
package dto

import (
	"fmt"
	"maps"
	"net/http"
	"strconv"
)

// ErrorCode defines specific error types for the API.
type ErrorCode string

const (
	// ErrorCodeValidationFailed is returned when input data fails validation.
	ErrorCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	// ErrorCodeMissingField is returned when a required field is missing.
	ErrorCodeMissingField ErrorCode = "MISSING_FIELD"

	// ErrorCodeInvalidName is returned for a rejected file or folder name or path.
	ErrorCodeInvalidName ErrorCode = "INVALID_NAME"
	// ErrorCodeDepthExceeded is returned when a node would be placed too deep.
	ErrorCodeDepthExceeded ErrorCode = "DEPTH_EXCEEDED"
	// ErrorCodeNotFound is returned when a source, target or document is missing.
	ErrorCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrorCodeNotAFolder is returned when a folder was expected and a file found.
	ErrorCodeNotAFolder ErrorCode = "NOT_A_FOLDER"
	// ErrorCodeInvalidMove is returned when moving a node into itself.
	ErrorCodeInvalidMove ErrorCode = "INVALID_MOVE"
	// ErrorCodeConflict is returned when the destination already exists.
	ErrorCodeConflict ErrorCode = "CONFLICT"

	// ErrorCodeStorageError is returned when a filesystem operation fails.
	ErrorCodeStorageError ErrorCode = "STORAGE_ERROR"
	// ErrorCodeInternal is returned when an unexpected server error occurs.
	ErrorCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrorCodePayloadTooLarge is returned when a body or file exceeds its limit.
	ErrorCodePayloadTooLarge ErrorCode = "PAYLOAD_TOO_LARGE"
	// ErrorCodeRateLimited is returned when the client exceeded its quota.
	ErrorCodeRateLimited ErrorCode = "RATE_LIMITED"
)

// ErrorDetails defines the structured error information in a response.
type ErrorDetails struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error   ErrorDetails   `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorWithStatus is an error that includes an HTTP status code and error code.
type ErrorWithStatus interface {
	Error() string
	StatusCode() int
	Code() ErrorCode
	Details() map[string]any
}

// APIError is a concrete error type with status code and optional details.
type APIError struct {
	statusCode int
	code       ErrorCode
	message    string
	details    map[string]any
	wrappedErr error
}

// NewAPIError creates a new APIError with the given status code and message.
func NewAPIError(statusCode int, code ErrorCode, message string) *APIError {
	return &APIError{
		statusCode: statusCode,
		code:       code,
		message:    message,
		details:    make(map[string]any),
	}
}

// WithDetails adds details to the error.
func (e *APIError) WithDetails(details map[string]any) *APIError {
	if e.details == nil {
		e.details = make(map[string]any)
	}
	maps.Copy(e.details, details)
	return e
}

// WithDetail adds a single detail to the error.
func (e *APIError) WithDetail(key string, value any) *APIError {
	if e.details == nil {
		e.details = make(map[string]any)
	}
	e.details[key] = value
	return e
}

// Wrap wraps an underlying error.
func (e *APIError) Wrap(err error) *APIError {
	e.wrappedErr = err
	return e
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.wrappedErr != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrappedErr)
	}
	return e.message
}

// Message returns the client-facing message, without the wrapped error.
func (e *APIError) Message() string {
	return e.message
}

// StatusCode returns the HTTP status code.
func (e *APIError) StatusCode() int {
	return e.statusCode
}

// Code returns the error code.
func (e *APIError) Code() ErrorCode {
	return e.code
}

// Details returns additional error details.
func (e *APIError) Details() map[string]any {
	return e.details
}

// Unwrap returns the wrapped error if any.
func (e *APIError) Unwrap() error {
	return e.wrappedErr
}

// Predefined error constructors for common cases

// NotFound creates a 404 Not Found error.
func NotFound(resource string) *APIError {
	return NewAPIError(http.StatusNotFound, ErrorCodeNotFound, resource+" not found")
}

// BadRequest creates a 400 Bad Request error.
func BadRequest(message string) *APIError {
	return NewAPIError(http.StatusBadRequest, ErrorCodeValidationFailed, message)
}

// MissingField creates a 400 Bad Request error for a missing field.
func MissingField(fieldName string) *APIError {
	return NewAPIError(http.StatusBadRequest, ErrorCodeMissingField, "Missing required field: "+fieldName)
}

// Internal returns a 500 Internal Server Error.
func Internal(message string) *APIError {
	return NewAPIError(http.StatusInternalServerError, ErrorCodeInternal, message)
}

// InternalWithError creates a 500 error wrapping an underlying error.
func InternalWithError(message string, err error) *APIError {
	return Internal(message).Wrap(err)
}

// PayloadTooLarge creates a 413 error for a body or file over limit bytes.
func PayloadTooLarge(limit int64) *APIError {
	return NewAPIError(http.StatusRequestEntityTooLarge, ErrorCodePayloadTooLarge, "payload exceeds "+strconv.FormatInt(limit, 10)+" bytes").
		WithDetail("limit", limit)
}

// RateLimitExceeded creates a 429 error.
func RateLimitExceeded(retryAfterSeconds int) *APIError {
	return NewAPIError(http.StatusTooManyRequests, ErrorCodeRateLimited, "rate limit exceeded").
		WithDetail("retryAfter", retryAfterSeconds)
}
