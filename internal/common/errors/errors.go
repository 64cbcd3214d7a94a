// Package errors provides standardized error handling for the HTTP API.
package errors

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidInput       ErrorCode = "INVALID_INPUT"
	ErrCodeMethodNotAllowed   ErrorCode = "METHOD_NOT_ALLOWED"
	ErrCodeMissingCredentials ErrorCode = "MISSING_CREDENTIALS"
	ErrCodeUpstreamFailure    ErrorCode = "UPSTREAM_FAILURE"
	ErrCodeUpstreamTimeout    ErrorCode = "UPSTREAM_TIMEOUT"
	ErrCodeRateLimited        ErrorCode = "RATE_LIMITED"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
)

// Client-facing messages. These strings are part of the API contract.
const (
	MsgMethodNotAllowed   = "Method not allowed"
	MsgInvalidInput       = "Missing or invalid 'input'."
	MsgInvalidMode        = "Unknown 'mode'."
	MsgMissingCredentials = "Server error: missing API key."
	MsgUpstreamPrefix     = "Upstream error: "
	MsgRateLimited        = "Too many requests. Please wait and try again."
	MsgInternal           = "Server error."
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// HTTPStatus returns the response status for the error code.
func (e *StandardError) HTTPStatus() int {
	return HTTPStatusFor(e.Code)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewInvalidInputError creates a non-retryable client error.
func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   MsgInvalidInput,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidModeError rejects a mode that is not registered.
func NewInvalidModeError(mode string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   MsgInvalidMode,
		Details:   fmt.Sprintf("mode: %s", mode),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMethodNotAllowedError rejects anything other than the accepted method.
func NewMethodNotAllowedError(method string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMethodNotAllowed,
		Message:   MsgMethodNotAllowed,
		Details:   fmt.Sprintf("method: %s", method),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMissingCredentialsError reports an upstream provider with no API key configured.
func NewMissingCredentialsError(provider string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingCredentials,
		Message:   MsgMissingCredentials,
		Details:   fmt.Sprintf("provider: %s", provider),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamFailureError carries the upstream's own error text back to the caller.
func NewUpstreamFailureError(upstreamText string, err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &StandardError{
		Code:      ErrCodeUpstreamFailure,
		Message:   MsgUpstreamPrefix + upstreamText,
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamTimeoutError creates a retryable timeout error.
func NewUpstreamTimeoutError(err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &StandardError{
		Code:      ErrCodeUpstreamTimeout,
		Message:   MsgUpstreamPrefix + "request timed out",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRateLimitedError creates a retryable throttling error.
func NewRateLimitedError(key string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRateLimited,
		Message:   MsgRateLimited,
		Details:   fmt.Sprintf("key: %s", key),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected failure.
func NewInternalError(err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   MsgInternal,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Status Mapping
// ==========================

var httpStatusMapping = map[ErrorCode]int{
	ErrCodeInvalidInput:       http.StatusBadRequest,
	ErrCodeMethodNotAllowed:   http.StatusMethodNotAllowed,
	ErrCodeMissingCredentials: http.StatusInternalServerError,
	ErrCodeUpstreamFailure:    http.StatusInternalServerError,
	ErrCodeUpstreamTimeout:    http.StatusInternalServerError,
	ErrCodeRateLimited:        http.StatusTooManyRequests,
	ErrCodeInternal:           http.StatusInternalServerError,
}

// HTTPStatusFor returns the response status for a code, 500 when unknown.
func HTTPStatusFor(code ErrorCode) int {
	if status, ok := httpStatusMapping[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ==========================
// 4. Utility Functions
// ==========================

// IsRetryableErrorCode reports whether the caller may sensibly retry.
func IsRetryableErrorCode(code ErrorCode) bool {
	switch code {
	case ErrCodeUpstreamFailure, ErrCodeUpstreamTimeout, ErrCodeRateLimited:
		return true
	}
	return false
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "UPSTREAM") || strings.Contains(codeStr, "CREDENTIALS"):
		return "UPSTREAM"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "METHOD"):
		return "VALIDATION"
	case strings.Contains(codeStr, "RATE"):
		return "THROTTLING"
	default:
		return "OTHER"
	}
}
