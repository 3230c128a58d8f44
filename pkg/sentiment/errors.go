package sentiment

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorCode defines error classification codes for structured error handling.
type ErrorCode string

// Error codes for different error categories.
const (
	ErrCodeMalformedResponse ErrorCode = "MALFORMED_RESPONSE"
	ErrCodeInvalidSchema     ErrorCode = "INVALID_SCHEMA"
	ErrCodeTransportFailure  ErrorCode = "TRANSPORT_FAILURE"
	ErrCodeInvalidInput      ErrorCode = "INVALID_INPUT"
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeDatabase          ErrorCode = "DATABASE_ERROR"
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
)

// Error represents a structured error with classification code.
//
// Field names the first offending schema field for INVALID_SCHEMA errors.
// Raw keeps the model text that could not be ingested, for diagnostics.
type Error struct {
	Code    ErrorCode
	Message string
	Field   string
	Raw     string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("%s (field %s)", msg, e.Field)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap returns the wrapped error for errors.Is and errors.As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with classification code and additional context.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func schemaError(field, message string) *Error {
	return &Error{Code: ErrCodeInvalidSchema, Message: message, Field: field}
}

// IsErrorCode checks if an error matches a specific error code.
func IsErrorCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf returns the classification code of err, or INTERNAL_ERROR for
// errors that did not originate here.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// UserMessage returns the single human-readable message shown to end users.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) {
		return "Failed to analyze the stock. Please try again."
	}
	switch e.Code {
	case ErrCodeMalformedResponse:
		return "Invalid response format from AI model."
	case ErrCodeInvalidSchema:
		return "Invalid data structure received from AI model."
	case ErrCodeTransportFailure:
		return transportMessage(e)
	case ErrCodeInvalidInput, ErrCodeNotFound:
		return e.Message
	case ErrCodeDatabase:
		return "Local storage error. Please try again."
	}
	return "Failed to analyze the stock. Please try again."
}

func transportMessage(e *Error) string {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return "Request timeout. The AI service took too long to respond."
	}
	cause := strings.ToLower(e.Error())
	switch {
	case containsAny(cause, "api key", "api_key", "apikey", "authentication", "unauthorized", "401", "permission denied"):
		return "Invalid API key. Please check your configuration."
	case containsAny(cause, "quota", "rate limit", "limit exceeded", "resource_exhausted", "429"):
		return "API quota exceeded. Please try again later."
	case containsAny(cause, "timeout", "deadline exceeded"):
		return "Request timeout. The AI service took too long to respond."
	case containsAny(cause, "network", "fetch", "no such host", "connection refused", "connection reset", "enotfound", "econnrefused", "dial tcp"):
		return "Network error. Please check your internet connection."
	}
	return "Failed to reach the AI service. Please try again."
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
