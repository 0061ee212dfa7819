package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// AppError implements the error interface and provides structured error handling
type AppError struct {
	Code       Code      `json:"code"`
	Message    string    `json:"message"`
	StatusCode int       `json:"statusCode"`
	Context    string    `json:"context,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	cause      error     // unexported to maintain encapsulation
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s (code: %s, context: %s)", e.Code, e.Message, e.Code, e.Context)
	}
	return fmt.Sprintf("%s: %s (code: %s)", e.Code, e.Message, e.Code)
}

// Unwrap implements the errors.Unwrap interface
func (e *AppError) Unwrap() error {
	return e.cause
}

// Is implements errors.Is interface for error comparison
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// UserMessage returns the text shown to a person looking at the dashboard:
// the code's message, followed by the context when there is one.
func (e *AppError) UserMessage() string {
	if e.Context != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Context)
	}
	return e.Message
}

// Retryable reports whether retrying the same request may succeed.
func (e *AppError) Retryable() bool {
	switch e.Code {
	case CodeAPIRequestFailed, CodeAPIUnavailable, CodeServiceTimeout,
		CodeServiceUnavailable, CodeCircuitOpen, CodeRPCConnectionFailed,
		CodeRPCCallFailed, CodeWebSocketConnectionError:
		return true
	}
	return e.StatusCode >= http.StatusInternalServerError
}

// New creates a new AppError with the given code and options
func New(code Code, opts ...Option) *AppError {
	err := &AppError{
		Code:       code,
		Message:    messages[code],
		StatusCode: getDefaultStatusCode(code),
		Timestamp:  time.Now(),
	}

	// Apply options
	for _, opt := range opts {
		opt(err)
	}

	// If message wasn't set by options and isn't in messages map, use code as message
	if err.Message == "" {
		err.Message = string(code)
	}

	return err
}

// Option is a functional option for AppError
type Option func(*AppError)

// WithMessage sets a custom message
func WithMessage(message string) Option {
	return func(e *AppError) {
		e.Message = message
	}
}

// WithContext adds context information
func WithContext(context string) Option {
	return func(e *AppError) {
		e.Context = context
	}
}

// WithStatusCode sets a custom HTTP status code
func WithStatusCode(statusCode int) Option {
	return func(e *AppError) {
		e.StatusCode = statusCode
	}
}

// WithCause wraps an underlying error
func WithCause(cause error) Option {
	return func(e *AppError) {
		e.cause = cause
	}
}

// Factory methods for common error types

// Validation creates a validation error
func Validation(code Code, context string) *AppError {
	return New(code, WithContext(context), WithStatusCode(http.StatusBadRequest))
}

// Internal creates an internal error
func Internal(code Code, context string, cause error) *AppError {
	return New(code, WithContext(context), WithCause(cause), WithStatusCode(http.StatusInternalServerError))
}

// External creates an external service error
func External(code Code, context string, cause error) *AppError {
	return New(code, WithContext(context), WithCause(cause), WithStatusCode(http.StatusServiceUnavailable))
}

// FromStatus maps an upstream HTTP status to an API error code.
func FromStatus(status int, context string) *AppError {
	code := CodeAPIRequestFailed
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		code = CodeAPIUnauthorized
	case status == http.StatusNotFound:
		code = CodeAPINotFound
	case status == http.StatusTooManyRequests:
		code = CodeRateLimitExceeded
	case status == http.StatusServiceUnavailable || status == http.StatusBadGateway || status == http.StatusGatewayTimeout:
		code = CodeAPIUnavailable
	}
	return New(code, WithContext(context), WithStatusCode(status))
}

// Message returns a human-readable message for any error. App errors use
// their UserMessage; everything else falls back to Error().
func Message(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.UserMessage()
	}
	return err.Error()
}

// Wrap wraps a standard error into AppError
func Wrap(err error, code Code, context string) *AppError {
	if err == nil {
		return nil
	}

	// If it's already an AppError, return it
	var appErr *AppError
	if errors.As(err, &appErr) {
		if context != "" && appErr.Context == "" {
			appErr.Context = context
		}
		return appErr
	}

	// Create new AppError wrapping the original
	return Internal(code, context, err)
}

// GetCode extracts the error code from an error
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknownError
}

// getDefaultStatusCode determines the HTTP status code based on the error code
func getDefaultStatusCode(code Code) int {
	switch {
	case strings.Contains(string(code), "UNAUTHORIZED"):
		return http.StatusUnauthorized

	case strings.Contains(string(code), "NOT_FOUND"):
		return http.StatusNotFound

	case strings.Contains(string(code), "INVALID"):
		return http.StatusBadRequest

	case strings.Contains(string(code), "CONNECTION"),
		strings.Contains(string(code), "TIMEOUT"):
		return http.StatusServiceUnavailable

	case code == CodeRateLimitExceeded:
		return http.StatusTooManyRequests

	case code == CodeCircuitOpen, code == CodeAPIUnavailable:
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}
