package core

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// ErrorType represents the category of an exchange error.
type ErrorType int

// Error type constants categorize errors for proper handling.
const (
	// ErrorTypeUnknown indicates an unclassified error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeNetwork indicates a network connectivity issue.
	ErrorTypeNetwork
	// ErrorTypeTimeout indicates the request exceeded its deadline.
	ErrorTypeTimeout
	// ErrorTypeRateLimit indicates rate limit was exceeded.
	ErrorTypeRateLimit
	// ErrorTypeAuthentication indicates invalid or expired credentials.
	ErrorTypeAuthentication
	// ErrorTypeBadRequest indicates invalid request parameters.
	ErrorTypeBadRequest
	// ErrorTypeNotFound indicates the requested resource does not exist.
	ErrorTypeNotFound
	// ErrorTypeServerError indicates a server-side error.
	ErrorTypeServerError
	// ErrorTypeValidation indicates the caller's arguments were rejected before sending.
	ErrorTypeValidation
)

// String returns the string representation of the error type.
func (t ErrorType) String() string {
	return [...]string{
		"UNKNOWN",
		"NETWORK",
		"TIMEOUT",
		"RATE_LIMIT",
		"AUTHENTICATION",
		"BAD_REQUEST",
		"NOT_FOUND",
		"SERVER_ERROR",
		"VALIDATION",
	}[t]
}

// Sentinel errors for common error conditions.
var (
	// ErrClientClosed is returned when attempting to use a closed client.
	ErrClientClosed = errors.New("client is closed")
	// ErrNoCredentials is returned when a private call is made without an API key and secret.
	ErrNoCredentials = errors.New("no credentials configured")
)

// ValidationError reports caller arguments rejected before any request was sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NetworkError wraps a transport-level failure: refused connection, timeout, TLS error.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was a deadline or timeout.
func (e *NetworkError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// ExchangeError represents a non-2xx response returned from an exchange.
// Body keeps the raw payload so callers can interpret venue-specific error structures.
type ExchangeError struct {
	// Type categorizes the error for programmatic handling.
	Type ErrorType `json:"type"`
	// StatusCode is the HTTP status code from the response.
	StatusCode int `json:"status_code"`
	// Code is the exchange-specific error code.
	Code string `json:"code"`
	// Message is the human-readable error description.
	Message string `json:"message"`
	// Body is the unmodified response body.
	Body []byte `json:"body,omitempty"`
	// Exchange identifies which exchange returned this error.
	Exchange string `json:"exchange"`
	// Timestamp is when the error occurred.
	Timestamp time.Time `json:"timestamp"`
}

// Error implements the error interface for ExchangeError.
// It returns a formatted string with exchange name, error type, status code, and message.
func (e *ExchangeError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("[%s] %s (%d/%s): %s",
			e.Exchange, e.Type, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s (%d): %s",
		e.Exchange, e.Type, e.StatusCode, e.Message)
}

// WithCode sets the exchange error code and returns the error for chaining.
func (e *ExchangeError) WithCode(code ErrorCode) *ExchangeError {
	e.Code = string(code)
	return e
}

// WithBody attaches the raw response body and returns the error for chaining.
func (e *ExchangeError) WithBody(body []byte) *ExchangeError {
	e.Body = body
	return e
}

// NewExchangeError creates a new ExchangeError with the specified details.
// The timestamp is automatically set to the current time.
func NewExchangeError(exchange string, errorType ErrorType, statusCode int, message string) *ExchangeError {
	return &ExchangeError{
		Type:       errorType,
		StatusCode: statusCode,
		Message:    message,
		Exchange:   exchange,
		Timestamp:  time.Now(),
	}
}

// ErrorTypeForStatus maps an HTTP status code to an ErrorType.
func ErrorTypeForStatus(statusCode int) ErrorType {
	switch {
	case statusCode >= 500:
		return ErrorTypeServerError
	case statusCode == 429:
		return ErrorTypeRateLimit
	case statusCode == 401 || statusCode == 403:
		return ErrorTypeAuthentication
	case statusCode == 404:
		return ErrorTypeNotFound
	case statusCode >= 400:
		return ErrorTypeBadRequest
	default:
		return ErrorTypeUnknown
	}
}

// IsValidationError returns true if the caller's arguments were rejected before sending.
func IsValidationError(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

// IsNetworkError returns true if the error is a transport-level failure.
func IsNetworkError(err error) bool {
	var e *NetworkError
	return errors.As(err, &e)
}

// IsTimeoutError returns true if the error is a transport timeout.
func IsTimeoutError(err error) bool {
	var e *NetworkError
	return errors.As(err, &e) && e.Timeout()
}

// IsRateLimitError returns true if the exchange answered with a rate limit violation.
func IsRateLimitError(err error) bool {
	var e *ExchangeError
	return errors.As(err, &e) && e.Type == ErrorTypeRateLimit
}

// IsAuthenticationError returns true if credentials were missing locally
// or rejected by the exchange.
func IsAuthenticationError(err error) bool {
	if errors.Is(err, ErrNoCredentials) {
		return true
	}
	var e *ExchangeError
	return errors.As(err, &e) && e.Type == ErrorTypeAuthentication
}

// IsTerminalError returns true if retrying the same request cannot succeed.
func IsTerminalError(err error) bool {
	if IsValidationError(err) || errors.Is(err, ErrNoCredentials) {
		return true
	}
	var e *ExchangeError
	if errors.As(err, &e) {
		return e.Type == ErrorTypeBadRequest ||
			e.Type == ErrorTypeNotFound ||
			e.Type == ErrorTypeAuthentication
	}
	return false
}
