package core

import "errors"

// ErrorCode represents an exchange-specific error identifier.
// Error codes provide a stable, machine-readable way to identify specific error conditions.
type ErrorCode string

// Error code constants define standardized error identifiers.
const (
	ErrCodeRateLimit   ErrorCode = "RATE_LIMIT"
	ErrCodeAuth        ErrorCode = "AUTH_ERROR"
	ErrCodeBadRequest  ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound    ErrorCode = "NOT_FOUND"
	ErrCodeServerError ErrorCode = "SERVER_ERROR"
	ErrCodeUnknown     ErrorCode = "UNKNOWN"
)

// CodeForType returns the ErrorCode used when an exchange gives no code of its own.
func CodeForType(t ErrorType) ErrorCode {
	switch t {
	case ErrorTypeRateLimit:
		return ErrCodeRateLimit
	case ErrorTypeAuthentication:
		return ErrCodeAuth
	case ErrorTypeBadRequest:
		return ErrCodeBadRequest
	case ErrorTypeNotFound:
		return ErrCodeNotFound
	case ErrorTypeServerError:
		return ErrCodeServerError
	default:
		return ErrCodeUnknown
	}
}

// IsErrorCode checks if the error matches the specified error code.
// It extracts the exchange error and compares its code field against the provided ErrorCode.
func IsErrorCode(err error, code ErrorCode) bool {
	var exErr *ExchangeError
	if errors.As(err, &exErr) {
		return ErrorCode(exErr.Code) == code
	}
	return false
}
