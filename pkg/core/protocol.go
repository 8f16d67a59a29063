package core

import (
	"context"
)

// Protocol defines the interface for exchange-specific protocol implementations.
// Each exchange must implement this interface to handle request building,
// response parsing, and authentication.
type Protocol interface {
	// Name returns the exchange identifier (e.g., "cpdax").
	Name() string

	// Version returns the API version being used.
	Version() string

	// BaseURL returns the API base URL.
	BaseURL() string

	// BuildRequest constructs an HTTP request for the specified operation.
	// The params contain operation-specific parameters.
	// Returns a Request object ready for signing and dispatch or an error.
	BuildRequest(ctx context.Context, op Operation, params Params) (*Request, error)

	// ParseResponse deserializes the HTTP response and normalizes it to canonical types.
	// The op parameter specifies which operation was performed.
	// Returns the normalized canonical type for the operation or an error.
	ParseResponse(op Operation, resp *Response) (any, error)

	// SignRequest adds authentication headers to the request.
	// The credentials provide the keys needed for signing; timestamp is in seconds.
	SignRequest(req *Request, creds Credentials, timestamp int64) error

	// SupportedOperations returns the list of operations this protocol supports.
	SupportedOperations() []Operation
}
