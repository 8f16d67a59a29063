package core

import "fmt"

// Request describes a single exchange call before it is dispatched.
// Path is relative to the versioned API root, e.g. "orders/ETH-BTC".
type Request struct {
	Method      string            `json:"method"`
	Path        string            `json:"path"`
	Query       Params            `json:"query,omitempty"`
	Body        Params            `json:"body,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	RequireAuth bool              `json:"require_auth"`

	payload []byte
}

func NewRequest(method, path string) *Request {
	return &Request{
		Method:  method,
		Path:    path,
		Headers: make(map[string]string),
	}
}

func (r *Request) SetQuery(key string, value any) *Request {
	r.Query.Set(key, value)
	return r
}

func (r *Request) SetBody(body Params) *Request {
	r.Body = body
	r.payload = nil
	return r
}

// Payload returns the JSON encoding of Body, or nil when there is no body.
// The encoding is computed once and reused, so the bytes that are signed are the bytes that are sent.
func (r *Request) Payload() ([]byte, error) {
	if len(r.Body) == 0 {
		return nil, nil
	}
	if r.payload == nil {
		data, err := r.Body.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		r.payload = data
	}
	return r.payload, nil
}

func (r *Request) SetHeader(key, value string) *Request {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[key] = value
	return r
}

func (r *Request) SetRequireAuth(require bool) *Request {
	r.RequireAuth = require
	return r
}

func (r *Request) SetQueryParams(params Params) *Request {
	for _, kv := range params {
		r.Query.Set(kv.Key, kv.Value)
	}
	return r
}
