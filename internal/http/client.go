package http

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"resty.dev/v3"

	"cpdax/pkg/core"
)

// Client is a resty client that performs exactly one attempt per call.
type Client struct {
	client  *resty.Client
	baseURL string
	logger  zerolog.Logger
	mu      sync.RWMutex
	closed  bool
}

type Config struct {
	BaseURL string            `validate:"required,url"`
	Timeout time.Duration     `validate:"min=0"`
	Headers map[string]string `validate:"omitempty"`
	Logger  zerolog.Logger    `validate:"-"`
}

type RequestOption func(*resty.Request)

func NewClient(config *Config) (*Client, error) {
	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	client := resty.New()
	client.SetBaseURL(config.BaseURL)
	client.SetTimeout(config.Timeout)
	client.SetRetryCount(0)
	client.AddContentTypeEncoder("application/json", func(w io.Writer, v any) error {
		data, err := sonic.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	})
	client.AddContentTypeDecoder("application/json", func(r io.Reader, v any) error {
		data, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		return sonic.Unmarshal(data, v)
	})

	for k, v := range config.Headers {
		client.SetHeader(k, v)
	}

	logger := config.Logger

	c := &Client{
		client:  client,
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		logger:  logger,
	}

	client.AddRequestMiddleware(func(_ *resty.Client, req *resty.Request) error {
		logger.Debug().
			Str("method", req.Method).
			Str("url", req.URL).
			Msg("http request")
		return nil
	})

	client.AddResponseMiddleware(func(_ *resty.Client, resp *resty.Response) error {
		logger.Debug().
			Str("method", resp.Request.Method).
			Str("url", resp.Request.URL).
			Int("status", resp.StatusCode()).
			Int("size", len(resp.Bytes())).
			Msg("http response")
		return nil
	})

	return c, nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.client.Close()
}

// Do executes a single HTTP request. Transport failures are returned as *core.NetworkError;
// any HTTP status, including 4xx and 5xx, is returned as a response for the caller to judge.
func (c *Client) Do(ctx context.Context, method, path string, opts ...RequestOption) (*core.Response, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, core.ErrClientClosed
	}

	req := c.client.R().SetContext(ctx)
	for _, opt := range opts {
		opt(req)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		c.logger.Error().Err(err).
			Str("method", method).
			Str("path", path).
			Msg("http request failed")
		return nil, &core.NetworkError{Method: method, URL: c.baseURL + path, Err: err}
	}

	headers := make(map[string]string)
	for k, v := range resp.Header() {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	return &core.Response{
		StatusCode: resp.StatusCode(),
		Status:     resp.Status(),
		Body:       resp.Bytes(),
		Headers:    headers,
	}, nil
}

func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (*core.Response, error) {
	return c.Do(ctx, "GET", path, opts...)
}

func (c *Client) Post(ctx context.Context, path string, body []byte, opts ...RequestOption) (*core.Response, error) {
	return c.Do(ctx, "POST", path, append([]RequestOption{WithJSONBody(body)}, opts...)...)
}

func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) (*core.Response, error) {
	return c.Do(ctx, "DELETE", path, opts...)
}

func WithHeader(key, value string) RequestOption {
	return func(r *resty.Request) {
		r.SetHeader(key, value)
	}
}

func WithHeaders(headers map[string]string) RequestOption {
	return func(r *resty.Request) {
		r.SetHeaders(headers)
	}
}

func WithQueryParam(key, value string) RequestOption {
	return func(r *resty.Request) {
		r.SetQueryParam(key, value)
	}
}

func WithQuery(values url.Values) RequestOption {
	return func(r *resty.Request) {
		if len(values) > 0 {
			r.SetQueryParamsFromValues(values)
		}
	}
}

// WithJSONBody sends body unchanged. The bytes must already be JSON; they are not re-encoded,
// so what was signed is exactly what goes on the wire.
func WithJSONBody(body []byte) RequestOption {
	return func(r *resty.Request) {
		r.SetHeader("Content-Type", "application/json")
		r.SetBody(body)
	}
}
