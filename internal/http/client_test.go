package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpdax/pkg/core"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(&Config{BaseURL: baseURL, Logger: zerolog.Nop()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewClient_InvalidConfig(t *testing.T) {
	_, err := NewClient(&Config{BaseURL: ""})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")

	_, err = NewClient(&Config{BaseURL: "https://api.cpdax.com", Timeout: -time.Second})
	require.Error(t, err)
}

func TestClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/trades/ETH-BTC", r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Equal(t, "test-value", r.Header.Get("X-Custom-Header"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"result":"success"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	resp, err := client.Get(context.Background(), "/v1/trades/ETH-BTC",
		WithQuery(url.Values{"limit": {"10"}}),
		WithHeader("X-Custom-Header", "test-value"))

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.True(t, resp.IsSuccess())
	assert.Equal(t, `{"result":"success"}`, string(resp.Body))
}

func TestClient_Get_NoQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.Get(context.Background(), "/v1/balance", WithQuery(nil))
	require.NoError(t, err)
}

func TestClient_Post_RawBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Equal(t, `{"b":2,"a":1}`, string(body))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"1"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	resp, err := client.Post(context.Background(), "/v1/orders", []byte(`{"b":2,"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)
}

func TestClient_Delete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/v1/orders/ETH-BTC/123", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	resp, err := client.Delete(context.Background(), "/v1/orders/ETH-BTC/123")
	require.NoError(t, err)
	assert.Equal(t, 204, resp.StatusCode)
}

func TestClient_ErrorStatusIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"message":"maintenance"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	resp, err := client.Get(context.Background(), "/v1/tickers")
	require.NoError(t, err)
	assert.True(t, resp.IsError())
	assert.Equal(t, 503, resp.StatusCode)
	assert.Equal(t, `{"message":"maintenance"}`, string(resp.Body))
	assert.Equal(t, int32(1), hits.Load())
}

func TestClient_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	client := newTestClient(t, baseURL)

	_, err := client.Get(context.Background(), "/v1/tickers")
	require.Error(t, err)
	assert.True(t, core.IsNetworkError(err))
}

func TestClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Get(ctx, "/v1/tickers")
	require.Error(t, err)
	assert.True(t, core.IsNetworkError(err))
	assert.True(t, core.IsTimeoutError(err))
}

func TestClient_Closed(t *testing.T) {
	client, err := NewClient(&Config{BaseURL: "https://api.cpdax.com"})
	require.NoError(t, err)

	require.NoError(t, client.Close())
	require.NoError(t, client.Close())

	_, err = client.Get(context.Background(), "/v1/tickers")
	assert.ErrorIs(t, err, core.ErrClientClosed)
}
