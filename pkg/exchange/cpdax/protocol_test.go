package cpdax

import (
	"context"
	"testing"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpdax/pkg/core"
)

func TestProtocol_Identity(t *testing.T) {
	p := NewProtocol("")

	assert.Equal(t, "cpdax", p.Name())
	assert.Equal(t, "v1", p.Version())
	assert.Equal(t, ProductionURL, p.BaseURL())
	assert.Equal(t, "http://127.0.0.1:8080", NewProtocol("http://127.0.0.1:8080/").BaseURL())
	assert.Len(t, p.SupportedOperations(), 15)
}

var _ core.Protocol = (*Protocol)(nil)

func TestProtocol_BuildRequest_Paths(t *testing.T) {
	product := core.Params{{Key: "product_id", Value: "ETH-BTC"}}
	order := core.Params{{Key: "product_id", Value: "ETH-BTC"}, {Key: "order_id", Value: "abc"}}

	tests := []struct {
		name   string
		op     core.Operation
		params core.Params
		method string
		path   string
		auth   bool
	}{
		{"currencies", core.OpGetCurrencies, nil, "GET", "currencies", false},
		{"products", core.OpGetProducts, nil, "GET", "products", false},
		{"tickers", core.OpGetTickers, nil, "GET", "tickers", false},
		{"tickers_detailed", core.OpGetTickersDetailed, nil, "GET", "tickers/detailed", false},
		{"ticker", core.OpGetTicker, product, "GET", "tickers/ETH-BTC", false},
		{"ticker_detailed", core.OpGetTickerDetailed, product, "GET", "tickers/ETH-BTC/detailed", false},
		{"trades", core.OpGetTrades, product, "GET", "trades/ETH-BTC", false},
		{"orderbook", core.OpGetOrderBook, product, "GET", "orderbook/ETH-BTC", false},
		{"orders", core.OpGetOrders, product, "GET", "orders/ETH-BTC", true},
		{"order", core.OpGetOrder, order, "GET", "orders/ETH-BTC/abc", true},
		{"cancel_order", core.OpCancelOrder, order, "DELETE", "orders/ETH-BTC/abc", true},
		{"cancel_all", core.OpCancelAllOrders, product, "DELETE", "orders/ETH-BTC", true},
		{"fee_rates", core.OpGetFeeRates, nil, "GET", "fee-rates", true},
		{"balance", core.OpGetBalance, nil, "GET", "balance", true},
	}

	p := NewProtocol("")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := p.BuildRequest(context.Background(), tt.op, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.method, req.Method)
			assert.Equal(t, tt.path, req.Path)
			assert.Equal(t, tt.auth, req.RequireAuth)
			assert.Empty(t, req.Body)
		})
	}
}

func TestProtocol_BuildRequest_MissingIDs(t *testing.T) {
	p := NewProtocol("")

	tests := []struct {
		name   string
		op     core.Operation
		params core.Params
		msg    string
	}{
		{"ticker_no_product", core.OpGetTicker, nil, "missing product id"},
		{"trades_empty_product", core.OpGetTrades, core.Params{{Key: "product_id", Value: ""}}, "missing product id"},
		{"order_no_order_id", core.OpGetOrder, core.Params{{Key: "product_id", Value: "ETH-BTC"}}, "missing order id"},
		{"cancel_empty_order_id", core.OpCancelOrder, core.Params{{Key: "product_id", Value: "ETH-BTC"}, {Key: "order_id", Value: ""}}, "missing order id"},
		{"product_not_string", core.OpGetOrderBook, core.Params{{Key: "product_id", Value: 42}}, "product id must be a string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.BuildRequest(context.Background(), tt.op, tt.params)
			require.Error(t, err)
			assert.True(t, core.IsValidationError(err))
			assert.EqualError(t, err, tt.msg)
		})
	}
}

func TestProtocol_BuildRequest_Unsupported(t *testing.T) {
	_, err := NewProtocol("").BuildRequest(context.Background(), core.Operation(99), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported operation")
}

func TestProtocol_BuildRequest_QueryOmitsAbsentKeys(t *testing.T) {
	p := NewProtocol("")

	req, err := p.BuildRequest(context.Background(), core.OpGetTrades, core.Params{{Key: "product_id", Value: "ETH-BTC"}})
	require.NoError(t, err)
	assert.Empty(t, req.Query)

	req, err = p.BuildRequest(context.Background(), core.OpGetTrades, core.Params{
		{Key: "product_id", Value: "ETH-BTC"},
		{Key: "limit", Value: 10},
		{Key: "start", Value: int64(1700000000)},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"start", "limit"}, req.Query.Keys())
	assert.Equal(t, "1700000000", req.Query.Values().Get("start"))
	assert.Equal(t, "10", req.Query.Values().Get("limit"))

	req, err = p.BuildRequest(context.Background(), core.OpGetOrders, core.Params{
		{Key: "product_id", Value: "ETH-BTC"},
		{Key: "limit", Value: 10},
		{Key: "side", Value: "sell"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"side", "limit"}, req.Query.Keys())

	req, err = p.BuildRequest(context.Background(), core.OpCancelAllOrders, core.Params{{Key: "product_id", Value: "ETH-BTC"}})
	require.NoError(t, err)
	assert.Empty(t, req.Query)
}

func TestProtocol_BuildRequest_OrderBookDefaultLimit(t *testing.T) {
	p := NewProtocol("")

	req, err := p.BuildRequest(context.Background(), core.OpGetOrderBook, core.Params{{Key: "product_id", Value: "ETH-BTC"}})
	require.NoError(t, err)
	assert.Equal(t, "50", req.Query.Values().Get("limit"))

	req, err = p.BuildRequest(context.Background(), core.OpGetOrderBook, core.Params{
		{Key: "product_id", Value: "ETH-BTC"},
		{Key: "limit", Value: 5},
	})
	require.NoError(t, err)
	assert.Equal(t, "5", req.Query.Values().Get("limit"))
}

func TestProtocol_BuildRequest_PlaceOrder(t *testing.T) {
	price, _, err := apd.NewFromString("0.05094476")
	require.NoError(t, err)
	size := apd.New(1000, 0)

	req, err := NewProtocol("").BuildRequest(context.Background(), core.OpPlaceOrder, core.Params{
		{Key: "product_id", Value: "ETH-BTC"},
		{Key: "size", Value: size},
		{Key: "price", Value: price},
		{Key: "side", Value: core.SideBuy},
		{Key: "type", Value: core.TypeLimit},
	})
	require.NoError(t, err)

	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "orders", req.Path)
	assert.True(t, req.RequireAuth)
	assert.Empty(t, req.Query)

	payload, err := req.Payload()
	require.NoError(t, err)
	assert.Equal(t,
		`{"type":"limit","side":"buy","product_id":"ETH-BTC","price":"0.05094476","size":"1000"}`,
		string(payload))
}

func TestProtocol_SignRequest(t *testing.T) {
	p := NewProtocol("")

	req, err := p.BuildRequest(context.Background(), core.OpGetBalance, nil)
	require.NoError(t, err)

	err = p.SignRequest(req, core.Credentials{APIKey: "k", SecretKey: "s"}, 1000)
	require.NoError(t, err)

	assert.Equal(t, "k", req.Headers[HeaderAccessKey])
	assert.Equal(t, "1000", req.Headers[HeaderAccessTimestamp])
	assert.Equal(t, "d260c8b9a2beb430ec915b7acc26a9d89659708aa7e9545f0ee602ffc233b5ae", req.Headers[HeaderAccessDigest])
}

func TestProtocol_SignRequest_Delete(t *testing.T) {
	p := NewProtocol("")

	req, err := p.BuildRequest(context.Background(), core.OpCancelOrder, core.Params{
		{Key: "product_id", Value: "ETH-BTC"},
		{Key: "order_id", Value: "abc"},
	})
	require.NoError(t, err)

	require.NoError(t, p.SignRequest(req, core.Credentials{APIKey: "key", SecretKey: "secret"}, 1700000000))
	assert.Equal(t, "0a4daa50f7d6e95187755a14110755a4db2d797e7ed3c307a8b307dfbdec4ced", req.Headers[HeaderAccessDigest])
}

func TestProtocol_SignRequest_QueryNotSigned(t *testing.T) {
	p := NewProtocol("")

	plain, err := p.BuildRequest(context.Background(), core.OpGetOrders, core.Params{{Key: "product_id", Value: "ETH-BTC"}})
	require.NoError(t, err)
	filtered, err := p.BuildRequest(context.Background(), core.OpGetOrders, core.Params{
		{Key: "product_id", Value: "ETH-BTC"},
		{Key: "side", Value: "sell"},
	})
	require.NoError(t, err)

	creds := core.Credentials{APIKey: "k", SecretKey: "s"}
	require.NoError(t, p.SignRequest(plain, creds, 1000))
	require.NoError(t, p.SignRequest(filtered, creds, 1000))

	assert.Equal(t, plain.Headers[HeaderAccessDigest], filtered.Headers[HeaderAccessDigest])
}

func TestProtocol_CanonicalString_PostBody(t *testing.T) {
	p := NewProtocol("")
	req := core.NewRequest("POST", "orders").SetBody(core.Params{
		{Key: "a", Value: 1},
		{Key: "b", Value: 2},
	})

	s, err := p.CanonicalString(req, "k", 1000)
	require.NoError(t, err)
	assert.Equal(t, `k1000POST/v1/orders{"a":1,"b":2}`, s)

	require.NoError(t, p.SignRequest(req, core.Credentials{APIKey: "k", SecretKey: "s"}, 1000))
	assert.Equal(t, "68806c85ae1dd300c0a30595ca1b4f8ef1fae2479a0cbc6471af69834a7a55ab", req.Headers[HeaderAccessDigest])
}

func TestProtocol_SignRequest_NoCredentials(t *testing.T) {
	p := NewProtocol("")
	req := core.NewRequest("GET", "balance")

	err := p.SignRequest(req, core.Credentials{APIKey: "k"}, 1000)
	assert.ErrorIs(t, err, core.ErrNoCredentials)
	assert.Empty(t, req.Headers)
}

func TestProtocol_ParseResponse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantType core.ErrorType
		wantMsg  string
	}{
		{"message_field", 400, `{"message":"Invalid size"}`, core.ErrorTypeBadRequest, "Invalid size"},
		{"error_field", 401, `{"error":"invalid signature"}`, core.ErrorTypeAuthentication, "invalid signature"},
		{"not_json", 502, `<html>bad gateway</html>`, core.ErrorTypeServerError, "502 Bad Gateway"},
		{"not_found", 404, `{"message":"order not found"}`, core.ErrorTypeNotFound, "order not found"},
		{"rate_limited", 429, ``, core.ErrorTypeRateLimit, "429 Too Many Requests"},
	}

	p := NewProtocol("")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &core.Response{
				StatusCode: tt.status,
				Status:     statusLine(tt.status),
				Body:       []byte(tt.body),
			}

			_, err := p.ParseResponse(core.OpGetBalance, resp)
			require.Error(t, err)

			var exErr *core.ExchangeError
			require.ErrorAs(t, err, &exErr)
			assert.Equal(t, tt.wantType, exErr.Type)
			assert.Equal(t, tt.status, exErr.StatusCode)
			assert.Equal(t, tt.wantMsg, exErr.Message)
			assert.Equal(t, tt.body, string(exErr.Body))
			assert.Equal(t, "cpdax", exErr.Exchange)
		})
	}
}

func TestProtocol_ParseResponse_EmptyBody(t *testing.T) {
	p := NewProtocol("")

	_, err := p.ParseResponse(core.OpGetBalance, &core.Response{StatusCode: 200})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response body")

	result, err := p.ParseResponse(core.OpCancelOrder, &core.Response{StatusCode: 200})
	require.NoError(t, err)
	assert.Empty(t, result.(*core.CancelResult).OrderIDs)

	_, err = p.ParseResponse(core.OpGetBalance, nil)
	require.Error(t, err)
}

func TestProtocol_ParseResponse_Malformed(t *testing.T) {
	_, err := NewProtocol("").ParseResponse(core.OpGetTickers, &core.Response{StatusCode: 200, Body: []byte(`{"not":"a list"`)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal tickers")
}

func statusLine(code int) string {
	switch code {
	case 400:
		return "400 Bad Request"
	case 401:
		return "401 Unauthorized"
	case 404:
		return "404 Not Found"
	case 429:
		return "429 Too Many Requests"
	case 502:
		return "502 Bad Gateway"
	default:
		return ""
	}
}
