package cpdax

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"

	"cpdax/pkg/core"
)

const (
	ProductionURL = "https://api.cpdax.com"
	APIVersion    = "v1"

	defaultOrderBookLimit = 50
)

// Authentication headers of a private call.
const (
	HeaderAccessKey       = "CP-ACCESS-KEY"
	HeaderAccessTimestamp = "CP-ACCESS-TIMESTAMP"
	HeaderAccessDigest    = "CP-ACCESS-DIGEST"
)

// Protocol implements the core.Protocol interface for the CPDAX REST API.
type Protocol struct {
	baseURL    string
	normalizer *Normalizer
}

// NewProtocol creates a protocol for the API at baseURL. An empty baseURL selects ProductionURL.
func NewProtocol(baseURL string) *Protocol {
	if baseURL == "" {
		baseURL = ProductionURL
	}
	return &Protocol{
		baseURL:    strings.TrimRight(baseURL, "/"),
		normalizer: NewNormalizer(),
	}
}

// Name returns the protocol identifier "cpdax".
func (p *Protocol) Name() string {
	return "cpdax"
}

// Version returns the CPDAX API version string.
func (p *Protocol) Version() string {
	return APIVersion
}

func (p *Protocol) BaseURL() string {
	return p.baseURL
}

// SupportedOperations returns the list of operations supported by this protocol.
func (p *Protocol) SupportedOperations() []core.Operation {
	return []core.Operation{
		core.OpGetCurrencies,
		core.OpGetProducts,
		core.OpGetTickers,
		core.OpGetTickersDetailed,
		core.OpGetTicker,
		core.OpGetTickerDetailed,
		core.OpGetTrades,
		core.OpGetOrderBook,
		core.OpPlaceOrder,
		core.OpGetOrders,
		core.OpGetOrder,
		core.OpCancelOrder,
		core.OpCancelAllOrders,
		core.OpGetFeeRates,
		core.OpGetBalance,
	}
}

// BuildRequest constructs the request for op. Query keys are only set when present in params.
func (p *Protocol) BuildRequest(ctx context.Context, op core.Operation, params core.Params) (*core.Request, error) {
	switch op {
	case core.OpGetCurrencies:
		return core.NewRequest(http.MethodGet, "currencies"), nil
	case core.OpGetProducts:
		return core.NewRequest(http.MethodGet, "products"), nil
	case core.OpGetTickers:
		return core.NewRequest(http.MethodGet, "tickers"), nil
	case core.OpGetTickersDetailed:
		return core.NewRequest(http.MethodGet, "tickers/detailed"), nil
	case core.OpGetTicker:
		return p.buildProductRequest(http.MethodGet, "tickers/%s", params)
	case core.OpGetTickerDetailed:
		return p.buildProductRequest(http.MethodGet, "tickers/%s/detailed", params)
	case core.OpGetTrades:
		return p.buildGetTradesRequest(params)
	case core.OpGetOrderBook:
		return p.buildGetOrderBookRequest(params)
	case core.OpPlaceOrder:
		return p.buildPlaceOrderRequest(params)
	case core.OpGetOrders:
		return p.buildGetOrdersRequest(params)
	case core.OpGetOrder:
		return p.buildOrderRequest(http.MethodGet, params)
	case core.OpCancelOrder:
		return p.buildOrderRequest(http.MethodDelete, params)
	case core.OpCancelAllOrders:
		return p.buildCancelAllOrdersRequest(params)
	case core.OpGetFeeRates:
		return core.NewRequest(http.MethodGet, "fee-rates").SetRequireAuth(true), nil
	case core.OpGetBalance:
		return core.NewRequest(http.MethodGet, "balance").SetRequireAuth(true), nil
	default:
		return nil, fmt.Errorf("unsupported operation: %s", op)
	}
}

// ParseResponse maps error statuses to *core.ExchangeError and decodes successful bodies
// into the canonical type of op.
func (p *Protocol) ParseResponse(op core.Operation, resp *core.Response) (any, error) {
	if resp == nil {
		return nil, fmt.Errorf("nil response")
	}

	if !resp.IsSuccess() {
		return nil, p.parseError(resp)
	}

	n := p.normalizer

	if op == core.OpCancelOrder || op == core.OpCancelAllOrders {
		return n.NormalizeCancel(resp.Body)
	}

	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil, fmt.Errorf("empty response body")
	}

	switch op {
	case core.OpGetCurrencies:
		var data []cpdaxCurrency
		if err := resp.Unmarshal(&data); err != nil {
			return nil, fmt.Errorf("unmarshal currencies: %w", err)
		}
		return n.NormalizeCurrencies(data)

	case core.OpGetProducts:
		var data []cpdaxProduct
		if err := resp.Unmarshal(&data); err != nil {
			return nil, fmt.Errorf("unmarshal products: %w", err)
		}
		return n.NormalizeProducts(data)

	case core.OpGetTickers:
		var data []cpdaxTicker
		if err := resp.Unmarshal(&data); err != nil {
			return nil, fmt.Errorf("unmarshal tickers: %w", err)
		}
		return n.NormalizeTickers(data)

	case core.OpGetTickersDetailed:
		var data []cpdaxTicker
		if err := resp.Unmarshal(&data); err != nil {
			return nil, fmt.Errorf("unmarshal tickers: %w", err)
		}
		return n.NormalizeTickerDetails(data)

	case core.OpGetTicker:
		var data cpdaxTicker
		if err := resp.Unmarshal(&data); err != nil {
			return nil, fmt.Errorf("unmarshal ticker: %w", err)
		}
		return n.NormalizeTicker(&data, "")

	case core.OpGetTickerDetailed:
		var data cpdaxTicker
		if err := resp.Unmarshal(&data); err != nil {
			return nil, fmt.Errorf("unmarshal ticker: %w", err)
		}
		return n.NormalizeTickerDetail(&data, "")

	case core.OpGetTrades:
		var data []cpdaxTrade
		if err := resp.Unmarshal(&data); err != nil {
			return nil, fmt.Errorf("unmarshal trades: %w", err)
		}
		return n.NormalizeTrades(data, "")

	case core.OpGetOrderBook:
		var data cpdaxOrderBook
		if err := resp.Unmarshal(&data); err != nil {
			return nil, fmt.Errorf("unmarshal order book: %w", err)
		}
		return n.NormalizeOrderBook(&data, "")

	case core.OpPlaceOrder, core.OpGetOrder:
		var data cpdaxOrder
		if err := resp.Unmarshal(&data); err != nil {
			return nil, fmt.Errorf("unmarshal order: %w", err)
		}
		return n.NormalizeOrder(&data)

	case core.OpGetOrders:
		var data []cpdaxOrder
		if err := resp.Unmarshal(&data); err != nil {
			return nil, fmt.Errorf("unmarshal orders: %w", err)
		}
		return n.NormalizeOrders(data)

	case core.OpGetFeeRates:
		var data []cpdaxFeeRate
		if err := resp.Unmarshal(&data); err != nil {
			return nil, fmt.Errorf("unmarshal fee rates: %w", err)
		}
		return n.NormalizeFeeRates(data)

	case core.OpGetBalance:
		var data []cpdaxBalance
		if err := resp.Unmarshal(&data); err != nil {
			return nil, fmt.Errorf("unmarshal balance: %w", err)
		}
		return n.NormalizeBalances(data)

	default:
		return nil, fmt.Errorf("unsupported operation: %s", op)
	}
}

func (p *Protocol) parseError(resp *core.Response) error {
	errType := core.ErrorTypeForStatus(resp.StatusCode)

	message := resp.Status
	if message == "" {
		message = fmt.Sprintf("HTTP error: %d", resp.StatusCode)
	}
	var apiErr cpdaxAPIError
	if err := sonic.Unmarshal(resp.Body, &apiErr); err == nil {
		if text := apiErr.text(); text != "" {
			message = text
		}
	}

	return core.NewExchangeError(p.Name(), errType, resp.StatusCode, message).
		WithCode(core.CodeForType(errType)).
		WithBody(resp.Body)
}

// CanonicalString returns the string that is signed for req.
func (p *Protocol) CanonicalString(req *core.Request, apiKey string, timestamp int64) (string, error) {
	var body []byte
	if req.Method == http.MethodPost {
		payload, err := req.Payload()
		if err != nil {
			return "", err
		}
		body = payload
	}
	return CanonicalString(apiKey, timestamp, req.Method, req.Path, body), nil
}

// SignRequest sets the CP-ACCESS-* headers on req. timestamp is in seconds.
func (p *Protocol) SignRequest(req *core.Request, creds core.Credentials, timestamp int64) error {
	if !creds.Valid() {
		return core.ErrNoCredentials
	}

	message, err := p.CanonicalString(req, creds.APIKey, timestamp)
	if err != nil {
		return fmt.Errorf("canonical string: %w", err)
	}

	req.SetHeader(HeaderAccessKey, creds.APIKey)
	req.SetHeader(HeaderAccessTimestamp, strconv.FormatInt(timestamp, 10))
	req.SetHeader(HeaderAccessDigest, HexDigest(message, creds.SecretKey))

	return nil
}

func (p *Protocol) buildProductRequest(method, pathFormat string, params core.Params) (*core.Request, error) {
	productID, err := getRequiredStringParam(params, "product_id")
	if err != nil {
		return nil, err
	}
	return core.NewRequest(method, fmt.Sprintf(pathFormat, url.PathEscape(productID))), nil
}

func (p *Protocol) buildGetTradesRequest(params core.Params) (*core.Request, error) {
	req, err := p.buildProductRequest(http.MethodGet, "trades/%s", params)
	if err != nil {
		return nil, err
	}
	copyParams(req, params, "start", "end", "limit")
	return req, nil
}

func (p *Protocol) buildGetOrderBookRequest(params core.Params) (*core.Request, error) {
	req, err := p.buildProductRequest(http.MethodGet, "orderbook/%s", params)
	if err != nil {
		return nil, err
	}
	req.SetQuery("limit", getIntParamWithDefault(params, "limit", defaultOrderBookLimit))
	return req, nil
}

// buildPlaceOrderRequest lays the body out as type, side, product_id, then the amounts.
// The amounts are expected to have been validated already.
func (p *Protocol) buildPlaceOrderRequest(params core.Params) (*core.Request, error) {
	body := core.Params{}
	for _, key := range []string{"type", "side", "product_id"} {
		val, err := getRequiredStringParam(params, key)
		if err != nil {
			return nil, err
		}
		body.Set(key, val)
	}
	for _, key := range []string{"price", "size", "funds"} {
		if val, ok := params.Get(key); ok && val != nil {
			body.Set(key, core.FormatParam(val))
		}
	}

	req := core.NewRequest(http.MethodPost, "orders")
	req.SetBody(body)
	req.SetRequireAuth(true)
	return req, nil
}

func (p *Protocol) buildGetOrdersRequest(params core.Params) (*core.Request, error) {
	req, err := p.buildProductRequest(http.MethodGet, "orders/%s", params)
	if err != nil {
		return nil, err
	}
	copyParams(req, params, "side", "page", "limit")
	req.SetRequireAuth(true)
	return req, nil
}

func (p *Protocol) buildOrderRequest(method string, params core.Params) (*core.Request, error) {
	productID, err := getRequiredStringParam(params, "product_id")
	if err != nil {
		return nil, err
	}
	orderID, err := getRequiredStringParam(params, "order_id")
	if err != nil {
		return nil, err
	}

	path := "orders/" + url.PathEscape(productID) + "/" + url.PathEscape(orderID)
	return core.NewRequest(method, path).SetRequireAuth(true), nil
}

func (p *Protocol) buildCancelAllOrdersRequest(params core.Params) (*core.Request, error) {
	req, err := p.buildProductRequest(http.MethodDelete, "orders/%s", params)
	if err != nil {
		return nil, err
	}
	copyParams(req, params, "side")
	req.SetRequireAuth(true)
	return req, nil
}

// copyParams moves the named keys into the query, in the given order, skipping absent ones.
func copyParams(req *core.Request, params core.Params, keys ...string) {
	for _, key := range keys {
		if val, ok := params.Get(key); ok && val != nil {
			req.SetQuery(key, val)
		}
	}
}

func getRequiredStringParam(params core.Params, key string) (string, error) {
	field := strings.ReplaceAll(key, "_", " ")

	val, ok := params.Get(key)
	if !ok {
		return "", core.NewValidationError(key, "missing "+field)
	}

	var str string
	switch v := val.(type) {
	case string:
		str = v
	case fmt.Stringer:
		str = v.String()
	default:
		return "", core.NewValidationError(key, fmt.Sprintf("%s must be a string", field))
	}

	if str == "" {
		return "", core.NewValidationError(key, "missing "+field)
	}

	return str, nil
}

func getIntParamWithDefault(params core.Params, key string, def int) int {
	if val, ok := params.Get(key); ok {
		if i, ok := val.(int); ok && i > 0 {
			return i
		}
	}
	return def
}
