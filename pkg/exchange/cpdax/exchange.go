package cpdax

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	httpClient "cpdax/internal/http"
	"cpdax/pkg/core"
	"cpdax/pkg/exchange"
)

// CpdaxExchange implements the Exchange interface for the CPDAX REST API.
// It holds no mutable state besides the HTTP client and is safe for concurrent use.
type CpdaxExchange struct {
	config      *core.Config
	credentials core.Credentials
	httpClient  *httpClient.Client
	logger      zerolog.Logger
	protocol    *Protocol
	now         func() time.Time
}

// Option is a functional option for configuring the CpdaxExchange.
type Option func(*Options)

// Options holds configuration options for the CpdaxExchange.
type Options struct {
	Logger zerolog.Logger
}

// WithLogger returns an option that sets the logger for the exchange.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// New creates a CpdaxExchange from config. Credentials are copied, so later changes to
// config.Credentials have no effect. Without credentials only public calls succeed.
func New(config *core.Config, opts ...Option) (*CpdaxExchange, error) {
	if config == nil {
		return nil, fmt.Errorf("validate config: nil config")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	options := &Options{
		Logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(options)
	}

	logger := options.Logger.With().Str("exchange", "cpdax").Logger()
	if config.LogLevel != "" {
		level, err := zerolog.ParseLevel(config.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		logger = logger.Level(level)
	}

	client, err := httpClient.NewClient(&httpClient.Config{
		BaseURL: config.BaseURL,
		Timeout: config.Timeout,
		Headers: map[string]string{"Accept": "application/json"},
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}

	var creds core.Credentials
	if config.Credentials != nil {
		creds = *config.Credentials
	}

	logger.Debug().
		Str("base_url", config.BaseURL).
		Bool("private", creds.Valid()).
		Str("api_key", creds.MaskedKey()).
		Msg("exchange created")

	return &CpdaxExchange{
		config:      config,
		credentials: creds,
		httpClient:  client,
		logger:      logger,
		protocol:    NewProtocol(config.BaseURL),
		now:         time.Now,
	}, nil
}

// Name returns the exchange identifier "cpdax".
func (e *CpdaxExchange) Name() string {
	return e.protocol.Name()
}

// Version returns the CPDAX API version.
func (e *CpdaxExchange) Version() string {
	return e.protocol.Version()
}

// Close releases resources used by the exchange, including the HTTP client.
func (e *CpdaxExchange) Close() error {
	if e.httpClient != nil {
		return e.httpClient.Close()
	}
	return nil
}

// GetCurrencies lists the currencies traded on the exchange.
func (e *CpdaxExchange) GetCurrencies(ctx context.Context) ([]core.Currency, error) {
	result, err := e.execute(ctx, core.OpGetCurrencies, nil)
	if err != nil {
		return nil, err
	}

	currencies, ok := result.([]core.Currency)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	return currencies, nil
}

// GetProducts lists the tradable currency pairs.
func (e *CpdaxExchange) GetProducts(ctx context.Context) ([]core.Product, error) {
	result, err := e.execute(ctx, core.OpGetProducts, nil)
	if err != nil {
		return nil, err
	}

	products, ok := result.([]core.Product)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	return products, nil
}

// GetTickers retrieves the ticker of every product.
func (e *CpdaxExchange) GetTickers(ctx context.Context) ([]core.Ticker, error) {
	result, err := e.execute(ctx, core.OpGetTickers, nil)
	if err != nil {
		return nil, err
	}

	tickers, ok := result.([]core.Ticker)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	return tickers, nil
}

// GetTickersDetailed retrieves the detailed ticker of every product.
func (e *CpdaxExchange) GetTickersDetailed(ctx context.Context) ([]core.TickerDetail, error) {
	result, err := e.execute(ctx, core.OpGetTickersDetailed, nil)
	if err != nil {
		return nil, err
	}

	details, ok := result.([]core.TickerDetail)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	return details, nil
}

// GetTicker retrieves the current ticker for the specified product.
func (e *CpdaxExchange) GetTicker(ctx context.Context, productID string) (*core.Ticker, error) {
	result, err := e.execute(ctx, core.OpGetTicker, core.Params{{Key: "product_id", Value: productID}})
	if err != nil {
		return nil, err
	}

	ticker, ok := result.(*core.Ticker)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}

	ticker.ProductID = productID
	return ticker, nil
}

// GetTickerDetailed retrieves the detailed ticker for the specified product.
func (e *CpdaxExchange) GetTickerDetailed(ctx context.Context, productID string) (*core.TickerDetail, error) {
	result, err := e.execute(ctx, core.OpGetTickerDetailed, core.Params{{Key: "product_id", Value: productID}})
	if err != nil {
		return nil, err
	}

	detail, ok := result.(*core.TickerDetail)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}

	detail.ProductID = productID
	return detail, nil
}

// GetTrades retrieves recent trades for the specified product.
// WithTimeRange and WithLimit narrow the query.
func (e *CpdaxExchange) GetTrades(ctx context.Context, productID string, opts ...exchange.Option) ([]core.Trade, error) {
	options := exchange.ApplyOptions(opts...)

	params := core.Params{{Key: "product_id", Value: productID}}
	if !options.StartTime.IsZero() {
		params.Set("start", options.StartTime.Unix())
	}
	if !options.EndTime.IsZero() {
		params.Set("end", options.EndTime.Unix())
	}
	if options.Limit > 0 {
		params.Set("limit", options.Limit)
	}

	result, err := e.execute(ctx, core.OpGetTrades, params)
	if err != nil {
		return nil, err
	}

	trades, ok := result.([]core.Trade)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}

	for i := range trades {
		trades[i].ProductID = productID
	}
	return trades, nil
}

// GetOrderBook retrieves the order book for the specified product.
// The depth defaults to 50 levels unless WithLimit is given.
func (e *CpdaxExchange) GetOrderBook(ctx context.Context, productID string, opts ...exchange.Option) (*core.OrderBook, error) {
	options := exchange.ApplyOptions(opts...)

	params := core.Params{{Key: "product_id", Value: productID}}
	if options.Limit > 0 {
		params.Set("limit", options.Limit)
	}

	result, err := e.execute(ctx, core.OpGetOrderBook, params)
	if err != nil {
		return nil, err
	}

	orderBook, ok := result.(*core.OrderBook)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}

	orderBook.ProductID = productID
	return orderBook, nil
}

// GetOrders lists the account's orders on a product, filtered by WithSide, WithPage and WithLimit.
func (e *CpdaxExchange) GetOrders(ctx context.Context, productID string, opts ...exchange.Option) ([]core.Order, error) {
	options := exchange.ApplyOptions(opts...)

	params := core.Params{{Key: "product_id", Value: productID}}
	if options.Side != "" {
		params.Set("side", options.Side.String())
	}
	if options.Page > 0 {
		params.Set("page", options.Page)
	}
	if options.Limit > 0 {
		params.Set("limit", options.Limit)
	}

	result, err := e.execute(ctx, core.OpGetOrders, params)
	if err != nil {
		return nil, err
	}

	orders, ok := result.([]core.Order)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	return orders, nil
}

// GetOrder retrieves a single order.
func (e *CpdaxExchange) GetOrder(ctx context.Context, productID, orderID string) (*core.Order, error) {
	params := core.Params{
		{Key: "product_id", Value: productID},
		{Key: "order_id", Value: orderID},
	}

	result, err := e.execute(ctx, core.OpGetOrder, params)
	if err != nil {
		return nil, err
	}

	order, ok := result.(*core.Order)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	return order, nil
}

// CancelOrder cancels a single order.
func (e *CpdaxExchange) CancelOrder(ctx context.Context, productID, orderID string) (*core.CancelResult, error) {
	params := core.Params{
		{Key: "product_id", Value: productID},
		{Key: "order_id", Value: orderID},
	}

	result, err := e.execute(ctx, core.OpCancelOrder, params)
	if err != nil {
		return nil, err
	}

	cancelled, ok := result.(*core.CancelResult)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	return cancelled, nil
}

// CancelAllOrders cancels every open order on a product, or only one side with WithSide.
func (e *CpdaxExchange) CancelAllOrders(ctx context.Context, productID string, opts ...exchange.Option) (*core.CancelResult, error) {
	options := exchange.ApplyOptions(opts...)

	params := core.Params{{Key: "product_id", Value: productID}}
	if options.Side != "" {
		params.Set("side", options.Side.String())
	}

	result, err := e.execute(ctx, core.OpCancelAllOrders, params)
	if err != nil {
		return nil, err
	}

	cancelled, ok := result.(*core.CancelResult)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	return cancelled, nil
}

// GetFeeRates retrieves the account's maker and taker fees.
func (e *CpdaxExchange) GetFeeRates(ctx context.Context) ([]core.FeeRate, error) {
	result, err := e.execute(ctx, core.OpGetFeeRates, nil)
	if err != nil {
		return nil, err
	}

	rates, ok := result.([]core.FeeRate)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	return rates, nil
}

// GetBalance retrieves account balances for all currencies.
func (e *CpdaxExchange) GetBalance(ctx context.Context) ([]core.Balance, error) {
	result, err := e.execute(ctx, core.OpGetBalance, nil)
	if err != nil {
		return nil, err
	}

	balances, ok := result.([]core.Balance)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	return balances, nil
}

// execute builds, dispatches and parses a single call.
func (e *CpdaxExchange) execute(ctx context.Context, op core.Operation, params core.Params) (any, error) {
	log := e.logger.With().
		Str("op", op.String()).
		Str("request_id", uuid.New().String()).
		Logger()

	req, err := e.protocol.BuildRequest(ctx, op, params)
	if err != nil {
		log.Debug().Err(err).Msg("build request failed")
		return nil, fmt.Errorf("build request: %w", err)
	}

	var resp *core.Response
	if req.RequireAuth {
		resp, err = e.doSignedRequest(ctx, req, log)
	} else {
		resp, err = e.doRequest(ctx, req, log)
	}
	if err != nil {
		log.Warn().Err(err).Msg("request failed")
		return nil, err
	}

	result, err := e.protocol.ParseResponse(op, resp)
	if err != nil {
		log.Warn().Err(err).Int("status", resp.StatusCode).Msg("call failed")
		return nil, fmt.Errorf("parse response: %w", err)
	}

	log.Debug().Int("status", resp.StatusCode).Msg("call completed")
	return result, nil
}

func (e *CpdaxExchange) doRequest(ctx context.Context, req *core.Request, log zerolog.Logger) (*core.Response, error) {
	log.Debug().Str("method", req.Method).Str("path", req.Path).Msg("public request")
	return e.dispatch(ctx, req)
}

// doSignedRequest refuses to send anything when the key or the secret is missing.
func (e *CpdaxExchange) doSignedRequest(ctx context.Context, req *core.Request, log zerolog.Logger) (*core.Response, error) {
	if !e.credentials.Valid() {
		return nil, core.ErrNoCredentials
	}

	timestamp := e.now().Unix()
	if err := e.protocol.SignRequest(req, e.credentials, timestamp); err != nil {
		return nil, fmt.Errorf("sign request: %w", err)
	}

	log.Debug().
		Str("method", req.Method).
		Str("path", req.Path).
		Str("api_key", e.credentials.MaskedKey()).
		Int64("timestamp", timestamp).
		Msg("signed request")

	return e.dispatch(ctx, req)
}

func (e *CpdaxExchange) dispatch(ctx context.Context, req *core.Request) (*core.Response, error) {
	path := "/" + APIVersion + "/" + req.Path
	opts := e.buildRequestOptions(req)

	switch req.Method {
	case http.MethodGet:
		return e.httpClient.Get(ctx, path, opts...)
	case http.MethodPost:
		payload, err := req.Payload()
		if err != nil {
			return nil, err
		}
		return e.httpClient.Post(ctx, path, payload, opts...)
	case http.MethodDelete:
		return e.httpClient.Delete(ctx, path, opts...)
	default:
		return nil, fmt.Errorf("unsupported method: %s", req.Method)
	}
}

func (e *CpdaxExchange) buildRequestOptions(req *core.Request) []httpClient.RequestOption {
	opts := []httpClient.RequestOption{httpClient.WithHeaders(req.Headers)}
	if len(req.Query) > 0 {
		opts = append(opts, httpClient.WithQuery(req.Query.Values()))
	}
	return opts
}
