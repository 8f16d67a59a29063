package exchange

import (
	"context"

	"github.com/cockroachdb/apd/v3"

	"cpdax/pkg/core"
)

// Exchange defines the REST surface of a spot exchange client.
// Market data calls are public; account and order calls require credentials.
type Exchange interface {
	Name() string
	Version() string

	GetCurrencies(ctx context.Context) ([]core.Currency, error)
	GetProducts(ctx context.Context) ([]core.Product, error)
	GetTickers(ctx context.Context) ([]core.Ticker, error)
	GetTickersDetailed(ctx context.Context) ([]core.TickerDetail, error)
	GetTicker(ctx context.Context, productID string) (*core.Ticker, error)
	GetTickerDetailed(ctx context.Context, productID string) (*core.TickerDetail, error)
	GetTrades(ctx context.Context, productID string, opts ...Option) ([]core.Trade, error)
	GetOrderBook(ctx context.Context, productID string, opts ...Option) (*core.OrderBook, error)

	CreateOrder(ctx context.Context, req *OrderRequest) (*core.Order, error)
	GetOrders(ctx context.Context, productID string, opts ...Option) ([]core.Order, error)
	GetOrder(ctx context.Context, productID, orderID string) (*core.Order, error)
	CancelOrder(ctx context.Context, productID, orderID string) (*core.CancelResult, error)
	CancelAllOrders(ctx context.Context, productID string, opts ...Option) (*core.CancelResult, error)

	GetFeeRates(ctx context.Context) ([]core.FeeRate, error)
	GetBalance(ctx context.Context) ([]core.Balance, error)
}

// OrderRequest contains the parameters required to place a new order.
// Type and Side are kept as raw strings so unknown values are rejected by validation
// rather than by the compiler. A nil amount means the field was not supplied.
type OrderRequest struct {
	ProductID string
	Type      core.OrderType
	Side      core.OrderSide
	Size      *apd.Decimal
	Price     *apd.Decimal
	Funds     *apd.Decimal
}
