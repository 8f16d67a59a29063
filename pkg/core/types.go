package core

import (
	"time"

	"github.com/cockroachdb/apd/v3"
)

// OrderSide represents the direction of an order (buy or sell).
// Values are the exchange's lowercase wire strings; anything else is rejected at validation.
type OrderSide string

// Order side constants define the direction of a trade.
const (
	// SideBuy indicates an order to purchase an asset.
	SideBuy OrderSide = "buy"
	// SideSell indicates an order to sell an asset.
	SideSell OrderSide = "sell"
)

// Valid reports whether the side is one the exchange accepts.
func (s OrderSide) Valid() bool {
	return s == SideBuy || s == SideSell
}

func (s OrderSide) String() string {
	return string(s)
}

// OrderType represents the type of order to place on an exchange.
type OrderType string

// Order type constants define how an order is executed.
const (
	// TypeLimit executes at a specified price or better.
	TypeLimit OrderType = "limit"
	// TypeMarket executes immediately at the best available price.
	TypeMarket OrderType = "market"
)

// Valid reports whether the order type is one the exchange accepts.
func (t OrderType) Valid() bool {
	return t == TypeLimit || t == TypeMarket
}

func (t OrderType) String() string {
	return string(t)
}

// OrderStatus is the exchange-reported state of an order, passed through as sent.
type OrderStatus string

// Known order states.
const (
	StatusOpen      OrderStatus = "open"
	StatusPending   OrderStatus = "pending"
	StatusDone      OrderStatus = "done"
	StatusCancelled OrderStatus = "cancelled"
)

// Currency is an asset listed on the exchange.
type Currency struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	MinSize apd.Decimal `json:"min_size"`
}

// Product is a tradable currency pair.
type Product struct {
	ID             string      `json:"id"`
	BaseCurrency   string      `json:"base_currency"`
	QuoteCurrency  string      `json:"quote_currency"`
	BaseMinSize    apd.Decimal `json:"base_min_size"`
	BaseMaxSize    apd.Decimal `json:"base_max_size"`
	QuoteIncrement apd.Decimal `json:"quote_increment"`
}

// Ticker represents the latest market snapshot for a product.
type Ticker struct {
	// ProductID is the trading pair, e.g. "ETH-BTC".
	ProductID string `json:"product_id"`
	// Last is the most recent trade price.
	Last apd.Decimal `json:"last"`
	// Bid is the best buy price.
	Bid apd.Decimal `json:"bid"`
	// Ask is the best sell price.
	Ask apd.Decimal `json:"ask"`
	// Volume is the traded base volume over the last 24 hours.
	Volume apd.Decimal `json:"volume"`
	// Timestamp is when this ticker data was generated.
	Timestamp time.Time `json:"timestamp"`
}

// TickerDetail extends Ticker with the 24 hour range.
type TickerDetail struct {
	Ticker
	Open        apd.Decimal `json:"open"`
	High        apd.Decimal `json:"high"`
	Low         apd.Decimal `json:"low"`
	QuoteVolume apd.Decimal `json:"quote_volume"`
}

// Trade represents a single public trade.
type Trade struct {
	ID        string      `json:"id"`
	ProductID string      `json:"product_id"`
	Side      OrderSide   `json:"side"`
	Price     apd.Decimal `json:"price"`
	Size      apd.Decimal `json:"size"`
	Timestamp time.Time   `json:"timestamp"`
}

// OrderBookLevel represents a single price level in the order book.
type OrderBookLevel struct {
	Price    apd.Decimal `json:"price"`
	Quantity apd.Decimal `json:"quantity"`
}

// OrderBook represents a snapshot of the order book for a product.
type OrderBook struct {
	ProductID string `json:"product_id"`
	// Bids are buy orders, best first.
	Bids []OrderBookLevel `json:"bids"`
	// Asks are sell orders, best first.
	Asks      []OrderBookLevel `json:"asks"`
	Timestamp time.Time        `json:"timestamp"`
}

// Order represents an order on the exchange.
type Order struct {
	// ID is the exchange-assigned order identifier.
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Side      OrderSide `json:"side"`
	Type      OrderType `json:"type"`
	// Price is set for limit orders.
	Price apd.Decimal `json:"price"`
	// Size is the base amount; zero for market buys placed by funds.
	Size apd.Decimal `json:"size"`
	// Funds is the quote amount of a market buy.
	Funds      apd.Decimal `json:"funds"`
	FilledSize apd.Decimal `json:"filled_size"`
	Status     OrderStatus `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Balance represents account balance for a single currency.
type Balance struct {
	Currency  string      `json:"currency"`
	Total     apd.Decimal `json:"total"`
	Available apd.Decimal `json:"available"`
	// Hold is the amount locked in open orders.
	Hold apd.Decimal `json:"hold"`
}

// FeeRate is the maker/taker fee applied to a product.
type FeeRate struct {
	ProductID string      `json:"product_id"`
	Maker     apd.Decimal `json:"maker"`
	Taker     apd.Decimal `json:"taker"`
}

// CancelResult lists the order ids the exchange reports as cancelled.
type CancelResult struct {
	OrderIDs []string `json:"order_ids"`
}
