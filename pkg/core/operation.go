package core

// Operation represents a type of action that can be performed on an exchange.
type Operation int

// Operation constants define all supported exchange operations.
const (
	// OpGetCurrencies lists the currencies the exchange supports.
	OpGetCurrencies Operation = iota
	// OpGetProducts lists tradable products (currency pairs).
	OpGetProducts
	// OpGetTickers retrieves tickers for every product.
	OpGetTickers
	// OpGetTickersDetailed retrieves detailed tickers for every product.
	OpGetTickersDetailed
	// OpGetTicker retrieves the ticker for one product.
	OpGetTicker
	// OpGetTickerDetailed retrieves the detailed ticker for one product.
	OpGetTickerDetailed
	// OpGetTrades retrieves recent trades for a product.
	OpGetTrades
	// OpGetOrderBook retrieves the current order book depth.
	OpGetOrderBook
	// OpPlaceOrder submits a new order to the exchange.
	OpPlaceOrder
	// OpGetOrders lists the account's orders for a product.
	OpGetOrders
	// OpGetOrder retrieves details of a specific order.
	OpGetOrder
	// OpCancelOrder cancels an existing order.
	OpCancelOrder
	// OpCancelAllOrders cancels every open order for a product.
	OpCancelAllOrders
	// OpGetFeeRates retrieves the account's fee schedule.
	OpGetFeeRates
	// OpGetBalance retrieves account balance information.
	OpGetBalance
)

// String returns the string representation of the operation.
func (o Operation) String() string {
	return [...]string{
		"GET_CURRENCIES",
		"GET_PRODUCTS",
		"GET_TICKERS",
		"GET_TICKERS_DETAILED",
		"GET_TICKER",
		"GET_TICKER_DETAILED",
		"GET_TRADES",
		"GET_ORDER_BOOK",
		"PLACE_ORDER",
		"GET_ORDERS",
		"GET_ORDER",
		"CANCEL_ORDER",
		"CANCEL_ALL_ORDERS",
		"GET_FEE_RATES",
		"GET_BALANCE",
	}[o]
}

// Private reports whether the operation needs a signed request.
func (o Operation) Private() bool {
	return o >= OpPlaceOrder
}
