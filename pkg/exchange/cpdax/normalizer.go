package cpdax

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/apd/v3"

	"cpdax/pkg/core"
)

// wireDecimal accepts a decimal sent either as a JSON string or as a bare number.
type wireDecimal string

func (d *wireDecimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := sonic.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = wireDecimal(s)
		return nil
	}
	*d = wireDecimal(data)
	return nil
}

// wireTime accepts RFC 3339 strings and unix timestamps in seconds or milliseconds,
// either quoted or bare.
type wireTime time.Time

func (t *wireTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = wireTime{}
		return nil
	}

	s := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := sonic.Unmarshal(data, &s); err != nil {
			return err
		}
	}
	if s == "" {
		*t = wireTime{}
		return nil
	}

	ts, err := parseTime(s)
	if err != nil {
		return err
	}
	*t = wireTime(ts)
	return nil
}

func (t wireTime) Time() time.Time {
	return time.Time(t)
}

type cpdaxCurrency struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	MinSize wireDecimal `json:"min_size"`
}

type cpdaxProduct struct {
	ID             string      `json:"id"`
	BaseCurrency   string      `json:"base_currency"`
	QuoteCurrency  string      `json:"quote_currency"`
	BaseMinSize    wireDecimal `json:"base_min_size"`
	BaseMaxSize    wireDecimal `json:"base_max_size"`
	QuoteIncrement wireDecimal `json:"quote_increment"`
}

type cpdaxTicker struct {
	ProductID   string      `json:"product_id"`
	Last        wireDecimal `json:"last"`
	Bid         wireDecimal `json:"bid"`
	Ask         wireDecimal `json:"ask"`
	Volume      wireDecimal `json:"volume"`
	Open        wireDecimal `json:"open"`
	High        wireDecimal `json:"high"`
	Low         wireDecimal `json:"low"`
	QuoteVolume wireDecimal `json:"quote_volume"`
	Timestamp   wireTime    `json:"timestamp"`
}

type cpdaxTrade struct {
	ID        string      `json:"id"`
	Side      string      `json:"side"`
	Price     wireDecimal `json:"price"`
	Size      wireDecimal `json:"size"`
	Timestamp wireTime    `json:"timestamp"`
}

// cpdaxLevel is an order book level, sent as [price, size] or as an object.
type cpdaxLevel struct {
	Price    wireDecimal `json:"price"`
	Quantity wireDecimal `json:"quantity"`
	Size     wireDecimal `json:"size"`
}

func (l *cpdaxLevel) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var pair []wireDecimal
		if err := sonic.Unmarshal(data, &pair); err != nil {
			return err
		}
		if len(pair) < 2 {
			return fmt.Errorf("order book level has %d fields", len(pair))
		}
		l.Price, l.Quantity = pair[0], pair[1]
		return nil
	}

	type plain cpdaxLevel
	var p plain
	if err := sonic.Unmarshal(data, &p); err != nil {
		return err
	}
	*l = cpdaxLevel(p)
	if l.Quantity == "" {
		l.Quantity = l.Size
	}
	return nil
}

type cpdaxOrderBook struct {
	ProductID string       `json:"product_id"`
	Bids      []cpdaxLevel `json:"bids"`
	Asks      []cpdaxLevel `json:"asks"`
	Timestamp wireTime     `json:"timestamp"`
}

type cpdaxOrder struct {
	ID         string      `json:"id"`
	ProductID  string      `json:"product_id"`
	Side       string      `json:"side"`
	Type       string      `json:"type"`
	Price      wireDecimal `json:"price"`
	Size       wireDecimal `json:"size"`
	Funds      wireDecimal `json:"funds"`
	FilledSize wireDecimal `json:"filled_size"`
	Status     string      `json:"status"`
	CreatedAt  wireTime    `json:"created_at"`
}

type cpdaxBalance struct {
	Currency  string      `json:"currency"`
	Total     wireDecimal `json:"total"`
	Available wireDecimal `json:"available"`
	Hold      wireDecimal `json:"hold"`
}

type cpdaxFeeRate struct {
	ProductID string      `json:"product_id"`
	Maker     wireDecimal `json:"maker"`
	Taker     wireDecimal `json:"taker"`
}

// cpdaxAPIError is the error payload. "error" is sometimes a string and sometimes an object.
type cpdaxAPIError struct {
	Message string `json:"message"`
	Error   any    `json:"error"`
}

func (e *cpdaxAPIError) text() string {
	if e.Message != "" {
		return e.Message
	}
	if s, ok := e.Error.(string); ok {
		return s
	}
	return ""
}

// Normalizer converts CPDAX wire structures to canonical core types.
type Normalizer struct{}

// NewNormalizer creates a new Normalizer instance.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

func (n *Normalizer) NormalizeCurrencies(data []cpdaxCurrency) ([]core.Currency, error) {
	currencies := make([]core.Currency, 0, len(data))
	for _, c := range data {
		currency := core.Currency{ID: c.ID, Name: c.Name}
		if err := parseDecimal(&currency.MinSize, c.MinSize); err != nil {
			return nil, fmt.Errorf("currency %s min size: %w", c.ID, err)
		}
		currencies = append(currencies, currency)
	}
	return currencies, nil
}

func (n *Normalizer) NormalizeProducts(data []cpdaxProduct) ([]core.Product, error) {
	products := make([]core.Product, 0, len(data))
	for _, p := range data {
		product := core.Product{
			ID:            p.ID,
			BaseCurrency:  p.BaseCurrency,
			QuoteCurrency: p.QuoteCurrency,
		}
		if err := parseDecimals(
			decimalField{&product.BaseMinSize, p.BaseMinSize, "base min size"},
			decimalField{&product.BaseMaxSize, p.BaseMaxSize, "base max size"},
			decimalField{&product.QuoteIncrement, p.QuoteIncrement, "quote increment"},
		); err != nil {
			return nil, fmt.Errorf("product %s: %w", p.ID, err)
		}
		products = append(products, product)
	}
	return products, nil
}

// NormalizeTicker converts a CPDAX ticker to a canonical Ticker.
// productID fills in the pair when the payload omits it.
func (n *Normalizer) NormalizeTicker(data *cpdaxTicker, productID string) (*core.Ticker, error) {
	ticker := &core.Ticker{
		ProductID: firstNonEmpty(data.ProductID, productID),
		Timestamp: data.Timestamp.Time(),
	}

	if err := parseDecimals(
		decimalField{&ticker.Last, data.Last, "last"},
		decimalField{&ticker.Bid, data.Bid, "bid"},
		decimalField{&ticker.Ask, data.Ask, "ask"},
		decimalField{&ticker.Volume, data.Volume, "volume"},
	); err != nil {
		return nil, fmt.Errorf("ticker %s: %w", ticker.ProductID, err)
	}

	return ticker, nil
}

func (n *Normalizer) NormalizeTickers(data []cpdaxTicker) ([]core.Ticker, error) {
	tickers := make([]core.Ticker, 0, len(data))
	for i := range data {
		ticker, err := n.NormalizeTicker(&data[i], "")
		if err != nil {
			return nil, err
		}
		tickers = append(tickers, *ticker)
	}
	return tickers, nil
}

// NormalizeTickerDetail converts a detailed CPDAX ticker, which adds the 24 hour range.
func (n *Normalizer) NormalizeTickerDetail(data *cpdaxTicker, productID string) (*core.TickerDetail, error) {
	ticker, err := n.NormalizeTicker(data, productID)
	if err != nil {
		return nil, err
	}

	detail := &core.TickerDetail{Ticker: *ticker}
	if err := parseDecimals(
		decimalField{&detail.Open, data.Open, "open"},
		decimalField{&detail.High, data.High, "high"},
		decimalField{&detail.Low, data.Low, "low"},
		decimalField{&detail.QuoteVolume, data.QuoteVolume, "quote volume"},
	); err != nil {
		return nil, fmt.Errorf("ticker %s: %w", detail.ProductID, err)
	}

	return detail, nil
}

func (n *Normalizer) NormalizeTickerDetails(data []cpdaxTicker) ([]core.TickerDetail, error) {
	details := make([]core.TickerDetail, 0, len(data))
	for i := range data {
		detail, err := n.NormalizeTickerDetail(&data[i], "")
		if err != nil {
			return nil, err
		}
		details = append(details, *detail)
	}
	return details, nil
}

func (n *Normalizer) NormalizeTrades(data []cpdaxTrade, productID string) ([]core.Trade, error) {
	trades := make([]core.Trade, 0, len(data))
	for _, t := range data {
		trade := core.Trade{
			ID:        t.ID,
			ProductID: productID,
			Side:      core.OrderSide(strings.ToLower(t.Side)),
			Timestamp: t.Timestamp.Time(),
		}
		if err := parseDecimals(
			decimalField{&trade.Price, t.Price, "price"},
			decimalField{&trade.Size, t.Size, "size"},
		); err != nil {
			return nil, fmt.Errorf("trade %s: %w", t.ID, err)
		}
		trades = append(trades, trade)
	}
	return trades, nil
}

// NormalizeOrderBook converts a CPDAX order book to a canonical OrderBook.
func (n *Normalizer) NormalizeOrderBook(data *cpdaxOrderBook, productID string) (*core.OrderBook, error) {
	orderBook := &core.OrderBook{
		ProductID: firstNonEmpty(data.ProductID, productID),
		Timestamp: data.Timestamp.Time(),
	}

	bids, err := n.normalizeOrderBookLevels(data.Bids)
	if err != nil {
		return nil, fmt.Errorf("normalize bids: %w", err)
	}
	orderBook.Bids = bids

	asks, err := n.normalizeOrderBookLevels(data.Asks)
	if err != nil {
		return nil, fmt.Errorf("normalize asks: %w", err)
	}
	orderBook.Asks = asks

	return orderBook, nil
}

func (n *Normalizer) normalizeOrderBookLevels(levels []cpdaxLevel) ([]core.OrderBookLevel, error) {
	result := make([]core.OrderBookLevel, 0, len(levels))

	for _, level := range levels {
		var obl core.OrderBookLevel
		if err := parseDecimal(&obl.Price, level.Price); err != nil {
			return nil, fmt.Errorf("parse price: %w", err)
		}
		if err := parseDecimal(&obl.Quantity, level.Quantity); err != nil {
			return nil, fmt.Errorf("parse quantity: %w", err)
		}
		result = append(result, obl)
	}

	return result, nil
}

// NormalizeOrder converts a CPDAX order to a canonical Order.
func (n *Normalizer) NormalizeOrder(data *cpdaxOrder) (*core.Order, error) {
	order := &core.Order{
		ID:        data.ID,
		ProductID: data.ProductID,
		Side:      core.OrderSide(strings.ToLower(data.Side)),
		Type:      core.OrderType(strings.ToLower(data.Type)),
		Status:    core.OrderStatus(strings.ToLower(data.Status)),
		CreatedAt: data.CreatedAt.Time(),
	}

	if err := parseDecimals(
		decimalField{&order.Price, data.Price, "price"},
		decimalField{&order.Size, data.Size, "size"},
		decimalField{&order.Funds, data.Funds, "funds"},
		decimalField{&order.FilledSize, data.FilledSize, "filled size"},
	); err != nil {
		return nil, fmt.Errorf("order %s: %w", data.ID, err)
	}

	return order, nil
}

func (n *Normalizer) NormalizeOrders(data []cpdaxOrder) ([]core.Order, error) {
	orders := make([]core.Order, 0, len(data))
	for i := range data {
		order, err := n.NormalizeOrder(&data[i])
		if err != nil {
			return nil, fmt.Errorf("normalize order: %w", err)
		}
		orders = append(orders, *order)
	}
	return orders, nil
}

func (n *Normalizer) NormalizeBalances(data []cpdaxBalance) ([]core.Balance, error) {
	balances := make([]core.Balance, 0, len(data))
	for _, b := range data {
		balance := core.Balance{Currency: b.Currency}
		if err := parseDecimals(
			decimalField{&balance.Total, b.Total, "total"},
			decimalField{&balance.Available, b.Available, "available"},
			decimalField{&balance.Hold, b.Hold, "hold"},
		); err != nil {
			return nil, fmt.Errorf("balance %s: %w", b.Currency, err)
		}
		balances = append(balances, balance)
	}
	return balances, nil
}

func (n *Normalizer) NormalizeFeeRates(data []cpdaxFeeRate) ([]core.FeeRate, error) {
	rates := make([]core.FeeRate, 0, len(data))
	for _, r := range data {
		rate := core.FeeRate{ProductID: r.ProductID}
		if err := parseDecimals(
			decimalField{&rate.Maker, r.Maker, "maker"},
			decimalField{&rate.Taker, r.Taker, "taker"},
		); err != nil {
			return nil, fmt.Errorf("fee rate %s: %w", r.ProductID, err)
		}
		rates = append(rates, rate)
	}
	return rates, nil
}

// NormalizeCancel reads a cancel acknowledgement. CPDAX answers with an empty body,
// a list of ids, an object carrying "order_ids", or the cancelled order itself.
func (n *Normalizer) NormalizeCancel(body []byte) (*core.CancelResult, error) {
	body = bytes.TrimSpace(body)
	result := &core.CancelResult{OrderIDs: []string{}}
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return result, nil
	}

	if body[0] == '[' {
		if err := sonic.Unmarshal(body, &result.OrderIDs); err != nil {
			return nil, fmt.Errorf("unmarshal cancelled ids: %w", err)
		}
		return result, nil
	}

	var data struct {
		OrderIDs []string `json:"order_ids"`
		ID       string   `json:"id"`
	}
	if err := sonic.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("unmarshal cancel: %w", err)
	}
	switch {
	case len(data.OrderIDs) > 0:
		result.OrderIDs = data.OrderIDs
	case data.ID != "":
		result.OrderIDs = []string{data.ID}
	}
	return result, nil
}

type decimalField struct {
	dest *apd.Decimal
	src  wireDecimal
	name string
}

func parseDecimals(fields ...decimalField) error {
	for _, f := range fields {
		if err := parseDecimal(f.dest, f.src); err != nil {
			return fmt.Errorf("parse %s: %w", f.name, err)
		}
	}
	return nil
}

func parseDecimal(dest *apd.Decimal, s wireDecimal) error {
	if s == "" {
		*dest = apd.Decimal{}
		return nil
	}

	_, _, err := apd.BaseContext.SetString(dest, string(s))
	if err != nil {
		return fmt.Errorf("invalid decimal %q: %w", string(s), err)
	}
	return nil
}

// parseTime reads RFC 3339 or a unix timestamp. Values above 1e12 are taken as milliseconds.
func parseTime(s string) (time.Time, error) {
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(int64(n)).UTC(), nil
		}
		sec := int64(n)
		nsec := int64((n - float64(sec)) * 1e9)
		return time.Unix(sec, nsec).UTC(), nil
	}

	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return ts, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
