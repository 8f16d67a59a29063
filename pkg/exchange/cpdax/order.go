package cpdax

import (
	"context"
	"fmt"

	"github.com/cockroachdb/apd/v3"

	"cpdax/pkg/core"
	"cpdax/pkg/exchange"
)

// ValidateOrder checks that req carries what its type and side require.
// A nil amount and a zero or negative amount fail the same way.
func ValidateOrder(req *exchange.OrderRequest) error {
	if req == nil || req.ProductID == "" {
		return core.NewValidationError("product_id", "missing product id")
	}
	if !req.Type.Valid() {
		return core.NewValidationError("type", "invalid order type")
	}
	if !req.Side.Valid() {
		return core.NewValidationError("side", "invalid side")
	}

	switch {
	case req.Type == core.TypeLimit:
		if !positive(req.Price) || !positive(req.Size) {
			return core.NewValidationError("price", "missing price or size for limit order")
		}
	case req.Side == core.SideBuy:
		if !positive(req.Funds) {
			return core.NewValidationError("funds", "missing funds for market buy")
		}
	default:
		if !positive(req.Size) {
			return core.NewValidationError("size", "missing size for market sell")
		}
	}

	return nil
}

// orderParams lays out the body of a validated order. Only the amounts the
// type and side call for are sent.
func orderParams(req *exchange.OrderRequest) core.Params {
	params := core.Params{
		{Key: "type", Value: req.Type.String()},
		{Key: "side", Value: req.Side.String()},
		{Key: "product_id", Value: req.ProductID},
	}

	switch {
	case req.Type == core.TypeLimit:
		params.Set("price", req.Price)
		params.Set("size", req.Size)
	case req.Side == core.SideBuy:
		params.Set("funds", req.Funds)
	default:
		params.Set("size", req.Size)
	}

	return params
}

// CreateOrder validates req and places it. Nothing is sent when validation fails.
func (e *CpdaxExchange) CreateOrder(ctx context.Context, req *exchange.OrderRequest) (*core.Order, error) {
	if err := ValidateOrder(req); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	result, err := e.execute(ctx, core.OpPlaceOrder, orderParams(req))
	if err != nil {
		return nil, err
	}

	order, ok := result.(*core.Order)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	return order, nil
}

func (e *CpdaxExchange) LimitOrder(ctx context.Context, productID string, side core.OrderSide, size, price *apd.Decimal) (*core.Order, error) {
	return e.CreateOrder(ctx, &exchange.OrderRequest{
		ProductID: productID,
		Type:      core.TypeLimit,
		Side:      side,
		Size:      size,
		Price:     price,
	})
}

func (e *CpdaxExchange) LimitBuyOrder(ctx context.Context, productID string, size, price *apd.Decimal) (*core.Order, error) {
	return e.LimitOrder(ctx, productID, core.SideBuy, size, price)
}

func (e *CpdaxExchange) LimitSellOrder(ctx context.Context, productID string, size, price *apd.Decimal) (*core.Order, error) {
	return e.LimitOrder(ctx, productID, core.SideSell, size, price)
}

// MarketBuyOrder spends funds of the quote currency.
func (e *CpdaxExchange) MarketBuyOrder(ctx context.Context, productID string, funds *apd.Decimal) (*core.Order, error) {
	return e.CreateOrder(ctx, &exchange.OrderRequest{
		ProductID: productID,
		Type:      core.TypeMarket,
		Side:      core.SideBuy,
		Funds:     funds,
	})
}

// MarketSellOrder sells size of the base currency.
func (e *CpdaxExchange) MarketSellOrder(ctx context.Context, productID string, size *apd.Decimal) (*core.Order, error) {
	return e.CreateOrder(ctx, &exchange.OrderRequest{
		ProductID: productID,
		Type:      core.TypeMarket,
		Side:      core.SideSell,
		Size:      size,
	})
}

func positive(d *apd.Decimal) bool {
	return d != nil && d.Form == apd.Finite && d.Sign() > 0
}
