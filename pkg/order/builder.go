package order

import (
	"context"
	"fmt"

	"github.com/cockroachdb/apd/v3"

	"cpdax/pkg/core"
	"cpdax/pkg/exchange"
)

// Builder provides a fluent interface for constructing order requests.
// It keeps the first parse error and reports it on Build. Whether the
// request makes sense for its type and side is checked by the exchange
// when the order is placed.
//
// Example:
//
//	req, err := order.NewBuilder("ETH-BTC").
//	    Buy().
//	    Limit().
//	    Price("0.0372132").
//	    Size("0.00261507").
//	    Build()
type Builder struct {
	req *exchange.OrderRequest
	err error
}

// NewBuilder creates a builder for an order on productID.
func NewBuilder(productID string) *Builder {
	return &Builder{
		req: &exchange.OrderRequest{ProductID: productID},
	}
}

// Side sets the order side.
func (b *Builder) Side(side core.OrderSide) *Builder {
	if b.err != nil {
		return b
	}
	b.req.Side = side
	return b
}

func (b *Builder) Buy() *Builder {
	return b.Side(core.SideBuy)
}

func (b *Builder) Sell() *Builder {
	return b.Side(core.SideSell)
}

// Type sets the order type.
func (b *Builder) Type(orderType core.OrderType) *Builder {
	if b.err != nil {
		return b
	}
	b.req.Type = orderType
	return b
}

func (b *Builder) Market() *Builder {
	return b.Type(core.TypeMarket)
}

func (b *Builder) Limit() *Builder {
	return b.Type(core.TypeLimit)
}

// Price sets the limit price from its decimal string.
func (b *Builder) Price(price string) *Builder {
	return b.parse(&b.req.Price, price, "price")
}

// Size sets the base amount from its decimal string.
func (b *Builder) Size(size string) *Builder {
	return b.parse(&b.req.Size, size, "size")
}

// Funds sets the quote amount of a market buy from its decimal string.
func (b *Builder) Funds(funds string) *Builder {
	return b.parse(&b.req.Funds, funds, "funds")
}

// PriceDecimal sets the limit price. The value is copied.
func (b *Builder) PriceDecimal(price apd.Decimal) *Builder {
	return b.set(&b.req.Price, price)
}

func (b *Builder) SizeDecimal(size apd.Decimal) *Builder {
	return b.set(&b.req.Size, size)
}

func (b *Builder) FundsDecimal(funds apd.Decimal) *Builder {
	return b.set(&b.req.Funds, funds)
}

// Build returns the request, or the first parse error.
func (b *Builder) Build() (*exchange.OrderRequest, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.req, nil
}

// Place builds the request and submits it through ex.
func (b *Builder) Place(ctx context.Context, ex exchange.Exchange) (*core.Order, error) {
	req, err := b.Build()
	if err != nil {
		return nil, err
	}
	return ex.CreateOrder(ctx, req)
}

func (b *Builder) parse(dest **apd.Decimal, s, field string) *Builder {
	if b.err != nil {
		return b
	}
	d, _, err := apd.NewFromString(s)
	if err != nil {
		b.err = core.NewValidationError(field, fmt.Sprintf("parse %s: %v", field, err))
		return b
	}
	*dest = d
	return b
}

func (b *Builder) set(dest **apd.Decimal, v apd.Decimal) *Builder {
	if b.err != nil {
		return b
	}
	d := new(apd.Decimal)
	d.Set(&v)
	*dest = d
	return b
}
