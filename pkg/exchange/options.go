package exchange

import (
	"time"

	"cpdax/pkg/core"
)

type Option func(*Options)

// Options holds the optional query parameters of a call. Zero values are not sent.
type Options struct {
	Limit     int
	Page      int
	Side      core.OrderSide
	StartTime time.Time
	EndTime   time.Time
}

func WithLimit(limit int) Option {
	return func(o *Options) {
		o.Limit = limit
	}
}

func WithPage(page int) Option {
	return func(o *Options) {
		o.Page = page
	}
}

func WithSide(side core.OrderSide) Option {
	return func(o *Options) {
		o.Side = side
	}
}

// WithTimeRange bounds a trade query. Either end may be the zero time to leave it open.
func WithTimeRange(start, end time.Time) Option {
	return func(o *Options) {
		o.StartTime = start
		o.EndTime = end
	}
}

func ApplyOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
