// Package types defines shared data structures used across all packages.
//
// This package is the common vocabulary for the trading client — sides,
// quotes, orders, fills, trades, and positions. It has no dependencies on
// internal packages, so it can be imported by any layer.
package types

import (
	"github.com/shopspring/decimal"
)

// Side represents the direction of an order or trade: BUY or SELL.
type Side string

const (
	BUY  Side = "buy"
	SELL Side = "sell"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == BUY {
		return SELL
	}
	return BUY
}

// Quote is a single price level: (price, volume, timestamp). Equality is
// exact component equality — no tolerance band.
type Quote struct {
	Price     decimal.Decimal
	Volume    decimal.Decimal
	Timestamp decimal.Decimal // exchange-supplied unix time, preserved at full precision
}

// Equal reports exact component equality, matching the wire contract's
// numeric precision requirement (§4.1: equality uses exact component
// equality, not an approximate comparison).
func (q Quote) Equal(o Quote) bool {
	return q.Price.Equal(o.Price) && q.Volume.Equal(o.Volume) && q.Timestamp.Equal(o.Timestamp)
}

// Trade is a single executed trade reported on the public trade feed.
type Trade struct {
	Price     decimal.Decimal
	Volume    decimal.Decimal
	Time      decimal.Decimal
	Side      Side
	OrderType string
}

// Order is the client's view of a single order's lifecycle. ClOrderID is
// the client-generated request id (the "reqid"); OrderID is the
// exchange-assigned id, empty until the new-order ack attaches it.
//
// Invariant: CumQty + Qty == OrigQty under normal operation. A fill that
// would drive Qty negative is applied as-is and logged as a desync rather
// than clamped — the exchange's view stays authoritative.
type Order struct {
	Symbol      string
	Side        Side
	ClOrderID   int64
	Qty         decimal.Decimal // remaining quantity
	Price       decimal.Decimal
	OrderType   string
	OrderStatus string
	TimeInForce string
	OrderID     string // exchange id; "" until acked
	OrigQty     decimal.Decimal
	CumQty      decimal.Decimal
}

// Clone returns a copy safe for independent mutation.
func (o Order) Clone() *Order {
	c := o
	return &c
}

// Fill is a single execution attributed to one of the client's orders.
type Fill struct {
	OrderID string
	Side    Side
	Qty     decimal.Decimal
	Symbol  string
	Price   decimal.Decimal
	Time    decimal.Decimal
}

// Position is the running signed quantity and volume-weighted average
// price for one symbol. AvgPrice is only meaningful when Qty != 0; callers
// must check HasAvgPrice before reading it.
type Position struct {
	Symbol      string
	Qty         decimal.Decimal // signed: positive = net long, negative = net short
	AvgPrice    decimal.Decimal
	HasAvgPrice bool
}
