// Package position tracks, per symbol, a running signed quantity and
// volume-weighted average price, updated as fills arrive.
package position

import (
	"github.com/shopspring/decimal"

	"krakentrader/pkg/types"
)

// Tracker holds one Position per symbol.
type Tracker struct {
	positions map[string]*types.Position
}

// New creates an empty Tracker.
func New() *Tracker {
	return &Tracker{positions: make(map[string]*types.Position)}
}

// AddFill applies a fill to the running position for fill.Symbol: buys add
// to the signed quantity, sells subtract. avg_price is the volume-weighted
// average cost of the currently open quantity; it is recomputed when the
// fill extends the position in its existing direction, held fixed when the
// fill merely reduces it, and reset to the fill price when the fill flips
// the position through zero.
func (t *Tracker) AddFill(fill types.Fill) types.Position {
	pos, ok := t.positions[fill.Symbol]
	if !ok {
		pos = &types.Position{Symbol: fill.Symbol}
		t.positions[fill.Symbol] = pos
	}

	signedQty := fill.Qty
	if fill.Side == types.SELL {
		signedQty = signedQty.Neg()
	}
	oldSign := pos.Qty.Sign()
	newQty := pos.Qty.Add(signedQty)
	newSign := newQty.Sign()
	extending := oldSign == 0 || signedQty.Sign() == oldSign

	switch {
	case newQty.IsZero():
		pos.AvgPrice = decimal.Zero
		pos.HasAvgPrice = false

	case extending:
		// Opening from flat, or extending the existing position further in
		// its own direction: fold the fill into the weighted average.
		oldCost := pos.AvgPrice.Mul(pos.Qty.Abs())
		addedCost := fill.Price.Mul(fill.Qty)
		pos.AvgPrice = oldCost.Add(addedCost).Div(newQty.Abs())
		pos.HasAvgPrice = true

	case oldSign == newSign:
		// Trimming toward zero without crossing it: a closing trade does
		// not change the cost basis of what remains open.

	default:
		// Crossed through zero onto the other side: the remaining
		// quantity's cost basis is simply the fill price.
		pos.AvgPrice = fill.Price
		pos.HasAvgPrice = true
	}

	pos.Qty = newQty
	return *pos
}

// Get returns the current position for symbol, or the zero Position (flat,
// no avg_price) if none has been recorded.
func (t *Tracker) Get(symbol string) types.Position {
	if pos, ok := t.positions[symbol]; ok {
		return *pos
	}
	return types.Position{Symbol: symbol}
}
