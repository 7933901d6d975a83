// Package book maintains a depth-capped L2 order book for one symbol,
// built from a snapshot and kept current by deltas.
package book

import (
	"errors"
	"sort"

	"krakentrader/pkg/types"
)

// ErrEmptySide is returned by BestBid/BestAsk when the requested side has
// no levels.
var ErrEmptySide = errors.New("book: side is empty")

// DefaultDepth is the level cap applied when a Book is constructed with
// depth <= 0.
const DefaultDepth = 10

// Book holds bids (descending by price) and asks (ascending by price) for
// one symbol, each truncated to Depth levels.
type Book struct {
	Symbol string
	Depth  int
	Bids   []types.Quote
	Asks   []types.Quote
}

// New creates an empty book. Depth <= 0 uses DefaultDepth.
func New(symbol string, depth int) *Book {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &Book{Symbol: symbol, Depth: depth}
}

// ApplySnapshot replaces both sides wholesale. Zero-volume entries in the
// snapshot are discarded, and each side is sorted and truncated to Depth.
func (b *Book) ApplySnapshot(bids, asks []types.Quote) {
	b.Bids = sortedNonZero(bids, true, b.Depth)
	b.Asks = sortedNonZero(asks, false, b.Depth)
}

func sortedNonZero(quotes []types.Quote, descending bool, depth int) []types.Quote {
	out := make([]types.Quote, 0, len(quotes))
	for _, q := range quotes {
		if !q.Volume.IsZero() {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if descending {
			return out[i].Price.GreaterThan(out[j].Price)
		}
		return out[i].Price.LessThan(out[j].Price)
	})
	if len(out) > depth {
		out = out[:depth]
	}
	return out
}

// ApplyBidDelta applies one incoming (price, volume, timestamp) update to
// the bid side, per the five delta rules: update-in-place, remove on
// zero-volume match, insert-and-truncate on new price, no-op on
// zero-volume miss.
func (b *Book) ApplyBidDelta(q types.Quote) {
	b.Bids = applyDelta(b.Bids, q, true, b.Depth)
}

// ApplyAskDelta is ApplyBidDelta for the ask side.
func (b *Book) ApplyAskDelta(q types.Quote) {
	b.Asks = applyDelta(b.Asks, q, false, b.Depth)
}

func applyDelta(levels []types.Quote, q types.Quote, descending bool, depth int) []types.Quote {
	for i, lvl := range levels {
		if lvl.Price.Equal(q.Price) {
			if q.Volume.IsZero() {
				return append(levels[:i], levels[i+1:]...)
			}
			levels[i] = q
			return levels
		}
	}
	if q.Volume.IsZero() {
		return levels
	}

	levels = append(levels, q)
	sort.Slice(levels, func(i, j int) bool {
		if descending {
			return levels[i].Price.GreaterThan(levels[j].Price)
		}
		return levels[i].Price.LessThan(levels[j].Price)
	})
	if len(levels) > depth {
		levels = levels[:depth]
	}
	return levels
}

// BestBid returns the top bid level.
func (b *Book) BestBid() (types.Quote, error) {
	if len(b.Bids) == 0 {
		return types.Quote{}, ErrEmptySide
	}
	return b.Bids[0], nil
}

// BestAsk returns the top ask level.
func (b *Book) BestAsk() (types.Quote, error) {
	if len(b.Asks) == 0 {
		return types.Quote{}, ErrEmptySide
	}
	return b.Asks[0], nil
}

// Crossed reports whether the book is currently crossed (best bid above
// best ask). Crossing is reported to the caller, never hidden or
// auto-corrected.
func (b *Book) Crossed() bool {
	bid, err := b.BestBid()
	if err != nil {
		return false
	}
	ask, err := b.BestAsk()
	if err != nil {
		return false
	}
	return bid.Price.GreaterThan(ask.Price)
}

// VWAP computes the volume-weighted average price across up to depth
// levels on one side, useful for estimating the cost of sweeping a given
// amount of liquidity. Returns false if the side is empty.
func (b *Book) VWAP(side types.Side, depth int) (types.Quote, bool) {
	levels := b.Asks
	if side == types.SELL {
		levels = b.Bids
	}
	if len(levels) == 0 {
		return types.Quote{}, false
	}
	if depth <= 0 || depth > len(levels) {
		depth = len(levels)
	}

	notional := levels[0].Price.Sub(levels[0].Price) // zero, same scale as Price
	totalVol := levels[0].Volume.Sub(levels[0].Volume)
	for _, lvl := range levels[:depth] {
		notional = notional.Add(lvl.Price.Mul(lvl.Volume))
		totalVol = totalVol.Add(lvl.Volume)
	}
	if totalVol.IsZero() {
		return types.Quote{}, false
	}
	return types.Quote{Price: notional.Div(totalVol), Volume: totalVol}, true
}
