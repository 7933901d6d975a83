// Package trademon keeps a bounded buffer of the most recent public
// trades for a symbol and aggregates them into price buckets.
package trademon

import (
	"github.com/shopspring/decimal"

	"krakentrader/pkg/types"
)

// DefaultCapacity is the buffer size used when Monitor is constructed with
// capacity <= 0.
const DefaultCapacity = 100

// Monitor holds the most recent trades for one symbol, oldest-evicted once
// Capacity is exceeded.
type Monitor struct {
	Capacity int
	trades   []types.Trade
}

// New creates a Monitor. capacity <= 0 uses DefaultCapacity.
func New(capacity int) *Monitor {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Monitor{Capacity: capacity}
}

// Add appends a trade, evicting the oldest entry first if the buffer is
// already at capacity.
func (m *Monitor) Add(trade types.Trade) {
	if len(m.trades) >= m.Capacity {
		m.trades = m.trades[1:]
	}
	m.trades = append(m.trades, trade)
}

// Trades returns the buffered trades, oldest first. The returned slice is
// owned by the caller.
func (m *Monitor) Trades() []types.Trade {
	out := make([]types.Trade, len(m.trades))
	copy(out, m.trades)
	return out
}

// Aggregate buckets every buffered trade by price/tickSize (truncated
// toward zero) and sums volume per bucket.
func (m *Monitor) Aggregate(tickSize decimal.Decimal) map[int64]decimal.Decimal {
	return m.aggregate(m.trades, tickSize)
}

// AggregateSince is Aggregate restricted to trades at or after the given
// exchange-reported unix timestamp, mirroring a rolling lookback window
// (e.g. "trades in the last 5 minutes") without the Monitor needing to
// know the caller's notion of "now".
func (m *Monitor) AggregateSince(since decimal.Decimal, tickSize decimal.Decimal) map[int64]decimal.Decimal {
	recent := make([]types.Trade, 0, len(m.trades))
	for _, t := range m.trades {
		if t.Time.GreaterThanOrEqual(since) {
			recent = append(recent, t)
		}
	}
	return m.aggregate(recent, tickSize)
}

func (m *Monitor) aggregate(trades []types.Trade, tickSize decimal.Decimal) map[int64]decimal.Decimal {
	buckets := make(map[int64]decimal.Decimal)
	for _, t := range trades {
		bucket := t.Price.Div(tickSize).IntPart()
		if existing, ok := buckets[bucket]; ok {
			buckets[bucket] = existing.Add(t.Volume)
		} else {
			buckets[bucket] = t.Volume
		}
	}
	return buckets
}
