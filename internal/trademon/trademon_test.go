package trademon

import (
	"testing"

	"github.com/shopspring/decimal"

	"krakentrader/pkg/types"
)

func trade(price, volume, t string) types.Trade {
	return types.Trade{
		Price:  decimal.RequireFromString(price),
		Volume: decimal.RequireFromString(volume),
		Time:   decimal.RequireFromString(t),
		Side:   types.BUY,
	}
}

func TestAddEvictsOldestOnOverflow(t *testing.T) {
	t.Parallel()

	m := New(2)
	m.Add(trade("100", "1", "1"))
	m.Add(trade("101", "1", "2"))
	m.Add(trade("102", "1", "3"))

	got := m.Trades()
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if !got[0].Price.Equal(decimal.RequireFromString("101")) {
		t.Errorf("oldest retained = %s, want 101 (100 evicted)", got[0].Price)
	}
}

func TestDefaultCapacity(t *testing.T) {
	t.Parallel()

	m := New(0)
	if m.Capacity != DefaultCapacity {
		t.Errorf("Capacity = %d, want %d", m.Capacity, DefaultCapacity)
	}
}

func TestAggregateBucketsByTickSize(t *testing.T) {
	t.Parallel()

	m := New(10)
	m.Add(trade("100.04", "1", "1"))
	m.Add(trade("100.02", "2", "2"))
	m.Add(trade("100.10", "1", "3"))

	buckets := m.Aggregate(decimal.RequireFromString("0.1"))
	// 100.04/0.1 = 1000.4 -> IntPart 1000; 100.02/0.1 -> 1000; 100.10/0.1 -> 1001
	if !buckets[1000].Equal(decimal.RequireFromString("3")) {
		t.Errorf("bucket 1000 = %s, want 3", buckets[1000])
	}
	if !buckets[1001].Equal(decimal.RequireFromString("1")) {
		t.Errorf("bucket 1001 = %s, want 1", buckets[1001])
	}
}

func TestAggregateSinceFiltersByTime(t *testing.T) {
	t.Parallel()

	m := New(10)
	m.Add(trade("100", "1", "1000"))
	m.Add(trade("100", "1", "2000"))
	m.Add(trade("100", "1", "3000"))

	buckets := m.AggregateSince(decimal.RequireFromString("2000"), decimal.RequireFromString("1"))
	if !buckets[100].Equal(decimal.RequireFromString("2")) {
		t.Errorf("bucket 100 = %s, want 2 (only trades at t>=2000)", buckets[100])
	}
}
