package book

import (
	"testing"

	"github.com/shopspring/decimal"

	"krakentrader/pkg/types"
)

func q(price, volume string) types.Quote {
	return types.Quote{
		Price:     decimal.RequireFromString(price),
		Volume:    decimal.RequireFromString(volume),
		Timestamp: decimal.Zero,
	}
}

func TestApplySnapshotDiscardsZeroVolumeAndSorts(t *testing.T) {
	t.Parallel()

	b := New("XBT/USD", 10)
	b.ApplySnapshot(
		[]types.Quote{q("100.0", "1"), q("99.0", "0"), q("101.0", "2")},
		[]types.Quote{q("102.0", "1"), q("103.0", "0"), q("101.5", "2")},
	)

	if len(b.Bids) != 2 {
		t.Fatalf("Bids len = %d, want 2", len(b.Bids))
	}
	if !b.Bids[0].Price.Equal(decimal.RequireFromString("101.0")) {
		t.Errorf("Bids[0] = %s, want 101.0 (descending)", b.Bids[0].Price)
	}
	if len(b.Asks) != 2 {
		t.Fatalf("Asks len = %d, want 2", len(b.Asks))
	}
	if !b.Asks[0].Price.Equal(decimal.RequireFromString("101.5")) {
		t.Errorf("Asks[0] = %s, want 101.5 (ascending)", b.Asks[0].Price)
	}
}

func TestApplySnapshotTruncatesToDepth(t *testing.T) {
	t.Parallel()

	b := New("XBT/USD", 2)
	b.ApplySnapshot(
		[]types.Quote{q("100", "1"), q("99", "1"), q("98", "1")},
		nil,
	)
	if len(b.Bids) != 2 {
		t.Fatalf("Bids len = %d, want 2 (depth cap)", len(b.Bids))
	}
}

func TestApplyDeltaUpdateExistingLevel(t *testing.T) {
	t.Parallel()

	b := New("XBT/USD", 10)
	b.ApplySnapshot([]types.Quote{q("100", "1")}, nil)
	b.ApplyBidDelta(q("100", "5"))

	if len(b.Bids) != 1 || !b.Bids[0].Volume.Equal(decimal.RequireFromString("5")) {
		t.Fatalf("expected updated volume 5, got %+v", b.Bids)
	}
}

func TestApplyDeltaRemoveOnZeroVolume(t *testing.T) {
	t.Parallel()

	b := New("XBT/USD", 10)
	b.ApplySnapshot([]types.Quote{q("100", "1"), q("99", "1")}, nil)
	b.ApplyBidDelta(q("100", "0"))

	if len(b.Bids) != 1 {
		t.Fatalf("Bids len = %d, want 1 after removal", len(b.Bids))
	}
	if !b.Bids[0].Price.Equal(decimal.RequireFromString("99")) {
		t.Errorf("remaining level = %s, want 99", b.Bids[0].Price)
	}
}

func TestApplyDeltaInsertNewLevelAndTruncate(t *testing.T) {
	t.Parallel()

	b := New("XBT/USD", 2)
	b.ApplySnapshot([]types.Quote{q("100", "1"), q("99", "1")}, nil)
	b.ApplyBidDelta(q("101", "1")) // new best bid, should push out 99

	if len(b.Bids) != 2 {
		t.Fatalf("Bids len = %d, want 2", len(b.Bids))
	}
	if !b.Bids[0].Price.Equal(decimal.RequireFromString("101")) {
		t.Errorf("Bids[0] = %s, want 101", b.Bids[0].Price)
	}
	if b.Bids[1].Price.Equal(decimal.RequireFromString("99")) {
		t.Errorf("expected 99 to be truncated out, still present: %+v", b.Bids)
	}
}

func TestApplyDeltaNoopOnZeroVolumeMiss(t *testing.T) {
	t.Parallel()

	b := New("XBT/USD", 10)
	b.ApplySnapshot([]types.Quote{q("100", "1")}, nil)
	b.ApplyBidDelta(q("50", "0")) // no existing level at 50, zero volume

	if len(b.Bids) != 1 {
		t.Fatalf("Bids len = %d, want 1 (no-op)", len(b.Bids))
	}
}

func TestBestBidAskEmptySide(t *testing.T) {
	t.Parallel()

	b := New("XBT/USD", 10)
	if _, err := b.BestBid(); err != ErrEmptySide {
		t.Errorf("BestBid error = %v, want ErrEmptySide", err)
	}
	if _, err := b.BestAsk(); err != ErrEmptySide {
		t.Errorf("BestAsk error = %v, want ErrEmptySide", err)
	}
}

func TestCrossedBookDetectedNotHidden(t *testing.T) {
	t.Parallel()

	b := New("XBT/USD", 10)
	b.ApplySnapshot([]types.Quote{q("105", "1")}, []types.Quote{q("100", "1")})

	if !b.Crossed() {
		t.Fatal("expected book to be detected as crossed")
	}
	bid, _ := b.BestBid()
	ask, _ := b.BestAsk()
	if !bid.Price.Equal(decimal.RequireFromString("105")) || !ask.Price.Equal(decimal.RequireFromString("100")) {
		t.Errorf("crossed state was mutated: bid=%s ask=%s", bid.Price, ask.Price)
	}
}

func TestVWAP(t *testing.T) {
	t.Parallel()

	b := New("XBT/USD", 10)
	b.ApplySnapshot(nil, []types.Quote{q("100", "1"), q("101", "1")})

	vwap, ok := b.VWAP(types.BUY, 2)
	if !ok {
		t.Fatal("expected VWAP ok")
	}
	want := decimal.RequireFromString("100.5")
	if !vwap.Price.Equal(want) {
		t.Errorf("VWAP price = %s, want %s", vwap.Price, want)
	}
}

func TestVWAPEmptySide(t *testing.T) {
	t.Parallel()

	b := New("XBT/USD", 10)
	if _, ok := b.VWAP(types.BUY, 5); ok {
		t.Fatal("expected VWAP to report false for empty ask side")
	}
}
