package position

import (
	"testing"

	"github.com/shopspring/decimal"

	"krakentrader/pkg/types"
)

func fill(side types.Side, qty, price string) types.Fill {
	return types.Fill{
		Symbol: "XBT/USD",
		Side:   side,
		Qty:    decimal.RequireFromString(qty),
		Price:  decimal.RequireFromString(price),
	}
}

func TestAddFillOpensPositionWithAvgPrice(t *testing.T) {
	t.Parallel()

	tr := New()
	pos := tr.AddFill(fill(types.BUY, "1", "100"))

	if !pos.Qty.Equal(decimal.RequireFromString("1")) {
		t.Errorf("Qty = %s, want 1", pos.Qty)
	}
	if !pos.HasAvgPrice || !pos.AvgPrice.Equal(decimal.RequireFromString("100")) {
		t.Errorf("AvgPrice = %s (has=%v), want 100", pos.AvgPrice, pos.HasAvgPrice)
	}
}

func TestAddFillExtendingUpdatesWeightedAverage(t *testing.T) {
	t.Parallel()

	tr := New()
	tr.AddFill(fill(types.BUY, "1", "100"))
	pos := tr.AddFill(fill(types.BUY, "1", "110"))

	if !pos.Qty.Equal(decimal.RequireFromString("2")) {
		t.Errorf("Qty = %s, want 2", pos.Qty)
	}
	if !pos.AvgPrice.Equal(decimal.RequireFromString("105")) {
		t.Errorf("AvgPrice = %s, want 105", pos.AvgPrice)
	}
}

func TestAddFillTrimmingHoldsCostBasis(t *testing.T) {
	t.Parallel()

	tr := New()
	tr.AddFill(fill(types.BUY, "2", "100"))
	pos := tr.AddFill(fill(types.SELL, "1", "150"))

	if !pos.Qty.Equal(decimal.RequireFromString("1")) {
		t.Errorf("Qty = %s, want 1", pos.Qty)
	}
	if !pos.AvgPrice.Equal(decimal.RequireFromString("100")) {
		t.Errorf("AvgPrice = %s, want unchanged 100", pos.AvgPrice)
	}
}

func TestAddFillFlatAfterFullyClosed(t *testing.T) {
	t.Parallel()

	tr := New()
	tr.AddFill(fill(types.BUY, "1", "100"))
	pos := tr.AddFill(fill(types.SELL, "1", "150"))

	if !pos.Qty.IsZero() {
		t.Errorf("Qty = %s, want 0", pos.Qty)
	}
	if pos.HasAvgPrice {
		t.Error("expected HasAvgPrice = false when flat")
	}
}

func TestAddFillCrossingZeroResetsAvgPrice(t *testing.T) {
	t.Parallel()

	tr := New()
	tr.AddFill(fill(types.BUY, "1", "100"))
	pos := tr.AddFill(fill(types.SELL, "3", "150"))

	if !pos.Qty.Equal(decimal.RequireFromString("-2")) {
		t.Errorf("Qty = %s, want -2", pos.Qty)
	}
	if !pos.AvgPrice.Equal(decimal.RequireFromString("150")) {
		t.Errorf("AvgPrice = %s, want 150 (reset on cross)", pos.AvgPrice)
	}
}

func TestGetUnknownSymbolReturnsFlat(t *testing.T) {
	t.Parallel()

	tr := New()
	pos := tr.Get("ETH/USD")
	if !pos.Qty.IsZero() || pos.HasAvgPrice {
		t.Errorf("expected flat zero-value position, got %+v", pos)
	}
}
