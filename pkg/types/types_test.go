package types

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSideOpposite(t *testing.T) {
	t.Parallel()

	if BUY.Opposite() != SELL {
		t.Errorf("BUY.Opposite() = %v, want SELL", BUY.Opposite())
	}
	if SELL.Opposite() != BUY {
		t.Errorf("SELL.Opposite() = %v, want BUY", SELL.Opposite())
	}
}

func TestQuoteEqual(t *testing.T) {
	t.Parallel()

	a := Quote{
		Price:     decimal.RequireFromString("100.1"),
		Volume:    decimal.RequireFromString("1"),
		Timestamp: decimal.RequireFromString("1700000000.123456"),
	}
	b := Quote{
		Price:     decimal.RequireFromString("100.10"),
		Volume:    decimal.RequireFromString("1.0"),
		Timestamp: decimal.RequireFromString("1700000000.123456"),
	}
	if !a.Equal(b) {
		t.Errorf("expected quotes with differently-formatted but equal decimals to compare equal")
	}

	c := b
	c.Volume = decimal.RequireFromString("1.01")
	if a.Equal(c) {
		t.Errorf("expected quotes with differing volume to compare unequal")
	}
}
