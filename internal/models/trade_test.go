package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	dec, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("invalid decimal %q: %v", value, err)
	}
	return dec
}

func TestCalculatePnL(t *testing.T) {
	tests := []struct {
		name         string
		side         TradeSide
		amountCrypto string
		amountCash   string
		rate         string
		want         string
	}{
		{"sell_at_loss", TradeSideSell, "1", "900", "1000", "-100.00"},
		{"buy_below_reference", TradeSideBuy, "1", "900", "1000", "100.00"},
		{"sell_at_profit", TradeSideSell, "1", "1100", "1000", "100.00"},
		{"buy_above_reference", TradeSideBuy, "1", "1100", "1000", "-100.00"},
		{"break_even", TradeSideSell, "2", "2000", "1000", "0.00"},
		{"fractional_crypto", TradeSideSell, "0.5", "30100", "60000", "100.00"},
		{"rounds_half_up", TradeSideSell, "0.33333333", "333.34", "1000", "0.01"},
		{"rounds_half_up_negative", TradeSideBuy, "0.33333333", "333.34", "1000", "-0.01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculatePnL(tt.side, d(t, tt.amountCrypto), d(t, tt.amountCash), d(t, tt.rate))
			if got.StringFixed(2) != tt.want {
				t.Errorf("CalculatePnL(%s, %s, %s, %s) = %s, want %s",
					tt.side, tt.amountCrypto, tt.amountCash, tt.rate, got.StringFixed(2), tt.want)
			}
		})
	}
}

func TestCalculatePnLDeterministic(t *testing.T) {
	crypto := d(t, "1.23456789")
	cash := d(t, "7654.32")
	rate := d(t, "6200.11")

	first := CalculatePnL(TradeSideSell, crypto, cash, rate)
	for i := 0; i < 100; i++ {
		again := CalculatePnL(TradeSideSell, crypto, cash, rate)
		if !first.Equal(again) {
			t.Fatalf("expected deterministic result, got %s then %s", first, again)
		}
	}
}

func TestCalculatePnLRoundsOnce(t *testing.T) {
	// reference = 0.1 * 1000.05 = 100.005, so the raw sell P&L is
	// exactly 0.005. A single final half-up round gives 0.01.
	got := CalculatePnL(TradeSideSell, d(t, "0.1"), d(t, "100.01"), d(t, "1000.05"))
	if got.StringFixed(2) != "0.01" {
		t.Errorf("expected 0.01, got %s", got.StringFixed(2))
	}
}
