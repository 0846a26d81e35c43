package levels

import (
	"math"
	"testing"

	"github.com/ridopark/FibTrader/pkg/indicator"
)

func TestEntryCandidatesSortedNearestFirst(t *testing.T) {
	fib := map[float64]float64{
		0.236: 80,
		0.382: 90,
		0.618: 105, // above current, excluded
	}
	sma := indicator.Value{Float64: 95, Valid: true}

	entries := EntryCandidates(100, fib, sma)
	if len(entries) != 3 {
		t.Fatalf("expected 3 candidates below price, got %d", len(entries))
	}
	wantPrices := []float64{95, 90, 80}
	for i, want := range wantPrices {
		if entries[i].Price != want {
			t.Errorf("entry %d: price = %v, want %v", i, entries[i].Price, want)
		}
	}
	if entries[0].Source != "sma_20" {
		t.Errorf("nearest candidate source = %q, want sma_20", entries[0].Source)
	}
	if math.Abs(entries[1].DiscountPct-0.10) > 1e-9 {
		t.Errorf("discount for 90 at current 100 = %v, want 0.10", entries[1].DiscountPct)
	}
}

func TestEntryCandidatesExcludesLevelsAtOrAbovePrice(t *testing.T) {
	fib := map[float64]float64{0.5: 100, 0.618: 110}
	entries := EntryCandidates(100, fib, indicator.Value{})
	if len(entries) != 0 {
		t.Errorf("levels at or above current price must be excluded, got %v", entries)
	}
}

func TestRiskLevelsExact(t *testing.T) {
	cfg := DefaultRiskConfig()

	if got := cfg.StopLoss(100); got != 92.0 {
		t.Errorf("stop loss for entry 100 = %v, want exactly 92.0", got)
	}
	if got := cfg.TakeProfit(100); got != 115.0 {
		t.Errorf("take profit for entry 100 = %v, want exactly 115.0", got)
	}

	entry := 73.42
	if sl := cfg.StopLoss(entry); !(sl < entry) {
		t.Errorf("stop loss %v must be below entry %v", sl, entry)
	}
	if tp := cfg.TakeProfit(entry); !(tp > entry) {
		t.Errorf("take profit %v must be above entry %v", tp, entry)
	}
}

func TestRiskConfigValidation(t *testing.T) {
	bad := []RiskConfig{
		{StopLossPct: 0, TakeProfitPct: 0.15},
		{StopLossPct: -0.08, TakeProfitPct: 0.15},
		{StopLossPct: 0.08, TakeProfitPct: 0},
		{StopLossPct: 1.0, TakeProfitPct: 0.15},
	}
	for _, cfg := range bad {
		if err := cfg.Validate(); err == nil {
			t.Errorf("config %+v should be rejected", cfg)
		}
	}
	if err := DefaultRiskConfig().Validate(); err != nil {
		t.Errorf("default risk config should validate, got %v", err)
	}
}
