// Package levels derives candidate entry prices and fixed-percentage risk
// levels from the scoring context.
package levels

import (
	"fmt"
	"sort"

	"github.com/ridopark/FibTrader/pkg/indicator"
	"github.com/ridopark/FibTrader/pkg/scoring"
	"github.com/ridopark/FibTrader/pkg/strategy"
)

// RiskConfig holds the fixed-percentage stop-loss/take-profit settings
type RiskConfig struct {
	StopLossPct   float64
	TakeProfitPct float64
}

// DefaultRiskConfig returns the standard 8% stop / 15% target
func DefaultRiskConfig() RiskConfig {
	return RiskConfig{StopLossPct: 0.08, TakeProfitPct: 0.15}
}

// Validate rejects non-positive percentages.
func (c RiskConfig) Validate() error {
	if c.StopLossPct <= 0 {
		return &scoring.ConfigError{Field: "stop_loss_pct", Message: "must be positive"}
	}
	if c.TakeProfitPct <= 0 {
		return &scoring.ConfigError{Field: "take_profit_pct", Message: "must be positive"}
	}
	if c.StopLossPct >= 1 {
		return &scoring.ConfigError{Field: "stop_loss_pct", Message: "must be below 1.0"}
	}
	return nil
}

// EntryCandidates returns the Fibonacci levels and SMA20 strictly below the
// current price, sorted nearest first (least discount first), each
// annotated with its discount from the current price.
func EntryCandidates(current float64, fibLevels map[float64]float64, sma20 indicator.Value) []strategy.EntryLevel {
	var out []strategy.EntryLevel
	for ratio, price := range fibLevels {
		if price < current {
			out = append(out, strategy.EntryLevel{
				Price:       price,
				Source:      fmt.Sprintf("fib_%.3f", ratio),
				DiscountPct: (current - price) / current,
			})
		}
	}
	if sma20.Valid && sma20.Float64 < current {
		out = append(out, strategy.EntryLevel{
			Price:       sma20.Float64,
			Source:      "sma_20",
			DiscountPct: (current - sma20.Float64) / current,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	return out
}

// StopLoss returns the stop price for a long entry
func (c RiskConfig) StopLoss(entry float64) float64 {
	return entry - entry*c.StopLossPct
}

// TakeProfit returns the target price for a long entry
func (c RiskConfig) TakeProfit(entry float64) float64 {
	return entry + entry*c.TakeProfitPct
}
