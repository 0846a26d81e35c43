package examples

import (
	"github.com/ridopark/FibTrader/pkg/strategy"
)

// MeanReversionStrategy buys statistically oversold dips. It computes the
// z-score of price against a Bollinger-style rolling mean and enters below
// -entryZ, exiting once price reverts to the mean.
type MeanReversionStrategy struct {
	strategy.BaseStrategy
	period int
	entryZ float64

	closes map[string][]float64
}

// NewMeanReversionStrategy creates a Bollinger z-score mean reversion
// strategy
func NewMeanReversionStrategy(period int, entryZ float64) *MeanReversionStrategy {
	return &MeanReversionStrategy{
		BaseStrategy: strategy.NewBaseStrategy("Mean_Reversion", map[string]interface{}{
			"period":  period,
			"entry_z": entryZ,
		}),
		period: period,
		entryZ: entryZ,
		closes: make(map[string][]float64),
	}
}

// Initialize resets the price history
func (s *MeanReversionStrategy) Initialize(ctx strategy.Context) error {
	s.closes = make(map[string][]float64)
	return nil
}

// OnBar emits LONG below -entryZ and EXIT once price is back at the mean
func (s *MeanReversionStrategy) OnBar(ctx strategy.Context, bar strategy.BarData) (*strategy.Signal, error) {
	closes := append(s.closes[bar.Symbol], bar.Close)
	s.closes[bar.Symbol] = closes

	mean, ok1 := sma(closes, s.period)
	sd, ok2 := stdDev(closes, s.period)
	if !ok1 || !ok2 || sd == 0 {
		return nil, nil
	}
	z := (bar.Close - mean) / sd

	hasPosition := ctx.GetPosition(bar.Symbol) != nil
	if !hasPosition && z < -s.entryZ {
		return &strategy.Signal{
			Symbol:    bar.Symbol,
			Timestamp: bar.Timestamp,
			Direction: strategy.DirectionLong,
			Reason:    "price stretched below the rolling mean",
		}, nil
	}
	if hasPosition && z >= 0 {
		return &strategy.Signal{
			Symbol:    bar.Symbol,
			Timestamp: bar.Timestamp,
			Direction: strategy.DirectionExit,
			Reason:    "price reverted to the rolling mean",
		}, nil
	}
	return nil, nil
}

// CalculatePositionSize spends the available cash on whole shares
func (s *MeanReversionStrategy) CalculatePositionSize(signal *strategy.Signal, availableCash float64) float64 {
	closes := s.closes[signal.Symbol]
	if len(closes) == 0 {
		return 0
	}
	return strategy.AllInPositionSize(closes[len(closes)-1], availableCash, 0.001)
}
