package examples

import (
	"github.com/ridopark/FibTrader/pkg/strategy"
)

// MACrossoverStrategy goes long when the short SMA crosses above the long
// SMA and exits when it crosses back below.
type MACrossoverStrategy struct {
	strategy.BaseStrategy
	shortPeriod int
	longPeriod  int

	closes map[string][]float64
}

// NewMACrossoverStrategy creates a simple moving average crossover strategy
func NewMACrossoverStrategy(shortPeriod, longPeriod int) *MACrossoverStrategy {
	return &MACrossoverStrategy{
		BaseStrategy: strategy.NewBaseStrategy("MA_Crossover", map[string]interface{}{
			"short_period": shortPeriod,
			"long_period":  longPeriod,
		}),
		shortPeriod: shortPeriod,
		longPeriod:  longPeriod,
		closes:      make(map[string][]float64),
	}
}

// Initialize resets the price history
func (s *MACrossoverStrategy) Initialize(ctx strategy.Context) error {
	s.closes = make(map[string][]float64)
	return nil
}

// OnBar emits LONG on a bullish cross and EXIT on a bearish cross
func (s *MACrossoverStrategy) OnBar(ctx strategy.Context, bar strategy.BarData) (*strategy.Signal, error) {
	closes := append(s.closes[bar.Symbol], bar.Close)
	s.closes[bar.Symbol] = closes

	shortNow, ok1 := sma(closes, s.shortPeriod)
	longNow, ok2 := sma(closes, s.longPeriod)
	shortPrev, ok3 := sma(closes[:len(closes)-1], s.shortPeriod)
	longPrev, ok4 := sma(closes[:len(closes)-1], s.longPeriod)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return nil, nil
	}

	hasPosition := ctx.GetPosition(bar.Symbol) != nil
	if shortPrev <= longPrev && shortNow > longNow && !hasPosition {
		return &strategy.Signal{
			Symbol:    bar.Symbol,
			Timestamp: bar.Timestamp,
			Direction: strategy.DirectionLong,
			Reason:    "short SMA crossed above long SMA",
		}, nil
	}
	if shortPrev >= longPrev && shortNow < longNow && hasPosition {
		return &strategy.Signal{
			Symbol:    bar.Symbol,
			Timestamp: bar.Timestamp,
			Direction: strategy.DirectionExit,
			Reason:    "short SMA crossed below long SMA",
		}, nil
	}
	return nil, nil
}

// CalculatePositionSize spends the available cash on whole shares
func (s *MACrossoverStrategy) CalculatePositionSize(signal *strategy.Signal, availableCash float64) float64 {
	closes := s.closes[signal.Symbol]
	if len(closes) == 0 {
		return 0
	}
	return strategy.AllInPositionSize(closes[len(closes)-1], availableCash, 0.001)
}
