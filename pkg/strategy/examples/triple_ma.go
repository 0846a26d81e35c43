package examples

import (
	"github.com/ridopark/FibTrader/pkg/strategy"
)

// TripleMAStrategy requires full bullish alignment of three moving
// averages (short > medium > long) to enter, and exits as soon as the
// short average drops under the medium one.
type TripleMAStrategy struct {
	strategy.BaseStrategy
	shortPeriod  int
	mediumPeriod int
	longPeriod   int

	closes  map[string][]float64
	aligned map[string]bool
}

// NewTripleMAStrategy creates a triple moving average strategy
func NewTripleMAStrategy(shortPeriod, mediumPeriod, longPeriod int) *TripleMAStrategy {
	return &TripleMAStrategy{
		BaseStrategy: strategy.NewBaseStrategy("Triple_MA", map[string]interface{}{
			"short_period":  shortPeriod,
			"medium_period": mediumPeriod,
			"long_period":   longPeriod,
		}),
		shortPeriod:  shortPeriod,
		mediumPeriod: mediumPeriod,
		longPeriod:   longPeriod,
		closes:       make(map[string][]float64),
		aligned:      make(map[string]bool),
	}
}

// Initialize resets the price history
func (s *TripleMAStrategy) Initialize(ctx strategy.Context) error {
	s.closes = make(map[string][]float64)
	s.aligned = make(map[string]bool)
	return nil
}

// OnBar emits LONG when alignment begins and EXIT when it breaks
func (s *TripleMAStrategy) OnBar(ctx strategy.Context, bar strategy.BarData) (*strategy.Signal, error) {
	closes := append(s.closes[bar.Symbol], bar.Close)
	s.closes[bar.Symbol] = closes

	short, ok1 := sma(closes, s.shortPeriod)
	medium, ok2 := sma(closes, s.mediumPeriod)
	long, ok3 := sma(closes, s.longPeriod)
	if !ok1 || !ok2 || !ok3 {
		return nil, nil
	}

	wasAligned := s.aligned[bar.Symbol]
	isAligned := short > medium && medium > long
	s.aligned[bar.Symbol] = isAligned

	hasPosition := ctx.GetPosition(bar.Symbol) != nil
	if isAligned && !wasAligned && !hasPosition {
		return &strategy.Signal{
			Symbol:    bar.Symbol,
			Timestamp: bar.Timestamp,
			Direction: strategy.DirectionLong,
			Reason:    "bullish alignment short > medium > long",
		}, nil
	}
	if hasPosition && short < medium {
		return &strategy.Signal{
			Symbol:    bar.Symbol,
			Timestamp: bar.Timestamp,
			Direction: strategy.DirectionExit,
			Reason:    "short SMA dropped under medium SMA",
		}, nil
	}
	return nil, nil
}

// CalculatePositionSize spends the available cash on whole shares
func (s *TripleMAStrategy) CalculatePositionSize(signal *strategy.Signal, availableCash float64) float64 {
	closes := s.closes[signal.Symbol]
	if len(closes) == 0 {
		return 0
	}
	return strategy.AllInPositionSize(closes[len(closes)-1], availableCash, 0.001)
}
