package examples

import (
	"github.com/ridopark/FibTrader/pkg/strategy"
)

// EMACrossoverStrategy is the exponential variant of the crossover rule.
// EMAs react faster than SMAs, so crosses fire earlier in a trend change.
type EMACrossoverStrategy struct {
	strategy.BaseStrategy
	shortPeriod int
	longPeriod  int

	short     map[string]*emaTracker
	long      map[string]*emaTracker
	prevShort map[string]float64
	prevLong  map[string]float64
	lastClose map[string]float64
}

// NewEMACrossoverStrategy creates an exponential moving average crossover
// strategy
func NewEMACrossoverStrategy(shortPeriod, longPeriod int) *EMACrossoverStrategy {
	s := &EMACrossoverStrategy{
		BaseStrategy: strategy.NewBaseStrategy("EMA_Crossover", map[string]interface{}{
			"short_period": shortPeriod,
			"long_period":  longPeriod,
		}),
		shortPeriod: shortPeriod,
		longPeriod:  longPeriod,
	}
	s.reset()
	return s
}

func (s *EMACrossoverStrategy) reset() {
	s.short = make(map[string]*emaTracker)
	s.long = make(map[string]*emaTracker)
	s.prevShort = make(map[string]float64)
	s.prevLong = make(map[string]float64)
	s.lastClose = make(map[string]float64)
}

// Initialize resets the EMA state
func (s *EMACrossoverStrategy) Initialize(ctx strategy.Context) error {
	s.reset()
	return nil
}

// OnBar emits LONG on a bullish EMA cross and EXIT on a bearish one
func (s *EMACrossoverStrategy) OnBar(ctx strategy.Context, bar strategy.BarData) (*strategy.Signal, error) {
	if s.short[bar.Symbol] == nil {
		s.short[bar.Symbol] = newEMATracker(s.shortPeriod)
		s.long[bar.Symbol] = newEMATracker(s.longPeriod)
	}
	s.lastClose[bar.Symbol] = bar.Close

	shortNow, ok1 := s.short[bar.Symbol].update(bar.Close)
	longNow, ok2 := s.long[bar.Symbol].update(bar.Close)
	if !ok1 || !ok2 {
		return nil, nil
	}

	prevShort, hadPrev := s.prevShort[bar.Symbol]
	prevLong := s.prevLong[bar.Symbol]
	s.prevShort[bar.Symbol] = shortNow
	s.prevLong[bar.Symbol] = longNow
	if !hadPrev {
		return nil, nil
	}

	hasPosition := ctx.GetPosition(bar.Symbol) != nil
	if prevShort <= prevLong && shortNow > longNow && !hasPosition {
		return &strategy.Signal{
			Symbol:    bar.Symbol,
			Timestamp: bar.Timestamp,
			Direction: strategy.DirectionLong,
			Reason:    "short EMA crossed above long EMA",
		}, nil
	}
	if prevShort >= prevLong && shortNow < longNow && hasPosition {
		return &strategy.Signal{
			Symbol:    bar.Symbol,
			Timestamp: bar.Timestamp,
			Direction: strategy.DirectionExit,
			Reason:    "short EMA crossed below long EMA",
		}, nil
	}
	return nil, nil
}

// CalculatePositionSize spends the available cash on whole shares
func (s *EMACrossoverStrategy) CalculatePositionSize(signal *strategy.Signal, availableCash float64) float64 {
	return strategy.AllInPositionSize(s.lastClose[signal.Symbol], availableCash, 0.001)
}
