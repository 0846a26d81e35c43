package examples

import (
	"github.com/ridopark/FibTrader/pkg/indicator"
	"github.com/ridopark/FibTrader/pkg/strategy"
)

// MomentumStrategy rides RSI strength: it enters when RSI pushes through
// the entry threshold from below and exits when momentum fades through the
// exit threshold.
type MomentumStrategy struct {
	strategy.BaseStrategy
	entryRSI float64
	exitRSI  float64

	pipelines map[string]*indicator.Pipeline
	prevRSI   map[string]float64
	lastClose map[string]float64
}

// NewMomentumStrategy creates an RSI momentum strategy
func NewMomentumStrategy(entryRSI, exitRSI float64) *MomentumStrategy {
	s := &MomentumStrategy{
		BaseStrategy: strategy.NewBaseStrategy("Momentum_RSI", map[string]interface{}{
			"entry_rsi": entryRSI,
			"exit_rsi":  exitRSI,
		}),
		entryRSI: entryRSI,
		exitRSI:  exitRSI,
	}
	s.reset()
	return s
}

func (s *MomentumStrategy) reset() {
	s.pipelines = make(map[string]*indicator.Pipeline)
	s.prevRSI = make(map[string]float64)
	s.lastClose = make(map[string]float64)
}

// Initialize resets the indicator state
func (s *MomentumStrategy) Initialize(ctx strategy.Context) error {
	s.reset()
	return nil
}

// OnBar emits LONG when RSI crosses up through the entry threshold and EXIT
// when it crosses down through the exit threshold
func (s *MomentumStrategy) OnBar(ctx strategy.Context, bar strategy.BarData) (*strategy.Signal, error) {
	p := s.pipelines[bar.Symbol]
	if p == nil {
		p = indicator.NewPipeline(indicator.DefaultConfig())
		s.pipelines[bar.Symbol] = p
	}
	s.lastClose[bar.Symbol] = bar.Close

	set := p.Update(bar)
	if !set.RSI14.Valid {
		return nil, nil
	}
	rsi := set.RSI14.Float64

	prev, hadPrev := s.prevRSI[bar.Symbol]
	s.prevRSI[bar.Symbol] = rsi
	if !hadPrev {
		return nil, nil
	}

	hasPosition := ctx.GetPosition(bar.Symbol) != nil
	if !hasPosition && prev < s.entryRSI && rsi >= s.entryRSI {
		return &strategy.Signal{
			Symbol:    bar.Symbol,
			Timestamp: bar.Timestamp,
			Direction: strategy.DirectionLong,
			Reason:    "RSI momentum breakout",
		}, nil
	}
	if hasPosition && prev > s.exitRSI && rsi <= s.exitRSI {
		return &strategy.Signal{
			Symbol:    bar.Symbol,
			Timestamp: bar.Timestamp,
			Direction: strategy.DirectionExit,
			Reason:    "RSI momentum faded",
		}, nil
	}
	return nil, nil
}

// CalculatePositionSize spends the available cash on whole shares
func (s *MomentumStrategy) CalculatePositionSize(signal *strategy.Signal, availableCash float64) float64 {
	return strategy.AllInPositionSize(s.lastClose[signal.Symbol], availableCash, 0.001)
}
