package examples

import (
	"fmt"

	"github.com/ridopark/FibTrader/pkg/condition"
	"github.com/ridopark/FibTrader/pkg/indicator"
	"github.com/ridopark/FibTrader/pkg/levels"
	"github.com/ridopark/FibTrader/pkg/scoring"
	"github.com/ridopark/FibTrader/pkg/strategy"
)

// FibonacciMACDConfig bundles the composite strategy's tunables
type FibonacciMACDConfig struct {
	Indicators    indicator.Config
	Risk          levels.RiskConfig
	Weights       map[string]float64
	MinConfidence float64
	FibTolerance  float64
}

// DefaultFibonacciMACDConfig returns the standard composite configuration
func DefaultFibonacciMACDConfig() FibonacciMACDConfig {
	return FibonacciMACDConfig{
		Indicators:    indicator.DefaultConfig(),
		Risk:          levels.DefaultRiskConfig(),
		Weights:       scoring.EqualWeightProfile(),
		MinConfidence: 0.60,
		FibTolerance:  0.02,
	}
}

// FibonacciMACDStrategy is the composite variant: it scores Fibonacci
// support, MACD state, RSI, volume and trend confluence on every bar and
// goes long only when the confidence score clears the minimum gate. Exits
// fire on a bearish MACD state; stop-loss and take-profit ride on the
// signal.
type FibonacciMACDStrategy struct {
	strategy.BaseStrategy
	cfg       FibonacciMACDConfig
	scorer    *scoring.Engine
	evaluator *condition.Evaluator

	pipelines map[string]*indicator.Pipeline
	lastClose map[string]float64
}

// NewFibonacciMACDStrategy validates the configuration and creates the
// composite strategy
func NewFibonacciMACDStrategy(cfg FibonacciMACDConfig) (*FibonacciMACDStrategy, error) {
	scorer, err := scoring.NewEngine(cfg.Weights, scoring.DefaultTierBoundaries())
	if err != nil {
		return nil, err
	}
	if err := cfg.Risk.Validate(); err != nil {
		return nil, err
	}
	s := &FibonacciMACDStrategy{
		BaseStrategy: strategy.NewBaseStrategy("Fibonacci_MACD", map[string]interface{}{
			"min_confidence":  cfg.MinConfidence,
			"stop_loss_pct":   cfg.Risk.StopLossPct,
			"take_profit_pct": cfg.Risk.TakeProfitPct,
			"fib_tolerance":   cfg.FibTolerance,
		}),
		cfg:       cfg,
		scorer:    scorer,
		evaluator: condition.NewEvaluator(condition.WithFibTolerance(cfg.FibTolerance)),
	}
	s.reset()
	return s, nil
}

func (s *FibonacciMACDStrategy) reset() {
	s.pipelines = make(map[string]*indicator.Pipeline)
	s.lastClose = make(map[string]float64)
}

// Initialize resets the indicator state
func (s *FibonacciMACDStrategy) Initialize(ctx strategy.Context) error {
	s.reset()
	return nil
}

// Score runs the full scoring path for one bar. Exposed for scanner-style
// one-shot analysis runs.
func (s *FibonacciMACDStrategy) Score(bar strategy.BarData) (scoring.Score, indicator.Set) {
	p := s.pipelines[bar.Symbol]
	if p == nil {
		p = indicator.NewPipeline(s.cfg.Indicators)
		s.pipelines[bar.Symbol] = p
	}
	set := p.Update(bar)
	return s.scorer.Score(s.evaluator.Evaluate(bar, set)), set
}

// OnBar emits a gated LONG signal on a high-confidence confluence and an
// EXIT on a bearish MACD state
func (s *FibonacciMACDStrategy) OnBar(ctx strategy.Context, bar strategy.BarData) (*strategy.Signal, error) {
	score, set := s.Score(bar)
	s.lastClose[bar.Symbol] = bar.Close

	hasPosition := ctx.GetPosition(bar.Symbol) != nil
	if hasPosition {
		if set.MACD.Valid && set.MACDSignal.Valid && set.MACD.Float64 < set.MACDSignal.Float64 {
			return &strategy.Signal{
				Symbol:     bar.Symbol,
				Timestamp:  bar.Timestamp,
				Direction:  strategy.DirectionExit,
				Confidence: score,
				Reason:     "MACD turned bearish",
			}, nil
		}
		return nil, nil
	}

	if score.Value < s.cfg.MinConfidence {
		return nil, nil
	}

	ctx.Log("debug", "Confidence gate cleared", map[string]interface{}{
		"symbol": bar.Symbol,
		"score":  score.Value,
		"tier":   string(score.Tier),
	})
	return &strategy.Signal{
		Symbol:        bar.Symbol,
		Timestamp:     bar.Timestamp,
		Direction:     strategy.DirectionLong,
		Confidence:    score,
		Entries:       levels.EntryCandidates(bar.Close, set.FibLevels, set.SMA20),
		StopLoss:      s.cfg.Risk.StopLoss(bar.Close),
		TakeProfit:    s.cfg.Risk.TakeProfit(bar.Close),
		StopLossPct:   s.cfg.Risk.StopLossPct,
		TakeProfitPct: s.cfg.Risk.TakeProfitPct,
		Reason:        fmt.Sprintf("confluence score %.2f (%s)", score.Value, score.Tier),
	}, nil
}

// CalculatePositionSize spends the available cash on whole shares
func (s *FibonacciMACDStrategy) CalculatePositionSize(signal *strategy.Signal, availableCash float64) float64 {
	return strategy.AllInPositionSize(s.lastClose[signal.Symbol], availableCash, 0.001)
}
