// Package backtester replays strategies bar-by-bar over historical data,
// simulating order execution, portfolio state and risk controls.
package backtester

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ridopark/FibTrader/pkg/feed"
	"github.com/ridopark/FibTrader/pkg/logging"
	"github.com/ridopark/FibTrader/pkg/scoring"
	"github.com/ridopark/FibTrader/pkg/strategy"
)

// Config holds the engine's execution parameters
type Config struct {
	InitialCapital float64
	CommissionPct  float64
	SlippagePct    float64
}

// DefaultConfig returns the standard execution parameters
func DefaultConfig() Config {
	return Config{
		InitialCapital: 100000,
		CommissionPct:  0.001,
		SlippagePct:    0.0005,
	}
}

// Validate rejects unusable execution parameters.
func (c Config) Validate() error {
	if c.InitialCapital <= 0 {
		return &scoring.ConfigError{Field: "initial_capital", Message: "must be positive"}
	}
	if c.CommissionPct < 0 {
		return &scoring.ConfigError{Field: "commission_pct", Message: "must not be negative"}
	}
	if c.SlippagePct < 0 {
		return &scoring.ConfigError{Field: "slippage_pct", Message: "must not be negative"}
	}
	return nil
}

// Engine replays one strategy over a data feed with its own portfolio
type Engine struct {
	config    Config
	dataFeed  feed.DataFeed
	strat     strategy.Strategy
	portfolio *Portfolio
	logger    zerolog.Logger
}

// NewEngine creates a backtesting engine
func NewEngine(config Config, dataFeed feed.DataFeed, strat strategy.Strategy) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		config:    config,
		dataFeed:  dataFeed,
		strat:     strat,
		portfolio: NewPortfolio(config.InitialCapital, config.CommissionPct, config.SlippagePct),
		logger:    logging.GetLogger("backtester"),
	}, nil
}

// execContext exposes portfolio state to the strategy during a replay
type execContext struct {
	portfolio *Portfolio
	logger    zerolog.Logger
}

func (c *execContext) GetPosition(symbol string) *strategy.Position {
	return c.portfolio.GetPosition(symbol)
}

func (c *execContext) GetCash() float64 {
	return c.portfolio.GetCash()
}

func (c *execContext) Log(level string, message string, fields map[string]interface{}) {
	var evt *zerolog.Event
	switch level {
	case "debug":
		evt = c.logger.Debug()
	case "warn":
		evt = c.logger.Warn()
	case "error":
		evt = c.logger.Error()
	default:
		evt = c.logger.Info()
	}
	for k, v := range fields {
		evt = evt.Interface(k, v)
	}
	evt.Msg(message)
}

// Run executes the backtest and returns the results. Bars are processed
// strictly in order; nothing suspends mid-bar.
func (e *Engine) Run(ctx context.Context) (*Results, error) {
	if err := e.dataFeed.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("initializing data feed: %w", err)
	}

	execCtx := &execContext{
		portfolio: e.portfolio,
		logger:    logging.GetSubLogger(e.logger, e.strat.GetName()),
	}
	if err := e.strat.Initialize(execCtx); err != nil {
		return nil, fmt.Errorf("initializing strategy %s: %w", e.strat.GetName(), err)
	}

	e.logger.Info().
		Str("strategy", e.strat.GetName()).
		Float64("initial_capital", e.config.InitialCapital).
		Msg("Starting backtest")

	lastPrices := make(map[string]float64)
	var lastBar *strategy.BarData
	bars := 0

	for e.dataFeed.HasMoreData() {
		bar, err := e.dataFeed.GetNextBar()
		if err != nil {
			return nil, fmt.Errorf("reading bar: %w", err)
		}
		if bar == nil {
			break
		}
		bars++
		lastBar = bar
		lastPrices[bar.Symbol] = bar.Close

		// Risk levels fire on the bar's range before the strategy sees it.
		if _, err := e.portfolio.CheckExitLevels(*bar); err != nil {
			return nil, err
		}

		signal, err := e.strat.OnBar(execCtx, *bar)
		if err != nil {
			return nil, fmt.Errorf("strategy %s on bar %s: %w", e.strat.GetName(), bar.Timestamp, err)
		}
		if signal != nil {
			if err := e.handleSignal(signal, *bar); err != nil {
				return nil, err
			}
		}

		e.portfolio.RecordEquity(bar.Timestamp, lastPrices)
	}

	// Any survivor is force-closed at the final close.
	if lastBar != nil {
		for _, symbol := range e.dataFeed.GetSymbols() {
			if e.portfolio.GetPosition(symbol) == nil {
				continue
			}
			price, ok := lastPrices[symbol]
			if !ok {
				price = lastBar.Close
			}
			if _, err := e.portfolio.ClosePosition(symbol, price, lastBar.Timestamp, strategy.ExitEndOfData); err != nil {
				return nil, err
			}
		}
		e.portfolio.ReplaceLastEquity(e.portfolio.TotalValue(lastPrices))
	}

	e.logger.Info().
		Str("strategy", e.strat.GetName()).
		Int("bars", bars).
		Int("trades", len(e.portfolio.Trades())).
		Float64("final_value", finalValue(e.portfolio)).
		Msg("Backtest complete")

	return NewResults(e.strat, e.config, e.portfolio), nil
}

// handleSignal opens or closes a position according to the signal
func (e *Engine) handleSignal(signal *strategy.Signal, bar strategy.BarData) error {
	switch signal.Direction {
	case strategy.DirectionLong:
		if e.portfolio.GetPosition(signal.Symbol) != nil {
			return nil
		}
		quantity := e.strat.CalculatePositionSize(signal, e.portfolio.GetCash())
		if quantity <= 0 {
			return nil
		}
		fill := e.portfolio.BuyFillPrice(bar.Close)
		cost := fill*quantity + fill*quantity*e.config.CommissionPct
		if cost > e.portfolio.GetCash() {
			e.logger.Debug().
				Str("symbol", signal.Symbol).
				Float64("cost", cost).
				Float64("cash", e.portfolio.GetCash()).
				Msg("Signal skipped, insufficient cash")
			return nil
		}

		// Risk levels derive from the actual fill, not the quoted close.
		stopLoss, takeProfit := signal.StopLoss, signal.TakeProfit
		if signal.StopLossPct > 0 {
			stopLoss = fill - fill*signal.StopLossPct
		}
		if signal.TakeProfitPct > 0 {
			takeProfit = fill + fill*signal.TakeProfitPct
		}
		return e.portfolio.OpenPosition(signal.Symbol, bar.Close, quantity, bar.Timestamp, stopLoss, takeProfit)

	case strategy.DirectionExit:
		if e.portfolio.GetPosition(signal.Symbol) == nil {
			return nil
		}
		_, err := e.portfolio.ClosePosition(signal.Symbol, bar.Close, bar.Timestamp, strategy.ExitSignal)
		return err
	}
	return nil
}

func finalValue(p *Portfolio) float64 {
	curve := p.EquityCurve()
	if len(curve) == 0 {
		return p.InitialCapital()
	}
	return curve[len(curve)-1].Value
}
