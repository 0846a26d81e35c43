package backtester

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ridopark/FibTrader/pkg/logging"
	"github.com/ridopark/FibTrader/pkg/strategy"
)

// Portfolio tracks cash, open positions and closed trades during a replay.
// Mutated only by the engine that owns it, one bar at a time.
type Portfolio struct {
	initialCapital float64
	cash           float64
	commissionPct  float64
	slippagePct    float64

	positions   map[string]*strategy.Position
	equityCurve []strategy.EquityPoint
	trades      []strategy.Trade

	// entryCommission accumulates per symbol so the closed Trade carries
	// the full round-trip commission.
	entryCommission map[string]float64

	logger zerolog.Logger
}

// NewPortfolio creates a portfolio with the given starting capital
func NewPortfolio(initialCapital, commissionPct, slippagePct float64) *Portfolio {
	return &Portfolio{
		initialCapital:  initialCapital,
		cash:            initialCapital,
		commissionPct:   commissionPct,
		slippagePct:     slippagePct,
		positions:       make(map[string]*strategy.Position),
		entryCommission: make(map[string]float64),
		logger:          logging.GetLogger("portfolio"),
	}
}

// GetCash returns the current cash balance
func (p *Portfolio) GetCash() float64 {
	return p.cash
}

// GetPosition returns the open position for a symbol, or nil
func (p *Portfolio) GetPosition(symbol string) *strategy.Position {
	return p.positions[symbol]
}

// OpenPositions returns the number of currently open positions
func (p *Portfolio) OpenPositions() int {
	return len(p.positions)
}

// BuyFillPrice returns the execution price for a buy at the quoted price,
// slippage applied against the buyer.
func (p *Portfolio) BuyFillPrice(quoted float64) float64 {
	return quoted * (1 + p.slippagePct)
}

// OpenPosition buys quantity shares at the quoted price. Fails when the
// fill cost plus commission exceeds available cash or a position is already
// open for the symbol. Cash never goes negative.
func (p *Portfolio) OpenPosition(symbol string, quoted, quantity float64, ts time.Time, stopLoss, takeProfit float64) error {
	if quantity <= 0 {
		return fmt.Errorf("open %s: non-positive quantity %v", symbol, quantity)
	}
	if _, exists := p.positions[symbol]; exists {
		return fmt.Errorf("open %s: position already open", symbol)
	}

	fill := p.BuyFillPrice(quoted)
	commission := fill * quantity * p.commissionPct
	cost := fill*quantity + commission
	if cost > p.cash {
		return fmt.Errorf("open %s: cost %.2f exceeds cash %.2f", symbol, cost, p.cash)
	}

	p.cash -= cost
	p.positions[symbol] = &strategy.Position{
		Symbol:         symbol,
		EntryPrice:     fill,
		Quantity:       quantity,
		EntryTimestamp: ts,
		StopLoss:       stopLoss,
		TakeProfit:     takeProfit,
		Status:         strategy.PositionOpen,
	}
	p.entryCommission[symbol] = commission

	p.logger.Debug().
		Str("symbol", symbol).
		Float64("fill", fill).
		Float64("quantity", quantity).
		Float64("commission", commission).
		Float64("cash", p.cash).
		Msg("Opened position")
	return nil
}

// ClosePosition sells the open position at the quoted price, slippage
// applied against the seller, and appends the closed trade to the log.
func (p *Portfolio) ClosePosition(symbol string, quoted float64, ts time.Time, reason strategy.ExitReason) (*strategy.Trade, error) {
	pos, exists := p.positions[symbol]
	if !exists {
		return nil, fmt.Errorf("close %s: no open position", symbol)
	}

	fill := quoted * (1 - p.slippagePct)
	commission := fill * pos.Quantity * p.commissionPct
	proceeds := fill*pos.Quantity - commission
	p.cash += proceeds

	totalCommission := commission + p.entryCommission[symbol]
	trade := strategy.Trade{
		Symbol:     symbol,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  fill,
		EntryTime:  pos.EntryTimestamp,
		ExitTime:   ts,
		Quantity:   pos.Quantity,
		Commission: totalCommission,
		PnL:        (fill-pos.EntryPrice)*pos.Quantity - commission - p.entryCommission[symbol],
		ExitReason: reason,
	}
	pos.Status = strategy.PositionClosed
	delete(p.positions, symbol)
	delete(p.entryCommission, symbol)
	p.trades = append(p.trades, trade)

	p.logger.Debug().
		Str("symbol", symbol).
		Float64("fill", fill).
		Float64("pnl", trade.PnL).
		Str("reason", string(reason)).
		Float64("cash", p.cash).
		Msg("Closed position")
	return &trade, nil
}

// CheckExitLevels tests the bar's range against the open position's risk
// levels and closes the position at the touched level. When both levels
// fall inside one bar the stop-loss wins, the conservative tie-break.
func (p *Portfolio) CheckExitLevels(bar strategy.BarData) (*strategy.Trade, error) {
	pos, exists := p.positions[bar.Symbol]
	if !exists {
		return nil, nil
	}
	if pos.StopLoss > 0 && bar.Low <= pos.StopLoss {
		return p.ClosePosition(bar.Symbol, pos.StopLoss, bar.Timestamp, strategy.ExitStopLoss)
	}
	if pos.TakeProfit > 0 && bar.High >= pos.TakeProfit {
		return p.ClosePosition(bar.Symbol, pos.TakeProfit, bar.Timestamp, strategy.ExitTakeProfit)
	}
	return nil, nil
}

// TotalValue returns cash plus the market value of open positions at the
// given prices.
func (p *Portfolio) TotalValue(prices map[string]float64) float64 {
	total := p.cash
	for symbol, pos := range p.positions {
		if price, ok := prices[symbol]; ok {
			total += pos.MarketValue(price)
		} else {
			total += pos.MarketValue(pos.EntryPrice)
		}
	}
	return total
}

// RecordEquity appends an equity point for the bar
func (p *Portfolio) RecordEquity(ts time.Time, prices map[string]float64) {
	p.equityCurve = append(p.equityCurve, strategy.EquityPoint{
		Timestamp: ts,
		Value:     p.TotalValue(prices),
	})
}

// ReplaceLastEquity overwrites the most recent equity value. Used after the
// end-of-data forced close so the final point reflects the exit costs.
func (p *Portfolio) ReplaceLastEquity(value float64) {
	if n := len(p.equityCurve); n > 0 {
		p.equityCurve[n-1].Value = value
	}
}

// EquityCurve returns the recorded equity points
func (p *Portfolio) EquityCurve() []strategy.EquityPoint {
	return p.equityCurve
}

// Trades returns the closed trade log
func (p *Portfolio) Trades() []strategy.Trade {
	return p.trades
}

// InitialCapital returns the starting capital
func (p *Portfolio) InitialCapital() float64 {
	return p.initialCapital
}
