package strategy

import (
	"time"

	"github.com/ridopark/FibTrader/pkg/scoring"
)

// BarData represents OHLCV data for a single time period
type BarData struct {
	Symbol    string
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Timeframe string
}

// Direction represents the direction of a trading signal
type Direction string

const (
	DirectionLong Direction = "LONG"
	DirectionExit Direction = "EXIT"
	DirectionNone Direction = "NONE"
)

// EntryLevel is a candidate entry price below the current price.
type EntryLevel struct {
	Price       float64
	Source      string // "fib_0.618", "sma_20", ...
	DiscountPct float64
}

// Signal is the per-bar output of a strategy. Immutable once emitted.
type Signal struct {
	Symbol     string
	Timestamp  time.Time
	Direction  Direction
	Confidence scoring.Score

	// Candidate entries, nearest to the current price first.
	Entries []EntryLevel

	// Risk levels at the signal's reference price. The engine re-derives
	// them from the actual fill price using the percentages.
	StopLoss      float64
	TakeProfit    float64
	StopLossPct   float64
	TakeProfitPct float64

	Reason string
}

// PositionStatus is the lifecycle state of a position
type PositionStatus string

const (
	PositionOpen   PositionStatus = "OPEN"
	PositionClosed PositionStatus = "CLOSED"
)

// Position represents an open long position in a symbol. Owned exclusively
// by the portfolio that opened it.
type Position struct {
	Symbol         string
	EntryPrice     float64
	Quantity       float64
	EntryTimestamp time.Time
	StopLoss       float64
	TakeProfit     float64
	Status         PositionStatus
}

// MarketValue returns the position value at the given price.
func (p *Position) MarketValue(price float64) float64 {
	return p.Quantity * price
}

// ExitReason explains why a position was closed
type ExitReason string

const (
	ExitSignal     ExitReason = "SIGNAL_EXIT"
	ExitStopLoss   ExitReason = "STOP_LOSS"
	ExitTakeProfit ExitReason = "TAKE_PROFIT"
	ExitEndOfData  ExitReason = "END_OF_DATA"
)

// Trade is a closed round trip. Terminal, never mutated.
type Trade struct {
	Symbol     string
	EntryPrice float64
	ExitPrice  float64
	EntryTime  time.Time
	ExitTime   time.Time
	Quantity   float64
	Commission float64
	PnL        float64
	ExitReason ExitReason
}

// EquityPoint represents portfolio equity at a point in time
type EquityPoint struct {
	Timestamp time.Time
	Value     float64
}

// Context provides strategy access to portfolio state during a replay
type Context interface {
	// GetPosition returns the open position for a symbol, or nil
	GetPosition(symbol string) *Position

	// GetCash returns the current cash balance
	GetCash() float64

	// Log emits a structured log line through the engine's logger
	Log(level string, message string, fields map[string]interface{})
}

// Strategy defines the contract every trading rule implements. The backtest
// engine depends only on the emitted Signal.
type Strategy interface {
	// Initialize is called once before the replay starts
	Initialize(ctx Context) error

	// OnBar consumes one bar and produces at most one signal for it.
	// A nil signal or DirectionNone means no action.
	OnBar(ctx Context, bar BarData) (*Signal, error)

	// CalculatePositionSize returns the quantity to buy for a signal given
	// the available cash. Whole shares, zero when unaffordable.
	CalculatePositionSize(signal *Signal, availableCash float64) float64

	// GetName returns the strategy name
	GetName() string

	// GetParameters returns the strategy parameters
	GetParameters() map[string]interface{}
}
