package examples

import (
	"testing"
	"time"

	"github.com/ridopark/FibTrader/pkg/strategy"
)

// stubContext is a minimal strategy.Context for driving OnBar directly.
type stubContext struct {
	positions map[string]*strategy.Position
	cash      float64
}

func newStubContext() *stubContext {
	return &stubContext{positions: make(map[string]*strategy.Position), cash: 100000}
}

func (c *stubContext) GetPosition(symbol string) *strategy.Position {
	return c.positions[symbol]
}

func (c *stubContext) GetCash() float64 { return c.cash }

func (c *stubContext) Log(level, message string, fields map[string]interface{}) {}

func (c *stubContext) open(symbol string) {
	c.positions[symbol] = &strategy.Position{Symbol: symbol, Status: strategy.PositionOpen}
}

func (c *stubContext) close(symbol string) {
	delete(c.positions, symbol)
}

func bars(closes []float64) []strategy.BarData {
	out := make([]strategy.BarData, len(closes))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		out[i] = strategy.BarData{
			Symbol:    "TEST",
			Timestamp: start.AddDate(0, 0, i),
			Open:      c,
			High:      c * 1.005,
			Low:       c * 0.995,
			Close:     c,
			Volume:    1000,
			Timeframe: "1D",
		}
	}
	return out
}

// drive replays bars through a strategy, maintaining stub position state,
// and returns the emitted signals.
func drive(t *testing.T, s strategy.Strategy, series []strategy.BarData) []*strategy.Signal {
	t.Helper()
	ctx := newStubContext()
	if err := s.Initialize(ctx); err != nil {
		t.Fatal(err)
	}
	var signals []*strategy.Signal
	for _, bar := range series {
		sig, err := s.OnBar(ctx, bar)
		if err != nil {
			t.Fatal(err)
		}
		if sig == nil || sig.Direction == strategy.DirectionNone {
			continue
		}
		signals = append(signals, sig)
		switch sig.Direction {
		case strategy.DirectionLong:
			ctx.open(sig.Symbol)
		case strategy.DirectionExit:
			ctx.close(sig.Symbol)
		}
	}
	return signals
}

// vShape falls from 110 to a trough and climbs back up, producing a
// bearish then a bullish crossover.
func vShape() []strategy.BarData {
	var closes []float64
	for i := 0; i < 30; i++ {
		closes = append(closes, 110-float64(i))
	}
	for i := 0; i < 40; i++ {
		closes = append(closes, 81+float64(i))
	}
	return bars(closes)
}

func TestMACrossoverEmitsLongAndExit(t *testing.T) {
	// Dip then recovery produces the bullish cross; the final decline
	// forces the bearish cross that exits the position.
	var closes []float64
	for i := 0; i < 25; i++ {
		closes = append(closes, 105-2*float64(i))
	}
	for i := 0; i < 25; i++ {
		closes = append(closes, 57+2*float64(i))
	}
	for i := 0; i < 20; i++ {
		closes = append(closes, 105-2*float64(i))
	}
	signals := drive(t, NewMACrossoverStrategy(5, 15), bars(closes))

	if len(signals) < 2 {
		t.Fatalf("expected at least a LONG and an EXIT, got %d signals", len(signals))
	}
	if signals[0].Direction != strategy.DirectionLong {
		t.Errorf("first signal = %v, want LONG", signals[0].Direction)
	}
	sawExit := false
	for _, sig := range signals {
		if sig.Direction == strategy.DirectionExit {
			sawExit = true
		}
	}
	if !sawExit {
		t.Error("expected an EXIT signal after the dip")
	}
}

func TestEMACrossoverEmitsLongOnUptrend(t *testing.T) {
	signals := drive(t, NewEMACrossoverStrategy(5, 15), vShape())
	if len(signals) == 0 {
		t.Fatal("expected a signal on the recovery leg")
	}
	if signals[0].Direction != strategy.DirectionLong {
		t.Errorf("first signal = %v, want LONG", signals[0].Direction)
	}
}

func TestTripleMAAlignment(t *testing.T) {
	signals := drive(t, NewTripleMAStrategy(5, 10, 20), vShape())
	if len(signals) == 0 {
		t.Fatal("expected a LONG once the averages align on the recovery")
	}
	if signals[0].Direction != strategy.DirectionLong {
		t.Errorf("first signal = %v, want LONG", signals[0].Direction)
	}
}

func TestMomentumRSIThresholds(t *testing.T) {
	// Decline long enough to warm up RSI low, then a strong rally pushes
	// RSI up through the entry threshold.
	var closes []float64
	for i := 0; i < 25; i++ {
		closes = append(closes, 200-2*float64(i))
	}
	for i := 0; i < 25; i++ {
		closes = append(closes, 154+3*float64(i))
	}
	signals := drive(t, NewMomentumStrategy(55, 45), bars(closes))

	if len(signals) == 0 {
		t.Fatal("expected a LONG when RSI crossed the entry threshold")
	}
	if signals[0].Direction != strategy.DirectionLong {
		t.Errorf("first signal = %v, want LONG", signals[0].Direction)
	}
}

func TestMeanReversionBuysTheDip(t *testing.T) {
	// Stable range, one sharp dip, then recovery to the mean.
	var closes []float64
	for i := 0; i < 30; i++ {
		closes = append(closes, 100+0.5*float64(i%4))
	}
	closes = append(closes, 92, 91, 93, 96, 99, 101, 102)
	signals := drive(t, NewMeanReversionStrategy(20, 2.0), bars(closes))

	if len(signals) < 2 {
		t.Fatalf("expected LONG then EXIT, got %d signals", len(signals))
	}
	if signals[0].Direction != strategy.DirectionLong {
		t.Errorf("first signal = %v, want LONG on the dip", signals[0].Direction)
	}
	if signals[1].Direction != strategy.DirectionExit {
		t.Errorf("second signal = %v, want EXIT on reversion", signals[1].Direction)
	}
}

func TestFibonacciMACDGateBlocksFlatSeries(t *testing.T) {
	cfg := DefaultFibonacciMACDConfig()
	cfg.Indicators.FibonacciWindow = 30
	s, err := NewFibonacciMACDStrategy(cfg)
	if err != nil {
		t.Fatal(err)
	}

	flat := make([]float64, 120)
	for i := range flat {
		flat[i] = 100
	}
	signals := drive(t, s, bars(flat))
	if len(signals) != 0 {
		t.Errorf("flat series should never clear the confidence gate, got %d signals", len(signals))
	}
}

func TestFibonacciMACDSignalCarriesRiskLevels(t *testing.T) {
	cfg := DefaultFibonacciMACDConfig()
	cfg.Indicators.FibonacciWindow = 30
	cfg.MinConfidence = 0.10 // low gate so the test exercises signal shape
	s, err := NewFibonacciMACDStrategy(cfg)
	if err != nil {
		t.Fatal(err)
	}

	signals := drive(t, s, vShape())
	if len(signals) == 0 {
		t.Fatal("expected at least one signal with a low gate")
	}
	var long *strategy.Signal
	for _, sig := range signals {
		if sig.Direction == strategy.DirectionLong {
			long = sig
			break
		}
	}
	if long == nil {
		t.Fatal("expected a LONG signal")
	}
	if !(long.StopLoss < long.TakeProfit) || long.StopLossPct != 0.08 || long.TakeProfitPct != 0.15 {
		t.Errorf("signal risk levels malformed: %+v", long)
	}
	if long.Confidence.Value < 0.10 {
		t.Errorf("gated signal confidence %v below the gate", long.Confidence.Value)
	}
}

func TestFibonacciMACDRejectsBadWeights(t *testing.T) {
	cfg := DefaultFibonacciMACDConfig()
	cfg.Weights = map[string]float64{"fibonacci": 0.9, "macd": 0.9, "rsi": 0, "volume": 0, "trend": 0}
	if _, err := NewFibonacciMACDStrategy(cfg); err == nil {
		t.Error("expected config error for weights summing to 1.8")
	}
}

func TestPositionSizeFloorsToWholeShares(t *testing.T) {
	s := NewMACrossoverStrategy(5, 15)
	ctx := newStubContext()
	if err := s.Initialize(ctx); err != nil {
		t.Fatal(err)
	}
	series := bars([]float64{100, 100, 100})
	for _, bar := range series {
		if _, err := s.OnBar(ctx, bar); err != nil {
			t.Fatal(err)
		}
	}

	sig := &strategy.Signal{Symbol: "TEST"}
	qty := s.CalculatePositionSize(sig, 1050)
	if qty != 10 {
		t.Errorf("position size = %v, want 10 whole shares of a $100 stock with $1050", qty)
	}
	if qty := s.CalculatePositionSize(sig, 50); qty != 0 {
		t.Errorf("unaffordable signal should size to 0, got %v", qty)
	}
}
