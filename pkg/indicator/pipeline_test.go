package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/ridopark/FibTrader/pkg/strategy"
)

// makeBars builds a daily bar series from close prices, with high/low a
// fixed band around the close and constant volume.
func makeBars(closes []float64) []strategy.BarData {
	bars := make([]strategy.BarData, len(closes))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = strategy.BarData{
			Symbol:    "TEST",
			Timestamp: start.AddDate(0, 0, i),
			Open:      c,
			High:      c * 1.01,
			Low:       c * 0.99,
			Close:     c,
			Volume:    1000,
			Timeframe: "1D",
		}
	}
	return bars
}

func flatCloses(n int, price float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = price
	}
	return closes
}

func rampCloses(n int, start, step float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = start + float64(i)*step
	}
	return closes
}

func TestSMAAbsentBeforeWindowFills(t *testing.T) {
	sets := Compute(DefaultConfig(), makeBars(rampCloses(25, 100, 1)))

	for i := 0; i < 19; i++ {
		if sets[i].SMA20.Valid {
			t.Errorf("bar %d: SMA20 should be absent before 20 bars", i)
		}
	}
	if !sets[19].SMA20.Valid {
		t.Fatal("bar 19: SMA20 should be present")
	}
	// mean of 100..119
	if got, want := sets[19].SMA20.Float64, 109.5; math.Abs(got-want) > 1e-9 {
		t.Errorf("SMA20 at bar 19 = %v, want %v", got, want)
	}
	if got, want := sets[24].SMA20.Float64, 114.5; math.Abs(got-want) > 1e-9 {
		t.Errorf("SMA20 at bar 24 = %v, want %v", got, want)
	}
}

func TestEMAAndMACDWarmup(t *testing.T) {
	cfg := DefaultConfig()
	sets := Compute(cfg, makeBars(rampCloses(60, 100, 0.5)))

	if sets[10].EMA12.Valid {
		t.Error("EMA12 should be absent before 12 bars")
	}
	if !sets[11].EMA12.Valid {
		t.Error("EMA12 should be present from bar 11")
	}
	if sets[24].MACD.Valid {
		t.Error("MACD should be absent before EMA26 fills")
	}
	if !sets[25].MACD.Valid {
		t.Error("MACD should be present from bar 25")
	}
	// Signal is the 9-EMA of MACD, so it appears 8 bars later.
	if sets[32].MACDSignal.Valid {
		t.Error("MACD signal should be absent before 9 MACD values exist")
	}
	if !sets[33].MACDSignal.Valid || !sets[33].MACDHist.Valid {
		t.Error("MACD signal and histogram should be present from bar 33")
	}

	last := sets[len(sets)-1]
	if got := last.MACD.Float64; math.Abs(got-(last.EMA12.Float64-last.EMA26.Float64)) > 1e-12 {
		t.Errorf("MACD must equal EMA12-EMA26, got %v", got)
	}
	if got := last.MACDHist.Float64; math.Abs(got-(last.MACD.Float64-last.MACDSignal.Float64)) > 1e-12 {
		t.Errorf("histogram must equal MACD-signal, got %v", got)
	}
	// Rising series keeps the fast EMA above the slow one.
	if last.MACD.Float64 <= 0 {
		t.Errorf("MACD should be positive on a steadily rising series, got %v", last.MACD.Float64)
	}
}

func TestRSIWarmupAndAllGains(t *testing.T) {
	sets := Compute(DefaultConfig(), makeBars(rampCloses(30, 100, 1)))

	for i := 0; i < 14; i++ {
		if sets[i].RSI14.Valid {
			t.Errorf("bar %d: RSI should be absent for the first 14 bars", i)
		}
	}
	if !sets[14].RSI14.Valid {
		t.Fatal("bar 14: RSI should be present")
	}
	// Monotonic gains mean average loss is exactly zero.
	if got := sets[14].RSI14.Float64; got != 100.0 {
		t.Errorf("RSI on all-gain series = %v, want exactly 100", got)
	}
}

func TestRSIWilderSmoothing(t *testing.T) {
	// One loss inside the seed window, then flat. Seed averages over 14
	// changes: avgGain=13/14 (13 one-point gains), avgLoss=2/14.
	closes := rampCloses(14, 100, 1)
	closes = append(closes, closes[len(closes)-1]-2) // bar 14, a 2-point drop
	sets := Compute(DefaultConfig(), makeBars(closes))

	last := sets[len(sets)-1].RSI14
	if !last.Valid {
		t.Fatal("RSI should be present after 15 bars")
	}
	avgGain := 13.0 / 14.0
	avgLoss := 2.0 / 14.0
	want := 100.0 - 100.0/(1.0+avgGain/avgLoss)
	if math.Abs(last.Float64-want) > 1e-9 {
		t.Errorf("RSI = %v, want %v", last.Float64, want)
	}
}

func TestFlatSeriesIsReproducible(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FibonacciWindow = 30

	a := Compute(cfg, makeBars(flatCloses(60, 100)))
	b := Compute(cfg, makeBars(flatCloses(60, 100)))

	last := a[len(a)-1]
	if !last.RSI14.Valid || last.RSI14.Float64 != 100.0 {
		t.Errorf("flat series RSI = %+v, want valid 100 (zero average loss)", last.RSI14)
	}
	if !last.MACD.Valid || last.MACD.Float64 != 0 {
		t.Errorf("flat series MACD = %+v, want valid 0", last.MACD)
	}
	for i := range a {
		if a[i].SMA20 != b[i].SMA20 || a[i].MACD != b[i].MACD || a[i].RSI14 != b[i].RSI14 {
			t.Fatalf("bar %d: identical input produced different indicator sets", i)
		}
	}
}

func TestFibonacciLevelsAndCaching(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FibonacciWindow = 20
	cfg.FibonacciRefresh = 10

	// Flat at 100 through the first window, then a jump that would move
	// the window high if levels were recomputed per bar.
	closes := flatCloses(20, 100)
	closes = append(closes, rampCloses(15, 120, 1)...)
	bars := makeBars(closes)
	sets := Compute(cfg, bars)

	if sets[18].FibLevels != nil {
		t.Error("fib levels should be absent before the window fills")
	}
	levels := sets[19].FibLevels
	if levels == nil {
		t.Fatal("fib levels should be present once the window fills")
	}
	high, low := 101.0, 99.0 // flat 100 closes with the 1% band
	for _, ratio := range FibRatios {
		want := low + ratio*(high-low)
		if got := levels[ratio]; math.Abs(got-want) > 1e-9 {
			t.Errorf("fib[%v] = %v, want %v", ratio, got, want)
		}
	}

	// Bars 20..28 fall inside the refresh interval and must reuse the
	// cached levels even though the window contents changed.
	for i := 20; i < 29; i++ {
		if sets[i].FibLevels[0.618] != levels[0.618] {
			t.Errorf("bar %d: fib levels recomputed inside refresh interval", i)
		}
	}
	// Bar 29 crosses the refresh boundary and must pick up the new high.
	if sets[29].FibLevels[0.618] == levels[0.618] {
		t.Error("fib levels should refresh after FibonacciRefresh bars")
	}
}
