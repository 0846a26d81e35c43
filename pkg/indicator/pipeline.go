// Package indicator computes derived series (moving averages, MACD, RSI,
// Fibonacci retracement levels, volume averages) from raw OHLCV bars.
//
// All values are streamed bar by bar. Values before a lookback window fills
// are absent, never zero.
package indicator

import (
	"github.com/ridopark/FibTrader/pkg/strategy"
)

// Value is an indicator value that may be absent before its window fills.
type Value struct {
	Float64 float64
	Valid   bool
}

func valid(v float64) Value { return Value{Float64: v, Valid: true} }

// FibRatios are the retracement ratios used for Fibonacci levels.
var FibRatios = []float64{0.236, 0.382, 0.500, 0.618, 0.786}

// Set holds the derived values for one bar, aligned by timestamp
type Set struct {
	SMA20       Value
	EMA12       Value
	EMA26       Value
	MACD        Value
	MACDSignal  Value
	MACDHist    Value
	RSI14       Value
	VolumeSMA20 Value

	// FibLevels maps ratio to price. Nil until the Fibonacci window fills.
	FibLevels map[float64]float64
}

// Config controls the pipeline's lookback windows
type Config struct {
	SMAPeriod    int
	EMAFast      int
	EMASlow      int
	SignalPeriod int
	RSIPeriod    int
	VolumePeriod int

	// FibonacciWindow is the trailing high/low window. Levels recompute
	// only every FibonacciRefresh bars once the window has filled, so
	// support levels stay stable between refreshes.
	FibonacciWindow  int
	FibonacciRefresh int
}

// DefaultConfig returns the standard lookback configuration
func DefaultConfig() Config {
	return Config{
		SMAPeriod:        20,
		EMAFast:          12,
		EMASlow:          26,
		SignalPeriod:     9,
		RSIPeriod:        14,
		VolumePeriod:     20,
		FibonacciWindow:  252,
		FibonacciRefresh: 20,
	}
}

// ema tracks one exponential moving average, seeded with the simple average
// of its first period values.
type ema struct {
	period  int
	alpha   float64
	seedSum float64
	count   int
	value   float64
}

func newEMA(period int) *ema {
	return &ema{period: period, alpha: 2.0 / (float64(period) + 1.0)}
}

func (e *ema) update(v float64) Value {
	e.count++
	if e.count < e.period {
		e.seedSum += v
		return Value{}
	}
	if e.count == e.period {
		e.seedSum += v
		e.value = e.seedSum / float64(e.period)
		return valid(e.value)
	}
	e.value = e.alpha*v + (1-e.alpha)*e.value
	return valid(e.value)
}

// Pipeline streams bars for a single symbol and produces one Set per bar.
// Strictly sequential within a symbol; each value depends on the prior
// window contents.
type Pipeline struct {
	cfg Config

	closes  []float64
	volumes []float64
	highs   []float64
	lows    []float64

	emaFast   *ema
	emaSlow   *ema
	emaSignal *ema

	prevClose    float64
	avgGain      float64
	avgLoss      float64
	changeCount  int
	gainSeed     float64
	lossSeed     float64

	fibLevels    map[float64]float64
	barsSinceFib int
}

// NewPipeline creates a pipeline with the given configuration
func NewPipeline(cfg Config) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		emaFast:   newEMA(cfg.EMAFast),
		emaSlow:   newEMA(cfg.EMASlow),
		emaSignal: newEMA(cfg.SignalPeriod),
	}
}

// Update consumes one bar and returns the indicator set for it
func (p *Pipeline) Update(bar strategy.BarData) Set {
	p.closes = append(p.closes, bar.Close)
	p.volumes = append(p.volumes, bar.Volume)
	p.highs = append(p.highs, bar.High)
	p.lows = append(p.lows, bar.Low)

	var set Set
	set.SMA20 = p.rollingMean(p.closes, p.cfg.SMAPeriod)
	set.VolumeSMA20 = p.rollingMean(p.volumes, p.cfg.VolumePeriod)

	set.EMA12 = p.emaFast.update(bar.Close)
	set.EMA26 = p.emaSlow.update(bar.Close)
	if set.EMA12.Valid && set.EMA26.Valid {
		macd := set.EMA12.Float64 - set.EMA26.Float64
		set.MACD = valid(macd)
		set.MACDSignal = p.emaSignal.update(macd)
		if set.MACDSignal.Valid {
			set.MACDHist = valid(macd - set.MACDSignal.Float64)
		}
	}

	set.RSI14 = p.updateRSI(bar.Close)
	set.FibLevels = p.updateFib()

	return set
}

// rollingMean returns the arithmetic mean of the last period values, absent
// until period values exist.
func (p *Pipeline) rollingMean(series []float64, period int) Value {
	if len(series) < period {
		return Value{}
	}
	sum := 0.0
	for _, v := range series[len(series)-period:] {
		sum += v
	}
	return valid(sum / float64(period))
}

// updateRSI applies Wilder's smoothing. The first average gain/loss is a
// simple mean of the first RSIPeriod changes, so the value appears on bar
// RSIPeriod+1.
func (p *Pipeline) updateRSI(close float64) Value {
	if len(p.closes) == 1 {
		p.prevClose = close
		return Value{}
	}

	change := close - p.prevClose
	p.prevClose = close
	gain, loss := 0.0, 0.0
	if change > 0 {
		gain = change
	} else {
		loss = -change
	}

	p.changeCount++
	period := float64(p.cfg.RSIPeriod)
	switch {
	case p.changeCount < p.cfg.RSIPeriod:
		p.gainSeed += gain
		p.lossSeed += loss
		return Value{}
	case p.changeCount == p.cfg.RSIPeriod:
		p.avgGain = (p.gainSeed + gain) / period
		p.avgLoss = (p.lossSeed + loss) / period
	default:
		p.avgGain = (p.avgGain*(period-1) + gain) / period
		p.avgLoss = (p.avgLoss*(period-1) + loss) / period
	}

	if p.avgLoss == 0 {
		return valid(100.0)
	}
	rs := p.avgGain / p.avgLoss
	return valid(100.0 - 100.0/(1.0+rs))
}

// updateFib returns the cached Fibonacci levels, recomputing them from the
// trailing window only on refresh boundaries.
func (p *Pipeline) updateFib() map[float64]float64 {
	window := p.cfg.FibonacciWindow
	if len(p.highs) < window {
		return nil
	}

	if p.fibLevels != nil {
		p.barsSinceFib++
		if p.cfg.FibonacciRefresh <= 0 || p.barsSinceFib < p.cfg.FibonacciRefresh {
			return p.fibLevels
		}
	}

	high := p.highs[len(p.highs)-window]
	low := p.lows[len(p.lows)-window]
	for i := len(p.highs) - window + 1; i < len(p.highs); i++ {
		if p.highs[i] > high {
			high = p.highs[i]
		}
		if p.lows[i] < low {
			low = p.lows[i]
		}
	}

	levels := make(map[float64]float64, len(FibRatios))
	for _, ratio := range FibRatios {
		levels[ratio] = low + ratio*(high-low)
	}
	p.fibLevels = levels
	p.barsSinceFib = 0
	return p.fibLevels
}

// Compute runs the pipeline over a full bar history and returns one Set per
// bar. Convenience for one-shot analysis runs.
func Compute(cfg Config, bars []strategy.BarData) []Set {
	p := NewPipeline(cfg)
	sets := make([]Set, len(bars))
	for i, bar := range bars {
		sets[i] = p.Update(bar)
	}
	return sets
}
