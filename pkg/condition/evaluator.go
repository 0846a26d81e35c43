// Package condition converts indicator values into normalized condition
// strengths in [0,1].
package condition

import (
	"math"

	"github.com/ridopark/FibTrader/pkg/indicator"
	"github.com/ridopark/FibTrader/pkg/scoring"
	"github.com/ridopark/FibTrader/pkg/strategy"
)

// Evaluator judges the five base conditions for a bar. Absent indicator
// inputs force satisfied=false, strength=0, never an error.
type Evaluator struct {
	fibTolerancePct float64
	rsiLower        float64
	rsiUpper        float64
	volumeThreshold float64
}

// Option customizes an Evaluator
type Option func(*Evaluator)

// WithFibTolerance sets the relative tolerance band around Fibonacci levels
func WithFibTolerance(pct float64) Option {
	return func(e *Evaluator) { e.fibTolerancePct = pct }
}

// NewEvaluator creates an evaluator with default thresholds
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{
		fibTolerancePct: 0.02,
		rsiLower:        30,
		rsiUpper:        70,
		volumeThreshold: 1.0,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate returns the five conditions for the bar, in scoring order
func (e *Evaluator) Evaluate(bar strategy.BarData, set indicator.Set) []scoring.Condition {
	return []scoring.Condition{
		e.fibonacci(bar.Close, set.FibLevels),
		e.macd(set.MACD, set.MACDSignal),
		e.rsi(set.RSI14),
		e.volume(bar.Volume, set.VolumeSMA20),
		e.trend(bar.Close, set.SMA20),
	}
}

// fibonacci is satisfied when the price sits within the tolerance band of
// any level; strength is 1 at the level and decays linearly to 0 at the
// band edge. The nearest level wins.
func (e *Evaluator) fibonacci(price float64, levels map[float64]float64) scoring.Condition {
	c := scoring.Condition{Name: "fibonacci"}
	if len(levels) == 0 || price <= 0 {
		return c
	}

	best := math.Inf(1)
	for _, level := range levels {
		if level <= 0 {
			continue
		}
		dist := math.Abs(price-level) / level
		if dist < best {
			best = dist
			c.RawValue = level
		}
	}
	if best <= e.fibTolerancePct {
		c.Satisfied = true
		c.Strength = clamp01(1 - best/e.fibTolerancePct)
	}
	return c
}

// macd is satisfied on a bullish state (macd above signal). Strength scales
// with the relative histogram magnitude when the signal line is nonzero,
// otherwise it is binary.
func (e *Evaluator) macd(macd, signal indicator.Value) scoring.Condition {
	c := scoring.Condition{Name: "macd"}
	if !macd.Valid || !signal.Valid {
		return c
	}
	c.RawValue = macd.Float64 - signal.Float64
	c.Satisfied = macd.Float64 > signal.Float64
	if signal.Float64 != 0 {
		c.Strength = clamp01((macd.Float64 - signal.Float64) / math.Abs(signal.Float64))
	} else if c.Satisfied {
		c.Strength = 1
	}
	return c
}

// rsi is satisfied in the neutral band. Strength peaks at 50 and reaches 0
// exactly at the 30/70 boundaries, so a boundary reading counts as
// satisfied with zero strength.
func (e *Evaluator) rsi(rsi indicator.Value) scoring.Condition {
	c := scoring.Condition{Name: "rsi"}
	if !rsi.Valid {
		return c
	}
	c.RawValue = rsi.Float64
	if rsi.Float64 < e.rsiLower || rsi.Float64 > e.rsiUpper {
		return c
	}
	c.Satisfied = true
	mid := (e.rsiLower + e.rsiUpper) / 2
	half := (e.rsiUpper - e.rsiLower) / 2
	c.Strength = clamp01(1 - math.Abs(rsi.Float64-mid)/half)
	return c
}

// volume is satisfied at or above the average; strength saturates at twice
// the average.
func (e *Evaluator) volume(vol float64, volSMA indicator.Value) scoring.Condition {
	c := scoring.Condition{Name: "volume"}
	if !volSMA.Valid || volSMA.Float64 <= 0 {
		return c
	}
	ratio := vol / volSMA.Float64
	c.RawValue = ratio
	c.Satisfied = ratio >= e.volumeThreshold
	c.Strength = clamp01(ratio / 2.0)
	return c
}

// trend is binary: price above the 20-bar mean or not.
func (e *Evaluator) trend(price float64, sma indicator.Value) scoring.Condition {
	c := scoring.Condition{Name: "trend"}
	if !sma.Valid {
		return c
	}
	c.RawValue = sma.Float64
	if price > sma.Float64 {
		c.Satisfied = true
		c.Strength = 1
	}
	return c
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
