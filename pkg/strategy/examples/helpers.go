// Package examples contains the concrete strategy variants.
package examples

import "math"

// sma returns the mean of the last period values, false until enough exist.
func sma(values []float64, period int) (float64, bool) {
	if len(values) < period {
		return 0, false
	}
	sum := 0.0
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period), true
}

// stdDev returns the population standard deviation of the last period
// values, false until enough exist.
func stdDev(values []float64, period int) (float64, bool) {
	mean, ok := sma(values, period)
	if !ok {
		return 0, false
	}
	sum := 0.0
	for _, v := range values[len(values)-period:] {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(period)), true
}

// emaTracker streams one exponential moving average, seeded with the simple
// average of its first period values.
type emaTracker struct {
	period  int
	alpha   float64
	seedSum float64
	count   int
	value   float64
}

func newEMATracker(period int) *emaTracker {
	return &emaTracker{period: period, alpha: 2.0 / (float64(period) + 1.0)}
}

// update feeds one value and reports the EMA once the seed window fills
func (e *emaTracker) update(v float64) (float64, bool) {
	e.count++
	if e.count < e.period {
		e.seedSum += v
		return 0, false
	}
	if e.count == e.period {
		e.seedSum += v
		e.value = e.seedSum / float64(e.period)
		return e.value, true
	}
	e.value = e.alpha*v + (1-e.alpha)*e.value
	return e.value, true
}
