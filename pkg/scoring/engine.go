// Package scoring combines condition strengths into a single confidence
// score and maps it to a discrete action tier.
package scoring

import (
	"fmt"
	"math"
	"sort"
)

// Condition is a boolean/strength judgment from one indicator family
type Condition struct {
	Name      string
	Satisfied bool
	Strength  float64 // in [0,1]
	RawValue  float64
}

// Tier is the discrete recommendation bucket derived from a score
type Tier string

const (
	TierStrongBuy Tier = "STRONG_BUY"
	TierGoodSetup Tier = "GOOD_SETUP"
	TierWait      Tier = "WAIT"
	TierAvoid     Tier = "AVOID"
)

// Score is the weighted combination of condition strengths
type Score struct {
	Value      float64
	Tier       Tier
	Conditions []Condition
	Weights    map[string]float64
}

// ConfigError reports invalid scoring configuration. Fatal, returned from
// constructors, never defaulted silently.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("scoring config: %s: %s", e.Field, e.Message)
}

// weightSumTolerance bounds the allowed deviation of the weight sum from 1.0.
const weightSumTolerance = 1e-6

// ConditionNames are the five base condition families, in scoring order.
var ConditionNames = []string{"fibonacci", "macd", "rsi", "volume", "trend"}

// EqualWeightProfile returns the default 0.20-each weight profile.
func EqualWeightProfile() map[string]float64 {
	w := make(map[string]float64, len(ConditionNames))
	for _, name := range ConditionNames {
		w[name] = 0.20
	}
	return w
}

// WeightedProfile returns the non-uniform profile favoring MACD and volume.
func WeightedProfile() map[string]float64 {
	return map[string]float64{
		"fibonacci": 0.20,
		"macd":      0.25,
		"rsi":       0.15,
		"volume":    0.25,
		"trend":     0.15,
	}
}

// TierBoundaries holds the score cutoffs between action tiers.
// Boundaries are closed at the lower edge: a score exactly at a boundary
// belongs to the higher tier.
type TierBoundaries struct {
	StrongBuy float64
	GoodSetup float64
	Wait      float64
}

// DefaultTierBoundaries returns the standard 0.80/0.60/0.40 cutoffs.
func DefaultTierBoundaries() TierBoundaries {
	return TierBoundaries{StrongBuy: 0.80, GoodSetup: 0.60, Wait: 0.40}
}

// Engine computes scores from condition sets with a fixed weight profile
type Engine struct {
	weights    map[string]float64
	boundaries TierBoundaries
}

// NewEngine validates the weight profile and returns a scoring engine.
// Weights must cover exactly the five base conditions and sum to 1.0.
func NewEngine(weights map[string]float64, boundaries TierBoundaries) (*Engine, error) {
	if weights == nil {
		weights = EqualWeightProfile()
	}
	sum := 0.0
	for _, name := range ConditionNames {
		w, ok := weights[name]
		if !ok {
			return nil, &ConfigError{Field: "weights", Message: fmt.Sprintf("missing weight for %q", name)}
		}
		if w < 0 {
			return nil, &ConfigError{Field: "weights", Message: fmt.Sprintf("negative weight for %q", name)}
		}
		sum += w
	}
	if len(weights) != len(ConditionNames) {
		return nil, &ConfigError{Field: "weights", Message: "unknown condition name in weight profile"}
	}
	if math.Abs(sum-1.0) > weightSumTolerance {
		return nil, &ConfigError{Field: "weights", Message: fmt.Sprintf("weights sum to %.6f, must sum to 1.0", sum)}
	}
	if !(boundaries.StrongBuy > boundaries.GoodSetup && boundaries.GoodSetup > boundaries.Wait && boundaries.Wait > 0) {
		return nil, &ConfigError{Field: "tier_boundaries", Message: "boundaries must satisfy 0 < wait < good_setup < strong_buy"}
	}

	// Copy so a caller mutating its map later cannot change the engine.
	owned := make(map[string]float64, len(weights))
	for k, v := range weights {
		owned[k] = v
	}
	return &Engine{weights: owned, boundaries: boundaries}, nil
}

// Score computes the weighted score for a set of conditions. Conditions not
// present in the input contribute zero strength.
func (e *Engine) Score(conditions []Condition) Score {
	byName := make(map[string]Condition, len(conditions))
	for _, c := range conditions {
		byName[c.Name] = c
	}

	value := 0.0
	contributing := make([]Condition, 0, len(ConditionNames))
	for _, name := range ConditionNames {
		c, ok := byName[name]
		if !ok {
			c = Condition{Name: name, Satisfied: false, Strength: 0}
		}
		value += e.weights[name] * c.Strength
		contributing = append(contributing, c)
	}

	// Guard against float accumulation nudging the sum past the bounds.
	value = math.Max(0, math.Min(1, value))

	return Score{
		Value:      value,
		Tier:       e.Classify(value),
		Conditions: contributing,
		Weights:    e.weights,
	}
}

// Classify maps a score value to its action tier. Pure and monotonic.
func (e *Engine) Classify(value float64) Tier {
	switch {
	case value >= e.boundaries.StrongBuy:
		return TierStrongBuy
	case value >= e.boundaries.GoodSetup:
		return TierGoodSetup
	case value >= e.boundaries.Wait:
		return TierWait
	default:
		return TierAvoid
	}
}

// Weights returns a copy of the engine's weight profile.
func (e *Engine) Weights() map[string]float64 {
	out := make(map[string]float64, len(e.weights))
	for k, v := range e.weights {
		out[k] = v
	}
	return out
}

// Describe returns a stable one-line description of the weight profile.
func (e *Engine) Describe() string {
	names := make([]string, 0, len(e.weights))
	for name := range e.weights {
		names = append(names, name)
	}
	sort.Strings(names)
	s := ""
	for i, name := range names {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%s=%.2f", name, e.weights[name])
	}
	return s
}
