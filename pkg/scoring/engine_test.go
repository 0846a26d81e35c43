package scoring

import (
	"errors"
	"math"
	"testing"
)

func allSatisfied(strength float64) []Condition {
	conds := make([]Condition, 0, len(ConditionNames))
	for _, name := range ConditionNames {
		conds = append(conds, Condition{Name: name, Satisfied: strength > 0, Strength: strength})
	}
	return conds
}

func TestNewEngineRejectsBadWeightSum(t *testing.T) {
	weights := EqualWeightProfile()
	weights["macd"] = 0.30 // sum 1.10

	_, err := NewEngine(weights, DefaultTierBoundaries())
	if err == nil {
		t.Fatal("expected error for weights summing to 1.10")
	}
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("expected *ConfigError, got %T", err)
	}
}

func TestNewEngineRejectsMissingAndNegativeWeights(t *testing.T) {
	missing := map[string]float64{"fibonacci": 0.5, "macd": 0.5}
	if _, err := NewEngine(missing, DefaultTierBoundaries()); err == nil {
		t.Error("expected error for missing condition weights")
	}

	negative := EqualWeightProfile()
	negative["rsi"] = -0.2
	negative["trend"] = 0.6
	if _, err := NewEngine(negative, DefaultTierBoundaries()); err == nil {
		t.Error("expected error for negative weight")
	}
}

func TestNewEngineAcceptsToleranceOnSum(t *testing.T) {
	weights := EqualWeightProfile()
	weights["trend"] = 0.2 + 5e-7 // inside the 1e-6 tolerance

	if _, err := NewEngine(weights, DefaultTierBoundaries()); err != nil {
		t.Errorf("expected sum within tolerance to be accepted, got %v", err)
	}
}

func TestScoreBoundsAndDeterminism(t *testing.T) {
	engine, err := NewEngine(nil, DefaultTierBoundaries())
	if err != nil {
		t.Fatal(err)
	}

	for _, strength := range []float64{0, 0.25, 0.5, 0.75, 1} {
		s := engine.Score(allSatisfied(strength))
		if s.Value < 0 || s.Value > 1 {
			t.Errorf("strength %v: score %v out of [0,1]", strength, s.Value)
		}
		again := engine.Score(allSatisfied(strength))
		if s.Value != again.Value {
			t.Errorf("strength %v: score not deterministic: %v vs %v", strength, s.Value, again.Value)
		}
	}
}

func TestScoreAllConditionsFull(t *testing.T) {
	engine, err := NewEngine(nil, DefaultTierBoundaries())
	if err != nil {
		t.Fatal(err)
	}

	s := engine.Score(allSatisfied(1.0))
	if math.Abs(s.Value-1.0) > 1e-12 {
		t.Errorf("all strengths 1.0 with equal weights: score = %v, want 1.0", s.Value)
	}
	if s.Tier != TierStrongBuy {
		t.Errorf("score 1.0 tier = %v, want STRONG_BUY", s.Tier)
	}
}

func TestScoreMissingConditionContributesZero(t *testing.T) {
	engine, err := NewEngine(nil, DefaultTierBoundaries())
	if err != nil {
		t.Fatal(err)
	}

	conds := []Condition{
		{Name: "macd", Satisfied: true, Strength: 1.0},
		{Name: "trend", Satisfied: true, Strength: 1.0},
	}
	s := engine.Score(conds)
	if math.Abs(s.Value-0.40) > 1e-12 {
		t.Errorf("two of five conditions at 1.0: score = %v, want 0.40", s.Value)
	}
	if len(s.Conditions) != len(ConditionNames) {
		t.Errorf("score should report all %d conditions, got %d", len(ConditionNames), len(s.Conditions))
	}
}

func TestClassifyBoundaries(t *testing.T) {
	engine, err := NewEngine(nil, DefaultTierBoundaries())
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		value float64
		want  Tier
	}{
		{1.00, TierStrongBuy},
		{0.80, TierStrongBuy}, // boundary is inclusive upward
		{0.799, TierGoodSetup},
		{0.60, TierGoodSetup}, // exactly 0.60 is GOOD_SETUP, not WAIT
		{0.599, TierWait},
		{0.40, TierWait},
		{0.399, TierAvoid},
		{0.00, TierAvoid},
	}
	for _, tc := range cases {
		if got := engine.Classify(tc.value); got != tc.want {
			t.Errorf("Classify(%v) = %v, want %v", tc.value, got, tc.want)
		}
	}
}

func TestClassifyMonotonic(t *testing.T) {
	engine, err := NewEngine(nil, DefaultTierBoundaries())
	if err != nil {
		t.Fatal(err)
	}

	rank := map[Tier]int{TierAvoid: 0, TierWait: 1, TierGoodSetup: 2, TierStrongBuy: 3}
	prev := -1
	for v := 0.0; v <= 1.0; v += 0.01 {
		r := rank[engine.Classify(v)]
		if r < prev {
			t.Fatalf("tier rank decreased at score %v", v)
		}
		prev = r
	}
}

func TestWeightedProfileSumsToOne(t *testing.T) {
	if _, err := NewEngine(WeightedProfile(), DefaultTierBoundaries()); err != nil {
		t.Errorf("weighted profile should validate, got %v", err)
	}
}
