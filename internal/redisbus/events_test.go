package redisbus

import (
	"testing"
	"time"

	"github.com/ridopark/FibTrader/pkg/scoring"
	"github.com/ridopark/FibTrader/pkg/strategy"
)

func TestNewSignalEvent(t *testing.T) {
	ts := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	sig := &strategy.Signal{
		Symbol:    "AAPL",
		Timestamp: ts,
		Direction: strategy.DirectionLong,
		Confidence: scoring.Score{
			Value: 0.72,
			Tier:  scoring.TierGoodSetup,
			Conditions: []scoring.Condition{
				{Name: "macd", Satisfied: true, Strength: 0.8},
				{Name: "trend", Satisfied: true, Strength: 1.0},
			},
		},
		Entries: []strategy.EntryLevel{
			{Price: 98.5, Source: "fib_0.618", DiscountPct: 0.015},
		},
		StopLoss:   92,
		TakeProfit: 115,
		Reason:     "confluence score 0.72",
	}

	evt := NewSignalEvent(sig)
	if evt.Symbol != "AAPL" || evt.Direction != "LONG" || evt.Tier != "GOOD_SETUP" {
		t.Errorf("event header wrong: %+v", evt)
	}
	if evt.Score != 0.72 {
		t.Errorf("score = %v, want 0.72", evt.Score)
	}
	if evt.Conditions["macd"] != 0.8 || evt.Conditions["trend"] != 1.0 {
		t.Errorf("condition strengths wrong: %v", evt.Conditions)
	}
	if len(evt.Entries) != 1 || evt.Entries[0].Source != "fib_0.618" {
		t.Errorf("entries wrong: %v", evt.Entries)
	}
}

func TestTierEventType(t *testing.T) {
	if got := TierEventType(scoring.TierStrongBuy); got != "signals.strong" {
		t.Errorf("strong buy channel = %q", got)
	}
	if got := TierEventType(scoring.TierWait); got != "signals" {
		t.Errorf("default channel = %q", got)
	}
}
