package redisbus

import (
	"context"
	"time"

	"github.com/ridopark/FibTrader/pkg/scoring"
	"github.com/ridopark/FibTrader/pkg/strategy"
)

// SignalEvent is the wire form of an emitted trading signal
type SignalEvent struct {
	Symbol     string             `json:"symbol"`
	Timestamp  time.Time          `json:"timestamp"`
	Direction  string             `json:"direction"`
	Score      float64            `json:"score"`
	Tier       string             `json:"tier"`
	Conditions map[string]float64 `json:"conditions,omitempty"`
	Entries    []EntryEvent       `json:"entries,omitempty"`
	StopLoss   float64            `json:"stop_loss,omitempty"`
	TakeProfit float64            `json:"take_profit,omitempty"`
	Reason     string             `json:"reason,omitempty"`
}

// EntryEvent is one candidate entry level in a signal event
type EntryEvent struct {
	Price       float64 `json:"price"`
	Source      string  `json:"source"`
	DiscountPct float64 `json:"discount_pct"`
}

// NewSignalEvent converts a signal into its event form
func NewSignalEvent(sig *strategy.Signal) SignalEvent {
	evt := SignalEvent{
		Symbol:     sig.Symbol,
		Timestamp:  sig.Timestamp,
		Direction:  string(sig.Direction),
		Score:      sig.Confidence.Value,
		Tier:       string(sig.Confidence.Tier),
		StopLoss:   sig.StopLoss,
		TakeProfit: sig.TakeProfit,
		Reason:     sig.Reason,
	}
	if len(sig.Confidence.Conditions) > 0 {
		evt.Conditions = make(map[string]float64, len(sig.Confidence.Conditions))
		for _, c := range sig.Confidence.Conditions {
			evt.Conditions[c.Name] = c.Strength
		}
	}
	for _, entry := range sig.Entries {
		evt.Entries = append(evt.Entries, EntryEvent{
			Price:       entry.Price,
			Source:      entry.Source,
			DiscountPct: entry.DiscountPct,
		})
	}
	return evt
}

// PublishSignal publishes a signal on the signals channel
func (b *Bus) PublishSignal(ctx context.Context, sig *strategy.Signal) error {
	return b.Publish(ctx, "signals", NewSignalEvent(sig))
}

// TierEventType maps an action tier to a dedicated event channel suffix,
// so consumers can subscribe to strong setups only.
func TierEventType(tier scoring.Tier) string {
	switch tier {
	case scoring.TierStrongBuy:
		return "signals.strong"
	default:
		return "signals"
	}
}
