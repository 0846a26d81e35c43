// Package feed supplies validated OHLCV bars to the backtest engine.
package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/ridopark/FibTrader/pkg/strategy"
)

// DataFeed provides bars to the backtesting engine in chronological order
type DataFeed interface {
	// Initialize prepares the feed for data delivery
	Initialize(ctx context.Context) error

	// GetNextBar returns the next bar, or nil when the feed is exhausted
	GetNextBar() (*strategy.BarData, error)

	// HasMoreData returns true if more bars are available
	HasMoreData() bool

	// GetSymbols returns the symbols this feed provides
	GetSymbols() []string

	// Close releases feed resources
	Close() error
}

// HistoricalDataProvider fetches bars from an external store. Retrieval is
// the external collaborator boundary; retries and caching live behind this
// interface, never inside the engine.
type HistoricalDataProvider interface {
	// GetBars fetches OHLCV bars for a symbol over a date range
	GetBars(ctx context.Context, symbol, timeframe string, start, end time.Time) ([]strategy.BarData, error)

	// Close releases provider resources
	Close() error
}

// ValidationError identifies a malformed bar rejected at ingestion
type ValidationError struct {
	Symbol    string
	Timestamp time.Time
	Index     int
	Reason    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid bar %s[%d] at %s: %s",
		e.Symbol, e.Index, e.Timestamp.Format(time.RFC3339), e.Reason)
}

// ValidateBars rejects malformed bars: non-positive prices, high below low,
// open/close outside the high/low range, negative volume, and non-increasing
// timestamps. The engine never silently coerces invalid data.
func ValidateBars(bars []strategy.BarData) error {
	var prev time.Time
	for i, bar := range bars {
		if err := validateBar(bar, i); err != nil {
			return err
		}
		if i > 0 && !bar.Timestamp.After(prev) {
			return &ValidationError{Symbol: bar.Symbol, Timestamp: bar.Timestamp, Index: i, Reason: "timestamp not strictly increasing"}
		}
		prev = bar.Timestamp
	}
	return nil
}

func validateBar(bar strategy.BarData, index int) error {
	fail := func(reason string) error {
		return &ValidationError{Symbol: bar.Symbol, Timestamp: bar.Timestamp, Index: index, Reason: reason}
	}
	if bar.Open <= 0 || bar.High <= 0 || bar.Low <= 0 || bar.Close <= 0 {
		return fail("non-positive price")
	}
	if bar.High < bar.Low {
		return fail("high below low")
	}
	if bar.Open > bar.High || bar.Open < bar.Low {
		return fail("open outside high/low range")
	}
	if bar.Close > bar.High || bar.Close < bar.Low {
		return fail("close outside high/low range")
	}
	if bar.Volume < 0 {
		return fail("negative volume")
	}
	return nil
}
