package feed

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/ridopark/FibTrader/pkg/logging"
	"github.com/ridopark/FibTrader/pkg/strategy"
)

// HistoricalFeed loads bars from a HistoricalDataProvider and serves them
// chronologically across symbols.
type HistoricalFeed struct {
	provider  HistoricalDataProvider
	symbols   []string
	timeframe string
	start     time.Time
	end       time.Time

	bars   []strategy.BarData
	pos    int
	logger zerolog.Logger
}

// NewHistoricalFeed creates a feed backed by an external data provider
func NewHistoricalFeed(provider HistoricalDataProvider, symbols []string, timeframe string, start, end time.Time) *HistoricalFeed {
	return &HistoricalFeed{
		provider:  provider,
		symbols:   symbols,
		timeframe: timeframe,
		start:     start,
		end:       end,
		logger:    logging.GetLogger("historical-feed"),
	}
}

// Initialize fetches and validates all bars for the configured range
func (f *HistoricalFeed) Initialize(ctx context.Context) error {
	f.bars = f.bars[:0]
	f.pos = 0

	for _, symbol := range f.symbols {
		bars, err := f.provider.GetBars(ctx, symbol, f.timeframe, f.start, f.end)
		if err != nil {
			return fmt.Errorf("loading bars for %s: %w", symbol, err)
		}
		if err := ValidateBars(bars); err != nil {
			return err
		}
		f.logger.Info().
			Str("symbol", symbol).
			Str("timeframe", f.timeframe).
			Int("bars", len(bars)).
			Msg("Loaded historical bars")
		f.bars = append(f.bars, bars...)
	}

	// Interleave symbols chronologically for multi-symbol replays.
	sort.SliceStable(f.bars, func(i, j int) bool {
		return f.bars[i].Timestamp.Before(f.bars[j].Timestamp)
	})
	return nil
}

// GetNextBar returns the next bar, or nil when exhausted
func (f *HistoricalFeed) GetNextBar() (*strategy.BarData, error) {
	if f.pos >= len(f.bars) {
		return nil, nil
	}
	bar := f.bars[f.pos]
	f.pos++
	return &bar, nil
}

// HasMoreData returns true if more bars are available
func (f *HistoricalFeed) HasMoreData() bool {
	return f.pos < len(f.bars)
}

// GetSymbols returns the symbols this feed provides
func (f *HistoricalFeed) GetSymbols() []string {
	return f.symbols
}

// Close releases the underlying provider
func (f *HistoricalFeed) Close() error {
	return f.provider.Close()
}
