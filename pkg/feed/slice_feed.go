package feed

import (
	"context"

	"github.com/ridopark/FibTrader/pkg/strategy"
)

// SliceFeed serves an in-memory bar slice. Bars are validated once at
// construction, so the replay loop never sees malformed data.
type SliceFeed struct {
	bars    []strategy.BarData
	symbols []string
	pos     int
}

// NewSliceFeed validates the bars and returns a feed over them
func NewSliceFeed(bars []strategy.BarData) (*SliceFeed, error) {
	if err := ValidateBars(bars); err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var symbols []string
	for _, bar := range bars {
		if !seen[bar.Symbol] {
			seen[bar.Symbol] = true
			symbols = append(symbols, bar.Symbol)
		}
	}
	return &SliceFeed{bars: bars, symbols: symbols}, nil
}

// Initialize resets the feed to the first bar
func (f *SliceFeed) Initialize(ctx context.Context) error {
	f.pos = 0
	return nil
}

// GetNextBar returns the next bar, or nil when exhausted
func (f *SliceFeed) GetNextBar() (*strategy.BarData, error) {
	if f.pos >= len(f.bars) {
		return nil, nil
	}
	bar := f.bars[f.pos]
	f.pos++
	return &bar, nil
}

// HasMoreData returns true if more bars are available
func (f *SliceFeed) HasMoreData() bool {
	return f.pos < len(f.bars)
}

// GetSymbols returns the symbols this feed provides
func (f *SliceFeed) GetSymbols() []string {
	return f.symbols
}

// Close is a no-op for in-memory feeds
func (f *SliceFeed) Close() error {
	return nil
}
