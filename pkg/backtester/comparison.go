package backtester

import (
	"context"
	"fmt"
	"sync"

	"github.com/ridopark/FibTrader/pkg/feed"
	"github.com/ridopark/FibTrader/pkg/strategy"
)

// RunComparison replays several strategies over the same bar sequence, each
// with its own engine and portfolio. Runs execute concurrently; they share
// only the read-only bars, so no locking is needed. Results come back in
// strategy order.
func RunComparison(ctx context.Context, config Config, bars []strategy.BarData, strategies []strategy.Strategy) ([]*Results, error) {
	if err := feed.ValidateBars(bars); err != nil {
		return nil, err
	}

	results := make([]*Results, len(strategies))
	errs := make([]error, len(strategies))
	var wg sync.WaitGroup

	for i, strat := range strategies {
		wg.Add(1)
		go func(i int, strat strategy.Strategy) {
			defer wg.Done()
			// Each run gets its own feed cursor over the shared bars.
			dataFeed, err := feed.NewSliceFeed(bars)
			if err != nil {
				errs[i] = err
				return
			}
			engine, err := NewEngine(config, dataFeed, strat)
			if err != nil {
				errs[i] = err
				return
			}
			results[i], errs[i] = engine.Run(ctx)
		}(i, strat)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("strategy %s: %w", strategies[i].GetName(), err)
		}
	}
	return results, nil
}
