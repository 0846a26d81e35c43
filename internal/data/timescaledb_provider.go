// Package data implements historical bar providers over the supported
// storage backends.
package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/ridopark/FibTrader/pkg/logging"
	"github.com/ridopark/FibTrader/pkg/strategy"
)

// TimescaleDBProvider fetches OHLCV bars from a TimescaleDB hypertable
type TimescaleDBProvider struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewTimescaleDBProvider connects to TimescaleDB and verifies the
// connection
func NewTimescaleDBProvider(connStr string) (*TimescaleDBProvider, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening timescaledb connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging timescaledb: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	logger := logging.GetLogger("timescaledb")
	logger.Info().Msg("Connected to TimescaleDB")
	return &TimescaleDBProvider{db: db, logger: logger}, nil
}

// GetBars fetches bars for a symbol and timeframe in chronological order
func (p *TimescaleDBProvider) GetBars(ctx context.Context, symbol, timeframe string, start, end time.Time) ([]strategy.BarData, error) {
	query := `
		SELECT timestamp, open, high, low, close, volume
		FROM ohlcv_bars
		WHERE symbol = $1 AND timeframe = $2
		  AND timestamp >= $3 AND timestamp <= $4
		ORDER BY timestamp ASC`

	rows, err := p.db.QueryContext(ctx, query, symbol, timeframe, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying bars for %s: %w", symbol, err)
	}
	defer rows.Close()

	var bars []strategy.BarData
	for rows.Next() {
		bar := strategy.BarData{Symbol: symbol, Timeframe: timeframe}
		if err := rows.Scan(&bar.Timestamp, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume); err != nil {
			return nil, fmt.Errorf("scanning bar for %s: %w", symbol, err)
		}
		bars = append(bars, bar)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating bars for %s: %w", symbol, err)
	}

	p.logger.Debug().
		Str("symbol", symbol).
		Str("timeframe", timeframe).
		Int("bars", len(bars)).
		Msg("Fetched bars")
	return bars, nil
}

// Close closes the database connection
func (p *TimescaleDBProvider) Close() error {
	return p.db.Close()
}
