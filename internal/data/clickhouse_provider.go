package data

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/rs/zerolog"

	"github.com/ridopark/FibTrader/pkg/logging"
	"github.com/ridopark/FibTrader/pkg/strategy"
)

// ClickHouseConfig holds the ClickHouse connection settings
type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
}

// ClickHouseProvider fetches OHLCV bars from a ClickHouse candle table
type ClickHouseProvider struct {
	conn   driver.Conn
	logger zerolog.Logger
}

// NewClickHouseProvider connects to ClickHouse and verifies the connection
func NewClickHouseProvider(cfg ClickHouseConfig) (*ClickHouseProvider, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout: 10 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("opening clickhouse connection: %w", err)
	}
	if err := conn.Ping(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("pinging clickhouse: %w", err)
	}

	logger := logging.GetLogger("clickhouse")
	logger.Info().Str("addr", cfg.Addr).Str("database", cfg.Database).Msg("Connected to ClickHouse")
	return &ClickHouseProvider{conn: conn, logger: logger}, nil
}

// GetBars fetches bars for a symbol and timeframe in chronological order
func (p *ClickHouseProvider) GetBars(ctx context.Context, symbol, timeframe string, start, end time.Time) ([]strategy.BarData, error) {
	query := `
		SELECT timestamp, open, high, low, close, volume
		FROM ohlcv_bars
		WHERE symbol = ? AND timeframe = ?
		  AND timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC`

	rows, err := p.conn.Query(ctx, query, symbol, timeframe, start, end)
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

// Close closes the ClickHouse connection
func (p *ClickHouseProvider) Close() error {
	return p.conn.Close()
}
