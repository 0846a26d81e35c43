package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ridopark/FibTrader/internal/data"
	"github.com/ridopark/FibTrader/pkg/backtester"
	"github.com/ridopark/FibTrader/pkg/feed"
	"github.com/ridopark/FibTrader/pkg/logging"
	"github.com/ridopark/FibTrader/pkg/strategy"
	"github.com/ridopark/FibTrader/pkg/strategy/examples"
)

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	var (
		symbolsFlag   = flag.String("symbols", "AAPL", "Comma-separated symbols to backtest")
		timeframe     = flag.String("timeframe", "1D", "Bar timeframe")
		startStr      = flag.String("start", "2023-01-01", "Start date (YYYY-MM-DD)")
		endStr        = flag.String("end", "2024-01-01", "End date (YYYY-MM-DD)")
		strategyName  = flag.String("strategy", "fibonacci_macd", "Strategy: ma_crossover, ema_crossover, triple_ma, momentum, mean_reversion, fibonacci_macd")
		capital       = flag.Float64("capital", getEnvFloat("INITIAL_CAPITAL", 100000), "Initial capital")
		commission    = flag.Float64("commission", getEnvFloat("COMMISSION_PCT", 0.001), "Commission percentage")
		slippage      = flag.Float64("slippage", getEnvFloat("SLIPPAGE_PCT", 0.0005), "Slippage percentage")
		minConfidence = flag.Float64("min-confidence", 0.60, "Minimum confidence gate for fibonacci_macd")
		compare       = flag.Bool("compare", false, "Run all strategy variants side by side")
		logLevel      = flag.String("log-level", getEnv("LOG_LEVEL", "info"), "Log level")
	)
	flag.Parse()

	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.LogLevel(*logLevel)
	logCfg.EnableFile = getEnvBool("LOG_TO_FILE", false)
	logCfg.LogDir = getEnv("LOG_DIR", "logs")
	logging.Initialize(logCfg)
	logger := logging.GetLogger("main")

	start, err := time.Parse("2006-01-02", *startStr)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid start date")
	}
	end, err := time.Parse("2006-01-02", *endStr)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid end date")
	}
	symbols := strings.Split(*symbolsFlag, ",")

	provider, err := newProvider()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to data backend")
	}
	defer provider.Close()

	config := backtester.Config{
		InitialCapital: *capital,
		CommissionPct:  *commission,
		SlippagePct:    *slippage,
	}
	ctx := context.Background()

	if *compare {
		runComparison(ctx, config, provider, symbols, *timeframe, start, end, *minConfidence)
		return
	}

	strat, err := buildStrategy(*strategyName, *minConfidence)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build strategy")
	}

	dataFeed := feed.NewHistoricalFeed(provider, symbols, *timeframe, start, end)
	engine, err := backtester.NewEngine(config, dataFeed, strat)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create engine")
	}
	results, err := engine.Run(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("Backtest failed")
	}

	fmt.Println(results.Summary())
}

// runComparison replays every strategy variant over the same bars
func runComparison(ctx context.Context, config backtester.Config, provider feed.HistoricalDataProvider, symbols []string, timeframe string, start, end time.Time, minConfidence float64) {
	logger := logging.GetLogger("compare")

	var bars []strategy.BarData
	for _, symbol := range symbols {
		symbolBars, err := provider.GetBars(ctx, symbol, timeframe, start, end)
		if err != nil {
			logger.Fatal().Err(err).Str("symbol", symbol).Msg("Failed to load bars")
		}
		bars = append(bars, symbolBars...)
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })

	names := []string{"ma_crossover", "ema_crossover", "triple_ma", "momentum", "mean_reversion", "fibonacci_macd"}
	strategies := make([]strategy.Strategy, 0, len(names))
	for _, name := range names {
		strat, err := buildStrategy(name, minConfidence)
		if err != nil {
			logger.Fatal().Err(err).Str("strategy", name).Msg("Failed to build strategy")
		}
		strategies = append(strategies, strat)
	}

	results, err := backtester.RunComparison(ctx, config, bars, strategies)
	if err != nil {
		logger.Fatal().Err(err).Msg("Comparison run failed")
	}
	for _, r := range results {
		fmt.Println(r.Summary())
	}
}

// buildStrategy constructs a strategy variant by name with its defaults
func buildStrategy(name string, minConfidence float64) (strategy.Strategy, error) {
	switch name {
	case "ma_crossover":
		return examples.NewMACrossoverStrategy(10, 30), nil
	case "ema_crossover":
		return examples.NewEMACrossoverStrategy(12, 26), nil
	case "triple_ma":
		return examples.NewTripleMAStrategy(5, 15, 30), nil
	case "momentum":
		return examples.NewMomentumStrategy(55, 45), nil
	case "mean_reversion":
		return examples.NewMeanReversionStrategy(20, 2.0), nil
	case "fibonacci_macd":
		cfg := examples.DefaultFibonacciMACDConfig()
		cfg.MinConfidence = minConfidence
		return examples.NewFibonacciMACDStrategy(cfg)
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}

// newProvider selects the data backend from the environment
func newProvider() (feed.HistoricalDataProvider, error) {
	switch getEnv("DATA_BACKEND", "timescaledb") {
	case "clickhouse":
		return data.NewClickHouseProvider(data.ClickHouseConfig{
			Addr:     getEnv("CLICKHOUSE_ADDR", "localhost:9000"),
			Database: getEnv("CLICKHOUSE_DB", "market"),
			Username: getEnv("CLICKHOUSE_USER", "default"),
			Password: getEnv("CLICKHOUSE_PASSWORD", ""),
		})
	default:
		connStr := getEnv("DATABASE_URL", fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			getEnv("DB_HOST", "localhost"),
			getEnv("DB_PORT", "5432"),
			getEnv("DB_USER", "postgres"),
			getEnv("DB_PASSWORD", "postgres"),
			getEnv("DB_NAME", "market"),
		))
		return data.NewTimescaleDBProvider(connStr)
	}
}

// getEnv retrieves an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable with a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvBool retrieves a bool environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
