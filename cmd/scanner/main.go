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
	"github.com/ridopark/FibTrader/internal/redisbus"
	"github.com/ridopark/FibTrader/pkg/condition"
	"github.com/ridopark/FibTrader/pkg/feed"
	"github.com/ridopark/FibTrader/pkg/indicator"
	"github.com/ridopark/FibTrader/pkg/levels"
	"github.com/ridopark/FibTrader/pkg/logging"
	"github.com/ridopark/FibTrader/pkg/scoring"
	"github.com/ridopark/FibTrader/pkg/strategy"
)

// scanResult is one symbol's analysis at the latest bar
type scanResult struct {
	symbol   string
	price    float64
	rsi      float64
	sma20    float64
	volRatio float64
	score    scoring.Score
	signal   *strategy.Signal
}

func main() {
	_ = godotenv.Load()

	var (
		symbolsFlag = flag.String("symbols", "AAPL,MSFT,GOOGL", "Comma-separated symbols to scan")
		timeframe   = flag.String("timeframe", "1D", "Bar timeframe")
		lookback    = flag.Int("lookback", 400, "Days of history to load")
		weighted    = flag.Bool("weighted", false, "Use the weighted scoring profile instead of equal weights")
		publish     = flag.Bool("publish", false, "Publish signals to Redis")
		logLevel    = flag.String("log-level", getEnv("LOG_LEVEL", "info"), "Log level")
	)
	flag.Parse()

	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.LogLevel(*logLevel)
	logging.Initialize(logCfg)
	logger := logging.GetLogger("scanner")

	weights := scoring.EqualWeightProfile()
	if *weighted {
		weights = scoring.WeightedProfile()
	}
	scorer, err := scoring.NewEngine(weights, scoring.DefaultTierBoundaries())
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid scoring configuration")
	}
	evaluator := condition.NewEvaluator()

	provider, err := newProvider()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to data backend")
	}
	defer provider.Close()

	var bus *redisbus.Bus
	ctx := context.Background()
	if *publish {
		bus = redisbus.NewBus(redisbus.Config{
			Addr:          getEnv("REDIS_ADDR", "localhost:6379"),
			Password:      getEnv("REDIS_PASSWORD", ""),
			DB:            getEnvInt("REDIS_DB", 0),
			ChannelPrefix: getEnv("REDIS_CHANNEL_PREFIX", "fibtrader"),
		})
		defer bus.Close()
		if err := bus.HealthCheck(ctx); err != nil {
			logger.Fatal().Err(err).Msg("Redis health check failed")
		}
	}

	end := time.Now()
	start := end.AddDate(0, 0, -*lookback)
	var results []scanResult

	for _, symbol := range strings.Split(*symbolsFlag, ",") {
		result, err := scanSymbol(ctx, provider, scorer, evaluator, symbol, *timeframe, start, end)
		if err != nil {
			logger.Warn().Err(err).Str("symbol", symbol).Msg("Skipping symbol")
			continue
		}
		results = append(results, *result)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].score.Value > results[j].score.Value })
	printReport(results)

	if bus != nil {
		for _, r := range results {
			if r.signal == nil {
				continue
			}
			if err := bus.Publish(ctx, redisbus.TierEventType(r.score.Tier), redisbus.NewSignalEvent(r.signal)); err != nil {
				logger.Error().Err(err).Str("symbol", r.symbol).Msg("Failed to publish signal")
			}
		}
	}
}

// scanSymbol loads history, scores the latest bar and builds the signal
func scanSymbol(ctx context.Context, provider feed.HistoricalDataProvider, scorer *scoring.Engine, evaluator *condition.Evaluator, symbol, timeframe string, start, end time.Time) (*scanResult, error) {
	bars, err := provider.GetBars(ctx, symbol, timeframe, start, end)
	if err != nil {
		return nil, err
	}
	if err := feed.ValidateBars(bars); err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no bars for %s", symbol)
	}

	sets := indicator.Compute(indicator.DefaultConfig(), bars)
	last := bars[len(bars)-1]
	set := sets[len(sets)-1]

	conds := evaluator.Evaluate(last, set)
	score := scorer.Score(conds)

	result := &scanResult{symbol: symbol, price: last.Close, score: score}
	if set.RSI14.Valid {
		result.rsi = set.RSI14.Float64
	}
	if set.SMA20.Valid {
		result.sma20 = set.SMA20.Float64
	}
	if set.VolumeSMA20.Valid && set.VolumeSMA20.Float64 > 0 {
		result.volRatio = last.Volume / set.VolumeSMA20.Float64
	}

	direction := strategy.DirectionNone
	if score.Tier == scoring.TierStrongBuy || score.Tier == scoring.TierGoodSetup {
		direction = strategy.DirectionLong
	}
	risk := levels.DefaultRiskConfig()
	result.signal = &strategy.Signal{
		Symbol:        symbol,
		Timestamp:     last.Timestamp,
		Direction:     direction,
		Confidence:    score,
		Entries:       levels.EntryCandidates(last.Close, set.FibLevels, set.SMA20),
		StopLoss:      risk.StopLoss(last.Close),
		TakeProfit:    risk.TakeProfit(last.Close),
		StopLossPct:   risk.StopLossPct,
		TakeProfitPct: risk.TakeProfitPct,
		Reason:        fmt.Sprintf("scan score %.2f (%s)", score.Value, score.Tier),
	}
	return result, nil
}

func printReport(results []scanResult) {
	fmt.Printf("%-8s %10s %7s %10s %7s %7s %-11s %s\n",
		"SYMBOL", "PRICE", "RSI", "SMA20", "VOL.R", "SCORE", "TIER", "ENTRIES")
	for _, r := range results {
		entries := make([]string, 0, 3)
		for i, e := range r.signal.Entries {
			if i == 3 {
				break
			}
			entries = append(entries, fmt.Sprintf("%.2f(%s)", e.Price, e.Source))
		}
		fmt.Printf("%-8s %10.2f %7.1f %10.2f %7.2f %7.2f %-11s %s\n",
			r.symbol, r.price, r.rsi, r.sma20, r.volRatio,
			r.score.Value, r.score.Tier, strings.Join(entries, " "))
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

// getEnvInt retrieves an int environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
