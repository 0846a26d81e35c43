// Package analysis computes return, risk and trade-level statistics from an
// equity curve and trade log.
//
// Everything here is a pure function of its inputs. Metrics whose formula
// is arithmetically undefined for the sample (fewer than two points, zero
// variance, no losing trades) are reported as NaN, never as an error.
package analysis

import (
	"math"
	"sort"
	"time"

	"github.com/ridopark/FibTrader/pkg/strategy"
)

// periodsPerYear is the annualization base for daily bars.
const periodsPerYear = 252.0

// Config controls risk-metric parameters
type Config struct {
	// RiskFreeRate is the annualized risk-free rate for excess returns
	RiskFreeRate float64

	// VarConfidence is the VaR/CVaR confidence level
	VarConfidence float64
}

// DefaultConfig returns the standard analyzer settings
func DefaultConfig() Config {
	return Config{RiskFreeRate: 0.0, VarConfidence: 0.95}
}

// Metrics is the full performance record for one backtest
type Metrics struct {
	TotalReturn      float64
	CAGR             float64
	AvgDailyReturn   float64
	AvgMonthlyReturn float64

	SharpeRatio  float64
	SortinoRatio float64
	CalmarRatio  float64
	MaxDrawdown  float64
	VaR          float64
	CVaR         float64
	Beta         float64
	Alpha        float64

	TotalTrades          int
	WinRate              float64
	ProfitFactor         float64
	Expectancy           float64
	AvgWin               float64
	AvgLoss              float64
	MaxConsecutiveWins   int
	MaxConsecutiveLosses int
	AvgHoldingPeriod     time.Duration
}

// Analyze computes the metrics record for an equity curve and trade log.
// The benchmark curve is optional; without it beta and alpha are NaN.
func Analyze(cfg Config, equity []strategy.EquityPoint, trades []strategy.Trade, benchmark []strategy.EquityPoint) Metrics {
	m := Metrics{
		CAGR:         math.NaN(),
		SharpeRatio:  math.NaN(),
		SortinoRatio: math.NaN(),
		CalmarRatio:  math.NaN(),
		VaR:          math.NaN(),
		CVaR:         math.NaN(),
		Beta:         math.NaN(),
		Alpha:        math.NaN(),
		TotalReturn:  math.NaN(),
	}

	returns := dailyReturns(equity)
	if len(equity) > 0 && equity[0].Value > 0 {
		m.TotalReturn = equity[len(equity)-1].Value/equity[0].Value - 1
	}
	if len(returns) > 0 {
		m.AvgDailyReturn = mean(returns)
		m.AvgMonthlyReturn = m.AvgDailyReturn * 21
		years := float64(len(returns)) / periodsPerYear
		if years > 0 && equity[0].Value > 0 && equity[len(equity)-1].Value > 0 {
			m.CAGR = math.Pow(equity[len(equity)-1].Value/equity[0].Value, 1/years) - 1
		}
	}

	m.MaxDrawdown = maxDrawdown(equity)
	m.SharpeRatio = sharpe(returns, cfg.RiskFreeRate)
	m.SortinoRatio = sortino(returns, cfg.RiskFreeRate)
	if m.MaxDrawdown > 0 && !math.IsNaN(m.CAGR) {
		m.CalmarRatio = m.CAGR / m.MaxDrawdown
	}
	m.VaR, m.CVaR = valueAtRisk(returns, cfg.VarConfidence)

	benchReturns := dailyReturns(benchmark)
	m.Beta, m.Alpha = betaAlpha(returns, benchReturns)

	tradeStats(&m, trades)
	return m
}

// dailyReturns converts an equity curve into simple period returns
func dailyReturns(equity []strategy.EquityPoint) []float64 {
	if len(equity) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Value
		if prev == 0 {
			continue
		}
		returns = append(returns, equity[i].Value/prev-1)
	}
	return returns
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev is the sample standard deviation, NaN below two points.
func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return math.NaN()
	}
	mu := mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - mu
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)-1))
}

// sharpe annualizes the excess-return ratio by sqrt(252)
func sharpe(returns []float64, riskFreeRate float64) float64 {
	sd := stddev(returns)
	if math.IsNaN(sd) || sd == 0 {
		return math.NaN()
	}
	excess := mean(returns) - riskFreeRate/periodsPerYear
	return excess / sd * math.Sqrt(periodsPerYear)
}

// sortino penalizes only downside deviation
func sortino(returns []float64, riskFreeRate float64) float64 {
	if len(returns) < 2 {
		return math.NaN()
	}
	rfDaily := riskFreeRate / periodsPerYear
	sum := 0.0
	downside := 0
	for _, r := range returns {
		if r < rfDaily {
			d := r - rfDaily
			sum += d * d
			downside++
		}
	}
	if downside == 0 {
		return math.NaN()
	}
	dd := math.Sqrt(sum / float64(len(returns)))
	if dd == 0 {
		return math.NaN()
	}
	excess := mean(returns) - rfDaily
	return excess / dd * math.Sqrt(periodsPerYear)
}

// maxDrawdown returns the largest peak-to-trough decline as a positive
// fraction, 0 for a non-declining curve.
func maxDrawdown(equity []strategy.EquityPoint) float64 {
	if len(equity) == 0 {
		return 0
	}
	peak := equity[0].Value
	maxDD := 0.0
	for _, pt := range equity {
		if pt.Value > peak {
			peak = pt.Value
		}
		if peak > 0 {
			dd := (peak - pt.Value) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// valueAtRisk returns the worst-k quantile of the return distribution and
// the mean of the tail at or below it, where k = (1-confidence) * n.
func valueAtRisk(returns []float64, confidence float64) (float64, float64) {
	if len(returns) < 2 {
		return math.NaN(), math.NaN()
	}
	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	k := int((1 - confidence) * float64(len(sorted)))
	if k < 1 {
		k = 1
	}
	if k > len(sorted) {
		k = len(sorted)
	}
	tail := sorted[:k]
	return sorted[k-1], mean(tail)
}

// betaAlpha regresses strategy returns on benchmark returns. Alpha is
// annualized. Both are NaN without a matching benchmark sample.
func betaAlpha(returns, benchmark []float64) (float64, float64) {
	n := len(returns)
	if len(benchmark) < n {
		n = len(benchmark)
	}
	if n < 2 {
		return math.NaN(), math.NaN()
	}
	rs := returns[:n]
	bs := benchmark[:n]

	muR := mean(rs)
	muB := mean(bs)
	cov, varB := 0.0, 0.0
	for i := 0; i < n; i++ {
		cov += (rs[i] - muR) * (bs[i] - muB)
		varB += (bs[i] - muB) * (bs[i] - muB)
	}
	if varB == 0 {
		return math.NaN(), math.NaN()
	}
	beta := cov / varB
	alpha := (muR - beta*muB) * periodsPerYear
	return beta, alpha
}

// tradeStats fills the trade-level fields of the metrics record
func tradeStats(m *Metrics, trades []strategy.Trade) {
	m.TotalTrades = len(trades)
	m.WinRate = math.NaN()
	m.ProfitFactor = math.NaN()
	m.Expectancy = math.NaN()
	m.AvgWin = math.NaN()
	m.AvgLoss = math.NaN()
	if len(trades) == 0 {
		return
	}

	var wins, losses []float64
	grossProfit, grossLoss := 0.0, 0.0
	consecWins, consecLosses := 0, 0
	var totalHolding time.Duration
	total := 0.0

	for _, trade := range trades {
		total += trade.PnL
		totalHolding += trade.ExitTime.Sub(trade.EntryTime)
		if trade.PnL > 0 {
			wins = append(wins, trade.PnL)
			grossProfit += trade.PnL
			consecWins++
			consecLosses = 0
		} else {
			losses = append(losses, trade.PnL)
			grossLoss += -trade.PnL
			consecLosses++
			consecWins = 0
		}
		if consecWins > m.MaxConsecutiveWins {
			m.MaxConsecutiveWins = consecWins
		}
		if consecLosses > m.MaxConsecutiveLosses {
			m.MaxConsecutiveLosses = consecLosses
		}
	}

	m.WinRate = float64(len(wins)) / float64(len(trades))
	m.Expectancy = total / float64(len(trades))
	m.AvgHoldingPeriod = totalHolding / time.Duration(len(trades))
	if len(wins) > 0 {
		m.AvgWin = mean(wins)
	}
	if len(losses) > 0 {
		m.AvgLoss = mean(losses)
	}
	if grossLoss > 0 {
		m.ProfitFactor = grossProfit / grossLoss
	} else if grossProfit > 0 {
		m.ProfitFactor = math.Inf(1)
	}
}
