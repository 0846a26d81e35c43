package backtester

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ridopark/FibTrader/pkg/analysis"
	"github.com/ridopark/FibTrader/pkg/strategy"
)

// Results holds the complete output of one backtest run
type Results struct {
	StrategyName string
	Parameters   map[string]interface{}
	Config       Config

	InitialCapital float64
	FinalValue     float64
	EquityCurve    []strategy.EquityPoint
	Trades         []strategy.Trade
	StartTime      time.Time
	EndTime        time.Time
}

// NewResults collects the portfolio state into a results record
func NewResults(strat strategy.Strategy, config Config, portfolio *Portfolio) *Results {
	r := &Results{
		StrategyName:   strat.GetName(),
		Parameters:     strat.GetParameters(),
		Config:         config,
		InitialCapital: portfolio.InitialCapital(),
		FinalValue:     portfolio.InitialCapital(),
		EquityCurve:    portfolio.EquityCurve(),
		Trades:         portfolio.Trades(),
	}
	if n := len(r.EquityCurve); n > 0 {
		r.StartTime = r.EquityCurve[0].Timestamp
		r.EndTime = r.EquityCurve[n-1].Timestamp
		r.FinalValue = r.EquityCurve[n-1].Value
	}
	return r
}

// Metrics computes the performance record for this run
func (r *Results) Metrics(cfg analysis.Config) analysis.Metrics {
	return analysis.Analyze(cfg, r.EquityCurve, r.Trades, nil)
}

// Summary returns a human-readable report of the run
func (r *Results) Summary() string {
	m := r.Metrics(analysis.DefaultConfig())

	var b strings.Builder
	fmt.Fprintf(&b, "=== Backtest Results: %s ===\n", r.StrategyName)
	if !r.StartTime.IsZero() {
		fmt.Fprintf(&b, "Period:            %s to %s\n",
			r.StartTime.Format("2006-01-02"), r.EndTime.Format("2006-01-02"))
	}
	fmt.Fprintf(&b, "Initial Capital:   $%.2f\n", r.InitialCapital)
	fmt.Fprintf(&b, "Final Value:       $%.2f\n", r.FinalValue)
	fmt.Fprintf(&b, "Total Return:      %s\n", pct(m.TotalReturn))
	fmt.Fprintf(&b, "CAGR:              %s\n", pct(m.CAGR))
	fmt.Fprintf(&b, "Max Drawdown:      %s\n", pct(m.MaxDrawdown))
	fmt.Fprintf(&b, "Sharpe Ratio:      %s\n", num(m.SharpeRatio))
	fmt.Fprintf(&b, "Sortino Ratio:     %s\n", num(m.SortinoRatio))
	fmt.Fprintf(&b, "Calmar Ratio:      %s\n", num(m.CalmarRatio))
	fmt.Fprintf(&b, "VaR (95%%):         %s\n", pct(m.VaR))
	fmt.Fprintf(&b, "CVaR (95%%):        %s\n", pct(m.CVaR))
	fmt.Fprintf(&b, "Total Trades:      %d\n", m.TotalTrades)
	fmt.Fprintf(&b, "Win Rate:          %s\n", pct(m.WinRate))
	fmt.Fprintf(&b, "Profit Factor:     %s\n", num(m.ProfitFactor))
	fmt.Fprintf(&b, "Expectancy:        %s\n", num(m.Expectancy))
	fmt.Fprintf(&b, "Avg Win / Loss:    %s / %s\n", num(m.AvgWin), num(m.AvgLoss))
	fmt.Fprintf(&b, "Consecutive W/L:   %d / %d\n", m.MaxConsecutiveWins, m.MaxConsecutiveLosses)
	fmt.Fprintf(&b, "Avg Holding:       %.1f days\n", m.AvgHoldingPeriod.Hours()/24)
	return b.String()
}

func pct(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", v*100)
}

func num(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	if math.IsInf(v, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", v)
}
