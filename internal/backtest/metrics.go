package backtest

import (
	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"

	"divrotation/internal/domain"
)

// Performance aggregates the replayed ledger. All *Pct fields are
// percentages, not fractions. ProfitFactor is nil when there are no losing
// trades: the ratio is undefined there, and reporting it as 0 would invert
// its meaning.
type Performance struct {
	TotalTrades   int
	WinningTrades int
	SkippedEvents int

	WinRatePct     float64
	AvgReturnPct   float64
	ReturnStdevPct float64
	ProfitFactor   *float64

	TradesPerMonth           float64
	ExpectedMonthlyReturnPct float64
	ExpectedAnnualReturnPct  float64

	TotalPnL    decimal.Decimal
	FinalEquity decimal.Decimal
}

func computePerformance(trades []domain.TradePlanEntry, skipped int, opts Options) Performance {
	perf := Performance{
		TotalTrades:   len(trades),
		SkippedEvents: skipped,
		TotalPnL:      decimal.Zero,
	}

	winningPnL := decimal.Zero
	losingPnL := decimal.Zero
	returns := make([]float64, 0, len(trades))

	for _, t := range trades {
		perf.TotalPnL = perf.TotalPnL.Add(t.Realized.PnL)
		returns = append(returns, t.Realized.ReturnPct)
		if t.Realized.PnL.IsPositive() {
			perf.WinningTrades++
			winningPnL = winningPnL.Add(t.Realized.PnL)
		} else {
			losingPnL = losingPnL.Add(t.Realized.PnL)
		}
	}
	perf.FinalEquity = opts.InitialCash.Add(perf.TotalPnL)

	if perf.TotalTrades == 0 {
		return perf
	}

	perf.WinRatePct = float64(perf.WinningTrades) / float64(perf.TotalTrades) * 100

	avg, err := stats.Mean(returns)
	if err == nil {
		perf.AvgReturnPct = avg
	}
	if len(returns) >= 2 {
		stdev, err := stats.StandardDeviationSample(returns)
		if err == nil {
			perf.ReturnStdevPct = stdev
		}
	}

	if losingPnL.IsNegative() {
		pf := winningPnL.Div(losingPnL.Abs()).InexactFloat64()
		perf.ProfitFactor = &pf
	}

	// extrapolate expected return from the trade frequency observed in the
	// window; a window shorter than a month counts as one month
	windowDays := opts.End.Sub(opts.Start).Hours() / 24
	months := windowDays / 30
	if months < 1 {
		months = 1
	}
	perf.TradesPerMonth = float64(perf.TotalTrades) / months
	perf.ExpectedMonthlyReturnPct = perf.AvgReturnPct * perf.TradesPerMonth
	perf.ExpectedAnnualReturnPct = perf.ExpectedMonthlyReturnPct * 12

	return perf
}
