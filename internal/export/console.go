package export

import (
	"fmt"
	"io"
	"time"

	"divrotation/internal/backtest"
	"divrotation/internal/domain"
	"divrotation/internal/screener"

	"github.com/olekukonko/tablewriter"
)

// Console renders run artifacts as tables for terminal output.
type Console struct {
	out io.Writer
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) RenderRanking(ranking *screener.Ranking) {
	if ranking.Empty() {
		fmt.Fprintf(c.out, "\nno candidates ranked (%s)\n", ranking.Outcome)
		return
	}
	fmt.Fprintf(c.out, "\n=== CANDIDATE RANKING (%d) ===\n", len(ranking.Candidates))

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Ticker", "Name", "Yield", "Liquidity", "Proximity", "Score", "Days to Ex")
	for i, cand := range ranking.Candidates {
		daysToEx := "-"
		if cand.DaysToEx != nil {
			daysToEx = fmt.Sprintf("%d", *cand.DaysToEx)
		}
		table.Append(
			fmt.Sprintf("%d", i+1),
			cand.Asset.Ticker,
			cand.Asset.Name,
			fmt.Sprintf("%.3f", cand.YieldScore),
			fmt.Sprintf("%.3f", cand.LiquidityScore),
			fmt.Sprintf("%.3f", cand.ProximityScore),
			fmt.Sprintf("%.4f", cand.Composite),
			daysToEx,
		)
	}
	table.Render()
}

func (c *Console) RenderTrades(trades []domain.TradePlanEntry) {
	if len(trades) == 0 {
		fmt.Fprintln(c.out, "\nno trades executed")
		return
	}
	fmt.Fprintf(c.out, "\n=== TRADE LEDGER (%d) ===\n", len(trades))

	table := tablewriter.NewWriter(c.out)
	table.Header("Ticker", "Buy", "Ex", "Sell", "Hold", "Units", "Buy Px", "Sell Px", "Div", "PnL", "Ret %")
	for _, t := range trades {
		if t.Realized == nil {
			continue
		}
		table.Append(
			t.Ticker,
			t.BuyDate.Format(time.DateOnly),
			t.ExDate.Format(time.DateOnly),
			t.SellDate.Format(time.DateOnly),
			fmt.Sprintf("%d", t.HoldTradingDays),
			fmt.Sprintf("%d", t.Realized.Units),
			t.Realized.BuyPrice.StringFixed(2),
			t.Realized.SellPrice.StringFixed(2),
			t.Realized.DividendCash.StringFixed(2),
			t.Realized.PnL.StringFixed(2),
			fmt.Sprintf("%.3f", t.Realized.ReturnPct),
		)
	}
	table.Render()
}

func (c *Console) RenderPlan(entries []domain.TradePlanEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(c.out, "\nno upcoming cycles in the plan window")
		return
	}
	fmt.Fprintf(c.out, "\n=== FORWARD PLAN (%d cycles) ===\n", len(entries))

	table := tablewriter.NewWriter(c.out)
	table.Header("Ticker", "Name", "Buy", "Ex", "Sell", "Hold", "Div/Unit", "Est Gain %", "Note")
	for _, e := range entries {
		estGain := "-"
		if e.EstimatedGainPct > 0 {
			estGain = fmt.Sprintf("%.3f", e.EstimatedGainPct)
		}
		table.Append(
			e.Ticker,
			e.Name,
			e.BuyDate.Format(time.DateOnly),
			e.ExDate.Format(time.DateOnly),
			e.SellDate.Format(time.DateOnly),
			fmt.Sprintf("%d", e.HoldTradingDays),
			fmt.Sprintf("%s %s", e.DividendPerUnit.StringFixed(4), e.Currency),
			estGain,
			e.Note,
		)
	}
	table.Render()
}

func (c *Console) RenderPerformance(perf backtest.Performance) {
	fmt.Fprintln(c.out, "\n=== PERFORMANCE ===")

	profitFactor := "n/a"
	if perf.ProfitFactor != nil {
		profitFactor = fmt.Sprintf("%.2f", *perf.ProfitFactor)
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Metric", "Value")
	table.Append("Total trades", fmt.Sprintf("%d", perf.TotalTrades))
	table.Append("Winning trades", fmt.Sprintf("%d", perf.WinningTrades))
	table.Append("Skipped events", fmt.Sprintf("%d", perf.SkippedEvents))
	table.Append("Win rate", fmt.Sprintf("%.1f%%", perf.WinRatePct))
	table.Append("Avg return / trade", fmt.Sprintf("%.3f%%", perf.AvgReturnPct))
	table.Append("Return stdev", fmt.Sprintf("%.3f%%", perf.ReturnStdevPct))
	table.Append("Profit factor", profitFactor)
	table.Append("Trades / month", fmt.Sprintf("%.2f", perf.TradesPerMonth))
	table.Append("Expected monthly return", fmt.Sprintf("%.3f%%", perf.ExpectedMonthlyReturnPct))
	table.Append("Expected annual return", fmt.Sprintf("%.2f%%", perf.ExpectedAnnualReturnPct))
	table.Append("Total PnL", perf.TotalPnL.StringFixed(2))
	table.Append("Final equity", perf.FinalEquity.StringFixed(2))
	table.Render()
}
