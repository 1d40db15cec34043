package internal

import (
	"testing"
	"time"

	"divrotation/internal/config"
	"divrotation/internal/domain"
	"divrotation/internal/screener"
	"divrotation/internal/util"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func pipelineConfig() *config.Config {
	cfg := config.Default()
	cfg.Start = "2024-07-01"
	cfg.End = "2024-07-31"
	cfg.InitialCash = 10000
	cfg.MinYieldFraction = 0.01
	cfg.MinAvgVolume = 1000
	cfg.TopK = 5
	cfg.HoldPre = 2
	cfg.HoldPost = 1
	cfg.LookaheadDays = 30
	cfg.AllocFraction = 1.0
	return cfg
}

func pipelineInput() RunInput {
	prices := domain.PriceSeries{}
	prices.Add(domain.PriceBar{
		Ticker: "AAA", Date: util.NewDate(2024, 7, 10),
		Open: decimal.NewFromFloat(9.98), Close: decimal.NewFromInt(10),
	})
	prices.Add(domain.PriceBar{
		Ticker: "AAA", Date: util.NewDate(2024, 7, 15),
		Open: decimal.NewFromFloat(10.05), Close: decimal.NewFromFloat(10.10),
	})

	return RunInput{
		Assets: []domain.Asset{
			{Ticker: "AAA", Name: "Alpha Income Fund", Region: domain.RegionDomestic,
				AvgVolume: 100_000, TrailingYieldFraction: 0.05},
			{Ticker: "BBB", Name: "Beta Growth Fund", Region: domain.RegionDomestic,
				AvgVolume: 100_000, TrailingYieldFraction: 0.001},
		},
		Prices: prices,
		Dividends: []domain.DividendEvent{
			// historical: Friday ex-date, pre=2 buys Wed 07-10, post=1 sells Mon 07-15
			{Ticker: "AAA", ExDate: util.NewDate(2024, 7, 12),
				AmountPerUnit: decimal.NewFromFloat(0.5), Currency: "USD"},
			// upcoming: inside the 30-day lookahead from as-of 07-31
			{Ticker: "AAA", ExDate: util.NewDate(2024, 8, 15),
				AmountPerUnit: decimal.NewFromFloat(0.5), Currency: "USD"},
		},
		Holidays: []time.Time{util.NewDate(2024, 1, 1)},
	}
}

func TestRun(t *testing.T) {
	t.Run("full pipeline", func(t *testing.T) {
		result, err := Run(pipelineConfig(), pipelineInput())
		require.NoError(t, err)

		require.False(t, result.DegradedCalendar)
		require.Empty(t, result.Warnings)

		// BBB falls below the yield floor
		require.Equal(t, screener.OutcomeOK, result.Ranking.Outcome)
		require.Equal(t, []string{"AAA"}, result.Ranking.Tickers())

		require.Len(t, result.Backtest.Trades, 1)
		trade := result.Backtest.Trades[0]
		require.Equal(t, util.NewDate(2024, 7, 10), trade.BuyDate)
		require.Equal(t, util.NewDate(2024, 7, 15), trade.SellDate)
		require.Equal(t, 3, trade.HoldTradingDays)
		// 1000 units: pnl = 1000*(10.10-10.00) + 500 dividend
		require.EqualValues(t, 1000, trade.Realized.Units)
		require.True(t, trade.Realized.PnL.Equal(decimal.NewFromInt(600)),
			"pnl = %s", trade.Realized.PnL)

		require.Len(t, result.ForwardPlan, 1)
		planned := result.ForwardPlan[0]
		require.Equal(t, util.NewDate(2024, 8, 15), planned.ExDate)
		require.Nil(t, planned.Realized)
		// estimate uses the latest close on or before as-of: 0.5 / 10.10
		require.InDelta(t, 4.9505, planned.EstimatedGainPct, 0.001)
	})

	t.Run("missing holidays degrades, does not fail", func(t *testing.T) {
		input := pipelineInput()
		input.Holidays = nil

		result, err := Run(pipelineConfig(), input)
		require.NoError(t, err)
		require.True(t, result.DegradedCalendar)
		require.Len(t, result.Warnings, 1)
		require.Contains(t, result.Warnings[0], "approximated")
	})

	t.Run("all candidates filtered is a result, not an error", func(t *testing.T) {
		cfg := pipelineConfig()
		cfg.MinYieldFraction = 0.10

		result, err := Run(cfg, pipelineInput())
		require.NoError(t, err)
		require.Equal(t, screener.OutcomeAllFiltered, result.Ranking.Outcome)
		require.Nil(t, result.Backtest)
		require.Empty(t, result.ForwardPlan)
		require.NotEmpty(t, result.Warnings)
	})

	t.Run("invalid configuration is fatal", func(t *testing.T) {
		cfg := pipelineConfig()
		cfg.End = "2024-06-01"

		_, err := Run(cfg, pipelineInput())
		require.ErrorIs(t, err, domain.ErrInvalidConfiguration)
	})

	t.Run("deterministic across runs", func(t *testing.T) {
		first, err := Run(pipelineConfig(), pipelineInput())
		require.NoError(t, err)
		second, err := Run(pipelineConfig(), pipelineInput())
		require.NoError(t, err)

		require.Empty(t, cmp.Diff(first.Backtest, second.Backtest))
		require.Empty(t, cmp.Diff(first.ForwardPlan, second.ForwardPlan))
		require.Empty(t, cmp.Diff(first.Ranking, second.Ranking))
	})
}

func TestBuildCandidates(t *testing.T) {
	asOf := util.NewDate(2024, 7, 31)
	assets := []domain.Asset{
		{Ticker: "AAA", TrailingYieldFraction: 0.05},
		{Ticker: "CCC", TrailingYieldFraction: 0.03},
	}
	events := []domain.DividendEvent{
		{Ticker: "AAA", ExDate: util.NewDate(2024, 7, 12)}, // past, ignored
		{Ticker: "AAA", ExDate: util.NewDate(2024, 9, 1)},
		{Ticker: "AAA", ExDate: util.NewDate(2024, 8, 15)}, // nearest upcoming wins
	}

	candidates := buildCandidates(asOf, assets, events)
	require.Len(t, candidates, 2)

	require.NotNil(t, candidates[0].NextEx)
	require.Equal(t, util.NewDate(2024, 8, 15), candidates[0].NextEx.ExDate)
	// no upcoming event still yields a candidate
	require.Equal(t, "CCC", candidates[1].Asset.Ticker)
	require.Nil(t, candidates[1].NextEx)
}
