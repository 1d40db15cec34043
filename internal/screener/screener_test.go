package screener

import (
	"testing"
	"time"

	"divrotation/internal/domain"
	"divrotation/internal/util"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func event(ticker string, exDate time.Time) *domain.DividendEvent {
	return &domain.DividendEvent{
		Ticker:        ticker,
		ExDate:        exDate,
		AmountPerUnit: decimal.NewFromFloat(0.5),
		Currency:      "USD",
	}
}

func defaultOptions() Options {
	return Options{
		MinYieldFraction: 0.01,
		MinAvgVolume:     100_000,
		TopK:             10,
		LookaheadDays:    90,
		WeightYield:      0.4,
		WeightLiquidity:  0.25,
		WeightProximity:  0.35,
	}
}

func TestRank(t *testing.T) {
	asOf := util.NewDate(2025, 8, 1)

	candidates := []Candidate{
		{
			Asset:  domain.Asset{Ticker: "SDIV", AvgVolume: 650_000, TrailingYieldFraction: 0.089},
			NextEx: event("SDIV", util.NewDate(2025, 8, 5)),
		},
		{
			Asset:  domain.Asset{Ticker: "JEPI", AvgVolume: 5_200_000, TrailingYieldFraction: 0.072},
			NextEx: event("JEPI", util.NewDate(2025, 8, 30)),
		},
		{
			Asset:  domain.Asset{Ticker: "DGRO", AvgVolume: 2_100_000, TrailingYieldFraction: 0.025},
			NextEx: nil,
		},
	}

	t.Run("orders by composite score", func(t *testing.T) {
		ranking, err := Rank(asOf, candidates, defaultOptions())
		require.NoError(t, err)
		require.Equal(t, OutcomeOK, ranking.Outcome)
		// JEPI: liquidity 1.0 + strong yield beats SDIV's max yield
		require.Equal(t, []string{"JEPI", "SDIV", "DGRO"}, ranking.Tickers())
	})

	t.Run("deterministic across runs", func(t *testing.T) {
		first, err := Rank(asOf, candidates, defaultOptions())
		require.NoError(t, err)
		second, err := Rank(asOf, candidates, defaultOptions())
		require.NoError(t, err)
		require.Empty(t, cmp.Diff(first, second))
	})

	t.Run("tie broken by raw yield then ticker", func(t *testing.T) {
		opts := defaultOptions()
		opts.WeightYield = 0
		opts.WeightLiquidity = 0
		opts.WeightProximity = 1

		tied := []Candidate{
			{Asset: domain.Asset{Ticker: "BBB", AvgVolume: 500_000, TrailingYieldFraction: 0.03}},
			{Asset: domain.Asset{Ticker: "AAA", AvgVolume: 500_000, TrailingYieldFraction: 0.03}},
			{Asset: domain.Asset{Ticker: "CCC", AvgVolume: 500_000, TrailingYieldFraction: 0.05}},
		}
		ranking, err := Rank(asOf, tied, opts)
		require.NoError(t, err)
		// all proximity scores are 0 (no events); CCC wins on yield,
		// AAA/BBB fall back to lexical order
		require.Equal(t, []string{"CCC", "AAA", "BBB"}, ranking.Tickers())
	})

	t.Run("top-k cut", func(t *testing.T) {
		opts := defaultOptions()
		opts.TopK = 1
		ranking, err := Rank(asOf, candidates, opts)
		require.NoError(t, err)
		require.Len(t, ranking.Candidates, 1)
		require.Equal(t, "JEPI", ranking.Candidates[0].Asset.Ticker)
	})

	t.Run("proximity clipped outside horizon", func(t *testing.T) {
		opts := defaultOptions()
		opts.LookaheadDays = 10
		ranking, err := Rank(asOf, candidates, opts)
		require.NoError(t, err)
		for _, sc := range ranking.Candidates {
			if sc.Asset.Ticker == "JEPI" { // ex-date 29 days out
				require.Zero(t, sc.ProximityScore)
			}
		}
	})
}

func TestRank_EmptyOutcomes(t *testing.T) {
	asOf := util.NewDate(2025, 8, 1)

	t.Run("no input", func(t *testing.T) {
		ranking, err := Rank(asOf, nil, defaultOptions())
		require.NoError(t, err)
		require.True(t, ranking.Empty())
		require.Equal(t, OutcomeNoInput, ranking.Outcome)
		require.ErrorIs(t, ranking.Err(), domain.ErrInsufficientCandidates)
	})

	t.Run("all filtered", func(t *testing.T) {
		opts := defaultOptions()
		opts.MinYieldFraction = 0.5 // nothing yields 50%
		candidates := []Candidate{
			{Asset: domain.Asset{Ticker: "VYM", AvgVolume: 1_800_000, TrailingYieldFraction: 0.032}},
		}
		ranking, err := Rank(asOf, candidates, opts)
		require.NoError(t, err)
		require.True(t, ranking.Empty())
		require.Equal(t, OutcomeAllFiltered, ranking.Outcome)
		require.ErrorIs(t, ranking.Err(), domain.ErrInsufficientCandidates)
	})
}

func TestRank_InvalidOptions(t *testing.T) {
	asOf := util.NewDate(2025, 8, 1)
	candidates := []Candidate{
		{Asset: domain.Asset{Ticker: "VYM", AvgVolume: 1_800_000, TrailingYieldFraction: 0.032}},
	}

	t.Run("zero weight sum", func(t *testing.T) {
		opts := defaultOptions()
		opts.WeightYield = 0
		opts.WeightLiquidity = 0
		opts.WeightProximity = 0
		_, err := Rank(asOf, candidates, opts)
		require.ErrorIs(t, err, domain.ErrInvalidConfiguration)
	})

	t.Run("negative weight", func(t *testing.T) {
		opts := defaultOptions()
		opts.WeightYield = -0.4
		_, err := Rank(asOf, candidates, opts)
		require.ErrorIs(t, err, domain.ErrInvalidConfiguration)
	})

	t.Run("bad top-k", func(t *testing.T) {
		opts := defaultOptions()
		opts.TopK = 0
		_, err := Rank(asOf, candidates, opts)
		require.ErrorIs(t, err, domain.ErrInvalidConfiguration)
	})
}

func TestRank_ScoreExpression(t *testing.T) {
	asOf := util.NewDate(2025, 8, 1)
	candidates := []Candidate{
		{
			Asset:  domain.Asset{Ticker: "SDIV", AvgVolume: 650_000, TrailingYieldFraction: 0.089},
			NextEx: event("SDIV", util.NewDate(2025, 8, 5)),
		},
		{
			Asset:  domain.Asset{Ticker: "JEPI", AvgVolume: 5_200_000, TrailingYieldFraction: 0.072},
			NextEx: event("JEPI", util.NewDate(2025, 8, 30)),
		},
	}

	t.Run("yield-only expression flips ranking", func(t *testing.T) {
		opts := defaultOptions()
		opts.ScoreExpression = "yield"
		ranking, err := Rank(asOf, candidates, opts)
		require.NoError(t, err)
		require.Equal(t, []string{"SDIV", "JEPI"}, ranking.Tickers())
	})

	t.Run("malformed expression is a configuration error", func(t *testing.T) {
		opts := defaultOptions()
		opts.ScoreExpression = "yield +"
		_, err := Rank(asOf, candidates, opts)
		require.ErrorIs(t, err, domain.ErrInvalidConfiguration)
	})
}
