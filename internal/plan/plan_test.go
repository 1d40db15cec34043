package plan

import (
	"testing"
	"time"

	"divrotation/internal/calendar"
	"divrotation/internal/domain"
	"divrotation/internal/schedule"
	"divrotation/internal/screener"
	"divrotation/internal/util"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newScheduler(t *testing.T) *schedule.Scheduler {
	t.Helper()
	s, err := schedule.NewScheduler(calendar.NewResolver(nil), 2, 1)
	require.NoError(t, err)
	return s
}

func ranking(assets ...domain.Asset) *screener.Ranking {
	r := &screener.Ranking{Outcome: screener.OutcomeOK}
	for _, a := range assets {
		r.Candidates = append(r.Candidates, screener.ScoredCandidate{Asset: a})
	}
	return r
}

func futureEvent(ticker string, exDate time.Time, amount float64) domain.DividendEvent {
	return domain.DividendEvent{
		Ticker:        ticker,
		ExDate:        exDate,
		AmountPerUnit: decimal.NewFromFloat(amount),
		Currency:      "USD",
	}
}

func TestBuild(t *testing.T) {
	scheduler := newScheduler(t)
	asOf := util.NewDate(2025, 11, 3) // Monday

	schd := domain.Asset{Ticker: "SCHD", Name: "Schwab US Dividend Equity ETF"}
	vym := domain.Asset{Ticker: "VYM", Name: "Vanguard High Dividend Yield ETF"}

	t.Run("one row per event, sorted by buy date", func(t *testing.T) {
		events := []domain.DividendEvent{
			futureEvent("VYM", util.NewDate(2025, 11, 21), 0.72),
			futureEvent("SCHD", util.NewDate(2025, 11, 14), 0.65),
			futureEvent("SCHD", util.NewDate(2025, 12, 15), 0.65),
		}
		entries := Build(scheduler, ranking(schd, vym), events, Options{
			AsOf:          asOf,
			LookaheadDays: 60,
		})

		require.Len(t, entries, 3)
		require.Equal(t, "SCHD", entries[0].Ticker)
		require.Equal(t, util.NewDate(2025, 11, 12), entries[0].BuyDate)
		require.Equal(t, "VYM", entries[1].Ticker)
		require.Equal(t, "SCHD", entries[2].Ticker)

		for _, e := range entries {
			require.Nil(t, e.Realized, "forward plan rows carry no realized fields")
		}
	})

	t.Run("multiple cycles for one asset stay separate", func(t *testing.T) {
		events := []domain.DividendEvent{
			futureEvent("SCHD", util.NewDate(2025, 11, 14), 0.65),
			futureEvent("SCHD", util.NewDate(2025, 12, 15), 0.65),
		}
		entries := Build(scheduler, ranking(schd), events, Options{
			AsOf:          asOf,
			LookaheadDays: 60,
		})
		require.Len(t, entries, 2)
		require.NotEqual(t, entries[0].ExDate, entries[1].ExDate)
	})

	t.Run("events outside lookahead excluded", func(t *testing.T) {
		events := []domain.DividendEvent{
			futureEvent("SCHD", util.NewDate(2025, 11, 1), 0.65),  // past
			futureEvent("SCHD", util.NewDate(2026, 3, 20), 0.65),  // too far
			futureEvent("SCHD", util.NewDate(2025, 11, 20), 0.65), // in window
		}
		entries := Build(scheduler, ranking(schd), events, Options{
			AsOf:          asOf,
			LookaheadDays: 30,
		})
		require.Len(t, entries, 1)
		require.Equal(t, util.NewDate(2025, 11, 20), entries[0].ExDate)
	})

	t.Run("unranked tickers excluded", func(t *testing.T) {
		events := []domain.DividendEvent{
			futureEvent("XYLD", util.NewDate(2025, 11, 20), 0.32),
		}
		entries := Build(scheduler, ranking(schd), events, Options{
			AsOf:          asOf,
			LookaheadDays: 30,
		})
		require.Empty(t, entries)
	})

	t.Run("estimated gain from reference close", func(t *testing.T) {
		events := []domain.DividendEvent{
			futureEvent("SCHD", util.NewDate(2025, 11, 14), 0.65),
		}
		entries := Build(scheduler, ranking(schd), events, Options{
			AsOf:          asOf,
			LookaheadDays: 30,
			ReferenceClose: map[string]decimal.Decimal{
				"SCHD": decimal.NewFromInt(94),
			},
		})
		require.Len(t, entries, 1)
		require.InDelta(t, 0.6915, entries[0].EstimatedGainPct, 0.001)
	})

	t.Run("undeclared amount noted", func(t *testing.T) {
		events := []domain.DividendEvent{
			futureEvent("SCHD", util.NewDate(2025, 11, 14), 0),
		}
		entries := Build(scheduler, ranking(schd), events, Options{
			AsOf:          asOf,
			LookaheadDays: 30,
		})
		require.Len(t, entries, 1)
		require.NotEmpty(t, entries[0].Note)
	})
}
