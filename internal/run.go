package internal

import (
	"fmt"
	"sort"
	"time"

	"divrotation/internal/backtest"
	"divrotation/internal/calendar"
	"divrotation/internal/config"
	"divrotation/internal/domain"
	"divrotation/internal/logger"
	"divrotation/internal/plan"
	"divrotation/internal/schedule"
	"divrotation/internal/screener"
	"divrotation/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RunInput bundles the pre-fetched data a run operates on. Fetching happens
// outside the engine; everything here is already loaded and immutable for the
// duration of the run.
type RunInput struct {
	Assets    []domain.Asset
	Prices    domain.PriceSeries
	Dividends []domain.DividendEvent
	Holidays  []time.Time
}

// RunResult is the envelope every run produces. Recoverable conditions show
// up as data on the envelope (empty ranking with an outcome, skip records,
// the degraded-calendar flag); only configuration misuse aborts a run.
type RunResult struct {
	RunID            uuid.UUID
	Ranking          *screener.Ranking
	Backtest         *backtest.Result
	ForwardPlan      []domain.TradePlanEntry
	DegradedCalendar bool
	Warnings         []string
}

// Run executes the full pipeline: score candidates, schedule their windows,
// replay the historical ledger and project the forward plan. Components run
// sequentially; the portfolio state lives and dies inside the backtest.
func Run(cfg *config.Config, input RunInput) (*RunResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	result := &RunResult{RunID: uuid.New()}

	resolver := calendar.NewResolver(input.Holidays)
	if resolver.Approximate() {
		result.DegradedCalendar = true
		result.Warnings = append(result.Warnings,
			"no holiday calendar loaded; trading days approximated as weekdays")
	}

	scheduler, err := schedule.NewScheduler(resolver, cfg.HoldPre, cfg.HoldPost)
	if err != nil {
		return nil, err
	}

	asOf := cfg.AsOfDate()
	candidates := buildCandidates(asOf, input.Assets, input.Dividends)

	ranking, err := screener.Rank(asOf, candidates, screener.Options{
		MinYieldFraction: cfg.MinYieldFraction,
		MinAvgVolume:     cfg.MinAvgVolume,
		TopK:             cfg.TopK,
		LookaheadDays:    cfg.LookaheadDays,
		WeightYield:      cfg.WeightYield,
		WeightLiquidity:  cfg.WeightLiquidity,
		WeightProximity:  cfg.WeightProximity,
		ScoreExpression:  cfg.ScoreExpression,
	})
	if err != nil {
		return nil, err
	}
	result.Ranking = ranking

	if rankErr := ranking.Err(); rankErr != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%s; backtest and plan skipped", rankErr))
		logger.Warn("run %s: %s", result.RunID, result.Warnings[len(result.Warnings)-1])
		return result, nil
	}

	selected := map[string]struct{}{}
	assetsByTicker := map[string]domain.Asset{}
	for _, c := range ranking.Candidates {
		selected[c.Asset.Ticker] = struct{}{}
		assetsByTicker[c.Asset.Ticker] = c.Asset
	}

	historical := make([]domain.DividendEvent, 0, len(input.Dividends))
	for _, event := range input.Dividends {
		if _, ok := selected[event.Ticker]; ok {
			historical = append(historical, event)
		}
	}

	btResult, err := backtest.Run(scheduler, historical, assetsByTicker, input.Prices, backtest.Options{
		Start:            cfg.StartDate(),
		End:              cfg.EndDate(),
		InitialCash:      decimal.NewFromFloat(cfg.InitialCash),
		AllocFraction:    cfg.AllocFraction,
		MaxPositionCap:   decimal.NewFromFloat(cfg.MaxPositionCap),
		MinPositionFloor: decimal.NewFromFloat(cfg.MinPositionFloor),
	})
	if err != nil {
		return nil, err
	}
	result.Backtest = btResult

	result.ForwardPlan = plan.Build(scheduler, ranking, input.Dividends, plan.Options{
		AsOf:           asOf,
		LookaheadDays:  cfg.LookaheadDays,
		ReferenceClose: latestCloses(asOf, ranking.Tickers(), input.Prices),
	})

	logger.Info("run %s: %d ranked, %d trades, %d skipped, %d planned cycles",
		result.RunID, len(ranking.Candidates), len(btResult.Trades),
		len(btResult.Skipped), len(result.ForwardPlan))
	return result, nil
}

// buildCandidates pairs each asset with its nearest dividend event on or
// after the as-of date. Assets without an upcoming event still enter scoring
// with a nil NextEx; the scorer gives them zero proximity.
func buildCandidates(asOf time.Time, assets []domain.Asset, events []domain.DividendEvent) []screener.Candidate {
	asOf = util.Truncate(asOf)

	nextEx := map[string]domain.DividendEvent{}
	for _, event := range events {
		exDate := util.Truncate(event.ExDate)
		if exDate.Before(asOf) {
			continue
		}
		current, ok := nextEx[event.Ticker]
		if !ok || exDate.Before(current.ExDate) {
			event.ExDate = exDate
			nextEx[event.Ticker] = event
		}
	}

	candidates := make([]screener.Candidate, 0, len(assets))
	for _, asset := range assets {
		c := screener.Candidate{Asset: asset}
		if event, ok := nextEx[asset.Ticker]; ok {
			e := event
			c.NextEx = &e
		}
		candidates = append(candidates, c)
	}
	return candidates
}

// latestCloses finds, per ticker, the most recent close on or before asOf for
// the forward plan's estimated gain column.
func latestCloses(asOf time.Time, tickers []string, prices domain.PriceSeries) map[string]decimal.Decimal {
	asOf = util.Truncate(asOf)
	closes := map[string]decimal.Decimal{}
	for _, ticker := range tickers {
		bars, ok := prices[ticker]
		if !ok {
			continue
		}
		dates := make([]string, 0, len(bars))
		for key := range bars {
			dates = append(dates, key)
		}
		sort.Sort(sort.Reverse(sort.StringSlice(dates)))
		for _, key := range dates {
			date, err := util.ParseDate(key)
			if err != nil {
				continue
			}
			if !date.After(asOf) {
				closes[ticker] = bars[key].Close
				break
			}
		}
	}
	return closes
}
