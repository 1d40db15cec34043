package backtest

import (
	"fmt"
	"sort"
	"time"

	"divrotation/internal/domain"
	"divrotation/internal/logger"
	"divrotation/internal/schedule"
	"divrotation/internal/util"

	"github.com/shopspring/decimal"
)

type SkipReason string

const (
	SkipOutOfWindow         SkipReason = "out_of_window"
	SkipMissingPrice        SkipReason = "missing_price"
	SkipInsufficientCapital SkipReason = "insufficient_capital"
)

// SkippedEvent records a single event that could not be simulated. Skips are
// per-event and recoverable; they never abort the run.
type SkippedEvent struct {
	Ticker string
	ExDate time.Time
	Reason SkipReason
}

type Options struct {
	Start       time.Time
	End         time.Time
	InitialCash decimal.Decimal

	// AllocFraction is the fraction of available cash allocated per event,
	// in (0, 1].
	AllocFraction float64

	// MaxPositionCap caps a single allocation in cash terms; zero means
	// uncapped. MinPositionFloor skips events that cannot reach a minimum
	// sensible position size.
	MaxPositionCap   decimal.Decimal
	MinPositionFloor decimal.Decimal
}

func (o Options) validate() error {
	if o.End.Before(o.Start) {
		return fmt.Errorf("%w: backtest end %s before start %s",
			domain.ErrInvalidConfiguration, o.End.Format(time.DateOnly), o.Start.Format(time.DateOnly))
	}
	if !o.InitialCash.IsPositive() {
		return fmt.Errorf("%w: initial cash must be positive, got %s", domain.ErrInvalidConfiguration, o.InitialCash)
	}
	if o.AllocFraction <= 0 || o.AllocFraction > 1 {
		return fmt.Errorf("%w: alloc fraction must be in (0, 1], got %f", domain.ErrInvalidConfiguration, o.AllocFraction)
	}
	return nil
}

type Result struct {
	Trades      []domain.TradePlanEntry
	EquityCurve []domain.EquityPoint
	Skipped     []SkippedEvent
	FinalCash   decimal.Decimal
	Performance Performance
}

// Run replays historical dividend events chronologically, simulating one
// buy/hold-through-ex/sell cycle per event against the portfolio cash
// balance. Identical inputs produce identical ledgers and equity curves:
// event order is (ex-date, ticker) and all cash arithmetic is decimal.
func Run(
	scheduler *schedule.Scheduler,
	events []domain.DividendEvent,
	assetsByTicker map[string]domain.Asset,
	prices domain.PriceSeries,
	opts Options,
) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	ordered := make([]domain.DividendEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].ExDate.Equal(ordered[j].ExDate) {
			return ordered[i].ExDate.Before(ordered[j].ExDate)
		}
		return ordered[i].Ticker < ordered[j].Ticker
	})

	state := domain.NewPortfolioState(opts.InitialCash)
	result := &Result{}

	for _, event := range ordered {
		if event.ExDate.Before(opts.Start) || event.ExDate.After(opts.End) {
			continue
		}

		window := scheduler.Window(event.ExDate)
		if window.BuyDate.Before(opts.Start) || window.SellDate.After(opts.End) {
			result.skip(event, SkipOutOfWindow)
			continue
		}

		buyBar, ok := prices.Get(event.Ticker, window.BuyDate)
		if !ok || !buyBar.Close.IsPositive() {
			result.skip(event, SkipMissingPrice)
			continue
		}
		sellBar, ok := prices.Get(event.Ticker, window.SellDate)
		if !ok || !sellBar.Close.IsPositive() {
			result.skip(event, SkipMissingPrice)
			continue
		}

		alloc := state.Cash.Mul(decimal.NewFromFloat(opts.AllocFraction))
		if opts.MaxPositionCap.IsPositive() && alloc.GreaterThan(opts.MaxPositionCap) {
			alloc = opts.MaxPositionCap
		}
		if opts.MinPositionFloor.IsPositive() && alloc.LessThan(opts.MinPositionFloor) {
			result.skip(event, SkipInsufficientCapital)
			continue
		}

		units := alloc.Div(buyBar.Close).IntPart()
		if units < 1 {
			result.skip(event, SkipInsufficientCapital)
			continue
		}

		if err := state.Open(event.Ticker, units, buyBar.Close, window.BuyDate); err != nil {
			return nil, fmt.Errorf("failed to open position for %s: %w", event.Ticker, err)
		}

		dividendCash := event.AmountPerUnit.Mul(decimal.NewFromInt(units))
		proceeds, err := state.Close(event.Ticker, sellBar.Close, dividendCash)
		if err != nil {
			return nil, fmt.Errorf("failed to close position for %s: %w", event.Ticker, err)
		}

		costBasis := buyBar.Close.Mul(decimal.NewFromInt(units))
		pnl := proceeds.Add(dividendCash).Sub(costBasis)
		returnPct := pnl.Div(costBasis).InexactFloat64() * 100
		annualizedPct := returnPct * 365 / float64(window.HoldTradingDays)

		entry := domain.TradePlanEntry{
			Ticker:          event.Ticker,
			ExDate:          window.ExDate,
			BuyDate:         window.BuyDate,
			SellDate:        window.SellDate,
			HoldTradingDays: window.HoldTradingDays,
			DividendPerUnit: event.AmountPerUnit,
			Currency:        event.Currency,
			Realized: &domain.RealizedFill{
				Units:               units,
				BuyPrice:            buyBar.Close,
				SellPrice:           sellBar.Close,
				CostBasis:           costBasis,
				DividendCash:        dividendCash,
				PnL:                 pnl,
				ReturnPct:           returnPct,
				AnnualizedReturnPct: annualizedPct,
			},
		}
		if asset, ok := assetsByTicker[event.Ticker]; ok {
			entry.Name = asset.Name
		}
		result.Trades = append(result.Trades, entry)
		result.appendEquity(window.SellDate, state.Cash)
	}

	result.FinalCash = state.Cash
	result.Performance = computePerformance(result.Trades, len(result.Skipped), opts)
	return result, nil
}

func (r *Result) skip(event domain.DividendEvent, reason SkipReason) {
	logger.Info("backtest: skipping %s ex %s: %s",
		event.Ticker, event.ExDate.Format(time.DateOnly), reason)
	r.Skipped = append(r.Skipped, SkippedEvent{
		Ticker: event.Ticker,
		ExDate: event.ExDate,
		Reason: reason,
	})
}

// appendEquity keeps one point per date; later closes on the same day
// replace earlier ones.
func (r *Result) appendEquity(date time.Time, equity decimal.Decimal) {
	date = util.Truncate(date)
	if n := len(r.EquityCurve); n > 0 && r.EquityCurve[n-1].Date.Equal(date) {
		r.EquityCurve[n-1].Equity = equity
		return
	}
	r.EquityCurve = append(r.EquityCurve, domain.EquityPoint{Date: date, Equity: equity})
}
