package plan

import (
	"sort"
	"time"

	"divrotation/internal/domain"
	"divrotation/internal/logger"
	"divrotation/internal/schedule"
	"divrotation/internal/screener"
	"divrotation/internal/util"

	"github.com/shopspring/decimal"
)

type Options struct {
	AsOf          time.Time
	LookaheadDays int

	// ReferenceClose supplies a recent close per ticker for the estimated
	// gain column; tickers without one simply omit the estimate.
	ReferenceClose map[string]decimal.Decimal
}

// Build projects upcoming ex-dividend events for the ranked candidates into
// plan rows. No capital simulation and no cash constraints: this is an
// informational projection. An asset with several ex-dates inside the window
// produces one independent row per event; overlapping cycles are expected
// and never merged.
func Build(
	scheduler *schedule.Scheduler,
	ranking *screener.Ranking,
	events []domain.DividendEvent,
	opts Options,
) []domain.TradePlanEntry {
	asOf := util.Truncate(opts.AsOf)
	horizon := asOf.AddDate(0, 0, opts.LookaheadDays)

	ranked := map[string]domain.Asset{}
	for _, c := range ranking.Candidates {
		ranked[c.Asset.Ticker] = c.Asset
	}

	entries := []domain.TradePlanEntry{}
	for _, event := range events {
		asset, ok := ranked[event.Ticker]
		if !ok {
			continue
		}
		exDate := util.Truncate(event.ExDate)
		if exDate.Before(asOf) || exDate.After(horizon) {
			continue
		}

		window := scheduler.Window(exDate)
		entry := domain.TradePlanEntry{
			Ticker:          event.Ticker,
			Name:            asset.Name,
			ExDate:          window.ExDate,
			BuyDate:         window.BuyDate,
			SellDate:        window.SellDate,
			HoldTradingDays: window.HoldTradingDays,
			DividendPerUnit: event.AmountPerUnit,
			Currency:        event.Currency,
		}
		// future events are provisional; flag amounts that are not final
		if event.AmountPerUnit.IsZero() {
			entry.Note = "dividend amount not yet declared"
		}
		if close, ok := opts.ReferenceClose[event.Ticker]; ok && close.IsPositive() && event.AmountPerUnit.IsPositive() {
			entry.EstimatedGainPct = event.AmountPerUnit.Div(close).InexactFloat64() * 100
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].BuyDate.Equal(entries[j].BuyDate) {
			return entries[i].BuyDate.Before(entries[j].BuyDate)
		}
		return entries[i].Ticker < entries[j].Ticker
	})

	logger.Info("plan: %d upcoming cycles within %d days of %s",
		len(entries), opts.LookaheadDays, asOf.Format(time.DateOnly))
	return entries
}
