package schedule

import (
	"fmt"
	"time"

	"divrotation/internal/calendar"
	"divrotation/internal/domain"
	"divrotation/internal/util"
)

// Scheduler derives the buy/sell dates for a dividend-capture cycle around
// an ex-dividend date: buy holdPre trading days before, sell holdPost
// trading days after.
type Scheduler struct {
	resolver *calendar.Resolver
	holdPre  int
	holdPost int
}

// NewScheduler rejects negative offsets at construction; that is the only
// failure mode, scheduling itself never fails.
func NewScheduler(resolver *calendar.Resolver, holdPre, holdPost int) (*Scheduler, error) {
	if holdPre < 0 || holdPost < 0 {
		return nil, fmt.Errorf("%w: hold offsets must be non-negative, got pre=%d post=%d",
			domain.ErrInvalidConfiguration, holdPre, holdPost)
	}
	return &Scheduler{
		resolver: resolver,
		holdPre:  holdPre,
		holdPost: holdPost,
	}, nil
}

// Window is one scheduled cycle. HoldTradingDays counts trading-day steps
// from BuyDate to SellDate (exclusive of buy, inclusive of sell) and is
// floored at 1; the same convention is used for annualization in both the
// backtest and forward-plan paths.
type Window struct {
	BuyDate         time.Time
	ExDate          time.Time
	SellDate        time.Time
	HoldTradingDays int
}

func (s *Scheduler) Window(exDate time.Time) Window {
	exDate = util.Truncate(exDate)
	buy := s.resolver.Shift(exDate, -s.holdPre)
	sell := s.resolver.Shift(exDate, s.holdPost)

	holdDays := s.resolver.DaysBetween(buy, sell)
	if holdDays < 1 {
		holdDays = 1
	}

	return Window{
		BuyDate:         buy,
		ExDate:          exDate,
		SellDate:        sell,
		HoldTradingDays: holdDays,
	}
}
