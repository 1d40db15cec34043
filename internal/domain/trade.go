package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RealizedFill carries the executed side of a trade cycle. Forward-plan
// entries never have one.
//
// CostBasis is units * buy price, the capital actually deployed; return
// percentages are measured against it. ReturnPct and AnnualizedReturnPct are
// percentages (1.68 = 1.68%), never fractions.
type RealizedFill struct {
	Units               int64
	BuyPrice            decimal.Decimal
	SellPrice           decimal.Decimal
	CostBasis           decimal.Decimal
	DividendCash        decimal.Decimal
	PnL                 decimal.Decimal
	ReturnPct           float64
	AnnualizedReturnPct float64
}

// ReturnFraction is ReturnPct expressed as a fraction (0.0168 for 1.68%).
// Kept as a method so the two units can never drift apart.
func (f RealizedFill) ReturnFraction() float64 {
	return f.ReturnPct / 100
}

// TradePlanEntry is one planned or executed dividend-capture cycle. The
// scheduler fills the dates, the backtest completes Realized; forward plans
// leave Realized nil.
type TradePlanEntry struct {
	Ticker          string
	Name            string
	ExDate          time.Time
	BuyDate         time.Time
	SellDate        time.Time
	HoldTradingDays int
	DividendPerUnit decimal.Decimal
	Currency        string

	Realized *RealizedFill

	// Forward-plan only: dividend amount over reference close, in percent.
	EstimatedGainPct float64
	Note             string
}

// EquityPoint is one sample of the equity curve, taken at each trade close.
type EquityPoint struct {
	Date   time.Time
	Equity decimal.Decimal
}
