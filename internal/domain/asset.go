package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Region string

const (
	RegionDomestic Region = "domestic"
	RegionForeign  Region = "foreign"
)

// Asset is immutable reference data for one tradable security, loaded once
// per run. TrailingYieldFraction is the trailing annualized dividend yield
// as a fraction (0.038 = 3.8%), never a percentage.
type Asset struct {
	Ticker                string
	Name                  string
	Region                Region
	AvgVolume             int64
	TrailingYieldFraction float64
}

// DividendEvent is one ex-dividend fact for an asset. Historical events are
// read-only; future events are provisional and may shift before they
// materialize.
type DividendEvent struct {
	Ticker        string
	ExDate        time.Time
	AmountPerUnit decimal.Decimal
	Currency      string
}

// PriceBar holds the simulated fill prices for one ticker on one date.
type PriceBar struct {
	Ticker string
	Date   time.Time
	Open   decimal.Decimal
	Close  decimal.Decimal
}

// PriceSeries maps ticker -> YYYY-MM-DD -> bar. The engine performs no I/O;
// series are pre-fetched by the caller.
type PriceSeries map[string]map[string]PriceBar

const dateKeyLayout = "2006-01-02"

func (ps PriceSeries) Get(ticker string, date time.Time) (PriceBar, bool) {
	days, ok := ps[ticker]
	if !ok {
		return PriceBar{}, false
	}
	bar, ok := days[date.Format(dateKeyLayout)]
	return bar, ok
}

// Add inserts a bar, building the inner map as needed.
func (ps PriceSeries) Add(bar PriceBar) {
	if _, ok := ps[bar.Ticker]; !ok {
		ps[bar.Ticker] = map[string]PriceBar{}
	}
	ps[bar.Ticker][bar.Date.Format(dateKeyLayout)] = bar
}
