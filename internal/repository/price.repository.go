package repository

import (
	"fmt"
	"os"
	"time"

	"divrotation/internal/domain"
	"divrotation/internal/util"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

type priceRow struct {
	Ticker string          `csv:"ticker"`
	Date   string          `csv:"date"`
	Open   decimal.Decimal `csv:"open"`
	Close  decimal.Decimal `csv:"close"`
}

// LoadPrices reads the per-ticker daily bars used for simulated fills.
func LoadPrices(path string) (domain.PriceSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open prices file: %w", err)
	}
	defer f.Close()

	rows := []priceRow{}
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parse prices file %s: %w", path, err)
	}

	series := domain.PriceSeries{}
	for i, row := range rows {
		date, err := util.ParseDate(row.Date)
		if err != nil {
			return nil, fmt.Errorf("prices file %s row %d: %w", path, i+1, err)
		}
		if row.Ticker == "" {
			return nil, fmt.Errorf("prices file %s row %d: missing ticker", path, i+1)
		}
		series.Add(domain.PriceBar{
			Ticker: row.Ticker,
			Date:   date,
			Open:   row.Open,
			Close:  row.Close,
		})
	}
	return series, nil
}

// SavePrices writes daily bars in (ticker, date) order so refreshed files
// diff cleanly against previous fetches.
func SavePrices(path string, bars []domain.PriceBar) error {
	rows := make([]priceRow, 0, len(bars))
	for _, bar := range bars {
		rows = append(rows, priceRow{
			Ticker: bar.Ticker,
			Date:   bar.Date.Format(time.DateOnly),
			Open:   bar.Open,
			Close:  bar.Close,
		})
	}
	return writeCsv(path, &rows)
}
