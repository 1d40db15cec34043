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

type dividendRow struct {
	Ticker   string          `csv:"ticker"`
	ExDate   string          `csv:"ex_date"`
	Amount   decimal.Decimal `csv:"amount"`
	Currency string          `csv:"currency"`
}

// LoadDividends reads historical and announced dividend events. Rows are
// returned in file order; consumers sort by ex-date themselves.
func LoadDividends(path string) ([]domain.DividendEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dividends file: %w", err)
	}
	defer f.Close()

	rows := []dividendRow{}
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parse dividends file %s: %w", path, err)
	}

	events := make([]domain.DividendEvent, 0, len(rows))
	for i, row := range rows {
		exDate, err := util.ParseDate(row.ExDate)
		if err != nil {
			return nil, fmt.Errorf("dividends file %s row %d: %w", path, i+1, err)
		}
		if row.Ticker == "" {
			return nil, fmt.Errorf("dividends file %s row %d: missing ticker", path, i+1)
		}
		currency := row.Currency
		if currency == "" {
			currency = "USD"
		}
		events = append(events, domain.DividendEvent{
			Ticker:        row.Ticker,
			ExDate:        exDate,
			AmountPerUnit: row.Amount,
			Currency:      currency,
		})
	}
	return events, nil
}

// SaveDividends writes dividend events, both historical and declared-future.
func SaveDividends(path string, events []domain.DividendEvent) error {
	rows := make([]dividendRow, 0, len(events))
	for _, event := range events {
		rows = append(rows, dividendRow{
			Ticker:   event.Ticker,
			ExDate:   event.ExDate.Format(time.DateOnly),
			Amount:   event.AmountPerUnit,
			Currency: event.Currency,
		})
	}
	return writeCsv(path, &rows)
}
