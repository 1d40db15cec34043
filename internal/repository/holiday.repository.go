package repository

import (
	"fmt"
	"os"
	"time"

	"divrotation/internal/logger"
	"divrotation/internal/util"

	"github.com/gocarina/gocsv"
)

type holidayRow struct {
	Date string `csv:"date"`
	Name string `csv:"name"`
}

// LoadHolidays reads the exchange holiday calendar. A missing file is not an
// error: it returns an empty set, which downgrades the calendar resolver to
// its weekend-only approximation. The degradation is logged here and flagged
// on the run output by the resolver.
func LoadHolidays(path string) ([]time.Time, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		logger.Warn("holiday calendar %s not found; falling back to weekend-only trading days", path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open holidays file: %w", err)
	}
	defer f.Close()

	rows := []holidayRow{}
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parse holidays file %s: %w", path, err)
	}

	holidays := make([]time.Time, 0, len(rows))
	for i, row := range rows {
		date, err := util.ParseDate(row.Date)
		if err != nil {
			return nil, fmt.Errorf("holidays file %s row %d: %w", path, i+1, err)
		}
		holidays = append(holidays, date)
	}
	return holidays, nil
}

// SaveHolidays writes the exchange holiday calendar. Names are optional and
// only aid manual inspection of the file.
func SaveHolidays(path string, holidays []time.Time, names map[string]string) error {
	rows := make([]holidayRow, 0, len(holidays))
	for _, holiday := range holidays {
		key := holiday.Format(time.DateOnly)
		rows = append(rows, holidayRow{Date: key, Name: names[key]})
	}
	return writeCsv(path, &rows)
}
