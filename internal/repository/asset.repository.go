package repository

import (
	"fmt"
	"os"

	"divrotation/internal/domain"

	"github.com/gocarina/gocsv"
)

type assetRow struct {
	Ticker        string  `csv:"ticker"`
	Name          string  `csv:"name"`
	Region        string  `csv:"region"`
	AvgVolume     int64   `csv:"avg_volume"`
	TrailingYield float64 `csv:"trailing_yield"`
}

// LoadAssets reads the asset reference table from a CSV file. The static
// reference data ships as a loaded data asset rather than source-embedded
// literals.
func LoadAssets(path string) ([]domain.Asset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open assets file: %w", err)
	}
	defer f.Close()

	rows := []assetRow{}
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parse assets file %s: %w", path, err)
	}

	assets := make([]domain.Asset, 0, len(rows))
	for i, row := range rows {
		if row.Ticker == "" {
			return nil, fmt.Errorf("assets file %s row %d: missing ticker", path, i+1)
		}
		region := domain.Region(row.Region)
		switch region {
		case domain.RegionDomestic, domain.RegionForeign:
		case "":
			region = domain.RegionDomestic
		default:
			return nil, fmt.Errorf("assets file %s row %d: unknown region %q", path, i+1, row.Region)
		}
		assets = append(assets, domain.Asset{
			Ticker:                row.Ticker,
			Name:                  row.Name,
			Region:                region,
			AvgVolume:             row.AvgVolume,
			TrailingYieldFraction: row.TrailingYield,
		})
	}
	return assets, nil
}

// SaveAssets writes the asset reference table, typically after a screener
// fetch refreshed it.
func SaveAssets(path string, assets []domain.Asset) error {
	rows := make([]assetRow, 0, len(assets))
	for _, asset := range assets {
		rows = append(rows, assetRow{
			Ticker:        asset.Ticker,
			Name:          asset.Name,
			Region:        string(asset.Region),
			AvgVolume:     asset.AvgVolume,
			TrailingYield: asset.TrailingYieldFraction,
		})
	}
	return writeCsv(path, &rows)
}
