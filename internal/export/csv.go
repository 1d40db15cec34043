package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"divrotation/internal/domain"
	"divrotation/internal/logger"

	"github.com/gocarina/gocsv"
)

type tradeRow struct {
	Ticker          string `csv:"ticker"`
	Name            string `csv:"name"`
	BuyDate         string `csv:"buy_date"`
	ExDate          string `csv:"ex_date"`
	SellDate        string `csv:"sell_date"`
	HoldTradingDays int    `csv:"hold_trading_days"`
	Units           int64  `csv:"units"`
	BuyPrice        string `csv:"buy_price"`
	SellPrice       string `csv:"sell_price"`
	DividendCash    string `csv:"dividend_cash"`
	PnL             string `csv:"pnl"`
	ReturnPct       string `csv:"return_pct"`
	AnnualizedPct   string `csv:"annualized_return_pct"`
}

type planRow struct {
	Ticker           string `csv:"ticker"`
	Name             string `csv:"name"`
	BuyDate          string `csv:"buy_date"`
	ExDate           string `csv:"ex_date"`
	SellDate         string `csv:"sell_date"`
	HoldTradingDays  int    `csv:"hold_trading_days"`
	DividendPerUnit  string `csv:"dividend_per_unit"`
	Currency         string `csv:"currency"`
	EstimatedGainPct string `csv:"estimated_gain_pct"`
	Note             string `csv:"note"`
}

type equityRow struct {
	Date   string `csv:"date"`
	Equity string `csv:"equity"`
}

// Writer persists run artifacts as CSV files under a single directory, each
// file named <prefix>_<artifact>.csv to match the files the older reporting
// scripts produced.
type Writer struct {
	Dir    string
	Prefix string
}

func NewWriter(dir, prefix string) Writer {
	return Writer{Dir: dir, Prefix: prefix}
}

func (w Writer) path(artifact string) string {
	return filepath.Join(w.Dir, fmt.Sprintf("%s_%s.csv", w.Prefix, artifact))
}

func (w Writer) WriteTrades(trades []domain.TradePlanEntry) (string, error) {
	rows := make([]tradeRow, 0, len(trades))
	for _, t := range trades {
		if t.Realized == nil {
			continue
		}
		rows = append(rows, tradeRow{
			Ticker:          t.Ticker,
			Name:            t.Name,
			BuyDate:         t.BuyDate.Format(time.DateOnly),
			ExDate:          t.ExDate.Format(time.DateOnly),
			SellDate:        t.SellDate.Format(time.DateOnly),
			HoldTradingDays: t.HoldTradingDays,
			Units:           t.Realized.Units,
			BuyPrice:        t.Realized.BuyPrice.StringFixed(4),
			SellPrice:       t.Realized.SellPrice.StringFixed(4),
			DividendCash:    t.Realized.DividendCash.StringFixed(2),
			PnL:             t.Realized.PnL.StringFixed(2),
			ReturnPct:       fmt.Sprintf("%.4f", t.Realized.ReturnPct),
			AnnualizedPct:   fmt.Sprintf("%.2f", t.Realized.AnnualizedReturnPct),
		})
	}
	return w.write("trades", &rows)
}

func (w Writer) WritePlan(entries []domain.TradePlanEntry) (string, error) {
	rows := make([]planRow, 0, len(entries))
	for _, e := range entries {
		row := planRow{
			Ticker:          e.Ticker,
			Name:            e.Name,
			BuyDate:         e.BuyDate.Format(time.DateOnly),
			ExDate:          e.ExDate.Format(time.DateOnly),
			SellDate:        e.SellDate.Format(time.DateOnly),
			HoldTradingDays: e.HoldTradingDays,
			DividendPerUnit: e.DividendPerUnit.StringFixed(4),
			Currency:        e.Currency,
			Note:            e.Note,
		}
		if e.EstimatedGainPct > 0 {
			row.EstimatedGainPct = fmt.Sprintf("%.4f", e.EstimatedGainPct)
		}
		rows = append(rows, row)
	}
	return w.write("plan", &rows)
}

func (w Writer) WriteEquityCurve(points []domain.EquityPoint) (string, error) {
	rows := make([]equityRow, 0, len(points))
	for _, p := range points {
		rows = append(rows, equityRow{
			Date:   p.Date.Format(time.DateOnly),
			Equity: p.Equity.StringFixed(2),
		})
	}
	return w.write("equity", &rows)
}

func (w Writer) write(artifact string, rows interface{}) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir %s: %w", w.Dir, err)
	}
	path := w.path(artifact)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(rows, f); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	logger.Info("export: wrote %s", path)
	return path, nil
}
