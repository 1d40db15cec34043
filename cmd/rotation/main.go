package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"divrotation/internal"
	"divrotation/internal/config"
	"divrotation/internal/domain"
	"divrotation/internal/export"
	"divrotation/internal/logger"
	"divrotation/internal/repository"
	"divrotation/internal/util"
	"divrotation/pkg/eodhd"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	configPath string
	dataDir    string
	outDir     string

	rootCmd = &cobra.Command{
		Use:   "rotation",
		Short: "Dividend rotation scoring, backtesting and forward planning",
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Score candidates, replay the backtest and build the forward plan",
		RunE:  runRotation,
	}

	fetchCmd = &cobra.Command{
		Use:   "fetch",
		Short: "Refresh the local data files from the EODHD API",
		RunE:  fetchData,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "rotation.yaml", "path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "data", "directory holding the CSV input files")

	runCmd.Flags().StringVar(&outDir, "out-dir", ".", "directory for exported CSV artifacts")
	runCmd.Flags().String("start", "", "backtest start date (YYYY-MM-DD)")
	runCmd.Flags().String("end", "", "backtest end date (YYYY-MM-DD)")
	runCmd.Flags().String("as-of", "", "scoring/plan anchor date, defaults to today")
	runCmd.Flags().Float64("initial-cash", 0, "starting cash for the backtest")
	runCmd.Flags().Float64("min-div-yield", 0, "minimum trailing dividend yield, as a fraction")
	runCmd.Flags().Int64("min-avg-vol", 0, "minimum average daily volume")
	runCmd.Flags().Int("topk", 0, "number of top-scored candidates to keep")
	runCmd.Flags().Int("hold-pre", -1, "trading days to buy before the ex-date")
	runCmd.Flags().Int("hold-post", -1, "trading days to sell after the ex-date")
	runCmd.Flags().Int("ex-lookahead", 0, "forward plan lookahead window in calendar days")
	runCmd.Flags().Float64("w-yield", -1, "composite score weight for yield")
	runCmd.Flags().Float64("w-liquidity", -1, "composite score weight for liquidity")
	runCmd.Flags().Float64("w-proximity", -1, "composite score weight for ex-date proximity")
	runCmd.Flags().String("score-expr", "", "custom score expression over yield, liquidity and proximity")
	runCmd.Flags().Float64("alloc-fraction", 0, "fraction of cash allocated per event")
	runCmd.Flags().String("output-prefix", "", "filename prefix for exported artifacts")

	fetchCmd.Flags().String("exchange", "US", "EODHD exchange code to screen")
	fetchCmd.Flags().Float64("min-div-yield", 0.009, "screener yield floor, as a fraction")
	fetchCmd.Flags().Int("limit", 50, "maximum screener results to keep")
	fetchCmd.Flags().String("from", "", "history start date for prices and dividends (YYYY-MM-DD)")

	rootCmd.AddCommand(runCmd, fetchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

func runRotation(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyFlagOverrides(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	input, err := loadInput(dataDir)
	if err != nil {
		return err
	}

	result, err := internal.Run(cfg, input)
	if err != nil {
		return err
	}

	console := export.NewConsole(os.Stdout)
	for _, warning := range result.Warnings {
		fmt.Fprintf(os.Stdout, "WARNING: %s\n", warning)
	}
	console.RenderRanking(result.Ranking)
	if result.Backtest != nil {
		console.RenderTrades(result.Backtest.Trades)
		console.RenderPerformance(result.Backtest.Performance)
	}
	console.RenderPlan(result.ForwardPlan)

	if result.Backtest == nil {
		return nil
	}

	writer := export.NewWriter(outDir, cfg.OutputPrefix)
	if _, err := writer.WriteTrades(result.Backtest.Trades); err != nil {
		return err
	}
	if _, err := writer.WriteEquityCurve(result.Backtest.EquityCurve); err != nil {
		return err
	}
	if _, err := writer.WritePlan(result.ForwardPlan); err != nil {
		return err
	}
	return nil
}

func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("start") {
		cfg.Start, _ = flags.GetString("start")
	}
	if flags.Changed("end") {
		cfg.End, _ = flags.GetString("end")
	}
	if flags.Changed("as-of") {
		cfg.AsOf, _ = flags.GetString("as-of")
	} else if cfg.AsOf == "" {
		cfg.AsOf = time.Now().Format(time.DateOnly)
	}
	if flags.Changed("initial-cash") {
		cfg.InitialCash, _ = flags.GetFloat64("initial-cash")
	}
	if flags.Changed("min-div-yield") {
		cfg.MinYieldFraction, _ = flags.GetFloat64("min-div-yield")
	}
	if flags.Changed("min-avg-vol") {
		cfg.MinAvgVolume, _ = flags.GetInt64("min-avg-vol")
	}
	if flags.Changed("topk") {
		cfg.TopK, _ = flags.GetInt("topk")
	}
	if flags.Changed("hold-pre") {
		cfg.HoldPre, _ = flags.GetInt("hold-pre")
	}
	if flags.Changed("hold-post") {
		cfg.HoldPost, _ = flags.GetInt("hold-post")
	}
	if flags.Changed("ex-lookahead") {
		cfg.LookaheadDays, _ = flags.GetInt("ex-lookahead")
	}
	if flags.Changed("w-yield") {
		cfg.WeightYield, _ = flags.GetFloat64("w-yield")
	}
	if flags.Changed("w-liquidity") {
		cfg.WeightLiquidity, _ = flags.GetFloat64("w-liquidity")
	}
	if flags.Changed("w-proximity") {
		cfg.WeightProximity, _ = flags.GetFloat64("w-proximity")
	}
	if flags.Changed("score-expr") {
		cfg.ScoreExpression, _ = flags.GetString("score-expr")
	}
	if flags.Changed("alloc-fraction") {
		cfg.AllocFraction, _ = flags.GetFloat64("alloc-fraction")
	}
	if flags.Changed("output-prefix") {
		cfg.OutputPrefix, _ = flags.GetString("output-prefix")
	}
}

func loadInput(dir string) (internal.RunInput, error) {
	input := internal.RunInput{}

	assets, err := repository.LoadAssets(filepath.Join(dir, "assets.csv"))
	if err != nil {
		return input, err
	}
	prices, err := repository.LoadPrices(filepath.Join(dir, "prices.csv"))
	if err != nil {
		return input, err
	}
	dividends, err := repository.LoadDividends(filepath.Join(dir, "dividends.csv"))
	if err != nil {
		return input, err
	}
	holidays, err := repository.LoadHolidays(filepath.Join(dir, "holidays.csv"))
	if err != nil {
		return input, err
	}

	input.Assets = assets
	input.Prices = prices
	input.Dividends = dividends
	input.Holidays = holidays
	return input, nil
}

func fetchData(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()
	apiToken := os.Getenv("EODHD_API_TOKEN")
	if apiToken == "" {
		return fmt.Errorf("EODHD_API_TOKEN is not set")
	}

	flags := cmd.Flags()
	exchange, _ := flags.GetString("exchange")
	minYield, _ := flags.GetFloat64("min-div-yield")
	limit, _ := flags.GetInt("limit")

	from := time.Now().AddDate(-1, 0, 0)
	if fromStr, _ := flags.GetString("from"); fromStr != "" {
		parsed, err := util.ParseDate(fromStr)
		if err != nil {
			return fmt.Errorf("invalid --from date: %w", err)
		}
		from = parsed
	}
	to := time.Now()

	client := eodhd.New(apiToken)

	screened, err := client.Screener(exchange, minYield, limit)
	if err != nil {
		return err
	}
	logger.Info("fetch: screener returned %d symbols on %s", len(screened), exchange)

	assets := make([]domain.Asset, 0, len(screened))
	bars := []domain.PriceBar{}
	events := []domain.DividendEvent{}

	for _, result := range screened {
		symbol := fmt.Sprintf("%s.%s", result.Code, result.Exchange)
		assets = append(assets, domain.Asset{
			Ticker:                symbol,
			Name:                  result.Name,
			Region:                domain.RegionDomestic,
			AvgVolume:             int64(result.AvgVolume200d),
			TrailingYieldFraction: result.DividendYield,
		})

		prices, err := client.EodPrices(symbol, from, to)
		if err != nil {
			logger.Warn("fetch: prices for %s failed: %s", symbol, err)
			continue
		}
		for _, bar := range prices {
			date, err := util.ParseDate(bar.Date)
			if err != nil {
				continue
			}
			bars = append(bars, domain.PriceBar{
				Ticker: symbol,
				Date:   date,
				Open:   decimal.NewFromFloat(bar.Open),
				Close:  decimal.NewFromFloat(bar.Close),
			})
		}

		dividends, err := client.Dividends(symbol, from)
		if err != nil {
			logger.Warn("fetch: dividends for %s failed: %s", symbol, err)
			continue
		}
		for _, record := range dividends {
			exDate, err := util.ParseDate(record.Date)
			if err != nil {
				continue
			}
			currency := record.Currency
			if currency == "" {
				currency = "USD"
			}
			events = append(events, domain.DividendEvent{
				Ticker:        symbol,
				ExDate:        exDate,
				AmountPerUnit: decimal.NewFromFloat(record.Value),
				Currency:      currency,
			})
		}
	}

	holidayRecords, err := client.ExchangeHolidays(exchange)
	if err != nil {
		logger.Warn("fetch: exchange holidays failed: %s", err)
	}
	holidays := []time.Time{}
	names := map[string]string{}
	for _, record := range holidayRecords {
		date, err := util.ParseDate(record.Date)
		if err != nil {
			continue
		}
		holidays = append(holidays, date)
		names[record.Date] = record.Holiday
	}

	if err := repository.SaveAssets(filepath.Join(dataDir, "assets.csv"), assets); err != nil {
		return err
	}
	if err := repository.SavePrices(filepath.Join(dataDir, "prices.csv"), bars); err != nil {
		return err
	}
	if err := repository.SaveDividends(filepath.Join(dataDir, "dividends.csv"), events); err != nil {
		return err
	}
	if err := repository.SaveHolidays(filepath.Join(dataDir, "holidays.csv"), holidays, names); err != nil {
		return err
	}

	logger.Info("fetch: wrote %d assets, %d bars, %d dividend events, %d holidays to %s",
		len(assets), len(bars), len(events), len(holidays), dataDir)
	return nil
}
