package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Position is an open lot in the backtest portfolio.
type Position struct {
	Ticker     string
	Units      int64
	EntryPrice decimal.Decimal
	EntryDate  time.Time
}

func (p Position) DeepCopy() *Position {
	return &Position{
		Ticker:     p.Ticker,
		Units:      p.Units,
		EntryPrice: p.EntryPrice,
		EntryDate:  p.EntryDate,
	}
}

// PortfolioState is mutated only by the backtest simulator, replaying events
// chronologically. It is scoped to a single run and discarded afterward.
type PortfolioState struct {
	Cash      decimal.Decimal
	Positions map[string]*Position
}

func NewPortfolioState(initialCash decimal.Decimal) *PortfolioState {
	return &PortfolioState{
		Cash:      initialCash,
		Positions: map[string]*Position{},
	}
}

func (p *PortfolioState) Open(ticker string, units int64, price decimal.Decimal, date time.Time) error {
	cost := price.Mul(decimal.NewFromInt(units))
	if cost.GreaterThan(p.Cash) {
		return fmt.Errorf("cannot open %s: cost %s exceeds cash %s", ticker, cost, p.Cash)
	}
	p.Cash = p.Cash.Sub(cost)
	p.Positions[ticker] = &Position{
		Ticker:     ticker,
		Units:      units,
		EntryPrice: price,
		EntryDate:  date,
	}
	return nil
}

// Close sells the full position at price and credits proceeds plus any
// dividend cash back to the cash balance.
func (p *PortfolioState) Close(ticker string, price, dividendCash decimal.Decimal) (proceeds decimal.Decimal, err error) {
	position, ok := p.Positions[ticker]
	if !ok {
		return decimal.Zero, fmt.Errorf("cannot close %s: no open position", ticker)
	}
	proceeds = price.Mul(decimal.NewFromInt(position.Units))
	p.Cash = p.Cash.Add(proceeds).Add(dividendCash)
	delete(p.Positions, ticker)
	return proceeds, nil
}

func (p PortfolioState) HeldTickers() []string {
	tickers := []string{}
	for ticker := range p.Positions {
		tickers = append(tickers, ticker)
	}
	return tickers
}

// TotalEquity is cash plus mark-to-market value of open positions. With no
// open positions it equals the cash balance, which is what the equity curve
// samples at each trade close.
func (p PortfolioState) TotalEquity(priceBy map[string]decimal.Decimal) (decimal.Decimal, error) {
	total := p.Cash
	for ticker, position := range p.Positions {
		price, ok := priceBy[ticker]
		if !ok {
			return decimal.Zero, fmt.Errorf("cannot compute total equity: price map missing %s", ticker)
		}
		total = total.Add(price.Mul(decimal.NewFromInt(position.Units)))
	}
	return total, nil
}

func (p PortfolioState) DeepCopy() *PortfolioState {
	copied := &PortfolioState{
		Cash:      p.Cash,
		Positions: map[string]*Position{},
	}
	for ticker, position := range p.Positions {
		copied.Positions[ticker] = position.DeepCopy()
	}
	return copied
}
