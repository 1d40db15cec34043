package eodhd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"divrotation/internal/logger"
)

// Client talks to the EODHD REST API. All responses are decoded into typed
// records; a field the API omits stays zero-valued instead of panicking at
// access time.
type Client struct {
	HttpClient *http.Client
	ApiToken   string

	// BaseUrl is overridable for tests; defaults to the public API host.
	BaseUrl string
}

func New(apiToken string) *Client {
	return &Client{
		HttpClient: &http.Client{Timeout: 30 * time.Second},
		ApiToken:   apiToken,
		BaseUrl:    "https://eodhd.com/api",
	}
}

type ScreenerResult struct {
	Code          string  `json:"code"`
	Name          string  `json:"name"`
	Exchange      string  `json:"exchange"`
	DividendYield float64 `json:"dividend_yield"`
	AvgVolume200d float64 `json:"avgvol_200d"`
	MarketCap     float64 `json:"market_capitalization"`
}

type screenerResponse struct {
	Data []ScreenerResult `json:"data"`
}

type EodBar struct {
	Date          string  `json:"date"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Close         float64 `json:"close"`
	AdjustedClose float64 `json:"adjusted_close"`
	Volume        int64   `json:"volume"`
}

type DividendRecord struct {
	Date            string  `json:"date"`
	DeclarationDate string  `json:"declarationDate"`
	RecordDate      string  `json:"recordDate"`
	PaymentDate     string  `json:"paymentDate"`
	Period          string  `json:"period"`
	Value           float64 `json:"value"`
	UnadjustedValue float64 `json:"unadjustedValue"`
	Currency        string  `json:"currency"`
}

type ExchangeHoliday struct {
	Holiday string `json:"Holiday"`
	Date    string `json:"Date"`
	Type    string `json:"Type"`
}

type exchangeDetailsResponse struct {
	Name             string                     `json:"Name"`
	Code             string                     `json:"Code"`
	Country          string                     `json:"Country"`
	Currency         string                     `json:"Currency"`
	ExchangeHolidays map[string]ExchangeHoliday `json:"ExchangeHolidays"`
}

// Screener queries the EODHD screener for dividend payers on an exchange
// above a trailing yield floor. minYield is a fraction; the API filter takes
// the same unit.
func (c *Client) Screener(exchange string, minYieldFraction float64, limit int) ([]ScreenerResult, error) {
	filters := fmt.Sprintf(`[["exchange","=","%s"],["dividend_yield",">",%f]]`, exchange, minYieldFraction)
	endpoint := fmt.Sprintf("%s/screener?api_token=%s&filters=%s&limit=%d&sort=dividend_yield.desc",
		c.BaseUrl, c.ApiToken, url.QueryEscape(filters), limit)

	var response screenerResponse
	if err := c.getJson(endpoint, &response); err != nil {
		return nil, fmt.Errorf("eodhd screener: %w", err)
	}
	return response.Data, nil
}

// EodPrices fetches daily bars for one symbol over [from, to].
func (c *Client) EodPrices(symbol string, from, to time.Time) ([]EodBar, error) {
	endpoint := fmt.Sprintf("%s/eod/%s?api_token=%s&fmt=json&from=%s&to=%s",
		c.BaseUrl, url.PathEscape(symbol), c.ApiToken,
		from.Format(time.DateOnly), to.Format(time.DateOnly))

	bars := []EodBar{}
	if err := c.getJson(endpoint, &bars); err != nil {
		return nil, fmt.Errorf("eodhd eod %s: %w", symbol, err)
	}
	return bars, nil
}

// Dividends fetches the dividend history for one symbol from a start date.
// Future declared ex-dates are included when the API knows them.
func (c *Client) Dividends(symbol string, from time.Time) ([]DividendRecord, error) {
	endpoint := fmt.Sprintf("%s/div/%s?api_token=%s&fmt=json&from=%s",
		c.BaseUrl, url.PathEscape(symbol), c.ApiToken, from.Format(time.DateOnly))

	records := []DividendRecord{}
	if err := c.getJson(endpoint, &records); err != nil {
		return nil, fmt.Errorf("eodhd div %s: %w", symbol, err)
	}
	return records, nil
}

// ExchangeHolidays fetches the holiday calendar from the exchange details
// endpoint. The API keys holidays by arbitrary indices; only the dates
// matter here.
func (c *Client) ExchangeHolidays(exchangeCode string) ([]ExchangeHoliday, error) {
	endpoint := fmt.Sprintf("%s/exchange-details/%s?api_token=%s",
		c.BaseUrl, url.PathEscape(exchangeCode), c.ApiToken)

	var response exchangeDetailsResponse
	if err := c.getJson(endpoint, &response); err != nil {
		return nil, fmt.Errorf("eodhd exchange-details %s: %w", exchangeCode, err)
	}

	holidays := make([]ExchangeHoliday, 0, len(response.ExchangeHolidays))
	for _, holiday := range response.ExchangeHolidays {
		holidays = append(holidays, holiday)
	}
	return holidays, nil
}

func (c *Client) getJson(endpoint string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	response, err := c.HttpClient.Do(req)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	responseBytes, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("received status code %d and failed to read body: %w", response.StatusCode, err)
	}

	if response.StatusCode == 429 {
		logger.Debug("hit rate limit. sleeping...")
		time.Sleep(60 * time.Second)
		return c.getJson(endpoint, out)
	} else if response.StatusCode != 200 {
		type errResponse struct {
			Error string `json:"error"`
		}
		errJson := errResponse{}
		if err := json.Unmarshal(responseBytes, &errJson); err != nil || errJson.Error == "" {
			return fmt.Errorf("failed with status code %d", response.StatusCode)
		}
		return fmt.Errorf("failed with status code %d: %s", response.StatusCode, errJson.Error)
	}

	return json.Unmarshal(responseBytes, out)
}
