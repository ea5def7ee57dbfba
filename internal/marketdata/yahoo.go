// Package marketdata fetches live quotes and exchange rates from the
// Yahoo Finance chart API.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/valueband/vr-service/internal/config"
	"github.com/valueband/vr-service/internal/metrics"
)

// Quote is a fetched market quote for a single ticker.
type Quote struct {
	Name     string
	Price    decimal.Decimal
	Currency string
}

// Client fetches quotes from the Yahoo Finance v8 chart endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a market-data client
func NewClient(cfg config.MarketConfig, log zerolog.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		log: log.With().Str("component", "marketdata").Logger(),
	}
}

// chartResponse mirrors the subset of the chart payload we read.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				ShortName          string  `json:"shortName"`
				LongName           string  `json:"longName"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

var numericTicker = regexp.MustCompile(`^\d{6}$`)

// NormalizeTicker maps bare 6-digit Korean tickers onto their Yahoo
// symbol. Everything else passes through unchanged.
func NormalizeTicker(ticker string) string {
	if numericTicker.MatchString(ticker) {
		return ticker + ".KS"
	}
	return ticker
}

// FetchQuote fetches the current quote for a ticker.
func (c *Client) FetchQuote(ctx context.Context, ticker string) (*Quote, error) {
	symbol := NormalizeTicker(ticker)
	start := time.Now()

	quote, err := c.fetchChart(ctx, symbol)
	outcome := "success"
	if err != nil {
		outcome = "failure"
		metrics.PriceFetchFailures.Inc()
	}
	metrics.PriceFetchDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, err
	}
	return quote, nil
}

// FetchPrice fetches only the current price for a ticker.
func (c *Client) FetchPrice(ctx context.Context, ticker string) (decimal.Decimal, error) {
	quote, err := c.FetchQuote(ctx, ticker)
	if err != nil {
		return decimal.Zero, err
	}
	return quote.Price, nil
}

func (c *Client) fetchChart(ctx context.Context, symbol string) (*Quote, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s", c.baseURL, url.PathEscape(symbol))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build quote request: %w", err)
	}
	req.Header.Set("User-Agent", "vr-service/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quote for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quote request for %s returned status %d", symbol, resp.StatusCode)
	}

	var payload chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode quote for %s: %w", symbol, err)
	}

	if payload.Chart.Error != nil {
		return nil, fmt.Errorf("quote request for %s failed: %s", symbol, payload.Chart.Error.Description)
	}
	if len(payload.Chart.Result) == 0 {
		return nil, fmt.Errorf("no chart result for %s", symbol)
	}

	meta := payload.Chart.Result[0].Meta
	name := meta.LongName
	if name == "" {
		name = meta.ShortName
	}
	if name == "" {
		name = symbol
	}

	c.log.Debug().
		Str("symbol", symbol).
		Float64("price", meta.RegularMarketPrice).
		Str("currency", meta.Currency).
		Msg("fetched quote")

	return &Quote{
		Name:     name,
		Price:    decimal.NewFromFloat(meta.RegularMarketPrice),
		Currency: meta.Currency,
	}, nil
}
