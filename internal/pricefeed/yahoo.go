package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"SalaryHedge/internal/model"
)

// YahooFeed implements Feed using the Yahoo Finance public chart API. Asset
// ids are Yahoo FX tickers (see YahooTicker); daily closes are converted to
// the configured fixed-point scale.
type YahooFeed struct {
	Client   *http.Client
	BaseURL  string
	decimals uint32
}

// NewYahooFeed creates a new Yahoo Finance feed.
func NewYahooFeed(proxyURL string, decimals uint32) *YahooFeed {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &YahooFeed{
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		BaseURL:  "https://query1.finance.yahoo.com",
		decimals: decimals,
	}
}

func (f *YahooFeed) Name() string { return "yahoo" }

// YahooTicker returns the ticker quoting one unit of code in USD, so that a
// falling price means a weakening currency.
func YahooTicker(code string) Asset {
	return Asset(strings.ToUpper(strings.TrimSpace(code)) + "USD=X")
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type yahooClose struct {
	ts    uint64
	close float64
}

func (f *YahooFeed) fetchCloses(ctx context.Context, asset Asset, query url.Values) ([]yahooClose, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", f.BaseURL, url.PathEscape(string(asset)), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	closes := make([]yahooClose, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil || ts < 0 {
			continue // null bars (holidays etc.)
		}
		closes = append(closes, yahooClose{ts: uint64(ts), close: *quote.Close[i]})
	}
	sort.Slice(closes, func(i, j int) bool { return closes[i].ts < closes[j].ts })
	return closes, nil
}

func (f *YahooFeed) toPriceData(c yahooClose) (model.PriceData, error) {
	scaled := decimal.NewFromFloat(c.close).Shift(int32(f.decimals)).Truncate(0)
	price, err := model.AmountFromBig(scaled.BigInt())
	if err != nil {
		return model.PriceData{}, err
	}
	return model.PriceData{Price: price, Timestamp: c.ts}, nil
}

func (f *YahooFeed) LatestPrice(ctx context.Context, asset Asset) (model.PriceData, bool, error) {
	closes, err := f.fetchCloses(ctx, asset, url.Values{"interval": {"1d"}, "range": {"5d"}})
	if err != nil || len(closes) == 0 {
		return model.PriceData{}, false, err
	}
	pd, err := f.toPriceData(closes[len(closes)-1])
	return pd, err == nil, err
}

// PriceAt returns the last daily close at or before timestamp.
func (f *YahooFeed) PriceAt(ctx context.Context, asset Asset, timestamp uint64) (model.PriceData, bool, error) {
	from := uint64(0)
	if timestamp > model.SecondsPerWeek {
		from = timestamp - model.SecondsPerWeek
	}
	closes, err := f.fetchCloses(ctx, asset, url.Values{
		"interval": {"1d"},
		"period1":  {fmt.Sprint(from)},
		"period2":  {fmt.Sprint(timestamp + model.SecondsPerDay)},
	})
	if err != nil {
		return model.PriceData{}, false, err
	}
	for i := len(closes) - 1; i >= 0; i-- {
		if closes[i].ts <= timestamp {
			pd, err := f.toPriceData(closes[i])
			return pd, err == nil, err
		}
	}
	return model.PriceData{}, false, nil
}

func (f *YahooFeed) Decimals(_ context.Context) (uint32, error) {
	return f.decimals, nil
}
