package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"SalaryHedge/internal/model"
)

// HTTPFeed implements Feed against an oracle gateway REST API.
type HTTPFeed struct {
	BaseURL  string
	Identity string
	APIKey   string
	Client   *http.Client
	limiter  *rate.Limiter
}

// NewHTTPFeed creates a feed with optional proxy support. requestsPerSecond
// paces outgoing calls; zero disables pacing.
func NewHTTPFeed(baseURL, identity, apiKey, proxyURL string, requestsPerSecond float64) *HTTPFeed {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	return &HTTPFeed{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Identity: identity,
		APIKey:   apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(transport),
		},
		limiter: limiter,
	}
}

func (f *HTTPFeed) Name() string { return "http" }

// httpPrice is the JSON shape returned by the price endpoints.
type httpPrice struct {
	Price     *model.Amount `json:"price"`
	Timestamp uint64        `json:"timestamp"`
}

func (f *HTTPFeed) oraclePath(parts ...string) string {
	escaped := make([]string, 0, len(parts)+2)
	escaped = append(escaped, "v1", "oracles", url.PathEscape(f.Identity))
	for _, p := range parts {
		escaped = append(escaped, url.PathEscape(p))
	}
	return f.BaseURL + "/" + strings.Join(escaped, "/")
}

func (f *HTTPFeed) LatestPrice(ctx context.Context, asset Asset) (model.PriceData, bool, error) {
	return f.fetchPrice(ctx, f.oraclePath("assets", string(asset), "lastprice"))
}

func (f *HTTPFeed) PriceAt(ctx context.Context, asset Asset, timestamp uint64) (model.PriceData, bool, error) {
	endpoint := f.oraclePath("assets", string(asset), "price") + "?timestamp=" + strconv.FormatUint(timestamp, 10)
	return f.fetchPrice(ctx, endpoint)
}

func (f *HTTPFeed) Decimals(ctx context.Context) (uint32, error) {
	resp, err := f.get(ctx, f.oraclePath("decimals"))
	if err != nil {
		return 0, fmt.Errorf("fetch decimals: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return 0, ErrDecimalsUnavailable
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("fetch decimals: status %d, body: %s", resp.StatusCode, string(body))
	}
	var result struct {
		Decimals *uint32 `json:"decimals"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("decode decimals: %w", err)
	}
	if result.Decimals == nil {
		return 0, ErrDecimalsUnavailable
	}
	return *result.Decimals, nil
}

func (f *HTTPFeed) fetchPrice(ctx context.Context, endpoint string) (model.PriceData, bool, error) {
	resp, err := f.get(ctx, endpoint)
	if err != nil {
		return model.PriceData{}, false, fmt.Errorf("fetch price: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return model.PriceData{}, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return model.PriceData{}, false, fmt.Errorf("fetch price: status %d, body: %s", resp.StatusCode, string(body))
	}
	var hp httpPrice
	if err := json.NewDecoder(resp.Body).Decode(&hp); err != nil {
		return model.PriceData{}, false, fmt.Errorf("decode price: %w", err)
	}
	if hp.Price == nil {
		return model.PriceData{}, false, nil
	}
	return model.PriceData{Price: *hp.Price, Timestamp: hp.Timestamp}, true, nil
}

func (f *HTTPFeed) get(ctx context.Context, endpoint string) (*http.Response, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	req.Header.Set("Accept", "application/json")
	return f.Client.Do(req)
}
