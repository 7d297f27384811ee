// Package marketdata contains the HTTP clients for the external market
// data providers. Each client wraps its calls in retry with backoff and a
// per-provider circuit breaker; callers treat any returned error as "field
// absent" and keep going.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/wang2-lat/my-personal-bloomberg/internal/domain/entity"
	"github.com/wang2-lat/my-personal-bloomberg/internal/resilience/circuitbreaker"
	"github.com/wang2-lat/my-personal-bloomberg/internal/resilience/retry"
)

const (
	defaultFinnhubBaseURL = "https://finnhub.io/api/v1"
	finnhubTimeout        = 10 * time.Second
)

// FinnhubClient fetches real-time quotes and analyst recommendation trends.
type FinnhubClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
	retryCfg   retry.Config
}

// FinnhubOption customizes a FinnhubClient.
type FinnhubOption func(*FinnhubClient)

// WithFinnhubBaseURL overrides the API base URL (used in tests).
func WithFinnhubBaseURL(baseURL string) FinnhubOption {
	return func(c *FinnhubClient) {
		c.baseURL = baseURL
	}
}

// WithFinnhubHTTPClient overrides the HTTP client.
func WithFinnhubHTTPClient(client *http.Client) FinnhubOption {
	return func(c *FinnhubClient) {
		c.httpClient = client
	}
}

// NewFinnhubClient creates a Finnhub API client.
func NewFinnhubClient(apiKey string, opts ...FinnhubOption) *FinnhubClient {
	c := &FinnhubClient{
		apiKey:     apiKey,
		baseURL:    defaultFinnhubBaseURL,
		httpClient: &http.Client{Timeout: finnhubTimeout},
		breaker:    circuitbreaker.New(circuitbreaker.MarketDataConfig("finnhub")),
		retryCfg:   retry.MarketDataConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// finnhubQuote is the /quote response shape.
type finnhubQuote struct {
	Current   float64 `json:"c"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	PrevClose float64 `json:"pc"`
}

// finnhubRecommendation is one period of the /stock/recommendation response.
type finnhubRecommendation struct {
	Period     string `json:"period"`
	StrongBuy  int    `json:"strongBuy"`
	Buy        int    `json:"buy"`
	Hold       int    `json:"hold"`
	Sell       int    `json:"sell"`
	StrongSell int    `json:"strongSell"`
}

// Quote fetches the current quote for a symbol.
//
// Returns:
//   - *entity.Quote: price, previous close, day high/low and the derived
//     change percentage
//   - error: the provider returned an error, or the payload carried no
//     usable price (current price or previous close of zero)
func (c *FinnhubClient) Quote(ctx context.Context, symbol string) (*entity.Quote, error) {
	endpoint := fmt.Sprintf("%s/quote?symbol=%s&token=%s",
		c.baseURL, url.QueryEscape(symbol), url.QueryEscape(c.apiKey))

	var q finnhubQuote
	if err := c.getJSON(ctx, endpoint, &q); err != nil {
		return nil, fmt.Errorf("finnhub quote %s: %w", symbol, err)
	}

	if q.Current == 0 || q.PrevClose == 0 {
		return nil, fmt.Errorf("finnhub quote %s: %w", symbol, entity.ErrNotFound)
	}

	var high, low *float64
	if q.High > 0 {
		high = &q.High
	}
	if q.Low > 0 {
		low = &q.Low
	}
	return entity.NewQuote(symbol, q.Current, q.PrevClose, high, low), nil
}

// RecommendationTrends fetches the most recent analyst recommendation
// period for a symbol. Strong ratings fold into their plain counterparts:
// strongBuy counts as buy, strongSell counts as sell.
func (c *FinnhubClient) RecommendationTrends(ctx context.Context, symbol string) (*entity.AnalystConsensus, error) {
	endpoint := fmt.Sprintf("%s/stock/recommendation?symbol=%s&token=%s",
		c.baseURL, url.QueryEscape(symbol), url.QueryEscape(c.apiKey))

	var periods []finnhubRecommendation
	if err := c.getJSON(ctx, endpoint, &periods); err != nil {
		return nil, fmt.Errorf("finnhub recommendation %s: %w", symbol, err)
	}

	if len(periods) == 0 {
		return nil, fmt.Errorf("finnhub recommendation %s: %w", symbol, entity.ErrNotFound)
	}

	// The API returns periods newest first.
	latest := periods[0]
	consensus := entity.NewAnalystConsensus(
		latest.Buy+latest.StrongBuy,
		latest.Hold,
		latest.Sell+latest.StrongSell,
	)
	return &consensus, nil
}

// getJSON performs a GET request through the circuit breaker and retry
// policy, decoding a 2xx JSON body into out.
func (c *FinnhubClient) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	return retry.WithBackoff(ctx, c.retryCfg, func() error {
		_, err := c.breaker.Execute(func() (interface{}, error) {
			return nil, c.doGet(ctx, endpoint, out)
		})
		return err
	})
}

func (c *FinnhubClient) doGet(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
