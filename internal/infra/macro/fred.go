// Package macro fetches macroeconomic indicators from the FRED API.
// The indicator is strictly optional: a missing key or a failed fetch
// drops the macro line from the market overview and nothing else.
package macro

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/wang2-lat/my-personal-bloomberg/internal/domain/entity"
	"github.com/wang2-lat/my-personal-bloomberg/internal/resilience/circuitbreaker"
	"github.com/wang2-lat/my-personal-bloomberg/internal/resilience/retry"
)

const (
	defaultFREDBaseURL = "https://api.stlouisfed.org"
	fredTimeout        = 5 * time.Second

	// Philadelphia Fed manufacturing general activity index.
	PhillyFedSeriesID = "GACDFSA066MSFRBPHI"
)

// FREDClient fetches series observations from the St. Louis Fed API.
type FREDClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
	retryCfg   retry.Config
}

// FREDOption customizes a FREDClient.
type FREDOption func(*FREDClient)

// WithFREDBaseURL overrides the API base URL (used in tests).
func WithFREDBaseURL(baseURL string) FREDOption {
	return func(c *FREDClient) {
		c.baseURL = baseURL
	}
}

// NewFREDClient creates a FRED API client.
func NewFREDClient(apiKey string, opts ...FREDOption) *FREDClient {
	c := &FREDClient{
		apiKey:     apiKey,
		baseURL:    defaultFREDBaseURL,
		httpClient: &http.Client{Timeout: fredTimeout},
		breaker:    circuitbreaker.New(circuitbreaker.MarketDataConfig("fred")),
		retryCfg:   retry.MarketDataConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type fredObservations struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// LatestObservation fetches the most recent value of a series.
// FRED encodes missing data points as ".", which maps to ErrNotFound.
func (c *FREDClient) LatestObservation(ctx context.Context, seriesID string) (float64, error) {
	params := url.Values{}
	params.Set("series_id", seriesID)
	params.Set("api_key", c.apiKey)
	params.Set("file_type", "json")
	params.Set("limit", "1")
	params.Set("sort_order", "desc")
	endpoint := fmt.Sprintf("%s/fred/series/observations?%s", c.baseURL, params.Encode())

	var payload fredObservations
	err := retry.WithBackoff(ctx, c.retryCfg, func() error {
		_, execErr := c.breaker.Execute(func() (interface{}, error) {
			return nil, c.doGet(ctx, endpoint, &payload)
		})
		return execErr
	})
	if err != nil {
		return 0, fmt.Errorf("fred series %s: %w", seriesID, err)
	}

	if len(payload.Observations) == 0 {
		return 0, fmt.Errorf("fred series %s: %w", seriesID, entity.ErrNotFound)
	}

	value, err := strconv.ParseFloat(payload.Observations[0].Value, 64)
	if err != nil {
		return 0, fmt.Errorf("fred series %s: %w", seriesID, entity.ErrNotFound)
	}
	return value, nil
}

func (c *FREDClient) doGet(ctx context.Context, endpoint string, out interface{}) error {
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
