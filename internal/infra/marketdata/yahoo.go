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
	defaultYahooBaseURL = "https://query1.finance.yahoo.com"
	yahooTimeout        = 15 * time.Second

	// Yahoo rejects requests without a browser-ish user agent.
	yahooUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"
)

// YahooClient fetches fundamentals and daily price history from the Yahoo
// Finance JSON API. No API key is required.
type YahooClient struct {
	baseURL    string
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
	retryCfg   retry.Config
}

// YahooOption customizes a YahooClient.
type YahooOption func(*YahooClient)

// WithYahooBaseURL overrides the API base URL (used in tests).
func WithYahooBaseURL(baseURL string) YahooOption {
	return func(c *YahooClient) {
		c.baseURL = baseURL
	}
}

// WithYahooHTTPClient overrides the HTTP client.
func WithYahooHTTPClient(client *http.Client) YahooOption {
	return func(c *YahooClient) {
		c.httpClient = client
	}
}

// NewYahooClient creates a Yahoo Finance client.
func NewYahooClient(opts ...YahooOption) *YahooClient {
	c := &YahooClient{
		baseURL:    defaultYahooBaseURL,
		httpClient: &http.Client{Timeout: yahooTimeout},
		breaker:    circuitbreaker.New(circuitbreaker.MarketDataConfig("yahoo")),
		retryCfg:   retry.MarketDataConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// rawValue is Yahoo's {"raw": n, "fmt": "..."} number wrapper.
type rawValue struct {
	Raw *float64 `json:"raw"`
}

type yahooQuoteSummary struct {
	QuoteSummary struct {
		Result []struct {
			SummaryDetail *struct {
				TrailingPE       rawValue `json:"trailingPE"`
				ForwardPE        rawValue `json:"forwardPE"`
				MarketCap        rawValue `json:"marketCap"`
				FiftyTwoWeekHigh rawValue `json:"fiftyTwoWeekHigh"`
				FiftyTwoWeekLow  rawValue `json:"fiftyTwoWeekLow"`
				Beta             rawValue `json:"beta"`
			} `json:"summaryDetail"`
			FinancialData *struct {
				TargetMeanPrice rawValue `json:"targetMeanPrice"`
				TargetHighPrice rawValue `json:"targetHighPrice"`
				TargetLowPrice  rawValue `json:"targetLowPrice"`
			} `json:"financialData"`
			AssetProfile *struct {
				Sector string `json:"sector"`
			} `json:"assetProfile"`
			Price *struct {
				ShortName string `json:"shortName"`
			} `json:"price"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

type yahooChartQuote struct {
	Close []*float64 `json:"close"`
}

type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				PreviousClose      float64 `json:"chartPreviousClose"`
			} `json:"meta"`
			Indicators struct {
				Quote []yahooChartQuote `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Fundamentals fetches company attributes for a symbol. Missing fields in
// the response stay nil; an unknown sector comes back as "Unknown" so the
// sector P/E lookup lands in the default bucket.
func (c *YahooClient) Fundamentals(ctx context.Context, symbol string) (*entity.Fundamentals, error) {
	endpoint := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=summaryDetail,financialData,assetProfile,price",
		c.baseURL, url.PathEscape(symbol))

	var payload yahooQuoteSummary
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("yahoo fundamentals %s: %w", symbol, err)
	}

	if payload.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("yahoo fundamentals %s: %s", symbol, payload.QuoteSummary.Error.Description)
	}
	if len(payload.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("yahoo fundamentals %s: %w", symbol, entity.ErrNotFound)
	}

	result := payload.QuoteSummary.Result[0]
	f := &entity.Fundamentals{
		Symbol: symbol,
		Sector: "Unknown",
	}
	if result.Price != nil {
		f.ShortName = result.Price.ShortName
	}
	if result.AssetProfile != nil && result.AssetProfile.Sector != "" {
		f.Sector = result.AssetProfile.Sector
	}
	if sd := result.SummaryDetail; sd != nil {
		f.TrailingPE = sd.TrailingPE.Raw
		f.ForwardPE = sd.ForwardPE.Raw
		f.MarketCap = sd.MarketCap.Raw
		f.High52 = sd.FiftyTwoWeekHigh.Raw
		f.Low52 = sd.FiftyTwoWeekLow.Raw
		f.Beta = sd.Beta.Raw
	}
	if fd := result.FinancialData; fd != nil {
		f.TargetMean = fd.TargetMeanPrice.Raw
		f.TargetHigh = fd.TargetHighPrice.Raw
		f.TargetLow = fd.TargetLowPrice.Raw
	}
	return f, nil
}

// DailyCloses fetches up to a year of daily closing prices in
// chronological order. Null entries (holidays, halts) are dropped.
func (c *YahooClient) DailyCloses(ctx context.Context, symbol string) ([]float64, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=1y&interval=1d",
		c.baseURL, url.PathEscape(symbol))

	var payload yahooChart
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("yahoo history %s: %w", symbol, err)
	}

	if payload.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo history %s: %s", symbol, payload.Chart.Error.Description)
	}
	if len(payload.Chart.Result) == 0 || len(payload.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo history %s: %w", symbol, entity.ErrNotFound)
	}

	closes := collectCloses(payload.Chart.Result[0].Indicators.Quote)
	if len(closes) == 0 {
		return nil, fmt.Errorf("yahoo history %s: %w", symbol, entity.ErrNotFound)
	}
	return closes, nil
}

// Quote fetches the latest price via the chart API. It is the fallback
// when the primary quote provider fails; only price, previous close and
// the change percentage are populated.
func (c *YahooClient) Quote(ctx context.Context, symbol string) (*entity.Quote, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=5d&interval=1d",
		c.baseURL, url.PathEscape(symbol))

	var payload yahooChart
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("yahoo quote %s: %w", symbol, err)
	}

	if payload.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo quote %s: %s", symbol, payload.Chart.Error.Description)
	}
	if len(payload.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo quote %s: %w", symbol, entity.ErrNotFound)
	}

	meta := payload.Chart.Result[0].Meta
	price := meta.RegularMarketPrice
	prev := meta.PreviousClose

	// Prefer the close series when the meta lacks a previous close.
	if prev == 0 {
		if closes := collectCloses(payload.Chart.Result[0].Indicators.Quote); len(closes) >= 2 {
			if price == 0 {
				price = closes[len(closes)-1]
			}
			prev = closes[len(closes)-2]
		}
	}

	if price == 0 || prev == 0 {
		return nil, fmt.Errorf("yahoo quote %s: %w", symbol, entity.ErrNotFound)
	}
	return entity.NewQuote(symbol, price, prev, nil, nil), nil
}

func collectCloses(quotes []yahooChartQuote) []float64 {
	if len(quotes) == 0 {
		return nil
	}
	closes := make([]float64, 0, len(quotes[0].Close))
	for _, v := range quotes[0].Close {
		if v != nil && *v > 0 {
			closes = append(closes, *v)
		}
	}
	return closes
}

func (c *YahooClient) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	return retry.WithBackoff(ctx, c.retryCfg, func() error {
		_, err := c.breaker.Execute(func() (interface{}, error) {
			return nil, c.doGet(ctx, endpoint, out)
		})
		return err
	})
}

func (c *YahooClient) doGet(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("User-Agent", yahooUserAgent)

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
