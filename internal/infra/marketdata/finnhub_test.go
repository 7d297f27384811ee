package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wang2-lat/my-personal-bloomberg/internal/domain/entity"
)

func TestFinnhubQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote", r.URL.Path)
		assert.Equal(t, "NVDA", r.URL.Query().Get("symbol"))
		assert.Equal(t, "test-key", r.URL.Query().Get("token"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"c": 104.5, "h": 106.0, "l": 103.2, "pc": 100.0}`))
	}))
	defer server.Close()

	client := NewFinnhubClient("test-key", WithFinnhubBaseURL(server.URL))
	quote, err := client.Quote(context.Background(), "NVDA")

	require.NoError(t, err)
	assert.Equal(t, "NVDA", quote.Symbol)
	assert.InDelta(t, 104.5, quote.Price, 0.001)
	assert.InDelta(t, 100.0, quote.PrevClose, 0.001)
	assert.InDelta(t, 4.5, quote.ChangePct, 0.001)
	require.NotNil(t, quote.High)
	assert.InDelta(t, 106.0, *quote.High, 0.001)
	require.NotNil(t, quote.Low)
	assert.InDelta(t, 103.2, *quote.Low, 0.001)
}

func TestFinnhubQuoteMissingPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Finnhub returns zeros for unknown symbols instead of an error.
		_, _ = w.Write([]byte(`{"c": 0, "h": 0, "l": 0, "pc": 0}`))
	}))
	defer server.Close()

	client := NewFinnhubClient("test-key", WithFinnhubBaseURL(server.URL))
	quote, err := client.Quote(context.Background(), "ZZZZ")

	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrNotFound)
	assert.Nil(t, quote)
}

func TestFinnhubQuoteClientError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": "Invalid API key"}`))
	}))
	defer server.Close()

	client := NewFinnhubClient("bad-key", WithFinnhubBaseURL(server.URL))
	_, err := client.Quote(context.Background(), "NVDA")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestFinnhubRecommendationTrends(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stock/recommendation", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"period": "2026-08-01", "strongBuy": 12, "buy": 20, "hold": 8, "sell": 2, "strongSell": 1},
			{"period": "2026-07-01", "strongBuy": 10, "buy": 18, "hold": 9, "sell": 3, "strongSell": 1}
		]`))
	}))
	defer server.Close()

	client := NewFinnhubClient("test-key", WithFinnhubBaseURL(server.URL))
	consensus, err := client.RecommendationTrends(context.Background(), "NVDA")

	require.NoError(t, err)
	// Strong ratings fold into plain buy/sell; only the latest period counts.
	assert.Equal(t, 32, consensus.Buy)
	assert.Equal(t, 8, consensus.Hold)
	assert.Equal(t, 3, consensus.Sell)
	assert.Equal(t, entity.ConsensusBuy, consensus.Label)
}

func TestFinnhubRecommendationTrendsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewFinnhubClient("test-key", WithFinnhubBaseURL(server.URL))
	_, err := client.RecommendationTrends(context.Background(), "ZZZZ")

	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestFinnhubRetriesServerError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"c": 50.0, "pc": 49.0}`))
	}))
	defer server.Close()

	client := NewFinnhubClient("test-key", WithFinnhubBaseURL(server.URL))
	quote, err := client.Quote(context.Background(), "AAPL")

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.InDelta(t, 50.0, quote.Price, 0.001)
}
