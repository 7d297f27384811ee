// Package marketdata aggregates the per-symbol provider calls into one
// market snapshot. The four sub-fetches are isolated from each other: a
// failed call logs a warning, bumps the provider error metric, and leaves
// its field nil while the rest of the snapshot fills in normally.
package marketdata

import (
	"context"
	"log/slog"
	"time"

	"github.com/wang2-lat/my-personal-bloomberg/internal/domain/entity"
	"github.com/wang2-lat/my-personal-bloomberg/internal/observability/logging"
	"github.com/wang2-lat/my-personal-bloomberg/internal/observability/metrics"
	"github.com/wang2-lat/my-personal-bloomberg/internal/usecase/derive"
)

const (
	// rangeWindow is the trading-day window for the high/low range position.
	rangeWindow = 252
)

// QuoteProvider fetches real-time quotes.
type QuoteProvider interface {
	Quote(ctx context.Context, symbol string) (*entity.Quote, error)
}

// FundamentalsProvider fetches company attributes.
type FundamentalsProvider interface {
	Fundamentals(ctx context.Context, symbol string) (*entity.Fundamentals, error)
}

// ConsensusProvider fetches analyst recommendation trends.
type ConsensusProvider interface {
	RecommendationTrends(ctx context.Context, symbol string) (*entity.AnalystConsensus, error)
}

// HistoryProvider fetches daily closing prices and serves as the quote
// fallback when the primary quote provider fails.
type HistoryProvider interface {
	DailyCloses(ctx context.Context, symbol string) ([]float64, error)
	Quote(ctx context.Context, symbol string) (*entity.Quote, error)
}

// Aggregator assembles market snapshots from the individual providers.
type Aggregator struct {
	quotes       QuoteProvider
	fundamentals FundamentalsProvider
	consensus    ConsensusProvider
	history      HistoryProvider
	maWindow     int
}

// NewAggregator creates an Aggregator.
//
// Parameters:
//   - quotes: primary real-time quote source
//   - fundamentals: company attribute source
//   - consensus: analyst recommendation source
//   - history: daily close source, also the quote fallback
//   - maWindow: moving-average window in trading days (50 or 200)
func NewAggregator(
	quotes QuoteProvider,
	fundamentals FundamentalsProvider,
	consensus ConsensusProvider,
	history HistoryProvider,
	maWindow int,
) *Aggregator {
	return &Aggregator{
		quotes:       quotes,
		fundamentals: fundamentals,
		consensus:    consensus,
		history:      history,
		maWindow:     maWindow,
	}
}

// Fetch assembles the market snapshot for a symbol. It never returns an
// error: each sub-fetch degrades independently to a nil field, and a fully
// nil snapshot is a valid (if unhelpful) result.
func (a *Aggregator) Fetch(ctx context.Context, symbol string) entity.MarketSnapshot {
	logger := logging.FromContext(ctx)

	var snap entity.MarketSnapshot
	snap.Quote = a.fetchQuote(ctx, logger, symbol)
	snap.Fundamentals = a.fetchFundamentals(ctx, logger, symbol)
	snap.Consensus = a.fetchConsensus(ctx, logger, symbol)
	snap.Technical = a.fetchTechnical(ctx, logger, symbol, snap.Quote)
	return snap
}

// QuoteWithFallback fetches a quote from the primary provider, falling
// back to the history provider's chart-derived quote. The fallback quote
// carries only price, previous close, and change.
func (a *Aggregator) QuoteWithFallback(ctx context.Context, symbol string) (*entity.Quote, error) {
	logger := logging.FromContext(ctx)

	start := time.Now()
	quote, err := a.quotes.Quote(ctx, symbol)
	metrics.RecordProviderFetch("primary", "quote", time.Since(start))
	if err == nil {
		return quote, nil
	}

	metrics.RecordProviderError("primary", "quote")
	logger.Warn("primary quote failed, trying history fallback",
		slog.String("symbol", symbol),
		slog.Any("error", err))

	start = time.Now()
	quote, fbErr := a.history.Quote(ctx, symbol)
	metrics.RecordProviderFetch("fallback", "quote", time.Since(start))
	if fbErr != nil {
		metrics.RecordProviderError("fallback", "quote")
		return nil, fbErr
	}
	return quote, nil
}

func (a *Aggregator) fetchQuote(ctx context.Context, logger *slog.Logger, symbol string) *entity.Quote {
	quote, err := a.QuoteWithFallback(ctx, symbol)
	if err != nil {
		logger.Warn("quote unavailable",
			slog.String("symbol", symbol),
			slog.Any("error", err))
		return nil
	}
	return quote
}

func (a *Aggregator) fetchFundamentals(ctx context.Context, logger *slog.Logger, symbol string) *entity.Fundamentals {
	start := time.Now()
	f, err := a.fundamentals.Fundamentals(ctx, symbol)
	metrics.RecordProviderFetch("fundamentals", "fundamentals", time.Since(start))
	if err != nil {
		metrics.RecordProviderError("fundamentals", "fundamentals")
		logger.Warn("fundamentals unavailable",
			slog.String("symbol", symbol),
			slog.Any("error", err))
		return nil
	}
	return f
}

func (a *Aggregator) fetchConsensus(ctx context.Context, logger *slog.Logger, symbol string) *entity.AnalystConsensus {
	start := time.Now()
	c, err := a.consensus.RecommendationTrends(ctx, symbol)
	metrics.RecordProviderFetch("consensus", "consensus", time.Since(start))
	if err != nil {
		metrics.RecordProviderError("consensus", "consensus")
		logger.Warn("analyst consensus unavailable",
			slog.String("symbol", symbol),
			slog.Any("error", err))
		return nil
	}
	return c
}

// fetchTechnical computes the moving-average deviation and range position
// from daily close history. Each figure needs its full window of closes;
// neither is ever estimated from a shorter one.
func (a *Aggregator) fetchTechnical(ctx context.Context, logger *slog.Logger, symbol string, quote *entity.Quote) *entity.TechnicalPosition {
	start := time.Now()
	closes, err := a.history.DailyCloses(ctx, symbol)
	metrics.RecordProviderFetch("history", "technical", time.Since(start))
	if err != nil {
		metrics.RecordProviderError("history", "technical")
		logger.Warn("price history unavailable",
			slog.String("symbol", symbol),
			slog.Any("error", err))
		return nil
	}

	price := 0.0
	if quote != nil {
		price = quote.Price
	} else if len(closes) > 0 {
		price = closes[len(closes)-1]
	}
	if price <= 0 {
		return nil
	}

	tech := &entity.TechnicalPosition{MAWindow: a.maWindow}

	if len(closes) >= a.maWindow && a.maWindow > 0 {
		sma := mean(closes[len(closes)-a.maWindow:])
		tech.MADeviationPct = derive.MovingAverageDeviation(price, sma)
	} else {
		logger.Debug("insufficient history for moving average",
			slog.String("symbol", symbol),
			slog.Int("closes", len(closes)),
			slog.Int("window", a.maWindow))
	}

	// The range position represents a full trading year; a shorter span
	// would pass off a partial range as the 52-week figure.
	if len(closes) >= rangeWindow {
		low, high := minMax(closes[len(closes)-rangeWindow:])
		tech.RangePositionPct = derive.RangePosition(price, low, high)
	} else {
		logger.Debug("insufficient history for range position",
			slog.String("symbol", symbol),
			slog.Int("closes", len(closes)),
			slog.Int("window", rangeWindow))
	}

	if tech.MADeviationPct == nil && tech.RangePositionPct == nil {
		return nil
	}
	return tech
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func minMax(values []float64) (low, high float64) {
	low, high = values[0], values[0]
	for _, v := range values[1:] {
		if v < low {
			low = v
		}
		if v > high {
			high = v
		}
	}
	return low, high
}
