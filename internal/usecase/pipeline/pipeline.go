// Package pipeline orchestrates one enrichment run: the market overview
// branch first, then the per-item news branch. Items are processed
// strictly one at a time; a failure anywhere degrades that item, never
// the run.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wang2-lat/my-personal-bloomberg/internal/domain/entity"
	"github.com/wang2-lat/my-personal-bloomberg/internal/infra/macro"
	"github.com/wang2-lat/my-personal-bloomberg/internal/observability/logging"
	"github.com/wang2-lat/my-personal-bloomberg/internal/observability/metrics"
	"github.com/wang2-lat/my-personal-bloomberg/internal/usecase/derive"
	"github.com/wang2-lat/my-personal-bloomberg/internal/usecase/notify"
	"github.com/wang2-lat/my-personal-bloomberg/internal/usecase/resolve"
)

// volatilitySymbol is the CBOE volatility index as quoted by the history
// provider.
const volatilitySymbol = "^VIX"

// indexRow pairs a major-index symbol with its display name.
type indexRow struct {
	symbol string
	name   string
}

// overviewIndices are the major indices reported in the market overview,
// in display order.
var overviewIndices = []indexRow{
	{symbol: "SPY", name: "S&P500"},
	{symbol: "QQQ", name: "纳指100"},
	{symbol: "DIA", name: "道指"},
}

// NewsSource fetches the news items for a run.
type NewsSource interface {
	Fetch(ctx context.Context, feedURL string, limit int) ([]entity.NewsItem, error)
}

// SnapshotFetcher assembles market snapshots and index quotes.
type SnapshotFetcher interface {
	Fetch(ctx context.Context, symbol string) entity.MarketSnapshot
	QuoteWithFallback(ctx context.Context, symbol string) (*entity.Quote, error)
}

// Assessor produces the AI assessment for one news item.
type Assessor interface {
	Assess(ctx context.Context, title, symbol string, snap entity.MarketSnapshot, derived entity.DerivedMetrics) entity.AIAssessment
}

// Dispatcher delivers notifications to the enabled channels.
type Dispatcher interface {
	Dispatch(ctx context.Context, notification *entity.Notification) int
}

// MacroSource fetches the optional macro indicator. A nil MacroSource
// disables the macro line entirely.
type MacroSource interface {
	LatestObservation(ctx context.Context, seriesID string) (float64, error)
}

// Config holds the per-run pipeline settings.
type Config struct {
	// FeedURL is the RSS feed to process.
	FeedURL string

	// MaxItems caps the news items per run.
	MaxItems int

	// Timezone renders the overview timestamp.
	Timezone *time.Location
}

// RunStats summarizes one pipeline run.
type RunStats struct {
	ItemsProcessed     int
	ResolvedByOrigin   map[entity.MatchOrigin]int
	Delivered          int
	AssessmentDefaults int
	DataErrors         int
	OverviewDelivered  bool
	Duration           time.Duration
}

// missingParts counts the snapshot sections the providers failed to
// supply for one item.
func missingParts(snap *entity.MarketSnapshot) int {
	n := 0
	if snap.Quote == nil {
		n++
	}
	if snap.Fundamentals == nil {
		n++
	}
	if snap.Consensus == nil {
		n++
	}
	if snap.Technical == nil {
		n++
	}
	return n
}

// Pipeline wires the use cases into a runnable job.
type Pipeline struct {
	news       NewsSource
	resolver   *resolve.Resolver
	snapshots  SnapshotFetcher
	deriver    *derive.Engine
	assessor   Assessor
	dispatcher Dispatcher
	macro      MacroSource
	config     Config
}

// New creates a Pipeline. macroSource may be nil when no macro provider
// is configured.
func New(
	news NewsSource,
	resolver *resolve.Resolver,
	snapshots SnapshotFetcher,
	deriver *derive.Engine,
	assessor Assessor,
	dispatcher Dispatcher,
	macroSource MacroSource,
	config Config,
) *Pipeline {
	if config.Timezone == nil {
		config.Timezone = time.UTC
	}
	return &Pipeline{
		news:       news,
		resolver:   resolver,
		snapshots:  snapshots,
		deriver:    deriver,
		assessor:   assessor,
		dispatcher: dispatcher,
		macro:      macroSource,
		config:     config,
	}
}

// Run executes one full enrichment run: market overview first, then each
// news item in feed order. It returns an error only when the feed itself
// is unreachable; provider and delivery failures degrade per item.
func (p *Pipeline) Run(ctx context.Context) (*RunStats, error) {
	logger := logging.FromContext(ctx)
	start := time.Now()
	stats := &RunStats{ResolvedByOrigin: make(map[entity.MatchOrigin]int)}

	defer func() {
		stats.Duration = time.Since(start)
		metrics.RecordRunDuration(stats.Duration)
	}()

	// Overview goes out before any news item, every run.
	overview := p.buildOverview(ctx)
	now := time.Now().In(p.config.Timezone)
	if delivered := p.dispatcher.Dispatch(ctx, notify.AssembleOverview(overview, now)); delivered > 0 {
		stats.Delivered += delivered
		stats.OverviewDelivered = true
	}

	items, err := p.news.Fetch(ctx, p.config.FeedURL, p.config.MaxItems)
	if err != nil {
		logger.Error("news feed unavailable",
			slog.String("url", p.config.FeedURL),
			slog.Any("error", err))
		return stats, fmt.Errorf("fetch news feed: %w", err)
	}
	if len(items) == 0 {
		logger.Info("no news items in feed")
		return stats, nil
	}

	for i := range items {
		item := &items[i]
		metrics.RecordNewsItem()
		stats.ItemsProcessed++

		match := p.resolver.Resolve(item.Title, item.Summary)
		stats.ResolvedByOrigin[match.Origin]++
		logger.Info("processing news item",
			slog.Int("index", i+1),
			slog.Int("total", len(items)),
			slog.String("symbol", match.Symbol),
			slog.String("origin", string(match.Origin)),
			slog.String("title", item.Title))

		snap := p.snapshots.Fetch(ctx, match.Symbol)
		stats.DataErrors += missingParts(&snap)
		derived := p.deriver.Derive(&snap)
		assessment := p.assessor.Assess(ctx, item.Title, match.Symbol, snap, derived)
		if assessment.Defaulted {
			stats.AssessmentDefaults++
		}

		notification := notify.AssembleNews(item, match, snap, derived, assessment, time.Now().In(p.config.Timezone))
		stats.Delivered += p.dispatcher.Dispatch(ctx, notification)
	}

	logger.Info("pipeline run completed",
		slog.Int("items", stats.ItemsProcessed),
		slog.Int("delivered", stats.Delivered),
		slog.Int("assessment_defaults", stats.AssessmentDefaults),
		slog.Duration("duration", time.Since(start)))
	return stats, nil
}

// buildOverview assembles the market overview from whatever providers
// respond. Every part is optional; an empty overview still goes out with
// its timestamp.
func (p *Pipeline) buildOverview(ctx context.Context) *entity.MarketOverview {
	logger := logging.FromContext(ctx)

	overview := &entity.MarketOverview{
		GeneratedAt: time.Now().In(p.config.Timezone),
	}

	for _, row := range overviewIndices {
		quote, err := p.snapshots.QuoteWithFallback(ctx, row.symbol)
		if err != nil {
			logger.Warn("index quote unavailable",
				slog.String("symbol", row.symbol),
				slog.Any("error", err))
			continue
		}
		overview.Indices = append(overview.Indices, entity.IndexQuote{
			Name:      row.name,
			Symbol:    row.symbol,
			Price:     quote.Price,
			ChangePct: quote.ChangePct,
		})
	}

	if quote, err := p.snapshots.QuoteWithFallback(ctx, volatilitySymbol); err == nil {
		overview.Volatility = entity.NewVolatilityGauge(quote.Price)
	} else {
		logger.Warn("volatility index unavailable", slog.Any("error", err))
	}

	if p.macro != nil {
		value, err := p.macro.LatestObservation(ctx, macro.PhillyFedSeriesID)
		if err != nil {
			logger.Warn("macro indicator unavailable", slog.Any("error", err))
		} else {
			overview.MacroNote = formatMacroNote(value)
		}
	}

	return overview
}

// formatMacroNote renders the Philadelphia Fed reading as a single line.
// Positive activity reads green, contraction reads red.
func formatMacroNote(value float64) string {
	emoji := "🔴"
	if value > 0 {
		emoji = "🟢"
	}
	return fmt.Sprintf("%s 费城联储: %.1f", emoji, value)
}
