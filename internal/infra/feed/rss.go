// Package feed provides the RSS/Atom news source. It uses the gofeed
// library to parse feed content with reliability patterns.
package feed

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/sony/gobreaker"

	"github.com/wang2-lat/my-personal-bloomberg/internal/domain/entity"
	"github.com/wang2-lat/my-personal-bloomberg/internal/resilience/circuitbreaker"
	"github.com/wang2-lat/my-personal-bloomberg/internal/resilience/retry"
)

// RSSFetcher fetches news items from an RSS/Atom feed using gofeed.
// It includes circuit breaker and retry logic for improved reliability.
type RSSFetcher struct {
	client         *http.Client
	sourceName     string
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewRSSFetcher creates a new RSSFetcher.
//
// Parameters:
//   - client: HTTP client used for feed requests
//   - sourceName: display name attached to every fetched item
func NewRSSFetcher(client *http.Client, sourceName string) *RSSFetcher {
	return &RSSFetcher{
		client:         client,
		sourceName:     sourceName,
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		retryConfig:    retry.FeedFetchConfig(),
	}
}

// Fetch retrieves and parses the feed, returning at most limit items in
// feed order. A limit of zero or less means no cap.
func (f *RSSFetcher) Fetch(ctx context.Context, feedURL string, limit int) ([]entity.NewsItem, error) {
	var items []entity.NewsItem

	retryErr := retry.WithBackoff(ctx, f.retryConfig, func() error {
		cbResult, err := f.circuitBreaker.Execute(func() (interface{}, error) {
			return f.doFetch(ctx, feedURL)
		})

		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("feed fetch circuit breaker open, request rejected",
					slog.String("url", feedURL),
					slog.String("state", f.circuitBreaker.State().String()))
			}
			return err
		}

		items = cbResult.([]entity.NewsItem)
		return nil
	})

	if retryErr != nil {
		return nil, retryErr
	}

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// doFetch performs the actual feed fetch without retry or circuit breaker.
func (f *RSSFetcher) doFetch(ctx context.Context, feedURL string) ([]entity.NewsItem, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = "MarketPulseBot"
	fp.Client = f.client

	parsed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	items := make([]entity.NewsItem, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		pubAt := time.Now()
		if it.PublishedParsed != nil {
			pubAt = *it.PublishedParsed
		}

		summary := it.Description
		if summary == "" {
			summary = it.Content
		}

		items = append(items, entity.NewsItem{
			Title:       it.Title,
			Summary:     summary,
			Source:      f.sourceName,
			Link:        it.Link,
			PublishedAt: pubAt,
		})
	}

	return items, nil
}
