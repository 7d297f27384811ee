// Package entity defines the core domain records flowing through the
// enrichment pipeline: news items, resolved symbols, market data snapshots,
// derived metrics, AI assessments, and the normalized notification model.
// All entities are created fresh per pipeline run and never persisted.
package entity

import "time"

// NewsItem represents a single headline pulled from the news feed.
// It is created by the feed adapter and consumed read-only downstream.
type NewsItem struct {
	Title       string
	Summary     string
	Source      string
	Link        string
	PublishedAt time.Time
}

// MatchOrigin tags how a symbol was resolved from news text.
type MatchOrigin string

const (
	// OriginLookup means the symbol came from the company-name lookup table.
	OriginLookup MatchOrigin = "lookup"

	// OriginPattern means the symbol was extracted as an uppercase ticker token.
	OriginPattern MatchOrigin = "pattern"

	// OriginFallback means no match was found and the broad-market default was used.
	OriginFallback MatchOrigin = "fallback"
)

// SymbolMatch is a resolved equity symbol plus its confidence origin.
// The resolver guarantees Symbol is a non-empty 1-5 letter uppercase code.
type SymbolMatch struct {
	Symbol string
	Origin MatchOrigin
}
