// Package resolve maps free-form news text to a single US equity symbol.
// Resolution runs three stages in order: the company-name lookup table,
// an uppercase ticker-pattern scan, and the broad-market fallback.
package resolve

import (
	"regexp"
	"strings"

	"github.com/wang2-lat/my-personal-bloomberg/internal/domain/entity"
	"github.com/wang2-lat/my-personal-bloomberg/internal/observability/metrics"
	"github.com/wang2-lat/my-personal-bloomberg/internal/refdata"
)

// tickerPattern matches standalone 2-5 letter uppercase tokens.
var tickerPattern = regexp.MustCompile(`\b([A-Z]{2,5})\b`)

// Resolver resolves news text to ticker symbols using static reference
// tables. A Resolver is immutable after construction and safe for
// concurrent use.
type Resolver struct {
	tables *refdata.Tables
}

// NewResolver creates a Resolver backed by the given reference tables.
func NewResolver(tables *refdata.Tables) *Resolver {
	return &Resolver{tables: tables}
}

// Resolve maps the title and summary of a news item to exactly one symbol.
//
// Stages, in order:
//  1. Lookup: case-insensitive substring scan of the company-name table,
//     first entry in table order wins.
//  2. Pattern: first standalone 2-5 letter uppercase token not in the
//     exclusion set, scanned left to right over the original-case text.
//  3. Fallback: the configured broad-market symbol.
//
// Resolve never fails; every input maps to a symbol.
func (r *Resolver) Resolve(title, summary string) entity.SymbolMatch {
	text := title
	if summary != "" {
		text = title + " " + summary
	}

	if sym, ok := r.lookup(text); ok {
		metrics.RecordSymbolResolved(string(entity.OriginLookup))
		return entity.SymbolMatch{Symbol: sym, Origin: entity.OriginLookup}
	}

	if sym, ok := r.scanPattern(text); ok {
		metrics.RecordSymbolResolved(string(entity.OriginPattern))
		return entity.SymbolMatch{Symbol: sym, Origin: entity.OriginPattern}
	}

	metrics.RecordSymbolResolved(string(entity.OriginFallback))
	return entity.SymbolMatch{Symbol: r.tables.DefaultSymbol, Origin: entity.OriginFallback}
}

// lookup scans the ordered company table against the lowercased text.
func (r *Resolver) lookup(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, entry := range r.tables.Companies {
		if strings.Contains(lower, entry.Name) {
			return entry.Symbol, true
		}
	}
	return "", false
}

// scanPattern returns the first ticker-shaped token that survives the
// exclusion set. The scan runs over the original-case text so that
// ordinary words never match.
func (r *Resolver) scanPattern(text string) (string, bool) {
	for _, m := range tickerPattern.FindAllString(text, -1) {
		if !r.tables.IsExcluded(m) {
			return m, true
		}
	}
	return "", false
}
