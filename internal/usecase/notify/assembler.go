package notify

import (
	"time"

	"github.com/wang2-lat/my-personal-bloomberg/internal/domain/entity"
	"github.com/wang2-lat/my-personal-bloomberg/internal/utils/text"
)

const (
	// maxTitleRunes is the display-title budget, counted in runes so CJK
	// titles truncate the same as ASCII ones.
	maxTitleRunes = 26

	ellipsis = "..."

	overviewTitle = "市场脉搏 | Market Pulse"
)

// AssembleNews builds the delivery model for one enriched news item.
// The theme follows the assessment score and the title is truncated to
// the display budget.
func AssembleNews(
	item *entity.NewsItem,
	match entity.SymbolMatch,
	snap entity.MarketSnapshot,
	derived entity.DerivedMetrics,
	assessment entity.AIAssessment,
	now time.Time,
) *entity.Notification {
	return &entity.Notification{
		Kind:       entity.KindNews,
		Title:      text.TruncateRunes(item.Title, maxTitleRunes, ellipsis),
		Theme:      entity.ThemeForScore(assessment.Score),
		CreatedAt:  now,
		Item:       item,
		Match:      match,
		Snapshot:   snap,
		Derived:    derived,
		Assessment: assessment,
	}
}

// AssembleOverview builds the once-per-run market overview notification.
// The overview always renders neutral regardless of market direction.
func AssembleOverview(overview *entity.MarketOverview, now time.Time) *entity.Notification {
	return &entity.Notification{
		Kind:      entity.KindOverview,
		Title:     overviewTitle,
		Theme:     entity.ThemeNeutral,
		CreatedAt: now,
		Overview:  overview,
	}
}
