package entity

import "time"

// Theme is the visual classification driving notification styling.
type Theme string

const (
	ThemePositive Theme = "positive"
	ThemeNegative Theme = "negative"
	ThemeNeutral  Theme = "neutral"
)

// Score thresholds for theme selection.
const (
	PositiveScoreMin = 7
	NegativeScoreMax = 4
)

// ThemeForScore maps an assessment score to a theme.
func ThemeForScore(score int) Theme {
	switch {
	case score >= PositiveScoreMin:
		return ThemePositive
	case score <= NegativeScoreMax:
		return ThemeNegative
	default:
		return ThemeNeutral
	}
}

// NotificationKind distinguishes per-item news notifications from the
// once-per-run market overview header.
type NotificationKind string

const (
	KindNews     NotificationKind = "news"
	KindOverview NotificationKind = "overview"
)

// Notification is the normalized, platform-agnostic delivery model.
// Delivery channels serialize it into their own payload schema.
type Notification struct {
	Kind NotificationKind

	// Title is the display title, truncated with an ellipsis marker beyond
	// the fixed character budget.
	Title string

	Theme     Theme
	CreatedAt time.Time

	// News fields, set when Kind == KindNews.
	Item       *NewsItem
	Match      SymbolMatch
	Snapshot   MarketSnapshot
	Derived    DerivedMetrics
	Assessment AIAssessment

	// Overview is set when Kind == KindOverview.
	Overview *MarketOverview
}

// IndexQuote is one major-index row of the market overview.
type IndexQuote struct {
	Name      string
	Symbol    string
	Price     float64
	ChangePct float64
}

// VolatilityLevel buckets the VIX reading into named severity levels.
type VolatilityLevel string

const (
	VolatilityCalm     VolatilityLevel = "calm"
	VolatilityNormal   VolatilityLevel = "normal"
	VolatilityElevated VolatilityLevel = "elevated"
	VolatilityPanic    VolatilityLevel = "panic"
)

// VIX bucket thresholds.
const (
	vixCalmBelow     = 15.0
	vixNormalBelow   = 25.0
	vixElevatedBelow = 35.0
)

// ClassifyVolatility maps a VIX reading to its severity bucket.
func ClassifyVolatility(value float64) VolatilityLevel {
	switch {
	case value < vixCalmBelow:
		return VolatilityCalm
	case value < vixNormalBelow:
		return VolatilityNormal
	case value < vixElevatedBelow:
		return VolatilityElevated
	default:
		return VolatilityPanic
	}
}

// VolatilityGauge is the VIX reading plus its bucket.
type VolatilityGauge struct {
	Value float64
	Level VolatilityLevel
}

// NewVolatilityGauge builds a gauge with the bucket derived from the value.
func NewVolatilityGauge(value float64) *VolatilityGauge {
	return &VolatilityGauge{Value: value, Level: ClassifyVolatility(value)}
}

// MarketOverview aggregates the once-per-run market header: major index
// changes, the volatility gauge, and an optional macro indicator line.
// Volatility and MacroNote are absent when their providers were unavailable.
type MarketOverview struct {
	GeneratedAt time.Time
	Indices     []IndexQuote
	Volatility  *VolatilityGauge

	// MacroNote is a preformatted single-line macro reading, empty when the
	// macro provider is disabled or unavailable.
	MacroNote string
}
