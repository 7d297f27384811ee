package entity

import "github.com/wang2-lat/my-personal-bloomberg/internal/utils/num"

// Quote holds the most recent traded price for a symbol.
// A nil *Quote means the quote fetch failed; when present, ChangePct is
// computed exactly once at construction and never recomputed downstream.
type Quote struct {
	Symbol    string
	Price     float64
	PrevClose float64
	High      *float64
	Low       *float64

	// ChangePct is (Price - PrevClose) / PrevClose * 100, rounded to
	// 2 decimals at construction time.
	ChangePct float64
}

// NewQuote builds a Quote and caches the day-over-day change percentage.
// Returns nil when prevClose is not a usable divisor.
func NewQuote(symbol string, price, prevClose float64, high, low *float64) *Quote {
	if prevClose == 0 {
		return nil
	}
	return &Quote{
		Symbol:    symbol,
		Price:     num.Round2(price),
		PrevClose: num.Round2(prevClose),
		High:      high,
		Low:       low,
		ChangePct: num.Round2((price - prevClose) / prevClose * 100),
	}
}

// Fundamentals holds slower-changing company attributes.
// Every field is independently optional; a nil pointer means the provider
// did not supply the value.
type Fundamentals struct {
	Symbol     string
	ShortName  string
	Sector     string
	TrailingPE *float64
	ForwardPE  *float64
	MarketCap  *float64
	High52     *float64
	Low52      *float64
	Beta       *float64
	TargetMean *float64
	TargetHigh *float64
	TargetLow  *float64
}

// ConsensusLabel is the aggregated analyst recommendation.
type ConsensusLabel string

const (
	ConsensusBuy  ConsensusLabel = "buy"
	ConsensusHold ConsensusLabel = "hold"
	ConsensusSell ConsensusLabel = "sell"
	ConsensusNone ConsensusLabel = "none"
)

// AnalystConsensus holds buy/hold/sell counts and their derived label.
// The label is a pure function of the counts and is never mutated
// independently, so construct values with NewAnalystConsensus.
type AnalystConsensus struct {
	Buy   int
	Hold  int
	Sell  int
	Label ConsensusLabel
}

// NewAnalystConsensus derives the consensus label from the rating counts:
// buy when buys outnumber everything else, sell when sells do, hold when any
// ratings exist, none otherwise.
func NewAnalystConsensus(buy, hold, sell int) AnalystConsensus {
	c := AnalystConsensus{Buy: buy, Hold: hold, Sell: sell}
	switch {
	case buy+hold+sell == 0:
		c.Label = ConsensusNone
	case buy > hold+sell:
		c.Label = ConsensusBuy
	case sell > buy+hold:
		c.Label = ConsensusSell
	default:
		c.Label = ConsensusHold
	}
	return c
}

// TechnicalPosition captures where the price sits relative to its history.
// Fields are nil when fewer trading days than the window were available;
// insufficient history is never estimated.
type TechnicalPosition struct {
	// MAWindow is the moving-average window in trading days (50 or 200).
	MAWindow int

	// MADeviationPct is (price - SMA) / SMA * 100, rounded to 2 decimals.
	MADeviationPct *float64

	// RangePositionPct is the 0-100 clamped position of the price inside
	// the trailing 252-day high/low range, rounded to 2 decimals.
	RangePositionPct *float64
}

// MarketSnapshot aggregates the four independently fetched views of one
// symbol. Any field may be nil when its provider call failed; a nil part
// never implies anything about the others.
type MarketSnapshot struct {
	Quote        *Quote
	Fundamentals *Fundamentals
	Consensus    *AnalystConsensus
	Technical    *TechnicalPosition
}

// DerivedMetrics holds comparative metrics computed from a snapshot.
// nil means unavailable; zero is a valid computed value and the two are
// never conflated.
type DerivedMetrics struct {
	SectorPEPremiumPct *float64
	TargetUpsidePct    *float64
	MADeviationPct     *float64
	RangePositionPct   *float64
}
