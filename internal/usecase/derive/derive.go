// Package derive computes valuation and positioning metrics from a market
// snapshot. Every function is pure: absent inputs produce nil outputs and
// no metric ever fails a run.
package derive

import (
	"github.com/wang2-lat/my-personal-bloomberg/internal/domain/entity"
	"github.com/wang2-lat/my-personal-bloomberg/internal/refdata"
	"github.com/wang2-lat/my-personal-bloomberg/internal/utils/num"
)

// Engine derives metrics against the static sector valuation tables.
type Engine struct {
	tables *refdata.Tables
}

// NewEngine creates a metric engine backed by the given reference tables.
func NewEngine(tables *refdata.Tables) *Engine {
	return &Engine{tables: tables}
}

// Derive computes all derived metrics available for the snapshot.
// Metrics whose inputs are missing stay nil. The 52-week position comes
// from the reported high/low bounds when present, with the
// history-derived figure as the fallback.
func (e *Engine) Derive(snap *entity.MarketSnapshot) entity.DerivedMetrics {
	var d entity.DerivedMetrics
	if snap == nil {
		return d
	}

	if f := snap.Fundamentals; f != nil {
		d.SectorPEPremiumPct = e.SectorPEPremium(f.TrailingPE, f.Sector)
		if snap.Quote != nil {
			d.TargetUpsidePct = TargetUpside(snap.Quote.Price, f.TargetMean)
			if f.Low52 != nil && f.High52 != nil {
				d.RangePositionPct = RangePosition(snap.Quote.Price, *f.Low52, *f.High52)
			}
		}
	}

	if tech := snap.Technical; tech != nil {
		d.MADeviationPct = tech.MADeviationPct
		if d.RangePositionPct == nil {
			d.RangePositionPct = tech.RangePositionPct
		}
	}
	return d
}

// SectorPEPremium returns the percentage premium of the stock's trailing
// P/E over its sector average. Unknown sectors use the default bucket.
// Returns nil when the P/E is absent or non-positive.
func (e *Engine) SectorPEPremium(trailingPE *float64, sector string) *float64 {
	if trailingPE == nil || *trailingPE <= 0 {
		return nil
	}
	avg := e.tables.SectorAveragePE(sector)
	if avg <= 0 {
		return nil
	}
	return num.Round2Ptr((*trailingPE - avg) / avg * 100)
}

// TargetUpside returns the percentage distance from the current price to
// the analyst mean target. Returns nil when either input is absent or the
// price is non-positive.
func TargetUpside(price float64, targetMean *float64) *float64 {
	if targetMean == nil || price <= 0 {
		return nil
	}
	return num.Round2Ptr((*targetMean - price) / price * 100)
}

// MovingAverageDeviation returns the percentage deviation of price from
// the given moving average. Returns nil when the average is non-positive.
func MovingAverageDeviation(price, movingAvg float64) *float64 {
	if movingAvg <= 0 || price <= 0 {
		return nil
	}
	return num.Round2Ptr((price - movingAvg) / movingAvg * 100)
}

// RangePosition returns where price sits inside the [low, high] range as a
// percentage, clamped to [0, 100]. A degenerate range (high == low)
// reports the midpoint. Returns nil when the range is inverted or any
// input is non-positive.
func RangePosition(price, low, high float64) *float64 {
	if price <= 0 || low <= 0 || high <= 0 || high < low {
		return nil
	}
	if high == low {
		return num.Ptr(50)
	}
	pos := (price - low) / (high - low) * 100
	if pos < 0 {
		pos = 0
	}
	if pos > 100 {
		pos = 100
	}
	return num.Round2Ptr(pos)
}
