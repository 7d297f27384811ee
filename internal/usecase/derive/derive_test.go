package derive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wang2-lat/my-personal-bloomberg/internal/domain/entity"
	"github.com/wang2-lat/my-personal-bloomberg/internal/refdata"
	"github.com/wang2-lat/my-personal-bloomberg/internal/utils/num"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	tables, err := refdata.Load()
	require.NoError(t, err)
	return NewEngine(tables)
}

func TestSectorPEPremium(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name   string
		pe     *float64
		sector string
		want   *float64
	}{
		{
			name:   "technology premium",
			pe:     num.Ptr(45),
			sector: "Technology",
			want:   num.Ptr(50), // (45-30)/30
		},
		{
			name:   "discount reads negative",
			pe:     num.Ptr(9),
			sector: "Energy",
			want:   num.Ptr(-25), // (9-12)/12
		},
		{
			name:   "unknown sector uses default bucket",
			pe:     num.Ptr(25),
			sector: "Real Estate",
			want:   num.Ptr(25), // (25-20)/20
		},
		{
			name:   "nil pe yields nil",
			pe:     nil,
			sector: "Technology",
			want:   nil,
		},
		{
			name:   "negative pe yields nil",
			pe:     num.Ptr(-12.5),
			sector: "Technology",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.SectorPEPremium(tt.pe, tt.sector)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 0.001)
		})
	}
}

func TestTargetUpside(t *testing.T) {
	got := TargetUpside(100, num.Ptr(125))
	require.NotNil(t, got)
	assert.InDelta(t, 25, *got, 0.001)

	got = TargetUpside(200, num.Ptr(150))
	require.NotNil(t, got)
	assert.InDelta(t, -25, *got, 0.001)

	assert.Nil(t, TargetUpside(100, nil))
	assert.Nil(t, TargetUpside(0, num.Ptr(125)))
}

func TestMovingAverageDeviation(t *testing.T) {
	got := MovingAverageDeviation(110, 100)
	require.NotNil(t, got)
	assert.InDelta(t, 10, *got, 0.001)

	got = MovingAverageDeviation(95, 100)
	require.NotNil(t, got)
	assert.InDelta(t, -5, *got, 0.001)

	assert.Nil(t, MovingAverageDeviation(110, 0))
	assert.Nil(t, MovingAverageDeviation(0, 100))
}

func TestRangePosition(t *testing.T) {
	tests := []struct {
		name             string
		price, low, high float64
		want             *float64
	}{
		{name: "midpoint", price: 150, low: 100, high: 200, want: num.Ptr(50)},
		{name: "at low", price: 100, low: 100, high: 200, want: num.Ptr(0)},
		{name: "at high", price: 200, low: 100, high: 200, want: num.Ptr(100)},
		{name: "clamped above high", price: 250, low: 100, high: 200, want: num.Ptr(100)},
		{name: "clamped below low", price: 50, low: 100, high: 200, want: num.Ptr(0)},
		{name: "degenerate range reads midpoint", price: 100, low: 100, high: 100, want: num.Ptr(50)},
		{name: "inverted range yields nil", price: 150, low: 200, high: 100, want: nil},
		{name: "zero price yields nil", price: 0, low: 100, high: 200, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RangePosition(tt.price, tt.low, tt.high)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 0.001)
		})
	}
}

func TestDeriveNilPropagation(t *testing.T) {
	e := newTestEngine(t)

	// Nothing available: every metric stays nil.
	d := e.Derive(&entity.MarketSnapshot{})
	assert.Nil(t, d.SectorPEPremiumPct)
	assert.Nil(t, d.TargetUpsidePct)
	assert.Nil(t, d.MADeviationPct)
	assert.Nil(t, d.RangePositionPct)

	d = e.Derive(nil)
	assert.Nil(t, d.SectorPEPremiumPct)
}

func TestDeriveRangeFromReportedBounds(t *testing.T) {
	e := newTestEngine(t)

	// Yearly bounds arrive with the fundamentals even when the close
	// history is missing or too short for a technical figure.
	snap := &entity.MarketSnapshot{
		Quote: entity.NewQuote("NVDA", 100, 98, nil, nil),
		Fundamentals: &entity.Fundamentals{
			Symbol: "NVDA",
			High52: num.Ptr(150),
			Low52:  num.Ptr(50),
		},
	}

	d := e.Derive(snap)
	require.NotNil(t, d.RangePositionPct)
	assert.InDelta(t, 50, *d.RangePositionPct, 0.001)

	// Reported bounds win over the history-derived position.
	snap.Technical = &entity.TechnicalPosition{
		MAWindow:         50,
		RangePositionPct: num.Ptr(91.2),
	}
	d = e.Derive(snap)
	require.NotNil(t, d.RangePositionPct)
	assert.InDelta(t, 50, *d.RangePositionPct, 0.001)

	// Without a quote there is no price to place in the range.
	snap.Quote = nil
	d = e.Derive(snap)
	require.NotNil(t, d.RangePositionPct)
	assert.InDelta(t, 91.2, *d.RangePositionPct, 0.001)
}

func TestDeriveFullSnapshot(t *testing.T) {
	e := newTestEngine(t)

	snap := &entity.MarketSnapshot{
		Quote: entity.NewQuote("NVDA", 100, 98, num.Ptr(102), num.Ptr(97)),
		Fundamentals: &entity.Fundamentals{
			Symbol:     "NVDA",
			Sector:     "Technology",
			TrailingPE: num.Ptr(60),
			TargetMean: num.Ptr(130),
		},
		Technical: &entity.TechnicalPosition{
			MAWindow:         50,
			MADeviationPct:   num.Ptr(8.5),
			RangePositionPct: num.Ptr(91.2),
		},
	}

	d := e.Derive(snap)
	require.NotNil(t, d.SectorPEPremiumPct)
	assert.InDelta(t, 100, *d.SectorPEPremiumPct, 0.001)
	require.NotNil(t, d.TargetUpsidePct)
	assert.InDelta(t, 30, *d.TargetUpsidePct, 0.001)
	require.NotNil(t, d.MADeviationPct)
	assert.InDelta(t, 8.5, *d.MADeviationPct, 0.001)
	require.NotNil(t, d.RangePositionPct)
	assert.InDelta(t, 91.2, *d.RangePositionPct, 0.001)
}
