// Package num provides fixed-precision rounding helpers.
// All prices and percentages in the pipeline are rounded at the point of
// computation, not at display time, so repeated reads of the same record
// are stable. Rounding goes through shopspring/decimal to avoid binary
// float representation drift.
package num

import "github.com/shopspring/decimal"

// Round2 rounds to 2 decimal places, the default precision for prices and
// percentages throughout the pipeline.
func Round2(v float64) float64 {
	return RoundTo(v, 2)
}

// RoundTo rounds v to the given number of decimal places (half away from
// zero).
func RoundTo(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// Ptr returns a pointer to v. Used for optional numeric fields where nil
// means "unavailable".
func Ptr(v float64) *float64 {
	return &v
}

// Round2Ptr rounds v to 2 decimals and returns a pointer to the result.
func Round2Ptr(v float64) *float64 {
	return Ptr(Round2(v))
}
