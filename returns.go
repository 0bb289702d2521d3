package ledger

import "math"

// MaxCloseWalkBack bounds how many calendar days a prior-close lookup may
// walk back when the exact date is a market holiday.
const MaxCloseWalkBack = 10

// WeeklyPct returns the percentage change from the previous close to the
// current one. ok is false when there is no usable previous close, in
// which case the change is reported as zero.
func WeeklyPct(current, previous float64) (pct float64, ok bool) {
	if previous == 0 {
		return 0, false
	}
	return (current/previous - 1) * 100, true
}

// TotalPct returns the percentage change from the inception reference to
// the current close.
func TotalPct(current, inception float64) float64 {
	if inception == 0 {
		return 0
	}
	return (current/inception - 1) * 100
}

// Normalize rebases a value so that the inception reference maps to 100.
func Normalize(value, inception float64) float64 {
	if inception == 0 {
		return 0
	}
	return value / inception * 100
}

// Round2 rounds to two decimal places, the persisted precision for
// percentages and closes.
func Round2(x float64) float64 { return math.Round(x*100) / 100 }

// RoundUnit rounds to the nearest whole currency unit, the persisted
// precision for position and portfolio values.
func RoundUnit(x float64) float64 { return math.Round(x) }
