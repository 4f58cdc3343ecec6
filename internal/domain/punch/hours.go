package punch

import (
	"math"
	"time"
)

// BreakMinutes sums the duration of every valid break. A break is valid when
// it has both endpoints and does not end before it starts; anything else
// contributes zero.
func BreakMinutes(breaks []BreakInterval) float64 {
	var total float64
	for _, b := range breaks {
		if b.StartTime.IsZero() || b.EndTime == nil {
			continue
		}
		if b.EndTime.Before(b.StartTime) {
			continue
		}
		total += b.EndTime.Sub(b.StartTime).Minutes()
	}
	return total
}

// EffectiveHours returns (span - valid break minutes) / 60 rounded to two
// decimals. The result is negative when breaks exceed the punch span.
func EffectiveHours(punchIn, punchOut time.Time, breaks []BreakInterval) float64 {
	totalMinutes := punchOut.Sub(punchIn).Minutes()
	return Round2((totalMinutes - BreakMinutes(breaks)) / 60)
}

// Round2 rounds f to two decimal places, half away from zero.
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}
