package leave

import "time"

// midnight truncates to local midnight so day counts are immune to the
// time-of-day and DST drift of the parsed inputs.
func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// RequestDays returns the day count a request consumes: 0.5 for a half-day
// request regardless of span, otherwise the inclusive whole-day span.
func RequestDays(start, end time.Time, isHalfDay bool) (float64, error) {
	if isHalfDay {
		return 0.5, nil
	}
	start = midnight(start)
	end = midnight(end)
	days := end.Sub(start).Hours()/24 + 1
	if days <= 0 {
		return 0, ErrInvalidRange
	}
	return days, nil
}

// Overlaps reports whether [aStart, aEnd] and [bStart, bEnd] share a calendar
// day, with inclusive bounds: aStart <= bEnd && aEnd >= bStart. Bounds are
// compared at midnight so an input carrying a time of day cannot slip past an
// existing request that ends on the same date.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	aStart, aEnd = midnight(aStart), midnight(aEnd)
	bStart, bEnd = midnight(bStart), midnight(bEnd)
	return !aStart.After(bEnd) && !aEnd.Before(bStart)
}
