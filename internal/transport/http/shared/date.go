package shared

import "time"

// ParseDate accepts calendar dates in YYYY-MM-DD form only. Timestamps are
// rejected so date-ranged records never carry a time of day.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", value)
}
