package domain

import "time"

// ParseDate reads an optional YYYY-MM-DD value as UTC midnight. Blank input
// yields the zero time.
func ParseDate(field, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, raw, time.UTC)
	if err != nil {
		return time.Time{}, Invalid(field, "must be YYYY-MM-DD")
	}
	return t, nil
}
