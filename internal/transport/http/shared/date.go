package shared

import (
	"strconv"
	"time"
)

// ParseDate accepts RFC3339 or YYYY-MM-DD. An empty value yields the zero time.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	return time.Parse("2006-01-02", value)
}

// ParseYear accepts a four-digit calendar year. An empty value yields nil.
func ParseYear(value string) (*int, bool) {
	if value == "" {
		return nil, true
	}
	year, err := strconv.Atoi(value)
	if err != nil || year < 1900 || year > 9999 {
		return nil, false
	}
	return &year, true
}
