package utils

import (
	"fmt"
	"time"
)

const isoDateLayout = "2006-01-02"

// ParseISODate parses a YYYY-MM-DD string.
func ParseISODate(s string) (time.Time, error) {
	t, err := time.Parse(isoDateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date '%s', expected YYYY-MM-DD: %w", s, err)
	}
	return t, nil
}

// FormatISODate renders t as YYYY-MM-DD.
func FormatISODate(t time.Time) string {
	return t.Format(isoDateLayout)
}

// TodayISO returns the current date as YYYY-MM-DD.
func TodayISO() string {
	return time.Now().Format(isoDateLayout)
}
