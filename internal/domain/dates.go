package domain

import (
	"strings"
	"time"
)

// DateLayout is the only date format that crosses a boundary: ISO-8601
// calendar dates with no time zone.
const DateLayout = "2006-01-02"

// Date builds a calendar date at midnight UTC.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// NormalizeDate drops the clock and zone from t, keeping the calendar day it
// names in its own location.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// ParseDate parses a YYYY-MM-DD string. field names the input in the
// returned ValidationError.
func ParseDate(field, s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, NewValidationError(field, "invalid date %q (expected YYYY-MM-DD)", s)
	}
	return t, nil
}

// ParseDatePtr parses an optional date; nil or blank input yields nil.
func ParseDatePtr(field string, s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	t, err := ParseDate(field, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// FormatDatePtr renders an optional date, returning nil for nil.
func FormatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(DateLayout)
	return &s
}

// IsWeekend reports whether t falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
