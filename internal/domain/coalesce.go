package domain

import "time"

// CoalesceStr returns the first non-empty string from vals.
func CoalesceStr(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// BoolFromPtrWithDefault returns the first non-nil *bool value, or the fallback.
func BoolFromPtrWithDefault(fallback bool, ptrs ...*bool) bool {
	for _, p := range ptrs {
		if p != nil {
			return *p
		}
	}
	return fallback
}

// CloneTime returns a copy of t so callers never share a date pointer.
func CloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// CloneInt returns a copy of v so callers never share an int pointer.
func CloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

// EqualDates reports whether two nullable calendar dates are the same day.
func EqualDates(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
