package domain

import "time"

// DefaultFiscalStartMonth is the month a fiscal year begins in when nothing
// else is configured.
const DefaultFiscalStartMonth = time.January

// FiscalYearOf returns the fiscal year t belongs to. A fiscal year is named
// after the calendar year it starts in. With the January default it is the
// calendar year; with an April start 2025-03-31 is in fiscal 2024.
func FiscalYearOf(t time.Time, startMonth time.Month) int {
	if startMonth < time.January || startMonth > time.December {
		startMonth = DefaultFiscalStartMonth
	}
	if t.Month() < startMonth {
		return t.Year() - 1
	}
	return t.Year()
}

// FiscalYearBounds returns the first and last day of a fiscal year.
func FiscalYearBounds(fiscalYear int, startMonth time.Month) (time.Time, time.Time) {
	if startMonth < time.January || startMonth > time.December {
		startMonth = DefaultFiscalStartMonth
	}
	first := Date(fiscalYear, startMonth, 1)
	last := first.AddDate(1, 0, -1)
	return first, last
}
