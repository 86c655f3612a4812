package scheduler

import (
	"time"

	"github.com/alexanderramin/timeline/internal/domain"
)

// Calendar is the only thing the recomputer needs to know about holidays.
// Implementations are bound to one chain's fiscal year, so IsWorkday judges
// every date against that year's holiday set.
type Calendar interface {
	IsWorkday(date time.Time) bool
}

// maxScanDays bounds every forward walk over the calendar.
const maxScanDays = 366 * 50

// NextWorkday returns date itself when it is a workday, otherwise the first
// workday after it.
func NextWorkday(date time.Time, cal Calendar) (time.Time, bool) {
	d := domain.NormalizeDate(date)
	for i := 0; i < maxScanDays; i++ {
		if cal.IsWorkday(d) {
			return d, true
		}
		d = d.AddDate(0, 0, 1)
	}
	return time.Time{}, false
}

// AddWorkdays returns the end date of a span of n days beginning at start,
// counting start as day one. With excludeNonWorkdays only workdays count,
// otherwise every calendar day does. n must be positive.
func AddWorkdays(start time.Time, n int, excludeNonWorkdays bool, cal Calendar) (time.Time, bool) {
	if n <= 0 {
		return time.Time{}, false
	}
	d := domain.NormalizeDate(start)
	if !excludeNonWorkdays {
		return d.AddDate(0, 0, n-1), true
	}
	count := 0
	for i := 0; i < maxScanDays; i++ {
		if cal.IsWorkday(d) {
			count++
			if count == n {
				return d, true
			}
		}
		d = d.AddDate(0, 0, 1)
	}
	return time.Time{}, false
}

// CountWorkdays counts workdays in [from, to]. It returns zero when to is
// before from.
func CountWorkdays(from, to time.Time, cal Calendar) int {
	d := domain.NormalizeDate(from)
	end := domain.NormalizeDate(to)
	n := 0
	for i := 0; !d.After(end) && i < maxScanDays; i++ {
		if cal.IsWorkday(d) {
			n++
		}
		d = d.AddDate(0, 0, 1)
	}
	return n
}
