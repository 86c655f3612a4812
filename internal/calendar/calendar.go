package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/timeline/internal/domain"
)

// HolidayCalendar answers workday questions from per-fiscal-year holiday
// sets. It is read-only after construction and safe for concurrent use.
type HolidayCalendar struct {
	startMonth time.Month
	years      map[int]domain.HolidaySet
}

// New builds a calendar from already loaded sets. A later set for the same
// fiscal year replaces an earlier one.
func New(startMonth time.Month, sets ...domain.HolidaySet) *HolidayCalendar {
	if startMonth < time.January || startMonth > time.December {
		startMonth = domain.DefaultFiscalStartMonth
	}
	c := &HolidayCalendar{startMonth: startMonth, years: make(map[int]domain.HolidaySet, len(sets))}
	for _, s := range sets {
		c.years[s.FiscalYear] = s
	}
	return c
}

// WeekendsOnly is a calendar with no holidays loaded at all.
func WeekendsOnly() YearCalendar {
	return New(domain.DefaultFiscalStartMonth).ForYear(0)
}

// IsWorkdayInYear reports whether date is a working day under the holiday
// set of fiscalYear. Saturdays and Sundays are never workdays. A year with
// no loaded set falls back to weekends only.
func (c *HolidayCalendar) IsWorkdayInYear(date time.Time, fiscalYear int) bool {
	if domain.IsWeekend(date) {
		return false
	}
	set, ok := c.years[fiscalYear]
	if !ok {
		return true
	}
	return !set.Contains(date)
}

// HasYear reports whether a holiday set was loaded for fiscalYear.
func (c *HolidayCalendar) HasYear(fiscalYear int) bool {
	_, ok := c.years[fiscalYear]
	return ok
}

// ForYear binds the calendar to the planning year of one chain. Every date
// is judged against that year's holiday set, except dates that run past the
// year's end into a later fiscal year whose set is loaded.
func (c *HolidayCalendar) ForYear(fiscalYear int) YearCalendar {
	return YearCalendar{cal: c, fiscalYear: fiscalYear}
}

// YearCalendar is a HolidayCalendar seen from one chain's fiscal year.
type YearCalendar struct {
	cal        *HolidayCalendar
	fiscalYear int
}

func (y YearCalendar) IsWorkday(date time.Time) bool {
	fy := y.fiscalYear
	if spill := domain.FiscalYearOf(date, y.cal.startMonth); spill > fy && y.cal.HasYear(spill) {
		fy = spill
	}
	return y.cal.IsWorkdayInYear(date, fy)
}

// HolidaySource loads the holiday set declared for one fiscal year and
// returns domain.ErrNotFound when none was ever declared.
type HolidaySource interface {
	LoadHolidays(ctx context.Context, fiscalYear int) (domain.HolidaySet, error)
}

// Load builds a calendar for the given fiscal years. Years the source has no
// set for are left out and reported in missing so callers can log them.
func Load(ctx context.Context, src HolidaySource, startMonth time.Month, years ...int) (cal *HolidayCalendar, missing []int, err error) {
	sets := make([]domain.HolidaySet, 0, len(years))
	seen := make(map[int]bool, len(years))
	for _, fy := range years {
		if seen[fy] {
			continue
		}
		seen[fy] = true
		set, err := src.LoadHolidays(ctx, fy)
		if errors.Is(err, domain.ErrNotFound) {
			missing = append(missing, fy)
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("loading holidays for fiscal year %d: %w", fy, err)
		}
		sets = append(sets, set)
	}
	return New(startMonth, sets...), missing, nil
}
