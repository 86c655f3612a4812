package domain

import (
	"sort"
	"time"
)

type Holiday struct {
	Date time.Time
	Name string
}

// HolidaySet is the list of non-working dates declared for one fiscal year,
// on top of weekends.
type HolidaySet struct {
	FiscalYear int
	byDate     map[string]Holiday
}

func NewHolidaySet(fiscalYear int, holidays ...Holiday) HolidaySet {
	s := HolidaySet{FiscalYear: fiscalYear, byDate: make(map[string]Holiday, len(holidays))}
	for _, h := range holidays {
		s.Add(h)
	}
	return s
}

// Add marks h.Date as a holiday. A second entry for the same date replaces
// the first.
func (s *HolidaySet) Add(h Holiday) {
	if s.byDate == nil {
		s.byDate = make(map[string]Holiday)
	}
	h.Date = NormalizeDate(h.Date)
	s.byDate[FormatDate(h.Date)] = h
}

func (s HolidaySet) Contains(t time.Time) bool {
	_, ok := s.byDate[FormatDate(t)]
	return ok
}

func (s HolidaySet) Len() int {
	return len(s.byDate)
}

// Holidays returns the set's entries sorted by date.
func (s HolidaySet) Holidays() []Holiday {
	out := make([]Holiday, 0, len(s.byDate))
	for _, h := range s.byDate {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
