package scheduler

import (
	"sort"
	"time"

	"github.com/alexanderramin/timeline/internal/domain"
)

// Recompute resolves planned dates for an ordered chain in a single pass.
//
// Auto items cascade: each starts the day after the previous resolved Auto
// item ends. The first Auto item with nothing before it takes
// commonStartOverride when given, else its stored start. With
// ExcludeNonWorkdays the start is moved forward to a workday and the
// duration counts workdays only. An Auto item that cannot be resolved (no
// anchor or no duration) gets no end date and breaks the cascade, so the
// next Auto item falls back to its own stored start.
//
// Manual items keep their dates. Their end is derived only when start and
// duration are set and end is not. They neither read nor move the cascade.
//
// The input is not modified. The result is a fresh slice sorted by Order;
// Order and AssignmentType are copied through unchanged. Recompute panics
// when cal is nil.
func Recompute(items []domain.ScheduleItem, cal Calendar, commonStartOverride *time.Time) []domain.ScheduleItem {
	if cal == nil {
		panic("scheduler: Recompute called with nil calendar")
	}

	out := make([]domain.ScheduleItem, len(items))
	for i := range items {
		out[i] = items[i].Clone()
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })

	var cursor *time.Time
	overrideUsed := false

	for i := range out {
		it := &out[i]
		if it.AssignmentType == domain.AssignManual {
			resolveManual(it, cal)
			continue
		}

		var candidate *time.Time
		switch {
		case cursor != nil:
			next := cursor.AddDate(0, 0, 1)
			candidate = &next
		case commonStartOverride != nil && !overrideUsed:
			candidate = domain.CloneTime(commonStartOverride)
		default:
			candidate = domain.CloneTime(it.StartDate)
		}
		overrideUsed = true

		cursor = resolveAuto(it, candidate, cal)
	}
	return out
}

// resolveAuto sets an Auto item's dates from candidate and returns the new
// cursor, nil when the item stays unresolved.
func resolveAuto(it *domain.ScheduleItem, candidate *time.Time, cal Calendar) *time.Time {
	if candidate == nil {
		it.StartDate = nil
		it.EndDate = nil
		return nil
	}

	start := domain.NormalizeDate(*candidate)
	if it.ExcludeNonWorkdays {
		wd, ok := NextWorkday(start, cal)
		if !ok {
			it.StartDate = &start
			it.EndDate = nil
			return nil
		}
		start = wd
	}
	it.StartDate = &start

	if it.DurationWorkdays == nil {
		it.EndDate = nil
		return nil
	}
	end, ok := AddWorkdays(start, *it.DurationWorkdays, it.ExcludeNonWorkdays, cal)
	if !ok {
		it.EndDate = nil
		return nil
	}
	it.EndDate = &end
	return domain.CloneTime(&end)
}

func resolveManual(it *domain.ScheduleItem, cal Calendar) {
	if it.StartDate == nil || it.DurationWorkdays == nil || it.EndDate != nil {
		return
	}
	if end, ok := AddWorkdays(*it.StartDate, *it.DurationWorkdays, it.ExcludeNonWorkdays, cal); ok {
		it.EndDate = &end
	}
}
