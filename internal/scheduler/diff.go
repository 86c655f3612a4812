package scheduler

import "github.com/alexanderramin/timeline/internal/domain"

// Diff returns the ids of items in after whose planned dates differ from the
// same item in before, in after's order. Items missing from before count as
// changed.
func Diff(before, after []domain.ScheduleItem) []string {
	prev := make(map[string]domain.ScheduleItem, len(before))
	for _, it := range before {
		prev[it.ID] = it
	}
	var changed []string
	for _, it := range after {
		old, ok := prev[it.ID]
		if !ok || !domain.EqualDates(old.StartDate, it.StartDate) || !domain.EqualDates(old.EndDate, it.EndDate) {
			changed = append(changed, it.ID)
		}
	}
	return changed
}
