package chain

import (
	"sort"

	"github.com/alexanderramin/timeline/internal/domain"
)

func sortByOrder(items []domain.ScheduleItem) {
	sort.SliceStable(items, func(i, j int) bool { return items[i].Order < items[j].Order })
}

// move relocates items[from] to index to, shifting the items between.
func move(items []domain.ScheduleItem, from, to int) []domain.ScheduleItem {
	if from == to {
		return items
	}
	it := items[from]
	items = append(items[:from], items[from+1:]...)
	items = append(items[:to], append([]domain.ScheduleItem{it}, items[to:]...)...)
	return items
}

func renumber(items []domain.ScheduleItem) {
	for i := range items {
		items[i].Order = i
	}
}
