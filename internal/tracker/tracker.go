// Package tracker records actual execution data against schedule items.
// Progress is an overlay keyed by item id and never changes planned dates.
package tracker

import (
	"strings"
	"time"

	"github.com/alexanderramin/timeline/internal/domain"
)

// Record merges update into existing (nil on the first update for an item)
// and returns the new record. existing is not modified.
func Record(existing *domain.ActualProgress, itemID string, update domain.ProgressUpdate, now time.Time) (*domain.ActualProgress, error) {
	next := domain.ActualProgress{ItemID: itemID}
	if existing != nil {
		next = *existing
		next.ActualStartDate = domain.CloneTime(existing.ActualStartDate)
		next.ActualEndDate = domain.CloneTime(existing.ActualEndDate)
		next.ItemID = itemID
	}

	if update.ActualStartDate != nil {
		next.ActualStartDate = normalized(update.ActualStartDate.Value)
	}
	if update.ActualEndDate != nil {
		next.ActualEndDate = normalized(update.ActualEndDate.Value)
	}
	next.ProgressPercent = update.ProgressPercent
	if update.StatusNotes != nil {
		next.StatusNotes = strings.TrimSpace(*update.StatusNotes)
	}
	next.UpdatedBy = domain.CoalesceStr(update.UpdatedBy, next.UpdatedBy)
	next.UpdatedAt = now

	if err := next.Validate(); err != nil {
		return nil, err
	}
	return &next, nil
}

// IsComplete reports whether the item is reported fully done.
func IsComplete(progress *domain.ActualProgress) bool {
	return progress != nil && progress.ProgressPercent == 100
}

// IsOverdue reports whether the planned end is before today while the item
// is not complete. Items without a planned end are never overdue.
func IsOverdue(item domain.ScheduleItem, progress *domain.ActualProgress, today time.Time) bool {
	if item.EndDate == nil || IsComplete(progress) {
		return false
	}
	return item.EndDate.Before(domain.NormalizeDate(today))
}

func normalized(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := domain.NormalizeDate(*t)
	return &v
}
