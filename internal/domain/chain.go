package domain

import (
	"fmt"
	"time"
)

// ChainKey identifies one resource's chain for one fiscal year.
type ChainKey struct {
	ResourceKey string
	FiscalYear  int
}

func (k ChainKey) String() string {
	return fmt.Sprintf("%s/%d", k.ResourceKey, k.FiscalYear)
}

// Chain is the persisted state of one resource's ordered schedule items.
// Version increases by one on every successful save.
type Chain struct {
	Key       ChainKey
	Version   int64
	UpdatedAt time.Time
	Items     []ScheduleItem
}

// CheckOrder verifies the items' Order values are exactly 0..n-1 in slice
// order.
func CheckOrder(items []ScheduleItem) error {
	for i, it := range items {
		if it.Order != i {
			return fmt.Errorf("item %s at position %d has order %d: %w", it.ID, i, it.Order, ErrDataIntegrity)
		}
	}
	return nil
}

// CloneItems deep-copies a slice of schedule items.
func CloneItems(items []ScheduleItem) []ScheduleItem {
	if items == nil {
		return nil
	}
	out := make([]ScheduleItem, len(items))
	for i := range items {
		out[i] = items[i].Clone()
	}
	return out
}
