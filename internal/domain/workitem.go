package domain

import "time"

// WorkItem is the scheduler's view of an engineering or construction task
// owned by the host's approval workflow.
type WorkItem struct {
	ID          string
	ResourceKey string
	FiscalYear  int
	Title       string
	Status      WorkItemStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsEligible reports whether the item should hold a slot in its chain.
func (w *WorkItem) IsEligible() bool {
	return w.Status != WorkItemCompleted && w.Status != WorkItemWithdrawn
}
