package testutil

import (
	"time"

	"github.com/alexanderramin/timeline/internal/domain"
	"github.com/google/uuid"
)

// Date is a shorthand for domain.Date in table-driven tests.
func Date(y int, m time.Month, d int) time.Time {
	return domain.Date(y, m, d)
}

// DatePtr returns a pointer to a calendar date.
func DatePtr(y int, m time.Month, d int) *time.Time {
	t := domain.Date(y, m, d)
	return &t
}

func IntPtr(v int) *int { return &v }

// ScheduleItem options
type ItemOption func(*domain.ScheduleItem)

func WithOrder(order int) ItemOption {
	return func(it *domain.ScheduleItem) {
		it.Order = order
	}
}

func WithDuration(workdays int) ItemOption {
	return func(it *domain.ScheduleItem) {
		it.DurationWorkdays = &workdays
	}
}

func WithoutDuration() ItemOption {
	return func(it *domain.ScheduleItem) {
		it.DurationWorkdays = nil
	}
}

func WithStart(start time.Time) ItemOption {
	return func(it *domain.ScheduleItem) {
		it.StartDate = &start
	}
}

// WithManual pins an item to explicit dates. end may be nil to let the
// recomputer derive it.
func WithManual(start time.Time, end *time.Time) ItemOption {
	return func(it *domain.ScheduleItem) {
		it.AssignmentType = domain.AssignManual
		it.StartDate = &start
		it.EndDate = end
	}
}

func WithCalendarDays() ItemOption {
	return func(it *domain.ScheduleItem) {
		it.ExcludeNonWorkdays = false
	}
}

func WithChain(resourceKey string, fiscalYear int) ItemOption {
	return func(it *domain.ScheduleItem) {
		it.ResourceKey = resourceKey
		it.FiscalYear = fiscalYear
	}
}

func WithTitle(title string) ItemOption {
	return func(it *domain.ScheduleItem) {
		it.Title = title
	}
}

// NewTestItem builds an Auto item of five workdays that skips non-workdays.
func NewTestItem(id string, opts ...ItemOption) domain.ScheduleItem {
	if id == "" {
		id = uuid.New().String()
	}
	it := domain.ScheduleItem{
		ID:                 id,
		ResourceKey:        "estimator-1",
		FiscalYear:         2023,
		Title:              "Item " + id,
		AssignmentType:     domain.AssignAuto,
		DurationWorkdays:   IntPtr(5),
		ExcludeNonWorkdays: true,
		AssignedBy:         "test",
		AssignedAt:         time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
	}
	for _, opt := range opts {
		opt(&it)
	}
	return it
}

// NewTestChain numbers items 0..n-1 in the given order and wraps them in an
// unsaved chain.
func NewTestChain(resourceKey string, fiscalYear int, items ...domain.ScheduleItem) *domain.Chain {
	c := &domain.Chain{Key: domain.ChainKey{ResourceKey: resourceKey, FiscalYear: fiscalYear}}
	for i, it := range items {
		it.Order = i
		it.ResourceKey = resourceKey
		it.FiscalYear = fiscalYear
		c.Items = append(c.Items, it)
	}
	return c
}

// WorkItem options
type WorkItemOption func(*domain.WorkItem)

func WithStatus(s domain.WorkItemStatus) WorkItemOption {
	return func(w *domain.WorkItem) {
		w.Status = s
	}
}

func WithCreatedAt(t time.Time) WorkItemOption {
	return func(w *domain.WorkItem) {
		w.CreatedAt = t
		w.UpdatedAt = t
	}
}

func NewTestWorkItem(resourceKey string, fiscalYear int, title string, opts ...WorkItemOption) *domain.WorkItem {
	now := time.Now().UTC().Truncate(time.Second)
	w := &domain.WorkItem{
		ID:          uuid.New().String(),
		ResourceKey: resourceKey,
		FiscalYear:  fiscalYear,
		Title:       title,
		Status:      domain.WorkItemApproved,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}
