package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/timeline/internal/domain"
)

var (
	ErrNotFound = domain.ErrNotFound
	ErrConflict = domain.ErrConflict
)

// ChainRepo persists whole chains. Items are never written one at a time.
type ChainRepo interface {
	// LoadChain returns the active items of a chain in order. A chain that
	// was never saved comes back empty with Version 0.
	LoadChain(ctx context.Context, resourceKey string, fiscalYear int) (*domain.Chain, error)
	// SaveChain replaces every active item of c and bumps its version,
	// provided the stored version still equals expectedVersion. closed items
	// are stored with their ClosedAt stamp in the same transaction.
	SaveChain(ctx context.Context, c *domain.Chain, expectedVersion int64, closed ...domain.ScheduleItem) error
	ListClosed(ctx context.Context, resourceKey string, fiscalYear int) ([]domain.ScheduleItem, error)
	ListChains(ctx context.Context) ([]domain.ChainKey, error)
	// FindItem locates an active or closed item by id.
	FindItem(ctx context.Context, itemID string) (*domain.ScheduleItem, error)
}

type HolidayRepo interface {
	// LoadHolidays returns ErrNotFound when no set was ever stored for the
	// year; a stored but empty set is returned as is.
	LoadHolidays(ctx context.Context, fiscalYear int) (domain.HolidaySet, error)
	ReplaceHolidays(ctx context.Context, set domain.HolidaySet) error
	ListYears(ctx context.Context) ([]int, error)
}

type WorkItemRepo interface {
	Create(ctx context.Context, w *domain.WorkItem) error
	GetByID(ctx context.Context, id string) (*domain.WorkItem, error)
	ListEligible(ctx context.Context, resourceKey string, fiscalYear int) ([]*domain.WorkItem, error)
	ListChainKeys(ctx context.Context) ([]domain.ChainKey, error)
	UpdateStatus(ctx context.Context, id string, status domain.WorkItemStatus, at time.Time) error
}

type ProgressRepo interface {
	Get(ctx context.Context, itemID string) (*domain.ActualProgress, error)
	Upsert(ctx context.Context, p *domain.ActualProgress) error
	ListByItems(ctx context.Context, itemIDs []string) (map[string]*domain.ActualProgress, error)
}
