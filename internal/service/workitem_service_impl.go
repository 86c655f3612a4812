package service

import (
	"context"
	"strings"
	"time"

	"github.com/alexanderramin/timeline/internal/db"
	"github.com/alexanderramin/timeline/internal/domain"
	"github.com/alexanderramin/timeline/internal/repository"
	"github.com/google/uuid"
)

type workItemService struct {
	uow      db.UnitOfWork
	now      func() time.Time
	observer UseCaseObserver
}

func NewWorkItemService(uow db.UnitOfWork, observers ...UseCaseObserver) WorkItemService {
	return &workItemService{
		uow:      uow,
		now:      func() time.Time { return time.Now().UTC() },
		observer: useCaseObserverOrNoop(observers),
	}
}

// Create registers a work item. A blank id gets a fresh UUID and a blank
// status defaults to approved.
func (s *workItemService) Create(ctx context.Context, w *domain.WorkItem) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"resource_key": w.ResourceKey, "fiscal_year": w.FiscalYear}
	defer func() {
		s.observer.ObserveUseCase(ctx, UseCaseEvent{
			Name:      "work_item.create",
			StartedAt: startedAt,
			Duration:  time.Since(startedAt),
			Success:   err == nil,
			Err:       err,
			Fields:    fields,
		})
	}()

	w.Title = strings.TrimSpace(w.Title)
	if w.ResourceKey == "" {
		return domain.NewValidationError("resource_key", "is required")
	}
	if w.FiscalYear <= 0 {
		return domain.NewValidationError("fiscal_year", "must be a positive year, got %d", w.FiscalYear)
	}
	if w.Title == "" {
		return domain.NewValidationError("title", "is required")
	}
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	if w.Status == "" {
		w.Status = domain.WorkItemApproved
	}
	if !domain.ValidWorkItemStatuses[string(w.Status)] {
		return domain.NewValidationError("status", "invalid work item status %q", w.Status)
	}
	now := s.now()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	w.UpdatedAt = now
	fields["work_item_id"] = w.ID

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return repository.NewSQLiteWorkItemRepo(tx).Create(ctx, w)
	})
}

func (s *workItemService) GetByID(ctx context.Context, id string) (*domain.WorkItem, error) {
	var w *domain.WorkItem
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		var err error
		w, err = repository.NewSQLiteWorkItemRepo(tx).GetByID(ctx, id)
		return err
	})
	return w, err
}

func (s *workItemService) ListEligible(ctx context.Context, resourceKey string, fiscalYear int) ([]*domain.WorkItem, error) {
	var items []*domain.WorkItem
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		var err error
		items, err = repository.NewSQLiteWorkItemRepo(tx).ListEligible(ctx, resourceKey, fiscalYear)
		return err
	})
	return items, err
}

// UpdateStatus records an approval-workflow transition. The chain is not
// touched here; the next sync closes or appends the item.
func (s *workItemService) UpdateStatus(ctx context.Context, id string, status domain.WorkItemStatus) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"work_item_id": id, "status": string(status)}
	defer func() {
		s.observer.ObserveUseCase(ctx, UseCaseEvent{
			Name:      "work_item.update_status",
			StartedAt: startedAt,
			Duration:  time.Since(startedAt),
			Success:   err == nil,
			Err:       err,
			Fields:    fields,
		})
	}()

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return repository.NewSQLiteWorkItemRepo(tx).UpdateStatus(ctx, id, status, s.now())
	})
}

func (s *workItemService) ListChainKeys(ctx context.Context) ([]domain.ChainKey, error) {
	var keys []domain.ChainKey
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		var err error
		keys, err = repository.NewSQLiteWorkItemRepo(tx).ListChainKeys(ctx)
		return err
	})
	return keys, err
}
