package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/timeline/internal/calendar"
	"github.com/alexanderramin/timeline/internal/chain"
	"github.com/alexanderramin/timeline/internal/contract"
	"github.com/alexanderramin/timeline/internal/db"
	"github.com/alexanderramin/timeline/internal/domain"
	"github.com/alexanderramin/timeline/internal/repository"
	"github.com/alexanderramin/timeline/internal/scheduler"
)

type scheduleService struct {
	uow        db.UnitOfWork
	startMonth time.Month
	now        func() time.Time
	observer   UseCaseObserver
}

func NewScheduleService(uow db.UnitOfWork, fiscalStart time.Month, observers ...UseCaseObserver) ScheduleService {
	return &scheduleService{
		uow:        uow,
		startMonth: fiscalStart,
		now:        func() time.Time { return time.Now().UTC() },
		observer:   useCaseObserverOrNoop(observers),
	}
}

// openChain is a chain loaded inside a transaction. Its calendar is bound to
// the chain's fiscal year, with the following year loaded for spill-over.
type openChain struct {
	stored  *domain.Chain
	chain   *chain.Chain
	missing []int
}

func (o *openChain) holidaysLoaded() bool {
	for _, fy := range o.missing {
		if fy == o.stored.Key.FiscalYear {
			return false
		}
	}
	return true
}

func (s *scheduleService) open(ctx context.Context, tx db.DBTX, ref contract.ChainRef) (*openChain, error) {
	return loadChain(ctx, tx, ref, s.startMonth, s.now)
}

func loadChain(ctx context.Context, tx db.DBTX, ref contract.ChainRef, startMonth time.Month, now func() time.Time) (*openChain, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	stored, err := repository.NewSQLiteChainRepo(tx).LoadChain(ctx, ref.ResourceKey, ref.FiscalYear)
	if err != nil {
		return nil, err
	}
	if ref.ExpectedVersion != nil && *ref.ExpectedVersion != stored.Version {
		return nil, fmt.Errorf("chain %s is at version %d, expected %d: %w",
			stored.Key, stored.Version, *ref.ExpectedVersion, domain.ErrConflict)
	}

	cal, missing, err := calendar.Load(ctx, repository.NewSQLiteHolidayRepo(tx), startMonth, ref.FiscalYear, ref.FiscalYear+1)
	if err != nil {
		return nil, err
	}
	c, err := chain.New(stored.Key, stored.Items, cal.ForYear(ref.FiscalYear), chain.WithClock(now))
	if err != nil {
		return nil, err
	}
	return &openChain{stored: stored, chain: c, missing: missing}, nil
}

// chainOp applies one operation to an open chain. It returns items that
// left the chain and whether the chain must be saved even when no date
// moved.
type chainOp func(ctx context.Context, tx db.DBTX, c *chain.Chain) (closed []domain.ScheduleItem, dirty bool, err error)

// mutate runs op inside a transaction and saves the chain under the version
// it was loaded with. A clean op that moved no dates is not saved.
func (s *scheduleService) mutate(ctx context.Context, name string, ref contract.ChainRef, fields map[string]any, op chainOp) (result *contract.ChainResult, err error) {
	startedAt := time.Now().UTC()
	fields["resource_key"] = ref.ResourceKey
	fields["fiscal_year"] = ref.FiscalYear
	defer func() {
		s.observer.ObserveUseCase(ctx, UseCaseEvent{
			Name:      name,
			StartedAt: startedAt,
			Duration:  time.Since(startedAt),
			Success:   err == nil,
			Err:       err,
			Fields:    fields,
		})
	}()

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		oc, err := s.open(ctx, tx, ref)
		if err != nil {
			return err
		}
		fields["holidays_loaded"] = oc.holidaysLoaded()

		before := oc.stored.Items
		closed, dirty, err := op(ctx, tx, oc.chain)
		if err != nil {
			return err
		}
		after := oc.chain.Items()
		changed := scheduler.Diff(before, after)
		if changed == nil {
			changed = []string{}
		}
		fields["changed_count"] = len(changed)

		if !dirty && len(changed) == 0 && len(closed) == 0 {
			fields["saved"] = false
			result = &contract.ChainResult{Chain: contract.NewChainView(oc.stored, oc.holidaysLoaded()), Changed: changed}
			return nil
		}

		next := &domain.Chain{Key: oc.stored.Key, Items: after}
		if err := repository.NewSQLiteChainRepo(tx).SaveChain(ctx, next, oc.stored.Version, closed...); err != nil {
			return fmt.Errorf("saving chain %s: %w", next.Key, err)
		}
		fields["saved"] = true
		fields["version"] = next.Version
		result = &contract.ChainResult{Chain: contract.NewChainView(next, oc.holidaysLoaded()), Changed: changed}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *scheduleService) Show(ctx context.Context, ref contract.ChainRef) (*contract.ChainView, error) {
	var view contract.ChainView
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		oc, err := s.open(ctx, tx, ref)
		if err != nil {
			return err
		}
		view = contract.NewChainView(oc.stored, oc.holidaysLoaded())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *scheduleService) Recompute(ctx context.Context, ref contract.ChainRef) (*contract.ChainResult, error) {
	return s.mutate(ctx, "chain.recompute", ref, map[string]any{},
		func(_ context.Context, _ db.DBTX, c *chain.Chain) ([]domain.ScheduleItem, bool, error) {
			c.Recompute()
			return nil, false, nil
		})
}

func (s *scheduleService) Reorder(ctx context.Context, req contract.ReorderRequest) (*contract.ChainResult, error) {
	fields := map[string]any{"item_id": req.ItemID, "new_index": req.NewIndex}
	return s.mutate(ctx, "chain.reorder", req.ChainRef, fields,
		func(_ context.Context, _ db.DBTX, c *chain.Chain) ([]domain.ScheduleItem, bool, error) {
			_, err := c.Reorder(req.ItemID, req.NewIndex)
			return nil, true, err
		})
}

func (s *scheduleService) ApplyCommonStart(ctx context.Context, req contract.CommonStartRequest) (*contract.ChainResult, error) {
	fields := map[string]any{"start_date": req.StartDate}
	return s.mutate(ctx, "chain.common_start", req.ChainRef, fields,
		func(_ context.Context, _ db.DBTX, c *chain.Chain) ([]domain.ScheduleItem, bool, error) {
			start, err := domain.ParseDate("start_date", req.StartDate)
			if err != nil {
				return nil, false, err
			}
			_, err = c.ApplyCommonStart(start)
			return nil, true, err
		})
}

func (s *scheduleService) EditItem(ctx context.Context, req contract.EditItemRequest) (*contract.ChainResult, error) {
	fields := map[string]any{"item_id": req.ItemID}
	return s.mutate(ctx, "chain.edit_item", req.ChainRef, fields,
		func(_ context.Context, _ db.DBTX, c *chain.Chain) ([]domain.ScheduleItem, bool, error) {
			patch, err := req.ToPatch()
			if err != nil {
				return nil, false, err
			}
			if patch.IsEmpty() {
				return nil, false, domain.NewValidationError("patch", "no fields to change")
			}
			_, err = c.EditItem(req.ItemID, patch)
			return nil, true, err
		})
}

func (s *scheduleService) Close(ctx context.Context, req contract.CloseItemRequest) (*contract.ChainResult, error) {
	fields := map[string]any{"item_id": req.ItemID}
	return s.mutate(ctx, "chain.close_item", req.ChainRef, fields,
		func(_ context.Context, _ db.DBTX, c *chain.Chain) ([]domain.ScheduleItem, bool, error) {
			closed, _, err := c.Close(req.ItemID, s.now())
			if err != nil {
				return nil, false, err
			}
			return []domain.ScheduleItem{closed}, true, nil
		})
}

// Sync closes chain items whose work item is no longer eligible and appends
// eligible work items the chain does not hold yet, in creation order.
func (s *scheduleService) Sync(ctx context.Context, req contract.SyncRequest) (*contract.SyncResult, error) {
	if req.DefaultDurationWorkdays != nil && *req.DefaultDurationWorkdays <= 0 {
		return nil, domain.NewValidationError("default_duration_workdays", "must be > 0, got %d", *req.DefaultDurationWorkdays)
	}

	appended := []string{}
	closedIDs := []string{}
	fields := map[string]any{}
	res, err := s.mutate(ctx, "chain.sync", req.ChainRef, fields,
		func(ctx context.Context, tx db.DBTX, c *chain.Chain) ([]domain.ScheduleItem, bool, error) {
			eligible, err := repository.NewSQLiteWorkItemRepo(tx).ListEligible(ctx, req.ResourceKey, req.FiscalYear)
			if err != nil {
				return nil, false, err
			}
			keep := make(map[string]bool, len(eligible))
			for _, w := range eligible {
				keep[w.ID] = true
			}

			var closed []domain.ScheduleItem
			for _, it := range c.Items() {
				if keep[it.ID] {
					continue
				}
				item, _, err := c.Close(it.ID, s.now())
				if err != nil {
					return nil, false, err
				}
				closed = append(closed, item)
				closedIDs = append(closedIDs, it.ID)
			}

			for _, w := range eligible {
				if _, err := c.Find(w.ID); !errors.Is(err, domain.ErrNotFound) {
					continue
				}
				item := domain.ScheduleItem{
					ID:                 w.ID,
					Title:              w.Title,
					AssignmentType:     domain.AssignAuto,
					DurationWorkdays:   domain.CloneInt(req.DefaultDurationWorkdays),
					ExcludeNonWorkdays: true,
					AssignedBy:         domain.CoalesceStr(req.AssignedBy, "sync"),
				}
				if _, err := c.Append(item); err != nil {
					return nil, false, err
				}
				appended = append(appended, w.ID)
			}
			fields["appended"] = len(appended)
			fields["closed"] = len(closedIDs)
			return closed, len(appended) > 0, nil
		})
	if err != nil {
		return nil, err
	}
	return &contract.SyncResult{ChainResult: *res, Appended: appended, Closed: closedIDs}, nil
}

func (s *scheduleService) History(ctx context.Context, ref contract.ChainRef) ([]contract.ScheduleItemView, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	var items []domain.ScheduleItem
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		var err error
		items, err = repository.NewSQLiteChainRepo(tx).ListClosed(ctx, ref.ResourceKey, ref.FiscalYear)
		return err
	})
	if err != nil {
		return nil, err
	}
	return contract.NewScheduleItemViews(items), nil
}

func (s *scheduleService) ListChains(ctx context.Context) ([]domain.ChainKey, error) {
	var keys []domain.ChainKey
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		var err error
		keys, err = repository.NewSQLiteChainRepo(tx).ListChains(ctx)
		return err
	})
	return keys, err
}
