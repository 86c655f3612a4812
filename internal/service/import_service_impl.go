package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/timeline/internal/contract"
	"github.com/alexanderramin/timeline/internal/db"
	"github.com/alexanderramin/timeline/internal/domain"
	"github.com/alexanderramin/timeline/internal/importer"
	"github.com/alexanderramin/timeline/internal/repository"
)

type importService struct {
	uow        db.UnitOfWork
	startMonth time.Month
	now        func() time.Time
	observer   UseCaseObserver
}

func NewImportService(uow db.UnitOfWork, fiscalStart time.Month, observers ...UseCaseObserver) ImportService {
	return &importService{
		uow:        uow,
		startMonth: fiscalStart,
		now:        func() time.Time { return time.Now().UTC() },
		observer:   useCaseObserverOrNoop(observers),
	}
}

func (s *importService) ImportPlan(ctx context.Context, filePath string) (*ImportResult, error) {
	f, err := importer.LoadPlanFile(filePath)
	if err != nil {
		return nil, domain.NewValidationError("file", "loading import file: %v", err)
	}
	return s.ImportPlanFromFile(ctx, f)
}

// ImportPlanFromFile creates the plan's work items and appends their chain
// items behind whatever each chain already holds. Everything happens in one
// transaction.
func (s *importService) ImportPlanFromFile(ctx context.Context, f *importer.PlanFile) (result *ImportResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"fiscal_year": f.FiscalYear, "resources": len(f.Resources)}
	defer func() {
		s.observer.ObserveUseCase(ctx, UseCaseEvent{
			Name:      "plan.import",
			StartedAt: startedAt,
			Duration:  time.Since(startedAt),
			Success:   err == nil,
			Err:       err,
			Fields:    fields,
		})
	}()

	if errs := importer.ValidatePlanFile(f); len(errs) > 0 {
		return nil, formatValidationErrors("import", errs)
	}
	generated, err := importer.ConvertPlan(f, s.now())
	if err != nil {
		return nil, fmt.Errorf("converting plan: %w", err)
	}

	result = &ImportResult{}
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		workItems := repository.NewSQLiteWorkItemRepo(tx)
		for _, gc := range generated.Chains {
			for _, wi := range gc.WorkItems {
				if err := workItems.Create(ctx, wi); err != nil {
					return fmt.Errorf("creating work item %q: %w", wi.Title, err)
				}
			}
			view, err := s.seedChain(ctx, tx, gc)
			if err != nil {
				return err
			}
			result.Chains = append(result.Chains, *view)
			result.WorkItemCount += len(gc.WorkItems)
			result.ItemCount += len(gc.Items)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	fields["work_items"] = result.WorkItemCount
	fields["items"] = result.ItemCount
	return result, nil
}

func (s *importService) seedChain(ctx context.Context, tx db.DBTX, gc importer.GeneratedChain) (*contract.ChainView, error) {
	ref := contract.ChainRef{ResourceKey: gc.Key.ResourceKey, FiscalYear: gc.Key.FiscalYear}
	oc, err := loadChain(ctx, tx, ref, s.startMonth, s.now)
	if err != nil {
		return nil, err
	}
	for _, item := range gc.Items {
		if _, err := oc.chain.Find(item.ID); !errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewValidationError("id", "item %s is already in chain %s", item.ID, gc.Key)
		}
		if _, err := oc.chain.Append(item); err != nil {
			return nil, fmt.Errorf("seeding chain %s: %w", gc.Key, err)
		}
	}
	if gc.CommonStart != nil {
		if _, err := oc.chain.ApplyCommonStart(*gc.CommonStart); err != nil {
			return nil, err
		}
	}

	next := &domain.Chain{Key: gc.Key, Items: oc.chain.Items()}
	if err := repository.NewSQLiteChainRepo(tx).SaveChain(ctx, next, oc.stored.Version); err != nil {
		return nil, fmt.Errorf("saving chain %s: %w", gc.Key, err)
	}
	view := contract.NewChainView(next, oc.holidaysLoaded())
	return &view, nil
}
