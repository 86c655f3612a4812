package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/timeline/internal/calendar"
	"github.com/alexanderramin/timeline/internal/contract"
	"github.com/alexanderramin/timeline/internal/db"
	"github.com/alexanderramin/timeline/internal/domain"
	"github.com/alexanderramin/timeline/internal/repository"
	"github.com/alexanderramin/timeline/internal/scheduler"
	"github.com/alexanderramin/timeline/internal/tracker"
)

type progressService struct {
	uow        db.UnitOfWork
	startMonth time.Month
	now        func() time.Time
	observer   UseCaseObserver
}

func NewProgressService(uow db.UnitOfWork, fiscalStart time.Month, observers ...UseCaseObserver) ProgressService {
	return &progressService{
		uow:        uow,
		startMonth: fiscalStart,
		now:        func() time.Time { return time.Now().UTC() },
		observer:   useCaseObserverOrNoop(observers),
	}
}

// Record stores one progress update for a schedule item. Planned dates are
// never touched.
func (s *progressService) Record(ctx context.Context, req contract.RecordProgressRequest) (view *contract.ProgressView, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"item_id": req.ItemID, "progress_percent": req.ProgressPercent}
	defer func() {
		s.observer.ObserveUseCase(ctx, UseCaseEvent{
			Name:      "progress.record",
			StartedAt: startedAt,
			Duration:  time.Since(startedAt),
			Success:   err == nil,
			Err:       err,
			Fields:    fields,
		})
	}()

	if req.ItemID == "" {
		return nil, domain.NewValidationError("item_id", "is required")
	}
	update, err := req.ToUpdate()
	if err != nil {
		return nil, err
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if _, err := repository.NewSQLiteChainRepo(tx).FindItem(ctx, req.ItemID); err != nil {
			return err
		}
		progress := repository.NewSQLiteProgressRepo(tx)
		existing, err := progress.Get(ctx, req.ItemID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		fields["first_update"] = existing == nil

		next, err := tracker.Record(existing, req.ItemID, update, s.now())
		if err != nil {
			return err
		}
		if err := progress.Upsert(ctx, next); err != nil {
			return fmt.Errorf("recording progress: %w", err)
		}
		view = contract.NewProgressView(next)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *progressService) Get(ctx context.Context, itemID string) (*contract.ProgressView, error) {
	var p *domain.ActualProgress
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		var err error
		p, err = repository.NewSQLiteProgressRepo(tx).Get(ctx, itemID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return contract.NewProgressView(p), nil
}

// Status assesses every active item of a chain as of a day and lists them
// most urgent first.
func (s *progressService) Status(ctx context.Context, req contract.StatusRequest) (resp *contract.StatusResponse, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"resource_key": req.ResourceKey, "fiscal_year": req.FiscalYear}
	defer func() {
		s.observer.ObserveUseCase(ctx, UseCaseEvent{
			Name:      "progress.status",
			StartedAt: startedAt,
			Duration:  time.Since(startedAt),
			Success:   err == nil,
			Err:       err,
			Fields:    fields,
		})
	}()

	ref := contract.ChainRef{ResourceKey: req.ResourceKey, FiscalYear: req.FiscalYear}
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	asOf := domain.NormalizeDate(s.now())
	if req.AsOf != nil {
		d, err := domain.ParseDatePtr("as_of", req.AsOf)
		if err != nil {
			return nil, err
		}
		if d != nil {
			asOf = *d
		}
	}

	var (
		stored   *domain.Chain
		cal      *calendar.HolidayCalendar
		missing  []int
		progress map[string]*domain.ActualProgress
	)
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		var err error
		stored, err = repository.NewSQLiteChainRepo(tx).LoadChain(ctx, req.ResourceKey, req.FiscalYear)
		if err != nil {
			return err
		}
		cal, missing, err = calendar.Load(ctx, repository.NewSQLiteHolidayRepo(tx), s.startMonth, req.FiscalYear, req.FiscalYear+1)
		if err != nil {
			return err
		}
		ids := make([]string, 0, len(stored.Items))
		for _, it := range stored.Items {
			ids = append(ids, it.ID)
		}
		progress, err = repository.NewSQLiteProgressRepo(tx).ListByItems(ctx, ids)
		return err
	})
	if err != nil {
		return nil, err
	}

	resp = &contract.StatusResponse{
		ResourceKey:    req.ResourceKey,
		FiscalYear:     req.FiscalYear,
		AsOf:           domain.FormatDate(asOf),
		HolidaysLoaded: cal.HasYear(req.FiscalYear),
		Items:          []contract.ItemStatus{},
	}
	fields["holidays_loaded"] = resp.HolidaysLoaded
	fields["holidays_missing"] = len(missing)

	yearCal := cal.ForYear(req.FiscalYear)
	for _, it := range stored.Items {
		p := progress[it.ID]
		a := tracker.Assess(it, p, asOf, yearCal)
		if req.OnlyOverdue && !a.Overdue {
			continue
		}
		resp.Items = append(resp.Items, contract.ItemStatus{
			Item:         contract.NewScheduleItemView(it),
			Progress:     contract.NewProgressView(p),
			State:        string(a.State),
			Risk:         a.Risk,
			Overdue:      a.Overdue,
			Complete:     a.Complete,
			SlipWorkdays: a.SlipWorkdays,
			WorkdaysLeft: a.WorkdaysLeft,
		})
		tally(&resp.Summary, a)
	}

	planned := make(map[string]*time.Time, len(stored.Items))
	for i := range stored.Items {
		planned[stored.Items[i].ID] = stored.Items[i].EndDate
	}
	scheduler.SortByUrgency(resp.Items, func(st contract.ItemStatus) scheduler.UrgencyKey {
		return scheduler.UrgencyKey{
			ItemID:     st.Item.ID,
			Risk:       st.Risk,
			PlannedEnd: planned[st.Item.ID],
			Order:      st.Item.Order,
		}
	})
	fields["items"] = len(resp.Items)
	fields["overdue"] = resp.Summary.Overdue
	return resp, nil
}

func tally(sum *contract.StatusSummary, a tracker.Assessment) {
	sum.Total++
	switch a.Risk {
	case domain.RiskCritical:
		sum.Critical++
	case domain.RiskAtRisk:
		sum.AtRisk++
	default:
		sum.OnTrack++
	}
	if a.Overdue {
		sum.Overdue++
	}
	if a.Complete {
		sum.Complete++
	}
}
