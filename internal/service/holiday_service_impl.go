package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/timeline/internal/db"
	"github.com/alexanderramin/timeline/internal/domain"
	"github.com/alexanderramin/timeline/internal/importer"
	"github.com/alexanderramin/timeline/internal/repository"
)

type holidayService struct {
	uow        db.UnitOfWork
	startMonth time.Month
	observer   UseCaseObserver
}

func NewHolidayService(uow db.UnitOfWork, fiscalStart time.Month, observers ...UseCaseObserver) HolidayService {
	return &holidayService{
		uow:        uow,
		startMonth: fiscalStart,
		observer:   useCaseObserverOrNoop(observers),
	}
}

// Import replaces the stored holidays of set.FiscalYear. Every date must
// fall inside that fiscal year.
func (s *holidayService) Import(ctx context.Context, set domain.HolidaySet) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"fiscal_year": set.FiscalYear, "holidays": set.Len()}
	defer func() {
		s.observer.ObserveUseCase(ctx, UseCaseEvent{
			Name:      "holiday.import",
			StartedAt: startedAt,
			Duration:  time.Since(startedAt),
			Success:   err == nil,
			Err:       err,
			Fields:    fields,
		})
	}()

	if set.FiscalYear <= 0 {
		return domain.NewValidationError("fiscal_year", "must be a positive year, got %d", set.FiscalYear)
	}
	first, last := domain.FiscalYearBounds(set.FiscalYear, s.startMonth)
	for _, h := range set.Holidays() {
		if h.Date.Before(first) || h.Date.After(last) {
			return domain.NewValidationError("date", "%s is outside fiscal year %d", domain.FormatDate(h.Date), set.FiscalYear)
		}
	}

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if err := repository.NewSQLiteHolidayRepo(tx).ReplaceHolidays(ctx, set); err != nil {
			return fmt.Errorf("importing holidays: %w", err)
		}
		return nil
	})
}

func (s *holidayService) ImportFile(ctx context.Context, path string) (*domain.HolidaySet, error) {
	f, err := importer.LoadHolidayFile(path)
	if err != nil {
		return nil, domain.NewValidationError("file", "%v", err)
	}
	if errs := importer.ValidateHolidayFile(f, s.startMonth); len(errs) > 0 {
		return nil, formatValidationErrors("holiday file", errs)
	}
	set, err := importer.ToHolidaySet(f)
	if err != nil {
		return nil, err
	}
	if err := s.Import(ctx, set); err != nil {
		return nil, err
	}
	return &set, nil
}

func (s *holidayService) Get(ctx context.Context, fiscalYear int) (*domain.HolidaySet, error) {
	var set domain.HolidaySet
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		var err error
		set, err = repository.NewSQLiteHolidayRepo(tx).LoadHolidays(ctx, fiscalYear)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &set, nil
}

func (s *holidayService) ListYears(ctx context.Context) ([]int, error) {
	var years []int
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		var err error
		years, err = repository.NewSQLiteHolidayRepo(tx).ListYears(ctx)
		return err
	})
	return years, err
}
