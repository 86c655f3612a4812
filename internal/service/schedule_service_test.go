package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alexanderramin/timeline/internal/contract"
	"github.com/alexanderramin/timeline/internal/domain"
	"github.com/alexanderramin/timeline/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func anchoredChain(t *testing.T, svc ScheduleService) *contract.ChainResult {
	t.Helper()
	res, err := svc.ApplyCommonStart(context.Background(), contract.CommonStartRequest{ChainRef: testRef, StartDate: "2024-01-01"})
	require.NoError(t, err)
	return res
}

func TestScheduleService_CommonStartPropagatesThroughChain(t *testing.T) {
	database := testutil.NewTestDB(t)
	seedChain(t, database, testutil.NewTestItem("a"), testutil.NewTestItem("b"), testutil.NewTestItem("c"))
	svc := NewScheduleService(testutil.NewTestUoW(database), testFiscalStart)

	res := anchoredChain(t, svc)

	assert.Equal(t, []string{
		"a 2024-01-01..2024-01-05",
		"b 2024-01-08..2024-01-12",
		"c 2024-01-15..2024-01-19",
	}, dates(res.Chain.Items))
	assert.Equal(t, []string{"a", "b", "c"}, res.Changed)
	assert.Equal(t, int64(2), res.Chain.Version)
	assert.False(t, res.Chain.HolidaysLoaded)

	stored := loadStored(t, database)
	assert.Equal(t, int64(2), stored.Version)
	assert.Equal(t, domain.Date(2024, 1, 19), *stored.Items[2].EndDate)
}

func TestScheduleService_HolidayShiftsChain(t *testing.T) {
	database := testutil.NewTestDB(t)
	importNewYearHoliday(t, database)
	seedChain(t, database, testutil.NewTestItem("a"), testutil.NewTestItem("b"))
	svc := NewScheduleService(testutil.NewTestUoW(database), testFiscalStart)

	res := anchoredChain(t, svc)

	assert.True(t, res.Chain.HolidaysLoaded)
	assert.Equal(t, []string{
		"a 2024-01-02..2024-01-08",
		"b 2024-01-09..2024-01-15",
	}, dates(res.Chain.Items))
}

func TestScheduleService_HolidayImportedForChainYear(t *testing.T) {
	for _, start := range []time.Month{time.January, time.April} {
		t.Run(start.String(), func(t *testing.T) {
			database := testutil.NewTestDB(t)
			uow := testutil.NewTestUoW(database)
			seedChain(t, database, testutil.NewTestItem("a"))
			if start == time.January {
				require.NoError(t, NewHolidayService(uow, start).Import(context.Background(),
					domain.NewHolidaySet(testFY, domain.Holiday{Date: domain.Date(2024, 1, 1)})))
			} else {
				// Under an April start 2024-01-01 falls outside FY2024's
				// bounds, so it can only be stored directly.
				importNewYearHoliday(t, database)
			}

			res := anchoredChain(t, NewScheduleService(uow, start))

			assert.True(t, res.Chain.HolidaysLoaded)
			assert.Equal(t, []string{"a 2024-01-02..2024-01-08"}, dates(res.Chain.Items))
		})
	}
}

func TestScheduleService_CommonStartRejectsBadDate(t *testing.T) {
	database := testutil.NewTestDB(t)
	seedChain(t, database, testutil.NewTestItem("a"))
	svc := NewScheduleService(testutil.NewTestUoW(database), testFiscalStart)

	_, err := svc.ApplyCommonStart(context.Background(), contract.CommonStartRequest{ChainRef: testRef, StartDate: "01/01/2024"})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, int64(1), loadStored(t, database).Version)
}

func TestScheduleService_Reorder(t *testing.T) {
	database := testutil.NewTestDB(t)
	seedChain(t, database, testutil.NewTestItem("a"), testutil.NewTestItem("b"), testutil.NewTestItem("c"))
	svc := NewScheduleService(testutil.NewTestUoW(database), testFiscalStart)
	anchoredChain(t, svc)

	res, err := svc.Reorder(context.Background(), contract.ReorderRequest{ChainRef: testRef, ItemID: "c", NewIndex: 0})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"c 2024-01-15..2024-01-19",
		"a 2024-01-22..2024-01-26",
		"b 2024-01-29..2024-02-02",
	}, dates(res.Chain.Items))
	assert.ElementsMatch(t, []string{"a", "b", "c"}, res.Changed)
	for i, it := range res.Chain.Items {
		assert.Equal(t, i, it.Order)
	}
	assert.Equal(t, int64(3), res.Chain.Version)
}

func TestScheduleService_ReorderErrorsLeaveChainUntouched(t *testing.T) {
	database := testutil.NewTestDB(t)
	seedChain(t, database, testutil.NewTestItem("a"), testutil.NewTestItem("b"))
	svc := NewScheduleService(testutil.NewTestUoW(database), testFiscalStart)
	ctx := context.Background()

	_, err := svc.Reorder(ctx, contract.ReorderRequest{ChainRef: testRef, ItemID: "a", NewIndex: 5})
	require.ErrorIs(t, err, domain.ErrInvalidIndex)

	_, err = svc.Reorder(ctx, contract.ReorderRequest{ChainRef: testRef, ItemID: "ghost", NewIndex: 0})
	require.ErrorIs(t, err, domain.ErrNotFound)

	stored := loadStored(t, database)
	assert.Equal(t, int64(1), stored.Version)
	assert.Equal(t, "a", stored.Items[0].ID)
}

func TestScheduleService_StaleExpectedVersionConflicts(t *testing.T) {
	database := testutil.NewTestDB(t)
	seedChain(t, database, testutil.NewTestItem("a"), testutil.NewTestItem("b"))
	svc := NewScheduleService(testutil.NewTestUoW(database), testFiscalStart)
	anchoredChain(t, svc) // version 2

	stale := int64(1)
	ref := testRef
	ref.ExpectedVersion = &stale
	_, err := svc.Reorder(context.Background(), contract.ReorderRequest{ChainRef: ref, ItemID: "b", NewIndex: 0})
	require.ErrorIs(t, err, domain.ErrConflict)

	stored := loadStored(t, database)
	assert.Equal(t, int64(2), stored.Version)
	assert.Equal(t, "a", stored.Items[0].ID)
}

func TestScheduleService_EditItemCascades(t *testing.T) {
	database := testutil.NewTestDB(t)
	seedChain(t, database, testutil.NewTestItem("a"), testutil.NewTestItem("b"), testutil.NewTestItem("c"))
	svc := NewScheduleService(testutil.NewTestUoW(database), testFiscalStart)
	anchoredChain(t, svc)

	two := 2
	res, err := svc.EditItem(context.Background(), contract.EditItemRequest{
		ChainRef: testRef, ItemID: "a", DurationWorkdays: &two, AssignedBy: "planner",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"a 2024-01-01..2024-01-02",
		"b 2024-01-03..2024-01-09",
		"c 2024-01-10..2024-01-16",
	}, dates(res.Chain.Items))
	assert.Equal(t, "planner", res.Chain.Items[0].AssignedBy)
}

func TestScheduleService_EditManualItemIsIsolated(t *testing.T) {
	database := testutil.NewTestDB(t)
	seedChain(t, database,
		testutil.NewTestItem("a"),
		testutil.NewTestItem("m", testutil.WithManual(testutil.Date(2024, 3, 4), nil), testutil.WithDuration(2)),
		testutil.NewTestItem("b"),
	)
	svc := NewScheduleService(testutil.NewTestUoW(database), testFiscalStart)
	anchoredChain(t, svc)

	start := "2024-03-11"
	res, err := svc.EditItem(context.Background(), contract.EditItemRequest{ChainRef: testRef, ItemID: "m", StartDate: &start})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"a 2024-01-01..2024-01-05",
		"m 2024-03-11..2024-03-12",
		"b 2024-01-08..2024-01-12",
	}, dates(res.Chain.Items))
	assert.Equal(t, []string{"m"}, res.Changed)
}

func TestScheduleService_EditItemValidation(t *testing.T) {
	database := testutil.NewTestDB(t)
	seedChain(t, database, testutil.NewTestItem("a"))
	svc := NewScheduleService(testutil.NewTestUoW(database), testFiscalStart)
	ctx := context.Background()

	_, err := svc.EditItem(ctx, contract.EditItemRequest{ChainRef: testRef, ItemID: "a"})
	require.ErrorIs(t, err, domain.ErrValidation, "empty patch")

	end := "2024-02-01"
	_, err = svc.EditItem(ctx, contract.EditItemRequest{ChainRef: testRef, ItemID: "a", EndDate: &end})
	require.ErrorIs(t, err, domain.ErrValidation, "auto items derive their end date")

	zero := 0
	_, err = svc.EditItem(ctx, contract.EditItemRequest{ChainRef: testRef, ItemID: "a", DurationWorkdays: &zero})
	require.ErrorIs(t, err, domain.ErrValidation)

	assert.Equal(t, int64(1), loadStored(t, database).Version)
}

func TestScheduleService_RollbackOnItemWriteFailure(t *testing.T) {
	database := testutil.NewTestDB(t)
	seedChain(t, database, testutil.NewTestItem("a"), testutil.NewTestItem("b"))
	anchoredChain(t, NewScheduleService(testutil.NewTestUoW(database), testFiscalStart))

	// ExecContext #1 bumps the version, #2 clears active items, #3 writes
	// the first item. Failing on #3 must undo the version bump.
	failUoW := &testutil.FaultyUoW{
		DB:     database,
		FailOn: 3,
		Err:    fmt.Errorf("injected item write failure"),
	}
	svc := NewScheduleService(failUoW, testFiscalStart)

	_, err := svc.Reorder(context.Background(), contract.ReorderRequest{ChainRef: testRef, ItemID: "b", NewIndex: 0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "injected item write failure")

	stored := loadStored(t, database)
	assert.Equal(t, int64(2), stored.Version, "version bump should be rolled back")
	require.Len(t, stored.Items, 2, "cleared items should be restored")
	assert.Equal(t, "a", stored.Items[0].ID)
	assert.Equal(t, domain.Date(2024, 1, 1), *stored.Items[0].StartDate)
}

func TestScheduleService_CloseAndHistory(t *testing.T) {
	database := testutil.NewTestDB(t)
	seedChain(t, database, testutil.NewTestItem("a"), testutil.NewTestItem("b"), testutil.NewTestItem("c"))
	svc := NewScheduleService(testutil.NewTestUoW(database), testFiscalStart)
	closedAt := time.Date(2024, 1, 9, 17, 0, 0, 0, time.UTC)
	svc.(*scheduleService).now = fixedClock(closedAt)
	anchoredChain(t, svc)
	ctx := context.Background()

	res, err := svc.Close(ctx, contract.CloseItemRequest{ChainRef: testRef, ItemID: "a"})
	require.NoError(t, err)

	// b keeps its stored start; the chain is not re-anchored on close.
	assert.Equal(t, []string{
		"b 2024-01-08..2024-01-12",
		"c 2024-01-15..2024-01-19",
	}, dates(res.Chain.Items))
	assert.Equal(t, 0, res.Chain.Items[0].Order)

	history, err := svc.History(ctx, testRef)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "a", history[0].ID)
	require.NotNil(t, history[0].ClosedAt)
	assert.True(t, closedAt.Equal(*history[0].ClosedAt))
	assert.Equal(t, "2024-01-05", *history[0].EndDate, "closed items keep their last dates")

	_, err = svc.Close(ctx, contract.CloseItemRequest{ChainRef: testRef, ItemID: "a"})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestScheduleService_RecomputeSavesOnlyWhenDatesMove(t *testing.T) {
	database := testutil.NewTestDB(t)
	seedChain(t, database, testutil.NewTestItem("a"), testutil.NewTestItem("b"))
	svc := NewScheduleService(testutil.NewTestUoW(database), testFiscalStart)
	anchoredChain(t, svc) // version 2, computed weekends-only
	ctx := context.Background()

	res, err := svc.Recompute(ctx, testRef)
	require.NoError(t, err)
	assert.Empty(t, res.Changed)
	assert.Equal(t, int64(2), res.Chain.Version)

	importNewYearHoliday(t, database)
	res, err = svc.Recompute(ctx, testRef)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, res.Changed)
	assert.Equal(t, int64(3), res.Chain.Version)
	assert.Equal(t, "a 2024-01-02..2024-01-08", dates(res.Chain.Items)[0])
}

func TestScheduleService_Sync(t *testing.T) {
	database := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(database)
	svc := NewScheduleService(uow, testFiscalStart)
	workItems := NewWorkItemService(uow)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	w1 := testutil.NewTestWorkItem(testResource, testFY, "Bridge survey", testutil.WithCreatedAt(base))
	w2 := testutil.NewTestWorkItem(testResource, testFY, "Drainage estimate", testutil.WithCreatedAt(base.Add(time.Hour)))
	w3 := testutil.NewTestWorkItem(testResource, testFY, "Pending review", testutil.WithCreatedAt(base.Add(2*time.Hour)),
		testutil.WithStatus(domain.WorkItemWithdrawn))
	for _, w := range []*domain.WorkItem{w1, w2, w3} {
		require.NoError(t, workItems.Create(ctx, w))
	}

	req := contract.NewSyncRequest(testResource, testFY)
	req.DefaultDurationWorkdays = testutil.IntPtr(5)
	res, err := svc.Sync(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, []string{w1.ID, w2.ID}, res.Appended)
	assert.Empty(t, res.Closed)
	require.Len(t, res.Chain.Items, 2)
	assert.Equal(t, "Bridge survey", res.Chain.Items[0].Title)
	assert.Equal(t, int64(1), res.Chain.Version)

	anchoredChain(t, svc)

	require.NoError(t, workItems.UpdateStatus(ctx, w1.ID, domain.WorkItemCompleted))
	res, err = svc.Sync(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, []string{w1.ID}, res.Closed)
	assert.Empty(t, res.Appended)
	require.Len(t, res.Chain.Items, 1)
	assert.Equal(t, w2.ID, res.Chain.Items[0].ID)
	assert.Equal(t, int64(3), res.Chain.Version)

	// Nothing to do: no save, no version bump.
	res, err = svc.Sync(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Chain.Version)

	history, err := svc.History(ctx, testRef)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, w1.ID, history[0].ID)
}

func TestScheduleService_SyncRejectsBadDuration(t *testing.T) {
	svc := NewScheduleService(testutil.NewTestUoW(testutil.NewTestDB(t)), testFiscalStart)
	req := contract.NewSyncRequest(testResource, testFY)
	req.DefaultDurationWorkdays = testutil.IntPtr(0)
	_, err := svc.Sync(context.Background(), req)
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestScheduleService_ShowAndValidation(t *testing.T) {
	database := testutil.NewTestDB(t)
	seedChain(t, database, testutil.NewTestItem("a"))
	svc := NewScheduleService(testutil.NewTestUoW(database), testFiscalStart)
	ctx := context.Background()

	view, err := svc.Show(ctx, testRef)
	require.NoError(t, err)
	assert.Equal(t, int64(1), view.Version)
	require.Len(t, view.Items, 1)

	_, err = svc.Show(ctx, contract.ChainRef{FiscalYear: testFY})
	require.ErrorIs(t, err, domain.ErrValidation)

	keys, err := svc.ListChains(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.ChainKey{{ResourceKey: testResource, FiscalYear: testFY}}, keys)
}

func TestScheduleService_ObserverReceivesUseCaseEvents(t *testing.T) {
	database := testutil.NewTestDB(t)
	seedChain(t, database, testutil.NewTestItem("a"), testutil.NewTestItem("b"))
	obs := &recordingObserver{}
	svc := NewScheduleService(testutil.NewTestUoW(database), testFiscalStart, obs)

	_, err := svc.Reorder(context.Background(), contract.ReorderRequest{ChainRef: testRef, ItemID: "b", NewIndex: 0})
	require.NoError(t, err)
	ev := obs.last()
	assert.Equal(t, "chain.reorder", ev.Name)
	assert.True(t, ev.Success)
	assert.Equal(t, false, ev.Fields["holidays_loaded"])
	assert.Equal(t, true, ev.Fields["saved"])
	assert.Equal(t, int64(2), ev.Fields["version"])

	_, err = svc.Reorder(context.Background(), contract.ReorderRequest{ChainRef: testRef, ItemID: "b", NewIndex: 9})
	require.Error(t, err)
	ev = obs.last()
	assert.False(t, ev.Success)
	assert.ErrorIs(t, ev.Err, domain.ErrInvalidIndex)
}
