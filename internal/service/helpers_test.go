package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/timeline/internal/contract"
	"github.com/alexanderramin/timeline/internal/domain"
	"github.com/alexanderramin/timeline/internal/repository"
	"github.com/alexanderramin/timeline/internal/testutil"
	"github.com/stretchr/testify/require"
)

const (
	testResource = "estimator-1"
	testFY       = 2024
)

// testFiscalStart makes fiscal years follow the calendar year.
const testFiscalStart = time.January

var testRef = contract.ChainRef{ResourceKey: testResource, FiscalYear: testFY}

// seedChain stores items (renumbered in the given order) as a new chain at
// version 1.
func seedChain(t *testing.T, database *sql.DB, items ...domain.ScheduleItem) {
	t.Helper()
	c := testutil.NewTestChain(testResource, testFY, items...)
	require.NoError(t, repository.NewSQLiteChainRepo(database).SaveChain(context.Background(), c, 0))
}

func loadStored(t *testing.T, database *sql.DB) *domain.Chain {
	t.Helper()
	c, err := repository.NewSQLiteChainRepo(database).LoadChain(context.Background(), testResource, testFY)
	require.NoError(t, err)
	return c
}

func importNewYearHoliday(t *testing.T, database *sql.DB) {
	t.Helper()
	set := domain.NewHolidaySet(testFY, domain.Holiday{Date: domain.Date(2024, 1, 1), Name: "New Year's Day"})
	require.NoError(t, repository.NewSQLiteHolidayRepo(database).ReplaceHolidays(context.Background(), set))
}

// dates flattens a view's items into "id start..end" strings.
func dates(items []contract.ScheduleItemView) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		start, end := "-", "-"
		if it.StartDate != nil {
			start = *it.StartDate
		}
		if it.EndDate != nil {
			end = *it.EndDate
		}
		out = append(out, it.ID+" "+start+".."+end)
	}
	return out
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type recordingObserver struct {
	mu     sync.Mutex
	events []UseCaseEvent
}

func (o *recordingObserver) ObserveUseCase(_ context.Context, e UseCaseEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *recordingObserver) last() UseCaseEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.events[len(o.events)-1]
}
