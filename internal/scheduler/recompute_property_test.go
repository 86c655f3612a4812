package scheduler

import (
	"math/rand"
	"testing"
	"time"

	"github.com/alexanderramin/timeline/internal/calendar"
	"github.com/alexanderramin/timeline/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRecompute_Invariants_RandomChains property-tests the recompute
// invariants over random chains: idempotence, end never before start, auto
// items never overlap their auto predecessor, and excluded items start and
// end on workdays.
func TestRecompute_Invariants_RandomChains(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	cal := calendar.New(time.April,
		domain.NewHolidaySet(2023, domain.Holiday{Date: d(2024, 1, 1)}, domain.Holiday{Date: d(2024, 2, 12)}),
		domain.NewHolidaySet(2024, domain.Holiday{Date: d(2024, 4, 29)}, domain.Holiday{Date: d(2024, 5, 3)}),
	).ForYear(2023)

	for trial := 0; trial < 200; trial++ {
		n := rng.Intn(10) + 1
		items := make([]domain.ScheduleItem, n)
		for i := range items {
			it := domain.ScheduleItem{
				ID:                 "item-" + string(rune('a'+i)),
				Order:              i,
				AssignmentType:     domain.AssignAuto,
				ExcludeNonWorkdays: rng.Intn(4) != 0,
			}
			if rng.Intn(6) != 0 {
				it.DurationWorkdays = ip(rng.Intn(15) + 1)
			}
			if rng.Intn(4) == 0 {
				it.AssignmentType = domain.AssignManual
				start := d(2024, 1, 1).AddDate(0, 0, rng.Intn(120))
				it.StartDate = &start
			}
			items[i] = it
		}
		rng.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })

		override := d(2024, 1, 1).AddDate(0, 0, rng.Intn(60))
		out := Recompute(items, cal, &override)
		require.Len(t, out, n)

		again := Recompute(out, cal, &override)
		assert.Equal(t, out, again, "trial %d: recompute must be idempotent", trial)

		var prevAutoEnd *time.Time
		for i, it := range out {
			assert.Equal(t, i, it.Order, "trial %d: output sorted by order", trial)
			if it.StartDate != nil && it.EndDate != nil {
				assert.False(t, it.EndDate.Before(*it.StartDate), "trial %d item %s: end before start", trial, it.ID)
			}
			if it.AssignmentType != domain.AssignAuto {
				continue
			}
			if it.ExcludeNonWorkdays && it.StartDate != nil {
				assert.True(t, cal.IsWorkday(*it.StartDate), "trial %d item %s: start on non-workday", trial, it.ID)
			}
			if it.ExcludeNonWorkdays && it.EndDate != nil {
				assert.True(t, cal.IsWorkday(*it.EndDate), "trial %d item %s: end on non-workday", trial, it.ID)
			}
			if prevAutoEnd != nil && it.StartDate != nil {
				assert.True(t, it.StartDate.After(*prevAutoEnd), "trial %d item %s: overlaps predecessor", trial, it.ID)
			}
			prevAutoEnd = it.EndDate
		}
	}
}
