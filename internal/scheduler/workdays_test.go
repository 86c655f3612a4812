package scheduler

import (
	"testing"
	"time"

	"github.com/alexanderramin/timeline/internal/calendar"
	"github.com/alexanderramin/timeline/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noWorkdays struct{}

func (noWorkdays) IsWorkday(time.Time) bool { return false }

func TestAddWorkdays(t *testing.T) {
	cal := calendar.New(time.January,
		domain.NewHolidaySet(2024, domain.Holiday{Date: d(2024, 1, 1)}),
		domain.NewHolidaySet(2025, domain.Holiday{Date: d(2025, 1, 1)}),
	).ForYear(2024)

	tests := []struct {
		name    string
		start   time.Time
		n       int
		exclude bool
		want    time.Time
	}{
		{"single day", d(2024, 1, 2), 1, true, d(2024, 1, 2)},
		{"crosses weekend", d(2024, 1, 4), 3, true, d(2024, 1, 8)},
		{"calendar days", d(2024, 1, 4), 3, false, d(2024, 1, 6)},
		{"starts on holiday", d(2024, 1, 1), 1, true, d(2024, 1, 2)},
		{"spills into next fiscal year", d(2024, 12, 31), 2, true, d(2025, 1, 2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := AddWorkdays(tt.start, tt.n, tt.exclude, cal)
			require.True(t, ok)
			assert.Equal(t, domain.FormatDate(tt.want), domain.FormatDate(got))
		})
	}
}

func TestAddWorkdays_RejectsNonPositive(t *testing.T) {
	_, ok := AddWorkdays(d(2024, 1, 2), 0, true, calendar.WeekendsOnly())
	assert.False(t, ok)
}

func TestAddWorkdays_GivesUpOnCalendarWithoutWorkdays(t *testing.T) {
	_, ok := AddWorkdays(d(2024, 1, 2), 1, true, noWorkdays{})
	assert.False(t, ok)
	_, ok = NextWorkday(d(2024, 1, 2), noWorkdays{})
	assert.False(t, ok)
}

func TestNextWorkday(t *testing.T) {
	got, ok := NextWorkday(d(2024, 1, 6), calendar.WeekendsOnly())
	require.True(t, ok)
	assert.Equal(t, d(2024, 1, 8), got)

	got, ok = NextWorkday(time.Date(2024, 1, 9, 17, 45, 0, 0, time.UTC), calendar.WeekendsOnly())
	require.True(t, ok)
	assert.Equal(t, d(2024, 1, 9), got)
}

func TestCountWorkdays(t *testing.T) {
	cal := calendar.WeekendsOnly()
	assert.Equal(t, 5, CountWorkdays(d(2024, 1, 1), d(2024, 1, 7), cal))
	assert.Equal(t, 10, CountWorkdays(d(2024, 1, 1), d(2024, 1, 12), cal))
	assert.Equal(t, 0, CountWorkdays(d(2024, 1, 6), d(2024, 1, 7), cal))
	assert.Equal(t, 0, CountWorkdays(d(2024, 1, 9), d(2024, 1, 8), cal))
}
