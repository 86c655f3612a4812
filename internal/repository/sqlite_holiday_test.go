package repository

import (
	"context"
	"testing"

	"github.com/alexanderramin/timeline/internal/domain"
	"github.com/alexanderramin/timeline/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHolidayRepo_LoadUnknownYear(t *testing.T) {
	repo := NewSQLiteHolidayRepo(testutil.NewTestDB(t))

	_, err := repo.LoadHolidays(context.Background(), 2024)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestHolidayRepo_ReplaceAndLoad(t *testing.T) {
	repo := NewSQLiteHolidayRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	first := domain.NewHolidaySet(2023,
		domain.Holiday{Date: testutil.Date(2024, 1, 1), Name: "New Year"},
		domain.Holiday{Date: testutil.Date(2024, 2, 12), Name: "Founding Day (observed)"},
	)
	require.NoError(t, repo.ReplaceHolidays(ctx, first))

	loaded, err := repo.LoadHolidays(ctx, 2023)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Len())
	assert.True(t, loaded.Contains(testutil.Date(2024, 1, 1)))
	assert.Equal(t, "Founding Day (observed)", loaded.Holidays()[1].Name)

	// Replacing drops dates missing from the new set.
	require.NoError(t, repo.ReplaceHolidays(ctx, domain.NewHolidaySet(2023,
		domain.Holiday{Date: testutil.Date(2024, 1, 2), Name: "Bank holiday"},
	)))
	loaded, err = repo.LoadHolidays(ctx, 2023)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Len())
	assert.False(t, loaded.Contains(testutil.Date(2024, 1, 1)))
}

func TestHolidayRepo_EmptySetIsStillLoaded(t *testing.T) {
	repo := NewSQLiteHolidayRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.ReplaceHolidays(ctx, domain.NewHolidaySet(2025)))

	set, err := repo.LoadHolidays(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
	assert.Equal(t, 2025, set.FiscalYear)

	years, err := repo.ListYears(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{2025}, years)
}
