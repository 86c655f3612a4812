package importer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alexanderramin/timeline/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadHolidayFile_YAML(t *testing.T) {
	path := writeFile(t, "fy2023.yaml", `
fiscal_year: 2023
holidays:
  - date: "2024-01-01"
    name: New Year's Day
  - date: "2024-01-08"
    name: Coming of Age Day
`)
	f, err := LoadHolidayFile(path)
	require.NoError(t, err)
	assert.Empty(t, ValidateHolidayFile(f, time.April))

	set, err := ToHolidaySet(f)
	require.NoError(t, err)
	assert.Equal(t, 2023, set.FiscalYear)
	assert.Equal(t, 2, set.Len())
	assert.True(t, set.Contains(domain.Date(2024, 1, 8)))
}

func TestLoadHolidayFile_JSON(t *testing.T) {
	path := writeFile(t, "fy2023.json", `{"fiscal_year": 2023, "holidays": [{"date": "2023-05-03"}]}`)
	f, err := LoadHolidayFile(path)
	require.NoError(t, err)
	require.Len(t, f.Holidays, 1)
	assert.Equal(t, "2023-05-03", f.Holidays[0].Date)
}

func TestLoadHolidayFile_Malformed(t *testing.T) {
	path := writeFile(t, "bad.json", `{"fiscal_year": `)
	_, err := LoadHolidayFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing holiday file")
}

func TestValidateHolidayFile_CollectsAllErrors(t *testing.T) {
	f := &HolidayFile{
		FiscalYear: 2023,
		Holidays: []HolidayEntry{
			{Date: "2024-01-01"},
			{Date: "2024-01-01"},
			{Date: "2024-04-01"},
			{Date: "01/02/2024"},
		},
	}
	errs := ValidateHolidayFile(f, time.April)
	require.Len(t, errs, 3)
	assert.Contains(t, errs[0].Error(), "duplicate")
	assert.Contains(t, errs[1].Error(), "outside fiscal year 2023")
	assert.Contains(t, errs[2].Error(), "invalid date format")
}

func TestValidateHolidayFile_MissingYear(t *testing.T) {
	errs := ValidateHolidayFile(&HolidayFile{}, time.April)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "fiscal_year")
}

const samplePlan = `
fiscal_year: 2023
assigned_by: planner
defaults:
  duration_workdays: 5
resources:
  - resource_key: estimator-1
    common_start: "2024-01-01"
    items:
      - id: WI-1
        title: Bridge survey
      - id: WI-2
        title: Drainage estimate
        duration_workdays: 3
        exclude_non_workdays: false
      - id: WI-3
        title: Site visit
        assignment: manual
        start_date: "2024-02-05"
        end_date: "2024-02-06"
      - id: WI-4
        title: Cancelled works
        status: withdrawn
  - resource_key: crew-a
    items:
      - title: Road repair
`

func TestConvertPlan(t *testing.T) {
	f, err := LoadPlanFile(writeFile(t, "plan.yml", samplePlan))
	require.NoError(t, err)
	require.Empty(t, ValidatePlanFile(f))

	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	plan, err := ConvertPlan(f, now)
	require.NoError(t, err)
	require.Len(t, plan.Chains, 2)

	est := plan.Chains[0]
	assert.Equal(t, domain.ChainKey{ResourceKey: "estimator-1", FiscalYear: 2023}, est.Key)
	require.NotNil(t, est.CommonStart)
	assert.Equal(t, domain.Date(2024, 1, 1), *est.CommonStart)
	assert.Len(t, est.WorkItems, 4)
	require.Len(t, est.Items, 3, "withdrawn work items get no chain slot")

	first := est.Items[0]
	assert.Equal(t, "WI-1", first.ID)
	assert.Equal(t, 0, first.Order)
	assert.Equal(t, domain.AssignAuto, first.AssignmentType)
	assert.Equal(t, 5, *first.DurationWorkdays)
	assert.True(t, first.ExcludeNonWorkdays)
	assert.Equal(t, "planner", first.AssignedBy)
	assert.Equal(t, now, first.AssignedAt)

	assert.Equal(t, 3, *est.Items[1].DurationWorkdays)
	assert.False(t, est.Items[1].ExcludeNonWorkdays)

	manual := est.Items[2]
	assert.Equal(t, domain.AssignManual, manual.AssignmentType)
	assert.Equal(t, domain.Date(2024, 2, 6), *manual.EndDate)
	assert.Equal(t, 2, manual.Order)

	crew := plan.Chains[1]
	require.Len(t, crew.Items, 1)
	assert.NotEmpty(t, crew.Items[0].ID)
	assert.Equal(t, crew.WorkItems[0].ID, crew.Items[0].ID)
	assert.Equal(t, domain.WorkItemApproved, crew.WorkItems[0].Status)
	assert.Nil(t, crew.CommonStart)
}

func TestValidatePlanFile_Errors(t *testing.T) {
	zero := 0
	start, end := "2024-02-10", "2024-02-01"
	f := &PlanFile{
		Resources: []ResourcePlan{
			{ResourceKey: "r1", Items: []PlanItem{
				{ID: "x", Title: "a"},
				{ID: "x", Title: ""},
				{Title: "b", Assignment: "fixed", DurationWorkdays: &zero},
				{Title: "c", EndDate: &end},
				{Title: "d", Assignment: "manual", StartDate: &start, EndDate: &end},
				{Title: "e", Status: "archived"},
			}},
			{ResourceKey: "r1"},
		},
	}
	errs := ValidatePlanFile(f)

	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	assert.Contains(t, msgs, "fiscal_year is required")
	assert.Contains(t, msgs, `resources[0].items[1].id: duplicate id "x"`)
	assert.Contains(t, msgs, "resources[0].items[1].title is required")
	assert.Contains(t, msgs, `resources[0].items[2].assignment: invalid assignment "fixed" (expected auto or manual)`)
	assert.Contains(t, msgs, "resources[0].items[2].duration_workdays must be > 0")
	assert.Contains(t, msgs, "resources[0].items[3].end_date: only manual items take an end date")
	assert.Contains(t, msgs, "resources[0].items[4].end_date must not be before start_date")
	assert.Contains(t, msgs, `resources[0].items[5].status: invalid status "archived"`)
	assert.Contains(t, msgs, `resources[1].resource_key: duplicate resource "r1"`)
}
