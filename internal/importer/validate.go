package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/timeline/internal/domain"
)

var validAssignments = map[string]bool{"": true, "auto": true, "manual": true}

// ValidateHolidayFile checks a holiday file against the fiscal year it
// claims to cover. Returns every error found.
func ValidateHolidayFile(f *HolidayFile, startMonth time.Month) []error {
	var errs []error
	if f.FiscalYear <= 0 {
		errs = append(errs, fmt.Errorf("fiscal_year is required"))
		return errs
	}
	first, last := domain.FiscalYearBounds(f.FiscalYear, startMonth)
	seen := make(map[string]bool)
	for i, h := range f.Holidays {
		prefix := fmt.Sprintf("holidays[%d]", i)
		d, err := time.Parse(domain.DateLayout, strings.TrimSpace(h.Date))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s.date: invalid date format %q (expected YYYY-MM-DD)", prefix, h.Date))
			continue
		}
		if d.Before(first) || d.After(last) {
			errs = append(errs, fmt.Errorf("%s.date: %s is outside fiscal year %d (%s..%s)",
				prefix, h.Date, f.FiscalYear, domain.FormatDate(first), domain.FormatDate(last)))
		}
		key := domain.FormatDate(d)
		if seen[key] {
			errs = append(errs, fmt.Errorf("%s.date: duplicate date %s", prefix, key))
		}
		seen[key] = true
	}
	return errs
}

// ValidatePlanFile checks a plan file before conversion. Returns every
// error found.
func ValidatePlanFile(f *PlanFile) []error {
	var errs []error
	if f.FiscalYear <= 0 {
		errs = append(errs, fmt.Errorf("fiscal_year is required"))
	}
	if f.Defaults != nil && f.Defaults.DurationWorkdays != nil && *f.Defaults.DurationWorkdays <= 0 {
		errs = append(errs, fmt.Errorf("defaults.duration_workdays must be > 0"))
	}
	if len(f.Resources) == 0 {
		errs = append(errs, fmt.Errorf("at least one resource is required"))
	}

	resources := make(map[string]bool)
	ids := make(map[string]bool)
	for i, r := range f.Resources {
		prefix := fmt.Sprintf("resources[%d]", i)
		if r.ResourceKey == "" {
			errs = append(errs, fmt.Errorf("%s.resource_key is required", prefix))
		} else if resources[r.ResourceKey] {
			errs = append(errs, fmt.Errorf("%s.resource_key: duplicate resource %q", prefix, r.ResourceKey))
		}
		resources[r.ResourceKey] = true
		errs = append(errs, validateOptionalDate(prefix+".common_start", r.CommonStart)...)
		for j := range r.Items {
			errs = append(errs, validatePlanItem(fmt.Sprintf("%s.items[%d]", prefix, j), &r.Items[j], ids)...)
		}
	}
	return errs
}

func validatePlanItem(prefix string, it *PlanItem, ids map[string]bool) []error {
	var errs []error
	if it.Title == "" {
		errs = append(errs, fmt.Errorf("%s.title is required", prefix))
	}
	if it.ID != "" {
		if ids[it.ID] {
			errs = append(errs, fmt.Errorf("%s.id: duplicate id %q", prefix, it.ID))
		}
		ids[it.ID] = true
	}
	if it.Status != "" && !domain.ValidWorkItemStatuses[it.Status] {
		errs = append(errs, fmt.Errorf("%s.status: invalid status %q", prefix, it.Status))
	}
	if !validAssignments[it.Assignment] {
		errs = append(errs, fmt.Errorf("%s.assignment: invalid assignment %q (expected auto or manual)", prefix, it.Assignment))
	}
	if it.DurationWorkdays != nil && *it.DurationWorkdays <= 0 {
		errs = append(errs, fmt.Errorf("%s.duration_workdays must be > 0", prefix))
	}
	errs = append(errs, validateOptionalDate(prefix+".start_date", it.StartDate)...)
	errs = append(errs, validateOptionalDate(prefix+".end_date", it.EndDate)...)

	if it.Assignment != "manual" && it.EndDate != nil {
		errs = append(errs, fmt.Errorf("%s.end_date: only manual items take an end date", prefix))
	}
	if it.StartDate != nil && it.EndDate != nil {
		start, startErr := time.Parse(domain.DateLayout, *it.StartDate)
		end, endErr := time.Parse(domain.DateLayout, *it.EndDate)
		if startErr == nil && endErr == nil && end.Before(start) {
			errs = append(errs, fmt.Errorf("%s.end_date must not be before start_date", prefix))
		}
	}
	return errs
}

func validateOptionalDate(field string, s *string) []error {
	if s == nil {
		return nil
	}
	if _, err := time.Parse(domain.DateLayout, *s); err != nil {
		return []error{fmt.Errorf("%s: invalid date format %q (expected YYYY-MM-DD)", field, *s)}
	}
	return nil
}
