package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/timeline/internal/domain"
	"github.com/google/uuid"
)

// GeneratedPlan holds the domain objects produced from a plan file, one
// entry per resource.
type GeneratedPlan struct {
	Chains []GeneratedChain
}

type GeneratedChain struct {
	Key         domain.ChainKey
	CommonStart *time.Time
	WorkItems   []*domain.WorkItem
	// Items holds the chain entries for eligible work items, in file order.
	Items []domain.ScheduleItem
}

// ToHolidaySet converts a validated holiday file.
func ToHolidaySet(f *HolidayFile) (domain.HolidaySet, error) {
	set := domain.NewHolidaySet(f.FiscalYear)
	for i, h := range f.Holidays {
		d, err := domain.ParseDate(fmt.Sprintf("holidays[%d].date", i), h.Date)
		if err != nil {
			return domain.HolidaySet{}, err
		}
		set.Add(domain.Holiday{Date: d, Name: strings.TrimSpace(h.Name)})
	}
	return set, nil
}

// ConvertPlan transforms a validated plan file into work items and chain
// items. Call ValidatePlanFile first; ConvertPlan assumes the file is valid.
func ConvertPlan(f *PlanFile, now time.Time) (*GeneratedPlan, error) {
	now = now.UTC()
	var defaults PlanDefaults
	if f.Defaults != nil {
		defaults = *f.Defaults
	}

	out := &GeneratedPlan{}
	for _, r := range f.Resources {
		gc := GeneratedChain{Key: domain.ChainKey{ResourceKey: r.ResourceKey, FiscalYear: f.FiscalYear}}
		start, err := domain.ParseDatePtr("common_start", r.CommonStart)
		if err != nil {
			return nil, err
		}
		gc.CommonStart = start

		for _, pi := range r.Items {
			wi := &domain.WorkItem{
				ID:          domain.CoalesceStr(pi.ID, uuid.New().String()),
				ResourceKey: r.ResourceKey,
				FiscalYear:  f.FiscalYear,
				Title:       pi.Title,
				Status:      domain.WorkItemStatus(domain.CoalesceStr(pi.Status, string(domain.WorkItemApproved))),
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			gc.WorkItems = append(gc.WorkItems, wi)
			if !wi.IsEligible() {
				continue
			}

			item, err := convertPlanItem(pi, wi, defaults, f.AssignedBy, now)
			if err != nil {
				return nil, fmt.Errorf("converting item %q: %w", pi.Title, err)
			}
			item.Order = len(gc.Items)
			gc.Items = append(gc.Items, item)
		}
		out.Chains = append(out.Chains, gc)
	}
	return out, nil
}

func convertPlanItem(pi PlanItem, wi *domain.WorkItem, defaults PlanDefaults, assignedBy string, now time.Time) (domain.ScheduleItem, error) {
	item := domain.ScheduleItem{
		ID:                 wi.ID,
		ResourceKey:        wi.ResourceKey,
		FiscalYear:         wi.FiscalYear,
		Title:              wi.Title,
		AssignmentType:     domain.AssignmentType(domain.CoalesceStr(pi.Assignment, string(domain.AssignAuto))),
		DurationWorkdays:   domain.CloneInt(pi.DurationWorkdays),
		ExcludeNonWorkdays: domain.BoolFromPtrWithDefault(true, pi.ExcludeNonWorkdays, defaults.ExcludeNonWorkdays),
		AssignedBy:         domain.CoalesceStr(assignedBy, "import"),
		AssignedAt:         now,
	}
	if item.DurationWorkdays == nil {
		item.DurationWorkdays = domain.CloneInt(defaults.DurationWorkdays)
	}

	var err error
	if item.StartDate, err = domain.ParseDatePtr("start_date", pi.StartDate); err != nil {
		return item, err
	}
	if item.EndDate, err = domain.ParseDatePtr("end_date", pi.EndDate); err != nil {
		return item, err
	}
	return item, item.Validate()
}
