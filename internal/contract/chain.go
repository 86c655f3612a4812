// Package contract holds the request and response shapes shared by the
// service layer, the HTTP API and the CLI. Dates cross this boundary as
// YYYY-MM-DD strings.
package contract

import (
	"time"

	"github.com/alexanderramin/timeline/internal/domain"
)

// ChainRef names a chain. ExpectedVersion, when set, must match the stored
// version or the use case fails with a conflict before doing any work.
type ChainRef struct {
	ResourceKey     string `json:"resource_key"`
	FiscalYear      int    `json:"fiscal_year"`
	ExpectedVersion *int64 `json:"expected_version,omitempty"`
}

func (r ChainRef) Key() domain.ChainKey {
	return domain.ChainKey{ResourceKey: r.ResourceKey, FiscalYear: r.FiscalYear}
}

// Validate checks the fields every chain use case needs.
func (r ChainRef) Validate() error {
	if r.ResourceKey == "" {
		return domain.NewValidationError("resource_key", "is required")
	}
	if r.FiscalYear <= 0 {
		return domain.NewValidationError("fiscal_year", "must be a positive year, got %d", r.FiscalYear)
	}
	return nil
}

type ScheduleItemView struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title,omitempty"`
	Order              int        `json:"order"`
	AssignmentType     string     `json:"assignment_type"`
	StartDate          *string    `json:"start_date"`
	DurationWorkdays   *int       `json:"duration_workdays"`
	EndDate            *string    `json:"end_date"`
	ExcludeNonWorkdays bool       `json:"exclude_non_workdays"`
	AssignedBy         string     `json:"assigned_by,omitempty"`
	AssignedAt         time.Time  `json:"assigned_at"`
	ClosedAt           *time.Time `json:"closed_at,omitempty"`
}

func NewScheduleItemView(it domain.ScheduleItem) ScheduleItemView {
	return ScheduleItemView{
		ID:                 it.ID,
		Title:              it.Title,
		Order:              it.Order,
		AssignmentType:     string(it.AssignmentType),
		StartDate:          domain.FormatDatePtr(it.StartDate),
		DurationWorkdays:   domain.CloneInt(it.DurationWorkdays),
		EndDate:            domain.FormatDatePtr(it.EndDate),
		ExcludeNonWorkdays: it.ExcludeNonWorkdays,
		AssignedBy:         it.AssignedBy,
		AssignedAt:         it.AssignedAt,
		ClosedAt:           domain.CloneTime(it.ClosedAt),
	}
}

func NewScheduleItemViews(items []domain.ScheduleItem) []ScheduleItemView {
	out := make([]ScheduleItemView, 0, len(items))
	for _, it := range items {
		out = append(out, NewScheduleItemView(it))
	}
	return out
}

type ChainView struct {
	ResourceKey string    `json:"resource_key"`
	FiscalYear  int       `json:"fiscal_year"`
	Version     int64     `json:"version"`
	UpdatedAt   time.Time `json:"updated_at"`
	// HolidaysLoaded is false when any fiscal year the chain touches fell
	// back to weekends-only.
	HolidaysLoaded bool               `json:"holidays_loaded"`
	Items          []ScheduleItemView `json:"items"`
}

func NewChainView(c *domain.Chain, holidaysLoaded bool) ChainView {
	return ChainView{
		ResourceKey:    c.Key.ResourceKey,
		FiscalYear:     c.Key.FiscalYear,
		Version:        c.Version,
		UpdatedAt:      c.UpdatedAt,
		HolidaysLoaded: holidaysLoaded,
		Items:          NewScheduleItemViews(c.Items),
	}
}

// ChainResult is returned by every mutating chain use case. Changed lists
// the ids of items whose start or end date moved.
type ChainResult struct {
	Chain   ChainView `json:"chain"`
	Changed []string  `json:"changed"`
}

type ReorderRequest struct {
	ChainRef
	ItemID   string `json:"item_id"`
	NewIndex int    `json:"new_index"`
}

type CommonStartRequest struct {
	ChainRef
	StartDate string `json:"start_date"`
}

// EditItemRequest carries a partial edit. A nil field keeps the stored
// value; an empty date string clears it. ClearDuration unsets the duration.
type EditItemRequest struct {
	ChainRef
	ItemID             string  `json:"item_id"`
	AssignmentType     *string `json:"assignment_type,omitempty"`
	DurationWorkdays   *int    `json:"duration_workdays,omitempty"`
	ClearDuration      bool    `json:"clear_duration,omitempty"`
	StartDate          *string `json:"start_date,omitempty"`
	EndDate            *string `json:"end_date,omitempty"`
	ExcludeNonWorkdays *bool   `json:"exclude_non_workdays,omitempty"`
	AssignedBy         string  `json:"assigned_by,omitempty"`
}

// ToPatch parses the request into a domain patch.
func (r EditItemRequest) ToPatch() (domain.ItemPatch, error) {
	p := domain.ItemPatch{
		ExcludeNonWorkdays: r.ExcludeNonWorkdays,
		AssignedBy:         r.AssignedBy,
	}
	if r.AssignmentType != nil {
		t := domain.AssignmentType(*r.AssignmentType)
		if !t.Valid() {
			return p, domain.NewValidationError("assignment_type", "must be auto or manual, got %q", *r.AssignmentType)
		}
		p.AssignmentType = &t
	}
	switch {
	case r.ClearDuration:
		p.DurationWorkdays = domain.Clear[int]()
	case r.DurationWorkdays != nil:
		p.DurationWorkdays = domain.Set(*r.DurationWorkdays)
	}
	var err error
	if p.StartDate, err = parseNullableDate("start_date", r.StartDate); err != nil {
		return p, err
	}
	if p.EndDate, err = parseNullableDate("end_date", r.EndDate); err != nil {
		return p, err
	}
	return p, nil
}

type CloseItemRequest struct {
	ChainRef
	ItemID string `json:"item_id"`
}

// SyncRequest reconciles a chain with its eligible work items.
// DefaultDurationWorkdays is given to newly appended items.
type SyncRequest struct {
	ChainRef
	DefaultDurationWorkdays *int   `json:"default_duration_workdays,omitempty"`
	AssignedBy              string `json:"assigned_by,omitempty"`
}

func NewSyncRequest(resourceKey string, fiscalYear int) SyncRequest {
	return SyncRequest{
		ChainRef:   ChainRef{ResourceKey: resourceKey, FiscalYear: fiscalYear},
		AssignedBy: "sync",
	}
}

type SyncResult struct {
	ChainResult
	Appended []string `json:"appended"`
	Closed   []string `json:"closed"`
}

func parseNullableDate(field string, s *string) (*domain.Nullable[time.Time], error) {
	if s == nil {
		return nil, nil
	}
	d, err := domain.ParseDatePtr(field, s)
	if err != nil {
		return nil, err
	}
	return &domain.Nullable[time.Time]{Value: d}, nil
}
