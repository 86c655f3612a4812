package httpapi

import (
	"fmt"
	"time"

	"github.com/alexanderramin/timeline/internal/contract"
	"github.com/alexanderramin/timeline/internal/domain"
)

// Request payloads

type ReorderBody struct {
	ItemID          string `json:"item_id" minLength:"1"`
	NewIndex        int    `json:"new_index"`
	ExpectedVersion *int64 `json:"expected_version,omitempty"`
}

type CommonStartBody struct {
	StartDate       string `json:"start_date" example:"2024-01-01"`
	ExpectedVersion *int64 `json:"expected_version,omitempty"`
}

type EditItemBody struct {
	AssignmentType     *string `json:"assignment_type,omitempty" enum:"auto,manual"`
	DurationWorkdays   *int    `json:"duration_workdays,omitempty"`
	ClearDuration      bool    `json:"clear_duration,omitempty"`
	StartDate          *string `json:"start_date,omitempty" doc:"YYYY-MM-DD, empty string clears"`
	EndDate            *string `json:"end_date,omitempty" doc:"YYYY-MM-DD, empty string clears"`
	ExcludeNonWorkdays *bool   `json:"exclude_non_workdays,omitempty"`
	AssignedBy         string  `json:"assigned_by,omitempty"`
	ExpectedVersion    *int64  `json:"expected_version,omitempty"`
}

type SyncBody struct {
	DefaultDurationWorkdays *int   `json:"default_duration_workdays,omitempty"`
	AssignedBy              string `json:"assigned_by,omitempty"`
	ExpectedVersion         *int64 `json:"expected_version,omitempty"`
}

type ProgressBody struct {
	ActualStartDate *string `json:"actual_start_date,omitempty"`
	ActualEndDate   *string `json:"actual_end_date,omitempty"`
	ProgressPercent int     `json:"progress_percent"`
	StatusNotes     *string `json:"status_notes,omitempty"`
	UpdatedBy       string  `json:"updated_by,omitempty"`
}

type HolidayEntry struct {
	Date string `json:"date" example:"2024-01-01"`
	Name string `json:"name,omitempty"`
}

type HolidaysBody struct {
	Holidays []HolidayEntry `json:"holidays"`
}

type CreateWorkItemBody struct {
	ID          string `json:"id,omitempty"`
	ResourceKey string `json:"resource_key"`
	FiscalYear  int    `json:"fiscal_year"`
	Title       string `json:"title"`
	Status      string `json:"status,omitempty" enum:"pending,approved,in_progress,completed,withdrawn"`
}

type UpdateWorkItemBody struct {
	Status string `json:"status" enum:"pending,approved,in_progress,completed,withdrawn"`
}

// Response payloads

type ChainKeyResponse struct {
	ResourceKey string `json:"resource_key"`
	FiscalYear  int    `json:"fiscal_year"`
}

type HolidaysResponse struct {
	FiscalYear int            `json:"fiscal_year"`
	Holidays   []HolidayEntry `json:"holidays"`
}

type WorkItemResponse struct {
	ID          string    `json:"id"`
	ResourceKey string    `json:"resource_key"`
	FiscalYear  int       `json:"fiscal_year"`
	Title       string    `json:"title"`
	Status      string    `json:"status"`
	Eligible    bool      `json:"eligible"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func chainKeyResponses(keys []domain.ChainKey) []ChainKeyResponse {
	out := make([]ChainKeyResponse, 0, len(keys))
	for _, k := range keys {
		out = append(out, ChainKeyResponse{ResourceKey: k.ResourceKey, FiscalYear: k.FiscalYear})
	}
	return out
}

func holidaysResponse(set *domain.HolidaySet) HolidaysResponse {
	resp := HolidaysResponse{FiscalYear: set.FiscalYear, Holidays: []HolidayEntry{}}
	for _, h := range set.Holidays() {
		resp.Holidays = append(resp.Holidays, HolidayEntry{Date: domain.FormatDate(h.Date), Name: h.Name})
	}
	return resp
}

func (b HolidaysBody) toSet(fiscalYear int) (domain.HolidaySet, error) {
	set := domain.NewHolidaySet(fiscalYear)
	for i, e := range b.Holidays {
		d, err := domain.ParseDate(fmt.Sprintf("holidays[%d].date", i), e.Date)
		if err != nil {
			return set, err
		}
		set.Add(domain.Holiday{Date: d, Name: e.Name})
	}
	return set, nil
}

func workItemResponse(w *domain.WorkItem) WorkItemResponse {
	return WorkItemResponse{
		ID:          w.ID,
		ResourceKey: w.ResourceKey,
		FiscalYear:  w.FiscalYear,
		Title:       w.Title,
		Status:      string(w.Status),
		Eligible:    w.IsEligible(),
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

func chainRef(resourceKey string, fiscalYear int, expected *int64) contract.ChainRef {
	return contract.ChainRef{ResourceKey: resourceKey, FiscalYear: fiscalYear, ExpectedVersion: expected}
}
