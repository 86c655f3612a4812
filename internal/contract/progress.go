package contract

import (
	"strings"
	"time"

	"github.com/alexanderramin/timeline/internal/domain"
)

// RecordProgressRequest is one operator update. Nil dates and notes keep
// the recorded value; an empty date string clears it.
type RecordProgressRequest struct {
	ItemID          string  `json:"item_id"`
	ActualStartDate *string `json:"actual_start_date,omitempty"`
	ActualEndDate   *string `json:"actual_end_date,omitempty"`
	ProgressPercent int     `json:"progress_percent"`
	StatusNotes     *string `json:"status_notes,omitempty"`
	UpdatedBy       string  `json:"updated_by,omitempty"`
}

func (r RecordProgressRequest) ToUpdate() (domain.ProgressUpdate, error) {
	u := domain.ProgressUpdate{
		ProgressPercent: r.ProgressPercent,
		StatusNotes:     r.StatusNotes,
		UpdatedBy:       strings.TrimSpace(r.UpdatedBy),
	}
	var err error
	if u.ActualStartDate, err = parseNullableDate("actual_start_date", r.ActualStartDate); err != nil {
		return u, err
	}
	if u.ActualEndDate, err = parseNullableDate("actual_end_date", r.ActualEndDate); err != nil {
		return u, err
	}
	return u, nil
}

type ProgressView struct {
	ItemID          string    `json:"item_id"`
	ActualStartDate *string   `json:"actual_start_date"`
	ActualEndDate   *string   `json:"actual_end_date"`
	ProgressPercent int       `json:"progress_percent"`
	StatusNotes     string    `json:"status_notes,omitempty"`
	UpdatedBy       string    `json:"updated_by,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
	Complete        bool      `json:"complete"`
}

func NewProgressView(p *domain.ActualProgress) *ProgressView {
	if p == nil {
		return nil
	}
	return &ProgressView{
		ItemID:          p.ItemID,
		ActualStartDate: domain.FormatDatePtr(p.ActualStartDate),
		ActualEndDate:   domain.FormatDatePtr(p.ActualEndDate),
		ProgressPercent: p.ProgressPercent,
		StatusNotes:     p.StatusNotes,
		UpdatedBy:       p.UpdatedBy,
		UpdatedAt:       p.UpdatedAt,
		Complete:        p.ProgressPercent == 100,
	}
}

// StatusRequest asks for the progress assessment of one chain. AsOf
// defaults to today.
type StatusRequest struct {
	ResourceKey string  `json:"resource_key"`
	FiscalYear  int     `json:"fiscal_year"`
	AsOf        *string `json:"as_of,omitempty"`
	// OnlyOverdue drops items that are not overdue.
	OnlyOverdue bool `json:"only_overdue,omitempty"`
}

func NewStatusRequest(resourceKey string, fiscalYear int) StatusRequest {
	return StatusRequest{ResourceKey: resourceKey, FiscalYear: fiscalYear}
}

type ItemStatus struct {
	Item         ScheduleItemView `json:"item"`
	Progress     *ProgressView    `json:"progress,omitempty"`
	State        string           `json:"state"`
	Risk         domain.RiskLevel `json:"risk"`
	Overdue      bool             `json:"overdue"`
	Complete     bool             `json:"complete"`
	SlipWorkdays int              `json:"slip_workdays"`
	WorkdaysLeft *int             `json:"workdays_left,omitempty"`
}

type StatusSummary struct {
	Total    int `json:"total"`
	OnTrack  int `json:"on_track"`
	AtRisk   int `json:"at_risk"`
	Critical int `json:"critical"`
	Overdue  int `json:"overdue"`
	Complete int `json:"complete"`
}

// StatusResponse lists items most urgent first.
type StatusResponse struct {
	ResourceKey    string        `json:"resource_key"`
	FiscalYear     int           `json:"fiscal_year"`
	AsOf           string        `json:"as_of"`
	HolidaysLoaded bool          `json:"holidays_loaded"`
	Items          []ItemStatus  `json:"items"`
	Summary        StatusSummary `json:"summary"`
}
